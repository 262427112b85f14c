// Package revision implements the "Rev A" .. "Rev Z" label sequence used to
// version scaffold models.
//
// Next is total: empty or malformed input restarts the sequence at Initial,
// and the terminal label saturates instead of rolling over. Callers that need
// a diagnostic for malformed labels should check Parse first.
package revision

import (
	"regexp"
	"strings"
)

// Labels at the ends of the sequence.
const (
	Initial  = "Rev A"
	Terminal = "Rev Z"
)

var labelPattern = regexp.MustCompile(`^Rev ([A-Z])$`)

// Next returns the label following current.
func Next(current string) string {
	if strings.TrimSpace(current) == "" {
		return Initial
	}

	letter, ok := Parse(current)
	if !ok {
		return Initial
	}
	if letter == 'Z' {
		return Terminal
	}
	return Label(letter + 1)
}

// Parse extracts the letter of a well-formed label.
func Parse(label string) (rune, bool) {
	m := labelPattern.FindStringSubmatch(label)
	if m == nil {
		return 0, false
	}
	return rune(m[1][0]), true
}

// Label formats the label for letter, which must be in 'A'..'Z'.
func Label(letter rune) string {
	return "Rev " + string(letter)
}

// Valid reports whether label is a well-formed revision label.
func Valid(label string) bool {
	_, ok := Parse(label)
	return ok
}

// IsTerminal reports whether label is the last label in the sequence.
func IsTerminal(label string) bool {
	return label == Terminal
}

// Compare orders two labels by sequence position. Malformed labels sort
// before every well-formed one and compare equal to each other.
func Compare(a, b string) int {
	la, okA := Parse(a)
	lb, okB := Parse(b)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return -1
	case !okB:
		return 1
	case la < lb:
		return -1
	case la > lb:
		return 1
	default:
		return 0
	}
}
