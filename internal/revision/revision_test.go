package revision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNext(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "Rev A"},
		{" ", "Rev A"},
		{"\t\n", "Rev A"},
		{"Rev A", "Rev B"},
		{"Rev B", "Rev C"},
		{"Rev Y", "Rev Z"},
		{"Rev Z", "Rev Z"},
		{"garbage", "Rev A"},
		{"Rev a", "Rev A"},
		{"Rev AA", "Rev A"},
		{"rev B", "Rev A"},
		{" Rev B", "Rev A"},
		{"Rev 1", "Rev A"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Next(tt.in))
		})
	}
}

func TestNext_WalksWholeAlphabet(t *testing.T) {
	label := Next("")
	seen := []string{label}
	for !IsTerminal(label) {
		next := Next(label)
		assert.Equal(t, 1, Compare(next, label))
		label = next
		seen = append(seen, label)
	}

	assert.Len(t, seen, 26)
	assert.Equal(t, Initial, seen[0])
	assert.Equal(t, Terminal, seen[25])
	assert.Equal(t, Terminal, Next(Terminal))
}

func TestParse(t *testing.T) {
	l, ok := Parse("Rev Q")
	assert.True(t, ok)
	assert.Equal(t, 'Q', l)

	_, ok = Parse("Rev")
	assert.False(t, ok)
	assert.True(t, Valid("Rev C"))
	assert.False(t, Valid("C"))
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, Compare("Rev A", "Rev B"))
	assert.Equal(t, 1, Compare("Rev C", "Rev B"))
	assert.Equal(t, 0, Compare("Rev D", "Rev D"))
	assert.Equal(t, -1, Compare("junk", "Rev A"))
	assert.Equal(t, 1, Compare("Rev A", "junk"))
	assert.Equal(t, 0, Compare("junk", ""))
}
