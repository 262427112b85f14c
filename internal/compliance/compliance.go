// Package compliance decides whether a scaffold graph may be published.
//
// A Checker is a pure predicate over a graph: it must be deterministic and
// must not retain state between calls. The lifecycle treats any failing
// Result as a hard block on publication and surfaces Issues verbatim.
package compliance

import (
	"github.com/roach88/scaffold/internal/graph"
)

// Result is the outcome of a compliance check.
type Result struct {
	Pass   bool     `json:"pass"`
	Issues []string `json:"issues"`
}

// Passed returns a passing result with an empty issue list.
func Passed() Result {
	return Result{Pass: true, Issues: []string{}}
}

// Failed returns a failing result carrying issues.
func Failed(issues ...string) Result {
	return Result{Pass: false, Issues: issues}
}

// Checker validates a graph.
type Checker interface {
	Check(g *graph.Graph) Result
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(g *graph.Graph) Result

// Check calls f(g).
func (f CheckerFunc) Check(g *graph.Graph) Result {
	return f(g)
}

// AlwaysPass is the v1 rule set: every graph passes with no issues.
type AlwaysPass struct{}

// Check implements Checker.
func (AlwaysPass) Check(*graph.Graph) Result {
	return Passed()
}

// Structural fails graphs that break the structural invariants reported by
// graph.Check (duplicate node ids, dangling edges, gapped indices).
type Structural struct{}

// Check implements Checker.
func (Structural) Check(g *graph.Graph) Result {
	violations := graph.Check(g)
	if len(violations) == 0 {
		return Passed()
	}
	issues := make([]string, len(violations))
	for i, v := range violations {
		issues[i] = v.String()
	}
	return Failed(issues...)
}

// Chain runs every checker in order. The chain passes only if all of them
// pass; issues are concatenated in checker order.
func Chain(checkers ...Checker) Checker {
	return chain(checkers)
}

type chain []Checker

func (c chain) Check(g *graph.Graph) Result {
	out := Passed()
	for _, ch := range c {
		r := ch.Check(g)
		if !r.Pass {
			out.Pass = false
		}
		out.Issues = append(out.Issues, r.Issues...)
	}
	return out
}
