package compliance

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/scaffold/internal/graph"
	"github.com/roach88/scaffold/internal/loadclass"
)

// Facts are the graph measurements a CUE rule set constrains.
type Facts struct {
	BayCount   int     `json:"bay_count"`
	LiftCount  int     `json:"lift_count"`
	LengthM    float64 `json:"length_m"`
	HeightM    float64 `json:"height_m"`
	LiftM      float64 `json:"lift_m"`
	BayLengthM float64 `json:"bay_length_m"`
	LoadClass  string  `json:"load_class"`
	NodeCount  int     `json:"node_count"`
	EdgeCount  int     `json:"edge_count"`
}

var factNames = map[string]bool{
	"bay_count":    true,
	"lift_count":   true,
	"length_m":     true,
	"height_m":     true,
	"lift_m":       true,
	"bay_length_m": true,
	"load_class":   true,
	"node_count":   true,
	"edge_count":   true,
}

// FactsOf measures g. LiftM is the tallest single lift and BayLengthM the
// longest bay, so limits written against them bound every lift and bay.
func FactsOf(g *graph.Graph) Facts {
	f := Facts{
		BayCount:  g.BayCount(),
		LiftCount: g.LiftCount(),
		LengthM:   g.TotalLength(),
		HeightM:   g.MaxHeight(),
		LoadClass: loadclass.Estimate(g),
		NodeCount: len(g.Nodes),
		EdgeCount: len(g.Edges),
	}
	for _, b := range g.Bays {
		f.BayLengthM = max(f.BayLengthM, b.LengthM)
	}
	var below float64
	for _, l := range g.Lifts {
		f.LiftM = max(f.LiftM, l.HeightM-below)
		below = l.HeightM
	}
	return f
}

// RuleSet is a Checker whose rules are CUE constraints on a top-level
// `facts` struct, for example:
//
//	facts: {
//		height_m:   <=30
//		lift_m:     <=2.0
//		load_class: "Class 3" | "Class 4"
//	}
//
// Each violated constraint becomes one issue. Issues are sorted so results
// are stable across runs.
type RuleSet struct {
	Name string

	mu    sync.Mutex // cue.Context is not safe for concurrent use
	ctx   *cue.Context
	facts cue.Value
}

// ParseRuleSet compiles CUE source into a RuleSet.
func ParseRuleSet(name string, src []byte) (*RuleSet, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile rule set %s: %w", name, err)
	}

	facts := v.LookupPath(cue.ParsePath("facts"))
	if !facts.Exists() {
		return nil, fmt.Errorf("rule set %s: missing top-level facts struct", name)
	}

	iter, err := facts.Fields()
	if err != nil {
		return nil, fmt.Errorf("rule set %s: facts: %w", name, err)
	}
	for iter.Next() {
		if !factNames[iter.Selector().String()] {
			return nil, fmt.Errorf("rule set %s: unknown fact %q", name, iter.Selector().String())
		}
	}

	return &RuleSet{Name: name, ctx: ctx, facts: facts}, nil
}

// LoadRuleSet reads and compiles a .cue rule file.
func LoadRuleSet(path string) (*RuleSet, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule set: %w", err)
	}
	return ParseRuleSet(filepath.Base(path), src)
}

// Check implements Checker.
func (r *RuleSet) Check(g *graph.Graph) Result {
	if g == nil {
		return Failed("graph is nil")
	}
	f := FactsOf(g)

	r.mu.Lock()
	defer r.mu.Unlock()

	unified := r.facts.Unify(r.ctx.Encode(f))
	err := unified.Validate(cue.Concrete(true))
	if err == nil {
		return Passed()
	}

	var issues []string
	for _, e := range errors.Errors(err) {
		issues = append(issues, e.Error())
	}
	if len(issues) == 0 {
		issues = []string{err.Error()}
	}
	sort.Strings(issues)
	return Failed(issues...)
}
