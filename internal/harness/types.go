package harness

import "sort"

// TraceEvent records the outcome of one scenario step.
type TraceEvent struct {
	Seq       int64  `json:"seq"`
	Op        string `json:"op"`
	ModelID   string `json:"model_id,omitempty"`
	Version   string `json:"version,omitempty"`
	LoadClass string `json:"load_class,omitempty"`
	Published bool   `json:"published,omitempty"`
	Code      string `json:"code,omitempty"` // error code when the step failed
}

// ModelSnapshot is the final state of one stored model.
type ModelSnapshot struct {
	ID        string         `json:"id"`
	Version   string         `json:"version"`
	LoadClass string         `json:"load_class"`
	Published bool           `json:"published"`
	Bays      int            `json:"bays"`
	Lifts     int            `json:"lifts"`
	Materials map[string]int `json:"materials"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors lists the failed expectations and assertions.
	Errors []string `json:"errors,omitempty"`

	// Models is the job's final model list, newest first.
	Models []ModelSnapshot `json:"models"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Models: []ModelSnapshot{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Model returns the snapshot with the given revision label.
func (r *Result) Model(revision string) (ModelSnapshot, bool) {
	for _, m := range r.Models {
		if m.Version == revision {
			return m, true
		}
	}
	return ModelSnapshot{}, false
}

// Versions returns the revision labels of the final models, newest first.
func (r *Result) Versions() []string {
	out := make([]string, len(r.Models))
	for i, m := range r.Models {
		out[i] = m.Version
	}
	return out
}

// itemCodes returns the keys of m in sorted order.
func itemCodes(m map[string]int) []string {
	codes := make([]string, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
