package harness

import (
	"github.com/roach88/replacer/internal/ir"
)

// Trace event types.
const (
	EventStep = "step"
	EventPass = "pass"
)

// TraceEvent is one entry of a scenario trace: either a step with the
// document state after it, or a pass the engine journaled during it.
type TraceEvent struct {
	Type    string         `json:"type"`
	Seq     int64          `json:"seq"`
	Step    string         `json:"step,omitempty"`
	Args    map[string]any `json:"args,omitempty"`
	Text    string         `json:"text,omitempty"`
	State   string         `json:"state,omitempty"`
	Enabled bool           `json:"enabled"`
	Pass    *ir.Pass       `json:"pass,omitempty"`
}

// Final is the observable state after a run.
type Final struct {
	Text    string `json:"text"`
	State   string `json:"state"`
	Enabled bool   `json:"enabled"`
	Joins   int    `json:"joins"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Trace holds steps and passes in execution order.
	Trace []TraceEvent `json:"trace"`

	// Passes is the journal content after the run.
	Passes []ir.Pass `json:"passes"`

	Final Final `json:"final"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Passes: []ir.Pass{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// EditCount returns the number of journaled edits.
func (r *Result) EditCount() int {
	n := 0
	for _, p := range r.Passes {
		n += p.EditCount()
	}
	return n
}
