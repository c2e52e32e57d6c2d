package harness

import "github.com/roach88/wiregraph/internal/ir"

// StepEvent records the outcome of one step.
type StepEvent struct {
	Step    int       `json:"step"`
	Op      string    `json:"op"`
	Applied bool      `json:"applied"`
	Node    ir.NodeID `json:"node,omitempty"`
	Link    ir.LinkID `json:"link,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held and every failed step was
	// expected by an error assertion.
	Pass bool `json:"pass"`

	// Trace holds one event per step, in order.
	Trace []StepEvent `json:"trace"`

	// Errors contains assertion failure messages.
	Errors []string `json:"errors,omitempty"`

	// Summary describes the final graph.
	Summary Summary `json:"summary"`

	// Document is the final serialized graph.
	Document *ir.Document `json:"-"`
}

// Summary is the geometry-free view of the final graph used for golden
// snapshots.
type Summary struct {
	Nodes    []NodeSummary `json:"nodes"`
	Links    []LinkSummary `json:"links"`
	Valid    bool          `json:"valid"`
	Errors   []string      `json:"errors"`
	Warnings []string      `json:"warnings"`
}

// NodeSummary is one node in a Summary.
type NodeSummary struct {
	ID            ir.NodeID `json:"id"`
	Alias         string    `json:"alias,omitempty"`
	Type          string    `json:"type"`
	Complete      bool      `json:"complete"`
	ChainComplete bool      `json:"chain_complete"`
}

// LinkSummary is one link in a Summary, with slot names instead of indices.
type LinkSummary struct {
	ID     ir.LinkID `json:"id"`
	Origin ir.NodeID `json:"origin"`
	Output string    `json:"output"`
	Target ir.NodeID `json:"target"`
	Input  string    `json:"input"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []StepEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
