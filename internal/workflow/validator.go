package workflow

import (
	"fmt"
	"log/slog"

	"github.com/roach88/wiregraph/internal/graph"
	"github.com/roach88/wiregraph/internal/ir"
)

// Default node types for the workflow terminals.
const (
	DefaultStartType = "start_flow"
	DefaultEndType   = "end_flow"
)

// Issue codes.
const (
	CodeNoStart       = "E201"
	CodeMultipleStart = "E202"
	CodeNoEnd         = "E203"
	CodeMultipleEnd   = "E204"
	CodeNoPath        = "E205"
	CodeUnconnected   = "W201"
	CodeCycle         = "W202"
)

// Decision is the answer to CanCreate.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// PathResult is the answer to FindPath. Path runs from Start to End inclusive.
type PathResult struct {
	Valid  bool        `json:"valid"`
	Reason string      `json:"reason,omitempty"`
	Path   []ir.NodeID `json:"path,omitempty"`
}

// Issue is one structural error or warning.
type Issue struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Nodes   []ir.NodeID `json:"nodes,omitempty"`
}

// Report aggregates every structural check.
type Report struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// Validator checks one graph.
type Validator struct {
	g         *graph.Graph
	startType string
	endType   string
	logger    *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithStartType sets the node type that marks the workflow entry.
func WithStartType(t string) Option {
	return func(v *Validator) {
		v.startType = t
	}
}

// WithEndType sets the node type that marks the workflow exit.
func WithEndType(t string) Option {
	return func(v *Validator) {
		v.endType = t
	}
}

// WithLogger sets the logger. Default: the graph's logger.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = l
	}
}

// New creates a Validator for g.
func New(g *graph.Graph, opts ...Option) *Validator {
	v := &Validator{
		g:         g,
		startType: DefaultStartType,
		endType:   DefaultEndType,
		logger:    g.Logger(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// StartType returns the configured Start node type.
func (v *Validator) StartType() string { return v.startType }

// EndType returns the configured End node type.
func (v *Validator) EndType() string { return v.endType }

// CanCreate reports whether a node of nodeType may be added. Only a second
// Start or End is refused.
func (v *Validator) CanCreate(nodeType string) Decision {
	switch nodeType {
	case v.startType:
		if len(v.nodesOfType(v.startType)) > 0 {
			return Decision{Reason: "workflow already has a Start node"}
		}
	case v.endType:
		if len(v.nodesOfType(v.endType)) > 0 {
			return Decision{Reason: "workflow already has an End node"}
		}
	}
	return Decision{Allowed: true}
}

// FindPath searches breadth first from the unique Start to the unique End.
// Neighbors are explored in link-id order, so the result is the first
// shortest path in creation order.
func (v *Validator) FindPath() PathResult {
	starts := v.nodesOfType(v.startType)
	ends := v.nodesOfType(v.endType)
	switch {
	case len(starts) == 0:
		return PathResult{Reason: "no Start node"}
	case len(starts) > 1:
		return PathResult{Reason: "multiple Start nodes"}
	case len(ends) == 0:
		return PathResult{Reason: "no End node"}
	case len(ends) > 1:
		return PathResult{Reason: "multiple End nodes"}
	}

	start, end := starts[0], ends[0]
	adj := forwardAdjacency(v.g)

	parent := map[ir.NodeID]ir.NodeID{start: 0}
	queue := []ir.NodeID{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == end {
			return PathResult{Valid: true, Path: unwind(parent, end)}
		}
		for _, next := range adj[cur] {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = cur
			queue = append(queue, next)
		}
	}
	return PathResult{Reason: "no path from Start to End"}
}

func unwind(parent map[ir.NodeID]ir.NodeID, end ir.NodeID) []ir.NodeID {
	var rev []ir.NodeID
	for cur := end; cur != 0; cur = parent[cur] {
		rev = append(rev, cur)
	}
	path := make([]ir.NodeID, len(rev))
	for i, id := range rev {
		path[len(rev)-1-i] = id
	}
	return path
}

// Validate runs every check. Warnings never affect Valid.
func (v *Validator) Validate() Report {
	r := Report{Errors: []Issue{}, Warnings: []Issue{}}

	starts := v.nodesOfType(v.startType)
	ends := v.nodesOfType(v.endType)
	switch len(starts) {
	case 0:
		r.Errors = append(r.Errors, Issue{Code: CodeNoStart, Message: "no Start node"})
	case 1:
	default:
		r.Errors = append(r.Errors, Issue{
			Code:    CodeMultipleStart,
			Message: fmt.Sprintf("multiple Start nodes (%d)", len(starts)),
			Nodes:   starts,
		})
	}
	switch len(ends) {
	case 0:
		r.Errors = append(r.Errors, Issue{Code: CodeNoEnd, Message: "no End node"})
	case 1:
	default:
		r.Errors = append(r.Errors, Issue{
			Code:    CodeMultipleEnd,
			Message: fmt.Sprintf("multiple End nodes (%d)", len(ends)),
			Nodes:   ends,
		})
	}

	if len(r.Errors) == 0 {
		if p := v.FindPath(); !p.Valid {
			r.Errors = append(r.Errors, Issue{
				Code:    CodeNoPath,
				Message: p.Reason,
				Nodes:   []ir.NodeID{starts[0], ends[0]},
			})
		}
	}

	if loose := v.unconnectedWorkflowNodes(); len(loose) > 0 {
		r.Warnings = append(r.Warnings, Issue{
			Code:    CodeUnconnected,
			Message: fmt.Sprintf("%d workflow node(s) have no links", len(loose)),
			Nodes:   loose,
		})
	}
	for _, c := range FindCycles(v.g) {
		r.Warnings = append(r.Warnings, Issue{Code: CodeCycle, Message: c.Message, Nodes: c.Path})
	}

	r.Valid = len(r.Errors) == 0
	v.logger.Debug("workflow validated",
		"valid", r.Valid,
		"errors", len(r.Errors),
		"warnings", len(r.Warnings))
	return r
}

func (v *Validator) nodesOfType(t string) []ir.NodeID {
	var ids []ir.NodeID
	for _, n := range v.g.Nodes() {
		if n.Type == t {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

func (v *Validator) unconnectedWorkflowNodes() []ir.NodeID {
	var ids []ir.NodeID
	for _, n := range v.g.Nodes() {
		if n.IsWorkflow() && len(v.g.LinksTouching(n.ID)) == 0 {
			ids = append(ids, n.ID)
		}
	}
	return ids
}
