package completeness

import (
	"log/slog"
	"sort"

	"github.com/roach88/wiregraph/internal/graph"
	"github.com/roach88/wiregraph/internal/ir"
	"github.com/roach88/wiregraph/internal/registry"
)

// NodeReport is the local completeness of one node. Field names follow
// descriptor order.
type NodeReport struct {
	Complete      bool     `json:"complete"`
	Missing       []string `json:"missing,omitempty"`
	Filled        []string `json:"filled,omitempty"`
	OptionalEmpty []string `json:"optional_empty,omitempty"`
}

// ChainReport is the transitive completeness of one node.
// IncompleteNodes and IncompleteLinks cover upstream nodes only, sorted by id.
type ChainReport struct {
	Complete        bool        `json:"complete"`
	NodeComplete    bool        `json:"node_complete"`
	Missing         []string    `json:"missing,omitempty"`
	IncompleteNodes []ir.NodeID `json:"incomplete_nodes,omitempty"`
	IncompleteLinks []ir.LinkID `json:"incomplete_links,omitempty"`
}

// Status pairs a node with both completeness booleans.
type Status struct {
	ID            ir.NodeID `json:"id"`
	Type          string    `json:"type"`
	Complete      bool      `json:"complete"`
	ChainComplete bool      `json:"chain_complete"`
}

// Engine computes and caches completeness for one graph.
// Returned reports share slices with the cache; treat them as read-only.
type Engine struct {
	g      *graph.Graph
	logger *slog.Logger

	nodes  map[ir.NodeID]NodeReport
	chains map[ir.NodeID]ChainReport
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default: the graph's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine over g with an empty cache.
func New(g *graph.Graph, opts ...Option) *Engine {
	e := &Engine{
		g:      g,
		logger: g.Logger(),
		nodes:  make(map[ir.NodeID]NodeReport),
		chains: make(map[ir.NodeID]ChainReport),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Node returns the local completeness of a node. A node that is not live
// reports incomplete with no fields.
func (e *Engine) Node(id ir.NodeID) NodeReport {
	if r, ok := e.nodes[id]; ok {
		return r
	}
	n := e.g.Node(id)
	if n == nil {
		return NodeReport{}
	}
	r := computeNode(n)
	e.nodes[id] = r
	return r
}

// IsComplete reports whether the node's required fields are filled.
func (e *Engine) IsComplete(id ir.NodeID) bool {
	return e.Node(id).Complete
}

// Chain returns the transitive completeness of a node.
func (e *Engine) Chain(id ir.NodeID) ChainReport {
	if r, ok := e.chains[id]; ok {
		return r
	}
	if e.g.Node(id) == nil {
		return ChainReport{}
	}
	r, _ := e.chain(id, make(map[ir.NodeID]bool))
	e.chains[id] = r
	return r
}

// IsChainComplete reports whether the node and everything upstream is complete.
func (e *Engine) IsChainComplete(id ir.NodeID) bool {
	return e.Chain(id).Complete
}

// chain computes the chain report for id. guarded reports whether the cycle
// guard cut any branch below id; such results depend on the recursion path
// and are not cached.
func (e *Engine) chain(id ir.NodeID, visiting map[ir.NodeID]bool) (ChainReport, bool) {
	n := e.g.Node(id)
	self := e.Node(id)

	visiting[id] = true
	defer delete(visiting, id)

	badNodes := make(map[ir.NodeID]bool)
	badLinks := make(map[ir.LinkID]bool)
	guarded := false

	for slot := range n.Inputs {
		for _, lid := range n.InputLinkIDs(slot) {
			l := e.g.Link(lid)
			if l == nil {
				continue
			}
			up := l.OriginID
			if visiting[up] {
				guarded = true
				continue
			}

			var upRep ChainReport
			if cached, ok := e.chains[up]; ok {
				upRep = cached
			} else {
				var upGuarded bool
				upRep, upGuarded = e.chain(up, visiting)
				if upGuarded {
					guarded = true
				} else {
					e.chains[up] = upRep
				}
			}

			if !upRep.NodeComplete {
				badNodes[up] = true
				badLinks[lid] = true
			}
			for _, bn := range upRep.IncompleteNodes {
				if bn != id {
					badNodes[bn] = true
				}
			}
			for _, bl := range upRep.IncompleteLinks {
				badLinks[bl] = true
			}
		}
	}

	r := ChainReport{
		NodeComplete:    self.Complete,
		Missing:         self.Missing,
		IncompleteNodes: sortedNodeIDs(badNodes),
		IncompleteLinks: sortedLinkIDs(badLinks),
	}
	r.Complete = r.NodeComplete && len(r.IncompleteNodes) == 0
	return r, guarded
}

// Invalidate drops cached results for the given nodes.
func (e *Engine) Invalidate(ids ...ir.NodeID) {
	for _, id := range ids {
		delete(e.nodes, id)
		delete(e.chains, id)
	}
}

// InvalidateAll drops every cached result.
func (e *Engine) InvalidateAll() {
	e.nodes = make(map[ir.NodeID]NodeReport)
	e.chains = make(map[ir.NodeID]ChainReport)
}

// RefreshAll recomputes every node after a bulk structural change.
func (e *Engine) RefreshAll() {
	e.InvalidateAll()
	for _, n := range e.g.Nodes() {
		e.Node(n.ID)
		e.Chain(n.ID)
	}
	e.logger.Debug("completeness refreshed", "nodes", e.g.NodeCount())
}

// PropagateDownstream recomputes start and every node reachable from it along
// output links, and returns them in visit order. A local edit can only change
// the chain state of its consumers, so nothing upstream is touched.
func (e *Engine) PropagateDownstream(start ir.NodeID) []ir.NodeID {
	if e.g.Node(start) == nil {
		return nil
	}
	order := Downstream(e.g, start)
	e.Invalidate(order...)
	for _, id := range order {
		e.Node(id)
		e.Chain(id)
	}
	return order
}

// Statuses returns both booleans for every live node in render order.
func (e *Engine) Statuses() []Status {
	nodes := e.g.Nodes()
	out := make([]Status, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Status{
			ID:            n.ID,
			Type:          n.Type,
			Complete:      e.IsComplete(n.ID),
			ChainComplete: e.IsChainComplete(n.ID),
		})
	}
	return out
}

// Downstream returns start followed by every node reachable from it along
// output links, breadth first, neighbors in link-id order.
func Downstream(g *graph.Graph, start ir.NodeID) []ir.NodeID {
	seen := map[ir.NodeID]bool{start: true}
	order := []ir.NodeID{start}
	for head := 0; head < len(order); head++ {
		n := g.Node(order[head])
		if n == nil {
			continue
		}
		var next []ir.LinkID
		for _, out := range n.Outputs {
			next = append(next, out.Links...)
		}
		sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
		for _, lid := range next {
			l := g.Link(lid)
			if l == nil || seen[l.TargetID] {
				continue
			}
			seen[l.TargetID] = true
			order = append(order, l.TargetID)
		}
	}
	return order
}

// computeNode evaluates each input field of the node's descriptor.
func computeNode(n *graph.Node) NodeReport {
	r := NodeReport{}
	if n.Descriptor == nil {
		r.Complete = true
		return r
	}

	for _, f := range n.Descriptor.Fields {
		var filled bool
		switch f.Role {
		case registry.RoleInput:
			slot := n.InputIndex(f.Name)
			if slot < 0 {
				continue
			}
			filled = slotFilled(n, slot)
		case registry.RoleMultiInput:
			for _, slot := range n.MultiInputSlots[f.Name] {
				if slotFilled(n, slot) {
					filled = true
					break
				}
			}
		default:
			continue
		}

		switch {
		case filled:
			r.Filled = append(r.Filled, f.Name)
		case f.IsOptional():
			r.OptionalEmpty = append(r.OptionalEmpty, f.Name)
		default:
			r.Missing = append(r.Missing, f.Name)
		}
	}

	r.Complete = len(r.Missing) == 0
	return r
}

// slotFilled reports whether an input slot carries a link or a non-nil literal.
func slotFilled(n *graph.Node, slot int) bool {
	if len(n.InputLinkIDs(slot)) > 0 {
		return true
	}
	v, ok := n.NativeValue(slot)
	return ok && v != nil
}

func sortedNodeIDs(m map[ir.NodeID]bool) []ir.NodeID {
	if len(m) == 0 {
		return nil
	}
	out := make([]ir.NodeID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedLinkIDs(m map[ir.LinkID]bool) []ir.LinkID {
	if len(m) == 0 {
		return nil
	}
	out := make([]ir.LinkID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
