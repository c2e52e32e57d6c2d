package graph

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/wiregraph/internal/ir"
	"github.com/roach88/wiregraph/internal/registry"
	"github.com/roach88/wiregraph/internal/typematch"
)

// Graph owns nodes and links.
//
// INVARIANTS:
//   - every link endpoint references a live node
//   - a scalar input holds at most one link; a bundle input holds a list
//   - link ids are never reused, even after removal
type Graph struct {
	registry *registry.Registry
	matcher  *typematch.Matcher
	logger   *slog.Logger
	layout   Layout

	nodes      []*Node // render order only
	byID       map[ir.NodeID]*Node
	links      map[ir.LinkID]*Link
	lastNodeID ir.NodeID
	lastLinkID ir.LinkID

	// Camera is view state passed through serialization untouched.
	Camera *ir.Camera
}

// Option configures a Graph.
type Option func(*Graph)

// WithMatcher sets the type matcher used by Connect.
func WithMatcher(m *typematch.Matcher) Option {
	return func(g *Graph) {
		g.matcher = m
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *Graph) {
		g.logger = l
	}
}

// WithLayout sets the sizing constants used by the factory.
func WithLayout(l Layout) Option {
	return func(g *Graph) {
		g.layout = l
	}
}

// New creates an empty graph over the given registry.
func New(reg *registry.Registry, opts ...Option) *Graph {
	g := &Graph{
		registry: reg,
		matcher:  typematch.New(),
		logger:   slog.Default(),
		layout:   DefaultLayout(),
		byID:     make(map[ir.NodeID]*Node),
		links:    make(map[ir.LinkID]*Link),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Registry returns the descriptor registry.
func (g *Graph) Registry() *registry.Registry { return g.registry }

// Matcher returns the type matcher.
func (g *Graph) Matcher() *typematch.Matcher { return g.matcher }

// Layout returns the sizing constants.
func (g *Graph) Layout() Layout { return g.layout }

// Logger returns the logger.
func (g *Graph) Logger() *slog.Logger { return g.logger }

// Node returns the live node with id, or nil.
func (g *Graph) Node(id ir.NodeID) *Node {
	return g.byID[id]
}

// Nodes returns live nodes in render order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// NodeCount returns the number of live nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// Link returns the link with id, or nil.
func (g *Graph) Link(id ir.LinkID) *Link {
	return g.links[id]
}

// Links returns all links ordered by id, which is creation order.
func (g *Graph) Links() []*Link {
	out := make([]*Link, 0, len(g.links))
	for _, l := range g.links {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LinkCount returns the number of links.
func (g *Graph) LinkCount() int { return len(g.links) }

// LinksTouching returns the links with an endpoint on the node, ordered by id.
// The returned links are live; only slot managers should rewrite their slots.
func (g *Graph) LinksTouching(id ir.NodeID) []*Link {
	var out []*Link
	for _, l := range g.Links() {
		if l.OriginID == id || l.TargetID == id {
			out = append(out, l)
		}
	}
	return out
}

// LastNodeID returns the highest node id allocated so far.
func (g *Graph) LastNodeID() ir.NodeID { return g.lastNodeID }

// LastLinkID returns the highest link id allocated so far.
func (g *Graph) LastLinkID() ir.LinkID { return g.lastLinkID }

// AddNode inserts a node. A zero id is replaced by the next free id.
func (g *Graph) AddNode(n *Node) error {
	if n == nil {
		return &Error{Code: ErrCodeNilNode, Message: "cannot add nil node"}
	}
	if n.ID == 0 {
		g.lastNodeID++
		n.ID = g.lastNodeID
	} else if _, exists := g.byID[n.ID]; exists {
		return &Error{Code: ErrCodeDuplicateNode, Message: "node id already in use", NodeID: n.ID}
	}
	if n.ID > g.lastNodeID {
		g.lastNodeID = n.ID
	}
	g.nodes = append(g.nodes, n)
	g.byID[n.ID] = n
	return nil
}

// CreateNode builds a node of the given type and adds it.
func (g *Graph) CreateNode(nodeType string) (*Node, error) {
	n, err := g.NewNode(nodeType)
	if err != nil {
		return nil, err
	}
	if err := g.AddNode(n); err != nil {
		return nil, err
	}
	return n, nil
}

// RemoveNode detaches every link on the node and evicts it.
// Returns false if the node is not live; removing twice is harmless.
func (g *Graph) RemoveNode(id ir.NodeID) bool {
	n, ok := g.byID[id]
	if !ok {
		return false
	}

	for slot := range n.Inputs {
		for _, lid := range append([]ir.LinkID(nil), n.InputLinkIDs(slot)...) {
			g.RemoveLink(lid)
		}
	}
	for _, out := range n.Outputs {
		for _, lid := range append([]ir.LinkID(nil), out.Links...) {
			g.RemoveLink(lid)
		}
	}

	for i, live := range g.nodes {
		if live.ID == id {
			g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)
			break
		}
	}
	delete(g.byID, id)
	return true
}

// Connect links an output slot to an input slot after a type check.
// Self-connections are allowed. A linked scalar input is never overwritten;
// detach the old link first.
func (g *Graph) Connect(originID ir.NodeID, originSlot int, targetID ir.NodeID, targetSlot int) (*Link, error) {
	origin, ok := g.byID[originID]
	if !ok {
		return nil, nodeNotFound(originID)
	}
	target, ok := g.byID[targetID]
	if !ok {
		return nil, nodeNotFound(targetID)
	}
	if originSlot < 0 || originSlot >= len(origin.Outputs) {
		return nil, slotOutOfRange(originID, "output", originSlot, len(origin.Outputs))
	}
	if targetSlot < 0 || targetSlot >= len(target.Inputs) {
		return nil, slotOutOfRange(targetID, "input", targetSlot, len(target.Inputs))
	}

	out := origin.Outputs[originSlot]
	in := target.Inputs[targetSlot]

	if !g.matcher.Compatible(out.Type, in.Type) {
		g.logger.Debug("connect rejected",
			"origin", originID, "origin_slot", originSlot,
			"target", targetID, "target_slot", targetSlot,
			"output_type", out.Type, "input_type", in.Type)
		return nil, &Error{
			Code:    ErrCodeTypeMismatch,
			Message: fmt.Sprintf("output type %q cannot feed input type %q", out.Type, in.Type),
			NodeID:  targetID,
			Slot:    targetSlot,
		}
	}

	bundle := target.IsBundle(targetSlot)
	if !bundle && in.Link != 0 {
		return nil, &Error{
			Code:    ErrCodeInputOccupied,
			Message: fmt.Sprintf("input %q already holds link %d", in.Name, in.Link),
			NodeID:  targetID,
			LinkID:  in.Link,
			Slot:    targetSlot,
		}
	}

	g.lastLinkID++
	l := &Link{
		ID:         g.lastLinkID,
		OriginID:   originID,
		OriginSlot: originSlot,
		TargetID:   targetID,
		TargetSlot: targetSlot,
		Type:       out.Type,
	}
	g.attach(l)
	return l, nil
}

// ConnectByName is Connect with slots addressed by name.
func (g *Graph) ConnectByName(originID ir.NodeID, output string, targetID ir.NodeID, input string) (*Link, error) {
	origin, ok := g.byID[originID]
	if !ok {
		return nil, nodeNotFound(originID)
	}
	target, ok := g.byID[targetID]
	if !ok {
		return nil, nodeNotFound(targetID)
	}
	oslot := origin.OutputIndex(output)
	if oslot < 0 {
		return nil, &Error{Code: ErrCodeSlotOutOfRange, Message: fmt.Sprintf("no output named %q", output), NodeID: originID, Slot: -1}
	}
	tslot := target.InputIndex(input)
	if tslot < 0 {
		return nil, &Error{Code: ErrCodeSlotOutOfRange, Message: fmt.Sprintf("no input named %q", input), NodeID: targetID, Slot: -1}
	}
	return g.Connect(originID, oslot, targetID, tslot)
}

// attach registers a link on both endpoints and in the link table.
func (g *Graph) attach(l *Link) {
	origin := g.byID[l.OriginID]
	target := g.byID[l.TargetID]
	origin.Outputs[l.OriginSlot].Links = append(origin.Outputs[l.OriginSlot].Links, l.ID)
	if target.IsBundle(l.TargetSlot) {
		target.MultiInputs[l.TargetSlot] = append(target.MultiInputs[l.TargetSlot], l.ID)
	} else {
		target.Inputs[l.TargetSlot].Link = l.ID
	}
	g.links[l.ID] = l
	if l.ID > g.lastLinkID {
		g.lastLinkID = l.ID
	}
}

// RemoveLink detaches a link from both endpoints and deletes it.
// Returns false if the link does not exist.
func (g *Graph) RemoveLink(id ir.LinkID) bool {
	l, ok := g.links[id]
	if !ok {
		return false
	}

	if origin := g.byID[l.OriginID]; origin != nil && l.OriginSlot < len(origin.Outputs) {
		out := origin.Outputs[l.OriginSlot]
		out.Links = removeLinkID(out.Links, id)
	}
	if target := g.byID[l.TargetID]; target != nil && l.TargetSlot < len(target.Inputs) {
		if target.IsBundle(l.TargetSlot) {
			target.MultiInputs[l.TargetSlot] = removeLinkID(target.MultiInputs[l.TargetSlot], id)
		} else if target.Inputs[l.TargetSlot].Link == id {
			target.Inputs[l.TargetSlot].Link = 0
		}
	}

	delete(g.links, id)
	return true
}

// Clear removes every node and link. Id counters are kept so ids stay unique.
func (g *Graph) Clear() {
	g.nodes = nil
	g.byID = make(map[ir.NodeID]*Node)
	g.links = make(map[ir.LinkID]*Link)
}

func removeLinkID(ids []ir.LinkID, id ir.LinkID) []ir.LinkID {
	out := make([]ir.LinkID, 0, len(ids))
	for _, l := range ids {
		if l != id {
			out = append(out, l)
		}
	}
	return out
}
