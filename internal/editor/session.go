package editor

import (
	"fmt"
	"log/slog"

	"github.com/roach88/wiregraph/internal/completeness"
	"github.com/roach88/wiregraph/internal/config"
	"github.com/roach88/wiregraph/internal/graph"
	"github.com/roach88/wiregraph/internal/history"
	"github.com/roach88/wiregraph/internal/ir"
	"github.com/roach88/wiregraph/internal/multislot"
	"github.com/roach88/wiregraph/internal/registry"
	"github.com/roach88/wiregraph/internal/typematch"
	"github.com/roach88/wiregraph/internal/workflow"
)

// Session wires one graph to its derived-state components.
type Session struct {
	cfg          *config.Config
	logger       *slog.Logger
	graph        *graph.Graph
	slots        *multislot.Manager
	completeness *completeness.Engine
	validator    *workflow.Validator
	history      *history.Manager
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger shared by every component. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// New creates an empty session over reg. A nil cfg uses config.Default().
func New(reg *registry.Registry, cfg *config.Config, opts ...Option) *Session {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Session{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	matcher := typematch.New(
		typematch.WithWildcards(cfg.Types.Wildcards...),
		typematch.WithAliases(cfg.Types.Aliases),
	)
	s.graph = graph.New(reg,
		graph.WithMatcher(matcher),
		graph.WithLogger(s.logger),
		graph.WithLayout(graph.Layout{
			SlotHeight:   cfg.Layout.SlotHeight,
			TitleHeight:  cfg.Layout.TitleHeight,
			MinWidth:     cfg.Layout.MinWidth,
			WidthPerChar: cfg.Layout.WidthPerChar,
		}),
	)
	s.slots = multislot.New(s.graph, multislot.WithLogger(s.logger))
	s.completeness = completeness.New(s.graph, completeness.WithLogger(s.logger))
	s.validator = workflow.New(s.graph,
		workflow.WithStartType(cfg.Workflow.StartType),
		workflow.WithEndType(cfg.Workflow.EndType),
		workflow.WithLogger(s.logger),
	)
	s.history = history.New(cfg.History.MaxSize, history.WithLogger(s.logger))
	return s
}

// Graph returns the live graph. Mutating it directly bypasses history and
// leaves completeness stale until RefreshAll.
func (s *Session) Graph() *graph.Graph { return s.graph }

// History returns the undo manager.
func (s *Session) History() *history.Manager { return s.history }

// Slots returns the multi-slot manager.
func (s *Session) Slots() *multislot.Manager { return s.slots }

// Validator returns the workflow validator.
func (s *Session) Validator() *workflow.Validator { return s.validator }

// Engine returns the completeness engine.
func (s *Session) Engine() *completeness.Engine { return s.completeness }

// Config returns the session configuration.
func (s *Session) Config() *config.Config { return s.cfg }

// Document serializes the graph.
func (s *Session) Document() *ir.Document { return s.graph.Serialize() }

// snapshot runs mutate between two serializations and records the pair.
func (s *Session) snapshot(label string, mutate func() error) error {
	before := s.graph.Serialize()
	if err := mutate(); err != nil {
		return err
	}
	s.history.Push(history.NewSnapshot(label, before, s.graph.Serialize()))
	return nil
}

// propagate refreshes completeness downstream of every live id.
func (s *Session) propagate(ids ...ir.NodeID) {
	for _, id := range ids {
		if s.graph.Node(id) != nil {
			s.completeness.PropagateDownstream(id)
		}
	}
}

// consumers returns the targets of every link leaving id.
func (s *Session) consumers(id ir.NodeID) []ir.NodeID {
	var out []ir.NodeID
	seen := make(map[ir.NodeID]bool)
	for _, l := range s.graph.LinksTouching(id) {
		if l.OriginID == id && l.TargetID != id && !seen[l.TargetID] {
			seen[l.TargetID] = true
			out = append(out, l.TargetID)
		}
	}
	return out
}

// CreateNode adds a node of nodeType at the origin.
func (s *Session) CreateNode(nodeType string) (*graph.Node, error) {
	return s.CreateNodeAt(nodeType, [2]float64{})
}

// CreateNodeAt adds a node of nodeType at pos. A second Start or End node is
// refused with ErrCreateRefused.
func (s *Session) CreateNodeAt(nodeType string, pos [2]float64) (*graph.Node, error) {
	if d := s.validator.CanCreate(nodeType); !d.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrCreateRefused, d.Reason)
	}

	var n *graph.Node
	err := s.snapshot("create "+nodeType, func() error {
		var err error
		n, err = s.graph.NewNode(nodeType)
		if err != nil {
			return err
		}
		n.Pos = pos
		return s.graph.AddNode(n)
	})
	if err != nil {
		return nil, err
	}
	s.propagate(n.ID)
	return n, nil
}

// DeleteNode removes a node and every link touching it.
func (s *Session) DeleteNode(id ir.NodeID) error {
	n := s.graph.Node(id)
	if n == nil {
		return &graph.Error{Code: graph.ErrCodeNodeNotFound, Message: fmt.Sprintf("node %d not found", id), NodeID: id}
	}
	targets := s.consumers(id)

	err := s.snapshot("delete "+n.Type, func() error {
		s.graph.RemoveNode(id)
		return nil
	})
	if err != nil {
		return err
	}
	s.completeness.Invalidate(id)
	s.propagate(targets...)
	return nil
}

// Connect links an output slot to an input slot.
func (s *Session) Connect(originID ir.NodeID, originSlot int, targetID ir.NodeID, targetSlot int) (*graph.Link, error) {
	var l *graph.Link
	err := s.snapshot("connect", func() error {
		var err error
		l, err = s.graph.Connect(originID, originSlot, targetID, targetSlot)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.propagate(targetID)
	return l, nil
}

// ConnectByName is Connect with slot names.
func (s *Session) ConnectByName(originID ir.NodeID, output string, targetID ir.NodeID, input string) (*graph.Link, error) {
	var l *graph.Link
	err := s.snapshot("connect", func() error {
		var err error
		l, err = s.graph.ConnectByName(originID, output, targetID, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.propagate(targetID)
	return l, nil
}

// Disconnect removes one link.
func (s *Session) Disconnect(linkID ir.LinkID) error {
	l := s.graph.Link(linkID)
	if l == nil {
		return &graph.Error{Code: graph.ErrCodeLinkNotFound, Message: fmt.Sprintf("link %d not found", linkID), LinkID: linkID}
	}
	target := l.TargetID

	err := s.snapshot("disconnect", func() error {
		s.graph.RemoveLink(linkID)
		return nil
	})
	if err != nil {
		return err
	}
	s.propagate(target)
	return nil
}

// AddSlot adds the keyed sub-slot field.key and returns its index.
func (s *Session) AddSlot(id ir.NodeID, field, key string) (int, error) {
	idx := -1
	err := s.snapshot("add slot "+field, func() error {
		var err error
		idx, err = s.slots.AddSlot(id, field, key)
		return err
	})
	if err != nil {
		return -1, err
	}
	s.propagate(id)
	return idx, nil
}

// RemoveSlot removes the keyed sub-slot field.key and its links.
func (s *Session) RemoveSlot(id ir.NodeID, field, key string) error {
	targets := s.consumers(id)
	err := s.snapshot("remove slot "+field, func() error {
		return s.slots.RemoveSlot(id, field, key)
	})
	if err != nil {
		return err
	}
	s.propagate(id)
	s.propagate(targets...)
	return nil
}

// Import replaces the graph with doc. Unknown node types and links touching
// them are skipped and listed in the report.
func (s *Session) Import(doc *ir.Document) (*graph.LoadReport, error) {
	var report *graph.LoadReport
	err := s.snapshot("import", func() error {
		var err error
		report, err = s.graph.Deserialize(doc)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.completeness.RefreshAll()
	if !report.Clean() {
		s.logger.Warn("import incomplete",
			"skipped_nodes", len(report.SkippedNodes),
			"dropped_links", len(report.DroppedLinks))
	}
	return report, nil
}

// Clear removes every node and link. Id counters keep counting.
func (s *Session) Clear() {
	before := s.graph.Serialize()
	s.graph.Clear()
	s.history.Push(history.NewSnapshot("clear", before, s.graph.Serialize()))
	s.completeness.InvalidateAll()
}

// delta writes one attribute and records it.
func (s *Session) delta(label string, id ir.NodeID, attr string, slot int, value any) error {
	old, err := s.graph.NodeAttribute(id, attr, slot)
	if err != nil {
		return err
	}
	if err := s.graph.SetNodeAttribute(id, attr, slot, value); err != nil {
		return err
	}
	s.history.Push(history.NewDelta(label, history.Change{
		Node: id,
		Attr: attr,
		Slot: slot,
		Old:  old,
		New:  value,
	}))
	return nil
}

// MoveNode sets a node's position.
func (s *Session) MoveNode(id ir.NodeID, pos [2]float64) error {
	return s.delta("move", id, graph.AttrPos, 0, pos)
}

// ResizeNode sets a node's size.
func (s *Session) ResizeNode(id ir.NodeID, size [2]float64) error {
	return s.delta("resize", id, graph.AttrSize, 0, size)
}

// RenameNode sets a node's title.
func (s *Session) RenameNode(id ir.NodeID, title string) error {
	return s.delta("rename", id, graph.AttrTitle, 0, title)
}

// SetValue sets the literal value of a native input slot.
func (s *Session) SetValue(id ir.NodeID, slot int, value any) error {
	if err := s.delta("set value", id, graph.AttrValue, slot, value); err != nil {
		return err
	}
	s.propagate(id)
	return nil
}

// SetValueByName is SetValue with the input name.
func (s *Session) SetValueByName(id ir.NodeID, input string, value any) error {
	n := s.graph.Node(id)
	if n == nil {
		return &graph.Error{Code: graph.ErrCodeNodeNotFound, Message: fmt.Sprintf("node %d not found", id), NodeID: id}
	}
	slot := n.InputIndex(input)
	if _, ok := n.NativeValue(slot); !ok {
		return fmt.Errorf("%w: %s", ErrNoNativeInput, input)
	}
	return s.SetValue(id, slot, value)
}

// Undo reverts the newest action.
func (s *Session) Undo() (bool, error) {
	ok, err := s.history.Undo(s.graph)
	if ok {
		s.completeness.RefreshAll()
	}
	return ok, err
}

// Redo re-applies the newest undone action.
func (s *Session) Redo() (bool, error) {
	ok, err := s.history.Redo(s.graph)
	if ok {
		s.completeness.RefreshAll()
	}
	return ok, err
}

// Validate runs the workflow checks.
func (s *Session) Validate() workflow.Report { return s.validator.Validate() }

// FindPath returns the Start to End path.
func (s *Session) FindPath() workflow.PathResult { return s.validator.FindPath() }

// Completeness returns the chain completeness of a node.
func (s *Session) Completeness(id ir.NodeID) completeness.ChainReport {
	return s.completeness.Chain(id)
}

// NodeCompleteness returns the local completeness of a node.
func (s *Session) NodeCompleteness(id ir.NodeID) completeness.NodeReport {
	return s.completeness.Node(id)
}
