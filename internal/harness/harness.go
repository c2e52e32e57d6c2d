package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/wiregraph/internal/compiler"
	"github.com/roach88/wiregraph/internal/config"
	"github.com/roach88/wiregraph/internal/editor"
	"github.com/roach88/wiregraph/internal/export"
	"github.com/roach88/wiregraph/internal/graph"
	"github.com/roach88/wiregraph/internal/ir"
	"github.com/roach88/wiregraph/internal/multislot"
)

// Error codes reported for failed steps that are not graph errors.
const (
	CodeCreateRefused = "CREATE_REFUSED"
	CodeNoNativeInput = "NO_NATIVE_INPUT"
	CodeDuplicateKey  = "DUPLICATE_KEY"
	CodeUnknownField  = "UNKNOWN_FIELD"
	CodeUnknownKey    = "UNKNOWN_KEY"
	CodeInvalidKey    = "INVALID_KEY"
	CodeNothingToDo   = "NOTHING_TO_DO"
	CodeImportFailed  = "IMPORT_FAILED"
	CodeGeneric       = "ERROR"
)

// Harness runs one scenario against one editor session.
type Harness struct {
	scenario *Scenario
	session  *editor.Session
	nodes    map[string]ir.NodeID
	links    map[string]ir.LinkID
	logger   *slog.Logger
}

// Run executes a scenario in a fresh session and returns the result.
//
// Step failures are recorded in the trace rather than aborting the run. A
// step that fails without a matching error assertion fails the result. An
// unknown alias or an unreadable import file is a scenario defect and is
// returned as an error.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with an explicit logger for the session.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	return RunWithConfig(scenario, config.Default(), logger)
}

// RunWithConfig runs the scenario in a session built from base. The
// scenario's history_max_size, when set, overrides base. base is not
// modified.
func RunWithConfig(scenario *Scenario, base *config.Config, logger *slog.Logger) (*Result, error) {
	reg, err := compiler.LoadRegistry(scenario.resolve(scenario.Descriptors))
	if err != nil {
		return nil, fmt.Errorf("failed to load descriptors: %w", err)
	}

	cfg := *base
	if scenario.HistoryMaxSize > 0 {
		cfg.History.MaxSize = scenario.HistoryMaxSize
	}

	h := &Harness{
		scenario: scenario,
		session:  editor.New(reg, &cfg, editor.WithLogger(logger)),
		nodes:    make(map[string]ir.NodeID),
		links:    make(map[string]ir.LinkID),
		logger:   logger,
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		ev, err := h.execute(i, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
		result.Trace = append(result.Trace, ev)
		h.logger.Debug("scenario step",
			"step", i,
			"op", step.Op,
			"applied", ev.Applied,
			"error", ev.Error,
		)
	}

	result.Summary = h.summary()
	result.Document = h.session.Document()

	for _, msg := range EvaluateAssertions(h, result, scenario.Assertions) {
		result.AddError(msg)
	}
	for _, msg := range unexpectedFailures(result.Trace, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// execute runs one step. The returned error is a scenario defect; an
// editing failure is reported in the event instead.
func (h *Harness) execute(i int, st Step) (StepEvent, error) {
	ev := StepEvent{Step: i, Op: st.Op}

	var opErr error
	switch st.Op {
	case OpCreate:
		var pos [2]float64
		if len(st.Pos) == 2 {
			pos = [2]float64{st.Pos[0], st.Pos[1]}
		}
		n, err := h.session.CreateNodeAt(st.Type, pos)
		opErr = err
		if err == nil {
			ev.Node = n.ID
			if st.As != "" {
				h.nodes[st.As] = n.ID
			}
		}

	case OpConnect:
		from, err := h.node(st.From)
		if err != nil {
			return ev, err
		}
		to, err := h.node(st.To)
		if err != nil {
			return ev, err
		}
		ev.Node = to
		l, err := h.session.ConnectByName(from, st.Output, to, st.Input)
		opErr = err
		if err == nil {
			ev.Link = l.ID
			if st.As != "" {
				h.links[st.As] = l.ID
			}
		}

	case OpDisconnect:
		id, ok := h.links[st.Link]
		if !ok {
			return ev, fmt.Errorf("unknown link alias %q", st.Link)
		}
		ev.Link = id
		opErr = h.session.Disconnect(id)

	case OpRemoveNode:
		id, err := h.node(st.Node)
		if err != nil {
			return ev, err
		}
		ev.Node = id
		opErr = h.session.DeleteNode(id)

	case OpAddSlot, OpRemoveSlot:
		id, err := h.node(st.Node)
		if err != nil {
			return ev, err
		}
		ev.Node = id
		if st.Op == OpAddSlot {
			_, opErr = h.session.AddSlot(id, st.Field, st.Key)
		} else {
			opErr = h.session.RemoveSlot(id, st.Field, st.Key)
		}

	case OpSetValue:
		id, err := h.node(st.Node)
		if err != nil {
			return ev, err
		}
		ev.Node = id
		opErr = h.session.SetValueByName(id, st.Input, st.Value)

	case OpMove:
		id, err := h.node(st.Node)
		if err != nil {
			return ev, err
		}
		ev.Node = id
		opErr = h.session.MoveNode(id, [2]float64{st.Pos[0], st.Pos[1]})

	case OpRename:
		id, err := h.node(st.Node)
		if err != nil {
			return ev, err
		}
		ev.Node = id
		opErr = h.session.RenameNode(id, st.Title)

	case OpUndo, OpRedo:
		var ok bool
		if st.Op == OpUndo {
			ok, opErr = h.session.Undo()
		} else {
			ok, opErr = h.session.Redo()
		}
		if opErr == nil && !ok {
			ev.Error = CodeNothingToDo
			return ev, nil
		}

	case OpImport:
		data, err := os.ReadFile(h.scenario.resolve(st.File))
		if err != nil {
			return ev, fmt.Errorf("failed to read import file: %w", err)
		}
		opErr = h.importData(st.Format, data)
		if opErr == nil {
			nodes := h.session.Graph().Nodes()
			for i, name := range st.Names {
				if i < len(nodes) {
					h.nodes[name] = nodes[i].ID
				}
			}
		}

	default:
		return ev, fmt.Errorf("unknown op %q", st.Op)
	}

	if opErr != nil {
		ev.Error = errorCode(opErr)
		return ev, nil
	}
	ev.Applied = true
	return ev, nil
}

// importData replaces the session graph with data in the given format.
func (h *Harness) importData(format string, data []byte) error {
	if format == FormatBackend {
		wf, err := export.Parse(data)
		if err != nil {
			return err
		}
		_, err = export.FromBackend(h.session, wf)
		return err
	}
	doc, err := ir.ParseDocument(data)
	if err != nil {
		return err
	}
	_, err = h.session.Import(doc)
	return err
}

func (h *Harness) node(alias string) (ir.NodeID, error) {
	id, ok := h.nodes[alias]
	if !ok {
		return 0, fmt.Errorf("unknown node alias %q", alias)
	}
	return id, nil
}

// aliasOf returns the alias bound to id, or "".
func (h *Harness) aliasOf(id ir.NodeID) string {
	best := ""
	for alias, nid := range h.nodes {
		if nid == id && (best == "" || alias < best) {
			best = alias
		}
	}
	return best
}

func (h *Harness) summary() Summary {
	g := h.session.Graph()
	report := h.session.Validate()

	s := Summary{
		Nodes:    []NodeSummary{},
		Links:    []LinkSummary{},
		Valid:    report.Valid,
		Errors:   []string{},
		Warnings: []string{},
	}
	for _, n := range g.Nodes() {
		s.Nodes = append(s.Nodes, NodeSummary{
			ID:            n.ID,
			Alias:         h.aliasOf(n.ID),
			Type:          n.Type,
			Complete:      h.session.NodeCompleteness(n.ID).Complete,
			ChainComplete: h.session.Completeness(n.ID).Complete,
		})
	}
	for _, l := range g.Links() {
		s.Links = append(s.Links, LinkSummary{
			ID:     l.ID,
			Origin: l.OriginID,
			Output: g.Node(l.OriginID).Outputs[l.OriginSlot].Name,
			Target: l.TargetID,
			Input:  g.Node(l.TargetID).Inputs[l.TargetSlot].Name,
		})
	}
	for _, iss := range report.Errors {
		s.Errors = append(s.Errors, iss.Code)
	}
	for _, iss := range report.Warnings {
		s.Warnings = append(s.Warnings, iss.Code)
	}
	return s
}

// errorCode maps an editing failure onto a stable code.
func errorCode(err error) string {
	var gerr *graph.Error
	switch {
	case errors.As(err, &gerr):
		return string(gerr.Code)
	case errors.Is(err, editor.ErrCreateRefused):
		return CodeCreateRefused
	case errors.Is(err, editor.ErrNoNativeInput):
		return CodeNoNativeInput
	case errors.Is(err, multislot.ErrDuplicateKey):
		return CodeDuplicateKey
	case errors.Is(err, multislot.ErrUnknownField):
		return CodeUnknownField
	case errors.Is(err, multislot.ErrUnknownKey):
		return CodeUnknownKey
	case errors.Is(err, multislot.ErrInvalidKey):
		return CodeInvalidKey
	case errors.Is(err, multislot.ErrUnknownNode):
		return string(graph.ErrCodeNodeNotFound)
	case errors.Is(err, export.ErrInvalidWorkflow), errors.Is(err, ir.ErrMalformedDocument):
		return CodeImportFailed
	default:
		return CodeGeneric
	}
}

// unexpectedFailures reports failed steps that no error assertion names.
func unexpectedFailures(trace []StepEvent, assertions []Assertion) []string {
	expected := make(map[int]bool)
	for _, a := range assertions {
		if a.Type == AssertError && a.Step != nil {
			expected[*a.Step] = true
		}
	}
	var msgs []string
	for _, ev := range trace {
		if ev.Error != "" && ev.Error != CodeNothingToDo && !expected[ev.Step] {
			msgs = append(msgs, fmt.Sprintf("step %d (%s) failed unexpectedly: %s", ev.Step, ev.Op, ev.Error))
		}
	}
	return msgs
}
