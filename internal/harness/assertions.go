package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/wiregraph/internal/ir"
	"github.com/roach88/wiregraph/internal/workflow"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string      // Assertion type for categorization
	Expected string      // Human-readable expected outcome
	Actual   string      // Human-readable actual outcome
	Trace    []StepEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			status := "ok"
			if ev.Error != "" {
				status = ev.Error
			}
			fmt.Fprintf(&buf, "  [%d] %s %s\n", ev.Step, ev.Op, status)
		}
	}

	return buf.String()
}

// EvaluateAssertions evaluates all assertions against the harness state.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(h *Harness, result *Result, assertions []Assertion) []string {
	var errs []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertNodeCount:
			err = assertCount(a, "nodes", h.session.Graph().NodeCount())
		case AssertLinkCount:
			err = assertCount(a, "links", h.session.Graph().LinkCount())
		case AssertComplete:
			err = h.assertComplete(a, false)
		case AssertChainComplete:
			err = h.assertComplete(a, true)
		case AssertValid:
			err = h.assertValid(a)
		case AssertPath:
			err = h.assertPath(a)
		case AssertKeys:
			err = h.assertKeys(a)
		case AssertLinkTarget:
			err = h.assertLinkTarget(a)
		case AssertError:
			err = assertStepError(result.Trace, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}

func assertCount(a Assertion, what string, actual int) error {
	if actual != *a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d %s", *a.Count, what),
			Actual:   fmt.Sprintf("%d %s", actual, what),
		}
	}
	return nil
}

func (h *Harness) assertComplete(a Assertion, chain bool) error {
	id, err := h.node(a.Node)
	if err != nil {
		return err
	}

	var actual bool
	var detail string
	if chain {
		rep := h.session.Completeness(id)
		actual = rep.Complete
		detail = fmt.Sprintf("incomplete nodes %v", rep.IncompleteNodes)
	} else {
		rep := h.session.NodeCompleteness(id)
		actual = rep.Complete
		detail = fmt.Sprintf("missing %v", rep.Missing)
	}

	if actual != *a.Expect {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s complete=%t", a.Node, *a.Expect),
			Actual:   fmt.Sprintf("complete=%t (%s)", actual, detail),
		}
	}
	return nil
}

func (h *Harness) assertValid(a Assertion) error {
	report := h.session.Validate()
	if report.Valid != *a.Expect {
		return &AssertionError{
			Type:     AssertValid,
			Expected: fmt.Sprintf("valid=%t", *a.Expect),
			Actual:   fmt.Sprintf("valid=%t with errors %v", report.Valid, issueCodes(report.Errors)),
		}
	}

	reported := append(issueCodes(report.Errors), issueCodes(report.Warnings)...)
	for _, code := range a.Codes {
		if !slices.Contains(reported, code) {
			return &AssertionError{
				Type:     AssertValid,
				Expected: fmt.Sprintf("issue %s reported", code),
				Actual:   fmt.Sprintf("reported %v", reported),
			}
		}
	}
	return nil
}

func (h *Harness) assertPath(a Assertion) error {
	res := h.session.FindPath()

	if a.Expect != nil && res.Valid != *a.Expect {
		return &AssertionError{
			Type:     AssertPath,
			Expected: fmt.Sprintf("path valid=%t", *a.Expect),
			Actual:   fmt.Sprintf("valid=%t (%s)", res.Valid, res.Reason),
		}
	}
	if a.Path == nil {
		return nil
	}

	want := make([]ir.NodeID, len(a.Path))
	for i, alias := range a.Path {
		id, err := h.node(alias)
		if err != nil {
			return err
		}
		want[i] = id
	}
	if !slices.Equal(want, res.Path) {
		return &AssertionError{
			Type:     AssertPath,
			Expected: fmt.Sprintf("path %v (%s)", want, strings.Join(a.Path, " -> ")),
			Actual:   fmt.Sprintf("path %v", res.Path),
		}
	}
	return nil
}

func (h *Harness) assertKeys(a Assertion) error {
	id, err := h.node(a.Node)
	if err != nil {
		return err
	}
	actual := h.session.Slots().ListKeys(id, a.Field)
	if len(actual) == 0 && len(a.Keys) == 0 {
		return nil
	}
	if !slices.Equal(actual, a.Keys) {
		return &AssertionError{
			Type:     AssertKeys,
			Expected: fmt.Sprintf("%s.%s keys %v", a.Node, a.Field, a.Keys),
			Actual:   fmt.Sprintf("keys %v", actual),
		}
	}
	return nil
}

func (h *Harness) assertLinkTarget(a Assertion) error {
	linkID, ok := h.links[a.Link]
	if !ok {
		return fmt.Errorf("unknown link alias %q", a.Link)
	}
	want, err := h.node(a.Node)
	if err != nil {
		return err
	}

	g := h.session.Graph()
	l := g.Link(linkID)
	if l == nil {
		return &AssertionError{
			Type:     AssertLinkTarget,
			Expected: fmt.Sprintf("link %s into %s.%s", a.Link, a.Node, a.Input),
			Actual:   "link not found",
		}
	}

	input := ""
	if t := g.Node(l.TargetID); t != nil && l.TargetSlot < len(t.Inputs) {
		input = t.Inputs[l.TargetSlot].Name
	}
	if l.TargetID != want || input != a.Input {
		return &AssertionError{
			Type:     AssertLinkTarget,
			Expected: fmt.Sprintf("link %s into node %d input %q", a.Link, want, a.Input),
			Actual:   fmt.Sprintf("node %d input %q", l.TargetID, input),
		}
	}
	return nil
}

func assertStepError(trace []StepEvent, a Assertion) error {
	step := *a.Step
	if step >= len(trace) {
		return &AssertionError{
			Type:     AssertError,
			Expected: fmt.Sprintf("step %d to fail with %s", step, a.Code),
			Actual:   "step did not run",
			Trace:    trace,
		}
	}
	if trace[step].Error != a.Code {
		actual := "step succeeded"
		if trace[step].Error != "" {
			actual = "failed with " + trace[step].Error
		}
		return &AssertionError{
			Type:     AssertError,
			Expected: fmt.Sprintf("step %d to fail with %s", step, a.Code),
			Actual:   actual,
			Trace:    trace,
		}
	}
	return nil
}

func issueCodes(issues []workflow.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, iss := range issues {
		out = append(out, iss.Code)
	}
	return out
}
