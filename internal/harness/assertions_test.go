package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runAsserting runs steps and returns the assertion messages alone.
func runAsserting(t *testing.T, steps []Step, assertions ...Assertion) []string {
	t.Helper()
	result, err := Run(&Scenario{
		Name:        "assertions",
		Description: "assertion evaluation",
		Steps:       steps,
		Assertions:  assertions,
	})
	require.NoError(t, err)
	return result.Errors
}

func agentSteps() []Step {
	return []Step{
		{Op: OpCreate, Type: "start_flow", As: "start"},
		{Op: OpCreate, Type: "agent_flow", As: "flow"},
		{Op: OpCreate, Type: "end_flow", As: "end"},
		{Op: OpCreate, Type: "agent_config", As: "agent"},
		{Op: OpConnect, From: "start", Output: "flow_out", To: "flow", Input: "flow_in"},
		{Op: OpConnect, From: "flow", Output: "flow_out", To: "end", Input: "flow_in"},
		{Op: OpConnect, From: "agent", Output: "config", To: "flow", Input: "config", As: "cfg"},
	}
}

func TestAssertComplete(t *testing.T) {
	errs := runAsserting(t, agentSteps(),
		Assertion{Type: AssertComplete, Node: "flow", Expect: boolp(true)},
		Assertion{Type: AssertComplete, Node: "agent", Expect: boolp(false)},
		Assertion{Type: AssertChainComplete, Node: "flow", Expect: boolp(false)},
	)
	assert.Empty(t, errs)

	errs = runAsserting(t, agentSteps(),
		Assertion{Type: AssertChainComplete, Node: "flow", Expect: boolp(true)},
	)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Assertion failed: chain_complete")
	assert.Contains(t, errs[0], "incomplete nodes [4]")
}

func TestAssertComplete_MissingFields(t *testing.T) {
	errs := runAsserting(t, agentSteps(),
		Assertion{Type: AssertComplete, Node: "agent", Expect: boolp(true)},
	)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "missing [backend model]")
}

func TestAssertPath(t *testing.T) {
	errs := runAsserting(t, agentSteps(),
		Assertion{Type: AssertPath, Path: []string{"start", "flow", "end"}, Expect: boolp(true)},
	)
	assert.Empty(t, errs)

	errs = runAsserting(t, agentSteps(),
		Assertion{Type: AssertPath, Path: []string{"start", "end"}},
	)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "start -> end")
}

func TestAssertValid(t *testing.T) {
	errs := runAsserting(t, agentSteps(),
		Assertion{Type: AssertValid, Expect: boolp(true)},
	)
	assert.Empty(t, errs)

	errs = runAsserting(t, agentSteps(),
		Assertion{Type: AssertValid, Expect: boolp(true), Codes: []string{"W202"}},
	)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "issue W202 reported")
}

func TestAssertLinkTarget(t *testing.T) {
	errs := runAsserting(t, agentSteps(),
		Assertion{Type: AssertLinkTarget, Link: "cfg", Node: "flow", Input: "config"},
	)
	assert.Empty(t, errs)

	errs = runAsserting(t, agentSteps(),
		Assertion{Type: AssertLinkTarget, Link: "cfg", Node: "flow", Input: "request"},
	)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `input "config"`)

	steps := append(agentSteps(), Step{Op: OpDisconnect, Link: "cfg"})
	errs = runAsserting(t, steps,
		Assertion{Type: AssertLinkTarget, Link: "cfg", Node: "flow", Input: "config"},
	)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "link not found")
}

func TestAssertKeys(t *testing.T) {
	steps := []Step{
		{Op: OpCreate, Type: "route_flow", As: "route"},
		{Op: OpAddSlot, Node: "route", Field: "output", Key: "left"},
		{Op: OpAddSlot, Node: "route", Field: "output", Key: "right"},
	}
	errs := runAsserting(t, steps,
		Assertion{Type: AssertKeys, Node: "route", Field: "output", Keys: []string{"left", "right"}},
	)
	assert.Empty(t, errs)

	errs = runAsserting(t, steps,
		Assertion{Type: AssertKeys, Node: "route", Field: "output", Keys: []string{"right", "left"}},
	)
	require.Len(t, errs, 1)

	errs = runAsserting(t, steps[:1],
		Assertion{Type: AssertKeys, Node: "route", Field: "output"},
	)
	assert.Empty(t, errs)
}

func TestAssertStepError(t *testing.T) {
	steps := []Step{
		{Op: OpCreate, Type: "native_string", As: "text"},
		{Op: OpSetValue, Node: "text", Input: "nope", Value: 1},
	}
	errs := runAsserting(t, steps,
		Assertion{Type: AssertError, Step: intp(1), Code: CodeNoNativeInput},
	)
	assert.Empty(t, errs)

	errs = runAsserting(t, steps[:1],
		Assertion{Type: AssertError, Step: intp(0), Code: CodeNoNativeInput},
	)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "step succeeded")
	assert.Contains(t, errs[0], "Full trace:")
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertError,
		Expected: "step 1 to fail",
		Actual:   "step succeeded",
		Trace: []StepEvent{
			{Step: 0, Op: OpCreate, Applied: true},
			{Step: 1, Op: OpUndo, Error: CodeNothingToDo},
		},
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: error")
	assert.Contains(t, msg, "[0] create ok")
	assert.Contains(t, msg, "[1] undo NOTHING_TO_DO")
}
