package testutil

import (
	"io"
	"log/slog"

	"github.com/roach88/wiregraph/internal/registry"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func flowFields() []registry.FieldDescriptor {
	return []registry.FieldDescriptor{
		{Name: "flow_in", Type: "Any", Role: registry.RoleInput, Optional: true},
		{Name: "flow_out", Type: "Any", Role: registry.RoleOutput, Optional: true},
	}
}

// Descriptors returns the small catalog used across package tests.
//
//	start_flow, end_flow, step_flow  workflow nodes with flow_in/flow_out
//	text_source    native "text" (str) -> "value" (str)
//	number_source  -> "value" (int)
//	echo           required "in" (str) -> "out" (str)
//	relay          required "in" (Any), native "extra" (str) -> "out" (Any)
//	collector      required bundle "items" (Any) -> "result" (List[Any])
//	tool           native "name" (str) -> "config" (ToolConfig)
//	agent          required "model" (str), multi "tools", multi out "branches" -> "config"
//	hub            multi "ports" (Any) -> "out" (Any)
func Descriptors() []*registry.NodeDescriptor {
	return []*registry.NodeDescriptor{
		{Type: "start_flow", Title: "Start", Workflow: "start", Visible: true, Fields: flowFields()},
		{Type: "end_flow", Title: "End", Workflow: "end", Visible: true, Fields: flowFields()},
		{Type: "step_flow", Title: "Step", Workflow: "flow", Visible: true, Fields: flowFields()},
		{
			Type: "text_source", Title: "Text", Native: true, Visible: true,
			Fields: []registry.FieldDescriptor{
				{Name: "text", Type: "str", Role: registry.RoleInput, Native: true, Default: "hello"},
				{Name: "value", Type: "str", Role: registry.RoleOutput},
			},
		},
		{
			Type: "number_source", Title: "Number", Visible: true,
			Fields: []registry.FieldDescriptor{
				{Name: "value", Type: "int", Role: registry.RoleOutput},
			},
		},
		{
			Type: "echo", Title: "Echo", Visible: true,
			Fields: []registry.FieldDescriptor{
				{Name: "in", Type: "str", Role: registry.RoleInput},
				{Name: "out", Type: "str", Role: registry.RoleOutput},
			},
		},
		{
			Type: "relay", Title: "Relay", Visible: true,
			Fields: []registry.FieldDescriptor{
				{Name: "in", Type: "Any", Role: registry.RoleInput},
				{Name: "extra", Type: "str", Role: registry.RoleInput, Native: true, Default: "x"},
				{Name: "out", Type: "Any", Role: registry.RoleOutput},
			},
		},
		{
			Type: "collector", Title: "Collector", Visible: true,
			Fields: []registry.FieldDescriptor{
				{Name: "items", Type: "Any", Role: registry.RoleInput, Bundle: true},
				{Name: "result", Type: "List[Any]", Role: registry.RoleOutput},
			},
		},
		{
			Type: "tool", Title: "Tool", Visible: true, SchemaName: "Schema", ModelName: "ToolConfig",
			Fields: []registry.FieldDescriptor{
				{Name: "name", Type: "str", Role: registry.RoleInput, Native: true, Default: "search"},
				{Name: "config", Type: "Schema.ToolConfig", Role: registry.RoleOutput},
			},
		},
		{
			Type: "agent", Title: "Agent", Visible: true, RootType: true,
			Fields: []registry.FieldDescriptor{
				{Name: "model", Type: "str", Role: registry.RoleInput},
				{Name: "tools", Type: "Optional[Dict[str, ToolConfig]]", Role: registry.RoleMultiInput, Optional: true},
				{Name: "branches", Type: "Dict[str, Any]", Role: registry.RoleMultiOutput},
				{Name: "config", Type: "AgentConfig", Role: registry.RoleOutput},
			},
		},
		{
			Type: "hub", Title: "Hub", Visible: true,
			Fields: []registry.FieldDescriptor{
				{Name: "ports", Type: "Dict[str, Any]", Role: registry.RoleMultiInput, Optional: true},
				{Name: "out", Type: "Any", Role: registry.RoleOutput},
			},
		},
	}
}

// Registry returns a fresh registry holding Descriptors.
func Registry() *registry.Registry {
	reg := registry.New()
	reg.MustRegister(Descriptors()...)
	return reg
}
