// Package harness runs scripted editing scenarios against an editor session.
//
// A scenario is a YAML file listing editing steps and the assertions the
// final graph must satisfy. Nodes and links are named with aliases so a
// scenario reads the same no matter which ids the graph hands out.
//
// # Scenario Format
//
//	name: agent_chain
//	description: "An agent is incomplete until its model is wired"
//	descriptors: nodes/            # optional, extends the built-in catalog
//	steps:
//	  - op: create
//	    type: model_config
//	    as: model
//	  - op: create
//	    type: agent_config
//	    as: agent
//	  - op: connect
//	    from: model
//	    output: config
//	    to: agent
//	    input: model
//	    as: model_link
//	assertions:
//	  - type: complete
//	    node: agent
//	    expect: false
//	  - type: link_target
//	    link: model_link
//	    node: agent
//	    input: model
//
// # Steps
//
//   - create: type, optional as and pos
//   - connect: from, output, to, input, optional as
//   - disconnect: link
//   - remove_node: node
//   - add_slot, remove_slot: node, field, key
//   - set_value: node, input, value
//   - move: node, pos
//   - rename: node, title
//   - undo, redo
//   - import: file, optional format (document or backend)
//
// A failing step does not stop the run. Its error code is recorded in the
// trace, and the result fails unless an error assertion names that step.
//
// # Assertion Types
//
//   - node_count, link_count: count
//   - complete, chain_complete: node, expect
//   - valid: expect, optional codes that must be reported
//   - path: path of node aliases from Start to End, or expect
//   - keys: node, field, keys in slot order
//   - link_target: link, node, input
//   - error: step, code
//
// # Golden Snapshots
//
// RunWithGolden compares the canonical JSON of the trace and a
// geometry-free summary of the final graph against
// testdata/golden/<name>.golden using goldie.
package harness
