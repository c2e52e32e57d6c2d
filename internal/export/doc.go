// Package export converts graphs to and from the backend workflow format.
//
// The backend addresses nodes by array position and slots by name. Sub-slots
// of multi fields use dotted names ("tools.search"), and a multi field's
// value lists its keys.
//
//	{
//	  "type": "workflow",
//	  "nodes": [{"type": "native_string", "value": "hi"}, ...],
//	  "edges": [{"type": "edge", "source": 0, "target": 1,
//	             "source_slot": "value", "target_slot": "tools.search"}]
//	}
package export
