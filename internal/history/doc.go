// Package history provides bounded undo/redo over graph edits.
//
// Two command kinds share one interface. A SnapshotCommand holds the whole
// document before and after a topology change and restores one of them. A
// DeltaCommand holds old/new attribute values for fine-grained edits such as
// drags and renames, where snapshotting the graph per tick is wasteful.
//
// Id counters travel with snapshots: undoing a creation hands its ids out
// again, and pushing a new command has already cleared the redo that held them.
package history
