// Package editor is the mutation API a presentation layer calls.
//
// A Session owns one graph and the components that keep derived state about
// it: the multi-slot manager, the completeness engine, the workflow validator
// and the undo history. Every discrete action records exactly one history
// command and brings completeness up to date before returning.
//
// Topology actions (create, delete, connect, disconnect, slot add/remove,
// import, clear) record whole-document snapshots. Attribute actions (move,
// resize, rename, set value) record deltas.
//
// A Session is not safe for concurrent use.
package editor
