// Package workflow checks the run-readiness structure of a graph: exactly one
// Start node, exactly one End node, and a forward path between them.
//
// Structural problems are reported as Issues inside a Report and never as Go
// errors. The graph stays editable whatever the report says.
package workflow
