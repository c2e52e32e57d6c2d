// Package completeness derives per-node and chain completeness.
//
// A node is complete when every required input field is filled by a link or
// a literal value. Its chain is complete when the node and every node
// reachable upstream through its inputs are complete.
//
// Results are cached until invalidated. The graph does not notify the
// engine, so whoever mutates the graph calls PropagateDownstream (one local
// edit) or RefreshAll (bulk change such as an import).
//
// The link graph may contain cycles. Chain computation tracks the nodes on the
// current recursion path and treats a node met again on that path as complete
// for that branch. This masks a cycle whose members are only incomplete
// through each other; it is existing readiness behavior and is kept as is.
package completeness
