// Package graph is the store for nodes and links.
//
// A Graph owns every node and link and keeps referential integrity: each link
// endpoint references a live node, a scalar input holds at most one link, and
// a bundle input holds a list. Nodes are built by a generic factory that
// interprets registry descriptors, so node shape is plain data.
//
// The graph performs no I/O, starts no goroutines and does no locking. Callers
// serialize mutations.
package graph
