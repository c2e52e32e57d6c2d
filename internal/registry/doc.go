// Package registry holds node descriptors: the data-driven definition of each
// node type's fields, slot roles and defaults.
//
// A Registry is an explicit object handed to the graph at construction, so
// independent graphs can carry independent catalogs. Descriptors are usually
// compiled from CUE by the compiler package; tests build them directly.
package registry
