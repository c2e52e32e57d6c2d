// Package multislot expands one logical field into keyed sub-slots.
//
// A multi field such as "tools" grows slots named "tools.search",
// "tools.summarize" and so on. Slots are addressed by index everywhere in the
// graph, so removing one means renumbering every index above it: grouping
// maps, per-slot metadata, literal values, bundle lists and link endpoints on
// the node. All of that index arithmetic lives in this package.
package multislot
