// Package library holds the tree of named sprite definitions and turns keys
// into decoded sprites.
//
// The tree is stored as an arena: directories and render nodes live in
// slices and refer to each other by index. Every node additionally has a
// list of the (directory, key) slots it currently occupies. Commands that
// alias (same) or derive (filter) another part of the tree rewrite those
// slots in place the first time they are decoded, so later lookups land on
// the target directly.
//
// A Library is not safe for concurrent use.
package library
