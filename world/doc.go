// Package world holds the symbolic world model: immutable State snapshots,
// Change deltas between them, and the MutableWorld that owns the live state.
//
// A default consistency rule runs on every update: adding a fact removes its
// negation, and adding a fact together with its negation is rejected.
package world
