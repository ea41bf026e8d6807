// Package flow defines the data model of a chat flow: text message nodes
// placed on a canvas and the directed edges that connect them.
//
// # Immutability
//
// A Graph is a snapshot. Its slices and the *Node and *Edge values they hold
// are never written after the snapshot is published; every mutation builds a
// new Graph that shares the untouched pointers with its predecessor. Callers
// can therefore detect changes with a pointer comparison and may read a
// snapshot from any goroutine without locking.
//
// # Invariants
//
// A committed Graph always satisfies Check:
//   - node ids are unique
//   - edge ids are unique
//   - every edge's source and target name an existing node
package flow
