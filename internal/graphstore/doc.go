// Package graphstore owns the canonical node and edge collections of a flow
// and applies incremental change-sets to them.
//
// # Two Layers
//
// The package has a functional core and a stateful shell:
//
//   - ApplyNodeDeltas, ApplyEdgeDeltas, Connect, AddNode and SetNodeText are
//     pure functions from one flow.Graph snapshot to the next. They never
//     write to their input: changed slices are copied and changed nodes are
//     replaced by fresh values, so every pointer that was not touched by the
//     change is shared with the previous snapshot.
//   - Store holds the current snapshot. Writers are serialised behind a
//     mutex; readers load the snapshot through an atomic pointer and never
//     block.
//
// # Rejected Deltas
//
// A delta batch is applied delta by delta. A delta that references a node
// or edge the graph does not contain (for instance a canvas event that
// raced with a removal) is skipped and reported as a Rejection, while the
// rest of the batch still applies. A rejected delta never leaves a partial
// change behind.
package graphstore
