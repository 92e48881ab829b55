// Package operation defines the workflow tree: the data model every other
// part of pdfgrid is built on.
//
// # Why Operation Exists
//
// A workflow is a tree of typed nodes. Most nodes name a processing primitive
// looked up in the registry ("merge", "compress", ...). Three types are
// reserved for control flow:
//   - **pipeline:** a container that does no work and forwards its inputs to
//     its children. Workflow files are wrapped in a pipeline root.
//   - **wait:** a branch deposits its buffers here and stops, unless it is the
//     last expected arrival for the wait's synchronization id.
//   - **done:** the resume point for a synchronization id. It is skipped by
//     normal traversal; its children run once all waits have arrived.
//
// # Shape
//
// A node with more than one child fans out: each child becomes a concurrent
// branch. A node with a single child is a sequential step. A childless
// primitive is a leaf whose output is a workflow result.
//
// The tree is built once (by a loader or by hand) and never mutated after it
// has been handed to the compiler.
package operation
