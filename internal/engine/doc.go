// Package engine executes a compiled workflow tree.
//
// # How It Works
//
// Execute returns a lazy sequence. Nothing runs until the caller ranges over
// it; ranging again runs the whole workflow again with fresh barrier state.
//
//  1. The root branch starts at the tree root with the caller's inputs.
//  2. A primitive node is dispatched through the registry with every buffer
//     the branch carries; its outputs flow to its children.
//  3. A node with several children forks: each child becomes a goroutine with
//     its own copy of the buffer list. A single child continues in place.
//  4. A wait deposits the branch's buffers at its synchronization id. The last
//     expected arrival resumes at the matching done node with everything that
//     was deposited; all other arrivals just end.
//  5. A branch that runs out of children yields its buffers as results.
//
// # Failure and Cancellation
//
// A failing dispatch yields a DispatchError for that branch only; siblings
// keep running. Once every branch has settled, ids that never resumed are
// reported as StalledSynchronizationError, so a broken fan-in never hangs the
// run. Cancelling the context stops new dispatches and resumes, lets
// in-flight operations finish, and ends the sequence with a CancelledError.
//
// # Concurrency
//
// Branch goroutines are joined per run with an errgroup. The number of
// operations executing at once is bounded by a weighted semaphore
// (WithMaxConcurrency).
package engine
