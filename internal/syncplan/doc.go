// Package syncplan compiles the synchronization plan of a workflow tree and
// holds the per-execution barrier state built from it.
//
// # Why Syncplan Exists
//
// Branches of a workflow rejoin at wait/done pairs. How many branches must
// arrive at a given id is a static property of the tree, so it is computed
// once, up front, by Compile. Misconfigured pairings (a wait without a done,
// two dones for one id) are reported here, before any document is touched.
//
// # Plan vs. State
//
// A Plan is immutable after Compile: id → expected arrivals and the done node
// to resume at. The mutable part, the buffers accumulated at each id, lives
// in a State created per execution with Plan.NewState. This keeps two runs of
// the same plan fully isolated and lets a plan be executed any number of
// times.
//
// # Thread-Safety
//
// State.Arrive may be called concurrently from any number of branches. Each
// id has its own mutex; exactly one arrival, the one that completes the
// count, is told to resume.
package syncplan
