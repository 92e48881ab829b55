// Package registry provides the lookup from operation type names to the Go
// code that performs them.
//
// The Registry stores one Executor per operation type (e.g., "merge",
// "compress"). Modules bundle related executors and add them with
// Module.Register during application startup. The workflow engine asks the
// registry for an executor every time it dispatches a node, so an unknown
// type only fails the branch that reaches it.
//
// Registration mistakes (an empty name, a reserved control type, the same
// name twice) are programmer errors and panic, making a mismatch between code
// and configuration visible at startup instead of mid-run.
package registry
