package engine

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/specialistvlad/pdfgrid/internal/operation"
	"github.com/specialistvlad/pdfgrid/internal/pdf"
)

var (
	// ErrCancelled is matched by the error ending a cancelled run.
	ErrCancelled = errors.New("workflow cancelled")
	// ErrStalledSynchronization is matched by errors reporting a wait id whose
	// expected arrivals were never reached.
	ErrStalledSynchronization = errors.New("stalled synchronization")
)

// Result is one item of the output sequence: either an output buffer of a
// terminated branch, or an error marker.
type Result struct {
	// Path is the position of the node that produced the buffer or failed.
	// Run-level errors have no path.
	Path operation.Path
	// Operation is the type of that node.
	Operation string
	// Buffer is the output document; zero when Err is set.
	Buffer pdf.Buffer
	// Err is a *DispatchError, *StalledSynchronizationError or
	// *CancelledError, or a compile error when Execute was given no plan.
	Err error
}

// Failed reports whether the result is an error marker.
func (r Result) Failed() bool {
	return r.Err != nil
}

// DispatchError reports a branch whose operation could not be looked up or
// returned an error.
type DispatchError struct {
	Type string
	Path operation.Path
	Err  error
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	return fmt.Sprintf("operation '%s' at %s failed: %v", e.Type, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DispatchError) Unwrap() error {
	return e.Err
}

// StalledSynchronizationError reports a wait id that never resumed.
type StalledSynchronizationError struct {
	ID       operation.SyncID
	Arrived  int
	Expected int
}

// Error implements the error interface.
func (e *StalledSynchronizationError) Error() string {
	return fmt.Sprintf("%s: id %q received %d of %d expected arrivals", ErrStalledSynchronization, string(e.ID), e.Arrived, e.Expected)
}

// Is matches ErrStalledSynchronization.
func (e *StalledSynchronizationError) Is(target error) bool {
	return target == ErrStalledSynchronization
}

// CancelledError ends the sequence of a run whose context was cancelled.
type CancelledError struct {
	Cause error
}

// Error implements the error interface.
func (e *CancelledError) Error() string {
	if e.Cause == nil {
		return ErrCancelled.Error()
	}
	return fmt.Sprintf("%s: %v", ErrCancelled, e.Cause)
}

// Is matches ErrCancelled.
func (e *CancelledError) Is(target error) bool {
	return target == ErrCancelled
}

// Unwrap returns the context cause, e.g. context.DeadlineExceeded.
func (e *CancelledError) Unwrap() error {
	return e.Cause
}

// isRunLevel reports whether err describes the run as a whole rather than
// one branch.
func isRunLevel(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, ErrStalledSynchronization)
}

// Collect drains seq and returns its results in depth-first order of their
// paths, which makes the output of a run deterministic. Results of the same
// branch keep their relative order and run-level errors come last.
func Collect(seq iter.Seq[Result]) []Result {
	results := slices.Collect(seq)
	slices.SortStableFunc(results, func(a, b Result) int {
		aRun, bRun := a.Err != nil && isRunLevel(a.Err), b.Err != nil && isRunLevel(b.Err)
		switch {
		case aRun && bRun:
			return 0
		case aRun:
			return 1
		case bRun:
			return -1
		}
		return operation.Compare(a.Path, b.Path)
	})
	return results
}

// Buffers returns the output buffers of results, skipping error markers.
func Buffers(results []Result) []pdf.Buffer {
	var out []pdf.Buffer
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Buffer)
		}
	}
	return out
}

// Errors returns the errors of results, in order.
func Errors(results []Result) []error {
	var out []error
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r.Err)
		}
	}
	return out
}
