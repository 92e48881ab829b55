package engine

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/pdfgrid/internal/ctxlog"
	"github.com/specialistvlad/pdfgrid/internal/operation"
	"github.com/specialistvlad/pdfgrid/internal/pdf"
	"github.com/specialistvlad/pdfgrid/internal/registry"
	"github.com/specialistvlad/pdfgrid/internal/syncplan"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// run is the state of a single execution of a workflow.
type run struct {
	id       string
	registry Lookuper
	observer Observer
	state    *syncplan.State
	sem      *semaphore.Weighted
	group    errgroup.Group
	out      chan Result

	// interrupted is set when a branch stopped because the context was done.
	interrupted atomic.Bool
	outputs     atomic.Int64
	failures    atomic.Int64
}

func (r *run) observe(ctx context.Context, ev Event) {
	ev.RunID = r.id
	r.observer.Observe(ctx, ev)
}

// process runs one branch starting at op. Sequential steps are handled in a
// loop on the current goroutine; only fan-out starts new goroutines.
func (r *run) process(ctx context.Context, path operation.Path, op *operation.Operation, inputs []pdf.Buffer) {
	logger := ctxlog.FromContext(ctx)

	for op != nil {
		if ctx.Err() != nil {
			logger.Debug("Branch stopped by cancellation.", "path", path.String(), "operation", op.Type)
			r.interrupted.Store(true)
			return
		}

		var children []*operation.Operation
		switch op.Type {
		case operation.TypeDone:
			// Only ever entered through a completed wait.
			return

		case operation.TypeWait:
			entry, accumulated, ok := r.arrive(ctx, path, op, inputs)
			if !ok {
				return
			}
			path, op, inputs = entry.DonePath, entry.Done, accumulated
			children = op.Operations

		case operation.TypePipeline:
			children = op.Operations

		default:
			outputs, ok := r.dispatch(ctx, path, op, inputs)
			if !ok {
				return
			}
			children, inputs = op.Operations, outputs
		}

		if len(children) == 0 {
			r.emit(ctx, path, op, inputs)
			return
		}

		var runnable []int
		for i, child := range children {
			if child != nil && child.Type != operation.TypeDone {
				runnable = append(runnable, i)
			}
		}

		switch len(runnable) {
		case 0:
			logger.Debug("Branch has only done children, nothing left to run.", "path", path.String(), "operation", op.Type)
			return
		case 1:
			path, op = path.Child(runnable[0]), children[runnable[0]]
		default:
			if ctx.Err() != nil {
				r.interrupted.Store(true)
				return
			}
			logger.Debug("Branch fans out.", "path", path.String(), "operation", op.Type, "branches", len(runnable))
			for _, i := range runnable {
				childPath, child, childInputs := path.Child(i), children[i], slices.Clone(inputs)
				r.group.Go(func() error {
					r.process(ctx, childPath, child, childInputs)
					return nil
				})
			}
			return
		}
	}
}

// arrive deposits inputs at the wait's id. It reports ok only for the
// arrival that completes the count, together with the compiled entry and
// every buffer deposited so far.
func (r *run) arrive(ctx context.Context, path operation.Path, op *operation.Operation, inputs []pdf.Buffer) (syncplan.Entry, []pdf.Buffer, bool) {
	logger := ctxlog.FromContext(ctx)

	id, err := op.SyncID()
	if err != nil {
		r.fail(ctx, path, op, err)
		return syncplan.Entry{}, nil, false
	}

	arrival, err := r.state.Arrive(id, inputs)
	if err != nil {
		r.fail(ctx, path, op, err)
		return syncplan.Entry{}, nil, false
	}

	if !arrival.Resume {
		logger.Debug("Deposited at wait.", "path", path.String(), "sync_id", string(id), "arrived", arrival.Arrived, "expected", arrival.Entry.ExpectedArrivals)
		r.observe(ctx, Event{Kind: Deposited, Path: path, Operation: op.Type, SyncID: id, Inputs: arrival.Arrived, Outputs: len(inputs)})
		return syncplan.Entry{}, nil, false
	}

	// The completing arrival is held back on cancellation; the id then shows
	// up as resumed but its done subtree never runs.
	if ctx.Err() != nil {
		logger.Debug("Resume skipped, run is cancelled.", "path", path.String(), "sync_id", string(id))
		r.interrupted.Store(true)
		return syncplan.Entry{}, nil, false
	}

	logger.Debug("Synchronization complete, resuming at done.", "sync_id", string(id), "done_path", arrival.Entry.DonePath.String(), "buffers", len(arrival.Inputs))
	r.observe(ctx, Event{Kind: Resumed, Path: arrival.Entry.DonePath, Operation: operation.TypeDone, SyncID: id, Inputs: arrival.Arrived, Outputs: len(arrival.Inputs)})
	return arrival.Entry, arrival.Inputs, true
}

// dispatch runs a primitive operation. It reports ok when the branch should
// continue with the returned outputs.
func (r *run) dispatch(ctx context.Context, path operation.Path, op *operation.Operation, inputs []pdf.Buffer) ([]pdf.Buffer, bool) {
	logger := ctxlog.FromContext(ctx).With("path", path.String(), "operation", op.Type)

	exec, err := r.registry.Lookup(op.Type)
	if err != nil {
		r.fail(ctx, path, op, err)
		return nil, false
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		r.interrupted.Store(true)
		return nil, false
	}
	// Acquire can succeed on a context that is already done.
	if ctx.Err() != nil {
		r.sem.Release(1)
		r.interrupted.Store(true)
		return nil, false
	}

	logger.Debug("Executing operation.", "inputs", len(inputs))
	r.observe(ctx, Event{Kind: OperationStarted, Path: path, Operation: op.Type, Inputs: len(inputs)})

	start := time.Now()
	outputs, err := r.call(context.WithoutCancel(ctx), exec, inputs, op.Values)
	elapsed := time.Since(start)
	r.sem.Release(1)

	r.observe(ctx, Event{Kind: OperationFinished, Path: path, Operation: op.Type, Inputs: len(inputs), Outputs: len(outputs), Duration: elapsed, Err: err})
	if err != nil {
		r.fail(ctx, path, op, err)
		return nil, false
	}
	logger.Debug("Operation finished.", "outputs", len(outputs), "duration", elapsed)

	if len(outputs) == 0 {
		logger.Debug("Operation produced no buffers, branch ends.")
		return nil, false
	}
	return outputs, true
}

// call invokes exec and turns a panic into an error.
func (r *run) call(ctx context.Context, exec registry.Executor, inputs []pdf.Buffer, values operation.Values) (outputs []pdf.Buffer, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return exec.Execute(ctx, slices.Clone(inputs), values)
}

// fail yields a DispatchError for the branch at path.
func (r *run) fail(ctx context.Context, path operation.Path, op *operation.Operation, err error) {
	dErr := &DispatchError{Type: op.Type, Path: path, Err: err}
	ctxlog.FromContext(ctx).Error("Operation failed.", "path", path.String(), "operation", op.Type, "error", err)
	r.failures.Add(1)
	r.observe(ctx, Event{Kind: OperationFailed, Path: path, Operation: op.Type, Err: dErr})
	r.out <- Result{Path: path, Operation: op.Type, Err: dErr}
}

// emit yields the buffers of a terminated branch.
func (r *run) emit(ctx context.Context, path operation.Path, op *operation.Operation, buffers []pdf.Buffer) {
	for _, b := range buffers {
		r.outputs.Add(1)
		r.observe(ctx, Event{Kind: Output, Path: path, Operation: op.Type, Outputs: 1})
		r.out <- Result{Path: path, Operation: op.Type, Buffer: b}
	}
}
