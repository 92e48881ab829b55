package engine

import (
	"context"
	"errors"
	"iter"
	"runtime"
	"slices"

	"github.com/google/uuid"
	"github.com/specialistvlad/pdfgrid/internal/ctxlog"
	"github.com/specialistvlad/pdfgrid/internal/operation"
	"github.com/specialistvlad/pdfgrid/internal/pdf"
	"github.com/specialistvlad/pdfgrid/internal/registry"
	"github.com/specialistvlad/pdfgrid/internal/syncplan"
	"golang.org/x/sync/semaphore"
)

// Lookuper resolves operation types to executors. *registry.Registry
// implements it.
type Lookuper interface {
	Lookup(opType string) (registry.Executor, error)
}

// Executor runs workflow trees against a registry. It holds no per-run
// state and may execute any number of workflows concurrently.
type Executor struct {
	registry       Lookuper
	maxConcurrency int
	observer       Observer
}

// Option configures an Executor.
type Option func(*Executor)

// WithMaxConcurrency bounds how many operations execute at the same time
// within one run. Values below 1 are ignored.
func WithMaxConcurrency(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxConcurrency = n
		}
	}
}

// WithObserver adds a progress observer. It may be given several times.
func WithObserver(o Observer) Option {
	return func(e *Executor) {
		if o == nil {
			return
		}
		if e.observer == nil {
			e.observer = o
			return
		}
		if many, ok := e.observer.(observers); ok {
			e.observer = append(many, o)
			return
		}
		e.observer = observers{e.observer, o}
	}
}

// New creates an executor dispatching through reg.
func New(reg Lookuper, opts ...Option) *Executor {
	e := &Executor{
		registry:       reg,
		maxConcurrency: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.observer == nil {
		e.observer = observers(nil)
	}
	return e
}

// Execute returns the lazy output sequence of running root on inputs. plan
// must have been compiled from root; a nil plan is compiled on each
// iteration, and a compile failure is yielded as the only result.
//
// Results arrive in the order branches terminate. Stopping the iteration
// early cancels the remaining branches.
func (e *Executor) Execute(ctx context.Context, root *operation.Operation, inputs []pdf.Buffer, plan *syncplan.Plan) iter.Seq[Result] {
	return func(yield func(Result) bool) {
		p := plan
		if p == nil {
			var err error
			if p, err = syncplan.Compile(root); err != nil {
				yield(Result{Err: err})
				return
			}
		}

		runID := uuid.NewString()
		runCtx, cancel := context.WithCancel(ctxlog.With(ctx, "run_id", runID))
		defer cancel()
		logger := ctxlog.FromContext(runCtx)

		r := &run{
			id:       runID,
			registry: e.registry,
			observer: e.observer,
			state:    p.NewState(),
			sem:      semaphore.NewWeighted(int64(e.maxConcurrency)),
			out:      make(chan Result, e.maxConcurrency),
		}

		logger.Info("Workflow run started.", "inputs", len(inputs), "sync_ids", p.Len(), "max_concurrency", e.maxConcurrency)
		r.observe(runCtx, Event{Kind: RunStarted, Inputs: len(inputs)})

		r.group.Go(func() error {
			r.process(runCtx, nil, root, slices.Clone(inputs))
			return nil
		})
		go func() {
			_ = r.group.Wait() // branches report failures as results
			close(r.out)
		}()

		for res := range r.out {
			if !yield(res) {
				logger.Debug("Consumer stopped early, cancelling remaining branches.")
				cancel()
				go func() {
					for range r.out {
					}
				}()
				return
			}
		}

		// A cancellation that lands while the last operation runs is seen by
		// no branch, so the caller's context is checked once more here.
		if r.interrupted.Load() || ctx.Err() != nil {
			cause := context.Cause(ctx)
			if cause == nil {
				cause = runCtx.Err()
			}
			logger.Warn("Workflow run cancelled.", "cause", cause, "outputs", r.outputs.Load(), "failures", r.failures.Load())
			r.observe(runCtx, Event{Kind: Cancelled, Err: cause})
			yield(Result{Err: &CancelledError{Cause: cause}})
			return
		}

		for _, pending := range r.state.Pending() {
			err := &StalledSynchronizationError{ID: pending.ID, Arrived: pending.Arrived, Expected: pending.Expected}
			logger.Error("Synchronization stalled.", "sync_id", string(pending.ID), "arrived", pending.Arrived, "expected", pending.Expected)
			r.failures.Add(1)
			r.observe(runCtx, Event{Kind: Stalled, SyncID: pending.ID, Inputs: pending.Arrived, Err: err})
			if !yield(Result{Err: err}) {
				return
			}
		}

		logger.Info("Workflow run finished.", "outputs", r.outputs.Load(), "failures", r.failures.Load())
		r.observe(runCtx, Event{Kind: RunFinished, Outputs: int(r.outputs.Load()), Inputs: len(inputs)})
	}
}

// Run executes the workflow to completion and returns its results in
// depth-first order, together with the joined errors of all failed results.
func (e *Executor) Run(ctx context.Context, root *operation.Operation, inputs []pdf.Buffer, plan *syncplan.Plan) ([]Result, error) {
	results := Collect(e.Execute(ctx, root, inputs, plan))
	return results, errors.Join(Errors(results)...)
}

var _ Lookuper = (*registry.Registry)(nil)
