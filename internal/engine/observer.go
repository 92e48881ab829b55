package engine

import (
	"context"
	"time"

	"github.com/specialistvlad/pdfgrid/internal/operation"
)

// EventKind names a point in the life of a run.
type EventKind string

const (
	RunStarted        EventKind = "run_started"
	RunFinished       EventKind = "run_finished"
	OperationStarted  EventKind = "operation_started"
	// OperationFinished follows every executor call; Err is set when the
	// call failed.
	OperationFinished EventKind = "operation_finished"
	// OperationFailed reports a branch ended by a dispatch error, including
	// unknown operation types that never reached an executor.
	OperationFailed EventKind = "operation_failed"
	Deposited         EventKind = "deposited"
	Resumed           EventKind = "resumed"
	Output            EventKind = "output"
	Stalled           EventKind = "stalled"
	Cancelled         EventKind = "cancelled"
)

// Event is a progress notification. Only the fields relevant to Kind are set.
type Event struct {
	Kind      EventKind
	RunID     string
	Path      operation.Path
	Operation string
	SyncID    operation.SyncID
	// Inputs and Outputs count buffers going into and out of an operation.
	// For Deposited and Resumed, Inputs is the number of arrivals so far and
	// Outputs the number of buffers handed to the done node.
	Inputs   int
	Outputs  int
	Duration time.Duration
	Err      error
}

// Observer receives progress events. Observe is called from many branch
// goroutines at once and must not block for long.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, ev Event)

// Observe calls f.
func (f ObserverFunc) Observe(ctx context.Context, ev Event) {
	f(ctx, ev)
}

// observers fans one event out to several observers.
type observers []Observer

func (o observers) Observe(ctx context.Context, ev Event) {
	for _, obs := range o {
		obs.Observe(ctx, ev)
	}
}
