// Package progress streams engine events to a socket.io server so a UI can
// follow a running workflow.
//
// Publishing never blocks the engine: events are queued in a bounded buffer
// and emitted from a single goroutine. When the buffer is full, events are
// dropped and counted.
package progress

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/pdfgrid/internal/ctxlog"
	"github.com/specialistvlad/pdfgrid/internal/engine"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultEvent is the socket.io event name progress is emitted under.
const DefaultEvent = "progress"

// EmitFunc sends one payload under a socket.io event name.
type EmitFunc func(event string, payload map[string]any)

// Publisher is an engine.Observer that forwards events through an EmitFunc.
type Publisher struct {
	emit    EmitFunc
	event   string
	closeFn func()

	events    chan engine.Event
	stop      chan struct{}
	finished  chan struct{}
	closeOnce sync.Once
	dropped   atomic.Int64
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithEvent sets the socket.io event name.
func WithEvent(name string) Option {
	return func(p *Publisher) {
		if name != "" {
			p.event = name
		}
	}
}

// WithBuffer sets how many events may be queued before dropping.
func WithBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.events = make(chan engine.Event, n)
		}
	}
}

// NewPublisher starts a publisher emitting through emit.
func NewPublisher(emit EmitFunc, opts ...Option) *Publisher {
	p := &Publisher{
		emit:     emit,
		event:    DefaultEvent,
		events:   make(chan engine.Event, 256),
		stop:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	go p.loop()
	return p
}

// Connect dials rawURL and returns a publisher emitting on that socket.
// Close disconnects it.
func Connect(ctx context.Context, rawURL string, dial DialOptions, opts ...Option) (*Publisher, error) {
	io, err := Dial(ctx, rawURL, dial)
	if err != nil {
		return nil, err
	}
	p := NewPublisher(socketEmitter(io), opts...)
	p.closeFn = func() { io.Disconnect() }
	return p, nil
}

func socketEmitter(io *socket.Socket) EmitFunc {
	return func(event string, payload map[string]any) {
		io.Emit(event, payload)
	}
}

// Observe implements engine.Observer. It never blocks.
func (p *Publisher) Observe(_ context.Context, ev engine.Event) {
	select {
	case <-p.stop:
		return
	default:
	}
	select {
	case p.events <- ev:
	default:
		p.dropped.Add(1)
	}
}

// Dropped returns the number of events discarded because the buffer was full.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Close flushes queued events and releases the connection. It is safe to
// call more than once.
func (p *Publisher) Close(ctx context.Context) {
	p.closeOnce.Do(func() {
		close(p.stop)
		<-p.finished
		if p.closeFn != nil {
			p.closeFn()
		}
		if n := p.dropped.Load(); n > 0 {
			ctxlog.FromContext(ctx).Warn("Progress events were dropped.", "count", n)
		}
	})
}

func (p *Publisher) loop() {
	defer close(p.finished)
	for {
		select {
		case ev := <-p.events:
			p.emit(p.event, Payload(ev))
		case <-p.stop:
			for {
				select {
				case ev := <-p.events:
					p.emit(p.event, Payload(ev))
				default:
					return
				}
			}
		}
	}
}

// nodeScoped reports whether events of kind always belong to a tree node,
// the root included.
func nodeScoped(kind engine.EventKind) bool {
	switch kind {
	case engine.OperationStarted, engine.OperationFinished, engine.OperationFailed,
		engine.Deposited, engine.Resumed, engine.Output:
		return true
	}
	return false
}

// Payload renders an event as the JSON-friendly map sent to the server.
func Payload(ev engine.Event) map[string]any {
	payload := map[string]any{
		"run_id":  ev.RunID,
		"kind":    string(ev.Kind),
		"message": message(ev),
	}
	if ev.Path != nil || nodeScoped(ev.Kind) {
		payload["path"] = ev.Path.String()
	}
	if ev.Operation != "" {
		payload["operation"] = ev.Operation
	}
	if ev.SyncID != "" {
		payload["sync_id"] = string(ev.SyncID)
	}
	if ev.Inputs > 0 {
		payload["inputs"] = ev.Inputs
	}
	if ev.Outputs > 0 {
		payload["outputs"] = ev.Outputs
	}
	if ev.Duration > 0 {
		payload["duration_ms"] = ev.Duration.Milliseconds()
	}
	if ev.Err != nil {
		payload["error"] = ev.Err.Error()
	}
	return payload
}

func message(ev engine.Event) string {
	switch ev.Kind {
	case engine.RunStarted:
		return fmt.Sprintf("Starting workflow with %d document(s)", ev.Inputs)
	case engine.RunFinished:
		return fmt.Sprintf("Finished with %d document(s)", ev.Outputs)
	case engine.OperationStarted:
		return "Starting: " + ev.Operation
	case engine.OperationFinished:
		if ev.Err != nil {
			return "Failed: " + ev.Operation
		}
		return "Finished: " + ev.Operation
	case engine.OperationFailed:
		return fmt.Sprintf("Branch at %s stopped: %v", ev.Path, ev.Err)
	case engine.Deposited:
		return fmt.Sprintf("Waiting at %s (%d arrived)", ev.SyncID, ev.Inputs)
	case engine.Resumed:
		return fmt.Sprintf("Resuming after %s with %d document(s)", ev.SyncID, ev.Outputs)
	case engine.Output:
		return "Output ready"
	case engine.Stalled:
		return fmt.Sprintf("Synchronization %s stalled", ev.SyncID)
	case engine.Cancelled:
		return "Workflow cancelled"
	}
	return string(ev.Kind)
}
