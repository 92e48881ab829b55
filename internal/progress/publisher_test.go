package progress_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/pdfgrid/internal/engine"
	"github.com/specialistvlad/pdfgrid/internal/operation"
	"github.com/specialistvlad/pdfgrid/internal/progress"
	"github.com/specialistvlad/pdfgrid/internal/registry"
	"github.com/specialistvlad/pdfgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sink struct {
	mu       sync.Mutex
	names    []string
	payloads []map[string]any
}

func (s *sink) emit(event string, payload map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names, event)
	s.payloads = append(s.payloads, payload)
}

func (s *sink) kinds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.payloads))
	for i, p := range s.payloads {
		out[i] = p["kind"].(string)
	}
	return out
}

func TestPublisher_ForwardsEngineEvents(t *testing.T) {
	s := &sink{}
	pub := progress.NewPublisher(s.emit, progress.WithEvent("workflow-progress"))
	exec := engine.New(registry.New(&testutil.ScriptedModule{}), engine.WithObserver(pub))

	_, err := exec.Run(context.Background(), operation.Pipeline(operation.New("tag", nil)), testutil.Docs("x"), nil)
	require.NoError(t, err)
	pub.Close(context.Background())

	assert.Equal(t, []string{"run_started", "operation_started", "operation_finished", "output", "run_finished"}, s.kinds())
	for _, name := range s.names {
		assert.Equal(t, "workflow-progress", name)
	}
	assert.Equal(t, "Starting: tag", s.payloads[1]["message"])
	assert.Equal(t, "0", s.payloads[1]["path"])
	assert.NotEmpty(t, s.payloads[0]["run_id"])
	assert.Zero(t, pub.Dropped())
}

func TestPublisher_DropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	s := &sink{}
	pub := progress.NewPublisher(func(event string, payload map[string]any) {
		<-release
		s.emit(event, payload)
	}, progress.WithBuffer(1))

	// The first event is taken by the emitting goroutine, the second fills the
	// buffer; everything after that is dropped.
	for range 10 {
		pub.Observe(context.Background(), engine.Event{Kind: engine.Output})
		time.Sleep(time.Millisecond)
	}
	close(release)
	pub.Close(context.Background())

	assert.Positive(t, pub.Dropped())
	assert.Equal(t, int64(10), pub.Dropped()+int64(len(s.kinds())))

	// Observing after Close is a no-op.
	pub.Observe(context.Background(), engine.Event{Kind: engine.Output})
	pub.Close(context.Background())
}

func TestPayload(t *testing.T) {
	got := progress.Payload(engine.Event{
		Kind:      engine.OperationFailed,
		RunID:     "r1",
		Path:      operation.Path{2, 0},
		Operation: "merge",
		Duration:  1500 * time.Millisecond,
		Err:       errors.New("boom"),
	})
	assert.Equal(t, map[string]any{
		"run_id":      "r1",
		"kind":        "operation_failed",
		"message":     "Branch at 2.0 stopped: boom",
		"path":        "2.0",
		"operation":   "merge",
		"duration_ms": int64(1500),
		"error":       "boom",
	}, got)

	resumed := progress.Payload(engine.Event{Kind: engine.Resumed, SyncID: "j", Inputs: 2, Outputs: 3})
	assert.Equal(t, "Resuming after j with 3 document(s)", resumed["message"])
	assert.Equal(t, "j", resumed["sync_id"])
}

func TestPayload_RootPath(t *testing.T) {
	root := progress.Payload(engine.Event{Kind: engine.Output, Operation: "merge", Outputs: 1})
	assert.Equal(t, "root", root["path"])

	run := progress.Payload(engine.Event{Kind: engine.RunFinished})
	_, hasPath := run["path"]
	assert.False(t, hasPath, "run-level events carry no path")
}

func TestDial_RejectsBadURL(t *testing.T) {
	_, err := progress.Dial(context.Background(), "localhost:3000", progress.DialOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be absolute")

	_, err = progress.Connect(context.Background(), "://nope", progress.DialOptions{})
	require.Error(t, err)
}
