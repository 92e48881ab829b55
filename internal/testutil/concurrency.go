package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/pdfgrid/internal/operation"
	"github.com/specialistvlad/pdfgrid/internal/pdf"
	"github.com/specialistvlad/pdfgrid/internal/registry"
)

// SleeperModule is a shared, self-contained module for concurrency tests.
// Its "sleep" operation passes its inputs through after values.ms
// milliseconds (or the module default) and records when it ran, keyed by
// values.id.
type SleeperModule struct {
	ExecutionTimes map[string]*ExecutionRecord
	mu             sync.Mutex
	sleepDuration  time.Duration
	completionChan chan<- string

	running    atomic.Int64
	maxRunning atomic.Int64
}

// NewSleeperModule creates a new sleeper module for testing. completionChan
// may be nil.
func NewSleeperModule(completionChan chan<- string, sleep time.Duration) *SleeperModule {
	return &SleeperModule{
		ExecutionTimes: make(map[string]*ExecutionRecord),
		sleepDuration:  sleep,
		completionChan: completionChan,
	}
}

// Register registers the "sleep" operation.
func (m *SleeperModule) Register(r *registry.Registry) {
	r.RegisterFunc("sleep", func(_ context.Context, inputs []pdf.Buffer, values operation.Values) ([]pdf.Buffer, error) {
		ms, err := values.Int("ms", int(m.sleepDuration/time.Millisecond))
		if err != nil {
			return nil, err
		}
		id := values.String("id", "")

		n := m.running.Add(1)
		for {
			peak := m.maxRunning.Load()
			if n <= peak || m.maxRunning.CompareAndSwap(peak, n) {
				break
			}
		}

		startTime := time.Now()
		time.Sleep(time.Duration(ms) * time.Millisecond)
		endTime := time.Now()
		m.running.Add(-1)

		m.mu.Lock()
		m.ExecutionTimes[id] = &ExecutionRecord{Start: startTime, End: endTime}
		m.mu.Unlock()

		if m.completionChan != nil {
			m.completionChan <- id
		}
		return inputs, nil
	})
}

// MaxConcurrent returns the highest number of sleeps that overlapped.
func (m *SleeperModule) MaxConcurrent() int {
	return int(m.maxRunning.Load())
}

// Record returns the execution record for id, or nil.
func (m *SleeperModule) Record(id string) *ExecutionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ExecutionTimes[id]
}
