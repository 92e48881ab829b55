package syncplan

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/pdfgrid/internal/operation"
	"github.com/specialistvlad/pdfgrid/internal/pdf"
)

// State is the mutable barrier state of one execution of a Plan.
type State struct {
	plan  *Plan
	slots map[operation.SyncID]*slot
	// arrivals counts every Arrive call, for diagnostics and tests.
	arrivals atomic.Int64
}

// slot accumulates the arrivals of one synchronization id.
type slot struct {
	mu      sync.Mutex
	arrived int
	inputs  []pdf.Buffer
	resumed bool
}

// NewState creates empty accumulation slots for every id in the plan. The
// slot map is never written after this, so lookups need no lock.
func (p *Plan) NewState() *State {
	slots := make(map[operation.SyncID]*slot, len(p.ids))
	for _, id := range p.ids {
		slots[id] = &slot{}
	}
	return &State{plan: p, slots: slots}
}

// Arrival describes the outcome of one branch reaching a wait.
type Arrival struct {
	// Resume is true for exactly one arrival per id: the one that completed
	// the count. That branch continues at Entry.Done.
	Resume bool
	// Entry is the compiled entry of the id.
	Entry Entry
	// Arrived is the number of arrivals so far, including this one.
	Arrived int
	// Inputs holds every buffer deposited at the id, in arrival order. It is
	// only set when Resume is true.
	Inputs []pdf.Buffer
}

// Arrive deposits inputs at id and counts one arrival. All buffers of the
// arriving branch are kept, so the accumulated inputs may outnumber the
// arrivals when a branch carries several buffers.
func (s *State) Arrive(id operation.SyncID, inputs []pdf.Buffer) (Arrival, error) {
	sl, ok := s.slots[id]
	if !ok {
		return Arrival{}, fmt.Errorf("%w: %q", ErrUnknownSyncID, string(id))
	}
	entry := *s.plan.entries[id]
	s.arrivals.Add(1)

	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.arrived >= entry.ExpectedArrivals {
		return Arrival{Entry: entry, Arrived: sl.arrived}, fmt.Errorf("%w: id %q expects %d", ErrTooManyArrivals, string(id), entry.ExpectedArrivals)
	}

	sl.arrived++
	sl.inputs = append(sl.inputs, inputs...)

	arrival := Arrival{Entry: entry, Arrived: sl.arrived}
	if sl.arrived == entry.ExpectedArrivals && !sl.resumed {
		sl.resumed = true
		arrival.Resume = true
		arrival.Inputs = slices.Clone(sl.inputs)
	}
	return arrival, nil
}

// Arrivals returns the total number of Arrive calls made on this state.
func (s *State) Arrivals() int64 {
	return s.arrivals.Load()
}

// Pending describes a synchronization id that has not resumed.
type Pending struct {
	ID       operation.SyncID
	Arrived  int
	Expected int
	// Deposited is the number of buffers held at the id.
	Deposited int
}

// Pending returns every id that has not resumed yet, sorted by id. Once all
// branches of an execution have settled, a non-empty result means those ids
// stalled.
func (s *State) Pending() []Pending {
	var out []Pending
	for _, id := range s.plan.ids {
		sl := s.slots[id]
		sl.mu.Lock()
		if !sl.resumed {
			out = append(out, Pending{
				ID:        id,
				Arrived:   sl.arrived,
				Expected:  s.plan.entries[id].ExpectedArrivals,
				Deposited: len(sl.inputs),
			})
		}
		sl.mu.Unlock()
	}
	return out
}
