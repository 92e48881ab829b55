package syncplan

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/pdfgrid/internal/operation"
	"github.com/specialistvlad/pdfgrid/internal/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fanInPlan compiles a tree where n branches wait on the same id.
func fanInPlan(t *testing.T, n int) *Plan {
	t.Helper()
	branches := make([]*operation.Operation, n)
	for i := range branches {
		branches[i] = operation.New("noop", nil, operation.Wait("join"))
	}
	plan, err := Compile(operation.Pipeline(
		operation.New("split", nil, branches...),
		operation.Done("join", operation.New("merge", nil)),
	))
	require.NoError(t, err)
	return plan
}

func TestState_SequentialArrivals(t *testing.T) {
	plan := fanInPlan(t, 3)
	state := plan.NewState()

	a1, err := state.Arrive("join", []pdf.Buffer{pdf.New("one", nil)})
	require.NoError(t, err)
	assert.False(t, a1.Resume)
	assert.Equal(t, 1, a1.Arrived)
	assert.Nil(t, a1.Inputs)

	a2, err := state.Arrive("join", []pdf.Buffer{pdf.New("two", nil), pdf.New("two-b", nil)})
	require.NoError(t, err)
	assert.False(t, a2.Resume)

	a3, err := state.Arrive("join", []pdf.Buffer{pdf.New("three", nil)})
	require.NoError(t, err)
	assert.True(t, a3.Resume)
	assert.Equal(t, 3, a3.Arrived)
	assert.Equal(t, []string{"one", "two", "two-b", "three"}, pdf.Names(a3.Inputs))
	assert.Equal(t, operation.Path{1}, a3.Entry.DonePath)

	_, err = state.Arrive("join", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooManyArrivals))

	assert.Empty(t, state.Pending())
	assert.EqualValues(t, 4, state.Arrivals())
}

func TestState_UnknownID(t *testing.T) {
	state := fanInPlan(t, 1).NewState()
	_, err := state.Arrive("nope", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownSyncID))
}

func TestState_PendingReportsShortfall(t *testing.T) {
	state := fanInPlan(t, 3).NewState()
	_, err := state.Arrive("join", []pdf.Buffer{pdf.New("only", nil)})
	require.NoError(t, err)

	pending := state.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, Pending{ID: "join", Arrived: 1, Expected: 3, Deposited: 1}, pending[0])
}

func TestState_IsolatedPerExecution(t *testing.T) {
	plan := fanInPlan(t, 2)
	first := plan.NewState()
	second := plan.NewState()

	_, err := first.Arrive("join", []pdf.Buffer{pdf.New("a", nil)})
	require.NoError(t, err)

	arrival, err := second.Arrive("join", []pdf.Buffer{pdf.New("b", nil)})
	require.NoError(t, err)
	assert.False(t, arrival.Resume, "arrivals of another execution must not count")
	assert.Equal(t, 1, arrival.Arrived)
}

// TestState_ConcurrentArrivals runs N branches that reach the same wait at
// randomised moments. Exactly one of them must be told to resume and it must
// receive every buffer exactly once.
func TestState_ConcurrentArrivals(t *testing.T) {
	for round := range 20 {
		n := 2 + rand.IntN(63)
		t.Run(fmt.Sprintf("round_%d_n_%d", round, n), func(t *testing.T) {
			state := fanInPlan(t, n).NewState()

			var wg sync.WaitGroup
			var mu sync.Mutex
			var winners []Arrival

			wg.Add(n)
			for i := range n {
				go func(i int) {
					defer wg.Done()
					time.Sleep(time.Duration(rand.IntN(500)) * time.Microsecond)
					arrival, err := state.Arrive("join", []pdf.Buffer{pdf.New(fmt.Sprintf("b%03d", i), nil)})
					if err != nil {
						t.Errorf("arrival %d failed: %v", i, err)
						return
					}
					if arrival.Resume {
						mu.Lock()
						winners = append(winners, arrival)
						mu.Unlock()
					}
				}(i)
			}
			wg.Wait()

			require.Len(t, winners, 1, "exactly one branch resumes")
			names := pdf.Names(winners[0].Inputs)
			require.Len(t, names, n)
			sort.Strings(names)
			for i, name := range names {
				assert.Equal(t, fmt.Sprintf("b%03d", i), name)
			}
			assert.Empty(t, state.Pending())
		})
	}
}
