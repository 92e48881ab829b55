package syncplan

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/specialistvlad/pdfgrid/internal/operation"
)

// Entry is the compiled synchronization data for one id.
type Entry struct {
	ID operation.SyncID
	// ExpectedArrivals is the number of wait nodes sharing ID, across the
	// whole tree.
	ExpectedArrivals int
	// Done is the node execution resumes at once every wait has arrived.
	Done *operation.Operation
	// DonePath is the position of Done in the tree.
	DonePath operation.Path
	// WaitPaths are the positions of the waits, in depth-first order.
	WaitPaths []operation.Path
}

// Plan maps synchronization ids to their compiled entries. It is immutable
// and safe for concurrent use.
type Plan struct {
	entries map[operation.SyncID]*Entry
	ids     []operation.SyncID
}

// Compile walks root once, depth-first, and builds its synchronization plan.
// It never executes anything. A tree without wait/done nodes compiles to an
// empty plan.
func Compile(root *operation.Operation) (*Plan, error) {
	if err := operation.Validate(root); err != nil {
		return nil, &CompileError{Kind: ErrInvalidOperation, Cause: err}
	}

	entries := make(map[operation.SyncID]*Entry)
	entry := func(id operation.SyncID) *Entry {
		e, ok := entries[id]
		if !ok {
			e = &Entry{ID: id}
			entries[id] = e
		}
		return e
	}

	var duplicates []operation.SyncID
	var details []string

	operation.Walk(root, func(path operation.Path, op *operation.Operation) bool {
		switch op.Type {
		case operation.TypeWait:
			id, _ := op.SyncID() // validated above
			e := entry(id)
			e.ExpectedArrivals++
			e.WaitPaths = append(e.WaitPaths, path)
		case operation.TypeDone:
			id, _ := op.SyncID()
			e := entry(id)
			if e.Done != nil {
				if !slices.Contains(duplicates, id) {
					duplicates = append(duplicates, id)
				}
				details = append(details, fmt.Sprintf("id %q at %s and %s", string(id), e.DonePath, path))
				break
			}
			e.Done = op
			e.DonePath = path
		}
		return true
	})

	if len(duplicates) > 0 {
		slices.Sort(duplicates)
		return nil, &CompileError{Kind: ErrDuplicateDoneNode, IDs: duplicates, Detail: strings.Join(details, "; ")}
	}

	var unpaired []operation.SyncID
	for id, e := range entries {
		if e.Done == nil || e.ExpectedArrivals == 0 {
			unpaired = append(unpaired, id)
		}
	}
	if len(unpaired) > 0 {
		slices.Sort(unpaired)
		details = details[:0]
		for _, id := range unpaired {
			if entries[id].Done == nil {
				details = append(details, fmt.Sprintf("id %q has no done", string(id)))
			} else {
				details = append(details, fmt.Sprintf("id %q has no wait", string(id)))
			}
		}
		return nil, &CompileError{Kind: ErrUnpairedSynchronization, IDs: unpaired, Detail: strings.Join(details, "; ")}
	}

	ids := make([]operation.SyncID, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return &Plan{entries: entries, ids: ids}, nil
}

// Len returns the number of synchronization ids in the plan.
func (p *Plan) Len() int {
	return len(p.ids)
}

// Entry returns a copy of the entry for id.
func (p *Plan) Entry(id operation.SyncID) (Entry, bool) {
	e, ok := p.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Entries returns copies of all entries, sorted by id.
func (p *Plan) Entries() []Entry {
	out := make([]Entry, len(p.ids))
	for i, id := range p.ids {
		out[i] = *p.entries[id]
	}
	return out
}

// IsCompileError reports whether err came out of Compile.
func IsCompileError(err error) bool {
	var cErr *CompileError
	return errors.As(err, &cErr)
}
