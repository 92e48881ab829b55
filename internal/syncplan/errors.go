package syncplan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/pdfgrid/internal/operation"
)

// Sentinel errors for compilation and arrival bookkeeping.
var (
	ErrDuplicateDoneNode       = errors.New("duplicate done node")
	ErrUnpairedSynchronization = errors.New("unpaired synchronization")
	ErrInvalidOperation        = errors.New("invalid operation")
	ErrUnknownSyncID           = errors.New("unknown synchronization id")
	ErrTooManyArrivals         = errors.New("more arrivals than expected")
)

// CompileError is returned by Compile. It always matches exactly one of
// ErrDuplicateDoneNode, ErrUnpairedSynchronization or ErrInvalidOperation.
type CompileError struct {
	Kind error
	// IDs lists the offending synchronization ids, sorted.
	IDs []operation.SyncID
	// Detail carries extra context, such as node paths.
	Detail string
	// Cause is the underlying validation error, if any.
	Cause error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	var sb strings.Builder
	sb.WriteString("compile workflow: ")
	sb.WriteString(e.Kind.Error())
	if len(e.IDs) > 0 {
		ids := make([]string, len(e.IDs))
		for i, id := range e.IDs {
			ids[i] = fmt.Sprintf("%q", string(id))
		}
		sb.WriteString(" for id ")
		sb.WriteString(strings.Join(ids, ", "))
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Is matches the error kind.
func (e *CompileError) Is(target error) bool {
	return target == e.Kind
}

// Unwrap exposes the validation cause, if any.
func (e *CompileError) Unwrap() error {
	return e.Cause
}
