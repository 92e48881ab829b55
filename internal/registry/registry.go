package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/specialistvlad/pdfgrid/internal/operation"
	"github.com/specialistvlad/pdfgrid/internal/pdf"
)

// ErrUnknownOperationType is matched by the error Lookup returns for a type
// nobody registered.
var ErrUnknownOperationType = errors.New("unknown operation type")

// Executor performs one kind of operation. It receives every buffer the
// branch currently carries and returns the buffers passed on to the node's
// children. Inputs must not be modified.
type Executor interface {
	Execute(ctx context.Context, inputs []pdf.Buffer, values operation.Values) ([]pdf.Buffer, error)
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(ctx context.Context, inputs []pdf.Buffer, values operation.Values) ([]pdf.Buffer, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, inputs []pdf.Buffer, values operation.Values) ([]pdf.Buffer, error) {
	return f(ctx, inputs, values)
}

// Module is the interface that all operation modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// UnknownTypeError is returned by Lookup for an unregistered type.
type UnknownTypeError struct {
	Type string
}

// Error implements the error interface.
func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownOperationType, e.Type)
}

// Is matches ErrUnknownOperationType.
func (e *UnknownTypeError) Is(target error) bool {
	return target == ErrUnknownOperationType
}

// Registry holds the executors of a single application instance.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]Executor
}

// New creates an empty registry and registers the given modules into it.
func New(modules ...Module) *Registry {
	r := &Registry{executors: make(map[string]Executor)}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// Register adds the executor for opType. It panics if opType is empty,
// reserved for control flow, or already registered.
func (r *Registry) Register(opType string, exec Executor) {
	if opType == "" {
		panic("operation type name cannot be empty")
	}
	if operation.IsReserved(opType) {
		panic(fmt.Sprintf("operation type '%s' is reserved for control flow", opType))
	}
	if exec == nil {
		panic(fmt.Sprintf("operation type '%s' registered with a nil executor", opType))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.executors[opType]; exists {
		panic(fmt.Sprintf("operation type '%s' already registered", opType))
	}
	slog.Debug("Registering operation executor.", "type", opType)
	r.executors[opType] = exec
}

// RegisterFunc is a shorthand for Register(opType, ExecutorFunc(fn)).
func (r *Registry) RegisterFunc(opType string, fn ExecutorFunc) {
	r.Register(opType, fn)
}

// Lookup returns the executor for opType.
func (r *Registry) Lookup(opType string) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exec, ok := r.executors[opType]
	if !ok {
		return nil, &UnknownTypeError{Type: opType}
	}
	return exec, nil
}

// Types returns all registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.executors))
	for t := range r.executors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
