package testutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/specialistvlad/pdfgrid/internal/operation"
	"github.com/specialistvlad/pdfgrid/internal/pdf"
	"github.com/specialistvlad/pdfgrid/internal/registry"
)

// ErrScripted is returned by the "fail" operation of ScriptedModule.
var ErrScripted = errors.New("scripted failure")

// Call records one invocation of a scripted operation.
type Call struct {
	Type   string
	Inputs []string
	Values operation.Values
}

// ScriptedModule registers small deterministic operations for exercising
// the engine without a PDF service:
//
//	tag    renames every input to "<name>+<tag>" (values.tag, default "t")
//	merge  joins all inputs into one buffer named "a|b|..."
//	split  turns every input into values.parts buffers "<name>#1".."#n"
//	drop   returns no buffers
//	fail   returns ErrScripted
//	panic  panics
//
// Every call is recorded.
type ScriptedModule struct {
	mu    sync.Mutex
	calls []Call
}

// Register implements the registry.Module interface.
func (m *ScriptedModule) Register(r *registry.Registry) {
	r.RegisterFunc("tag", m.record("tag", tag))
	r.RegisterFunc("merge", m.record("merge", merge))
	r.RegisterFunc("split", m.record("split", split))
	r.RegisterFunc("drop", m.record("drop", func(context.Context, []pdf.Buffer, operation.Values) ([]pdf.Buffer, error) {
		return nil, nil
	}))
	r.RegisterFunc("fail", m.record("fail", func(context.Context, []pdf.Buffer, operation.Values) ([]pdf.Buffer, error) {
		return nil, ErrScripted
	}))
	r.RegisterFunc("panic", m.record("panic", func(context.Context, []pdf.Buffer, operation.Values) ([]pdf.Buffer, error) {
		panic("scripted panic")
	}))
}

// Calls returns a copy of the recorded calls in invocation order.
func (m *ScriptedModule) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// CallsOf returns the recorded calls of one operation type.
func (m *ScriptedModule) CallsOf(opType string) []Call {
	var out []Call
	for _, c := range m.Calls() {
		if c.Type == opType {
			out = append(out, c)
		}
	}
	return out
}

func (m *ScriptedModule) record(opType string, fn registry.ExecutorFunc) registry.ExecutorFunc {
	return func(ctx context.Context, inputs []pdf.Buffer, values operation.Values) ([]pdf.Buffer, error) {
		m.mu.Lock()
		m.calls = append(m.calls, Call{Type: opType, Inputs: pdf.Names(inputs), Values: values})
		m.mu.Unlock()
		return fn(ctx, inputs, values)
	}
}

func tag(_ context.Context, inputs []pdf.Buffer, values operation.Values) ([]pdf.Buffer, error) {
	suffix := values.String("tag", "t")
	out := make([]pdf.Buffer, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, pdf.New(in.Name+"+"+suffix, in.Data))
	}
	return out, nil
}

func merge(_ context.Context, inputs []pdf.Buffer, _ operation.Values) ([]pdf.Buffer, error) {
	var data []byte
	for _, in := range inputs {
		data = append(data, in.Data...)
	}
	return []pdf.Buffer{pdf.New(strings.Join(pdf.Names(inputs), "|"), data)}, nil
}

func split(_ context.Context, inputs []pdf.Buffer, values operation.Values) ([]pdf.Buffer, error) {
	parts, err := values.Int("parts", 2)
	if err != nil {
		return nil, err
	}
	var out []pdf.Buffer
	for _, in := range inputs {
		for i := 1; i <= parts; i++ {
			out = append(out, pdf.New(fmt.Sprintf("%s#%d", in.Name, i), in.Data))
		}
	}
	return out, nil
}

// Docs returns one small PDF buffer per name.
func Docs(names ...string) []pdf.Buffer {
	out := make([]pdf.Buffer, 0, len(names))
	for _, n := range names {
		out = append(out, Doc(n))
	}
	return out
}

// Doc returns a minimal PDF-looking buffer named name.
func Doc(name string) pdf.Buffer {
	return pdf.New(name, []byte("%PDF-1.7\n% "+name+"\n%%EOF\n"))
}
