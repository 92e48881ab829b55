package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/pdfgrid/internal/operation"
	"github.com/specialistvlad/pdfgrid/internal/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passthrough(_ context.Context, inputs []pdf.Buffer, _ operation.Values) ([]pdf.Buffer, error) {
	return inputs, nil
}

type testModule struct{ names []string }

func (m *testModule) Register(r *Registry) {
	for _, n := range m.names {
		r.RegisterFunc(n, passthrough)
	}
}

func TestRegisterAndLookup(t *testing.T) {
	r := New(&testModule{names: []string{"merge", "compress"}})

	exec, err := r.Lookup("merge")
	require.NoError(t, err)

	in := []pdf.Buffer{pdf.New("a.pdf", []byte("%PDF-1.7"))}
	out, err := exec.Execute(context.Background(), in, nil)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	assert.Equal(t, []string{"compress", "merge"}, r.Types())
}

func TestLookup_Unknown(t *testing.T) {
	r := New()
	_, err := r.Lookup("frobnicate")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownOperationType))
	assert.Contains(t, err.Error(), `"frobnicate"`)

	var typeErr *UnknownTypeError
	require.True(t, errors.As(err, &typeErr))
	assert.Equal(t, "frobnicate", typeErr.Type)
}

func TestRegister_Panics(t *testing.T) {
	r := New()
	r.RegisterFunc("merge", passthrough)

	assert.PanicsWithValue(t, "operation type 'merge' already registered", func() {
		r.RegisterFunc("merge", passthrough)
	})
	assert.Panics(t, func() { r.RegisterFunc("", passthrough) })
	assert.Panics(t, func() { r.RegisterFunc(operation.TypeWait, passthrough) })
	assert.Panics(t, func() { r.RegisterFunc(operation.TypePipeline, passthrough) })
	assert.Panics(t, func() { r.Register("nil", nil) })
}

func TestValidate(t *testing.T) {
	r := New(&testModule{names: []string{"merge"}})

	ok := operation.Pipeline(
		operation.New("merge", nil, operation.Wait(1)),
		operation.Done(1, operation.New("merge", nil)),
	)
	require.NoError(t, r.Validate(ok))

	bad := operation.Pipeline(
		operation.New("merge", nil, operation.New("frobnicate", nil)),
		operation.New("frobnicate", nil),
		operation.New("explode", nil),
	)
	err := r.Validate(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownOperationType))
	assert.Equal(t,
		"unknown operation type:\n- operation 'frobnicate' at 0.0 is not registered\n- operation 'explode' at 2 is not registered",
		err.Error())
}
