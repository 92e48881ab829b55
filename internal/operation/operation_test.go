package operation

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSyncID_Normalises(t *testing.T) {
	cases := []struct {
		raw  any
		want SyncID
	}{
		{raw: "merge-point", want: "merge-point"},
		{raw: 1, want: "1"},
		{raw: int64(42), want: "42"},
		{raw: 1.0, want: "1"},
		{raw: 2.5, want: "2.5"},
		{raw: true, want: "true"},
	}
	for _, tc := range cases {
		got, err := NewSyncID(tc.raw)
		require.NoError(t, err, "raw=%v", tc.raw)
		assert.Equal(t, tc.want, got)
	}

	_, err := NewSyncID(map[string]any{"a": 1})
	require.Error(t, err)
	_, err = NewSyncID([]any{1})
	require.Error(t, err)
}

func TestSyncID_Missing(t *testing.T) {
	_, err := New(TypeWait, nil).SyncID()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no 'id' value")

	id, err := Wait(7).SyncID()
	require.NoError(t, err)
	assert.Equal(t, SyncID("7"), id)
}

func TestWalk_DepthFirstOrder(t *testing.T) {
	tree := Pipeline(
		New("a", nil,
			New("b", nil),
			New("c", nil, New("d", nil)),
		),
		New("e", nil),
	)

	var visited []string
	var paths []string
	Walk(tree, func(path Path, op *Operation) bool {
		visited = append(visited, op.Type)
		paths = append(paths, path.String())
		return true
	})

	assert.Equal(t, []string{"pipeline", "a", "b", "c", "d", "e"}, visited)
	assert.Equal(t, []string{"root", "0", "0.0", "0.1", "0.1.0", "1"}, paths)
}

func TestWalk_SkipChildren(t *testing.T) {
	tree := Pipeline(New("a", nil, New("hidden", nil)), New("b", nil))

	var visited []string
	Walk(tree, func(_ Path, op *Operation) bool {
		visited = append(visited, op.Type)
		return op.Type != "a"
	})
	assert.Equal(t, []string{"pipeline", "a", "b"}, visited)
}

func TestPath_ChildDoesNotAlias(t *testing.T) {
	parent := Path{0}
	left := parent.Child(0)
	right := parent.Child(1)

	if diff := cmp.Diff(Path{0, 0}, left); diff != "" {
		t.Errorf("left path mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Path{0, 1}, right); diff != "" {
		t.Errorf("right path mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Path{0}, parent)
}

func TestCompare(t *testing.T) {
	assert.Negative(t, Compare(Path{0}, Path{0, 0}))
	assert.Negative(t, Compare(Path{0, 5}, Path{1}))
	assert.Positive(t, Compare(Path{2}, Path{1, 9}))
	assert.Zero(t, Compare(Path{1, 2}, Path{1, 2}))
}

func TestAt(t *testing.T) {
	target := New("target", nil)
	tree := Pipeline(New("a", nil), New("b", nil, target))

	assert.Same(t, target, At(tree, Path{1, 0}))
	assert.Same(t, tree, At(tree, nil))
	assert.Nil(t, At(tree, Path{3}))
	assert.Nil(t, At(tree, Path{0, 0}))
}

func TestValidate_Valid(t *testing.T) {
	tree := Pipeline(
		New("merge", Values{"x": 1}, Wait(1), Wait(1)),
		Done(1, New("compress", nil)),
	)
	require.NoError(t, Validate(tree))
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	shared := New("shared", nil)
	tree := Pipeline(
		New("", nil),
		New(TypeWait, nil),
		New(TypeDone, Values{IDKey: []any{1, 2}}),
		New(TypeWait, Values{IDKey: "x"}, New("orphan", nil)),
		shared,
		New("holder", nil, shared),
	)

	err := Validate(tree)
	require.Error(t, err)

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	require.Len(t, vErr.Problems, 5)

	assert.Equal(t, Path{0}, vErr.Problems[0].Path)
	assert.Contains(t, vErr.Problems[0].Message, "type is empty")
	assert.Equal(t, Path{1}, vErr.Problems[1].Path)
	assert.Contains(t, vErr.Problems[1].Message, "no 'id' value")
	assert.Equal(t, Path{2}, vErr.Problems[2].Path)
	assert.Contains(t, vErr.Problems[2].Message, "must be a string, number or bool")
	assert.Equal(t, Path{3}, vErr.Problems[3].Path)
	assert.Contains(t, vErr.Problems[3].Message, "cannot have child operations")
	assert.Equal(t, Path{5, 0}, vErr.Problems[4].Path)
	assert.Contains(t, vErr.Problems[4].Message, "already appears at 4")
}

func TestValidate_Cycle(t *testing.T) {
	loop := New("loop", nil)
	loop.Operations = []*Operation{New("inner", nil, loop)}

	err := Validate(Pipeline(loop))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already appears at 0")
}

func TestValidate_Nil(t *testing.T) {
	require.Error(t, Validate(nil))

	err := Validate(Pipeline(New("a", nil), nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at 1: operation is null")
}

func TestValues_Accessors(t *testing.T) {
	v := Values{
		"name":  "report",
		"pages": float64(3),
		"big":   int64(10),
		"flag":  "true",
		"bad":   1.5,
		"list":  []any{"a", 2},
		"nil":   nil,
	}

	assert.Equal(t, "report", v.String("name", ""))
	assert.Equal(t, "3", v.String("pages", ""))
	assert.Equal(t, "fallback", v.String("missing", "fallback"))
	assert.True(t, v.Has("name"))
	assert.False(t, v.Has("nil"))

	n, err := v.Int("pages", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = v.Int("big", 0)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	_, err = v.Int("bad", 0)
	require.Error(t, err)

	b, err := v.Bool("flag", false)
	require.NoError(t, err)
	assert.True(t, b)
	_, err = v.Bool("name", false)
	require.Error(t, err)

	assert.Equal(t, []string{"a", "2"}, v.Strings("list"))
	assert.Equal(t, []string{"report"}, v.Strings("name"))
	assert.Nil(t, v.Strings("missing"))
	assert.Equal(t, []string{"bad", "big", "flag", "list", "name", "nil", "pages"}, v.Keys())
}
