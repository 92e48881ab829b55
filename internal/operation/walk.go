package operation

import (
	"slices"
	"strconv"
	"strings"
)

// Path locates a node by the child index taken at every level below the root.
// The root itself has an empty path.
type Path []int

// Child returns a new path extended by index i. The receiver is not modified,
// so sibling paths never share a backing array.
func (p Path) Child(i int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, i)
}

// String renders the path as dot-separated indices, or "root" when empty.
func (p Path) String() string {
	if len(p) == 0 {
		return "root"
	}
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ".")
}

// Compare orders paths depth-first: a parent sorts before its children and
// children sort by index.
func Compare(a, b Path) int {
	return slices.Compare(a, b)
}

// WalkFunc is called for every node visited by Walk. Returning false skips
// the node's children.
type WalkFunc func(path Path, op *Operation) bool

// Walk visits root and all its descendants depth-first in child order. The
// order is deterministic, which keeps error messages reproducible.
func Walk(root *Operation, fn WalkFunc) {
	walk(nil, root, fn)
}

func walk(path Path, op *Operation, fn WalkFunc) {
	if op == nil || !fn(path, op) {
		return
	}
	for i, child := range op.Operations {
		walk(path.Child(i), child, fn)
	}
}

// At returns the node found at path below root, or nil if the path does not
// exist.
func At(root *Operation, path Path) *Operation {
	node := root
	for _, idx := range path {
		if node == nil || idx < 0 || idx >= len(node.Operations) {
			return nil
		}
		node = node.Operations[idx]
	}
	return node
}
