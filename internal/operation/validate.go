package operation

import (
	"fmt"
	"strings"
)

// Problem is a single structural defect found by Validate.
type Problem struct {
	Path    Path
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("at %s: %s", p.Path, p.Message)
}

// ValidationError lists every structural defect of a tree.
type ValidationError struct {
	Problems []Problem
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	lines := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		lines[i] = p.String()
	}
	return fmt.Sprintf("invalid workflow:\n- %s", strings.Join(lines, "\n- "))
}

// Validate checks the structural rules of a tree that do not depend on
// pairing waits with dones: non-empty types, well-formed synchronization ids,
// childless waits, and that no node is reachable twice.
func Validate(root *Operation) error {
	if root == nil {
		return &ValidationError{Problems: []Problem{{Message: "workflow is empty"}}}
	}

	var problems []Problem
	seen := make(map[*Operation]Path)

	Walk(root, func(path Path, op *Operation) bool {
		if first, dup := seen[op]; dup {
			problems = append(problems, Problem{Path: path, Message: fmt.Sprintf("node already appears at %s", first)})
			return false
		}
		seen[op] = path

		if strings.TrimSpace(op.Type) == "" {
			problems = append(problems, Problem{Path: path, Message: "operation type is empty"})
		}
		for i, child := range op.Operations {
			if child == nil {
				problems = append(problems, Problem{Path: path.Child(i), Message: "operation is null"})
			}
		}

		switch op.Type {
		case TypeWait, TypeDone:
			if _, err := op.SyncID(); err != nil {
				problems = append(problems, Problem{Path: path, Message: err.Error()})
			}
			if op.Type == TypeWait && len(op.Operations) > 0 {
				problems = append(problems, Problem{Path: path, Message: "wait operation cannot have child operations; attach them to the matching done"})
			}
		}
		return true
	})

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
