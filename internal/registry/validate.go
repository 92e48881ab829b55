package registry

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/pdfgrid/internal/operation"
)

// Validate checks that every non-control operation in root has a registered
// executor. The engine does not require this (unknown types fail only their
// own branch at run time), but callers can use it to reject a workflow
// before touching any document.
func (r *Registry) Validate(root *operation.Operation) error {
	var errs []string
	reported := make(map[string]bool)

	operation.Walk(root, func(path operation.Path, op *operation.Operation) bool {
		if op.IsControl() || reported[op.Type] {
			return true
		}
		if _, err := r.Lookup(op.Type); err != nil {
			reported[op.Type] = true
			errs = append(errs, fmt.Sprintf("operation '%s' at %s is not registered", op.Type, path))
		}
		return true
	})

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n- %s", ErrUnknownOperationType, strings.Join(errs, "\n- "))
	}
	return nil
}
