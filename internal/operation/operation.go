package operation

import (
	"fmt"
	"strconv"
)

// Reserved control types.
const (
	TypePipeline = "pipeline"
	TypeWait     = "wait"
	TypeDone     = "done"
)

// IDKey is the reserved values key pairing a wait with its done.
const IDKey = "id"

// Operation is a single node of a workflow tree.
type Operation struct {
	// Type selects the behavior: a registered primitive or a control type.
	Type string
	// Values holds type-specific parameters, passed through untouched to the
	// primitive's executor.
	Values Values
	// Operations are the ordered child nodes.
	Operations []*Operation
}

// New creates an operation node.
func New(opType string, values Values, children ...*Operation) *Operation {
	return &Operation{Type: opType, Values: values, Operations: children}
}

// Pipeline creates a pass-through container around children.
func Pipeline(children ...*Operation) *Operation {
	return New(TypePipeline, nil, children...)
}

// Wait creates a synchronization arrival point for id.
func Wait(id any) *Operation {
	return New(TypeWait, Values{IDKey: id})
}

// Done creates the resume point for id; children run with the accumulated inputs.
func Done(id any, children ...*Operation) *Operation {
	return New(TypeDone, Values{IDKey: id}, children...)
}

// IsControl reports whether the node is one of the reserved control types.
func (o *Operation) IsControl() bool {
	return IsReserved(o.Type)
}

// IsReserved reports whether opType is a reserved control type name.
func IsReserved(opType string) bool {
	switch opType {
	case TypePipeline, TypeWait, TypeDone:
		return true
	}
	return false
}

// SyncID returns the synchronization id of a wait or done node.
func (o *Operation) SyncID() (SyncID, error) {
	raw, ok := o.Values[IDKey]
	if !ok || raw == nil {
		return "", fmt.Errorf("%s operation has no '%s' value", o.Type, IDKey)
	}
	return NewSyncID(raw)
}

// String implements fmt.Stringer.
func (o *Operation) String() string {
	if o.Type == TypeWait || o.Type == TypeDone {
		if id, err := o.SyncID(); err == nil {
			return fmt.Sprintf("%s(id=%s)", o.Type, id)
		}
	}
	return o.Type
}

// SyncID is the canonical form of a wait/done id. Ids may be any scalar in
// the workflow definition; 1, 1.0 and "1" all normalise to "1".
type SyncID string

// NewSyncID normalises a raw id value.
func NewSyncID(raw any) (SyncID, error) {
	switch v := raw.(type) {
	case string:
		return SyncID(v), nil
	case bool:
		return SyncID(strconv.FormatBool(v)), nil
	case int:
		return SyncID(strconv.Itoa(v)), nil
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return SyncID(fmt.Sprintf("%d", v)), nil
	case float32:
		return SyncID(strconv.FormatFloat(float64(v), 'f', -1, 32)), nil
	case float64:
		return SyncID(strconv.FormatFloat(v, 'f', -1, 64)), nil
	case fmt.Stringer:
		return SyncID(v.String()), nil
	default:
		return "", fmt.Errorf("'%s' must be a string, number or bool, got %T", IDKey, raw)
	}
}
