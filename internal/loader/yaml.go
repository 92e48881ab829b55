package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/specialistvlad/pdfgrid/internal/ctxlog"
	"github.com/specialistvlad/pdfgrid/internal/operation"
	"gopkg.in/yaml.v3"
)

// yamlWorkflow is the document root of a YAML or JSON workflow.
type yamlWorkflow struct {
	Name       string           `yaml:"name"`
	Operations []*yamlOperation `yaml:"operations"`
	Actions    []*yamlOperation `yaml:"actions"`
}

type yamlOperation struct {
	Type       string           `yaml:"type"`
	ID         any              `yaml:"id"`
	Values     map[string]any   `yaml:"values"`
	Operations []*yamlOperation `yaml:"operations"`
	Actions    []*yamlOperation `yaml:"actions"`
}

func (o *yamlOperation) children() ([]*yamlOperation, error) {
	if len(o.Operations) > 0 && len(o.Actions) > 0 {
		return nil, fmt.Errorf("operation '%s' sets both operations and actions", o.Type)
	}
	return append(o.Operations, o.Actions...), nil
}

func parseYAML(ctx context.Context, filename string, src []byte) ([]*operation.Operation, error) {
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)

	var doc yamlWorkflow
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("workflow %s is empty", filename)
		}
		return nil, fmt.Errorf("failed to decode workflow %s: %w", filename, err)
	}
	if len(doc.Operations) > 0 && len(doc.Actions) > 0 {
		return nil, fmt.Errorf("workflow %s sets both operations and actions", filename)
	}
	if doc.Name != "" {
		ctxlog.FromContext(ctx).Debug("Decoded workflow document.", "file", filename, "name", doc.Name)
	}

	return translateYAML(append(doc.Operations, doc.Actions...))
}

func translateYAML(items []*yamlOperation) ([]*operation.Operation, error) {
	ops := make([]*operation.Operation, 0, len(items))
	for i, item := range items {
		if item == nil {
			return nil, fmt.Errorf("operation %d is null", i)
		}
		kids, err := item.children()
		if err != nil {
			return nil, err
		}
		children, err := translateYAML(kids)
		if err != nil {
			return nil, err
		}
		op, err := build(item.Type, item.ID, item.Values, children)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}
