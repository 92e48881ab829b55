package loader

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/pdfgrid/internal/ctxlog"
	"github.com/specialistvlad/pdfgrid/internal/operation"
	"github.com/zclconf/go-cty/cty"
)

// hclFile decodes the top-level blocks of a workflow file.
type hclFile struct {
	Operations []*hclOperation `hcl:"operation,block"`
	Remain     hcl.Body        `hcl:",remain"`
}

// hclOperation is one `operation "<type>" { ... }` block.
type hclOperation struct {
	Type       string          `hcl:"type,label"`
	ID         cty.Value       `hcl:"id,optional"`
	Values     cty.Value       `hcl:"values,optional"`
	Operations []*hclOperation `hcl:"operation,block"`
}

func parseHCL(ctx context.Context, filename string, src []byte) ([]*operation.Operation, error) {
	logger := ctxlog.FromContext(ctx)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL workflow %s: %w", filename, diags)
	}

	var root hclFile
	if diags := gohcl.DecodeBody(file.Body, processEnv(), &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL workflow %s: %w", filename, diags)
	}

	attrs, diags := root.Remain.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL workflow %s: %w", filename, diags)
	}
	for name := range attrs {
		logger.Warn("Ignoring top-level attribute in workflow.", "file", filename, "attribute", name)
	}

	return translateHCL(root.Operations)
}

func translateHCL(blocks []*hclOperation) ([]*operation.Operation, error) {
	ops := make([]*operation.Operation, 0, len(blocks))
	for _, b := range blocks {
		op, err := b.translate()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func (b *hclOperation) translate() (*operation.Operation, error) {
	id, err := ctyToNative(b.ID)
	if err != nil {
		return nil, fmt.Errorf("operation '%s' id: %w", b.Type, err)
	}

	var values map[string]any
	if !b.Values.IsNull() {
		if ty := b.Values.Type(); !ty.IsObjectType() && !ty.IsMapType() {
			return nil, fmt.Errorf("operation '%s' values must be an object, got %s", b.Type, ty.FriendlyName())
		}
		native, err := ctyToNative(b.Values)
		if err != nil {
			return nil, fmt.Errorf("operation '%s' values: %w", b.Type, err)
		}
		values = native.(map[string]any)
	}

	children, err := translateHCL(b.Operations)
	if err != nil {
		return nil, err
	}

	return build(b.Type, id, values, children)
}
