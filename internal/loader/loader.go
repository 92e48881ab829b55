// Package loader decodes workflow files into operation trees.
//
// Two formats are understood, chosen by file extension:
//
//   - HCL (.hcl): nested `operation "<type>" { ... }` blocks.
//   - YAML (.yaml, .yml) and JSON (.json): a document with an `operations`
//     list (`actions` is accepted as an alias) of `{type, id, values,
//     operations}` objects.
//
// The top-level operations of a file become the children of a pipeline
// root, so a file may start several independent branches. A top-level `id`
// on a wait or done is shorthand for `values.id`. HCL expressions may read
// the process environment through the `env` map.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/pdfgrid/internal/ctxlog"
	"github.com/specialistvlad/pdfgrid/internal/operation"
)

// ErrUnsupportedFormat is returned for a workflow file with an unknown
// extension.
var ErrUnsupportedFormat = errors.New("unsupported workflow format")

// Load reads the workflow file at path.
func Load(ctx context.Context, path string) (*operation.Operation, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading workflow.", "path", path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing workflow %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("workflow %s is a directory, expected a file", path)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow %s: %w", path, err)
	}

	root, err := Parse(ctx, path, src)
	if err != nil {
		return nil, err
	}
	logger.Debug("Workflow loaded.", "path", path, "top_level_operations", len(root.Operations))
	return root, nil
}

// Parse decodes src, using filename to pick the format and in messages.
func Parse(ctx context.Context, filename string, src []byte) (*operation.Operation, error) {
	var (
		ops []*operation.Operation
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".hcl":
		ops, err = parseHCL(ctx, filename, src)
	case ".yaml", ".yml", ".json":
		ops, err = parseYAML(ctx, filename, src)
	default:
		return nil, fmt.Errorf("%w: %q (want .hcl, .yaml, .yml or .json)", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return nil, fmt.Errorf("workflow %s defines no operations", filename)
	}
	return operation.Pipeline(ops...), nil
}

// build assembles one node, folding a top-level id into its values.
func build(opType string, id any, values map[string]any, children []*operation.Operation) (*operation.Operation, error) {
	if opType == "" {
		return nil, errors.New("operation type is empty")
	}
	if id != nil {
		if values == nil {
			values = make(map[string]any, 1)
		}
		if prev, ok := values[operation.IDKey]; ok && fmt.Sprint(prev) != fmt.Sprint(id) {
			return nil, fmt.Errorf("operation '%s' sets id twice (%v and %v)", opType, id, prev)
		}
		values[operation.IDKey] = id
	}
	if len(children) == 0 {
		children = nil
	}
	return operation.New(opType, values, children...), nil
}
