package inspect

import (
	"context"
	"fmt"

	"github.com/specialistvlad/pdfgrid/internal/ctxlog"
	"github.com/specialistvlad/pdfgrid/internal/operation"
	"github.com/specialistvlad/pdfgrid/internal/pdf"
	"github.com/specialistvlad/pdfgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// OnRunInspect logs every input document and passes them through unchanged.
// With values.strict set, a buffer that does not start with a PDF header
// fails the operation.
func OnRunInspect(ctx context.Context, inputs []pdf.Buffer, values operation.Values) ([]pdf.Buffer, error) {
	strict, err := values.Bool("strict", false)
	if err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx).With("label", values.String("label", ""))
	logger.Info("Inspecting documents", "count", len(inputs))

	for i, b := range inputs {
		logger.Info("Document",
			"index", i,
			"name", b.Name,
			"size", b.Size(),
			"digest", b.ShortDigest(),
			"pdf", b.IsPDF(),
		)
		if strict && !b.IsPDF() {
			return nil, fmt.Errorf("document %d (%s) is not a PDF", i, b.Name)
		}
	}
	return inputs, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFunc("inspect", OnRunInspect)
}
