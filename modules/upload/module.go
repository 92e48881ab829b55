package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/specialistvlad/pdfgrid/internal/ctxlog"
	"github.com/specialistvlad/pdfgrid/internal/operation"
	"github.com/specialistvlad/pdfgrid/internal/pdf"
	"github.com/specialistvlad/pdfgrid/internal/registry"
	"github.com/specialistvlad/pdfgrid/modules/http_client"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Client is used for every upload; nil selects a default client.
	Client *http.Client
}

// Execute PUTs every input to a pre-signed URL and passes the inputs through.
// values.upload_url is either one URL for a single input or a list matched to
// the inputs by index.
func (m *Module) Execute(ctx context.Context, inputs []pdf.Buffer, values operation.Values) ([]pdf.Buffer, error) {
	urls := values.Strings("upload_url")
	if len(urls) == 0 {
		return nil, fmt.Errorf("upload requires 'upload_url'")
	}
	if len(urls) != len(inputs) {
		return nil, fmt.Errorf("upload has %d url(s) for %d document(s)", len(urls), len(inputs))
	}

	client := m.Client
	if client == nil {
		client = http.DefaultClient
	}
	contentType := values.String("content_type", "application/pdf")

	for i, b := range inputs {
		if err := put(ctx, client, urls[i], contentType, b); err != nil {
			return nil, fmt.Errorf("upload of %s: %w", b.Name, err)
		}
	}
	return inputs, nil
}

// put contains the logic for uploading one buffer to a pre-signed URL.
func put(ctx context.Context, client *http.Client, url, contentType string, b pdf.Buffer) error {
	logger := ctxlog.FromContext(ctx).With("action", "upload")

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(b.Data))
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(b.Size())

	logger.Info("Uploading document", "name", b.Name, "size", b.Size(), "digest", b.ShortDigest())

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute upload request: %w", err)
	}
	defer resp.Body.Close()

	if err := http_client.CheckResponse(resp); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	logger.Info("Successfully uploaded document", "name", b.Name, "status", resp.Status)
	return nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register("upload", m)
}
