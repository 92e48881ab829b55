// Package remote forwards documents to a PDF processing REST service.
//
// Each registered operation type maps to one endpoint of the service. Inputs
// are sent as multipart "fileInput" parts and the operation's values as form
// fields. Batch endpoints (merge) receive every input in one request; all
// others are called once per input. A zip response is unpacked into one
// buffer per archived file.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/specialistvlad/pdfgrid/internal/ctxlog"
	"github.com/specialistvlad/pdfgrid/internal/operation"
	"github.com/specialistvlad/pdfgrid/internal/pdf"
	"github.com/specialistvlad/pdfgrid/internal/registry"
)

// ErrNotConfigured is returned when an operation runs without a service URL.
var ErrNotConfigured = errors.New("no PDF service configured")

// Endpoint describes how one operation type is served.
type Endpoint struct {
	// Path is joined to the service base URL.
	Path string
	// Batch sends all inputs in a single request.
	Batch bool
}

// DefaultEndpoints maps the built-in operation types to the REST API of a
// Stirling-PDF compatible service.
var DefaultEndpoints = map[string]Endpoint{
	"merge":         {Path: "/api/v1/general/merge-pdfs", Batch: true},
	"split":         {Path: "/api/v1/general/split-pages"},
	"compress":      {Path: "/api/v1/misc/compress-pdf"},
	"rotate":        {Path: "/api/v1/general/rotate-pdf"},
	"watermark":     {Path: "/api/v1/security/add-watermark"},
	"page-numbers":  {Path: "/api/v1/misc/add-page-numbers"},
	"remove-blanks": {Path: "/api/v1/misc/remove-blanks"},
}

// Module implements the registry.Module interface for this package.
type Module struct {
	// BaseURL is the service root, e.g. http://localhost:8080. When empty the
	// operations are still registered but fail with ErrNotConfigured.
	BaseURL string
	// Client is used for every request; nil selects http.DefaultClient.
	Client *http.Client
	// Endpoints overrides or extends DefaultEndpoints.
	Endpoints map[string]Endpoint
}

// Register registers one executor per endpoint.
func (m *Module) Register(r *registry.Registry) {
	endpoints := make(map[string]Endpoint, len(DefaultEndpoints)+len(m.Endpoints))
	for name, ep := range DefaultEndpoints {
		endpoints[name] = ep
	}
	for name, ep := range m.Endpoints {
		endpoints[name] = ep
	}

	names := make([]string, 0, len(endpoints))
	for name := range endpoints {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		r.Register(name, &executor{module: m, opType: name, endpoint: endpoints[name]})
	}
}

// executor serves a single operation type.
type executor struct {
	module   *Module
	opType   string
	endpoint Endpoint
}

// Execute implements registry.Executor.
func (e *executor) Execute(ctx context.Context, inputs []pdf.Buffer, values operation.Values) ([]pdf.Buffer, error) {
	if e.module.BaseURL == "" {
		return nil, fmt.Errorf("%w for operation '%s'", ErrNotConfigured, e.opType)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("operation '%s' received no documents", e.opType)
	}
	target, err := url.JoinPath(e.module.BaseURL, e.endpoint.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid service URL: %w", err)
	}

	client := e.module.Client
	if client == nil {
		client = http.DefaultClient
	}
	logger := ctxlog.FromContext(ctx).With("remote_operation", e.opType, "url", target)

	if e.endpoint.Batch {
		logger.Debug("Sending documents in one request.", "count", len(inputs))
		return call(ctx, client, target, inputs, values)
	}

	var outputs []pdf.Buffer
	for _, in := range inputs {
		logger.Debug("Sending document.", "name", in.Name, "size", in.Size())
		out, err := call(ctx, client, target, []pdf.Buffer{in}, values)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out...)
	}
	return outputs, nil
}

// formFields flattens values into multipart form fields; lists become
// repeated fields.
func formFields(values operation.Values) map[string][]string {
	fields := make(map[string][]string, len(values))
	for _, key := range values.Keys() {
		if !values.Has(key) {
			continue
		}
		fields[key] = values.Strings(key)
	}
	return fields
}

// outputName derives the result name for a non-archive response.
func outputName(inputs []pdf.Buffer) string {
	name := inputs[0].Name
	if name == "" {
		return "output.pdf"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return name
}
