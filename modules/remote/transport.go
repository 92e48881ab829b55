package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"sort"

	"github.com/klauspost/compress/zip"
	"github.com/specialistvlad/pdfgrid/internal/ctxlog"
	"github.com/specialistvlad/pdfgrid/internal/operation"
	"github.com/specialistvlad/pdfgrid/internal/pdf"
	"github.com/specialistvlad/pdfgrid/modules/http_client"
)

// zipMagic is the local file header signature of a zip archive.
var zipMagic = []byte("PK\x03\x04")

// call performs one multipart request and decodes the response documents.
func call(ctx context.Context, client *http.Client, target string, inputs []pdf.Buffer, values operation.Values) ([]pdf.Buffer, error) {
	logger := ctxlog.FromContext(ctx)

	body, contentType, err := encodeRequest(inputs, values)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/pdf, application/zip, application/octet-stream")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := http_client.CheckResponse(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	logger.Debug("Received service response", "status", resp.Status, "bytes", len(data), "content_type", resp.Header.Get("Content-Type"))

	if isZip(resp.Header.Get("Content-Type"), data) {
		return unzip(data)
	}
	return []pdf.Buffer{pdf.New(outputName(inputs), data)}, nil
}

func encodeRequest(inputs []pdf.Buffer, values operation.Values) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	for i, in := range inputs {
		name := in.Name
		if name == "" {
			name = fmt.Sprintf("document-%d.pdf", i+1)
		}
		part, err := w.CreateFormFile("fileInput", name)
		if err != nil {
			return nil, "", fmt.Errorf("failed to add document %s: %w", name, err)
		}
		if _, err := part.Write(in.Data); err != nil {
			return nil, "", fmt.Errorf("failed to add document %s: %w", name, err)
		}
	}

	fields := formFields(values)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range fields[k] {
			if err := w.WriteField(k, v); err != nil {
				return nil, "", fmt.Errorf("failed to add field %s: %w", k, err)
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return &body, w.FormDataContentType(), nil
}

func isZip(contentType string, data []byte) bool {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "application/zip", "application/x-zip-compressed":
			return true
		}
	}
	return bytes.HasPrefix(data, zipMagic)
}

// unzip returns the regular files of an archive in archive order.
func unzip(data []byte) ([]pdf.Buffer, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open zip response: %w", err)
	}

	var out []pdf.Buffer
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s in zip response: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s in zip response: %w", f.Name, err)
		}
		out = append(out, pdf.New(path.Base(f.Name), content))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("zip response contains no documents")
	}
	return out, nil
}
