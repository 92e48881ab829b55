package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/specialistvlad/pdfgrid/internal/ctxlog"
	"github.com/specialistvlad/pdfgrid/internal/pdf"
)

// writeOutputs stores the output documents and returns the written paths,
// one per document (an archive repeats its own path).
//
// Documents go into the output directory as "<n>-<name>". When zip is set or
// the output path ends in .zip and there is more than one document, a single
// archive is written instead; a lone document is never archived.
func writeOutputs(ctx context.Context, outPath string, zipped bool, docs []pdf.Buffer) ([]string, error) {
	logger := ctxlog.FromContext(ctx)
	if len(docs) == 0 {
		logger.Warn("Workflow produced no documents, nothing to write.")
		return nil, nil
	}

	isZipPath := strings.EqualFold(filepath.Ext(outPath), ".zip")
	dir := outPath
	if isZipPath {
		dir = filepath.Dir(outPath)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	names := outputNames(docs)

	if (zipped || isZipPath) && len(docs) > 1 {
		archive := outPath
		if !isZipPath {
			archive = filepath.Join(outPath, "outputs.zip")
		}
		if err := writeZip(archive, names, docs); err != nil {
			return nil, err
		}
		logger.Info("📦 Outputs archived.", "path", archive, "documents", len(docs))
		written := make([]string, len(docs))
		for i := range written {
			written[i] = archive
		}
		return written, nil
	}

	written := make([]string, 0, len(docs))
	for i, doc := range docs {
		p := filepath.Join(dir, names[i])
		if err := os.WriteFile(p, doc.Data, 0o644); err != nil {
			return written, fmt.Errorf("failed to write output %s: %w", p, err)
		}
		logger.Debug("Output written.", "path", p, "size", doc.Size())
		written = append(written, p)
	}
	logger.Info("💾 Outputs written.", "dir", dir, "documents", len(docs))
	return written, nil
}

// outputNames returns "<n>-<name>" for every document, 1-based. Names are
// reduced to their base so no document escapes the output directory.
func outputNames(docs []pdf.Buffer) []string {
	names := make([]string, len(docs))
	for i, doc := range docs {
		base := filepath.Base(filepath.Clean("/" + doc.Name))
		if base == "/" || base == "." {
			base = "output.pdf"
		}
		names[i] = fmt.Sprintf("%d-%s", i+1, base)
	}
	return names
}

func writeZip(path string, names []string, docs []pdf.Buffer) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close archive %s: %w", path, cerr)
		}
	}()

	zw := zip.NewWriter(f)
	for i, doc := range docs {
		w, err := zw.Create(names[i])
		if err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", names[i], err)
		}
		if _, err := w.Write(doc.Data); err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", names[i], err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive %s: %w", path, err)
	}
	return nil
}
