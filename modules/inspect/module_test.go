package inspect

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/specialistvlad/pdfgrid/internal/ctxlog"
	"github.com/specialistvlad/pdfgrid/internal/operation"
	"github.com/specialistvlad/pdfgrid/internal/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnRunInspect_LogsAndPassesThrough(t *testing.T) {
	var logs bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&logs, nil)))
	inputs := []pdf.Buffer{pdf.New("a.pdf", []byte("%PDF-1.7\n")), pdf.New("notes.txt", []byte("hello"))}

	out, err := OnRunInspect(ctx, inputs, operation.Values{"label": "before-merge"})
	require.NoError(t, err)
	assert.Equal(t, inputs, out)

	text := logs.String()
	assert.Contains(t, text, "label=before-merge")
	assert.Contains(t, text, "name=a.pdf")
	assert.Contains(t, text, "digest="+inputs[0].ShortDigest())
	assert.Contains(t, text, "pdf=false")
}

func TestOnRunInspect_Strict(t *testing.T) {
	_, err := OnRunInspect(context.Background(), []pdf.Buffer{pdf.New("notes.txt", []byte("hello"))}, operation.Values{"strict": true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a PDF")

	_, err = OnRunInspect(context.Background(), nil, operation.Values{"strict": "maybe"})
	require.Error(t, err)
}
