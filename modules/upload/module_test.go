package upload

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/specialistvlad/pdfgrid/internal/operation"
	"github.com/specialistvlad/pdfgrid/internal/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	Path        string
	ContentType string
	Body        string
}

func newBucket(t *testing.T, status int) (*httptest.Server, func() []received) {
	t.Helper()
	var (
		mu  sync.Mutex
		got []received
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			http.Error(w, "want PUT", http.StatusMethodNotAllowed)
			return
		}
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		got = append(got, received{Path: r.URL.Path, ContentType: r.Header.Get("Content-Type"), Body: string(body)})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []received {
		mu.Lock()
		defer mu.Unlock()
		return append([]received(nil), got...)
	}
}

func TestExecute_UploadsEachDocumentToItsURL(t *testing.T) {
	srv, got := newBucket(t, http.StatusOK)
	inputs := []pdf.Buffer{pdf.New("a.pdf", []byte("A")), pdf.New("b.pdf", []byte("B"))}

	out, err := (&Module{}).Execute(context.Background(), inputs, operation.Values{
		"upload_url": []any{srv.URL + "/bucket/a", srv.URL + "/bucket/b"},
	})
	require.NoError(t, err)
	assert.Equal(t, inputs, out)
	assert.Equal(t, []received{
		{Path: "/bucket/a", ContentType: "application/pdf", Body: "A"},
		{Path: "/bucket/b", ContentType: "application/pdf", Body: "B"},
	}, got())
}

func TestExecute_SingleURL(t *testing.T) {
	srv, got := newBucket(t, http.StatusCreated)
	_, err := (&Module{}).Execute(context.Background(), []pdf.Buffer{pdf.New("a.pdf", []byte("A"))}, operation.Values{
		"upload_url": srv.URL + "/one",
	})
	require.NoError(t, err)
	assert.Len(t, got(), 1)
}

func TestExecute_Errors(t *testing.T) {
	srv, _ := newBucket(t, http.StatusForbidden)
	inputs := []pdf.Buffer{pdf.New("a.pdf", []byte("A"))}

	tests := []struct {
		name     string
		values   operation.Values
		contains string
	}{
		{"missing url", nil, "requires 'upload_url'"},
		{"url count mismatch", operation.Values{"upload_url": []any{"http://x/1", "http://x/2"}}, "2 url(s) for 1 document(s)"},
		{"rejected", operation.Values{"upload_url": srv.URL}, "403 Forbidden"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&Module{}).Execute(context.Background(), inputs, tt.values)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}
