package metrics_test

import (
	"io"
	"net/http/httptest"

	"github.com/specialistvlad/pdfgrid/internal/metrics"
)

// scrape fetches the exposition text served by obs.
func scrape(obs *metrics.Observer) (string, error) {
	rec := httptest.NewRecorder()
	obs.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	return string(body), err
}
