package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/taxistats/internal/dataset"
	"github.com/jgoulah/taxistats/internal/report"
)

func testReport(t *testing.T, title string) *report.Report {
	t.Helper()
	var b strings.Builder
	b.WriteString("timestamp,value\n")
	start := time.Date(2014, 7, 1, 0, 0, 0, 0, time.UTC)
	for d := 0; d < 28; d++ {
		for h := 0; h < 24; h += 6 {
			fmt.Fprintf(&b, "%s,%d\n", start.AddDate(0, 0, d).Add(time.Duration(h)*time.Hour).Format("2006-01-02 15:04:05"), 1000+(d%7)*100+h*10+(d*13)%17)
		}
	}

	frame, err := dataset.Read(strings.NewReader(b.String()))
	require.NoError(t, err)
	rep, err := report.Build(context.Background(), frame, report.Options{Title: title, Source: "test.csv", Events: []report.Event{}})
	require.NoError(t, err)
	return rep
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestDashboard(t *testing.T) {
	srv, err := New(testReport(t, "Rides"), zerolog.Nop())
	require.NoError(t, err)

	rec := get(t, srv.Handler(), "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<title>Rides</title>")
	assert.Contains(t, rec.Body.String(), "Analysis completed!")
}

func TestSummary(t *testing.T) {
	rep := testReport(t, "Rides")
	srv, err := New(rep, zerolog.Nop())
	require.NoError(t, err)

	rec := get(t, srv.Handler(), "/api/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary report.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, rep.ID, summary.ID)
	assert.Equal(t, 28*4, summary.Rows)
	assert.Equal(t, "test.csv", summary.Source)
}

func TestHealthz(t *testing.T) {
	srv, err := New(testReport(t, "Rides"), zerolog.Nop())
	require.NoError(t, err)

	rec := get(t, srv.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, get(t, srv.Handler(), "/missing").Code)
}

func TestSetReport(t *testing.T) {
	srv, err := New(testReport(t, "First"), zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, srv.SetReport(testReport(t, "Second")))
	assert.Contains(t, get(t, srv.Handler(), "/").Body.String(), "<title>Second</title>")

	assert.Error(t, srv.SetReport(nil))

	_, err = New(nil, zerolog.Nop())
	assert.Error(t, err)
}

func TestMetrics(t *testing.T) {
	srv, err := New(testReport(t, "Rides"), zerolog.Nop())
	require.NoError(t, err)

	get(t, srv.Handler(), "/healthz")
	rec := get(t, srv.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "taxistats_report_rows 112")
	assert.Contains(t, body, `taxistats_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
	assert.Contains(t, body, "taxistats_adf_p_value")
}
