package ui

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gobias/app"
	"gobias/domain/cohort"
)

func writeDemoCSV(t *testing.T) string {
	t.Helper()
	var b bytes.Buffer
	b.WriteString("id,ethnicity,result\n")
	write := func(group, result string, count int) {
		for i := 0; i < count; i++ {
			b.WriteString(group + result + string(rune('a'+i)) + "," + group + "," + result + "\n")
		}
	}
	write("A", "yes", 12)
	write("A", "no", 8)
	write("B", "yes", 5)
	write("B", "no", 15)

	path := filepath.Join(t.TempDir(), "demo.csv")
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0o644))
	return path
}

func postJSON(t *testing.T, handler http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer().Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestAnalyzeEndpoint(t *testing.T) {
	server := NewServer()
	rec := postJSON(t, server.Router(), "/api/analyze", AnalyzeRequest{
		TablePath: writeDemoCSV(t),
		Request: app.Request{
			Mode:      app.Mode2x2,
			GroupCol:  "ethnicity",
			Exposed:   "A",
			Unexposed: "B",
			Outcome:   cohort.OutcomeRule{Col: "result", Positive: "yes"},
			Yates:     true,
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var rep app.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	require.NotNil(t, rep.Table)
	assert.Equal(t, 12, rep.Table.A)
	require.NotNil(t, rep.Metrics)
}

func TestAnalyzeRejectsInputErrors(t *testing.T) {
	server := NewServer()
	rec := postJSON(t, server.Router(), "/api/analyze", AnalyzeRequest{
		TablePath: writeDemoCSV(t),
		Request: app.Request{
			Mode:      app.Mode2x2,
			GroupCol:  "nope",
			Exposed:   "A",
			Unexposed: "B",
			Outcome:   cohort.OutcomeRule{Col: "result", Positive: "yes"},
		},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestAnalyzeRejectsBadBody(t *testing.T) {
	server := NewServer()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSweepEndpoint(t *testing.T) {
	server := NewServer()
	rec := postJSON(t, server.Router(), "/api/sweep", SweepEnvelope{
		TablePath: writeDemoCSV(t),
		Request: app.SweepRequest{
			Base: app.Request{
				Mode:     app.Mode2x2,
				GroupCol: "ethnicity",
				Outcome:  cohort.OutcomeRule{Col: "result", Positive: "yes"},
			},
			Pairs: []app.GroupPair{{Exposed: "A", Unexposed: "B"}},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var result app.SweepResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Reports, 1)
}

func TestReportEndpoint(t *testing.T) {
	server := NewServer()
	rec := postJSON(t, server.Router(), "/api/report", AnalyzeRequest{
		TablePath: writeDemoCSV(t),
		Request: app.Request{
			Mode:      app.Mode2x2,
			GroupCol:  "ethnicity",
			Exposed:   "A",
			Unexposed: "B",
			Outcome:   cohort.OutcomeRule{Col: "result", Positive: "yes"},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Contingency table")
}
