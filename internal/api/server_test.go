package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redcreates/qms/internal/adminlog"
	"github.com/redcreates/qms/internal/classifier"
	"github.com/redcreates/qms/internal/config"
	"github.com/redcreates/qms/internal/drive"
	"github.com/redcreates/qms/internal/imagelib"
	"github.com/redcreates/qms/internal/parse"
	"github.com/redcreates/qms/internal/qbank"
	"github.com/redcreates/qms/internal/store"
)

// stubMeta keeps image metadata local so no HTTP probes leave the test.
type stubMeta struct{}

func (stubMeta) FileIdentity(url string) string { return drive.FileIdentity(url) }

func (stubMeta) EnsureViewable(url string) error { return nil }

func (stubMeta) RenderPreview(url string) (string, error) { return url, nil }

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.Default()
	clf := classifier.New(cfg)
	parser := parse.New(cfg, clf, log)

	tab := store.NewMemory()
	bank, err := qbank.New(tab)
	require.NoError(t, err)
	images, err := imagelib.New(tab, bank, stubMeta{}, log)
	require.NoError(t, err)
	alog, err := adminlog.New(tab, "Tye", log)
	require.NoError(t, err)

	return New(parser, bank, images, alog, clf, ":0", log).Routes()
}

func do(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

const sampleTranscript = "Lois — 3/1/2024\nDay 1 Question #1 What are the 4 main banking transactions?"

func parseSample(t *testing.T, e *echo.Echo) {
	t.Helper()
	body, err := json.Marshal(map[string]string{"transcript": sampleTranscript})
	require.NoError(t, err)
	rec := do(t, e, http.MethodPost, "/v1/parse", string(body))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth(t *testing.T) {
	e := newTestServer(t)
	rec := do(t, e, http.MethodGet, "/v1/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestParseEndpoint(t *testing.T) {
	e := newTestServer(t)

	body, err := json.Marshal(map[string]string{"transcript": sampleTranscript})
	require.NoError(t, err)
	rec := do(t, e, http.MethodPost, "/v1/parse", string(body))
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, float64(1), out["emitted"])
	assert.Equal(t, float64(0), out["duplicates"])
	assert.NotEmpty(t, out["run_id"])
}

func TestParseEndpointRequiresTranscript(t *testing.T) {
	e := newTestServer(t)
	rec := do(t, e, http.MethodPost, "/v1/parse", `{"transcript": "  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "transcript")
}

func TestListQuestions(t *testing.T) {
	e := newTestServer(t)
	parseSample(t, e)

	rec := do(t, e, http.MethodGet, "/v1/questions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, float64(1), out["count"])
}

func TestListPendingQuestions(t *testing.T) {
	e := newTestServer(t)
	parseSample(t, e)

	// The sample classifies cleanly, so nothing is pending.
	rec := do(t, e, http.MethodGet, "/v1/questions?pending=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decode(t, rec)["count"])
}

func TestGetQuestion(t *testing.T) {
	e := newTestServer(t)
	parseSample(t, e)

	rec := do(t, e, http.MethodGet, "/v1/questions/S1D01Q01A02", "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "S1D01Q01A02", out["id"])
	assert.Equal(t, "QBO", out["topic"])
}

func TestGetQuestionNotFound(t *testing.T) {
	e := newTestServer(t)
	rec := do(t, e, http.MethodGet, "/v1/questions/S1D99Q99A00", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEditQuestion(t *testing.T) {
	e := newTestServer(t)
	parseSample(t, e)

	rec := do(t, e, http.MethodPut, "/v1/questions/S1D01Q01A02", `{"text": "Which formula sums a cell range"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, "Which formula sums a cell range?", out["text"])
	// Re-classified from the new text.
	assert.Equal(t, "Excel", out["topic"])
	assert.Equal(t, true, out["is_edited"])
}

func TestEditQuestionRequiresText(t *testing.T) {
	e := newTestServer(t)
	parseSample(t, e)

	rec := do(t, e, http.MethodPut, "/v1/questions/S1D01Q01A02", `{"text": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveAndRestoreQuestion(t *testing.T) {
	e := newTestServer(t)
	parseSample(t, e)

	rec := do(t, e, http.MethodPost, "/v1/questions/S1D01Q01A02/remove", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Removed", decode(t, rec)["status"])

	rec = do(t, e, http.MethodPost, "/v1/questions/S1D01Q01A02/restore", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Restored", decode(t, rec)["status"])
}

func TestOverrideTopic(t *testing.T) {
	e := newTestServer(t)
	parseSample(t, e)

	rec := do(t, e, http.MethodPost, "/v1/questions/S1D01Q01A02/override", `{"topic": "excel"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, "Excel", out["topic"])
	assert.Equal(t, "📊", out["topic_emoji"])
	assert.Equal(t, false, out["needs_review"])
}

func TestOverrideUnknownTopic(t *testing.T) {
	e := newTestServer(t)
	parseSample(t, e)

	rec := do(t, e, http.MethodPost, "/v1/questions/S1D01Q01A02/override", `{"topic": "Astrology"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveQuestionNotFound(t *testing.T) {
	e := newTestServer(t)
	rec := do(t, e, http.MethodPost, "/v1/questions/S1D99Q99A00/remove", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegisterImageEndpoint(t *testing.T) {
	e := newTestServer(t)
	parseSample(t, e)

	rec := do(t, e, http.MethodPost, "/v1/images",
		`{"url": "https://drive.google.com/file/d/ABC/view", "question_id": "S1D01Q01A02"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "registered", decode(t, rec)["status"])
}

func TestRegisterImageUnknownQuestion(t *testing.T) {
	e := newTestServer(t)
	rec := do(t, e, http.MethodPost, "/v1/images",
		`{"url": "https://drive.google.com/file/d/ABC/view", "question_id": "S1D99Q99A00"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegisterImageRequiresFields(t *testing.T) {
	e := newTestServer(t)
	rec := do(t, e, http.MethodPost, "/v1/images", `{"url": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStats(t *testing.T) {
	e := newTestServer(t)
	parseSample(t, e)

	rec := do(t, e, http.MethodGet, "/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	rollup, ok := out["rollup"].(map[string]any)
	require.True(t, ok)
	// The parse run itself is the one logged action so far.
	assert.Equal(t, float64(1), rollup["today_count"])
	assert.Equal(t, float64(1), rollup["distinct_admins"])

	dashboard, ok := out["dashboard"].([]any)
	require.True(t, ok)
	assert.Len(t, dashboard, 4)
}
