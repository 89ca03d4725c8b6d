package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erd/config"
	"erd/layout"
	"erd/metrics"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	face, err := cfg.Face()
	require.NoError(t, err)
	return New(cfg, Deps{Layouter: layout.New(face, cfg.EngineConfig())})
}

func post(t *testing.T, r http.Handler, path, text string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]string{"text": text})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	w := get(r, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestParse(t *testing.T) {
	r := newTestRouter(t)

	w := post(t, r, "/api/parse", "entity Employee (id pk, Name) EW")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["isEntity"])
	assert.Equal(t, "Employee", body["name"])
	assert.Len(t, body["attributes"], 2)
}

func TestParseSyntaxError(t *testing.T) {
	r := newTestRouter(t)

	w := post(t, r, "/api/parse", "entity Employee (Name")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "parenthesis", body["rule"])
	assert.Contains(t, body["error"], "syntax error")
}

func TestParseRejectsBadRequests(t *testing.T) {
	r := newTestRouter(t)

	w := post(t, r, "/api/parse", "   ")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/parse", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLayoutScript(t *testing.T) {
	r := newTestRouter(t)

	script := "# staff\nentity Employee (id pk, Name)\n\nrelation Works_On (Hours)\n"
	w := post(t, r, "/api/layout", script)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp layoutResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Document.Placements, 2)
	assert.Equal(t, "Employee", resp.Document.Placements[0].Title)
	assert.Equal(t, "Works_On", resp.Document.Placements[1].Title)
	assert.Equal(t, resp.Document.Placements[1].ID, resp.Document.Selected)
	assert.Less(t, resp.Document.Placements[0].Offset.Y, resp.Document.Placements[1].Offset.Y)
	assert.NotNil(t, resp.Issues)
}

func postJSON(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLayoutDescriptions(t *testing.T) {
	r := newTestRouter(t)

	w := postJSON(t, r, "/api/layout", map[string]any{
		"text": "entity Employee (ssn pk, name)",
		"descriptions": []any{
			map[string]any{"isEntity": false, "name": "Works_On", "attributes": []any{map[string]any{"name": "Hours"}}, "style": []any{[]string{"N", "1N"}, []string{"S", "MN"}}},
			map[string]any{"isEntity": true, "name": "Project", "attributes": []any{map[string]any{"name": "number", "isKey": true}}, "style": "E"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp layoutResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Document.Placements, 3)
	assert.Equal(t, "Employee", resp.Document.Placements[0].Title)
	assert.Equal(t, "Works_On", resp.Document.Placements[1].Title)
	assert.Equal(t, "Project", resp.Document.Placements[2].Title)
	assert.Equal(t, resp.Document.Placements[2].ID, resp.Document.Selected)
}

func TestLayoutRejectsDescriptions(t *testing.T) {
	r := newTestRouter(t)

	w := postJSON(t, r, "/api/layout", map[string]any{
		"descriptions": []any{map[string]any{"name": "NoKind"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "descriptions[0]")

	w = postJSON(t, r, "/api/layout", map[string]any{"descriptions": []any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLayoutReportsLine(t *testing.T) {
	r := newTestRouter(t)

	w := post(t, r, "/api/layout", "entity A (x)\nentity B (y) QQ\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Contains(t, body["error"], "line 2")
	assert.Equal(t, "style", body["rule"])
}

func TestRender(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		format      string
		contentType string
		contains    string
	}{
		{"ascii", "text/plain; charset=utf-8", "Employee"},
		{"json", "application/json", `"placements"`},
		{"svg", "image/svg+xml", "<svg"},
		{"drawio", "application/xml", "<mxfile"},
		{"png", "image/png", "PNG"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			w := post(t, r, "/api/render?format="+tt.format, "entity Employee (id pk, Name)")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}
}

func TestRenderDefaultsToConfiguredFormat(t *testing.T) {
	r := newTestRouter(t)

	w := post(t, r, "/api/render", "entity Employee (Name)")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
}

func TestRenderErrors(t *testing.T) {
	r := newTestRouter(t)

	w := post(t, r, "/api/render?format=bmp", "entity Employee (Name)")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(t, r, "/api/render?format=svg", "# only a comment")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestFormatsAndFonts(t *testing.T) {
	r := newTestRouter(t)

	w := get(r, "/api/formats")
	require.Equal(t, http.StatusOK, w.Code)
	var formats []formatInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &formats))
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"ascii", "json", "svg", "drawio", "png"}, names)

	w = get(r, "/api/fonts")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, metrics.DefaultFont, body["default"])
	assert.Contains(t, body["fonts"], metrics.DefaultFont)
}
