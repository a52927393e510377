package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"archviz-studio/internal/gateway"
	"archviz-studio/internal/history"
	"archviz-studio/internal/media"
	"archviz-studio/internal/metrics"
	"archviz-studio/internal/prompt"
	"archviz-studio/internal/studio"
	"archviz-studio/internal/watermark"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\nfake")

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(st *mockStudio) *gin.Engine {
	reg := prometheus.NewRegistry()
	metrics.New(reg).HistoryDropped.Inc()
	return NewRouter(Options{Studio: st, Gatherer: reg})
}

type part struct {
	field, name string
	data        []byte
}

func multipartBody(t *testing.T, values map[string]string, files []part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		h.Set("Content-Type", "application/octet-stream")
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestGenerateMultipart(t *testing.T) {
	st := &mockStudio{record: history.Record{
		ID:          "rec-1",
		Mode:        prompt.ModeExterior,
		Image:       media.Image{Data: []byte("out"), MIMEType: "image/png"},
		Instruction: "compiled",
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}}
	r := newTestRouter(st)

	body, ctype := multipartBody(t,
		map[string]string{
			"settings": `{"styleName":"Watercolor","aspectRatio":"16:9"}`,
			"args":     "view=perspective make it dusk",
		},
		[]part{
			{"image", "base.png", pngMagic},
			{"additional", "a1.png", pngMagic},
			{"additional", "a2.png", pngMagic},
			{"reference", "r.png", pngMagic},
			{"site", "s.png", pngMagic},
		})
	req := httptest.NewRequest(http.MethodPost, "/api/generations", body)
	req.Header.Set("Content-Type", ctype)
	req.Header.Set(headerUserID, "alice")
	req.Header.Set(headerTier, "studio")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp generationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "rec-1", resp.ID)
	assert.Equal(t, "data:image/png;base64,b3V0", resp.Image)

	assert.Equal(t, "alice", st.gotUser)
	assert.Equal(t, watermark.TierStudio, st.gotTier)
	assert.Equal(t, "Watercolor", st.gotReq.StyleName)
	assert.Equal(t, "16:9", st.gotReq.AspectRatio)
	assert.Equal(t, "make it dusk", st.gotReq.AdditionalPrompt)
	assert.Equal(t, "image/png", st.gotReq.BaseImage.MIMEType)
	assert.Len(t, st.gotReq.AdditionalBaseImages, 2)
	assert.Len(t, st.gotReq.ReferenceImages, 1)
	assert.False(t, st.gotReq.SiteImage.IsZero())
	assert.True(t, st.gotReq.Material1Image.IsZero())
}

func TestGenerateDefaultTierAndBadSettings(t *testing.T) {
	st := &mockStudio{}
	r := newTestRouter(st)

	body, ctype := multipartBody(t, map[string]string{"settings": "{"}, []part{{"image", "b.png", pngMagic}})
	req := httptest.NewRequest(http.MethodPost, "/api/generations", body)
	req.Header.Set("Content-Type", ctype)
	req.Header.Set(headerUserID, "alice")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "settings")

	body, ctype = multipartBody(t, nil, []part{{"image", "b.png", pngMagic}})
	req = httptest.NewRequest(http.MethodPost, "/api/generations", body)
	req.Header.Set("Content-Type", ctype)
	req.Header.Set(headerUserID, "alice")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, watermark.TierFree, st.gotTier)
}

func TestGenerateRequiresUser(t *testing.T) {
	r := newTestRouter(&mockStudio{})
	req := httptest.NewRequest(http.MethodPost, "/api/generations", strings.NewReader(""))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGenerateErrorMapping(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		status    int
		retryable *bool
	}{
		{"config", &prompt.ConfigError{Field: "baseImage", Reason: "a base image is required"}, http.StatusBadRequest, nil},
		{"in progress", studio.ErrGenerationInProgress, http.StatusConflict, boolPtr(true)},
		{"transport", &gateway.TransportError{Status: 413, Message: gateway.MessagePayloadTooLarge}, http.StatusBadGateway, boolPtr(true)},
		{"rejected payload", &gateway.TransportError{Status: 400, Message: "generation endpoint error: 400 Bad Request"}, http.StatusBadGateway, boolPtr(false)},
		{"generation failed", &gateway.GenerationFailedError{Status: 200, Message: "blocked"}, http.StatusBadGateway, boolPtr(true)},
		{"network", &gateway.NetworkError{Err: errors.New("dial")}, http.StatusServiceUnavailable, boolPtr(true)},
		{"other", errors.New("boom"), http.StatusInternalServerError, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&mockStudio{err: tc.err})
			body, ctype := multipartBody(t, nil, []part{{"image", "b.png", pngMagic}})
			req := httptest.NewRequest(http.MethodPost, "/api/generations", body)
			req.Header.Set("Content-Type", ctype)
			req.Header.Set(headerUserID, "alice")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			var resp apiError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, tc.retryable, resp.Retryable)
		})
	}
}

func TestPromptPreview(t *testing.T) {
	r := newTestRouter(&mockStudio{})
	body := `{"baseImage":"data:image/png;base64,AAAA","referenceImages":["data:image/png;base64,BBBB"],"styleName":"Nope","viewType":"Isometric"}`
	req := httptest.NewRequest(http.MethodPost, "/api/prompt", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp previewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, prompt.ModeExterior, resp.Mode)
	require.Len(t, resp.Images, 2)
	assert.Equal(t, "Image #1", resp.Images[0].Ref)
	assert.Equal(t, prompt.RoleReference, resp.Images[1].Role)
	assert.Contains(t, resp.Instruction, prompt.ParallelClause)
	assert.Equal(t, []string{`exterior_style:"Nope"`}, resp.Fallbacks)
}

func TestPromptPreviewMissingBase(t *testing.T) {
	r := newTestRouter(&mockStudio{})
	req := httptest.NewRequest(http.MethodPost, "/api/prompt", strings.NewReader(`{"styleName":"Watercolor"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "baseImage")
}

func TestHistoryRoutes(t *testing.T) {
	rec := history.Record{
		ID:     "abc",
		UserID: "alice",
		Mode:   prompt.ModeInterior,
		Image:  media.Image{Data: []byte("x"), MIMEType: "image/png"},
		Request: prompt.Request{
			BaseImage:  media.Image{Data: []byte("b"), MIMEType: "image/png"},
			CreateMode: prompt.CreateInterior,
			StyleName:  "Japandi",
		},
	}
	st := &mockStudio{record: rec, records: []history.Record{rec}}
	r := newTestRouter(st)

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set(headerUserID, "alice")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := get("/api/history?limit=500")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 100, st.gotLimit)
	assert.Contains(t, w.Body.String(), `"id":"abc"`)

	assert.Equal(t, http.StatusBadRequest, get("/api/history?limit=zero").Code)

	w = get("/api/history/abc")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userId":"alice"`)

	w = get("/api/history/abc/restore")
	require.Equal(t, http.StatusOK, w.Code)
	var restored prompt.Request
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &restored))
	assert.Equal(t, rec.Request, restored)

	assert.Equal(t, http.StatusNotFound, get("/api/history/missing").Code)
	assert.Equal(t, http.StatusNotFound, get("/api/history/missing/restore").Code)
}

func TestCatalogHealthAndMetrics(t *testing.T) {
	r := newTestRouter(&mockStudio{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/catalog", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var cat map[string][]optionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cat))
	assert.NotEmpty(t, cat["exterior_style"])
	assert.NotEmpty(t, cat["view"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "archviz_history_dropped_total 1")
}

func boolPtr(b bool) *bool { return &b }
