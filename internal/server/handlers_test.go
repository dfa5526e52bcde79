package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/idscan/internal/catalog"
	"github.com/MeKo-Tech/idscan/internal/config"
	"github.com/MeKo-Tech/idscan/internal/extraction"
	"github.com/MeKo-Tech/idscan/internal/pipeline"
)

type fakePipeline struct {
	result      *pipeline.Result
	pdfResult   *pipeline.PDFResult
	err         error
	cat         *catalog.Catalog
	corrections map[string]string
	closed      bool
}

func (f *fakePipeline) Process(ctx context.Context, img image.Image) (*pipeline.Result, error) {
	return f.result, f.err
}

func (f *fakePipeline) ProcessPDF(ctx context.Context, filename, pageRange string) (*pipeline.PDFResult, error) {
	return f.pdfResult, f.err
}

func (f *fakePipeline) ApplyCorrections(res *pipeline.Result, corrections map[string]string) {
	f.corrections = corrections
}

func (f *fakePipeline) Catalog() *catalog.Catalog { return f.cat }
func (f *fakePipeline) Engines() []string         { return []string{"tesseract"} }
func (f *fakePipeline) Config() pipeline.Config   { return pipeline.DefaultConfig() }
func (f *fakePipeline) Info() map[string]any      { return map[string]any{"engines": []string{"tesseract"}} }
func (f *fakePipeline) Close() error              { f.closed = true; return nil }

func extractedResult() *pipeline.Result {
	return &pipeline.Result{
		Fields: []extraction.FieldEntry{
			{Key: "fullName", Value: "JOHN SMITH", Confidence: 0.9, Zone: extraction.ZoneHigh, FormatValid: true},
		},
		ExtractedFields: map[string]string{"fullName": "JOHN SMITH"},
		Confidence:      map[string]float64{"fullName": 0.9},
		ConfidenceZone:  map[string]extraction.Zone{"fullName": extraction.ZoneHigh},
	}
}

func newTestServer(t *testing.T, fake *fakePipeline) *httptest.Server {
	t.Helper()
	if fake.cat == nil {
		fake.cat = catalog.Default()
	}
	srv := newServer(fake, config.DefaultConfig().Server, slog.New(slog.DiscardHandler))
	mux := http.NewServeMux()
	srv.SetupRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 20, 20))))
	return buf.Bytes()
}

func multipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestHealthHandler(t *testing.T) {
	ts := newTestServer(t, &fakePipeline{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.NotEmpty(t, health.Time)
}

func TestHealthRejectsPost(t *testing.T) {
	ts := newTestServer(t, &fakePipeline{})
	resp, err := http.Post(ts.URL+"/health", "text/plain", strings.NewReader(""))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestEnginesHandler(t *testing.T) {
	ts := newTestServer(t, &fakePipeline{})
	resp, err := http.Get(ts.URL + "/engines")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var engines EnginesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&engines))
	assert.Equal(t, []string{"tesseract"}, engines.Engines)
	assert.Equal(t, 1, engines.Count)
}

func TestExtractImage(t *testing.T) {
	ts := newTestServer(t, &fakePipeline{result: extractedResult()})

	body, contentType := multipartUpload(t, "scan.png", pngBytes(t), nil)
	resp, err := http.Post(ts.URL+"/extract", contentType, body)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out ExtractResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
	require.NotNil(t, out.Result)
	assert.Equal(t, "JOHN SMITH", out.Result.ExtractedFields["fullName"])
	assert.Nil(t, out.Verification)
}

func TestExtractImageWithReference(t *testing.T) {
	ts := newTestServer(t, &fakePipeline{result: extractedResult()})

	body, contentType := multipartUpload(t, "scan.png", pngBytes(t), map[string]string{
		"reference": `{"fullName": "John Smith"}`,
	})
	resp, err := http.Post(ts.URL+"/extract", contentType, body)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var out ExtractResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotNil(t, out.Verification)
	assert.Equal(t, "PASS", string(out.Verification.OverallStatus))
}

func TestExtractImageAppliesCorrections(t *testing.T) {
	fake := &fakePipeline{result: extractedResult()}
	ts := newTestServer(t, fake)

	body, contentType := multipartUpload(t, "scan.png", pngBytes(t), map[string]string{
		"corrections": `{"fullName": "JANE SMITH"}`,
	})
	resp, err := http.Post(ts.URL+"/extract", contentType, body)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]string{"fullName": "JANE SMITH"}, fake.corrections)
}

func TestExtractMissingFile(t *testing.T) {
	ts := newTestServer(t, &fakePipeline{result: extractedResult()})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("pages", "1"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/extract", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExtractBadImage(t *testing.T) {
	ts := newTestServer(t, &fakePipeline{result: extractedResult()})

	body, contentType := multipartUpload(t, "scan.png", []byte("not an image"), nil)
	resp, err := http.Post(ts.URL+"/extract", contentType, body)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExtractAllEnginesFailed(t *testing.T) {
	ts := newTestServer(t, &fakePipeline{
		result: &pipeline.Result{Failed: true},
		err:    pipeline.ErrAllEnginesFailed,
	})

	body, contentType := multipartUpload(t, "scan.png", pngBytes(t), nil)
	resp, err := http.Post(ts.URL+"/extract", contentType, body)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var out ExtractResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "all engines failed")
}

func TestExtractPDF(t *testing.T) {
	fake := &fakePipeline{pdfResult: &pipeline.PDFResult{
		TotalPages: 1,
		Pages:      []pipeline.Result{*extractedResult()},
	}}
	ts := newTestServer(t, fake)

	body, contentType := multipartUpload(t, "doc.pdf", []byte("%PDF-1.4 fake"), map[string]string{"pages": "1"})
	resp, err := http.Post(ts.URL+"/extract", contentType, body)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out ExtractResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotNil(t, out.PDF)
	assert.Equal(t, "doc.pdf", out.PDF.Filename)
	assert.Len(t, out.PDF.Pages, 1)
}

func TestVerifyHandler(t *testing.T) {
	ts := newTestServer(t, &fakePipeline{})

	reqBody := `{"extracted": {"fullName": "John Smith"}, "reference": {"fullName": "John Smith"}}`
	resp, err := http.Post(ts.URL+"/verify", "application/json", strings.NewReader(reqBody))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out VerifyResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotNil(t, out.Report)
	assert.Equal(t, "PASS", string(out.Report.OverallStatus))
}

func TestVerifyHandlerEmptyBody(t *testing.T) {
	ts := newTestServer(t, &fakePipeline{})
	resp, err := http.Post(ts.URL+"/verify", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQualityHandler(t *testing.T) {
	ts := newTestServer(t, &fakePipeline{})

	body, contentType := multipartUpload(t, "scan.png", pngBytes(t), nil)
	resp, err := http.Post(ts.URL+"/quality", contentType, body)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, true, out["success"])
	assert.Contains(t, out, "report")
	assert.Contains(t, out, "decision")
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, &fakePipeline{})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/extract", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Methods"))
}

func TestWebSocketExtract(t *testing.T) {
	ts := newTestServer(t, &fakePipeline{result: extractedResult()})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/extract"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = conn.Close() }()

	req := wsExtractRequest{Type: "extract", Image: pngBytes(t)}
	require.NoError(t, conn.WriteJSON(req))

	var last wsExtractResponse
	for range 3 {
		var msg wsExtractResponse
		require.NoError(t, conn.ReadJSON(&msg))
		last = msg
		if msg.Status == "completed" || msg.Status == "error" {
			break
		}
	}
	require.Equal(t, "completed", last.Status)
	assert.InDelta(t, 1.0, last.Progress, 1e-9)
	assert.NotNil(t, last.Result)
}

func TestWebSocketRejectsUnknownType(t *testing.T) {
	ts := newTestServer(t, &fakePipeline{result: extractedResult()})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/extract"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = conn.Close() }()

	require.NoError(t, conn.WriteJSON(wsExtractRequest{Type: "bogus"}))

	var msg wsExtractResponse
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Status)
	assert.Contains(t, msg.Error, "unsupported request type")
}

func TestServerClose(t *testing.T) {
	fake := &fakePipeline{}
	srv := newServer(fake, config.DefaultConfig().Server, slog.New(slog.DiscardHandler))
	require.NoError(t, srv.Close())
	assert.True(t, fake.closed)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakePipeline{})
	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "idscan_")
}
