package api

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/goreport/internal/app"
	"github.com/hyperifyio/goreport/internal/docmodel"
	"github.com/hyperifyio/goreport/internal/llm"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	cfg := app.DefaultConfig()
	cfg.LLMProvider = llm.ProviderNone
	cfg.PDFConverter = "none"
	cfg.CacheDir = filepath.Join(dir, "cache")
	cfg.UploadsDir = filepath.Join(dir, "uploads")
	cfg.OutputsDir = filepath.Join(dir, "outputs")
	cfg.TemplatesDir = filepath.Join(dir, "templates")
	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	ts := httptest.NewServer(NewServer(a).Router())
	t.Cleanup(ts.Close)
	return ts
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func decode(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp
}

func postFile(t *testing.T, url, name string, content []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	resp, err := http.Post(url, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp
}

func sampleDocx(t *testing.T) []byte {
	t.Helper()
	d := &docmodel.Document{}
	for _, text := range []string{"{{TOPIC}}", "Introduction", "Objectives", "Methodology", "Results", "Conclusion"} {
		d.Paragraphs = append(d.Paragraphs, docmodel.Paragraph{Style: "Heading 1", Text: text, Runs: []docmodel.Run{{Text: text}}})
	}
	var buf bytes.Buffer
	require.NoError(t, d.WriteDocx(&buf))
	return buf.Bytes()
}

func TestHealthAndStatus(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode(t, resp).Success)

	resp, err = http.Get(ts.URL + "/api/v1/status")
	require.NoError(t, err)
	env := decode(t, resp)
	var st app.StatusReport
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.False(t, st.AIAvailable)
	assert.Equal(t, "rule_based", st.PrimaryEngine)
	assert.Equal(t, "memory", st.ProfileStore)
}

func TestClassify(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/topics/classify", map[string]string{"topic": "Machine Learning Algorithms"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var p struct {
		Domain string `json:"domain"`
	}
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &p))
	assert.Equal(t, "computer_science", p.Domain)

	resp = postJSON(t, ts.URL+"/api/v1/topics/classify", map[string]string{"topic": " "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	env := decode(t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "invalid_request", env.Error.Code)
}

func TestSamples(t *testing.T) {
	ts := newTestServer(t)

	resp := postFile(t, ts.URL+"/api/v1/samples", "sample.docx", sampleDocx(t))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p struct {
		ID       string   `json:"document_id"`
		Sections []string `json:"content_sections"`
	}
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &p))
	require.NotEmpty(t, p.ID)
	assert.Equal(t, []string{"Introduction", "Objectives", "Methodology", "Results", "Conclusion"}, p.Sections)

	resp, err := http.Get(ts.URL + "/api/v1/samples/" + p.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/v1/samples/00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = postFile(t, ts.URL+"/api/v1/samples", "notes.txt", []byte("hello"))
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	resp.Body.Close()
}

func TestContent(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/content", app.ContentRequest{Topic: "Renewable energy management", Sections: []string{"Introduction", "Conclusion"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var g struct {
		Engine string   `json:"engine"`
		Order  []string `json:"section_order"`
	}
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &g))
	assert.Equal(t, "rule_based", g.Engine)
	assert.Equal(t, []string{"introduction", "conclusion"}, g.Order)

	resp = postJSON(t, ts.URL+"/api/v1/content", app.ContentRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Post(ts.URL+"/api/v1/content", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestReports(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/reports", app.ReportRequest{StudentName: "Asha Rao", RollNo: "42", Topic: "Cloud computing architecture"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var rr app.ReportResponse
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &rr))
	assert.True(t, rr.Success)
	assert.NotEmpty(t, rr.ContentSectionsGenerated)

	dl, err := http.Get(ts.URL + rr.DownloadURL)
	require.NoError(t, err)
	defer dl.Body.Close()
	assert.Equal(t, http.StatusOK, dl.StatusCode)
	assert.Equal(t, contentTypes[".docx"], dl.Header.Get("Content-Type"))
	assert.Contains(t, dl.Header.Get("Content-Disposition"), rr.Filename)

	resp = postJSON(t, ts.URL+"/api/v1/reports", app.ReportRequest{StudentName: "Asha", Topic: "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/v1/reports/missing.docx")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/v1/reports/.env")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestImages_OversizedDimensionsAreBadRequest(t *testing.T) {
	ts := newTestServer(t)
	resp := postFile(t, ts.URL+"/api/v1/images", "bomb.png", pngHeader(100_000, 100_000))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	env := decode(t, resp)
	require.NotNil(t, env.Error)
	assert.Equal(t, "invalid_request", env.Error.Code)
}

func TestReports_UnknownDocumentIsNotFound(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts.URL+"/api/v1/reports", app.ReportRequest{
		StudentName: "Asha Rao", RollNo: "42", Topic: "Edge AI", DocumentID: "00000000-0000-4000-8000-000000000000",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	env := decode(t, resp)
	require.NotNil(t, env.Error)
	assert.Equal(t, "not_found", env.Error.Code)
	var rr app.ReportResponse
	require.NoError(t, json.Unmarshal(env.Data, &rr))
	assert.False(t, rr.Success)
}

// pngHeader returns a PNG signature and IHDR chunk declaring w x h RGB
// pixels with no image data behind it.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 17)
	copy(ihdr, "IHDR")
	binary.BigEndian.PutUint32(ihdr[4:], w)
	binary.BigEndian.PutUint32(ihdr[8:], h)
	ihdr[12] = 8
	ihdr[13] = 2
	var b bytes.Buffer
	b.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&b, binary.BigEndian, uint32(13))
	b.Write(ihdr)
	_ = binary.Write(&b, binary.BigEndian, crc32.ChecksumIEEE(ihdr))
	return b.Bytes()
}

type countingService struct {
	Service
	calls atomic.Int32
}

func (c *countingService) Cleanup(time.Duration) (int, error) {
	c.calls.Add(1)
	return 0, nil
}

func TestCleaner_RunsImmediatelyAndOnTicker(t *testing.T) {
	svc := &countingService{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	NewCleaner(svc, time.Hour, 10*time.Millisecond).Start(ctx)
	require.Eventually(t, func() bool { return svc.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestCleaner_DisabledWithoutMaxAge(t *testing.T) {
	svc := &countingService{}
	c := NewCleaner(svc, 0, 0)
	assert.Equal(t, time.Hour, c.interval)
	c.run(context.Background())
	assert.Zero(t, svc.calls.Load())
}
