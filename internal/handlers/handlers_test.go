package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/leafcheck/internal/classifier"
	"github.com/example/leafcheck/internal/session"
	"github.com/example/leafcheck/internal/storage"
	"github.com/example/leafcheck/internal/upload"
	"github.com/example/leafcheck/internal/usecase"
)

const testMaxUploadSize = 64 << 10

type peakModel struct {
	peak int
}

func (m peakModel) Predict(input []float32) ([]float32, error) {
	out := make([]float32, classifier.NumClasses)
	for i := range out {
		out[i] = 0.01
	}
	out[m.peak] = 1 - 0.01*float32(classifier.NumClasses-1)
	return out, nil
}

type testServer struct {
	router    *gin.Engine
	uploadDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	staticDir := t.TempDir()
	uploadDir := filepath.Join(staticDir, "uploads")

	store, err := storage.NewLocalStore(uploadDir, UploadURL(staticDir, uploadDir), logger)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	adapter := classifier.NewAdapter(
		peakModel{peak: 30},
		classifier.Preprocessor{Size: 224, Layout: classifier.LayoutNHWC},
		time.Second,
		logger,
	)
	uc := usecase.NewDiagnosisUseCase(upload.NewValidator(upload.DefaultExtensions), store, adapter, nil, nil, logger)

	flash, err := session.NewFlash("test-secret")
	if err != nil {
		t.Fatalf("NewFlash: %v", err)
	}

	router := gin.New()
	router.MaxMultipartMemory = testMaxUploadSize
	err = RegisterRoutes(router, uc, Options{
		MaxUploadSize: testMaxUploadSize,
		StaticDir:     staticDir,
		UploadDir:     uploadDir,
		UploadURL:     UploadURL(staticDir, uploadDir),
		Flash:         flash,
		Logger:        logger,
	})
	if err != nil {
		t.Fatalf("RegisterRoutes: %v", err)
	}
	return &testServer{router: router, uploadDir: uploadDir}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	s.router.ServeHTTP(resp, req)
	return resp
}

func (s *testServer) uploadedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(s.uploadDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: uint8(100 + x), B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func buildMultipartBody(t *testing.T, field, filename string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if field != "" {
		part, err := writer.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("failed to create part: %v", err)
		}
		if _, err := part.Write(payload); err != nil {
			t.Fatalf("failed to write payload: %v", err)
		}
	} else if err := writer.WriteField("note", "no file here"); err != nil {
		t.Fatalf("failed to write field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func uploadRequest(t *testing.T, field, filename string, payload []byte, accept string) *http.Request {
	t.Helper()
	body, contentType := buildMultipartBody(t, field, filename, payload)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	return req
}

func TestPagesRender(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		path string
		want string
	}{
		{"/", "LeafCheck"},
		{"/about", "38 crop and disease categories"},
		{"/upload", `name="file"`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := srv.do(httptest.NewRequest(http.MethodGet, tt.path, nil))
			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.Code)
			}
			if !strings.Contains(resp.Body.String(), tt.want) {
				t.Fatalf("expected body to contain %q", tt.want)
			}
		})
	}
}

func TestUploadRejectsMissingFile(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(uploadRequest(t, "", "", nil, "application/json"))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["error"] != MsgNoFileSelected {
		t.Fatalf("unexpected error message %q", payload["error"])
	}
	if files := srv.uploadedFiles(t); len(files) != 0 {
		t.Fatalf("expected no stored files, got %v", files)
	}
}

func TestUploadRejectsInvalidType(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(uploadRequest(t, "file", "leaf.txt", []byte("not an image"), "application/json"))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Invalid file type. Allowed: png, jpg, jpeg.") {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
	if files := srv.uploadedFiles(t); len(files) != 0 {
		t.Fatalf("expected no stored files, got %v", files)
	}
}

func TestUploadDiagnosesImage(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(uploadRequest(t, "file", "leaf.JPG", jpegBytes(t), "application/json"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var got usecase.Diagnosis
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !classifier.IsLabel(got.Label) {
		t.Fatalf("label %q is not a known class", got.Label)
	}
	if got.Confidence < 0 || got.Confidence > 100 {
		t.Fatalf("confidence %v out of range", got.Confidence)
	}
	if got.Info.Description == "" {
		t.Fatal("expected advisory record")
	}

	files := srv.uploadedFiles(t)
	if len(files) != 1 || filepath.Ext(files[0]) != ".jpg" {
		t.Fatalf("expected one stored .jpg file, got %v", files)
	}
	if got.ImageURL != "/static/uploads/"+files[0] {
		t.Fatalf("unexpected image url %q", got.ImageURL)
	}

	img := srv.do(httptest.NewRequest(http.MethodGet, got.ImageURL, nil))
	if img.Code != http.StatusOK {
		t.Fatalf("expected stored image to be served, got %d", img.Code)
	}
}

func TestUploadRendersResultPage(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(uploadRequest(t, "file", "leaf.jpeg", jpegBytes(t), ""))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	label, _ := classifier.Label(30)
	if !strings.Contains(body, classifier.DisplayName(label)) {
		t.Fatalf("expected result page to name %q", classifier.DisplayName(label))
	}
	if !strings.Contains(body, "Confidence:") {
		t.Fatal("expected confidence on result page")
	}
}

func TestUploadFailureHidesDetail(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(uploadRequest(t, "file", "leaf.png", []byte("definitely not a png"), "application/json"))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), MsgAnalysisFailed) {
		t.Fatalf("expected generic message, got %s", resp.Body.String())
	}
}

func TestUploadRejectsLargeBody(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(uploadRequest(t, "file", "leaf.jpg", bytes.Repeat([]byte("a"), testMaxUploadSize+1), "application/json"))
	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status %d, got %d", http.StatusRequestEntityTooLarge, resp.Code)
	}
	if files := srv.uploadedFiles(t); len(files) != 0 {
		t.Fatalf("expected no stored files, got %v", files)
	}
}

func TestRejectionFlashShownOnce(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(uploadRequest(t, "file", "leaf.gif", []byte("GIF89a"), "text/html"))
	if resp.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.Code)
	}
	if loc := resp.Header().Get("Location"); loc != "/upload" {
		t.Fatalf("expected redirect to /upload, got %q", loc)
	}

	var flashCookie *http.Cookie
	for _, c := range resp.Result().Cookies() {
		if c.Name == session.FlashCookie {
			flashCookie = c
		}
	}
	if flashCookie == nil {
		t.Fatal("expected flash cookie")
	}

	first := httptest.NewRequest(http.MethodGet, "/upload", nil)
	first.AddCookie(flashCookie)
	page := srv.do(first)
	if !strings.Contains(page.Body.String(), "Invalid file type") {
		t.Fatal("expected flash message on first render")
	}

	second := srv.do(httptest.NewRequest(http.MethodGet, "/upload", nil))
	if strings.Contains(second.Body.String(), "Invalid file type") {
		t.Fatal("flash message rendered twice")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)
	srv.do(uploadRequest(t, "", "", nil, "application/json"))

	health := srv.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	if health.Code != http.StatusOK || !strings.Contains(health.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response %d %s", health.Code, health.Body.String())
	}

	resp := srv.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(resp.Body)
	var summary usecase.MetricsSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if summary.TotalRequests != 1 || summary.RejectedRequests != 1 {
		t.Fatalf("unexpected metrics %+v", summary)
	}
}

func TestUploadURL(t *testing.T) {
	tests := []struct {
		static, upload, want string
	}{
		{"static", "static/uploads", "/static/uploads"},
		{"static", "static/a/b", "/static/a/b"},
		{"static", "data/uploads", "/uploads"},
		{"static", "static", "/uploads"},
		{"", "uploads", "/uploads"},
	}
	for _, tt := range tests {
		if got := UploadURL(tt.static, tt.upload); got != tt.want {
			t.Errorf("UploadURL(%q, %q) = %q, want %q", tt.static, tt.upload, got, tt.want)
		}
	}
}
