package routes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/art-critique/internal/config"
	"github.com/phambaophuc/art-critique/internal/http/handlers"
	"github.com/phambaophuc/art-critique/internal/http/middleware"
	"github.com/phambaophuc/art-critique/internal/services/critique"
	"github.com/phambaophuc/art-critique/internal/services/inference/inferencetest"
	"github.com/phambaophuc/art-critique/internal/services/ingress"
	"github.com/phambaophuc/art-critique/internal/services/processor"
	"github.com/phambaophuc/art-critique/internal/services/storage"
	"go.uber.org/zap"
)

type testServer struct {
	router    *gin.Engine
	pipeline  *critique.Pipeline
	client    *inferencetest.Client
	uploadDir string
}

func newTestServer(t *testing.T, client *inferencetest.Client, timeout time.Duration) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server: config.ServerConfig{AllowedOrigins: []string{"http://localhost:5173"}},
		Storage: config.StorageConfig{
			MaxFileSize:  1 << 20,
			MaxDimension: 512,
			AllowedTypes: []string{"image/jpeg", "image/png", "image/webp", "image/gif"},
			UploadPath:   t.TempDir(),
		},
	}

	stager, err := storage.NewDiskStager(cfg.Storage.UploadPath)
	if err != nil {
		t.Fatalf("NewDiskStager() error = %v", err)
	}

	logger := zap.NewNop()
	adapter := ingress.New(processor.NewImageProcessor(cfg.Storage.MaxDimension), stager, cfg.Storage, logger)
	pipeline := critique.NewPipeline(client, stager, timeout, logger)
	handler := handlers.NewCritiqueHandler(adapter, pipeline, map[string]handlers.HealthChecker{
		"staging":   stager,
		"inference": client,
		"queue":     nil,
	}, nil, logger)

	return &testServer{
		router:    NewRouter(handler, cfg, logger).SetupRoutes(),
		pipeline:  pipeline,
		client:    client,
		uploadDir: cfg.Storage.UploadPath,
	}
}

func encodePNG(t *testing.T, width, height int, shade uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = shade
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func newUploadRequest(t *testing.T, path, field, filename string, data []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if field != "" {
		part, err := writer.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		part.Write(data)
	} else {
		writer.WriteField("note", "no file here")
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

type analyzeBody struct {
	Message         string          `json:"message"`
	FeedbackDetails json.RawMessage `json:"feedbackDetails"`
	Success         *bool           `json:"success"`
	Error           string          `json:"error"`
	Code            string          `json:"code"`
}

func (s *testServer) do(req *http.Request) (*httptest.ResponseRecorder, analyzeBody) {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var body analyzeBody
	json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func assertJSONEqual(t *testing.T, got []byte, want string) {
	t.Helper()
	var g, w any
	if err := json.Unmarshal(got, &g); err != nil {
		t.Fatalf("invalid JSON %s: %v", got, err)
	}
	if err := json.Unmarshal([]byte(want), &w); err != nil {
		t.Fatalf("invalid JSON %s: %v", want, err)
	}
	gb, _ := json.Marshal(g)
	wb, _ := json.Marshal(w)
	if !bytes.Equal(gb, wb) {
		t.Errorf("JSON = %s, want %s", gb, wb)
	}
}

func assertNothingStaged(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("staging directory not cleaned up: %d entries", len(entries))
	}
}

func TestAnalyzeStructuredFeedback(t *testing.T) {
	client := &inferencetest.Client{
		Respond: inferencetest.Static("```json\n{\"rating\":7,\"Strengths\":[\"line work\"],\"Weaknesses\":[\"proportion\"],\"Tips\":[\"use guides\"]}\n```"),
	}
	srv := newTestServer(t, client, time.Second)

	for _, path := range []string{"/analyze", "/api/v1/analyze"} {
		t.Run(path, func(t *testing.T) {
			w, body := srv.do(newUploadRequest(t, path, "image", "sketch.png", encodePNG(t, 16, 16, 100)))

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
			}
			if body.Message != "Image analyzed successfully" {
				t.Errorf("message = %q", body.Message)
			}
			assertJSONEqual(t, body.FeedbackDetails, `{"rating":7,"Strengths":["line work"],"Weaknesses":["proportion"],"Tips":["use guides"]}`)
			if w.Header().Get(middleware.RequestIDHeader) == "" {
				t.Error("missing request ID header")
			}
			assertNothingStaged(t, srv.uploadDir)
		})
	}

	srv.pipeline.Wait()
	if _, _, released := client.Calls(); released != 2 {
		t.Errorf("released = %d, want 2", released)
	}
}

func TestAnalyzeProseFallback(t *testing.T) {
	client := &inferencetest.Client{Respond: inferencetest.Static("I think this is a lovely sketch!")}
	srv := newTestServer(t, client, time.Second)

	w, body := srv.do(newUploadRequest(t, "/analyze", "image", "sketch.png", encodePNG(t, 8, 8, 10)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	assertJSONEqual(t, body.FeedbackDetails, `{"raw":"I think this is a lovely sketch!"}`)
}

func TestAnalyzeMissingFile(t *testing.T) {
	tests := []struct {
		name string
		req  func(t *testing.T) *http.Request
	}{
		{
			name: "multipart without image field",
			req: func(t *testing.T) *http.Request {
				return newUploadRequest(t, "/analyze", "", "", nil)
			},
		},
		{
			name: "wrong field name",
			req: func(t *testing.T) *http.Request {
				return newUploadRequest(t, "/analyze", "picture", "sketch.png", encodePNG(t, 4, 4, 0))
			},
		},
		{
			name: "empty file",
			req: func(t *testing.T) *http.Request {
				return newUploadRequest(t, "/analyze", "image", "sketch.png", nil)
			},
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewBufferString(`{"image":"x"}`))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &inferencetest.Client{}
			srv := newTestServer(t, client, time.Second)

			w, body := srv.do(tt.req(t))

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if body.Code != "missing_input" || body.Success == nil || *body.Success {
				t.Errorf("unexpected body %s", w.Body.String())
			}
			if registered, generated, _ := client.Calls(); registered != 0 || generated != 0 {
				t.Errorf("inference invoked %d/%d times", registered, generated)
			}
		})
	}
}

func TestAnalyzeErrorStatuses(t *testing.T) {
	tests := []struct {
		name       string
		client     *inferencetest.Client
		data       []byte
		filename   string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "inference unavailable",
			client:     &inferencetest.Client{RegisterErr: errors.New("quota exceeded")},
			wantStatus: http.StatusBadGateway,
			wantCode:   "inference_unavailable",
		},
		{
			name:       "inference timeout",
			client:     &inferencetest.Client{Respond: inferencetest.Blocking()},
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   "inference_timeout",
		},
		{
			name:       "not an image",
			client:     &inferencetest.Client{},
			data:       []byte("plain text pretending to be art"),
			filename:   "notes.txt",
			wantStatus: http.StatusUnsupportedMediaType,
			wantCode:   "unsupported_media",
		},
		{
			name:       "too large",
			client:     &inferencetest.Client{},
			data:       bytes.Repeat([]byte{0xff}, 2<<20),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   "image_too_large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.client, 50*time.Millisecond)

			data := tt.data
			if data == nil {
				data = encodePNG(t, 8, 8, 200)
			}
			filename := tt.filename
			if filename == "" {
				filename = "sketch.png"
			}

			w, body := srv.do(newUploadRequest(t, "/api/v1/analyze", "image", filename, data))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body = %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if body.Error == "" {
				t.Error("error message should not be empty")
			}
			assertNothingStaged(t, srv.uploadDir)
		})
	}
}

func TestAnalyzeConcurrentUploads(t *testing.T) {
	client := &inferencetest.Client{}
	srv := newTestServer(t, client, 5*time.Second)

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		data := encodePNG(t, 8, 8, uint8(i*20))
		req := newUploadRequest(t, "/analyze", "image", fmt.Sprintf("sketch-%d.png", i), data)

		wg.Add(1)
		go func() {
			defer wg.Done()

			w, body := srv.do(req)
			if w.Code != http.StatusOK {
				errs <- fmt.Errorf("status = %d", w.Code)
				return
			}

			var details struct {
				Strengths []string `json:"Strengths"`
			}
			if err := json.Unmarshal(body.FeedbackDetails, &details); err != nil {
				errs <- err
				return
			}
			if want := inferencetest.Fingerprint(data); len(details.Strengths) != 1 || details.Strengths[0] != want {
				errs <- fmt.Errorf("feedback %v does not belong to image %s", details.Strengths, want)
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	assertNothingStaged(t, srv.uploadDir)
}

func TestHealthAndRoot(t *testing.T) {
	srv := newTestServer(t, &inferencetest.Client{}, time.Second)

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, body = %s", w.Code, w.Body.String())
	}

	var health struct {
		Success bool `json:"success"`
		Data    struct {
			Status   string            `json:"status"`
			Services map[string]string `json:"services"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !health.Success || health.Data.Status != "healthy" {
		t.Errorf("unexpected health %+v", health)
	}
	if health.Data.Services["queue"] != "not configured" {
		t.Errorf("queue status = %q", health.Data.Services["queue"])
	}

	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Errorf("root status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(`"queue":"not configured"`)) {
		t.Errorf("stats status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, &inferencetest.Client{}, time.Second)

	req := httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected Allow-Origin %q for unknown origin", got)
	}
}
