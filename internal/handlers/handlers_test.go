package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"cvpanel/internal/models"
)

type stubService struct {
	startID  string
	startErr error
	snapshot models.StatusSnapshot
	stopped  bool
	cleared  bool
	lastReq  models.GenerationRequest
}

func (s *stubService) StartBatch(_ context.Context, req models.GenerationRequest) (string, error) {
	s.lastReq = req
	if s.startErr != nil {
		return "", s.startErr
	}

	return s.startID, nil
}

func (s *stubService) Snapshot() models.StatusSnapshot { return s.snapshot }
func (s *stubService) Stop()                           { s.stopped = true }
func (s *stubService) Clear()                          { s.cleared = true }

type stubBackend struct {
	modelsRes *models.ModelsResponse
	filesRes  *models.FilesResponse
	err       error
	deleted   string
}

func (b *stubBackend) Models(context.Context) (*models.ModelsResponse, error) {
	return b.modelsRes, b.err
}

func (b *stubBackend) Files(context.Context) (*models.FilesResponse, error) {
	return b.filesRes, b.err
}

func (b *stubBackend) DeleteFile(_ context.Context, filename string) error {
	b.deleted = filename

	return b.err
}

func (b *stubBackend) Health(context.Context) (*models.HealthResponse, error) {
	return &models.HealthResponse{Status: "healthy"}, b.err
}

func newTestRouter(srv Servicer, backend Backender) *gin.Engine {
	gin.SetMode(gin.TestMode)

	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	h := NewHandler(srv, backend, nil, log)

	r := gin.New()
	r.POST("/api/generate", h.StartGeneration)
	r.GET("/api/status", h.Status)
	r.POST("/api/stop", h.StopGeneration)
	r.DELETE("/api/clear", h.ClearGeneration)
	r.GET("/api/models", h.Models)
	r.GET("/api/files", h.Files)
	r.DELETE("/api/files/:name", h.DeleteFile)
	r.GET("/api/health", h.Health)

	return r
}

func TestStartGeneration(t *testing.T) {
	srv := &stubService{startID: "b1"}
	r := newTestRouter(srv, &stubBackend{})

	body := `{"qty":2,"roles":["Software Engineer"],"age_min":25,"age_max":35}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(body))
	r.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("code = %d, body = %s", w.Code, w.Body.String())
	}

	var res map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res["batch_id"] != "b1" {
		t.Fatalf("batch_id = %q", res["batch_id"])
	}
	if srv.lastReq.Qty != 2 {
		t.Fatalf("qty = %d, want 2", srv.lastReq.Qty)
	}
}

func TestStartGenerationRejectsInvalidBody(t *testing.T) {
	srv := &stubService{startID: "b1"}
	r := newTestRouter(srv, &stubBackend{})

	// qty is required and must be at least 1
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"roles":["x"]}`))
	r.ServeHTTP(w, req)

	if w.Code != 400 {
		t.Fatalf("code = %d, want 400", w.Code)
	}
	if srv.lastReq.Qty != 0 {
		t.Fatal("service called despite invalid request")
	}
}

func TestStartGenerationBackendFailure(t *testing.T) {
	srv := &stubService{startErr: errors.New("backend unreachable")}
	r := newTestRouter(srv, &stubBackend{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"qty":1}`))
	r.ServeHTTP(w, req)

	if w.Code != 502 {
		t.Fatalf("code = %d, want 502", w.Code)
	}

	var res models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(res.Error, "backend unreachable") {
		t.Fatalf("error = %q", res.Error)
	}
}

func TestStatusReturnsSnapshot(t *testing.T) {
	srv := &stubService{snapshot: models.StatusSnapshot{
		ActiveBatchIDs:    []string{"b1"},
		CompletedBatchIDs: []string{},
		Tasks:             []models.Task{{ID: "1", Status: models.StatusRunning, Progress: 42}},
		IsGenerating:      true,
		OverallProgress:   42,
	}}
	r := newTestRouter(srv, &stubBackend{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	r.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("code = %d", w.Code)
	}

	var snap models.StatusSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !snap.IsGenerating || snap.OverallProgress != 42 || len(snap.Tasks) != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestStopAndClear(t *testing.T) {
	srv := &stubService{}
	r := newTestRouter(srv, &stubBackend{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/stop", nil))
	if w.Code != 200 || !srv.stopped {
		t.Fatalf("stop: code = %d, stopped = %v", w.Code, srv.stopped)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/clear", nil))
	if w.Code != 200 || !srv.cleared {
		t.Fatalf("clear: code = %d, cleared = %v", w.Code, srv.cleared)
	}
}

func TestProxyEndpoints(t *testing.T) {
	backend := &stubBackend{
		modelsRes: &models.ModelsResponse{LLMModels: []models.ModelInfo{{ID: "m1"}}},
		filesRes:  &models.FilesResponse{Total: 2},
	}
	r := newTestRouter(&stubService{}, backend)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/models", nil))
	if w.Code != 200 || !strings.Contains(w.Body.String(), "m1") {
		t.Fatalf("models: code = %d, body = %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/files", nil))
	if w.Code != 200 {
		t.Fatalf("files: code = %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/files/cv.pdf", nil))
	if w.Code != 200 || backend.deleted != "cv.pdf" {
		t.Fatalf("delete: code = %d, deleted = %q", w.Code, backend.deleted)
	}
}

func TestProxyBackendFailure(t *testing.T) {
	r := newTestRouter(&stubService{}, &stubBackend{err: errors.New("connection refused")})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/models", nil))
	if w.Code != 502 {
		t.Fatalf("code = %d, want 502", w.Code)
	}
}
