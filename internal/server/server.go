// Package server exposes the summarizer and the catalog over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"mdsum/internal/domain"
	"mdsum/internal/mdparse"
	"mdsum/internal/service"
)

const (
	maxUploadBytes  = 64 << 20
	shutdownTimeout = 10 * time.Second
	defaultTopK     = 3
)

// Server holds the dependencies for the HTTP API.
type Server struct {
	summaries *service.SummaryService
	index     *service.IndexService
	tasks     *taskStore
	logger    *zap.Logger

	// background tasks outlive their request and stop on Shutdown.
	taskCtx    context.Context
	cancelTask context.CancelFunc
	wg         sync.WaitGroup
}

// New creates a server. index may be nil, in which case search and
// statistics report an empty catalog.
func New(summaries *service.SummaryService, index *service.IndexService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		summaries:  summaries,
		index:      index,
		tasks:      newTaskStore(),
		logger:     logger,
		taskCtx:    ctx,
		cancelTask: cancel,
	}
}

// Routes registers every endpoint on a new ServeMux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/v1/upload", s.handleUpload)
	mux.HandleFunc("POST /api/v1/summarize", s.handleSummarize)
	mux.HandleFunc("POST /api/v1/tasks", s.handleCreateTask)
	mux.HandleFunc("GET /api/v1/tasks/{task_id}", s.handleTaskStatus)
	mux.HandleFunc("POST /api/v1/search", s.handleSearch)
	mux.HandleFunc("GET /api/v1/statistics", s.handleStatistics)
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully and cancels running background tasks.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Shutdown()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Shutdown()
	return err
}

// Shutdown cancels background tasks and waits for them to return.
func (s *Server) Shutdown() {
	s.cancelTask()
	s.wg.Wait()
}

type summarizeRequest struct {
	Filenames []string `json:"filenames"`
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k,omitempty"`
}

type searchResponse struct {
	Results any `json:"results"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "mdsum API",
		"endpoints": map[string]string{
			"summarize":  "/api/v1/summarize",
			"upload":     "/api/v1/upload",
			"tasks":      "/api/v1/tasks",
			"search":     "/api/v1/search",
			"statistics": "/api/v1/statistics",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing 'file' parameter")
		return
	}
	defer func() { _ = file.Close() }()

	path, err := s.summaries.Resolve(header.Filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := os.MkdirAll(s.summaries.UploadDir(), 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, "upload failed: "+err.Error())
		return
	}
	out, err := os.Create(path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "upload failed: "+err.Error())
		return
	}
	size, err := io.Copy(out, file)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		s.logger.Error("upload failed", zap.String("file", header.Filename), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "upload failed: "+err.Error())
		return
	}
	s.logger.Info("file uploaded", zap.String("file", header.Filename), zap.Int64("size", size))
	resp := map[string]any{
		"message":  "upload succeeded",
		"filename": header.Filename,
		"size":     size,
	}
	if content, err := mdparse.ReadFile(path); err == nil {
		doc := mdparse.Parse(content)
		resp["metadata"], resp["headers"], resp["length"] = doc.Metadata, doc.Headers, doc.Length
	} else {
		s.logger.Warn("uploaded file is not markdown text", zap.String("file", header.Filename), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) decodeSummarize(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	var req summarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return nil, false
	}
	if len(req.Filenames) == 0 {
		writeError(w, http.StatusBadRequest, "filenames is required")
		return nil, false
	}
	return req.Filenames, true
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	names, ok := s.decodeSummarize(w, r)
	if !ok {
		return
	}
	report, err := s.summaries.SummarizeFiles(r.Context(), names)
	if err != nil {
		s.logger.Error("summarize failed", zap.Strings("files", names), zap.Error(err))
		writeError(w, summarizeStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	names, ok := s.decodeSummarize(w, r)
	if !ok {
		return
	}
	task := s.tasks.create(fmt.Sprintf("summarizing %d file(s)", len(names)))
	s.wg.Add(1)
	go s.runTask(task.TaskID, names)
	writeJSON(w, http.StatusAccepted, task)
}

func (s *Server) runTask(id string, names []string) {
	defer s.wg.Done()
	s.tasks.update(id, func(t *TaskStatus) { t.Status = TaskRunning })

	report, err := s.summaries.SummarizeFiles(s.taskCtx, names)
	s.tasks.update(id, func(t *TaskStatus) {
		if err != nil {
			t.Status, t.Error = TaskFailed, err.Error()
			return
		}
		t.Status, t.Progress, t.Result, t.Message = TaskCompleted, 100, report, "done"
	})
	if err != nil {
		s.logger.Error("task failed", zap.String("task_id", id), zap.Error(err))
		return
	}
	s.logger.Info("task completed", zap.String("task_id", id))
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("task_id")
	task, ok := s.tasks.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("task %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if s.index == nil {
		writeError(w, http.StatusNotFound, service.ErrEmptyCatalog.Error())
		return
	}
	k := defaultTopK
	if req.TopK != nil {
		k = *req.TopK
	}
	results, err := s.index.Search(req.Query, k)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrEmptyCatalog) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

func (s *Server) handleStatistics(w http.ResponseWriter, _ *http.Request) {
	if s.index == nil {
		writeJSON(w, http.StatusOK, map[string]any{"total_documents": 0, "total_summaries": 0, "doc_ids": []string{}})
		return
	}
	writeJSON(w, http.StatusOK, s.index.Statistics())
}

func summarizeStatus(err error) int {
	if errors.Is(err, service.ErrNoFiles) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
