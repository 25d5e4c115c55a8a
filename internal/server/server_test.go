package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdsum/internal/catalog"
	"mdsum/internal/service"
)

type echoSummarizer struct{}

func (echoSummarizer) SummarizeText(_ context.Context, content string, _ int) (string, error) {
	return "summary: " + strings.TrimSpace(content), nil
}

type fixture struct {
	srv       *Server
	http      *httptest.Server
	uploadDir string
	index     *service.IndexService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	upload := filepath.Join(root, "uploads")
	summaries := service.NewSummaryService(echoSummarizer{}, upload, filepath.Join(root, "out"), 256, nil)
	cat := catalog.New(echoSummarizer{}, catalog.NewFileStore(filepath.Join(root, "index.json")), nil)
	index := service.NewIndexService(cat, 256, nil)

	srv := New(summaries, index, nil)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(func() {
		ts.Close()
		srv.Shutdown()
	})
	return &fixture{srv: srv, http: ts, uploadDir: upload, index: index}
}

func (f *fixture) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(f.http.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (f *fixture) upload(t *testing.T, name, content string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(f.http.URL+"/api/v1/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.http.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "healthy", body["status"])
}

func TestUploadThenSummarize(t *testing.T) {
	f := newFixture(t)

	resp := f.upload(t, "notes.md", "# Notes\nbody")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	up := decode[map[string]any](t, resp)
	assert.Equal(t, "notes.md", up["filename"])
	assert.EqualValues(t, 12, up["size"])
	assert.EqualValues(t, 12, up["length"])
	assert.Equal(t, []any{map[string]any{"level": 1.0, "text": "Notes"}}, up["headers"])
	_, err := os.Stat(filepath.Join(f.uploadDir, "notes.md"))
	require.NoError(t, err)

	resp = f.postJSON(t, "/api/v1/summarize", map[string]any{"filenames": []string{"notes.md"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := decode[service.Report](t, resp)
	assert.Equal(t, "## notes.md\n\nsummary: # Notes\nbody", report.Summary)
	assert.Equal(t, []string{"notes.md"}, report.Files)
	assert.NotEmpty(t, report.SummaryFile)
}

func TestUpload_ReportsFrontMatter(t *testing.T) {
	f := newFixture(t)
	resp := f.upload(t, "post.md", "---\ntitle: Launch\n---\n# Intro\n## Plan\n")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var up struct {
		Metadata map[string]string `json:"metadata"`
		Headers  []struct {
			Level int    `json:"level"`
			Text  string `json:"text"`
		} `json:"headers"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&up))
	assert.Equal(t, map[string]string{"title": "Launch"}, up.Metadata)
	require.Len(t, up.Headers, 2)
	assert.Equal(t, 2, up.Headers[1].Level)
	assert.Equal(t, "Plan", up.Headers[1].Text)
}

func TestUpload_RejectsTraversal(t *testing.T) {
	f := newFixture(t)
	resp := f.upload(t, "..", "x")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSummarize_Errors(t *testing.T) {
	f := newFixture(t)

	resp := f.postJSON(t, "/api/v1/summarize", map[string]any{"filenames": []string{"ghost.md"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, decode[errorResponse](t, resp).Detail, "ghost.md")

	resp = f.postJSON(t, "/api/v1/summarize", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTasks(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "a.md", "alpha")

	resp := f.postJSON(t, "/api/v1/tasks", map[string]any{"filenames": []string{"a.md"}})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	task := decode[TaskStatus](t, resp)
	require.NotEmpty(t, task.TaskID)

	var status TaskStatus
	require.Eventually(t, func() bool {
		r, err := http.Get(f.http.URL + "/api/v1/tasks/" + task.TaskID)
		if err != nil {
			return false
		}
		defer r.Body.Close()
		if json.NewDecoder(r.Body).Decode(&status) != nil {
			return false
		}
		return status.Status == TaskCompleted || status.Status == TaskFailed
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, TaskCompleted, status.Status)
	assert.Equal(t, 100, status.Progress)
	result, ok := status.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "## a.md\n\nsummary: alpha", result["summary"])

	r, err := http.Get(f.http.URL + "/api/v1/tasks/unknown")
	require.NoError(t, err)
	defer r.Body.Close()
	assert.Equal(t, http.StatusNotFound, r.StatusCode)
}

func TestSearchAndStatistics(t *testing.T) {
	f := newFixture(t)

	resp := f.postJSON(t, "/api/v1/search", map[string]any{"query": "alpha"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	dir := t.TempDir()
	p := filepath.Join(dir, "a.md")
	require.NoError(t, os.WriteFile(p, []byte("alpha beta"), 0o644))
	_, err := f.index.Build(context.Background(), []string{p})
	require.NoError(t, err)

	resp = f.postJSON(t, "/api/v1/search", map[string]any{"query": "alpha", "top_k": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[struct {
		Results []map[string]any `json:"results"`
	}](t, resp)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "a.md", body.Results[0]["doc_id"])

	r, err := http.Get(f.http.URL + "/api/v1/statistics")
	require.NoError(t, err)
	defer r.Body.Close()
	stats := decode[catalog.Stats](t, r)
	assert.Equal(t, 1, stats.TotalDocuments)
	assert.Equal(t, []string{"a.md"}, stats.DocIDs)
}
