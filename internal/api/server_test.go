package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/listingest/internal/completion"
	"github.com/dgallion1/listingest/internal/config"
	"github.com/dgallion1/listingest/internal/extract"
	"github.com/dgallion1/listingest/internal/pipeline"
)

const testKey = "test-key"

// fakeModel segments by line and structures "Make Model" descriptions.
func fakeModel() completion.Completer {
	return completion.CompleterFunc(func(ctx context.Context, req completion.Request) (string, error) {
		content := req.Variables["content"]
		if req.Template == extract.SegmentPrompt {
			b, _ := json.Marshal(strings.Split(content, "\n"))
			return string(b), nil
		}
		mk, mdl, _ := strings.Cut(content, " ")
		return fmt.Sprintf(`{"Make":%q,"Model":%q,"Odometer":"1","ManufacturerDate":"2012","Price":"8000","Contact":"a@b.com"}`, mk, mdl), nil
	})
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Defaults()
	cfg.APIKey = testKey
	cfg.WorkerCount = 1
	if mutate != nil {
		mutate(&cfg)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	stats := completion.NewLLMStats(time.Hour)
	c := completion.Instrument(fakeModel(), stats, log)
	p := pipeline.New(
		extract.NewSegmenter(c, extract.Options{}),
		extract.NewStructurer(c, extract.Options{}),
		pipeline.Options{Chunk: cfg.ChunkConfig()},
		log,
	)
	orch := pipeline.NewOrchestrator(cfg, p, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	return NewServer(orch, stats, "gpt-35", log, cfg)
}

func uploadRequest(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	io.WriteString(fw, content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/parse", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func authGet(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func TestHealth_NoAuth(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}
}

func TestAuth(t *testing.T) {
	srv := newTestServer(t, nil)
	cases := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic " + testKey},
		{"wrong key", "Bearer nope"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestParse_EndToEnd(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "file", "cars.txt", "Toyota Corolla\nHonda Civic"))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var accepted struct {
		JobID   string `json:"job_id"`
		PollURL string `json:"poll_url"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&accepted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if accepted.JobID == "" || accepted.PollURL != "/api/parse/"+accepted.JobID {
		t.Fatalf("unexpected accept body %+v", accepted)
	}

	var snap pipeline.JobSnapshot
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rec = httptest.NewRecorder()
		srv.ServeHTTP(rec, authGet(accepted.PollURL))
		if rec.Code != http.StatusOK {
			t.Fatalf("status: expected 200, got %d", rec.Code)
		}
		snap = pipeline.JobSnapshot{}
		json.NewDecoder(rec.Body).Decode(&snap)
		if snap.Status == pipeline.StatusCompleted || snap.Status == pipeline.StatusFailed {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed, got %s (%v)", snap.Status, snap.Progress.Errors)
	}
	if len(snap.Listings) != 2 || snap.Listings[1].Make != "Honda" {
		t.Errorf("unexpected listings %+v", snap.Listings)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authGet(accepted.PollURL+"/text"))
	want := "Toyota Corolla [1/2012] - 8000 | a@b.com\nHonda Civic [1/2012] - 8000 | a@b.com"
	if rec.Code != http.StatusOK || rec.Body.String() != want {
		t.Errorf("unexpected text output %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authGet("/api/stats/llm"))
	var stats struct {
		Model string                   `json:"model"`
		Stats completion.StatsSnapshot `json:"stats"`
	}
	json.NewDecoder(rec.Body).Decode(&stats)
	if stats.Model != "gpt-35" || stats.Stats.Calls != 3 {
		t.Errorf("expected 3 recorded calls for gpt-35, got %+v", stats)
	}
}

func TestParse_Rejections(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) { c.MaxUploadBytes = 16 })

	cases := []struct {
		name     string
		field    string
		filename string
		content  string
		want     int
	}{
		{"wrong field", "upload", "cars.txt", "x", http.StatusBadRequest},
		{"unsupported type", "file", "cars.xlsx", "x", http.StatusBadRequest},
		{"too large", "file", "cars.txt", strings.Repeat("x", 17), http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, uploadRequest(t, tc.field, tc.filename, tc.content))
			if rec.Code != tc.want {
				t.Errorf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestParseStatus_NotFound(t *testing.T) {
	srv := newTestServer(t, nil)
	for _, path := range []string{"/api/parse/missing", "/api/parse/missing/text"} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, authGet(path))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func TestParseText_NotCompleted(t *testing.T) {
	cfg := config.Defaults()
	cfg.APIKey = testKey
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	// Orchestrator never started: jobs stay queued.
	orch := pipeline.NewOrchestrator(cfg, nil, log)
	t.Cleanup(orch.Stop)
	srv := NewServer(orch, nil, "", log, cfg)

	job := pipeline.NewJob("cars.txt", "", []byte("x"))
	if err := orch.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authGet("/api/parse/"+job.ID+"/text"))
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authGet("/api/stats/llm"))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without stats, got %d", rec.Code)
	}
}

func TestBatchParse(t *testing.T) {
	srv := newTestServer(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range []string{"a.txt", "b.exe"} {
		fw, _ := mw.CreateFormFile("files", name)
		io.WriteString(fw, "Toyota Corolla")
	}
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/parse/batch", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testKey)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	var resp struct {
		Jobs []map[string]any `json:"jobs"`
	}
	json.NewDecoder(rec.Body).Decode(&resp)
	if len(resp.Jobs) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Jobs))
	}
	if resp.Jobs[0]["job_id"] == nil || resp.Jobs[1]["error"] == nil {
		t.Errorf("expected first accepted and second rejected, got %+v", resp.Jobs)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"cars.txt":          "cars.txt",
		"../../etc/passwd":  "passwd",
		"dir\\..\\cars.txt": "dir___cars.txt",
		"":                  "unnamed",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
