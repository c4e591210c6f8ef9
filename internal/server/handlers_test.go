package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/oneiriclabs/reverie/internal/config"
	"github.com/oneiriclabs/reverie/internal/domain"
	"github.com/oneiriclabs/reverie/internal/history"
	"github.com/oneiriclabs/reverie/internal/server"
)

type fakePipeline struct {
	result *domain.SynthesisResult
	calls  int
}

func (f *fakePipeline) Synthesize(_ context.Context, _, _ string) *domain.SynthesisResult {
	f.calls++
	return f.result
}

func successResult() *domain.SynthesisResult {
	return &domain.SynthesisResult{
		Transcription: "I dreamed of a silver forest.",
		Emotions: map[string]float64{
			"happy": 0.1, "stressful": 0.05, "neutral": 0.15, "mysterious": 0.6, "nostalgic": 0.1,
		},
		DominantEmotion: "mysterious",
		ImagePrompt:     "a silver forest under moonlight",
		ImageURL:        "https://images.example/forest.png",
		Success:         true,
		Stage:           domain.StageDone,
	}
}

func newTestServer(t *testing.T, pipeline server.Synthesizer) (*server.Server, history.Store) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := history.New(config.StorageConfig{
		Type: "file",
		File: config.FileConfig{Path: filepath.Join(t.TempDir(), "history.json")},
	})
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	s := server.New(0, logger)
	server.NewHandler(pipeline, store, logger).Register(s)
	return s, store
}

func audioUpload(t *testing.T, field, filename string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	fw.Write([]byte("fake audio payload"))
	mw.WriteField("language", "fr")
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestHandleSubmitDream_Success(t *testing.T) {
	pipeline := &fakePipeline{result: successResult()}
	s, store := newTestServer(t, pipeline)

	body, contentType := audioUpload(t, "audio", "dream.wav")
	req := httptest.NewRequest(http.MethodPost, "/v1/dreams", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	s.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success         bool   `json:"success"`
		Transcription   string `json:"transcription"`
		DominantEmotion string `json:"dominant_emotion"`
		Saved           *bool  `json:"saved"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Success {
		t.Error("success = false")
	}
	if resp.DominantEmotion != "mysterious" {
		t.Errorf("dominant_emotion = %q", resp.DominantEmotion)
	}
	if resp.Saved == nil || !*resp.Saved {
		t.Error("saved flag missing or false after a successful run")
	}

	records, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("history has %d records, want 1", len(records))
	}
	if records[0].Transcription != "I dreamed of a silver forest." {
		t.Errorf("persisted transcription = %q", records[0].Transcription)
	}
}

func TestHandleSubmitDream_PipelineFailure(t *testing.T) {
	pipeline := &fakePipeline{result: &domain.SynthesisResult{
		Success: false,
		Stage:   domain.StageFailed,
		Err:     "transcription API error (status 401): invalid key",
	}}
	s, store := newTestServer(t, pipeline)

	body, contentType := audioUpload(t, "audio", "dream.mp3")
	req := httptest.NewRequest(http.MethodPost, "/v1/dreams", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	s.Router.ServeHTTP(rec, req)

	// A pipeline failure is a domain outcome, not a transport error.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Success bool   `json:"success"`
		Err     string `json:"error"`
		Saved   *bool  `json:"saved"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Success {
		t.Error("success = true for a failed run")
	}
	if resp.Err == "" {
		t.Error("error message missing")
	}
	if resp.Saved != nil {
		t.Error("saved flag present for a failed run")
	}

	records, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("failed run was persisted: %d records", len(records))
	}
}

func TestHandleSubmitDream_MissingAudioField(t *testing.T) {
	pipeline := &fakePipeline{result: successResult()}
	s, _ := newTestServer(t, pipeline)

	body, contentType := audioUpload(t, "recording", "dream.wav")
	req := httptest.NewRequest(http.MethodPost, "/v1/dreams", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	s.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if pipeline.calls != 0 {
		t.Errorf("pipeline ran %d times without an audio file", pipeline.calls)
	}
}

func TestHandleListDreams_Empty(t *testing.T) {
	s, _ := newTestServer(t, &fakePipeline{result: successResult()})

	req := httptest.NewRequest(http.MethodGet, "/v1/dreams", nil)
	rec := httptest.NewRecorder()

	s.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var records []domain.DreamRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("empty history returned %d records", len(records))
	}
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t, &fakePipeline{result: successResult()})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	s.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"ok"`)) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRequestIDHeaderSet(t *testing.T) {
	s, _ := newTestServer(t, &fakePipeline{result: successResult()})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	s.Router.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing from the response")
	}
}
