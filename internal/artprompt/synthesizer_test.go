package artprompt_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/oneiriclabs/reverie/internal/api/mistral"
	"github.com/oneiriclabs/reverie/internal/artprompt"
)

func TestSynthesizer_TrimsResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req mistral.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.ResponseFormat != nil {
			t.Error("prompt synthesis should not constrain the response to JSON")
		}

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{
					"role":    "assistant",
					"content": "\n  a silver forest under moonlight, volumetric fog, wide shot  \n",
				}},
			},
		})
	}))
	defer server.Close()

	s, err := artprompt.New("test-key", "", mistral.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	prompt, err := s.Synthesize(context.Background(), "je marchais dans une forêt d'argent")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if prompt != "a silver forest under moonlight, volumetric fog, wide shot" {
		t.Errorf("Synthesize() = %q, want trimmed prompt", prompt)
	}
}

func TestSynthesizer_TruncatesLongTranscripts(t *testing.T) {
	var sentLen int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req mistral.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sentLen = len(req.Messages[len(req.Messages)-1].Content)

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "a prompt"}},
			},
		})
	}))
	defer server.Close()

	s, err := artprompt.New("test-key", "", mistral.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Far past the token budget; one word is roughly one token or more.
	transcript := strings.Repeat("dream boat river cloud ", 4000)
	if _, err := s.Synthesize(context.Background(), transcript); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if sentLen >= len(transcript) {
		t.Errorf("transcript was not truncated: sent %d of %d bytes", sentLen, len(transcript))
	}
}
