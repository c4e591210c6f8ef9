package classify_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oneiriclabs/reverie/internal/api/mistral"
	"github.com/oneiriclabs/reverie/internal/classify"
	"github.com/oneiriclabs/reverie/internal/domain"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		resp := map[string]any{
			"id":    "cmpl-test",
			"model": "mistral-large-latest",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestClassifier_Classify(t *testing.T) {
	server := chatServer(t, `{"happy":0.9,"stressful":-0.3,"neutral":0.1,"mysterious":0.2,"nostalgic":-0.1}`)
	defer server.Close()

	c, err := classify.New("test-key", "", mistral.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	probs, err := c.Classify(context.Background(), "je volais au-dessus de la mer")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	var sum float64
	for _, p := range probs {
		sum += p
	}
	if math.Abs(sum-1.0) > 0.001 {
		t.Errorf("probabilities sum to %v, want 1.0 ± 0.001", sum)
	}
	if probs["happy"] <= probs["stressful"] {
		t.Errorf("happy should outrank stressful: %v", probs)
	}
}

func TestClassifier_InvalidJSONIsParseError(t *testing.T) {
	server := chatServer(t, "The dream feels mostly happy, with some stress.")
	defer server.Close()

	c, err := classify.New("test-key", "", mistral.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = c.Classify(context.Background(), "some dream")
	if err == nil {
		t.Fatal("Classify() succeeded on prose output")
	}
	var se *domain.StageError
	if !errors.As(err, &se) || se.Type != domain.ErrorTypeParse {
		t.Errorf("error type = %v, want parse error (got %v)", domain.TypeOf(err), err)
	}
}

func TestClassifier_SchemaViolationIsParseError(t *testing.T) {
	// Valid JSON, wrong labels
	server := chatServer(t, `{"joy":0.9,"fear":0.1}`)
	defer server.Close()

	c, err := classify.New("test-key", "", mistral.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = c.Classify(context.Background(), "some dream")
	if err == nil {
		t.Fatal("Classify() accepted an off-schema response")
	}
	if domain.TypeOf(err) != domain.ErrorTypeParse {
		t.Errorf("error type = %v, want parse", domain.TypeOf(err))
	}
}

func TestClassifier_UpstreamErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limit exceeded","type":"rate_limit"}}`))
	}))
	defer server.Close()

	c, err := classify.New("test-key", "", mistral.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = c.Classify(context.Background(), "some dream")
	if err == nil {
		t.Fatal("Classify() succeeded on a 429")
	}
	if domain.TypeOf(err) != domain.ErrorTypeUpstream {
		t.Errorf("error type = %v, want upstream", domain.TypeOf(err))
	}
}

func TestClassifier_MissingKeyIsConfigurationError(t *testing.T) {
	_, err := classify.New("", "")
	if err == nil {
		t.Fatal("New() accepted an empty API key")
	}
	if domain.TypeOf(err) != domain.ErrorTypeConfiguration {
		t.Errorf("error type = %v, want configuration", domain.TypeOf(err))
	}
}
