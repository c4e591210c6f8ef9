package mistral_test

import (
	"context"
	"strings"
	"testing"

	"github.com/oneiriclabs/reverie/internal/api/mistral"
	"github.com/oneiriclabs/reverie/internal/testutil"
)

func TestClient_CreateChatCompletion(t *testing.T) {
	r, cleanup := testutil.NewVCRRecorder(t, "mistral_chat")
	defer cleanup()

	c := mistral.NewClient("test-key", mistral.WithHTTPClient(testutil.VCRHTTPClient(r)))

	resp, err := c.CreateChatCompletion(context.Background(), &mistral.ChatCompletionRequest{
		Model: "mistral-large-latest",
		Messages: []mistral.Message{
			{Role: "user", Content: "Describe a dream about a silver forest in one sentence."},
		},
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion() error = %v", err)
	}

	content, err := mistral.FirstContent(resp)
	if err != nil {
		t.Fatalf("FirstContent() error = %v", err)
	}
	if !strings.Contains(content, "silver forest") {
		t.Errorf("unexpected content: %q", content)
	}
	if resp.Model != "mistral-large-latest" {
		t.Errorf("Model = %q", resp.Model)
	}
}

func TestFirstContent_NoChoices(t *testing.T) {
	_, err := mistral.FirstContent(&mistral.ChatCompletionResponse{})
	if err == nil {
		t.Error("FirstContent() accepted an empty choice list")
	}
}
