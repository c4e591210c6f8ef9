// Package classify wraps the chat-completion service to score a dream
// transcript against the closed emotion vocabulary.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/oneiriclabs/reverie/internal/api/mistral"
	"github.com/oneiriclabs/reverie/internal/domain"
	"github.com/oneiriclabs/reverie/internal/emotion"
)

const systemPrompt = `You are an expert in the psychological analysis of dreams.
Analyze the emotions expressed in the dream described by the user and return
your predictions as a JSON object with exactly these keys:
- happy: positive, joyful, peaceful dream
- stressful: anxious, distressing, nightmarish dream
- neutral: descriptive dream without a particular emotion
- mysterious: strange, surreal, unexplained dream
- nostalgic: melancholic dream tied to the past
Each value is a number between -1 and 1 expressing the intensity of that
emotion. Respond with the JSON object only.`

// Classifier produces a normalized emotion probability distribution from a
// transcript.
type Classifier struct {
	client *mistral.Client
	model  string
}

// New creates a Classifier.
func New(apiKey, model string, opts ...mistral.ClientOption) (*Classifier, error) {
	if apiKey == "" {
		return nil, domain.ErrConfiguration("chat API key is not set")
	}
	if model == "" {
		model = "mistral-large-latest"
	}
	return &Classifier{
		client: mistral.NewClient(apiKey, opts...),
		model:  model,
	}, nil
}

// Classify sends the transcript through a JSON-constrained chat completion,
// validates the response against the closed label schema, and normalizes the
// raw scores into probabilities.
func (c *Classifier) Classify(ctx context.Context, transcript string) (map[string]float64, error) {
	resp, err := c.client.CreateChatCompletion(ctx, &mistral.ChatCompletionRequest{
		Model: c.model,
		Messages: []mistral.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Analyze the emotions of this dream (respond in JSON): " + transcript},
		},
		ResponseFormat: &mistral.ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, err
	}

	content, err := mistral.FirstContent(resp)
	if err != nil {
		return nil, domain.ErrParse("classifier returned an empty response", err)
	}

	var raw map[string]float64
	decoder := json.NewDecoder(strings.NewReader(content))
	if err := decoder.Decode(&raw); err != nil {
		return nil, domain.ErrParse(
			fmt.Sprintf("classifier response is not a JSON object of numeric scores: %v", err), err)
	}
	if err := emotion.ValidateScores(raw); err != nil {
		return nil, domain.ErrParse("classifier JSON violates the emotion schema: "+err.Error(), err)
	}

	return emotion.Normalize(raw), nil
}
