// Package artprompt turns a dream transcript into an image-generation
// prompt via a plain-text chat completion.
package artprompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/tiktoken-go/tokenizer"

	"github.com/oneiriclabs/reverie/internal/api/mistral"
	"github.com/oneiriclabs/reverie/internal/domain"
)

const systemPrompt = `You are an expert in writing prompts for digital art
generation. From the dream described by the user, write a prompt in English
optimized for generating an artistic image.

The prompt must:
- capture the visual essence of the dream
- describe the atmosphere and mood
- use artistic vocabulary (style, lighting, composition)
- be concise but evocative (200 words at most)
- avoid elements that have no visual representation

Respond with the prompt only, in English, without explanation.`

// defaultTokenBudget caps the transcript length sent to the model. Long
// recordings can exceed the context window otherwise.
const defaultTokenBudget = 6000

// Synthesizer produces an art prompt from a transcript.
type Synthesizer struct {
	client      *mistral.Client
	model       string
	codec       tokenizer.Codec
	tokenBudget int
}

// New creates a Synthesizer.
func New(apiKey, model string, opts ...mistral.ClientOption) (*Synthesizer, error) {
	if apiKey == "" {
		return nil, domain.ErrConfiguration("chat API key is not set")
	}
	if model == "" {
		model = "mistral-large-latest"
	}
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}
	return &Synthesizer{
		client:      mistral.NewClient(apiKey, opts...),
		model:       model,
		codec:       codec,
		tokenBudget: defaultTokenBudget,
	}, nil
}

// Synthesize returns a trimmed English art prompt for the transcript. The
// response is plain text; no JSON constraint applies to this call.
func (s *Synthesizer) Synthesize(ctx context.Context, transcript string) (string, error) {
	transcript, err := s.truncate(transcript)
	if err != nil {
		return "", err
	}

	resp, err := s.client.CreateChatCompletion(ctx, &mistral.ChatCompletionRequest{
		Model: s.model,
		Messages: []mistral.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Write an artistic prompt for this dream: " + transcript},
		},
	})
	if err != nil {
		return "", err
	}

	content, err := mistral.FirstContent(resp)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// truncate cuts the transcript at the token budget so the chat call stays
// inside the model's context window.
func (s *Synthesizer) truncate(text string) (string, error) {
	ids, _, err := s.codec.Encode(text)
	if err != nil {
		return "", fmt.Errorf("failed to tokenize transcript: %w", err)
	}
	if len(ids) <= s.tokenBudget {
		return text, nil
	}
	truncated, err := s.codec.Decode(ids[:s.tokenBudget])
	if err != nil {
		return "", fmt.Errorf("failed to detokenize transcript: %w", err)
	}
	return truncated, nil
}
