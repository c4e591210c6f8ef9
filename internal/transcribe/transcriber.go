// Package transcribe wraps the speech-to-text service for the pipeline's
// first stage.
package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oneiriclabs/reverie/internal/api/groq"
	"github.com/oneiriclabs/reverie/internal/domain"
)

// DefaultLanguage is used when the caller supplies no language hint.
const DefaultLanguage = "fr"

// literalPrompt steers the decoder toward a faithful transcript instead of a
// paraphrase, keeping every detail of the recounted dream.
const literalPrompt = "Transcribe the spoken dream literally and factually, " +
	"keeping every detail of the account. Do not summarize or paraphrase."

// acceptedExtensions is the set of audio containers the stage accepts.
// Anything else is rejected before a network call is made.
var acceptedExtensions = map[string]bool{
	".wav": true,
	".mp3": true,
	".m4a": true,
	".ogg": true,
}

// Transcriber converts one audio file into transcript text via a remote
// speech-to-text call.
type Transcriber struct {
	client *groq.Client
	model  string
}

// New creates a Transcriber. The API key must be present; credentials are a
// startup concern, not a per-request one.
func New(apiKey, model string, opts ...groq.ClientOption) (*Transcriber, error) {
	if apiKey == "" {
		return nil, domain.ErrConfiguration("transcription API key is not set")
	}
	if model == "" {
		model = "whisper-large-v3-turbo"
	}
	return &Transcriber{
		client: groq.NewClient(apiKey, opts...),
		model:  model,
	}, nil
}

// Transcribe uploads the audio at audioPath and returns the transcript.
// Decoding is deterministic (temperature 0) with segment and word level
// timestamps requested; only the text is consumed downstream.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	ext := strings.ToLower(filepath.Ext(audioPath))
	if !acceptedExtensions[ext] {
		return "", fmt.Errorf("unsupported audio container %q (accepted: wav, mp3, m4a, ogg)", ext)
	}

	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to read audio file: %w", err)
	}

	if language == "" {
		language = DefaultLanguage
	}

	resp, err := t.client.CreateTranscription(ctx, &groq.TranscriptionRequest{
		Audio:                  audio,
		Filename:               audioPath,
		Model:                  t.model,
		Prompt:                 literalPrompt,
		Language:               language,
		ResponseFormat:         "verbose_json",
		Temperature:            0,
		TimestampGranularities: []string{"segment", "word"},
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
