package pipeline

import (
	"log/slog"

	"github.com/oneiriclabs/reverie/internal/api/clipdrop"
	"github.com/oneiriclabs/reverie/internal/api/groq"
	"github.com/oneiriclabs/reverie/internal/api/mistral"
	"github.com/oneiriclabs/reverie/internal/artprompt"
	"github.com/oneiriclabs/reverie/internal/classify"
	"github.com/oneiriclabs/reverie/internal/config"
	"github.com/oneiriclabs/reverie/internal/imagegen"
	"github.com/oneiriclabs/reverie/internal/transcribe"
)

// NewFromConfig builds an orchestrator with the real stage implementations.
// Missing credentials surface here as configuration errors, before any
// request is served.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Orchestrator, error) {
	var groqOpts []groq.ClientOption
	if cfg.Transcription.BaseURL != "" {
		groqOpts = append(groqOpts, groq.WithBaseURL(cfg.Transcription.BaseURL))
	}
	transcriber, err := transcribe.New(cfg.Transcription.APIKey, cfg.Transcription.Model, groqOpts...)
	if err != nil {
		return nil, err
	}

	var chatOpts []mistral.ClientOption
	if cfg.Chat.BaseURL != "" {
		chatOpts = append(chatOpts, mistral.WithBaseURL(cfg.Chat.BaseURL))
	}
	classifier, err := classify.New(cfg.Chat.APIKey, cfg.Chat.Model, chatOpts...)
	if err != nil {
		return nil, err
	}
	synthesizer, err := artprompt.New(cfg.Chat.APIKey, cfg.Chat.Model, chatOpts...)
	if err != nil {
		return nil, err
	}

	var imageOpts []clipdrop.ClientOption
	if cfg.Image.BaseURL != "" {
		imageOpts = append(imageOpts, clipdrop.WithBaseURL(cfg.Image.BaseURL))
	}
	generator, err := imagegen.New(
		cfg.Image.APIKey,
		imagegen.Variant(cfg.Image.Variant),
		cfg.Image.Params(),
		logger,
		imageOpts...,
	)
	if err != nil {
		return nil, err
	}

	return New(transcriber, classifier, synthesizer, generator, logger), nil
}
