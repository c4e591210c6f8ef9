// Package imagegen wraps the text-to-image service for the pipeline's final
// stage.
package imagegen

import (
	"context"
	"log/slog"

	"github.com/oneiriclabs/reverie/internal/api/clipdrop"
	"github.com/oneiriclabs/reverie/internal/domain"
)

// Variant selects the integration shape of the image service.
type Variant string

const (
	// VariantURL expects a JSON response carrying a hosted image URL.
	VariantURL Variant = "url"
	// VariantBytes expects raw image bytes in the response body.
	VariantBytes Variant = "bytes"
)

// Generator produces one image artifact per prompt. A generation failure is
// not pipeline-fatal: it is logged and reported as a nil artifact so the
// caller keeps the partial results produced by earlier stages.
type Generator struct {
	client  *clipdrop.Client
	variant Variant
	params  *clipdrop.GenerationParams
	logger  *slog.Logger
}

// New creates a Generator.
func New(apiKey string, variant Variant, params *clipdrop.GenerationParams, logger *slog.Logger, opts ...clipdrop.ClientOption) (*Generator, error) {
	if apiKey == "" {
		return nil, domain.ErrConfiguration("image API key is not set")
	}
	switch variant {
	case VariantURL, VariantBytes:
	case "":
		variant = VariantURL
	default:
		return nil, domain.ErrConfiguration("unknown image variant " + string(variant))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		client:  clipdrop.NewClient(apiKey, opts...),
		variant: variant,
		params:  params,
		logger:  logger,
	}, nil
}

// Generate requests one image for the prompt. Exactly one of the returned
// artifact's URL or Data is set, matching the configured variant. On an
// upstream failure it returns (nil, nil) after logging; a nil artifact is
// the explicit no-image signal.
func (g *Generator) Generate(ctx context.Context, prompt string) (*domain.ImageArtifact, error) {
	switch g.variant {
	case VariantBytes:
		data, err := g.client.TextToImage(ctx, prompt, g.params)
		if err != nil {
			g.logger.Error("image generation failed",
				slog.String("variant", string(g.variant)),
				slog.String("error", err.Error()))
			return nil, nil
		}
		return &domain.ImageArtifact{Data: data}, nil
	default:
		url, err := g.client.TextToImageURL(ctx, prompt, g.params)
		if err != nil {
			g.logger.Error("image generation failed",
				slog.String("variant", string(g.variant)),
				slog.String("error", err.Error()))
			return nil, nil
		}
		return &domain.ImageArtifact{URL: url}, nil
	}
}
