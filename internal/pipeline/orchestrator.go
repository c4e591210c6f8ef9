// Package pipeline sequences the four synthesis stages and converts any
// stage failure into a structured result.
package pipeline

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/oneiriclabs/reverie/internal/domain"
	"github.com/oneiriclabs/reverie/internal/emotion"
)

// Transcriber is the first stage: audio file to transcript text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) (string, error)
}

// Classifier is the second stage: transcript to a normalized emotion
// probability distribution.
type Classifier interface {
	Classify(ctx context.Context, transcript string) (map[string]float64, error)
}

// PromptSynthesizer is the third stage: transcript to an art prompt.
type PromptSynthesizer interface {
	Synthesize(ctx context.Context, transcript string) (string, error)
}

// ImageGenerator is the final stage: art prompt to an image artifact. A nil
// artifact with a nil error is the explicit no-image signal.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (*domain.ImageArtifact, error)
}

// Orchestrator runs the stages in order, advancing only while the previous
// stage succeeded. On the first error it stops in the failed state with the
// error message captured; later stages are never attempted and no raw error
// ever reaches the caller.
type Orchestrator struct {
	transcriber Transcriber
	classifier  Classifier
	synthesizer PromptSynthesizer
	generator   ImageGenerator
	logger      *slog.Logger
	tracer      trace.Tracer
}

// New creates an Orchestrator over the four stages.
func New(t Transcriber, c Classifier, p PromptSynthesizer, g ImageGenerator, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		transcriber: t,
		classifier:  c,
		synthesizer: p,
		generator:   g,
		logger:      logger,
		tracer:      otel.Tracer("reverie/pipeline"),
	}
}

// Synthesize runs the full pipeline for one audio submission. The returned
// result carries whichever fields were produced before a failure, the
// terminal stage, a success flag, and the error message when Success is
// false.
func (o *Orchestrator) Synthesize(ctx context.Context, audioPath, language string) *domain.SynthesisResult {
	result := &domain.SynthesisResult{Stage: domain.StageIdle}

	result.Stage = domain.StageTranscribing
	transcript, err := runStage(o, ctx, "transcribe", func(ctx context.Context) (string, error) {
		return o.transcriber.Transcribe(ctx, audioPath, language)
	})
	if err != nil {
		return o.fail(result, err)
	}
	result.Transcription = transcript

	result.Stage = domain.StageClassifying
	emotions, err := runStage(o, ctx, "classify", func(ctx context.Context) (map[string]float64, error) {
		return o.classifier.Classify(ctx, transcript)
	})
	if err != nil {
		return o.fail(result, err)
	}
	result.Emotions = emotions
	result.DominantEmotion = emotion.Dominant(emotions)

	result.Stage = domain.StagePromptSynthesis
	prompt, err := runStage(o, ctx, "synthesize_prompt", func(ctx context.Context) (string, error) {
		return o.synthesizer.Synthesize(ctx, transcript)
	})
	if err != nil {
		return o.fail(result, err)
	}
	result.ImagePrompt = prompt

	result.Stage = domain.StageImageGenerating
	artifact, err := runStage(o, ctx, "generate_image", func(ctx context.Context) (*domain.ImageArtifact, error) {
		return o.generator.Generate(ctx, prompt)
	})
	if err != nil {
		return o.fail(result, err)
	}
	if !artifact.Empty() {
		result.ImageURL = artifact.URL
		result.ImageData = artifact.Data
	}

	result.Stage = domain.StageDone
	result.Success = true
	return result
}

// runStage executes one stage inside a span.
func runStage[T any](o *Orchestrator, ctx context.Context, name string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := o.tracer.Start(ctx, name)
	defer span.End()

	out, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

func (o *Orchestrator) fail(result *domain.SynthesisResult, err error) *domain.SynthesisResult {
	o.logger.Error("pipeline stage failed",
		slog.String("stage", string(result.Stage)),
		slog.String("type", string(domain.TypeOf(err))),
		slog.String("error", err.Error()))

	result.Err = err.Error()
	result.Stage = domain.StageFailed
	result.Success = false
	return result
}
