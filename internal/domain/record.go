// Package domain holds the core types shared across the pipeline,
// the history store, and the transport layer.
package domain

import "time"

// Emotion labels form a closed vocabulary. The classifier must return
// exactly this set; anything else is treated as a parse error.
const (
	EmotionHappy      = "happy"
	EmotionStressful  = "stressful"
	EmotionNeutral    = "neutral"
	EmotionMysterious = "mysterious"
	EmotionNostalgic  = "nostalgic"
)

// EmotionLabels lists the closed vocabulary in lexicographic order.
var EmotionLabels = []string{
	EmotionHappy,
	EmotionMysterious,
	EmotionNeutral,
	EmotionNostalgic,
	EmotionStressful,
}

// DreamRecord is the unit of persisted state. Records are immutable once
// written; the history store exposes no update or delete operation.
type DreamRecord struct {
	Transcription   string             `json:"transcription"`
	Emotions        map[string]float64 `json:"emotions"`
	DominantEmotion string             `json:"dominant_emotion"`
	ImagePrompt     string             `json:"image_prompt,omitempty"`
	ImageURL        string             `json:"image_url,omitempty"`
	Timestamp       time.Time          `json:"timestamp"`
}

// ImageArtifact is the output of the image generation stage. Exactly one of
// URL or Data is set, depending on the integration variant. The persisted
// representation is always the URL; raw bytes live only on the transient
// result.
type ImageArtifact struct {
	URL  string
	Data []byte
}

// Empty reports whether the artifact carries neither a URL nor bytes.
func (a *ImageArtifact) Empty() bool {
	return a == nil || (a.URL == "" && len(a.Data) == 0)
}

// Stage identifies a pipeline stage for state tracking and error reporting.
type Stage string

const (
	StageIdle            Stage = "idle"
	StageTranscribing    Stage = "transcribing"
	StageClassifying     Stage = "classifying"
	StagePromptSynthesis Stage = "prompt_synthesis"
	StageImageGenerating Stage = "image_generating"
	StageDone            Stage = "done"
	StageFailed          Stage = "failed"
)

// SynthesisResult is the structured outcome of one pipeline run. It carries
// whichever fields were produced before a failure, so callers can render
// partial results. The orchestrator never propagates a raw error; a failure
// is expressed as Success=false plus a non-empty Err.
type SynthesisResult struct {
	Transcription   string             `json:"transcription,omitempty"`
	Emotions        map[string]float64 `json:"emotions,omitempty"`
	DominantEmotion string             `json:"dominant_emotion,omitempty"`
	ImagePrompt     string             `json:"image_prompt,omitempty"`
	ImageURL        string             `json:"image_url,omitempty"`
	ImageData       []byte             `json:"-"`
	Success         bool               `json:"success"`
	Err             string             `json:"error,omitempty"`
	Stage           Stage              `json:"stage"`
}

// Record builds the persistable DreamRecord from a successful result.
// The timestamp is left zero; the history store assigns it at append time.
func (r *SynthesisResult) Record() *DreamRecord {
	return &DreamRecord{
		Transcription:   r.Transcription,
		Emotions:        r.Emotions,
		DominantEmotion: r.DominantEmotion,
		ImagePrompt:     r.ImagePrompt,
		ImageURL:        r.ImageURL,
	}
}
