// Command reverie runs the synthesis pipeline once for a single audio file,
// prints the result, and saves it to the configured history store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/oneiriclabs/reverie/internal/config"
	"github.com/oneiriclabs/reverie/internal/history"
	"github.com/oneiriclabs/reverie/internal/pipeline"
)

func main() {
	audioPath := flag.String("audio", "", "path to the audio file (wav, mp3, m4a, ogg)")
	language := flag.String("language", "", "transcription language hint (default from config)")
	imageOut := flag.String("image-out", "", "write raw image bytes to this file (bytes variant only)")
	noSave := flag.Bool("no-save", false, "skip appending the result to history")
	flag.Parse()

	if *audioPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	orch, err := pipeline.NewFromConfig(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	lang := *language
	if lang == "" {
		lang = cfg.Transcription.Language
	}

	result := orch.Synthesize(context.Background(), *audioPath, lang)
	if !result.Success {
		fmt.Fprintf(os.Stderr, "synthesis failed at %s stage: %s\n", result.Stage, result.Err)
		if result.Transcription != "" {
			fmt.Printf("Partial transcription:\n%s\n", result.Transcription)
		}
		os.Exit(1)
	}

	fmt.Printf("Transcription:\n%s\n\n", result.Transcription)
	fmt.Printf("Emotions:\n")
	for label, p := range result.Emotions {
		fmt.Printf("  %-12s %.4f\n", label, p)
	}
	fmt.Printf("Dominant emotion: %s\n", result.DominantEmotion)
	if result.ImagePrompt != "" {
		fmt.Printf("\nImage prompt:\n%s\n", result.ImagePrompt)
	}
	if result.ImageURL != "" {
		fmt.Printf("\nImage URL: %s\n", result.ImageURL)
	}
	if len(result.ImageData) > 0 && *imageOut != "" {
		if err := os.WriteFile(*imageOut, result.ImageData, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write image: %v\n", err)
		} else {
			fmt.Printf("\nImage written to %s\n", *imageOut)
		}
	}

	if *noSave {
		return
	}

	store, err := history.New(cfg.Storage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: history store unavailable, result not saved: %v\n", err)
		return
	}
	defer store.Close()

	if err := store.Append(context.Background(), result.Record()); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save dream to history: %v\n", err)
		return
	}
	fmt.Println("\nDream saved to history.")
}
