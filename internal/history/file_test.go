package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/oneiriclabs/reverie/internal/domain"
)

func TestFileStore_MissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "never-written.json"))

	records, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() on missing file error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("ListAll() on missing file returned %d records, want 0", len(records))
	}
}

func TestFileStore_AppendRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "history.json"))

	rec := &domain.DreamRecord{
		Transcription: "Un couloir sans fin aux portes closes.",
		Emotions: map[string]float64{
			"happy": 0.02, "stressful": 0.61, "neutral": 0.05,
			"mysterious": 0.27, "nostalgic": 0.05,
		},
		DominantEmotion: "stressful",
		ImagePrompt:     "an endless corridor of locked doors, dim light",
	}

	if err := store.Append(context.Background(), rec); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	records, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("ListAll() returned %d records, want 1", len(records))
	}

	got := records[0]
	if got.Transcription != rec.Transcription {
		t.Errorf("Transcription = %q, want %q", got.Transcription, rec.Transcription)
	}
	if got.DominantEmotion != rec.DominantEmotion {
		t.Errorf("DominantEmotion = %q, want %q", got.DominantEmotion, rec.DominantEmotion)
	}
	for label, p := range rec.Emotions {
		if got.Emotions[label] != p {
			t.Errorf("Emotions[%q] = %v, want %v", label, got.Emotions[label], p)
		}
	}
}

func TestFileStore_TwoSubmissionsNewestFirst(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "history.json"))

	for _, text := range []string{"first dream", "second dream"} {
		rec := &domain.DreamRecord{
			Transcription:   text,
			Emotions:        map[string]float64{"neutral": 1},
			DominantEmotion: "neutral",
		}
		if err := store.Append(context.Background(), rec); err != nil {
			t.Fatalf("Append(%q) error = %v", text, err)
		}
	}

	records, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ListAll() returned %d records, want 2", len(records))
	}
	if records[0].Transcription != "second dream" || records[1].Transcription != "first dream" {
		t.Errorf("records not newest-first: %q then %q",
			records[0].Transcription, records[1].Transcription)
	}
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	writer := NewFileStore(path)
	rec := &domain.DreamRecord{
		Transcription:   "a dream that outlives the process",
		Emotions:        map[string]float64{"nostalgic": 1},
		DominantEmotion: "nostalgic",
	}
	if err := writer.Append(context.Background(), rec); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	reader := NewFileStore(path)
	records, err := reader.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() from fresh instance error = %v", err)
	}
	if len(records) != 1 || records[0].Transcription != rec.Transcription {
		t.Errorf("record did not survive reopen: %+v", records)
	}
}
