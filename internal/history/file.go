package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/oneiriclabs/reverie/internal/domain"
)

// FileStore is the document-file history backend: a single JSON array,
// rewritten in full on every append. The read-modify-write cycle is not
// synchronized across processes; it is only suitable for a single-user,
// single-process deployment.
type FileStore struct {
	path  string
	clock monotonicClock
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store backed by the JSON file at path. The file is
// created lazily on first append.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Append(ctx context.Context, record *domain.DreamRecord) error {
	s.clock.stamp(record)

	records, err := s.read()
	if err != nil {
		return domain.ErrPersistence("failed to read history file", err)
	}
	records = append(records, *record)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return domain.ErrPersistence("failed to marshal history", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return domain.ErrPersistence("failed to create history directory", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return domain.ErrPersistence("failed to write history file", err)
	}
	return nil
}

func (s *FileStore) ListAll(ctx context.Context) ([]domain.DreamRecord, error) {
	records, err := s.read()
	if err != nil {
		return nil, err
	}

	// The file holds records in append order. Reverse before the stable
	// sort so records sharing a timestamp come back latest-append first.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	return records, nil
}

func (s *FileStore) Close() error {
	return nil
}

// read loads the full array, tolerating a missing or empty file.
func (s *FileStore) read() ([]domain.DreamRecord, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []domain.DreamRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	if len(data) == 0 {
		return []domain.DreamRecord{}, nil
	}

	var records []domain.DreamRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("history file is corrupt: %w", err)
	}
	return records, nil
}
