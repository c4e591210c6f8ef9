// Package history persists completed dream records and lists them newest
// first. Two interchangeable backends exist: a SQLite table and a JSON
// document file.
package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oneiriclabs/reverie/internal/config"
	"github.com/oneiriclabs/reverie/internal/domain"
)

// timeLayout is fixed-width so the lexicographic order of stored timestamps
// matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is the persistence contract. Records are immutable once appended;
// there is no update or delete.
type Store interface {
	// Append durably persists one record. A zero timestamp is assigned at
	// append time; timestamps never decrease within a process.
	Append(ctx context.Context, record *domain.DreamRecord) error

	// ListAll returns every persisted record, newest first. An empty or
	// missing store yields an empty slice, not an error.
	ListAll(ctx context.Context) ([]domain.DreamRecord, error)

	Close() error
}

// New creates the store selected by configuration.
func New(cfg config.StorageConfig) (Store, error) {
	switch cfg.Type {
	case "sqlite":
		return NewSQLiteStore(cfg.SQLite.Path)
	case "file":
		return NewFileStore(cfg.File.Path), nil
	default:
		return nil, domain.ErrConfiguration(fmt.Sprintf("unknown storage type %q", cfg.Type))
	}
}

// monotonicClock hands out strictly increasing instants, so successive saves
// in one process are unambiguously ordered even when the wall clock stalls
// or steps backwards.
type monotonicClock struct {
	mu   sync.Mutex
	last time.Time
}

func (c *monotonicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC()
	if !now.After(c.last) {
		now = c.last.Add(time.Microsecond)
	}
	c.last = now
	return now
}

// stamp assigns the append timestamp unless the caller supplied one.
func (c *monotonicClock) stamp(record *domain.DreamRecord) {
	if record.Timestamp.IsZero() {
		record.Timestamp = c.Now()
		return
	}
	c.mu.Lock()
	if record.Timestamp.After(c.last) {
		c.last = record.Timestamp
	}
	c.mu.Unlock()
}
