package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/oneiriclabs/reverie/internal/domain"
)

// SQLiteStore is the relational history backend. Each append is a single
// insert, covered by the database's transaction guarantee.
type SQLiteStore struct {
	db    *sql.DB
	clock monotonicClock
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS dreams (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			transcription TEXT NOT NULL,
			emotions TEXT NOT NULL,
			dominant_emotion TEXT NOT NULL,
			image_prompt TEXT,
			image_url TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dreams_created ON dreams(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Append(ctx context.Context, record *domain.DreamRecord) error {
	s.clock.stamp(record)

	emotions, err := json.Marshal(record.Emotions)
	if err != nil {
		return domain.ErrPersistence("failed to marshal emotions", err)
	}

	query := `INSERT INTO dreams (transcription, emotions, dominant_emotion, image_prompt, image_url, created_at)
	          VALUES (?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		record.Transcription, string(emotions), record.DominantEmotion,
		record.ImagePrompt, record.ImageURL, record.Timestamp.Format(timeLayout))
	if err != nil {
		return domain.ErrPersistence("failed to insert dream record", err)
	}
	return nil
}

func (s *SQLiteStore) ListAll(ctx context.Context) ([]domain.DreamRecord, error) {
	query := `SELECT transcription, emotions, dominant_emotion, image_prompt, image_url, created_at
	          FROM dreams ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query dreams: %w", err)
	}
	defer rows.Close()

	records := []domain.DreamRecord{}
	for rows.Next() {
		var rec domain.DreamRecord
		var emotionsJSON, createdAt string
		var imagePrompt, imageURL sql.NullString

		if err := rows.Scan(&rec.Transcription, &emotionsJSON, &rec.DominantEmotion,
			&imagePrompt, &imageURL, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan dream record: %w", err)
		}

		if err := json.Unmarshal([]byte(emotionsJSON), &rec.Emotions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal emotions: %w", err)
		}
		rec.Timestamp, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		rec.ImagePrompt = imagePrompt.String
		rec.ImageURL = imageURL.String

		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
