package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/toolturn/toolturn/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	conversation_id TEXT NOT NULL PRIMARY KEY,
	transcript      TEXT NOT NULL,
	updated_at      INTEGER NOT NULL
);
`

// SQLiteStore is a durable Store backed by a single SQLite file. Transcripts
// are stored as one JSON document per conversation; WAL mode keeps
// concurrent readers off the writer's back.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and bootstraps) the store at dataDir/sessions.db,
// creating dataDir if needed. Caller must Close when done.
func OpenSQLite(dataDir string) (*SQLiteStore, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("session store: data dir is required")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}
	dbPath := filepath.Join(dataDir, "sessions.db")
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("session store: open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session store: WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session store: schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, conversationID string) ([]core.Message, error) {
	var transcript string
	err := s.db.QueryRowContext(ctx,
		"SELECT transcript FROM conversations WHERE conversation_id = ?",
		conversationID,
	).Scan(&transcript)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session store: load %s: %w", conversationID, err)
	}

	var msgs []core.Message
	if err := json.Unmarshal([]byte(transcript), &msgs); err != nil {
		return nil, fmt.Errorf("session store: decode %s: %w", conversationID, err)
	}
	return msgs, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, conversationID string, msgs []core.Message) error {
	transcript, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("session store: encode %s: %w", conversationID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (conversation_id, transcript, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (conversation_id) DO UPDATE SET
			transcript = excluded.transcript,
			updated_at = excluded.updated_at
	`, conversationID, string(transcript), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("session store: save %s: %w", conversationID, err)
	}
	return nil
}
