package memory

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/krishg0kul/genai-multi-agent/errors"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS chat_memory (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    TEXT    NOT NULL,
	role       TEXT    NOT NULL,
	content    TEXT    NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_memory_user ON chat_memory(user_id, id);
`

// SQLiteStore keeps every user's history in a single SQLite table.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if necessary) the database at path. Use
// ":memory:" for a throwaway store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrapf(err, "could not create memory directory")
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite memory %s", path)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to migrate sqlite memory")
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Append(ctx context.Context, userID string, msgs []Message) error {
	if err := Validate(msgs); err != nil {
		return err
	}
	id, err := NormalizeUserID(userID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to begin memory transaction")
	}
	defer tx.Rollback()

	now := s.now().UTC().UnixNano()
	for _, m := range msgs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chat_memory (user_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
			id, string(m.Role), m.Content, now); err != nil {
			return errors.Wrapf(err, "failed to insert memory entry")
		}
	}
	return errors.Wrapf(tx.Commit(), "failed to commit memory entries")
}

func (s *SQLiteStore) ReadAll(ctx context.Context, userID string) ([]Entry, error) {
	id, err := NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM chat_memory WHERE user_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query memory for %s", id)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			role, content string
			created       int64
		)
		if err := rows.Scan(&role, &content, &created); err != nil {
			return nil, errors.Wrapf(err, "failed to scan memory row")
		}
		entries = append(entries, Entry{Role: Role(role), Content: content, Timestamp: time.Unix(0, created).UTC()})
	}
	return entries, errors.Wrapf(rows.Err(), "failed to read memory rows")
}

func (s *SQLiteStore) Clear(ctx context.Context, userID string) (bool, error) {
	id, err := NormalizeUserID(userID)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_memory WHERE user_id = ?`, id)
	if err != nil {
		return false, errors.Wrapf(err, "failed to clear memory for %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrapf(err, "failed to count cleared rows")
	}
	return n > 0, nil
}
