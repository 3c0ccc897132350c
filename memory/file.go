package memory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/krishg0kul/genai-multi-agent/errors"
	"github.com/rs/zerolog/log"
)

// FileStore keeps one pretty-printed JSON array per user in dir.
type FileStore struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "could not create memory directory %s", dir)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

func (s *FileStore) path(userID string) (string, error) {
	id, err := NormalizeUserID(userID)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, id+".json"), nil
}

// Append validates msgs, stamps them and appends them to the user's file.
func (s *FileStore) Append(ctx context.Context, userID string, msgs []Message) error {
	if err := Validate(msgs); err != nil {
		return err
	}
	path, err := s.path(userID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := readFile(path)
	if err != nil {
		return err
	}
	entries = append(entries, stamp(msgs, s.now().UTC())...)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to serialize memory for %s", userID)
	}
	// Write to a temp file first so a crash never leaves a truncated history.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write memory file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "failed to replace memory file")
	}

	log.Debug().Str("user", userID).Int("added", len(msgs)).Int("total", len(entries)).Msg("memory appended")
	return nil
}

// ReadAll returns the user's entries oldest first; an unknown user has none.
func (s *FileStore) ReadAll(ctx context.Context, userID string) ([]Entry, error) {
	path, err := s.path(userID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return readFile(path)
}

// Clear deletes the user's file and reports whether one existed.
func (s *FileStore) Clear(ctx context.Context, userID string) (bool, error) {
	path, err := s.path(userID)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "failed to clear memory for %s", userID)
	}
	return true, nil
}

func readFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "could not read memory file %s", path)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrapf(err, "could not parse memory file %s", path)
	}
	return entries, nil
}
