package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sweetpotato0/roundtable/errors"
	"github.com/sweetpotato0/roundtable/transcript"
)

// FileStore writes one JSON document per session to a directory. Records are
// written atomically via a temp file and rename, so a flushed transcript is
// never observed half-written.
type FileStore struct {
	dir string
}

// FileConfig holds file store configuration.
type FileConfig struct {
	Dir string
}

// DefaultFileConfig returns default file store configuration.
func DefaultFileConfig() *FileConfig {
	return &FileConfig{Dir: "transcripts"}
}

// NewFileStore creates a file-based transcript store rooted at config.Dir.
func NewFileStore(config *FileConfig) (*FileStore, error) {
	if config == nil {
		config = DefaultFileConfig()
	}
	if err := os.MkdirAll(config.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create transcript directory: %w", err)
	}
	return &FileStore{dir: config.Dir}, nil
}

// Save writes the record and returns the file path.
func (s *FileStore) Save(ctx context.Context, record *transcript.Record) (string, error) {
	if record == nil || record.ID == "" {
		return "", fmt.Errorf("transcript record cannot be nil")
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal transcript record: %w", err)
	}

	path := s.recordPath(record.ID)
	tmp, err := os.CreateTemp(s.dir, record.ID+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close transcript file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to move transcript into place: %w", err)
	}

	return path, nil
}

// Load reads a previously flushed record.
func (s *FileStore) Load(ctx context.Context, id string) (*transcript.Record, error) {
	data, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	var record transcript.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode transcript record: %w", err)
	}
	return &record, nil
}

func (s *FileStore) recordPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}
