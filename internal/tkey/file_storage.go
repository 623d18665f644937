package tkey

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStorage keeps one JSON metadata document per key in a directory
type FileStorage struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

// NewFileStorage creates a FileStorage rooted at dir
func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{dir: dir, now: time.Now}
}

func (s *FileStorage) path(keyID string) string {
	return filepath.Join(s.dir, keyID+".json")
}

// GetMetadata implements StorageLayer
func (s *FileStorage) GetMetadata(ctx context.Context, privKey []byte) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keyID, err := MetadataKeyID(privKey)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(keyID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return &md, nil
}

// SetMetadata implements StorageLayer
func (s *FileStorage) SetMetadata(ctx context.Context, params SetMetadataParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	keyID, err := validateSetParams(params)
	if err != nil {
		return err
	}

	md := params.Input.clone()
	md.UpdatedAt = s.now().UTC()

	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create metadata dir: %w", err)
	}

	// Write to a temp file first so a crash never leaves a truncated record
	tmp := s.path(keyID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	if err := os.Rename(tmp, s.path(keyID)); err != nil {
		return fmt.Errorf("failed to replace metadata: %w", err)
	}
	return nil
}
