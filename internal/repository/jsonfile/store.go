// Package jsonfile keeps FileMetadata records as one JSON array on disk.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/andresuchdata/serverless-sim/internal/domain"
	"github.com/andresuchdata/serverless-sim/internal/repository"
	"github.com/rs/zerolog/log"
)

type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// PutItem appends item and rewrites the file.
func (s *Store) PutItem(ctx context.Context, item *domain.FileMetadata) error {
	if item == nil {
		return fmt.Errorf("nil item")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.read()
	items = append(items, item)
	return s.write(items)
}

func (s *Store) ListItems(ctx context.Context) ([]*domain.FileMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read(), nil
}

func (s *Store) GetItem(ctx context.Context, filename string) (*domain.FileMetadata, error) {
	items, err := s.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Filename == filename {
			return items[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", repository.ErrItemNotFound, filename)
}

// read treats a missing or unparsable file as an empty table.
func (s *Store) read() []*domain.FileMetadata {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []*domain.FileMetadata{}
	}
	if err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("failed to read metadata store")
		return []*domain.FileMetadata{}
	}

	var items []*domain.FileMetadata
	if err := json.Unmarshal(data, &items); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("metadata store is not valid JSON, starting empty")
		return []*domain.FileMetadata{}
	}
	if items == nil {
		items = []*domain.FileMetadata{}
	}
	return items
}

func (s *Store) write(items []*domain.FileMetadata) error {
	payload, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating metadata store directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".db-*.json")
	if err != nil {
		return fmt.Errorf("creating temp metadata store: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing metadata store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing metadata store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("committing metadata store: %w", err)
	}
	return nil
}

var _ repository.MetadataRepository = (*Store)(nil)
