package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"rental-notifier/models"
)

const (
	knownFile   = "links.json"
	retryFile   = "retry.json"
	listingsDir = "properties"
)

// FileStore keeps the known set as a JSON list and one JSON document per
// listing under dir/properties.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory layout under dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, listingsDir), 0755); err != nil {
		return nil, fmt.Errorf("filestore: create dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// listingPath escapes the id so ids containing "/" map to a single file.
func (s *FileStore) listingPath(id string) string {
	return filepath.Join(s.dir, listingsDir, url.PathEscape(id)+".json")
}

func (s *FileStore) Contains(_ context.Context, id string) (bool, error) {
	_, err := os.Stat(s.listingPath(id))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("filestore: stat %q: %w", id, err)
}

func (s *FileStore) Get(_ context.Context, id string) (*models.Listing, error) {
	data, err := os.ReadFile(s.listingPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: read %q: %w", id, err)
	}
	var l models.Listing
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("filestore: decode %q: %w", id, err)
	}
	return &l, nil
}

// Put writes the record to a temp file and links it into place, so a reader
// never sees a partial record and an existing one is never replaced.
func (s *FileStore) Put(_ context.Context, l *models.Listing) error {
	data, err := json.MarshalIndent(l, "", "    ")
	if err != nil {
		return fmt.Errorf("filestore: encode %q: %w", l.ID, err)
	}
	target := s.listingPath(l.ID)
	if _, err := os.Stat(target); err == nil {
		return ErrExists
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".put-*.tmp")
	if err != nil {
		return fmt.Errorf("filestore: create temp for %q: %w", l.ID, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("filestore: write %q: %w", l.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filestore: close %q: %w", l.ID, err)
	}
	if err := os.Link(tmp.Name(), target); err != nil {
		if errors.Is(err, os.ErrExist) {
			return ErrExists
		}
		return fmt.Errorf("filestore: publish %q: %w", l.ID, err)
	}
	return nil
}

func (s *FileStore) LoadKnown(_ context.Context) ([]string, bool, error) {
	ids, err := s.readList(knownFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return ids, true, nil
}

func (s *FileStore) SaveKnown(_ context.Context, ids []string) error {
	return s.writeList(knownFile, ids)
}

func (s *FileStore) LoadRetry(_ context.Context) ([]string, error) {
	ids, err := s.readList(retryFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return ids, err
}

func (s *FileStore) SaveRetry(_ context.Context, ids []string) error {
	return s.writeList(retryFile, ids)
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) readList(name string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("filestore: decode %s: %w", name, err)
	}
	return ids, nil
}

// writeList replaces the file atomically so a crash never leaves a truncated set.
func (s *FileStore) writeList(name string, ids []string) error {
	sorted := append([]string{}, ids...)
	sort.Strings(sorted)

	data, err := json.MarshalIndent(sorted, "", "    ")
	if err != nil {
		return fmt.Errorf("filestore: encode %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("filestore: create temp for %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("filestore: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("filestore: close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("filestore: replace %s: %w", name, err)
	}
	return nil
}
