// Package cache stores small JSON documents in the hostpulse cache directory.
// The sampler's latest snapshot is published here so one-shot commands can
// read it without sampling themselves.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store is a flat directory of <key>.json files:
//
//	~/.cache/hostpulse/
//	  sysmetrics.json
//	  hostpulse.log
type Store struct {
	dir    string
	logger *slog.Logger
}

// Entry is a cached document and how old it is.
type Entry struct {
	Raw     json.RawMessage
	Written time.Time
	Age     time.Duration
	Fresh   bool
}

// NewStore creates a store at dir, creating the directory with 0700
// permissions if needed. If logger is nil, a no-op logger is used.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("cache: create directory %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the file backing key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get reads key. A missing key returns a nil Entry and no error. An entry is
// fresh when it was written less than ttl ago. A file holding invalid JSON is
// removed and reported as a miss.
func (s *Store) Get(key string, ttl time.Duration) (*Entry, error) {
	path := s.Path(key)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache: stat %s: %w", key, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cache: read %s: %w", key, err)
	}
	if !json.Valid(data) {
		s.logger.Warn("cache: removing corrupted entry", slog.String("key", key))
		_ = os.Remove(path)
		return nil, nil
	}

	age := time.Since(info.ModTime())
	return &Entry{
		Raw:     json.RawMessage(data),
		Written: info.ModTime(),
		Age:     age,
		Fresh:   age < ttl,
	}, nil
}

// Set encodes v and replaces key atomically, so a concurrent reader sees
// either the old document or the new one.
func (s *Store) Set(key string, v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}
	if err := writeFileAtomic(s.dir, s.Path(key), encoded); err != nil {
		return fmt.Errorf("cache: write %s: %w", key, err)
	}
	return nil
}

// writeFileAtomic writes data to a 0600 temp file in dir and renames it over
// path.
func writeFileAtomic(dir, path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if err = tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// GetTyped reads key and decodes it into a T. A document that no longer
// decodes (for example after a schema change) is removed and reported as a
// miss, like a corrupted file.
func GetTyped[T any](s *Store, key string, ttl time.Duration) (*T, *Entry, error) {
	entry, err := s.Get(key, ttl)
	if err != nil || entry == nil {
		return nil, nil, err
	}

	var out T
	if err := json.Unmarshal(entry.Raw, &out); err != nil {
		s.logger.Warn("cache: removing entry with unmarshal error",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		_ = os.Remove(s.Path(key))
		return nil, nil, nil
	}
	return &out, entry, nil
}

// SetTyped encodes and stores a T.
func SetTyped[T any](s *Store, key string, v *T) error {
	return s.Set(key, v)
}

// Remove deletes key. Removing a missing key is not an error.
func (s *Store) Remove(key string) error {
	if err := os.Remove(s.Path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cache: remove %s: %w", key, err)
	}
	return nil
}

// Keys lists the stored keys, skipping in-flight temp files.
func (s *Store) Keys() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".tmp-") || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	return keys
}
