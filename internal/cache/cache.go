// Package cache provides durable bookkeeping of processed report files,
// backed by a single JSON document rewritten in full on every write.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rijnhardtkotze/icann-reports/internal/fileutils"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger allows setting a configured logger
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

const processedFilesKey = "processed_files"

// Store manages the processed-file cache. Writers are serialized by an
// internal mutex: workers from the ingestion pool report completions
// concurrently and the backing document is rewritten whole each time.
type Store struct {
	mu       sync.Mutex
	filePath string
	data     map[string]json.RawMessage
}

// NewStore loads the cache document at filePath, starting empty when the
// file does not exist or cannot be read
func NewStore(filePath string) *Store {
	s := &Store{
		filePath: filePath,
		data:     make(map[string]json.RawMessage),
	}
	s.load()
	return s
}

func (s *Store) load() {
	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warn("Failed to load cache")
		}
		return
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		log.WithError(err).Warn("Failed to parse cache, starting empty")
		s.data = make(map[string]json.RawMessage)
	}
}

// saveLocked rewrites the cache document. Callers must hold mu.
func (s *Store) saveLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling cache: %w", err)
	}
	if err := fileutils.WriteFile(s.filePath, raw, 0600); err != nil {
		return fmt.Errorf("error writing cache: %w", err)
	}
	return nil
}

func (s *Store) processedLocked() map[string]map[string]interface{} {
	processed := make(map[string]map[string]interface{})
	if raw, ok := s.data[processedFilesKey]; ok {
		if err := json.Unmarshal(raw, &processed); err != nil {
			log.WithError(err).Warn("Failed to parse processed files record")
		}
	}
	return processed
}

// IsProcessed reports whether a file has already been processed
func (s *Store) IsProcessed(fileName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.processedLocked()[fileName]
	return ok
}

// MarkProcessed records a file as processed along with metadata about the
// run, stamping the record with the current time
func (s *Store) MarkProcessed(fileName string, metadata map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	processed := s.processedLocked()
	record := map[string]interface{}{
		"timestamp": time.Now().Unix(),
	}
	for key, value := range metadata {
		record[key] = value
	}
	processed[fileName] = record

	raw, err := json.Marshal(processed)
	if err != nil {
		log.WithError(err).Warn("Failed to marshal processed files record")
		return
	}
	s.data[processedFilesKey] = raw

	if err := s.saveLocked(); err != nil {
		log.WithError(err).Warn("Failed to save cache")
	}
}

// ProcessedMetadata returns the stored metadata for a processed file, or nil
// when the file is not in the cache
func (s *Store) ProcessedMetadata(fileName string) map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.processedLocked()[fileName]; ok {
		return record
	}
	return nil
}

// Put stores an arbitrary JSON-serializable value under a key
func (s *Store) Put(key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("error marshaling value for key %s: %w", key, err)
	}
	s.data[key] = raw
	return s.saveLocked()
}

// Get retrieves a value stored under a key into out, reporting whether the
// key was present
func (s *Store) Get(key string, out interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.data[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("error unmarshaling value for key %s: %w", key, err)
	}
	return true, nil
}
