package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/labelsync/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// KVStorage implements the KeyValueStorage interface for Badger
type KVStorage struct {
	store  *badgerhold.Store
	logger arbor.ILogger
}

// NewKVStorage creates a new KVStorage instance
func NewKVStorage(store *badgerhold.Store, logger arbor.ILogger) interfaces.KeyValueStorage {
	return &KVStorage{
		store:  store,
		logger: logger,
	}
}

// normalizeKey converts a key to lowercase for case-insensitive storage
func (s *KVStorage) normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Get retrieves a value by key (case-insensitive)
func (s *KVStorage) Get(ctx context.Context, key string) (string, error) {
	pair, err := s.getPair(key)
	if err != nil {
		return "", err
	}
	return pair.Value, nil
}

func (s *KVStorage) getPair(key string) (*interfaces.KeyValuePair, error) {
	normalizedKey := s.normalizeKey(key)
	var pair interfaces.KeyValuePair
	err := s.store.Get(normalizedKey, &pair)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", normalizedKey, err)
	}

	return &pair, nil
}

// Set inserts or updates a key/value pair (case-insensitive)
func (s *KVStorage) Set(ctx context.Context, key string, value string, description string) error {
	normalizedKey := s.normalizeKey(key)
	now := time.Now()

	pair := interfaces.KeyValuePair{
		Key:         normalizedKey,
		Value:       value,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Preserve CreatedAt across updates
	var existing interfaces.KeyValuePair
	err := s.store.Get(normalizedKey, &existing)
	if err == nil {
		pair.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to check key existence: %w", err)
	}

	if err := s.store.Upsert(normalizedKey, &pair); err != nil {
		return fmt.Errorf("failed to set key %s: %w", normalizedKey, err)
	}

	s.logger.Trace().Str("key", normalizedKey).Int("bytes", len(value)).Msg("Key/value stored")
	return nil
}
