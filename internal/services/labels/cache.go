package labels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/labelsync/internal/interfaces"
)

// LabelsKey is the storage key holding the whole label set as a JSON array
const LabelsKey = "all-context-options"

// CacheWriteError is returned when the label set cannot be written to storage
type CacheWriteError struct {
	Key string
	Err error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("failed to write label cache %s: %v", e.Key, e.Err)
}

func (e *CacheWriteError) Unwrap() error {
	return e.Err
}

// Cache stores the label set under LabelsKey.
// Storage gives no isolation between writers, so when serializeMerges is set
// read-modify-write cycles in this process run one at a time. Writers in other
// processes can still interleave and the last write wins.
type Cache struct {
	kv              interfaces.KeyValueStorage
	serializeMerges bool
	mu              sync.Mutex
	logger          arbor.ILogger
}

// NewCache creates a label cache on top of kv
func NewCache(kv interfaces.KeyValueStorage, serializeMerges bool, logger arbor.ILogger) interfaces.LabelCache {
	return &Cache{
		kv:              kv,
		serializeMerges: serializeMerges,
		logger:          logger,
	}
}

// ReadAll returns the stored labels, or an empty slice when nothing is stored.
// A stored value that is not a JSON string array is treated as empty.
func (c *Cache) ReadAll(ctx context.Context) ([]string, error) {
	value, err := c.kv.Get(ctx, LabelsKey)
	if errors.Is(err, interfaces.ErrKeyNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read label cache: %w", err)
	}

	var labels []string
	if err := json.Unmarshal([]byte(value), &labels); err != nil {
		c.logger.Warn().Err(err).Str("key", LabelsKey).Msg("Stored label set is not a string array, treating as empty")
		return []string{}, nil
	}
	if labels == nil {
		labels = []string{}
	}

	return labels, nil
}

// Overwrite replaces the stored labels
func (c *Cache) Overwrite(ctx context.Context, labels []string) error {
	c.lock()
	defer c.unlock()

	return c.write(ctx, labels)
}

// MergeUpsert removes stored labels equal to any incoming label and appends the batch
func (c *Cache) MergeUpsert(ctx context.Context, labels []string) error {
	c.lock()
	defer c.unlock()

	existing, err := c.ReadAll(ctx)
	if err != nil {
		return err
	}

	incoming := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		incoming[l] = struct{}{}
	}

	merged := make([]string, 0, len(existing)+len(labels))
	for _, l := range existing {
		if _, replaced := incoming[l]; !replaced {
			merged = append(merged, l)
		}
	}
	merged = append(merged, labels...)

	if err := c.write(ctx, merged); err != nil {
		return err
	}

	c.logger.Debug().
		Int("existing", len(existing)).
		Int("incoming", len(labels)).
		Int("total", len(merged)).
		Msg("Merged labels into cache")

	return nil
}

func (c *Cache) write(ctx context.Context, labels []string) error {
	if labels == nil {
		labels = []string{}
	}

	data, err := json.Marshal(labels)
	if err != nil {
		return &CacheWriteError{Key: LabelsKey, Err: err}
	}

	if err := c.kv.Set(ctx, LabelsKey, string(data), "Label set of all field contexts"); err != nil {
		return &CacheWriteError{Key: LabelsKey, Err: err}
	}

	return nil
}

func (c *Cache) lock() {
	if c.serializeMerges {
		c.mu.Lock()
	}
}

func (c *Cache) unlock() {
	if c.serializeMerges {
		c.mu.Unlock()
	}
}
