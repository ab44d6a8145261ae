package queue

import (
	"time"

	"github.com/ternarybob/labelsync/internal/common"
)

// Config holds configuration for the queue manager and worker pool
type Config struct {
	// PollInterval is how often workers poll for messages
	PollInterval time.Duration

	// Concurrency is the number of concurrent workers
	Concurrency int

	// VisibilityTimeout is how long a received message stays hidden before redelivery
	VisibilityTimeout time.Duration

	// MaxReceive is the maximum times a message can be received before it is dropped
	MaxReceive int

	// QueueName prefixes the queue keys in Badger
	QueueName string
}

// NewDefaultConfig creates a queue configuration with sensible defaults
func NewDefaultConfig() Config {
	return Config{
		PollInterval:      1 * time.Second,
		Concurrency:       4,
		VisibilityTimeout: 5 * time.Minute,
		MaxReceive:        3,
		QueueName:         "labelsync_jobs",
	}
}

// NewConfig converts the [queue] section, falling back to defaults for unset values
func NewConfig(c common.QueueConfig) Config {
	defaults := NewDefaultConfig()

	config := Config{
		PollInterval:      common.ParseDuration(c.PollInterval, defaults.PollInterval),
		Concurrency:       c.Concurrency,
		VisibilityTimeout: common.ParseDuration(c.VisibilityTimeout, defaults.VisibilityTimeout),
		MaxReceive:        c.MaxReceive,
		QueueName:         c.QueueName,
	}

	if config.Concurrency <= 0 {
		config.Concurrency = defaults.Concurrency
	}
	if config.MaxReceive <= 0 {
		config.MaxReceive = defaults.MaxReceive
	}
	if config.QueueName == "" {
		config.QueueName = defaults.QueueName
	}

	return config
}
