package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/labelsync/internal/models"
)

// QueueManager is the persistent message queue refresh units are dispatched through
type QueueManager interface {
	Enqueue(ctx context.Context, msg models.QueueMessage) error
	Receive(ctx context.Context) (*models.QueueMessage, func() error, error)
	Extend(ctx context.Context, messageID string, duration time.Duration) error
	Len(ctx context.Context) (int, error)
	Close() error
}
