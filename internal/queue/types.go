package queue

import (
	"context"

	"github.com/ternarybob/labelsync/internal/models"
)

// ErrNoMessage is returned when the queue is empty
var ErrNoMessage = models.ErrNoMessage

// Message is an alias for models.QueueMessage within the queue package
type Message = models.QueueMessage

// JobHandler is a function that handles a specific job type
type JobHandler func(ctx context.Context, msg *Message) error
