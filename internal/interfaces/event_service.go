package interfaces

import (
	"context"

	"github.com/ternarybob/labelsync/internal/models"
)

// EventType represents different event types in the system
type EventType string

const (
	// EventFieldConfigChanged is raised when Jira reports a change to the custom field configuration.
	// Payload is the notification body as map[string]interface{}.
	EventFieldConfigChanged EventType = "field_config_changed"

	// EventSyncCompleted is published after a batch refresh with its *models.SyncReport as payload
	EventSyncCompleted EventType = "sync_completed"
)

// Event represents a system event
type Event struct {
	Type    EventType
	Payload interface{}
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// EventService carries the refresh events between the pipeline, the webhook and the websocket stream
type EventService interface {
	// Subscribe registers handler for one of the known event types
	Subscribe(eventType EventType, handler EventHandler) error

	// PublishFieldConfigChanged hands a Jira notification to subscribers without waiting for them
	PublishFieldConfigChanged(ctx context.Context, notification map[string]interface{}) error

	// PublishSyncCompleted delivers a batch run report to subscribers in order and waits for them
	PublishSyncCompleted(ctx context.Context, report *models.SyncReport) error

	// Close drops all subscribers
	Close() error
}
