package events

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/labelsync/internal/interfaces"
	"github.com/ternarybob/labelsync/internal/models"
)

// NewLoggerSubscriber creates an event handler that logs events
func NewLoggerSubscriber(logger arbor.ILogger) interfaces.EventHandler {
	return func(ctx context.Context, event interfaces.Event) error {
		logEvent := logger.Info().
			Str("event_type", string(event.Type))

		switch payload := event.Payload.(type) {
		case *models.SyncReport:
			logEvent = logEvent.
				Str("run_id", payload.RunID).
				Str("mode", string(payload.Mode)).
				Int("contexts", len(payload.Contexts)).
				Int("failed_contexts", len(payload.FailedContexts())).
				Int("labels", payload.LabelCount)
		case map[string]interface{}:
			if id, ok := payload["fieldId"].(string); ok {
				logEvent = logEvent.Str("field_id", id)
			}
		}

		logEvent.Msg("Event published")

		return nil
	}
}

// SubscribeLoggerToAllEvents subscribes the logger to all known event types
func SubscribeLoggerToAllEvents(eventService interfaces.EventService, logger arbor.ILogger) error {
	subscriber := NewLoggerSubscriber(logger)

	eventTypes := []interfaces.EventType{
		interfaces.EventFieldConfigChanged,
		interfaces.EventSyncCompleted,
	}

	for _, eventType := range eventTypes {
		if err := eventService.Subscribe(eventType, subscriber); err != nil {
			return fmt.Errorf("failed to subscribe logger to event type %s: %w", eventType, err)
		}
	}

	logger.Debug().
		Int("event_type_count", len(eventTypes)).
		Msg("Logger subscribed to all event types")

	return nil
}
