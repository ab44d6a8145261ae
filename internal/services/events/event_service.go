// Package events is the in-process bus for field configuration notices and refresh completions.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/labelsync/internal/common"
	"github.com/ternarybob/labelsync/internal/interfaces"
	"github.com/ternarybob/labelsync/internal/models"
)

// Service delivers field_config_changed asynchronously, so the webhook answers at once,
// and sync_completed on the publisher's goroutine, so subscribers see reports in run order.
type Service struct {
	subscribers map[interfaces.EventType][]interfaces.EventHandler
	mu          sync.RWMutex
	logger      arbor.ILogger
}

// NewService creates a new event service
func NewService(logger arbor.ILogger) interfaces.EventService {
	return &Service{
		subscribers: make(map[interfaces.EventType][]interfaces.EventHandler),
		logger:      logger,
	}
}

// Subscribe registers a handler for field_config_changed or sync_completed
func (s *Service) Subscribe(eventType interfaces.EventType, handler interfaces.EventHandler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}
	if eventType != interfaces.EventFieldConfigChanged && eventType != interfaces.EventSyncCompleted {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	s.mu.Lock()
	s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	count := len(s.subscribers[eventType])
	s.mu.Unlock()

	s.logger.Debug().
		Str("event_type", string(eventType)).
		Int("subscriber_count", count).
		Msg("Event handler subscribed")

	return nil
}

// PublishFieldConfigChanged starts every subscriber in its own goroutine and returns
func (s *Service) PublishFieldConfigChanged(ctx context.Context, notification map[string]interface{}) error {
	if notification == nil {
		notification = map[string]interface{}{}
	}
	event := interfaces.Event{Type: interfaces.EventFieldConfigChanged, Payload: notification}

	for _, handler := range s.handlersFor(event.Type) {
		h := handler
		common.SafeGo(s.logger, "event-"+string(event.Type), func() {
			_ = s.deliver(ctx, h, event)
		})
	}

	return nil
}

// PublishSyncCompleted runs the subscribers one after another with the report.
// Every subscriber runs even when an earlier one fails.
func (s *Service) PublishSyncCompleted(ctx context.Context, report *models.SyncReport) error {
	if report == nil {
		return errors.New("sync report is required")
	}
	event := interfaces.Event{Type: interfaces.EventSyncCompleted, Payload: report}

	handlers := s.handlersFor(event.Type)
	failed := 0
	for _, h := range handlers {
		if err := s.deliver(ctx, h, event); err != nil {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d %s handlers failed", failed, len(handlers), event.Type)
	}
	return nil
}

// Close drops all subscribers
func (s *Service) Close() error {
	s.mu.Lock()
	s.subscribers = make(map[interfaces.EventType][]interfaces.EventHandler)
	s.mu.Unlock()

	s.logger.Info().Msg("Event service closed")
	return nil
}

func (s *Service) handlersFor(eventType interfaces.EventType) []interfaces.EventHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()

	handlers := make([]interfaces.EventHandler, len(s.subscribers[eventType]))
	copy(handlers, s.subscribers[eventType])

	s.logger.Debug().
		Str("event_type", string(eventType)).
		Int("subscriber_count", len(handlers)).
		Msg("Publishing event")

	return handlers
}

// deliver runs one handler, turning a panic into an error
func (s *Service) deliver(ctx context.Context, handler interfaces.EventHandler, event interfaces.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event handler panic: %v", r)
		}
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("event_type", string(event.Type)).
				Msg("Event handler failed")
		}
	}()

	return handler(ctx, event)
}
