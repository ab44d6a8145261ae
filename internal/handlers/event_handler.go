package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/labelsync/internal/interfaces"
)

// maxEventBody caps the notification body read from Jira
const maxEventBody = 64 * 1024

// EventHandler accepts notifications pushed by Jira
type EventHandler struct {
	eventService interfaces.EventService
	logger       arbor.ILogger
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService interfaces.EventService, logger arbor.ILogger) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		logger:       logger,
	}
}

// FieldConfigChangedHandler handles POST /api/events/field-config-changed
func (h *EventHandler) FieldConfigChangedHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	payload := map[string]interface{}{}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid JSON payload")
			return
		}
	}

	// Subscribers run after the response is written
	if err := h.eventService.PublishFieldConfigChanged(context.WithoutCancel(r.Context()), payload); err != nil {
		h.logger.Error().Err(err).Msg("Failed to publish field config change")
		WriteError(w, http.StatusInternalServerError, "Failed to publish event")
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
	})
}
