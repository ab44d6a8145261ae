package refresh

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/labelsync/internal/interfaces"
	"github.com/ternarybob/labelsync/internal/models"
)

// HandleRefreshLabels runs a batch refresh for a refresh_labels job
func (o *Orchestrator) HandleRefreshLabels(ctx context.Context, msg *models.QueueMessage) error {
	_, err := o.RefreshAll(ctx)
	return err
}

// HandleLoadContexts fans out a load_contexts job into one unit per context
func (o *Orchestrator) HandleLoadContexts(ctx context.Context, msg *models.QueueMessage) error {
	_, err := o.EnqueueContexts(ctx)
	return err
}

// HandleLoadContextOptions refreshes the context named in a load_context_options payload
func (o *Orchestrator) HandleLoadContextOptions(ctx context.Context, msg *models.QueueMessage) error {
	var payload models.ContextPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("invalid load_context_options payload: %w", err)
		}
	}
	if payload.ContextID == "" {
		o.logger.Error().Str("job_id", msg.JobID).Str("payload", string(msg.Payload)).Msg("Missing contextId in payload")
		return ErrMissingContextID
	}

	_, err := o.RefreshContext(ctx, payload.ContextID)
	return err
}

// HandleFieldConfigChanged acknowledges a field configuration change.
// The next scheduled refresh picks the change up, nothing is enqueued here.
func (o *Orchestrator) HandleFieldConfigChanged(ctx context.Context, event interfaces.Event) error {
	o.logger.Info().
		Str("event_type", string(event.Type)).
		Msg("Field configuration changed, labels refresh on the next scheduled run")
	return nil
}
