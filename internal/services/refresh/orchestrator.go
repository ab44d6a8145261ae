// Package refresh rebuilds the label cache from Jira, either in one batch pass
// or fanned out as one queued unit per field context.
package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/labelsync/internal/common"
	"github.com/ternarybob/labelsync/internal/interfaces"
	"github.com/ternarybob/labelsync/internal/models"
	"github.com/ternarybob/labelsync/internal/services/labels"
)

// ErrMissingContextID is returned for a fan-out unit without a context id
var ErrMissingContextID = errors.New("missing contextId in payload")

// Orchestrator implements SyncService
type Orchestrator struct {
	fields  interfaces.JiraFieldService
	builder *labels.Builder
	cache   interfaces.LabelCache
	kv      interfaces.KeyValueStorage
	queue   interfaces.QueueManager
	events  interfaces.EventService
	mode    models.SyncMode
	logger  arbor.ILogger
}

// NewOrchestrator creates a new refresh orchestrator. events may be nil.
func NewOrchestrator(
	fields interfaces.JiraFieldService,
	cache interfaces.LabelCache,
	kv interfaces.KeyValueStorage,
	queue interfaces.QueueManager,
	events interfaces.EventService,
	mode models.SyncMode,
	logger arbor.ILogger,
) *Orchestrator {
	if !mode.IsValid() {
		mode = models.SyncModeBatch
	}

	return &Orchestrator{
		fields:  fields,
		builder: labels.NewBuilder(fields, logger),
		cache:   cache,
		kv:      kv,
		queue:   queue,
		events:  events,
		mode:    mode,
		logger:  logger,
	}
}

var _ interfaces.SyncService = (*Orchestrator)(nil)

// Mode returns the configured refresh mode
func (o *Orchestrator) Mode() models.SyncMode {
	return o.mode
}

// RefreshAll rebuilds the whole label set and overwrites the cache.
// A context whose labels cannot be built is recorded in the report and skipped.
// Failing to list contexts, mappings or projects aborts the run without touching the cache.
// The report is persisted in both cases.
func (o *Orchestrator) RefreshAll(ctx context.Context) (*models.SyncReport, error) {
	runID := common.NewRunID()
	logger := o.logger.WithCorrelationId(runID)

	report := &models.SyncReport{
		RunID:     runID,
		Mode:      models.SyncModeBatch,
		StartedAt: time.Now(),
		Contexts:  []models.ContextResult{},
	}

	logger.Info().Msg("Batch label refresh started")

	allLabels, err := o.buildAll(ctx, logger, report)
	if err == nil {
		err = o.cache.Overwrite(ctx, allLabels)
	}

	report.CompletedAt = time.Now()
	if err != nil {
		report.Error = err.Error()
		logger.Error().Err(err).Msg("Batch label refresh failed")
	} else {
		report.LabelCount = len(allLabels)
		logger.Info().
			Int("contexts", len(report.Contexts)).
			Int("failed_contexts", len(report.FailedContexts())).
			Int("labels", report.LabelCount).
			Int64("duration_ms", report.CompletedAt.Sub(report.StartedAt).Milliseconds()).
			Msg("Batch label refresh completed")
	}

	o.saveReport(ctx, logger, report)
	o.publishCompleted(ctx, report)

	return report, err
}

func (o *Orchestrator) buildAll(ctx context.Context, logger arbor.ILogger, report *models.SyncReport) ([]string, error) {
	contexts, err := o.fields.ListContexts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contexts: %w", err)
	}

	mappings, err := o.fields.ListProjectMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch context project mappings: %w", err)
	}

	directory, err := o.fields.ResolveProjects(ctx, labels.UniqueProjectIDs(mappings))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project details: %w", err)
	}

	index := labels.BuildMappingIndex(mappings)
	allLabels := make([]string, 0)

	for _, fieldContext := range contexts {
		// Shutdown cancels the run instead of writing a partial set
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		contextLabels, err := o.builder.BuildContextLabels(ctx, fieldContext.ID, index, directory)
		result := models.ContextResult{ContextID: fieldContext.ID}
		if err != nil {
			result.Error = err.Error()
			report.Contexts = append(report.Contexts, result)
			logger.Warn().
				Err(err).
				Str("context_id", fieldContext.ID).
				Msg("Skipping context, labels could not be built")
			continue
		}

		result.LabelCount = len(contextLabels)
		report.Contexts = append(report.Contexts, result)
		allLabels = append(allLabels, contextLabels...)
	}

	return allLabels, nil
}

// EnqueueContexts enqueues one load_context_options job per field context.
// A context that fails to enqueue is logged and skipped.
func (o *Orchestrator) EnqueueContexts(ctx context.Context) (int, error) {
	contexts, err := o.fields.ListContexts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch contexts: %w", err)
	}

	enqueued := 0
	for _, fieldContext := range contexts {
		payload, err := json.Marshal(models.ContextPayload{ContextID: fieldContext.ID})
		if err != nil {
			return enqueued, fmt.Errorf("failed to marshal payload for context %s: %w", fieldContext.ID, err)
		}

		msg := models.QueueMessage{
			JobID:   common.NewJobID(),
			Type:    models.JobTypeLoadContextOptions,
			Payload: payload,
		}
		if err := o.queue.Enqueue(ctx, msg); err != nil {
			o.logger.Error().Err(err).Str("context_id", fieldContext.ID).Msg("Failed to enqueue context")
			continue
		}
		enqueued++
	}

	if enqueued == 0 && len(contexts) > 0 {
		return 0, fmt.Errorf("failed to enqueue any of %d contexts", len(contexts))
	}

	o.logger.Info().
		Int("contexts", len(contexts)).
		Int("enqueued", enqueued).
		Msg("Context refresh units enqueued")

	return enqueued, nil
}

// RefreshContext rebuilds one context's labels and merges them into the cache.
// Mappings and projects are fetched fresh for every unit.
func (o *Orchestrator) RefreshContext(ctx context.Context, contextID string) ([]string, error) {
	if contextID == "" {
		return nil, ErrMissingContextID
	}

	logger := o.logger.WithCorrelationId(common.NewRunID())

	mappings, err := o.fields.ListProjectMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch context project mappings: %w", err)
	}

	index := labels.BuildMappingIndex(mappings)

	directory, err := o.fields.ResolveProjects(ctx, index[contextID])
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project details: %w", err)
	}

	contextLabels, err := o.builder.BuildContextLabels(ctx, contextID, index, directory)
	if err != nil {
		return nil, err
	}

	if err := o.cache.MergeUpsert(ctx, contextLabels); err != nil {
		return nil, fmt.Errorf("failed to save labels for context %s: %w", contextID, err)
	}

	logger.Info().
		Str("context_id", contextID).
		Int("labels", len(contextLabels)).
		Msg("Context labels merged")

	return contextLabels, nil
}

// TriggerRefresh enqueues the root job of the configured mode and returns its job id
func (o *Orchestrator) TriggerRefresh(ctx context.Context) (string, error) {
	jobType := models.JobTypeRefreshLabels
	if o.mode == models.SyncModeFanOut {
		jobType = models.JobTypeLoadContexts
	}

	msg := models.QueueMessage{
		JobID: common.NewJobID(),
		Type:  jobType,
	}
	if err := o.queue.Enqueue(ctx, msg); err != nil {
		return "", fmt.Errorf("failed to enqueue %s: %w", jobType, err)
	}

	o.logger.Info().
		Str("job_id", msg.JobID).
		Str("type", jobType).
		Msg("Label refresh enqueued")

	return msg.JobID, nil
}

// LastReport returns the persisted report of the most recent batch run, or nil
func (o *Orchestrator) LastReport(ctx context.Context) (*models.SyncReport, error) {
	return ReadReport(ctx, o.kv)
}

func (o *Orchestrator) saveReport(ctx context.Context, logger arbor.ILogger, report *models.SyncReport) {
	if err := WriteReport(ctx, o.kv, report); err != nil {
		logger.Warn().Err(err).Msg("Failed to save sync report")
	}
}

func (o *Orchestrator) publishCompleted(ctx context.Context, report *models.SyncReport) {
	if o.events == nil {
		return
	}
	// Runs after saveReport so subscribers reading the status see this run
	if err := o.events.PublishSyncCompleted(ctx, report); err != nil {
		o.logger.Warn().Err(err).Msg("Failed to publish sync completed event")
	}
}
