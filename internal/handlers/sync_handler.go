package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/labelsync/internal/interfaces"
	"github.com/ternarybob/labelsync/internal/models"
)

// SyncHandler exposes manual refresh and run status
type SyncHandler struct {
	refresh   RefreshTrigger
	scheduler interfaces.SchedulerService
	queue     QueueLengthReader
	logger    arbor.ILogger
}

// NewSyncHandler creates a new sync handler. scheduler may be nil when the
// scheduled refresh is disabled.
func NewSyncHandler(
	refresh RefreshTrigger,
	scheduler interfaces.SchedulerService,
	queue QueueLengthReader,
	logger arbor.ILogger,
) *SyncHandler {
	return &SyncHandler{
		refresh:   refresh,
		scheduler: scheduler,
		queue:     queue,
		logger:    logger,
	}
}

// TriggerHandler handles POST /api/sync
func (h *SyncHandler) TriggerHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	jobID, err := h.refresh.TriggerRefresh(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to trigger refresh")
		WriteError(w, http.StatusInternalServerError, "Failed to trigger refresh: "+err.Error())
		return
	}

	h.logger.Info().
		Str("job_id", jobID).
		Str("mode", string(h.refresh.Mode())).
		Msg("Manual refresh triggered")

	WriteStarted(w, "Refresh enqueued", jobID)
}

// StatusHandler handles GET /api/sync/status
func (h *SyncHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ctx := r.Context()
	response := map[string]interface{}{
		"mode": h.refresh.Mode(),
	}

	report, err := h.refresh.LastReport(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to read last sync report")
	}
	response["last_report"] = report

	if h.queue != nil {
		if pending, err := h.queue.Len(ctx); err != nil {
			h.logger.Warn().Err(err).Msg("Failed to read queue length")
		} else {
			response["queue_length"] = pending
		}
	}

	if h.scheduler != nil {
		if status, err := h.scheduler.GetJobStatus(models.RefreshScheduleJob); err == nil {
			response["schedule"] = status
		}
	}

	WriteJSON(w, http.StatusOK, response)
}
