package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/labelsync/internal/interfaces"
)

// LabelHandler serves dropdown queries against the label cache
type LabelHandler struct {
	queryService interfaces.LabelQueryService
	logger       arbor.ILogger
}

// NewLabelHandler creates a new label handler
func NewLabelHandler(queryService interfaces.LabelQueryService, logger arbor.ILogger) *LabelHandler {
	return &LabelHandler{
		queryService: queryService,
		logger:       logger,
	}
}

// SearchHandler handles GET /api/labels?query=<text>
func (h *LabelHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query().Get("query")
	labels := h.queryService.Query(r.Context(), query)

	h.logger.Trace().
		Str("query", query).
		Int("results", len(labels)).
		Msg("Label query served")

	WriteJSON(w, http.StatusOK, labels)
}

// OptionsHandler handles GET /api/labels/options?query=<text>
func (h *LabelHandler) OptionsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query().Get("query")
	WriteJSON(w, http.StatusOK, h.queryService.QueryOptions(r.Context(), query))
}
