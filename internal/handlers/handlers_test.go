package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/labelsync/internal/interfaces"
	"github.com/ternarybob/labelsync/internal/models"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), target))
}

func TestLabelHandler_Search(t *testing.T) {
	queries := new(MockQueryService)
	queries.On("Query", mock.Anything, "red").Return([]string{"Red | KEY1 | Name1", "Red | KEY2 | Name2"})

	handler := NewLabelHandler(queries, arbor.NewLogger())
	rec := httptest.NewRecorder()
	handler.SearchHandler(rec, httptest.NewRequest(http.MethodGet, "/api/labels?query=red", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var labels []string
	decodeBody(t, rec, &labels)
	assert.Equal(t, []string{"Red | KEY1 | Name1", "Red | KEY2 | Name2"}, labels)
	queries.AssertExpectations(t)
}

func TestLabelHandler_SearchEmptyCacheReturnsArray(t *testing.T) {
	queries := new(MockQueryService)
	queries.On("Query", mock.Anything, "").Return([]string{})

	handler := NewLabelHandler(queries, arbor.NewLogger())
	rec := httptest.NewRecorder()
	handler.SearchHandler(rec, httptest.NewRequest(http.MethodGet, "/api/labels", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestLabelHandler_Options(t *testing.T) {
	queries := new(MockQueryService)
	queries.On("QueryOptions", mock.Anything, "blue").Return([]models.LabelOption{
		{Label: "Blue | KEY1 | Name1", Value: "Blue | KEY1 | Name1"},
	})

	handler := NewLabelHandler(queries, arbor.NewLogger())
	rec := httptest.NewRecorder()
	handler.OptionsHandler(rec, httptest.NewRequest(http.MethodGet, "/api/labels/options?query=blue", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"label":"Blue | KEY1 | Name1","value":"Blue | KEY1 | Name1"}]`, rec.Body.String())
}

func TestLabelHandler_RejectsWrongMethod(t *testing.T) {
	handler := NewLabelHandler(new(MockQueryService), arbor.NewLogger())
	rec := httptest.NewRecorder()
	handler.SearchHandler(rec, httptest.NewRequest(http.MethodPost, "/api/labels", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSyncHandler_Trigger(t *testing.T) {
	trigger := new(MockRefreshTrigger)
	trigger.On("TriggerRefresh", mock.Anything).Return("job_123", nil)
	trigger.On("Mode").Return(models.SyncModeBatch)

	handler := NewSyncHandler(trigger, nil, nil, arbor.NewLogger())
	rec := httptest.NewRecorder()
	handler.TriggerHandler(rec, httptest.NewRequest(http.MethodPost, "/api/sync", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "started", body["status"])
	assert.Equal(t, "job_123", body["job_id"])
}

func TestSyncHandler_TriggerFailure(t *testing.T) {
	trigger := new(MockRefreshTrigger)
	trigger.On("TriggerRefresh", mock.Anything).Return("", errors.New("queue closed"))

	handler := NewSyncHandler(trigger, nil, nil, arbor.NewLogger())
	rec := httptest.NewRecorder()
	handler.TriggerHandler(rec, httptest.NewRequest(http.MethodPost, "/api/sync", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "error", body["status"])
	assert.Contains(t, body["error"], "queue closed")
}

func TestSyncHandler_Status(t *testing.T) {
	report := &models.SyncReport{
		RunID:       "run_1",
		Mode:        models.SyncModeBatch,
		StartedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		CompletedAt: time.Date(2026, 1, 2, 3, 4, 6, 0, time.UTC),
		LabelCount:  4,
	}
	trigger := new(MockRefreshTrigger)
	trigger.On("Mode").Return(models.SyncModeFanOut)
	trigger.On("LastReport", mock.Anything).Return(report, nil)

	handler := NewSyncHandler(trigger, nil, fixedQueue{length: 3}, arbor.NewLogger())
	rec := httptest.NewRecorder()
	handler.StatusHandler(rec, httptest.NewRequest(http.MethodGet, "/api/sync/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Mode        string             `json:"mode"`
		QueueLength int                `json:"queue_length"`
		LastReport  *models.SyncReport `json:"last_report"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, "fanout", body.Mode)
	assert.Equal(t, 3, body.QueueLength)
	require.NotNil(t, body.LastReport)
	assert.Equal(t, "run_1", body.LastReport.RunID)
	assert.Equal(t, 4, body.LastReport.LabelCount)
}

func TestSyncHandler_StatusWithoutReport(t *testing.T) {
	trigger := new(MockRefreshTrigger)
	trigger.On("Mode").Return(models.SyncModeBatch)
	trigger.On("LastReport", mock.Anything).Return(nil, nil)

	handler := NewSyncHandler(trigger, nil, fixedQueue{err: errors.New("closed")}, arbor.NewLogger())
	rec := httptest.NewRecorder()
	handler.StatusHandler(rec, httptest.NewRequest(http.MethodGet, "/api/sync/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	decodeBody(t, rec, &body)
	assert.Nil(t, body["last_report"])
	assert.NotContains(t, body, "queue_length")
}

func TestEventHandler_FieldConfigChanged(t *testing.T) {
	events := &recordingEvents{}
	handler := NewEventHandler(events, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/events/field-config-changed",
		strings.NewReader(`{"fieldId":"customfield_10107"}`))
	rec := httptest.NewRecorder()
	handler.FieldConfigChangedHandler(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, events.published, 1)
	assert.Equal(t, interfaces.EventFieldConfigChanged, events.published[0].Type)

	payload, ok := events.published[0].Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "customfield_10107", payload["fieldId"])
}

func TestEventHandler_EmptyBodyAccepted(t *testing.T) {
	events := &recordingEvents{}
	handler := NewEventHandler(events, arbor.NewLogger())

	rec := httptest.NewRecorder()
	handler.FieldConfigChangedHandler(rec, httptest.NewRequest(http.MethodPost, "/api/events/field-config-changed", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Len(t, events.published, 1)
}

func TestEventHandler_InvalidJSON(t *testing.T) {
	events := &recordingEvents{}
	handler := NewEventHandler(events, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/events/field-config-changed", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	handler.FieldConfigChangedHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, events.published)
}

func TestAPIHandler(t *testing.T) {
	handler := NewAPIHandler(arbor.NewLogger())

	rec := httptest.NewRecorder()
	handler.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	handler.VersionHandler(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "version")

	rec = httptest.NewRecorder()
	handler.NotFoundHandler(rec, httptest.NewRequest(http.MethodGet, "/api/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/missing")
}
