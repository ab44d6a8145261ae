package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/ternarybob/labelsync/internal/interfaces"
	"github.com/ternarybob/labelsync/internal/models"
)

type MockQueryService struct {
	mock.Mock
}

func (m *MockQueryService) Query(ctx context.Context, text string) []string {
	args := m.Called(ctx, text)
	return args.Get(0).([]string)
}

func (m *MockQueryService) QueryOptions(ctx context.Context, text string) []models.LabelOption {
	args := m.Called(ctx, text)
	return args.Get(0).([]models.LabelOption)
}

type MockRefreshTrigger struct {
	mock.Mock
}

func (m *MockRefreshTrigger) TriggerRefresh(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockRefreshTrigger) LastReport(ctx context.Context) (*models.SyncReport, error) {
	args := m.Called(ctx)
	if report, ok := args.Get(0).(*models.SyncReport); ok {
		return report, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRefreshTrigger) Mode() models.SyncMode {
	args := m.Called()
	return args.Get(0).(models.SyncMode)
}

type fixedQueue struct {
	length int
	err    error
}

func (q fixedQueue) Len(ctx context.Context) (int, error) {
	return q.length, q.err
}

type recordingEvents struct {
	published []interfaces.Event
	err       error
}

func (e *recordingEvents) Subscribe(eventType interfaces.EventType, handler interfaces.EventHandler) error {
	return nil
}

func (e *recordingEvents) record(event interfaces.Event) error {
	if e.err != nil {
		return e.err
	}
	e.published = append(e.published, event)
	return nil
}

func (e *recordingEvents) PublishFieldConfigChanged(ctx context.Context, notification map[string]interface{}) error {
	return e.record(interfaces.Event{Type: interfaces.EventFieldConfigChanged, Payload: notification})
}

func (e *recordingEvents) PublishSyncCompleted(ctx context.Context, report *models.SyncReport) error {
	return e.record(interfaces.Event{Type: interfaces.EventSyncCompleted, Payload: report})
}

func (e *recordingEvents) Close() error {
	return nil
}
