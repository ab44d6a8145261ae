package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/ternarybob/labelsync/internal/interfaces"
	"github.com/ternarybob/labelsync/internal/models"
)

// MockFieldService is a mock implementation of JiraFieldService
type MockFieldService struct {
	mock.Mock
}

func (m *MockFieldService) ListContexts(ctx context.Context) ([]models.FieldContext, error) {
	args := m.Called(ctx)
	if contexts, ok := args.Get(0).([]models.FieldContext); ok {
		return contexts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFieldService) ListProjectMappings(ctx context.Context) ([]models.ProjectMapping, error) {
	args := m.Called(ctx)
	if mappings, ok := args.Get(0).([]models.ProjectMapping); ok {
		return mappings, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFieldService) ListEnabledOptions(ctx context.Context, contextID string) ([]models.OptionRecord, error) {
	args := m.Called(ctx, contextID)
	if options, ok := args.Get(0).([]models.OptionRecord); ok {
		return options, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFieldService) ResolveProjects(ctx context.Context, projectIDs []string) (map[string]models.ProjectInfo, error) {
	args := m.Called(ctx, projectIDs)
	if directory, ok := args.Get(0).(map[string]models.ProjectInfo); ok {
		return directory, args.Error(1)
	}
	return nil, args.Error(1)
}

// memoryKV is an in-memory KeyValueStorage with optional write failure
type memoryKV struct {
	mu       sync.Mutex
	values   map[string]string
	setErr   error
	getErr   error
	setCalls int
}

func newMemoryKV() *memoryKV {
	return &memoryKV{values: make(map[string]string)}
}

func (m *memoryKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	value, ok := m.values[key]
	if !ok {
		return "", interfaces.ErrKeyNotFound
	}
	return value, nil
}

func (m *memoryKV) Set(ctx context.Context, key string, value string, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

// memoryQueue records enqueued messages
type memoryQueue struct {
	mu         sync.Mutex
	messages   []models.QueueMessage
	enqueueErr error
}

func (q *memoryQueue) Enqueue(ctx context.Context, msg models.QueueMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.messages = append(q.messages, msg)
	return nil
}

func (q *memoryQueue) Receive(ctx context.Context) (*models.QueueMessage, func() error, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.messages) == 0 {
		return nil, nil, models.ErrNoMessage
	}
	msg := q.messages[0]
	q.messages = q.messages[1:]
	return &msg, func() error { return nil }, nil
}

func (q *memoryQueue) Extend(ctx context.Context, messageID string, duration time.Duration) error {
	return nil
}

func (q *memoryQueue) Len(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages), nil
}

func (q *memoryQueue) Close() error {
	return nil
}

var errUpstream = errors.New("upstream unavailable")
