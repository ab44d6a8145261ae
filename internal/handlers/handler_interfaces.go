package handlers

import (
	"context"

	"github.com/ternarybob/labelsync/internal/models"
)

// RefreshTrigger starts a refresh and reports on previous runs.
type RefreshTrigger interface {
	TriggerRefresh(ctx context.Context) (string, error)
	LastReport(ctx context.Context) (*models.SyncReport, error)
	Mode() models.SyncMode
}

// QueueLengthReader reports the number of pending refresh units.
type QueueLengthReader interface {
	Len(ctx context.Context) (int, error)
}
