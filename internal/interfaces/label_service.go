package interfaces

import (
	"context"

	"github.com/ternarybob/labelsync/internal/models"
)

// LabelCache is the persisted set of all known labels
type LabelCache interface {
	// ReadAll returns the stored labels, or an empty slice when nothing is stored yet
	ReadAll(ctx context.Context) ([]string, error)

	// Overwrite replaces the stored labels
	Overwrite(ctx context.Context, labels []string) error

	// MergeUpsert removes stored labels equal to any incoming label, then appends the batch
	MergeUpsert(ctx context.Context, labels []string) error
}

// LabelQueryService serves the dropdown query against the label cache
type LabelQueryService interface {
	Query(ctx context.Context, text string) []string
	QueryOptions(ctx context.Context, text string) []models.LabelOption
}

// SyncService rebuilds the label cache from Jira
type SyncService interface {
	// RefreshAll rebuilds the whole label set in one pass and overwrites the cache
	RefreshAll(ctx context.Context) (*models.SyncReport, error)

	// EnqueueContexts enqueues one refresh unit per context
	EnqueueContexts(ctx context.Context) (int, error)

	// RefreshContext rebuilds one context's labels and merges them into the cache
	RefreshContext(ctx context.Context, contextID string) ([]string, error)

	// LastReport returns the report of the most recent batch run, or nil
	LastReport(ctx context.Context) (*models.SyncReport, error)
}
