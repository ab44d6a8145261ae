package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ternarybob/labelsync/internal/interfaces"
	"github.com/ternarybob/labelsync/internal/models"
)

// ReportKey is the storage key of the last batch run report
const ReportKey = "last-sync-report"

// ReadReport returns the report stored under ReportKey, or nil when no batch run has finished
func ReadReport(ctx context.Context, kv interfaces.KeyValueStorage) (*models.SyncReport, error) {
	value, err := kv.Get(ctx, ReportKey)
	if errors.Is(err, interfaces.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sync report: %w", err)
	}

	var report models.SyncReport
	if err := json.Unmarshal([]byte(value), &report); err != nil {
		return nil, fmt.Errorf("failed to decode sync report: %w", err)
	}
	return &report, nil
}

// WriteReport stores report under ReportKey, replacing the previous one
func WriteReport(ctx context.Context, kv interfaces.KeyValueStorage, report *models.SyncReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode sync report: %w", err)
	}
	if err := kv.Set(ctx, ReportKey, string(data), "Report of the last batch label refresh"); err != nil {
		return fmt.Errorf("failed to persist sync report: %w", err)
	}
	return nil
}
