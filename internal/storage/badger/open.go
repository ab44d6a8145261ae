package badger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/labelsync/internal/common"
	"github.com/timshannon/badgerhold/v4"
)

// ErrStoreLocked is returned when another labelsync process holds the directory.
var ErrStoreLocked = errors.New("label store is locked by another process")

// openStore opens the single badger directory shared by the label cache,
// the sync report and the work queue.
func openStore(logger arbor.ILogger, config *common.BadgerConfig) (*badgerhold.Store, error) {
	dir := filepath.Clean(config.Path)

	if config.ResetOnStartup {
		logger.Warn().Str("path", dir).Msg("Discarding label store (reset_on_startup=true)")
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("failed to reset label store %s: %w", dir, err)
		}
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create label store directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		if strings.Contains(err.Error(), "directory lock") {
			return nil, fmt.Errorf("%w: %s", ErrStoreLocked, dir)
		}
		return nil, fmt.Errorf("failed to open label store %s: %w", dir, err)
	}

	logger.Debug().Str("path", dir).Msg("Label store opened")
	return store, nil
}
