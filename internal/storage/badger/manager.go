package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/labelsync/internal/common"
	"github.com/ternarybob/labelsync/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	store  *badgerhold.Store
	kv     interfaces.KeyValueStorage
	logger arbor.ILogger
}

// NewManager opens the label store and the key/value view over it.
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	store, err := openStore(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		store:  store,
		kv:     NewKVStorage(store, logger),
		logger: logger,
	}

	logger.Info().Str("path", config.Path).Msg("Badger storage manager initialized")

	return manager, nil
}

// KeyValueStorage returns the KeyValue storage interface
func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

// DB returns the underlying badgerhold store; the work queue shares it.
func (m *Manager) DB() *badgerhold.Store {
	return m.store
}

func (m *Manager) Close() error {
	if m.store == nil {
		return nil
	}
	err := m.store.Close()
	m.store = nil
	return err
}
