package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/labelsync/internal/common"
	"github.com/ternarybob/labelsync/internal/interfaces"
)

func TestNewManager_SecondOpenReportsLock(t *testing.T) {
	config := &common.BadgerConfig{Path: t.TempDir()}

	first, err := NewManager(arbor.NewLogger(), config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = first.Close() })

	_, err = NewManager(arbor.NewLogger(), config)
	assert.ErrorIs(t, err, ErrStoreLocked)
}

func TestNewManager_ResetOnStartupDiscardsLabels(t *testing.T) {
	config := &common.BadgerConfig{Path: t.TempDir()}
	ctx := context.Background()

	manager, err := NewManager(arbor.NewLogger(), config)
	require.NoError(t, err)
	require.NoError(t, manager.KeyValueStorage().Set(ctx, "all-context-options", `["Red | KEY1 | Name1"]`, ""))
	require.NoError(t, manager.Close())

	reopened, err := NewManager(arbor.NewLogger(), config)
	require.NoError(t, err)
	_, err = reopened.KeyValueStorage().Get(ctx, "all-context-options")
	require.NoError(t, err)
	require.NoError(t, reopened.Close())

	config.ResetOnStartup = true
	reset, err := NewManager(arbor.NewLogger(), config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reset.Close() })

	_, err = reset.KeyValueStorage().Get(ctx, "all-context-options")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)
}

func TestManager_CloseTwice(t *testing.T) {
	manager, err := NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)

	require.NoError(t, manager.Close())
	assert.NoError(t, manager.Close())
}
