package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/labelsync/internal/common"
	"github.com/ternarybob/labelsync/internal/services/labels"
	"github.com/ternarybob/labelsync/internal/storage"
	"github.com/ternarybob/labelsync/internal/storage/badger"
)

func main() {
	configPath := os.Getenv("LABELSYNC_CONFIG")
	if configPath == "" {
		configPath = "labelsync.toml"
	}
	if _, err := os.Stat(configPath); err != nil {
		configPath = ""
	}

	config, err := common.LoadFromFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the MCP protocol, so log to file only
	config.Logging.Output = []string{"file"}
	logger := common.InitLogger(config)

	storageManager, err := storage.NewStorageManager(logger, config)
	if errors.Is(err, badger.ErrStoreLocked) {
		fmt.Fprintf(os.Stderr, "%v\nPoint storage.badger.path at a copy of the store the service is not using.\n", err)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize storage: %v\n", err)
		os.Exit(1)
	}
	defer storageManager.Close()

	kvStorage := storageManager.KeyValueStorage()
	cache := labels.NewCache(kvStorage, config.Cache.SerializeMerges, logger)
	queryService := labels.NewQueryService(cache, logger)

	mcpServer := server.NewMCPServer(
		"labelsync",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createSearchLabelsTool(), handleSearchLabels(queryService, logger))
	mcpServer.AddTool(createSyncStatusTool(), handleSyncStatus(kvStorage, logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Error().Err(err).Msg("MCP server failed")
	}
}
