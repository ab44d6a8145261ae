package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/labelsync/internal/interfaces"
	"github.com/ternarybob/labelsync/internal/services/refresh"
)

// handleSearchLabels implements the search_labels tool
func handleSearchLabels(queryService interfaces.LabelQueryService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := request.GetString("query", "")

		results := queryService.Query(ctx, query)
		logger.Debug().Str("query", query).Int("results", len(results)).Msg("search_labels served")

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(formatLabelResults(query, results)),
			},
		}, nil
	}
}

// handleSyncStatus implements the sync_status tool
func handleSyncStatus(kv interfaces.KeyValueStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		report, err := refresh.ReadReport(ctx, kv)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to read sync report")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Status error: %v", err)),
				},
				IsError: true,
			}, nil
		}

		text := "No label refresh has completed yet."
		if report != nil {
			text = formatSyncReport(report)
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(text),
			},
		}, nil
	}
}
