package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createSearchLabelsTool returns the search_labels tool definition
func createSearchLabelsTool() mcp.Tool {
	return mcp.NewTool("search_labels",
		mcp.WithDescription("Search the synchronized Jira field labels (\"<option> | <project key> | <project name>\")"),
		mcp.WithString("query",
			mcp.Description("Case-insensitive text to match; omit to list the first labels"),
		),
	)
}

// createSyncStatusTool returns the sync_status tool definition
func createSyncStatusTool() mcp.Tool {
	return mcp.NewTool("sync_status",
		mcp.WithDescription("Report the outcome of the most recent batch label refresh"),
	)
}
