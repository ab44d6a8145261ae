package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/labelsync/internal/models"
)

// formatLabelResults formats query results as markdown
func formatLabelResults(query string, results []string) string {
	var sb strings.Builder
	if strings.TrimSpace(query) == "" {
		sb.WriteString(fmt.Sprintf("## Labels (%d results)\n\n", len(results)))
	} else {
		sb.WriteString(fmt.Sprintf("## Labels matching \"%s\" (%d results)\n\n", query, len(results)))
	}

	if len(results) == 0 {
		sb.WriteString("No labels found.\n")
		return sb.String()
	}

	for _, label := range results {
		sb.WriteString(fmt.Sprintf("- %s\n", label))
	}

	return sb.String()
}

// formatSyncReport formats a refresh report as markdown
func formatSyncReport(report *models.SyncReport) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Last refresh %s\n\n", report.RunID))
	sb.WriteString(fmt.Sprintf("**Mode:** %s\n", report.Mode))
	sb.WriteString(fmt.Sprintf("**Started:** %s\n", report.StartedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("**Completed:** %s\n", report.CompletedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("**Labels:** %d\n", report.LabelCount))
	if report.Error != "" {
		sb.WriteString(fmt.Sprintf("**Error:** %s\n", report.Error))
	}

	failed := report.FailedContexts()
	sb.WriteString(fmt.Sprintf("**Contexts:** %d (%d failed)\n", len(report.Contexts), len(failed)))

	if len(failed) > 0 {
		sb.WriteString("\n### Failed contexts\n\n")
		for _, c := range failed {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", c.ContextID, c.Error))
		}
	}

	return sb.String()
}
