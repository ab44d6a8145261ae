package atlassian

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ternarybob/labelsync/internal/models"
)

// ProjectSearchBatchSize is the maximum number of ids per project search call
const ProjectSearchBatchSize = 50

// ResolveProjects maps project ids to key and name using the project search endpoint.
// Ids are de-duplicated and searched in batches of ProjectSearchBatchSize, each batch
// fully paginated. Ids unknown to Jira are absent from the result.
func (c *JiraClient) ResolveProjects(ctx context.Context, projectIDs []string) (map[string]models.ProjectInfo, error) {
	directory := make(map[string]models.ProjectInfo)

	ids := uniqueNonEmpty(projectIDs)
	if len(ids) == 0 {
		return directory, nil
	}

	for start := 0; start < len(ids); start += ProjectSearchBatchSize {
		end := start + ProjectSearchBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		params := url.Values{}
		for _, id := range batch {
			params.Add("id", id)
		}

		projects, err := FetchAll(ctx, ProjectSearchBatchSize, pageFetcher[models.JiraProject](c, "project search", "/rest/api/3/project/search", params))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve projects %v: %w", batch, err)
		}

		for _, project := range projects {
			directory[project.ID] = models.ProjectInfo{Key: project.Key, Name: project.Name}
		}
	}

	c.logger.Debug().
		Int("requested", len(ids)).
		Int("resolved", len(directory)).
		Msg("Resolved project directory")

	return directory, nil
}

// uniqueNonEmpty removes blanks and duplicates, keeping first-seen order
func uniqueNonEmpty(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
