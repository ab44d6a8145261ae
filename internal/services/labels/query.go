package labels

import (
	"context"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/labelsync/internal/interfaces"
	"github.com/ternarybob/labelsync/internal/models"
)

// QueryLimit is the maximum number of labels a query returns
const QueryLimit = 20

// QueryService filters the cached label set for the dropdown
type QueryService struct {
	cache  interfaces.LabelCache
	logger arbor.ILogger
}

// NewQueryService creates a new query service
func NewQueryService(cache interfaces.LabelCache, logger arbor.ILogger) interfaces.LabelQueryService {
	return &QueryService{
		cache:  cache,
		logger: logger,
	}
}

// Query returns at most QueryLimit labels containing text, case-insensitively, in cache order.
// Blank text returns the first QueryLimit labels. A cache failure yields an empty result.
func (s *QueryService) Query(ctx context.Context, text string) []string {
	labels, err := s.cache.ReadAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read label cache for query")
		return []string{}
	}

	needle := strings.ToLower(strings.TrimSpace(text))
	results := make([]string, 0, QueryLimit)

	for _, label := range labels {
		if len(results) == QueryLimit {
			break
		}
		if needle == "" || strings.Contains(strings.ToLower(label), needle) {
			results = append(results, label)
		}
	}

	return results
}

// QueryOptions returns Query results shaped as dropdown options
func (s *QueryService) QueryOptions(ctx context.Context, text string) []models.LabelOption {
	matches := s.Query(ctx, text)
	options := make([]models.LabelOption, len(matches))
	for i, label := range matches {
		options[i] = models.LabelOption{Label: label, Value: label}
	}
	return options
}
