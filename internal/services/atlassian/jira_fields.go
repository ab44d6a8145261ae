package atlassian

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/labelsync/internal/interfaces"
	"github.com/ternarybob/labelsync/internal/models"
)

const (
	// ContextPageSize is the page size for field contexts and project mappings
	ContextPageSize = 50

	// OptionPageSize is the page size for context options
	OptionPageSize = 100
)

// FieldService reads the contexts, project mappings and options of one custom field
type FieldService struct {
	client  *JiraClient
	fieldID string
	logger  arbor.ILogger
}

// NewFieldService creates a FieldService for fieldID
func NewFieldService(client *JiraClient, fieldID string, logger arbor.ILogger) interfaces.JiraFieldService {
	return &FieldService{
		client:  client,
		fieldID: fieldID,
		logger:  logger,
	}
}

// ListContexts returns every context of the field
func (s *FieldService) ListContexts(ctx context.Context) ([]models.FieldContext, error) {
	path := fmt.Sprintf("/rest/api/3/field/%s/context", url.PathEscape(s.fieldID))

	contexts, err := FetchAll(ctx, ContextPageSize, pageFetcher[models.FieldContext](s.client, "contexts", path, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to list contexts of field %s: %w", s.fieldID, err)
	}

	s.logger.Debug().Str("field_id", s.fieldID).Int("count", len(contexts)).Msg("Fetched field contexts")
	return contexts, nil
}

// ListProjectMappings returns the full context -> project relation of the field
func (s *FieldService) ListProjectMappings(ctx context.Context) ([]models.ProjectMapping, error) {
	path := fmt.Sprintf("/rest/api/3/field/%s/context/projectmapping", url.PathEscape(s.fieldID))

	mappings, err := FetchAll(ctx, ContextPageSize, pageFetcher[models.ProjectMapping](s.client, "projectmapping", path, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to list project mappings of field %s: %w", s.fieldID, err)
	}

	s.logger.Debug().Str("field_id", s.fieldID).Int("count", len(mappings)).Msg("Fetched context project mappings")
	return mappings, nil
}

// ListEnabledOptions returns the options of a context, keeping upstream order and dropping disabled ones
func (s *FieldService) ListEnabledOptions(ctx context.Context, contextID string) ([]models.OptionRecord, error) {
	path := fmt.Sprintf("/rest/api/3/field/%s/context/%s/option", url.PathEscape(s.fieldID), url.PathEscape(contextID))

	options, err := FetchAll(ctx, OptionPageSize, pageFetcher[models.OptionRecord](s.client, "options", path, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to list options of context %s: %w", contextID, err)
	}

	enabled := make([]models.OptionRecord, 0, len(options))
	for _, option := range options {
		if !option.Disabled {
			enabled = append(enabled, option)
		}
	}

	s.logger.Debug().
		Str("context_id", contextID).
		Int("total", len(options)).
		Int("enabled", len(enabled)).
		Msg("Fetched context options")

	return enabled, nil
}

// ResolveProjects maps project ids to key and name
func (s *FieldService) ResolveProjects(ctx context.Context, projectIDs []string) (map[string]models.ProjectInfo, error) {
	return s.client.ResolveProjects(ctx, projectIDs)
}
