package interfaces

import (
	"context"

	"github.com/ternarybob/labelsync/internal/models"
)

// JiraFieldService reads the custom field configuration the label set is built from
type JiraFieldService interface {
	// ListContexts returns every context of the configured custom field
	ListContexts(ctx context.Context) ([]models.FieldContext, error)

	// ListProjectMappings returns the full context -> project mapping relation
	ListProjectMappings(ctx context.Context) ([]models.ProjectMapping, error)

	// ListEnabledOptions returns the options of a context with disabled ones removed
	ListEnabledOptions(ctx context.Context, contextID string) ([]models.OptionRecord, error)

	// ResolveProjects maps project ids to their key and name. Unknown ids are absent.
	ResolveProjects(ctx context.Context, projectIDs []string) (map[string]models.ProjectInfo, error)
}
