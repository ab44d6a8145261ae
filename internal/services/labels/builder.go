// Package labels builds, stores and queries the denormalized label set.
package labels

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/labelsync/internal/interfaces"
	"github.com/ternarybob/labelsync/internal/models"
)

// LabelSeparator joins the parts of a label
const LabelSeparator = " | "

// MappingIndex maps a context id to its project ids in mapping order
type MappingIndex map[string][]string

// FormatLabel renders "<value> | <projectKey> | <projectName>"
func FormatLabel(value string, project models.ProjectInfo) string {
	return value + LabelSeparator + project.Key + LabelSeparator + project.Name
}

// BuildMappingIndex groups mappings by context. Global mappings and repeated
// (context, project) pairs are skipped.
func BuildMappingIndex(mappings []models.ProjectMapping) MappingIndex {
	index := make(MappingIndex)
	seen := make(map[[2]string]struct{}, len(mappings))

	for _, m := range mappings {
		if m.ProjectID == "" {
			continue
		}
		pair := [2]string{m.ContextID, m.ProjectID}
		if _, ok := seen[pair]; ok {
			continue
		}
		seen[pair] = struct{}{}
		index[m.ContextID] = append(index[m.ContextID], m.ProjectID)
	}

	return index
}

// UniqueProjectIDs returns the distinct project ids referenced by mappings, first-seen order
func UniqueProjectIDs(mappings []models.ProjectMapping) []string {
	seen := make(map[string]struct{}, len(mappings))
	ids := make([]string, 0, len(mappings))

	for _, m := range mappings {
		if m.ProjectID == "" {
			continue
		}
		if _, ok := seen[m.ProjectID]; ok {
			continue
		}
		seen[m.ProjectID] = struct{}{}
		ids = append(ids, m.ProjectID)
	}

	return ids
}

// Builder joins one context's enabled options against its mapped projects
type Builder struct {
	fields interfaces.JiraFieldService
	logger arbor.ILogger
}

// NewBuilder creates a new label builder
func NewBuilder(fields interfaces.JiraFieldService, logger arbor.ILogger) *Builder {
	return &Builder{
		fields: fields,
		logger: logger,
	}
}

// BuildContextLabels returns one label per (enabled option, mapped project) pair,
// option order outer and project order inner. Projects missing from directory
// render with a blank key and name. A context without mapped projects yields no labels.
func (b *Builder) BuildContextLabels(ctx context.Context, contextID string, mappings MappingIndex, directory map[string]models.ProjectInfo) ([]string, error) {
	projectIDs := mappings[contextID]
	if len(projectIDs) == 0 {
		b.logger.Debug().Str("context_id", contextID).Msg("Context has no mapped projects, no labels built")
		return []string{}, nil
	}

	options, err := b.fields.ListEnabledOptions(ctx, contextID)
	if err != nil {
		return nil, fmt.Errorf("failed to build labels for context %s: %w", contextID, err)
	}

	projects := make([]models.ProjectInfo, len(projectIDs))
	for i, id := range projectIDs {
		projects[i] = directory[id]
	}

	labels := make([]string, 0, len(options)*len(projects))
	for _, option := range options {
		for _, project := range projects {
			labels = append(labels, FormatLabel(option.Value, project))
		}
	}

	b.logger.Debug().
		Str("context_id", contextID).
		Int("options", len(options)).
		Int("projects", len(projects)).
		Int("labels", len(labels)).
		Msg("Built context labels")

	return labels, nil
}
