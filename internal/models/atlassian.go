package models

// JiraProject represents a Jira project as returned by the project search endpoint
type JiraProject struct {
	ID   string `json:"id" validate:"required"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// FieldContext is a configuration scope of a custom field
type FieldContext struct {
	ID              string `json:"id" validate:"required"`
	Name            string `json:"name,omitempty"`
	IsGlobalContext bool   `json:"isGlobalContext,omitempty"`
}

// ProjectMapping links a field context to a project.
// Global contexts are reported without a project id.
type ProjectMapping struct {
	ContextID       string `json:"contextId" validate:"required"`
	ProjectID       string `json:"projectId" validate:"required_without=IsGlobalContext"`
	IsGlobalContext bool   `json:"isGlobalContext,omitempty"`
}

// OptionRecord is one selectable value of a field context
type OptionRecord struct {
	ID       string `json:"id" validate:"required"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled"`
}

// ProjectInfo holds the display attributes of a project used in labels
type ProjectInfo struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}
