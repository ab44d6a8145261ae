package atlassian

import "fmt"

// UpstreamError is returned when Jira answers with a non-2xx status
type UpstreamError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("jira API error (%s): status %d: %s", e.Operation, e.StatusCode, e.Body)
}

// MalformedResponseError is returned when a Jira response body does not have the expected shape
type MalformedResponseError struct {
	Operation string
	Reason    string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed jira response (%s): %s", e.Operation, e.Reason)
}
