package atlassian

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Page is one page of a Jira paginated collection
type Page[T any] struct {
	Values     []T
	IsLast     bool
	MaxResults int
	StartAt    int
	Total      int
}

// PageFunc fetches the page starting at startAt with at most maxResults values
type PageFunc[T any] func(ctx context.Context, startAt, maxResults int) (*Page[T], error)

// FetchAll walks a paginated collection from startAt 0 and concatenates every page's values.
// The cursor advances by the page's reported maxResults, or by the number of values
// when the page reports none. A page that would not advance the cursor ends the walk.
// The first page error aborts the fetch.
func FetchAll[T any](ctx context.Context, pageSize int, fetch PageFunc[T]) ([]T, error) {
	all := make([]T, 0)
	startAt := 0

	for {
		page, err := fetch(ctx, startAt, pageSize)
		if err != nil {
			return nil, err
		}

		all = append(all, page.Values...)
		if page.IsLast {
			return all, nil
		}

		step := page.MaxResults
		if step <= 0 {
			step = len(page.Values)
		}
		if step <= 0 {
			return all, nil
		}
		startAt += step
	}
}

// rawPage mirrors the Jira page envelope before the values are decoded
type rawPage struct {
	Values     json.RawMessage `json:"values"`
	IsLast     *bool           `json:"isLast"`
	MaxResults int             `json:"maxResults"`
	StartAt    int             `json:"startAt"`
	Total      int             `json:"total"`
}

// decodePage parses a page body, requires "values" to be a JSON array and validates every element.
// When the body has no isLast flag the page is last if it is empty or reaches total.
func decodePage[T any](operation string, body []byte, validate *validator.Validate) (*Page[T], error) {
	var raw rawPage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &MalformedResponseError{Operation: operation, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	trimmed := bytes.TrimSpace(raw.Values)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &MalformedResponseError{Operation: operation, Reason: `missing "values" array`}
	}
	if trimmed[0] != '[' {
		return nil, &MalformedResponseError{Operation: operation, Reason: `"values" is not an array`}
	}

	var values []T
	if err := json.Unmarshal(trimmed, &values); err != nil {
		return nil, &MalformedResponseError{Operation: operation, Reason: fmt.Sprintf("invalid element in \"values\": %v", err)}
	}

	for i := range values {
		if err := validate.Struct(values[i]); err != nil {
			return nil, &MalformedResponseError{Operation: operation, Reason: fmt.Sprintf("element %d: %v", i, err)}
		}
	}

	page := &Page[T]{
		Values:     values,
		MaxResults: raw.MaxResults,
		StartAt:    raw.StartAt,
		Total:      raw.Total,
	}

	if raw.IsLast != nil {
		page.IsLast = *raw.IsLast
	} else {
		page.IsLast = len(values) == 0 || (raw.Total > 0 && raw.StartAt+len(values) >= raw.Total)
	}

	return page, nil
}

// pageFetcher returns a PageFunc issuing GET path with the base params plus startAt/maxResults
func pageFetcher[T any](c *JiraClient, operation, path string, base url.Values) PageFunc[T] {
	return func(ctx context.Context, startAt, maxResults int) (*Page[T], error) {
		params := url.Values{}
		for key, values := range base {
			params[key] = append([]string(nil), values...)
		}
		params.Set("startAt", strconv.Itoa(startAt))
		params.Set("maxResults", strconv.Itoa(maxResults))

		body, err := c.get(ctx, operation, path, params)
		if err != nil {
			return nil, err
		}
		return decodePage[T](operation, body, c.validate)
	}
}
