package common

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeBaseURL validates a site URL and returns it as "scheme://host[/path]"
// without query, fragment or trailing slash. The path is kept for OAuth sites
// addressed as https://api.atlassian.com/ex/jira/{cloudId}.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("base URL is empty")
	}

	parsedURL, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL %q: %w", raw, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", fmt.Errorf("base URL %q must use http or https", raw)
	}
	if parsedURL.Host == "" {
		return "", fmt.Errorf("base URL %q has no host", raw)
	}

	return fmt.Sprintf("%s://%s%s", parsedURL.Scheme, parsedURL.Host, strings.TrimRight(parsedURL.Path, "/")), nil
}
