// Package atlassian reads custom field configuration and projects from the Jira Cloud REST API.
package atlassian

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/labelsync/internal/common"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 10

	// maxErrorBody caps how much of a failed response is kept in an UpstreamError
	maxErrorBody = 4096
)

// JiraClient is a rate-limited Jira REST client. It authenticates with basic auth
// (email + API token) or, when configured, an OAuth 2.0 bearer token.
type JiraClient struct {
	baseURL    string
	email      string
	apiToken   string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	validate   *validator.Validate
	logger     arbor.ILogger
}

// ClientOption configures the JiraClient.
type ClientOption func(*JiraClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *JiraClient) {
		c.httpClient = httpClient
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *JiraClient) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *JiraClient) {
		c.userAgent = userAgent
	}
}

// NewJiraClient creates a client for the site in config.
func NewJiraClient(config *common.JiraConfig, logger arbor.ILogger, opts ...ClientOption) (*JiraClient, error) {
	baseURL, err := common.NormalizeBaseURL(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid jira base URL: %w", err)
	}

	timeout := common.ParseDuration(config.Timeout, DefaultTimeout)

	c := &JiraClient{
		baseURL:    baseURL,
		userAgent:  config.UserAgent,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		validate:   validator.New(),
		logger:     logger,
	}

	switch config.Auth {
	case common.JiraAuthOAuth2:
		c.httpClient = newOAuthHTTPClient(&config.OAuth, timeout)
	default:
		c.email = config.Email
		c.apiToken = config.APIToken
	}

	if config.RateLimit > 0 {
		WithRateLimit(config.RateLimit)(c)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// BaseURL returns the normalized site URL
func (c *JiraClient) BaseURL() string {
	return c.baseURL
}

// get performs a GET request and returns the raw body of a 2xx response.
// operation names the call in errors and logs.
func (c *JiraClient) get(ctx context.Context, operation, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait (%s): %w", operation, err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request (%s): %w", operation, err)
	}

	if c.email != "" || c.apiToken != "" {
		req.SetBasicAuth(c.email, c.apiToken)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug().
		Str("operation", operation).
		Str("url", reqURL).
		Msg("Jira API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request (%s): %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Error().
			Str("operation", operation).
			Str("url", reqURL).
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("Jira API request failed")
		return nil, &UpstreamError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response (%s): %w", operation, err)
	}

	return body, nil
}
