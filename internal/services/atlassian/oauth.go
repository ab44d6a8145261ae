package atlassian

import (
	"context"
	"net/http"
	"time"

	"github.com/ternarybob/labelsync/internal/common"
	"golang.org/x/oauth2"
)

// AtlassianTokenURL is the Atlassian OAuth 2.0 token endpoint
const AtlassianTokenURL = "https://auth.atlassian.com/oauth/token"

// newOAuthHTTPClient returns a client that sends a bearer token obtained from the
// configured refresh token and refreshes it when it expires.
// Atlassian rotates refresh tokens; the rotated token is only kept in memory.
func newOAuthHTTPClient(config *common.JiraOAuthConfig, timeout time.Duration) *http.Client {
	tokenURL := config.TokenURL
	if tokenURL == "" {
		tokenURL = AtlassianTokenURL
	}

	oauthConfig := &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	// Token refreshes go through a client with the same timeout
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})
	tokenSource := oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: config.RefreshToken})

	client := oauth2.NewClient(ctx, tokenSource)
	client.Timeout = timeout
	return client
}
