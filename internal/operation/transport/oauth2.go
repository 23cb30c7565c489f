// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// OAuth2 flows.
const (
	FlowClientCredentials = "client_credentials"
	FlowRefreshToken      = "refresh_token"
)

// OAuth2Config describes how to obtain access tokens.
type OAuth2Config struct {
	// Flow is "client_credentials" or "refresh_token"
	Flow string

	// ClientID is the OAuth2 client ID
	ClientID string

	// ClientSecret is the OAuth2 client secret
	ClientSecret string

	// TokenURL is the OAuth2 token endpoint
	TokenURL string

	// Scopes are the OAuth2 scopes (optional)
	Scopes []string

	// AccessToken seeds the refresh_token flow with a still-valid token (optional)
	AccessToken string

	// RefreshToken is required for the refresh_token flow
	RefreshToken string

	// Timeout bounds each token request (default: 30s)
	Timeout time.Duration
}

// Validate checks the configuration is valid.
func (c *OAuth2Config) Validate() error {
	switch c.Flow {
	case FlowClientCredentials:
		if c.ClientID == "" || c.ClientSecret == "" {
			return fmt.Errorf("client_id and client_secret are required for client_credentials flow")
		}
	case FlowRefreshToken:
		if c.RefreshToken == "" && c.AccessToken == "" {
			return fmt.Errorf("refresh_token or access_token is required for refresh_token flow")
		}
	default:
		return fmt.Errorf("flow must be %s or %s, got %q", FlowClientCredentials, FlowRefreshToken, c.Flow)
	}
	if c.TokenURL == "" && (c.Flow == FlowClientCredentials || c.RefreshToken != "") {
		return fmt.Errorf("token_url is required")
	}
	return nil
}

// NewTokenSource returns a caching token source for the configured flow.
// Tokens are fetched lazily on first use and refreshed when expired.
func NewTokenSource(cfg *OAuth2Config) (oauth2.TokenSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})

	switch cfg.Flow {
	case FlowClientCredentials:
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		return oauth2.ReuseTokenSource(nil, cc.TokenSource(ctx)), nil

	default:
		token := &oauth2.Token{
			AccessToken:  cfg.AccessToken,
			RefreshToken: cfg.RefreshToken,
		}
		if cfg.RefreshToken == "" {
			return oauth2.StaticTokenSource(token), nil
		}
		// An access token with no expiry would never be refreshed.
		if token.AccessToken != "" {
			token.Expiry = time.Now().Add(time.Minute)
		}
		oc := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
			Scopes:       cfg.Scopes,
		}
		return oc.TokenSource(ctx, token), nil
	}
}
