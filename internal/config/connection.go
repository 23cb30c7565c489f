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

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/operation/transport"
	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

// KeyringService is the service name of keyring entries.
const KeyringService = "pieces"

const keyringPrefix = "keyring:"

// keyringGet is swapped in tests.
var keyringGet = keyring.Get

// ResolveSecret returns v, or the keyring entry it names when v has the
// form keyring:<account>.
func ResolveSecret(v string) (string, error) {
	account, ok := strings.CutPrefix(v, keyringPrefix)
	if !ok {
		return v, nil
	}
	secret, err := keyringGet(KeyringService, account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("keyring entry %q not found (set it with your system keychain under service %q)", account, KeyringService)
		}
		return "", fmt.Errorf("keyring: %w", err)
	}
	return secret, nil
}

// resolved returns a copy of a with every secret field resolved.
func (a AuthConfig) resolved() (AuthConfig, error) {
	for _, f := range []*string{&a.Token, &a.Username, &a.Password, &a.Key, &a.ClientID, &a.ClientSecret, &a.AccessToken, &a.RefreshToken} {
		v, err := ResolveSecret(*f)
		if err != nil {
			return a, err
		}
		*f = v
	}
	return a, nil
}

// ProviderConfig builds the connection of the named piece: an HTTP
// transport with the credential and rate limit applied. Fields missing from
// the config fall back to the piece's defaults. A piece with no config gets
// an unauthenticated connection.
func (c *Config) ProviderConfig(name string, defaults api.AuthDefaults, logger *slog.Logger) (*api.ProviderConfig, error) {
	pc := c.Pieces[name]
	key := "pieces." + name

	auth, err := pc.Auth.resolved()
	if err != nil {
		return nil, &pieceserrors.ConfigError{Key: key + ".auth", Reason: "cannot resolve credential", Cause: err}
	}

	var authCfg *transport.AuthConfig
	if !auth.IsZero() {
		if authCfg, err = buildAuth(auth, defaults); err != nil {
			return nil, &pieceserrors.ConfigError{Key: key + ".auth", Reason: err.Error()}
		}
	}

	tr, err := transport.NewHTTPTransport(&transport.HTTPTransportConfig{
		Timeout: pc.Timeout,
		Auth:    authCfg,
		Logger:  logger,
	})
	if err != nil {
		return nil, &pieceserrors.ConfigError{Key: key, Reason: "invalid connection", Cause: err}
	}
	if pc.RateLimit != "" {
		rps, err := ParseRateLimit(pc.RateLimit)
		if err != nil {
			return nil, &pieceserrors.ConfigError{Key: key + ".rate_limit", Reason: err.Error()}
		}
		tr.SetRateLimiter(transport.NewRateLimiter(rps, 1))
	}

	return &api.ProviderConfig{
		Transport:      tr,
		BaseURL:        pc.BaseURL,
		Authenticated:  authCfg != nil,
		AdditionalAuth: pc.Extra,
		Logger:         logger,
	}, nil
}

func buildAuth(a AuthConfig, d api.AuthDefaults) (*transport.AuthConfig, error) {
	typ := firstNonEmpty(a.Type, d.Type, transport.AuthBearer)

	switch typ {
	case transport.AuthBearer:
		return &transport.AuthConfig{Type: typ, Token: a.Token}, nil
	case transport.AuthBasic:
		return &transport.AuthConfig{Type: typ, Username: firstNonEmpty(a.Username, a.Key), Password: a.Password}, nil
	case transport.AuthAPIKey:
		return &transport.AuthConfig{
			Type:        typ,
			HeaderName:  firstNonEmpty(a.Header, d.HeaderName, "X-API-Key"),
			HeaderValue: firstNonEmpty(a.Key, a.Token),
		}, nil
	case transport.AuthAPIKeyQuery:
		return &transport.AuthConfig{
			Type:       typ,
			QueryParam: firstNonEmpty(a.QueryParam, d.QueryParam, "api_key"),
			QueryValue: firstNonEmpty(a.Key, a.Token),
		}, nil
	case transport.AuthOAuth2:
		scopes := a.Scopes
		if len(scopes) == 0 {
			scopes = d.Scopes
		}
		ts, err := transport.NewTokenSource(&transport.OAuth2Config{
			Flow:         firstNonEmpty(a.Flow, d.Flow, transport.FlowRefreshToken),
			ClientID:     a.ClientID,
			ClientSecret: a.ClientSecret,
			TokenURL:     firstNonEmpty(a.TokenURL, d.TokenURL),
			Scopes:       scopes,
			AccessToken:  a.AccessToken,
			RefreshToken: a.RefreshToken,
		})
		if err != nil {
			return nil, err
		}
		return &transport.AuthConfig{Type: typ, TokenSource: ts}, nil
	default:
		return nil, fmt.Errorf("unknown auth type %q (must be basic, bearer, api_key, api_key_query, or oauth2)", typ)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
