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

package truelayer

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/pieces/internal/operation/transport"
	"github.com/tombee/pieces/internal/testing/mock"
	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

var fixedNow = time.Date(2024, 7, 10, 12, 0, 0, 0, time.UTC)

func newTestIntegration(t *testing.T, srv *mock.Server) *TrueLayerIntegration {
	t.Helper()
	p, err := NewTrueLayerIntegration(srv.ProviderConfig(nil))
	require.NoError(t, err)
	c := p.(*TrueLayerIntegration)
	c.now = func() time.Time { return fixedNow }
	return c
}

func TestListTransactions_DefaultRange(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodGet, "/accounts/acc1/transactions", http.StatusOK,
		map[string]interface{}{"results": []interface{}{}})
	c := newTestIntegration(t, srv)

	_, err := c.Execute(context.Background(), "list_transactions", map[string]interface{}{"account_id": "acc1"})
	require.NoError(t, err)

	q := srv.Last().Query
	assert.Equal(t, "2024-06-10T12:00:00Z", q.Get("from"))
	assert.Equal(t, "2024-07-10T12:00:00Z", q.Get("to"))
}

func TestListTransactions_InvalidDate(t *testing.T) {
	srv := mock.NewServer(t)
	c := newTestIntegration(t, srv)

	_, err := c.Execute(context.Background(), "list_transactions", map[string]interface{}{
		"account_id": "acc1",
		"from":       "last tuesday",
	})
	assert.True(t, pieceserrors.IsValidation(err))
	assert.Zero(t, srv.Count())
}

func TestGetBalance(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodGet, "/accounts/acc1/balance", http.StatusOK, map[string]interface{}{
		"results": []interface{}{map[string]interface{}{"currency": "GBP", "available": 12.5}},
		"status":  "Succeeded",
	})
	c := newTestIntegration(t, srv)

	result, err := c.Execute(context.Background(), "get_balance", map[string]interface{}{"account_id": "acc1"})
	require.NoError(t, err)
	assert.Equal(t, "Succeeded", result.Response.(map[string]interface{})["status"])
}

func TestRefreshTokenFlow(t *testing.T) {
	srv := mock.NewServer(t).
		Handle(http.MethodPost, "/connect/token", http.StatusOK, map[string]interface{}{
			"access_token":  "fresh",
			"token_type":    "Bearer",
			"expires_in":    3600,
			"refresh_token": "r2",
		}).
		Handle(http.MethodGet, "/me", http.StatusOK, map[string]interface{}{"results": []interface{}{}})

	ts, err := transport.NewTokenSource(&transport.OAuth2Config{
		Flow:         transport.FlowRefreshToken,
		ClientID:     "client",
		ClientSecret: "secret",
		TokenURL:     srv.URL + "/connect/token",
		RefreshToken: "r1",
	})
	require.NoError(t, err)

	tr, err := transport.NewHTTPTransport(&transport.HTTPTransportConfig{
		Timeout: 5 * time.Second,
		Auth:    &transport.AuthConfig{Type: transport.AuthOAuth2, TokenSource: ts},
	})
	require.NoError(t, err)

	cfg := srv.ProviderConfig(nil)
	cfg.Transport = tr
	p, err := NewTrueLayerIntegration(cfg)
	require.NoError(t, err)

	require.NoError(t, p.(*TrueLayerIntegration).Ping(context.Background()))
	assert.Equal(t, "Bearer fresh", srv.Last().Header.Get("Authorization"))

	refresh := srv.Requests()[0]
	assert.Equal(t, "/connect/token", refresh.Path)
	assert.Contains(t, string(refresh.Body), "refresh_token=r1")
}

func TestNewTransactionSource(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodGet, "/accounts/acc1/transactions", http.StatusOK, map[string]interface{}{
		"results": []interface{}{
			map[string]interface{}{"transaction_id": "tx1", "timestamp": "2024-07-10T08:00:00+00:00"},
			map[string]interface{}{"transaction_id": "tx2", "timestamp": "2024-07-10T09:00:00+00:00"},
		},
	})
	c := newTestIntegration(t, srv)

	_, err := c.PollSource("new_transaction", nil)
	require.Error(t, err)

	src, err := c.PollSource("new_transaction", map[string]interface{}{"account_id": "acc1"})
	require.NoError(t, err)

	items, err := src.Items(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, "2024-07-09T12:00:00Z", srv.Last().Query.Get("from"))
}
