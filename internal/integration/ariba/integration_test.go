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

package ariba

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/operation/transport"
	"github.com/tombee/pieces/internal/testing/mock"
	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

var settings = map[string]string{SettingRealm: "acme-T", SettingAPIKey: "app-key"}

func newTestIntegration(t *testing.T, srv *mock.Server) *AribaIntegration {
	t.Helper()
	p, err := NewAribaIntegration(srv.ProviderConfig(settings))
	require.NoError(t, err)
	return p.(*AribaIntegration)
}

func TestNewAribaIntegration_RequiresSettings(t *testing.T) {
	_, err := NewAribaIntegration(&api.ProviderConfig{Authenticated: true, AdditionalAuth: map[string]string{SettingAPIKey: "k"}})
	var cfgErr *pieceserrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Key, "realm")

	_, err = NewAribaIntegration(&api.ProviderConfig{Authenticated: true, AdditionalAuth: map[string]string{SettingRealm: "r"}})
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Key, "api_key")

	// Unconfigured connections still describe their operations.
	p, err := NewAribaIntegration(&api.ProviderConfig{})
	require.NoError(t, err)
	assert.NotEmpty(t, p.(*AribaIntegration).Operations())
}

func TestListPurchaseOrders(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodGet, ordersPath, http.StatusOK,
		map[string]interface{}{"content": []interface{}{}})
	c := newTestIntegration(t, srv)

	_, err := c.Execute(context.Background(), "list_purchase_orders", map[string]interface{}{
		"filter":        "documentStatus eq 'Ordered'",
		"updated_after": "2024-01-01T00:00:00Z",
	})
	require.NoError(t, err)

	req := srv.Last()
	assert.Equal(t, "app-key", req.Header.Get("apiKey"))
	assert.Equal(t, "acme-T", req.Query.Get("realm"))
	assert.Equal(t, "50", req.Query.Get("$top"))
	assert.Equal(t, "(documentStatus eq 'Ordered') and lastModifiedDate gt 2024-01-01T00:00:00Z", req.Query.Get("$filter"))
}

func TestGetPurchaseOrder(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodGet, ordersPath+"/PO42", http.StatusOK,
		map[string]interface{}{"documentNumber": "PO42"})
	c := newTestIntegration(t, srv)

	result, err := c.Execute(context.Background(), "get_purchase_order", map[string]interface{}{"order_id": "PO42"})
	require.NoError(t, err)
	assert.Equal(t, "PO42", result.Response.(map[string]interface{})["documentNumber"])

	_, err = c.Execute(context.Background(), "get_purchase_order", map[string]interface{}{})
	assert.True(t, pieceserrors.IsValidation(err))
	assert.Equal(t, 1, srv.Count())
}

func TestClientCredentialsFlow(t *testing.T) {
	srv := mock.NewServer(t).
		Handle(http.MethodPost, "/oauth/token", http.StatusOK, map[string]interface{}{
			"access_token": "tok-1",
			"token_type":   "bearer",
			"expires_in":   3600,
		}).
		Handle(http.MethodGet, suppliersPath+"/S1", http.StatusOK, map[string]interface{}{"id": "S1"})

	ts, err := transport.NewTokenSource(&transport.OAuth2Config{
		Flow:         transport.FlowClientCredentials,
		ClientID:     "client",
		ClientSecret: "secret",
		TokenURL:     srv.URL + "/oauth/token",
	})
	require.NoError(t, err)

	tr, err := transport.NewHTTPTransport(&transport.HTTPTransportConfig{
		Timeout: 5 * time.Second,
		Auth:    &transport.AuthConfig{Type: transport.AuthOAuth2, TokenSource: ts},
	})
	require.NoError(t, err)

	p, err := NewAribaIntegration(&api.ProviderConfig{
		Transport:      tr,
		BaseURL:        srv.URL,
		Authenticated:  true,
		AdditionalAuth: settings,
	})
	require.NoError(t, err)

	_, err = p.Execute(context.Background(), "get_supplier", map[string]interface{}{"supplier_id": "S1"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", srv.Last().Header.Get("Authorization"))
	assert.Equal(t, "app-key", srv.Last().Header.Get("apiKey"))
}

func TestNewPurchaseOrderSource(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodGet, ordersPath, http.StatusOK, map[string]interface{}{
		"content": []interface{}{
			map[string]interface{}{"documentNumber": "PO2", "orderDate": "2024-04-02T09:00:00Z"},
			map[string]interface{}{"documentNumber": "PO1", "orderDate": "2024-04-01T09:00:00Z"},
		},
	})
	c := newTestIntegration(t, srv)

	src, err := c.PollSource("new_purchase_order", nil)
	require.NoError(t, err)

	items, err := src.Items(context.Background(), 1711962000000)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "PO2", items[0].ID)
	assert.Equal(t, "orderDate gt 2024-04-01T09:00:00Z", srv.Last().Query.Get("$filter"))
}
