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

// Package ariba provides the SAP Ariba piece: purchase orders, requisitions,
// and suppliers. Requests carry an OAuth2 client-credentials token from the
// transport plus the application's apiKey header and the realm parameter.
package ariba

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/property"
	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

// DefaultBaseURL is the Ariba open API gateway.
const DefaultBaseURL = "https://openapi.ariba.com/api"

// TokenURL is the Ariba OAuth2 token endpoint.
const TokenURL = "https://api.ariba.com/v2/oauth/token"

// Settings read from the piece's extra configuration.
const (
	SettingRealm  = "realm"
	SettingAPIKey = "api_key"
)

// AribaIntegration implements the SAP Ariba piece.
type AribaIntegration struct {
	*api.BaseProvider
	realm   string
	apiKey  string
	schemas map[string]*api.OperationSchema
}

// NewAribaIntegration creates the Ariba piece. An authenticated connection
// requires the realm and application apiKey.
func NewAribaIntegration(config *api.ProviderConfig) (operation.Provider, error) {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	c := &AribaIntegration{BaseProvider: api.NewBaseProvider("ariba", config)}
	c.realm = c.Setting(SettingRealm)
	c.apiKey = c.Setting(SettingAPIKey)
	if !config.Authenticated {
		c.schemas = c.operationSchemas()
		return c, nil
	}
	if c.realm == "" {
		return nil, &pieceserrors.ConfigError{Key: "pieces.ariba.extra.realm", Reason: "ariba requires a realm (e.g. mycompany-T)"}
	}
	if c.apiKey == "" {
		return nil, &pieceserrors.ConfigError{Key: "pieces.ariba.extra.api_key", Reason: "ariba requires the application apiKey"}
	}

	c.schemas = c.operationSchemas()
	return c, nil
}

// Execute runs a named operation with the given inputs.
func (c *AribaIntegration) Execute(ctx context.Context, op string, inputs map[string]interface{}) (*operation.Result, error) {
	schema, ok := c.schemas[op]
	if !ok {
		return nil, operation.UnknownOperation(c.Name(), op)
	}
	inputs, err := c.Validate(schema.Properties, inputs)
	if err != nil {
		return nil, err
	}

	switch op {
	case "list_purchase_orders":
		return c.list(ctx, ordersPath, inputs)
	case "get_purchase_order":
		return c.get(ctx, ordersPath+"/{order_id}", inputs)
	case "list_requisitions":
		return c.list(ctx, requisitionsPath, inputs)
	case "get_supplier":
		return c.get(ctx, suppliersPath+"/{supplier_id}", inputs)
	default:
		return nil, operation.UnknownOperation(c.Name(), op)
	}
}

// Operations returns the list of available operations.
func (c *AribaIntegration) Operations() []api.OperationInfo {
	return []api.OperationInfo{
		{Name: "list_purchase_orders", Description: "List purchase orders", Category: "purchase_orders", Tags: []string{"read", "paginated"}},
		{Name: "get_purchase_order", Description: "Get a purchase order", Category: "purchase_orders", Tags: []string{"read"}},
		{Name: "list_requisitions", Description: "List requisitions", Category: "requisitions", Tags: []string{"read", "paginated"}},
		{Name: "get_supplier", Description: "Get supplier master data", Category: "suppliers", Tags: []string{"read"}},
	}
}

// OperationSchema returns the schema for an operation.
func (c *AribaIntegration) OperationSchema(op string) *api.OperationSchema {
	return c.schemas[op]
}

// Options loads the choices of a dropdown property. Ariba has only static
// dropdowns.
func (c *AribaIntegration) Options(ctx context.Context, op, prop string, inputs map[string]interface{}) property.DropdownState {
	var schema property.Schema
	if s, ok := c.schemas[op]; ok {
		schema = s.Properties
	}
	return c.LoadOptions(ctx, schema, prop, inputs)
}

// Ping checks the credential.
func (c *AribaIntegration) Ping(ctx context.Context) error {
	_, _, err := c.Do(ctx, c.call(http.MethodGet, ordersPath, nil, url.Values{"$top": {"1"}}))
	return err
}

// call adds the realm and apiKey every Ariba request needs.
func (c *AribaIntegration) call(method, path string, params map[string]interface{}, query url.Values) api.Call {
	if query == nil {
		query = url.Values{}
	}
	query.Set("realm", c.realm)
	return api.Call{
		Method:  method,
		Path:    path,
		Params:  params,
		Query:   query,
		Headers: map[string]string{"apiKey": c.apiKey, "Accept": "application/json"},
	}
}
