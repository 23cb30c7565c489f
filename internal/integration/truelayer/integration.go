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

// Package truelayer provides the TrueLayer Data API piece: account holder
// info, accounts, balances, transactions, and cards.
package truelayer

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/property"
	"github.com/tombee/pieces/internal/trigger/polling"
	"github.com/tombee/pieces/internal/trigger/webhook"
)

// DefaultBaseURL is the TrueLayer Data API.
const DefaultBaseURL = "https://api.truelayer.com/data/v1"

// TokenURL is the TrueLayer OAuth2 token endpoint.
const TokenURL = "https://auth.truelayer.com/connect/token"

// Scopes is the OAuth2 scope set the piece needs.
var Scopes = []string{"info", "accounts", "balance", "cards", "transactions", "offline_access"}

// TrueLayerIntegration implements the TrueLayer piece.
type TrueLayerIntegration struct {
	*api.BaseProvider
	schemas map[string]*api.OperationSchema
	now     func() time.Time
}

// NewTrueLayerIntegration creates the TrueLayer piece.
func NewTrueLayerIntegration(config *api.ProviderConfig) (operation.Provider, error) {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	c := &TrueLayerIntegration{BaseProvider: api.NewBaseProvider("truelayer", config), now: time.Now}
	c.schemas = c.operationSchemas()
	return c, nil
}

// Execute runs a named operation with the given inputs.
func (c *TrueLayerIntegration) Execute(ctx context.Context, op string, inputs map[string]interface{}) (*operation.Result, error) {
	schema, ok := c.schemas[op]
	if !ok {
		return nil, operation.UnknownOperation(c.Name(), op)
	}
	inputs, err := c.Validate(schema.Properties, inputs)
	if err != nil {
		return nil, err
	}

	switch op {
	case "get_info":
		return c.DoResult(ctx, api.Call{Method: http.MethodGet, Path: "/info"})
	case "list_accounts":
		return c.DoResult(ctx, api.Call{Method: http.MethodGet, Path: "/accounts"})
	case "get_balance":
		return c.DoResult(ctx, api.Call{Method: http.MethodGet, Path: "/accounts/{account_id}/balance", Params: inputs})
	case "list_transactions":
		return c.listTransactions(ctx, inputs)
	case "list_cards":
		return c.DoResult(ctx, api.Call{Method: http.MethodGet, Path: "/cards"})
	default:
		return nil, operation.UnknownOperation(c.Name(), op)
	}
}

// Operations returns the list of available operations.
func (c *TrueLayerIntegration) Operations() []api.OperationInfo {
	return []api.OperationInfo{
		{Name: "get_info", Description: "Get account holder identity", Category: "info", Tags: []string{"read"}},
		{Name: "list_accounts", Description: "List bank accounts", Category: "accounts", Tags: []string{"read"}},
		{Name: "get_balance", Description: "Get an account balance", Category: "accounts", Tags: []string{"read"}},
		{Name: "list_transactions", Description: "List account transactions in a date range", Category: "transactions", Tags: []string{"read"}},
		{Name: "list_cards", Description: "List cards", Category: "cards", Tags: []string{"read"}},
	}
}

// OperationSchema returns the schema for an operation.
func (c *TrueLayerIntegration) OperationSchema(op string) *api.OperationSchema {
	return c.schemas[op]
}

func (c *TrueLayerIntegration) operationSchemas() map[string]*api.OperationSchema {
	account := property.New(property.Dropdown, "account_id", "Account", property.Required, property.LoadWith(c.accountOptions))

	return map[string]*api.OperationSchema{
		"get_info":      {Description: "Get account holder identity"},
		"list_accounts": {Description: "List bank accounts"},
		"list_cards":    {Description: "List cards"},
		"get_balance": {
			Description: "Get an account balance",
			Properties:  property.Schema{account},
		},
		"list_transactions": {
			Description: "List account transactions in a date range",
			Properties: property.Schema{
				account,
				property.New(property.DateTime, "from", "From", property.Describe("Defaults to 30 days ago")),
				property.New(property.DateTime, "to", "To", property.Describe("Defaults to now")),
			},
		},
	}
}

// Options loads the choices of a dropdown property.
func (c *TrueLayerIntegration) Options(ctx context.Context, op, prop string, inputs map[string]interface{}) property.DropdownState {
	if s, ok := c.schemas[op]; ok {
		return c.LoadOptions(ctx, s.Properties, prop, inputs)
	}
	for _, t := range c.Triggers() {
		if t.Name == op {
			return c.LoadOptions(ctx, t.Properties, prop, inputs)
		}
	}
	return c.LoadOptions(ctx, nil, prop, inputs)
}

// Ping checks the credential.
func (c *TrueLayerIntegration) Ping(ctx context.Context) error {
	_, _, err := c.Do(ctx, api.Call{Method: http.MethodGet, Path: "/me"})
	return err
}

func (c *TrueLayerIntegration) accountOptions(ctx context.Context, _ map[string]interface{}) ([]property.Option, error) {
	out, _, err := c.Do(ctx, api.Call{Method: http.MethodGet, Path: "/accounts"})
	if err != nil {
		return nil, err
	}

	accounts, _ := api.Field(out, "results").([]interface{})
	opts := make([]property.Option, 0, len(accounts))
	for _, a := range accounts {
		opts = append(opts, property.Option{
			Label: api.FormatValue(api.Field(a, "display_name")) + " (" + api.FormatValue(api.Field(a, "currency")) + ")",
			Value: api.Field(a, "account_id"),
		})
	}
	return opts, nil
}

func (c *TrueLayerIntegration) listTransactions(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	to := c.now()
	if ms := polling.EpochMS(inputs["to"]); ms > 0 {
		to = time.UnixMilli(ms)
	}
	from := to.AddDate(0, 0, -30)
	if ms := polling.EpochMS(inputs["from"]); ms > 0 {
		from = time.UnixMilli(ms)
	}

	return c.DoResult(ctx, api.Call{
		Method: http.MethodGet,
		Path:   "/accounts/{account_id}/transactions",
		Params: inputs,
		Query:  rangeQuery(from, to),
	})
}

func rangeQuery(from, to time.Time) url.Values {
	return url.Values{
		"from": {from.UTC().Format(time.RFC3339)},
		"to":   {to.UTC().Format(time.RFC3339)},
	}
}

// Triggers returns the triggers this piece supports.
func (c *TrueLayerIntegration) Triggers() []api.TriggerInfo {
	return []api.TriggerInfo{
		{
			Name:        "new_transaction",
			DisplayName: "New Transaction",
			Description: "Fires for each new transaction on an account",
			Kind:        api.TriggerPolling,
			Properties: property.Schema{
				property.New(property.Dropdown, "account_id", "Account", property.Required, property.LoadWith(c.accountOptions)),
			},
		},
	}
}

// PollSource returns the item source of a polling trigger. The first poll
// looks back one day; later polls start at the watermark.
func (c *TrueLayerIntegration) PollSource(trigger string, inputs map[string]interface{}) (polling.Source, error) {
	if trigger != "new_transaction" {
		return nil, api.UnknownTrigger(c.Name(), trigger)
	}
	if err := c.Triggers()[0].Properties.Validate(inputs); err != nil {
		return nil, err
	}

	return polling.SourceFunc(func(ctx context.Context, since int64) ([]polling.Item, error) {
		to := c.now()
		from := to.Add(-24 * time.Hour)
		if since > 0 {
			from = time.UnixMilli(since)
		}

		out, _, err := c.Do(ctx, api.Call{
			Method: http.MethodGet,
			Path:   "/accounts/{account_id}/transactions",
			Params: inputs,
			Query:  rangeQuery(from, to),
		})
		if err != nil {
			return nil, err
		}
		txns, _ := api.Field(out, "results").([]interface{})
		return polling.FromRecords(txns, "transaction_id", "timestamp"), nil
	}), nil
}

// WebhookTrigger returns an error; the Data API has no webhooks.
func (c *TrueLayerIntegration) WebhookTrigger(trigger string, _ map[string]interface{}) (*webhook.Definition, error) {
	return nil, api.UnknownTrigger(c.Name(), trigger)
}
