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

// Package hunter provides the Hunter piece: email discovery, verification,
// and lead management. The API key travels as the api_key query parameter.
package hunter

import (
	"context"
	"net/http"

	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/property"
)

// DefaultBaseURL is the Hunter v2 API.
const DefaultBaseURL = "https://api.hunter.io/v2"

// HunterIntegration implements the Hunter piece.
type HunterIntegration struct {
	*api.BaseProvider
	schemas map[string]*api.OperationSchema
}

// NewHunterIntegration creates the Hunter piece.
func NewHunterIntegration(config *api.ProviderConfig) (operation.Provider, error) {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	c := &HunterIntegration{BaseProvider: api.NewBaseProvider("hunter", config)}
	c.schemas = c.operationSchemas()
	return c, nil
}

// Execute runs a named operation with the given inputs.
func (c *HunterIntegration) Execute(ctx context.Context, op string, inputs map[string]interface{}) (*operation.Result, error) {
	schema, ok := c.schemas[op]
	if !ok {
		return nil, operation.UnknownOperation(c.Name(), op)
	}
	inputs, err := c.Validate(schema.Properties, inputs)
	if err != nil {
		return nil, err
	}

	switch op {
	// Discovery
	case "domain_search":
		return c.domainSearch(ctx, inputs)
	case "find_email":
		return c.findEmail(ctx, inputs)
	case "verify_email":
		return c.get(ctx, "/email-verifier", inputs, "email")
	case "count_emails":
		return c.countEmails(ctx, inputs)

	// Leads
	case "create_lead":
		return c.createLead(ctx, inputs)
	case "get_lead":
		return c.DoResult(ctx, api.Call{Method: http.MethodGet, Path: "/leads/{lead_id}", Params: inputs})
	case "update_lead":
		return c.updateLead(ctx, inputs)
	case "delete_lead":
		return c.deleteLead(ctx, inputs)
	case "list_leads":
		return c.get(ctx, "/leads", inputs, "leads_list_id", "email", "first_name", "last_name",
			"company", "sync_status", "sending_status", "limit", "offset")
	case "create_leads_list":
		return c.DoResult(ctx, api.Call{Method: http.MethodPost, Path: "/leads_lists", Body: api.Pick(inputs, "name", "team_id")})

	// Account
	case "get_account":
		return c.DoResult(ctx, api.Call{Method: http.MethodGet, Path: "/account"})

	default:
		return nil, operation.UnknownOperation(c.Name(), op)
	}
}

// Operations returns the list of available operations.
func (c *HunterIntegration) Operations() []api.OperationInfo {
	return []api.OperationInfo{
		// Discovery
		{Name: "domain_search", Description: "Find email addresses for a domain", Category: "discovery", Tags: []string{"read", "paginated"}},
		{Name: "find_email", Description: "Find a person's email address", Category: "discovery", Tags: []string{"read"}},
		{Name: "verify_email", Description: "Verify the deliverability of an email address", Category: "discovery", Tags: []string{"read"}},
		{Name: "count_emails", Description: "Count email addresses for a domain", Category: "discovery", Tags: []string{"read"}},

		// Leads
		{Name: "create_lead", Description: "Create a lead", Category: "leads", Tags: []string{"write"}},
		{Name: "get_lead", Description: "Get a lead", Category: "leads", Tags: []string{"read"}},
		{Name: "update_lead", Description: "Update a lead", Category: "leads", Tags: []string{"write"}},
		{Name: "delete_lead", Description: "Delete a lead", Category: "leads", Tags: []string{"write"}},
		{Name: "list_leads", Description: "List leads", Category: "leads", Tags: []string{"read", "paginated"}},
		{Name: "create_leads_list", Description: "Create a leads list", Category: "leads", Tags: []string{"write"}},

		// Account
		{Name: "get_account", Description: "Get account details and usage", Category: "account", Tags: []string{"read"}},
	}
}

// OperationSchema returns the schema for an operation.
func (c *HunterIntegration) OperationSchema(op string) *api.OperationSchema {
	return c.schemas[op]
}

// Options loads the choices of a dropdown property.
func (c *HunterIntegration) Options(ctx context.Context, op, prop string, inputs map[string]interface{}) property.DropdownState {
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
func (c *HunterIntegration) Ping(ctx context.Context) error {
	_, _, err := c.Do(ctx, api.Call{Method: http.MethodGet, Path: "/account"})
	return err
}

// get issues a GET with the named inputs as query parameters.
func (c *HunterIntegration) get(ctx context.Context, path string, inputs map[string]interface{}, names ...string) (*operation.Result, error) {
	return c.DoResult(ctx, api.Call{
		Method: http.MethodGet,
		Path:   path,
		Query:  api.Query(inputs, names...),
	})
}
