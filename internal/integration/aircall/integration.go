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

// Package aircall provides the Aircall piece: calls, contacts, users, and
// call triggers against https://api.aircall.io/v1 with basic auth.
package aircall

import (
	"context"
	"net/http"

	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/property"
)

// DefaultBaseURL is the Aircall public API.
const DefaultBaseURL = "https://api.aircall.io/v1"

// AircallIntegration implements the Aircall piece.
type AircallIntegration struct {
	*api.BaseProvider
	schemas map[string]*api.OperationSchema
}

// NewAircallIntegration creates the Aircall piece.
func NewAircallIntegration(config *api.ProviderConfig) (operation.Provider, error) {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	c := &AircallIntegration{BaseProvider: api.NewBaseProvider("aircall", config)}
	c.schemas = c.operationSchemas()
	return c, nil
}

// Execute runs a named operation with the given inputs.
func (c *AircallIntegration) Execute(ctx context.Context, op string, inputs map[string]interface{}) (*operation.Result, error) {
	schema, ok := c.schemas[op]
	if !ok {
		return nil, operation.UnknownOperation(c.Name(), op)
	}
	inputs, err := c.Validate(schema.Properties, inputs)
	if err != nil {
		return nil, err
	}

	switch op {
	// Calls
	case "tag_call":
		return c.tagCall(ctx, inputs)
	case "comment_call":
		return c.commentCall(ctx, inputs)
	case "get_call":
		return c.getCall(ctx, inputs)
	case "search_calls":
		return c.searchCalls(ctx, inputs)

	// Contacts
	case "create_contact":
		return c.createContact(ctx, inputs)
	case "update_contact":
		return c.updateContact(ctx, inputs)
	case "find_contact":
		return c.findContact(ctx, inputs)
	case "get_contact":
		return c.getContact(ctx, inputs)

	// Users
	case "list_users":
		return c.listUsers(ctx, inputs)

	default:
		return nil, operation.UnknownOperation(c.Name(), op)
	}
}

// Operations returns the list of available operations.
func (c *AircallIntegration) Operations() []api.OperationInfo {
	return []api.OperationInfo{
		// Calls
		{Name: "tag_call", Description: "Add tags to a call", Category: "calls", Tags: []string{"write"}},
		{Name: "comment_call", Description: "Add a comment to a call", Category: "calls", Tags: []string{"write"}},
		{Name: "get_call", Description: "Get call details", Category: "calls", Tags: []string{"read"}},
		{Name: "search_calls", Description: "Search calls by date, direction, or number", Category: "calls", Tags: []string{"read", "paginated"}},

		// Contacts
		{Name: "create_contact", Description: "Create a shared contact", Category: "contacts", Tags: []string{"write"}},
		{Name: "update_contact", Description: "Update a contact", Category: "contacts", Tags: []string{"write"}},
		{Name: "find_contact", Description: "Find contacts by phone number or email", Category: "contacts", Tags: []string{"read"}},
		{Name: "get_contact", Description: "Get contact details", Category: "contacts", Tags: []string{"read"}},

		// Users
		{Name: "list_users", Description: "List users of the company", Category: "users", Tags: []string{"read", "paginated"}},
	}
}

// OperationSchema returns the schema for an operation.
func (c *AircallIntegration) OperationSchema(op string) *api.OperationSchema {
	return c.schemas[op]
}

// Options loads the choices of a dropdown property.
func (c *AircallIntegration) Options(ctx context.Context, op, prop string, inputs map[string]interface{}) property.DropdownState {
	if schema, ok := c.schemas[op]; ok {
		return c.LoadOptions(ctx, schema.Properties, prop, inputs)
	}
	for _, t := range c.Triggers() {
		if t.Name == op {
			return c.LoadOptions(ctx, t.Properties, prop, inputs)
		}
	}
	return c.LoadOptions(ctx, nil, prop, inputs)
}

// Ping checks the credential.
func (c *AircallIntegration) Ping(ctx context.Context) error {
	_, _, err := c.Do(ctx, api.Call{Method: http.MethodGet, Path: "/ping"})
	return err
}
