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

// Package famulor provides the Famulor piece: AI phone assistants, outbound
// calls, leads, and SMS.
package famulor

import (
	"context"
	"net/http"

	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/property"
)

// DefaultBaseURL is the Famulor API.
const DefaultBaseURL = "https://app.famulor.de/api"

// FamulorIntegration implements the Famulor piece.
type FamulorIntegration struct {
	*api.BaseProvider
	schemas map[string]*api.OperationSchema
}

// NewFamulorIntegration creates the Famulor piece.
func NewFamulorIntegration(config *api.ProviderConfig) (operation.Provider, error) {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	c := &FamulorIntegration{BaseProvider: api.NewBaseProvider("famulor", config)}
	c.schemas = c.operationSchemas()
	return c, nil
}

// Execute runs a named operation with the given inputs.
func (c *FamulorIntegration) Execute(ctx context.Context, op string, inputs map[string]interface{}) (*operation.Result, error) {
	schema, ok := c.schemas[op]
	if !ok {
		return nil, operation.UnknownOperation(c.Name(), op)
	}
	inputs, err := c.Validate(schema.Properties, inputs)
	if err != nil {
		return nil, err
	}

	switch op {
	case "make_call":
		return c.makeCall(ctx, inputs)
	case "get_call":
		return c.getCall(ctx, inputs)
	case "add_lead":
		return c.addLead(ctx, inputs)
	case "send_sms":
		return c.sendSMS(ctx, inputs)
	case "list_assistants":
		return c.listAssistants(ctx, inputs)
	default:
		return nil, operation.UnknownOperation(c.Name(), op)
	}
}

// Operations returns the list of available operations.
func (c *FamulorIntegration) Operations() []api.OperationInfo {
	return []api.OperationInfo{
		{Name: "make_call", Description: "Have an assistant call a phone number", Category: "calls", Tags: []string{"write"}},
		{Name: "get_call", Description: "Get call details and transcript", Category: "calls", Tags: []string{"read"}},
		{Name: "add_lead", Description: "Add a lead to a campaign", Category: "leads", Tags: []string{"write"}},
		{Name: "send_sms", Description: "Send an SMS from a Famulor number", Category: "sms", Tags: []string{"write"}},
		{Name: "list_assistants", Description: "List outbound assistants", Category: "assistants", Tags: []string{"read"}},
	}
}

// OperationSchema returns the schema for an operation.
func (c *FamulorIntegration) OperationSchema(op string) *api.OperationSchema {
	return c.schemas[op]
}

// Options loads the choices of a dropdown property.
func (c *FamulorIntegration) Options(ctx context.Context, op, prop string, inputs map[string]interface{}) property.DropdownState {
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
func (c *FamulorIntegration) Ping(ctx context.Context) error {
	_, _, err := c.Do(ctx, api.Call{Method: http.MethodGet, Path: "/user/me"})
	return err
}
