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

// Package retellai provides the Retell AI piece: voice agent phone calls,
// phone numbers, agents, and voices.
package retellai

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/property"
)

// DefaultBaseURL is the Retell AI API.
const DefaultBaseURL = "https://api.retellai.com"

// RetellAIIntegration implements the Retell AI piece.
type RetellAIIntegration struct {
	*api.BaseProvider
	schemas map[string]*api.OperationSchema
}

// NewRetellAIIntegration creates the Retell AI piece.
func NewRetellAIIntegration(config *api.ProviderConfig) (operation.Provider, error) {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	c := &RetellAIIntegration{BaseProvider: api.NewBaseProvider("retellai", config)}
	c.SetErrorDetail(errorDetail)
	c.schemas = c.operationSchemas()
	return c, nil
}

// Execute runs a named operation with the given inputs.
func (c *RetellAIIntegration) Execute(ctx context.Context, op string, inputs map[string]interface{}) (*operation.Result, error) {
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
	case "create_phone_call":
		return c.createPhoneCall(ctx, inputs)
	case "get_call":
		return c.getByID(ctx, "/v2/get-call/{call_id}", inputs)
	case "list_calls":
		return c.listCalls(ctx, inputs)

	// Phone numbers
	case "create_phone_number":
		return c.DoResult(ctx, api.Call{
			Method: http.MethodPost,
			Path:   "/create-phone-number",
			Body:   api.Pick(inputs, "area_code", "inbound_agent_id", "outbound_agent_id", "nickname"),
		})
	case "get_phone_number":
		return c.getByID(ctx, "/get-phone-number/{phone_number}", inputs)

	// Agents and voices
	case "get_agent":
		return c.getByID(ctx, "/get-agent/{agent_id}", inputs)
	case "get_voice":
		return c.getByID(ctx, "/get-voice/{voice_id}", inputs)

	default:
		return nil, operation.UnknownOperation(c.Name(), op)
	}
}

// Operations returns the list of available operations.
func (c *RetellAIIntegration) Operations() []api.OperationInfo {
	return []api.OperationInfo{
		// Calls
		{Name: "create_phone_call", Description: "Start an outbound call with an agent", Category: "calls", Tags: []string{"write"}},
		{Name: "get_call", Description: "Get call details, transcript, and analysis", Category: "calls", Tags: []string{"read"}},
		{Name: "list_calls", Description: "List calls with filters", Category: "calls", Tags: []string{"read", "paginated"}},

		// Phone numbers
		{Name: "create_phone_number", Description: "Buy a phone number and bind agents", Category: "phone_numbers", Tags: []string{"write"}},
		{Name: "get_phone_number", Description: "Get phone number details", Category: "phone_numbers", Tags: []string{"read"}},

		// Agents and voices
		{Name: "get_agent", Description: "Get agent details", Category: "agents", Tags: []string{"read"}},
		{Name: "get_voice", Description: "Get voice details", Category: "voices", Tags: []string{"read"}},
	}
}

// OperationSchema returns the schema for an operation.
func (c *RetellAIIntegration) OperationSchema(op string) *api.OperationSchema {
	return c.schemas[op]
}

// Options loads the choices of a dropdown property.
func (c *RetellAIIntegration) Options(ctx context.Context, op, prop string, inputs map[string]interface{}) property.DropdownState {
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
func (c *RetellAIIntegration) Ping(ctx context.Context) error {
	_, _, err := c.Do(ctx, api.Call{Method: http.MethodGet, Path: "/list-agents"})
	return err
}

func (c *RetellAIIntegration) getByID(ctx context.Context, path string, inputs map[string]interface{}) (*operation.Result, error) {
	return c.DoResult(ctx, api.Call{Method: http.MethodGet, Path: path, Params: inputs})
}

// errorDetail reads Retell's {"error_message": ...} envelope.
func errorDetail(body []byte) string {
	var env struct {
		ErrorMessage string `json:"error_message"`
	}
	if err := json.Unmarshal(body, &env); err == nil && env.ErrorMessage != "" {
		return env.ErrorMessage
	}
	return api.DefaultErrorDetail(body)
}
