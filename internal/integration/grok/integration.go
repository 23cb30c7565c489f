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

// Package grok provides the xAI Grok piece: chat completions, structured
// extraction, classification, and image generation.
package grok

import (
	"context"
	"net/http"

	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/property"
	"github.com/tombee/pieces/internal/trigger/polling"
	"github.com/tombee/pieces/internal/trigger/webhook"
)

// DefaultBaseURL is the xAI API.
const DefaultBaseURL = "https://api.x.ai/v1"

// Default models.
const (
	DefaultChatModel  = "grok-3"
	DefaultImageModel = "grok-2-image"
)

// GrokIntegration implements the Grok piece.
type GrokIntegration struct {
	*api.BaseProvider
	schemas map[string]*api.OperationSchema
}

// NewGrokIntegration creates the Grok piece.
func NewGrokIntegration(config *api.ProviderConfig) (operation.Provider, error) {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	c := &GrokIntegration{BaseProvider: api.NewBaseProvider("grok", config)}
	c.schemas = c.operationSchemas()
	return c, nil
}

// Execute runs a named operation with the given inputs.
func (c *GrokIntegration) Execute(ctx context.Context, op string, inputs map[string]interface{}) (*operation.Result, error) {
	schema, ok := c.schemas[op]
	if !ok {
		return nil, operation.UnknownOperation(c.Name(), op)
	}
	inputs, err := c.Validate(schema.Properties, inputs)
	if err != nil {
		return nil, err
	}

	switch op {
	case "ask_grok":
		return c.askGrok(ctx, inputs)
	case "extract_data":
		return c.extractData(ctx, inputs)
	case "categorize_text":
		return c.categorizeText(ctx, inputs)
	case "generate_image":
		return c.generateImage(ctx, inputs)
	case "list_models":
		return c.DoResult(ctx, api.Call{Method: http.MethodGet, Path: "/models"})
	default:
		return nil, operation.UnknownOperation(c.Name(), op)
	}
}

// Operations returns the list of available operations.
func (c *GrokIntegration) Operations() []api.OperationInfo {
	return []api.OperationInfo{
		{Name: "ask_grok", Description: "Send a prompt to Grok", Category: "chat", Tags: []string{"write"}},
		{Name: "extract_data", Description: "Extract structured fields from text", Category: "chat", Tags: []string{"write"}},
		{Name: "categorize_text", Description: "Classify text into one of the given categories", Category: "chat", Tags: []string{"write"}},
		{Name: "generate_image", Description: "Generate images from a prompt", Category: "images", Tags: []string{"write"}},
		{Name: "list_models", Description: "List available models", Category: "models", Tags: []string{"read"}},
	}
}

// OperationSchema returns the schema for an operation.
func (c *GrokIntegration) OperationSchema(op string) *api.OperationSchema {
	return c.schemas[op]
}

// Options loads the choices of a dropdown property.
func (c *GrokIntegration) Options(ctx context.Context, op, prop string, inputs map[string]interface{}) property.DropdownState {
	var schema property.Schema
	if s, ok := c.schemas[op]; ok {
		schema = s.Properties
	}
	return c.LoadOptions(ctx, schema, prop, inputs)
}

// Ping checks the credential.
func (c *GrokIntegration) Ping(ctx context.Context) error {
	_, _, err := c.Do(ctx, api.Call{Method: http.MethodGet, Path: "/api-key"})
	return err
}

// Triggers returns nothing; Grok has no triggers.
func (c *GrokIntegration) Triggers() []api.TriggerInfo {
	return nil
}

// PollSource returns an error; Grok has no triggers.
func (c *GrokIntegration) PollSource(trigger string, _ map[string]interface{}) (polling.Source, error) {
	return nil, api.UnknownTrigger(c.Name(), trigger)
}

// WebhookTrigger returns an error; Grok has no triggers.
func (c *GrokIntegration) WebhookTrigger(trigger string, _ map[string]interface{}) (*webhook.Definition, error) {
	return nil, api.UnknownTrigger(c.Name(), trigger)
}
