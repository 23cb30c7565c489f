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

package grok

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/property"
)

const maxPromptLength = 100000

func (c *GrokIntegration) operationSchemas() map[string]*api.OperationSchema {
	model := property.New(property.Dropdown, "model", "Model", property.Default(DefaultChatModel),
		property.LoadWith(c.modelOptions))
	temperature := property.Num("temperature", "Temperature", property.Min(0), property.Max(2))
	text := property.New(property.LongText, "text", "Text", property.Required, property.MaxLength(maxPromptLength))

	return map[string]*api.OperationSchema{
		"ask_grok": {
			Description: "Send a prompt to Grok",
			Properties: property.Schema{
				model,
				property.New(property.LongText, "prompt", "Prompt", property.Required, property.MaxLength(maxPromptLength)),
				property.New(property.LongText, "system_prompt", "System Prompt", property.MaxLength(maxPromptLength)),
				temperature,
				property.Num("max_tokens", "Max Tokens", property.Min(1), property.Max(131072)),
			},
			ResponseFields: []api.ResponseFieldInfo{
				{Name: "choices[0].message.content", Type: "string", Description: "Answer text"},
				{Name: "usage.total_tokens", Type: "number", Description: "Tokens used"},
			},
		},
		"extract_data": {
			Description: "Extract structured fields from text",
			Properties: property.Schema{
				model,
				text,
				property.New(property.Array, "fields", "Fields", property.Required, property.MinItems(1), property.Of(
					property.Text("name", "Name", property.Required, property.Pattern(`^[A-Za-z_][A-Za-z0-9_]*$`)),
					property.Text("description", "Description"),
					property.New(property.StaticDropdown, "type", "Type", property.Default("string"), property.Choices(
						property.Option{Label: "Text", Value: "string"},
						property.Option{Label: "Number", Value: "number"},
						property.Option{Label: "Boolean", Value: "boolean"},
					)),
				)),
			},
		},
		"categorize_text": {
			Description: "Classify text into one of the given categories",
			Properties: property.Schema{
				model,
				text,
				property.New(property.Array, "categories", "Categories", property.Required, property.MinItems(2)),
			},
		},
		"generate_image": {
			Description: "Generate images from a prompt",
			Properties: property.Schema{
				property.New(property.LongText, "prompt", "Prompt", property.Required, property.MaxLength(maxPromptLength)),
				property.Num("n", "Count", property.Default(1), property.Min(1), property.Max(10)),
				property.New(property.StaticDropdown, "response_format", "Response Format", property.Default("url"), property.Choices(
					property.Option{Label: "URL", Value: "url"},
					property.Option{Label: "Base64 JSON", Value: "b64_json"},
				)),
			},
		},
		"list_models": {
			Description: "List available models",
		},
	}
}

func (c *GrokIntegration) modelOptions(ctx context.Context, _ map[string]interface{}) ([]property.Option, error) {
	out, _, err := c.Do(ctx, api.Call{Method: http.MethodGet, Path: "/models"})
	if err != nil {
		return nil, err
	}

	models, _ := api.Field(out, "data").([]interface{})
	opts := make([]property.Option, 0, len(models))
	for _, m := range models {
		id := api.FormatValue(api.Field(m, "id"))
		opts = append(opts, property.Option{Label: id, Value: id})
	}
	return opts, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// complete sends a chat completion and returns the decoded response and
// the first choice's text.
func (c *GrokIntegration) complete(ctx context.Context, body map[string]interface{}) (*operation.Result, string, error) {
	out, resp, err := c.Do(ctx, api.Call{
		Method: http.MethodPost,
		Path:   "/chat/completions",
		Body:   body,
	})
	if err != nil {
		return nil, "", err
	}

	choices, _ := api.Field(out, "choices").([]interface{})
	if len(choices) == 0 {
		return nil, "", fmt.Errorf("grok returned no choices")
	}
	content := api.FormatValue(api.Field(choices[0], "message.content"))
	return c.ToResult(resp, out), content, nil
}

func (c *GrokIntegration) askGrok(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	var messages []message
	if system := api.String(inputs, "system_prompt"); system != "" {
		messages = append(messages, message{Role: "system", Content: system})
	}
	messages = append(messages, message{Role: "user", Content: api.String(inputs, "prompt")})

	body := api.Pick(inputs, "model", "temperature", "max_tokens")
	body["messages"] = messages

	result, _, err := c.complete(ctx, body)
	return result, err
}

// extractData asks for a JSON object with the requested fields and returns
// it decoded.
func (c *GrokIntegration) extractData(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	var spec strings.Builder
	for _, f := range api.Slice(inputs, "fields") {
		fmt.Fprintf(&spec, "- %s (%s): %s\n",
			api.FormatValue(api.Field(f, "name")),
			fieldType(f),
			api.FormatValue(api.Field(f, "description")))
	}

	body := api.Pick(inputs, "model")
	body["messages"] = []message{
		{Role: "system", Content: "Extract the following fields from the user's text. " +
			"Reply with a single JSON object using exactly these keys; use null when a value is absent.\n" + spec.String()},
		{Role: "user", Content: api.String(inputs, "text")},
	}
	body["response_format"] = map[string]string{"type": "json_object"}

	result, content, err := c.complete(ctx, body)
	if err != nil {
		return nil, err
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(stripFence(content)), &data); err != nil {
		return nil, fmt.Errorf("grok did not return valid JSON: %w", err)
	}
	result.Response = data
	return result, nil
}

func fieldType(f interface{}) string {
	if t := api.FormatValue(api.Field(f, "type")); t != "" {
		return t
	}
	return "string"
}

// stripFence removes a ```json fence some models wrap around JSON.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

// categorizeText returns the chosen category, or "unknown" when the model
// answers with something outside the list.
func (c *GrokIntegration) categorizeText(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	categories := api.Strings(inputs, "categories")

	body := api.Pick(inputs, "model")
	body["temperature"] = 0
	body["messages"] = []message{
		{Role: "system", Content: "Classify the user's text into exactly one of these categories: " +
			strings.Join(categories, ", ") + ". Reply with the category name only."},
		{Role: "user", Content: api.String(inputs, "text")},
	}

	result, content, err := c.complete(ctx, body)
	if err != nil {
		return nil, err
	}

	category := "unknown"
	answer := strings.Trim(strings.TrimSpace(content), `."'`)
	for _, cat := range categories {
		if strings.EqualFold(answer, cat) {
			category = cat
			break
		}
	}
	result.Response = map[string]interface{}{
		"category": category,
		"answer":   content,
	}
	return result, nil
}

func (c *GrokIntegration) generateImage(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	body := api.Pick(inputs, "prompt", "n", "response_format")
	body["model"] = DefaultImageModel

	return c.DoResult(ctx, api.Call{
		Method: http.MethodPost,
		Path:   "/images/generations",
		Body:   body,
	})
}
