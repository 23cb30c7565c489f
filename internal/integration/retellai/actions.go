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

package retellai

import (
	"context"
	"net/http"

	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/property"
)

func (c *RetellAIIntegration) operationSchemas() map[string]*api.OperationSchema {
	agent := func(name, display string, constraints ...property.Constraint) property.Property {
		constraints = append(constraints, property.LoadWith(c.agentOptions))
		return property.New(property.Dropdown, name, display, constraints...)
	}

	return map[string]*api.OperationSchema{
		"create_phone_call": {
			Description: "Start an outbound call with an agent",
			Properties: property.Schema{
				property.New(property.Dropdown, "from_number", "From Number", property.Required,
					property.Pattern(property.PatternE164), property.LoadWith(c.phoneNumberOptions)),
				property.Text("to_number", "To Number", property.Required, property.Pattern(property.PatternE164),
					property.Describe("E.164 format, e.g. +14155550100")),
				agent("override_agent_id", "Agent", property.Describe("Defaults to the number's outbound agent")),
				property.New(property.Object, "retell_llm_dynamic_variables", "Dynamic Variables"),
				property.New(property.Object, "metadata", "Metadata"),
			},
		},
		"get_call": {
			Description: "Get call details, transcript, and analysis",
			Properties: property.Schema{
				property.Text("call_id", "Call ID", property.Required),
			},
		},
		"list_calls": {
			Description: "List calls with filters",
			Properties: property.Schema{
				agent("agent_id", "Agent"),
				property.New(property.StaticDropdown, "call_status", "Status", property.Choices(
					property.Option{Label: "Registered", Value: "registered"},
					property.Option{Label: "Ongoing", Value: "ongoing"},
					property.Option{Label: "Ended", Value: "ended"},
					property.Option{Label: "Error", Value: "error"},
				)),
				property.New(property.StaticDropdown, "direction", "Direction", property.Choices(
					property.Option{Label: "Inbound", Value: "inbound"},
					property.Option{Label: "Outbound", Value: "outbound"},
				)),
				property.New(property.StaticDropdown, "sort_order", "Sort Order", property.Default("descending"), property.Choices(
					property.Option{Label: "Newest first", Value: "descending"},
					property.Option{Label: "Oldest first", Value: "ascending"},
				)),
				property.Num("limit", "Limit", property.Default(50), property.Min(1), property.Max(1000)),
				property.Text("pagination_key", "Pagination Key"),
			},
		},
		"create_phone_number": {
			Description: "Buy a phone number and bind agents",
			Properties: property.Schema{
				property.Num("area_code", "Area Code", property.Min(200), property.Max(999),
					property.Describe("US area code, e.g. 415")),
				agent("inbound_agent_id", "Inbound Agent"),
				agent("outbound_agent_id", "Outbound Agent"),
				property.Text("nickname", "Nickname", property.MaxLength(100)),
			},
		},
		"get_phone_number": {
			Description: "Get phone number details",
			Properties: property.Schema{
				property.New(property.Dropdown, "phone_number", "Phone Number", property.Required,
					property.Pattern(property.PatternE164), property.LoadWith(c.phoneNumberOptions)),
			},
		},
		"get_agent": {
			Description: "Get agent details",
			Properties:  property.Schema{agent("agent_id", "Agent", property.Required)},
		},
		"get_voice": {
			Description: "Get voice details",
			Properties: property.Schema{
				property.New(property.Dropdown, "voice_id", "Voice", property.Required, property.LoadWith(c.voiceOptions)),
			},
		},
	}
}

func (c *RetellAIIntegration) createPhoneCall(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	return c.DoResult(ctx, api.Call{
		Method: http.MethodPost,
		Path:   "/v2/create-phone-call",
		Body: api.Pick(inputs, "from_number", "to_number", "override_agent_id",
			"retell_llm_dynamic_variables", "metadata"),
	})
}

func (c *RetellAIIntegration) listCalls(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	filter := map[string]interface{}{}
	for _, key := range []string{"agent_id", "call_status", "direction"} {
		if v := api.String(inputs, key); v != "" {
			filter[key] = []string{v}
		}
	}

	body := api.Pick(inputs, "sort_order", "limit", "pagination_key")
	if len(filter) > 0 {
		body["filter_criteria"] = filter
	}

	return c.DoResult(ctx, api.Call{Method: http.MethodPost, Path: "/v2/list-calls", Body: body})
}

func (c *RetellAIIntegration) agentOptions(ctx context.Context, _ map[string]interface{}) ([]property.Option, error) {
	return c.options(ctx, "/list-agents", "agent_id", "agent_name")
}

func (c *RetellAIIntegration) phoneNumberOptions(ctx context.Context, _ map[string]interface{}) ([]property.Option, error) {
	return c.options(ctx, "/list-phone-numbers", "phone_number", "nickname")
}

func (c *RetellAIIntegration) voiceOptions(ctx context.Context, _ map[string]interface{}) ([]property.Option, error) {
	return c.options(ctx, "/list-voices", "voice_id", "voice_name")
}

// options lists a collection returned as a bare array. Records without a
// label fall back to their id.
func (c *RetellAIIntegration) options(ctx context.Context, path, idField, labelField string) ([]property.Option, error) {
	out, _, err := c.Do(ctx, api.Call{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, err
	}

	records, _ := out.([]interface{})
	opts := make([]property.Option, 0, len(records))
	for _, r := range records {
		id := api.FormatValue(api.Field(r, idField))
		label := api.FormatValue(api.Field(r, labelField))
		if label == "" {
			label = id
		}
		opts = append(opts, property.Option{Label: label, Value: id})
	}
	return opts, nil
}
