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

package famulor

import (
	"context"
	"net/http"

	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/property"
)

func (c *FamulorIntegration) operationSchemas() map[string]*api.OperationSchema {
	phone := property.Text("phone_number", "Phone Number", property.Required,
		property.Pattern(property.PatternE164), property.Describe("E.164 format, e.g. +4915112345678"))
	variables := property.New(property.Object, "variables", "Variables",
		property.Describe("Values for the assistant's prompt placeholders"))

	return map[string]*api.OperationSchema{
		"make_call": {
			Description: "Have an assistant call a phone number",
			Properties: property.Schema{
				property.New(property.Dropdown, "assistant_id", "Assistant", property.Required, property.LoadWith(c.assistantOptions)),
				phone,
				variables,
			},
		},
		"get_call": {
			Description: "Get call details and transcript",
			Properties: property.Schema{
				property.Num("call_id", "Call ID", property.Required, property.Min(1)),
			},
		},
		"add_lead": {
			Description: "Add a lead to a campaign",
			Properties: property.Schema{
				property.New(property.Dropdown, "campaign_id", "Campaign", property.Required, property.LoadWith(c.campaignOptions)),
				phone,
				variables,
				property.Bool("allow_duplicate", "Allow Duplicate"),
			},
		},
		"send_sms": {
			Description: "Send an SMS from a Famulor number",
			Properties: property.Schema{
				property.New(property.Dropdown, "from", "From Number", property.Required, property.LoadWith(c.phoneNumberOptions)),
				property.Text("to", "To", property.Required, property.Pattern(property.PatternE164)),
				property.New(property.LongText, "body", "Message", property.Required, property.MaxLength(300)),
			},
		},
		"list_assistants": {
			Description: "List outbound assistants",
		},
	}
}

func (c *FamulorIntegration) makeCall(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	return c.DoResult(ctx, api.Call{
		Method: http.MethodPost,
		Path:   "/user/make_call",
		Body:   api.Pick(inputs, "assistant_id", "phone_number", "variables"),
	})
}

func (c *FamulorIntegration) getCall(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	return c.DoResult(ctx, api.Call{
		Method: http.MethodGet,
		Path:   "/user/call/{call_id}",
		Params: inputs,
	})
}

// addLead maps allow_duplicate to the vendor's misspelled field name.
func (c *FamulorIntegration) addLead(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	body := api.Pick(inputs, "campaign_id", "phone_number", "variables")
	body["allow_dupplicate"] = api.Bool(inputs, "allow_duplicate")

	return c.DoResult(ctx, api.Call{
		Method: http.MethodPost,
		Path:   "/user/leads/create",
		Body:   body,
	})
}

func (c *FamulorIntegration) sendSMS(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	return c.DoResult(ctx, api.Call{
		Method: http.MethodPost,
		Path:   "/user/sms",
		Body:   api.Pick(inputs, "from", "to", "body"),
	})
}

func (c *FamulorIntegration) listAssistants(ctx context.Context, _ map[string]interface{}) (*operation.Result, error) {
	return c.DoResult(ctx, api.Call{Method: http.MethodGet, Path: "/user/assistants/outbound"})
}

func (c *FamulorIntegration) assistantOptions(ctx context.Context, _ map[string]interface{}) ([]property.Option, error) {
	return c.options(ctx, "/user/assistants/outbound", "name")
}

func (c *FamulorIntegration) campaignOptions(ctx context.Context, _ map[string]interface{}) ([]property.Option, error) {
	return c.options(ctx, "/user/campaigns", "name")
}

func (c *FamulorIntegration) phoneNumberOptions(ctx context.Context, _ map[string]interface{}) ([]property.Option, error) {
	return c.options(ctx, "/user/phone-numbers", "phone_number")
}

func (c *FamulorIntegration) options(ctx context.Context, path, labelField string) ([]property.Option, error) {
	out, _, err := c.Do(ctx, api.Call{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, err
	}

	records := records(out)
	opts := make([]property.Option, 0, len(records))
	for _, r := range records {
		opts = append(opts, property.Option{
			Label: api.FormatValue(api.Field(r, labelField)),
			Value: api.Field(r, "id"),
		})
	}
	return opts, nil
}

// records unwraps list responses, which come either bare or under "data".
func records(out interface{}) []interface{} {
	if list, ok := out.([]interface{}); ok {
		return list
	}
	list, _ := api.Field(out, "data").([]interface{})
	return list
}
