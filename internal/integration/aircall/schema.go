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

package aircall

import (
	"context"
	"net/http"

	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/property"
)

func (c *AircallIntegration) operationSchemas() map[string]*api.OperationSchema {
	callID := property.Num("call_id", "Call ID", property.Required, property.Min(1))
	contactID := property.Num("contact_id", "Contact ID", property.Required, property.Min(1))

	contactFields := property.Schema{
		property.Text("first_name", "First Name", property.MaxLength(255)),
		property.Text("last_name", "Last Name", property.MaxLength(255)),
		property.Text("company_name", "Company", property.MaxLength(255)),
		property.New(property.LongText, "information", "Information", property.MaxLength(5000)),
		property.New(property.Array, "phone_numbers", "Phone Numbers", property.Of(
			property.Text("label", "Label", property.Default("Work")),
			property.Text("value", "Number", property.Required, property.Pattern(property.PatternE164),
				property.Describe("E.164 format, e.g. +14155550100")),
		)),
		property.New(property.Array, "emails", "Emails", property.Of(
			property.Text("label", "Label", property.Default("Work")),
			property.Text("value", "Email", property.Required, property.Format("email")),
		)),
	}

	return map[string]*api.OperationSchema{
		"tag_call": {
			Description: "Add tags to a call",
			Properties: property.Schema{
				callID,
				property.New(property.Array, "tags", "Tags", property.Required, property.MinItems(1), property.Of(
					property.New(property.Dropdown, "tag_id", "Tag", property.Required, property.LoadWith(c.tagOptions)),
				)),
			},
		},
		"comment_call": {
			Description: "Add a comment to a call",
			Properties: property.Schema{
				callID,
				property.New(property.LongText, "content", "Comment", property.Required, property.MaxLength(5000)),
			},
		},
		"get_call": {
			Description: "Get call details",
			Properties:  property.Schema{callID},
			ResponseFields: []api.ResponseFieldInfo{
				{Name: "call.id", Type: "number", Description: "Call ID"},
				{Name: "call.status", Type: "string", Description: "initial, answered, or done"},
				{Name: "call.duration", Type: "number", Description: "Duration in seconds"},
			},
		},
		"search_calls": {
			Description: "Search calls by date, direction, or number",
			Properties: property.Schema{
				property.New(property.DateTime, "from", "From"),
				property.New(property.DateTime, "to", "To"),
				property.New(property.StaticDropdown, "direction", "Direction", property.Choices(
					property.Option{Label: "Inbound", Value: "inbound"},
					property.Option{Label: "Outbound", Value: "outbound"},
				)),
				property.Text("phone_number", "Phone Number", property.Pattern(property.PatternE164)),
				property.New(property.Dropdown, "user_id", "User", property.LoadWith(c.userOptions)),
				property.New(property.StaticDropdown, "order", "Order", property.Default("desc"), property.Choices(
					property.Option{Label: "Newest first", Value: "desc"},
					property.Option{Label: "Oldest first", Value: "asc"},
				)),
				property.Num("per_page", "Per Page", property.Default(20), property.Min(1), property.Max(50)),
				property.Num("page", "Page", property.Default(1), property.Min(1)),
			},
		},
		"create_contact": {
			Description: "Create a shared contact",
			Properties:  append(property.Schema{}, contactFields...),
		},
		"update_contact": {
			Description: "Update a contact",
			Properties:  append(property.Schema{contactID}, contactFields[:4]...),
		},
		"find_contact": {
			Description: "Find contacts by phone number or email",
			Properties: property.Schema{
				property.Text("phone_number", "Phone Number", property.Pattern(property.PatternE164)),
				property.Text("email", "Email", property.Format("email")),
			},
		},
		"get_contact": {
			Description: "Get contact details",
			Properties:  property.Schema{contactID},
		},
		"list_users": {
			Description: "List users of the company",
			Properties: property.Schema{
				property.Num("per_page", "Per Page", property.Default(50), property.Min(1), property.Max(50)),
				property.Num("page", "Page", property.Default(1), property.Min(1)),
			},
		},
	}
}

func (c *AircallIntegration) tagOptions(ctx context.Context, _ map[string]interface{}) ([]property.Option, error) {
	return c.options(ctx, "/tags", "tags", "name")
}

func (c *AircallIntegration) userOptions(ctx context.Context, _ map[string]interface{}) ([]property.Option, error) {
	return c.options(ctx, "/users", "users", "name")
}

func (c *AircallIntegration) numberOptions(ctx context.Context, _ map[string]interface{}) ([]property.Option, error) {
	return c.options(ctx, "/numbers", "numbers", "name")
}

// options lists a collection and maps each record to an id option.
func (c *AircallIntegration) options(ctx context.Context, path, key, labelField string) ([]property.Option, error) {
	out, _, err := c.Do(ctx, api.Call{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, err
	}

	records, _ := api.Field(out, key).([]interface{})
	opts := make([]property.Option, 0, len(records))
	for _, r := range records {
		opts = append(opts, property.Option{
			Label: api.FormatValue(api.Field(r, labelField)),
			Value: api.Field(r, "id"),
		})
	}
	return opts, nil
}
