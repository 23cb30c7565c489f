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

package hunter

import (
	"context"
	"net/http"

	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/property"
	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

var leadFields = []string{
	"email", "first_name", "last_name", "position", "company", "company_industry",
	"company_size", "confidence_score", "website", "country_code", "linkedin_url",
	"phone_number", "twitter", "notes", "source", "leads_list_id",
}

func (c *HunterIntegration) operationSchemas() map[string]*api.OperationSchema {
	limit := func(def int) property.Property {
		return property.Num("limit", "Limit", property.Default(def), property.Min(1), property.Max(100))
	}
	offset := property.Num("offset", "Offset", property.Default(0), property.Min(0))
	domain := property.Text("domain", "Domain", property.Describe("e.g. stripe.com"),
		property.Pattern(`^[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`))
	company := property.Text("company", "Company")
	emailType := property.New(property.StaticDropdown, "type", "Type", property.Choices(
		property.Option{Label: "Personal", Value: "personal"},
		property.Option{Label: "Generic", Value: "generic"},
	))
	leadID := property.Num("lead_id", "Lead ID", property.Required, property.Min(1))
	leadsList := property.New(property.Dropdown, "leads_list_id", "Leads List", property.LoadWith(c.leadsListOptions))

	lead := func(emailRequired bool) property.Schema {
		email := []property.Constraint{property.Format("email")}
		if emailRequired {
			email = append(email, property.Required)
		}
		return property.Schema{
			property.Text("email", "Email", email...),
			property.Text("first_name", "First Name"),
			property.Text("last_name", "Last Name"),
			property.Text("position", "Position"),
			property.Text("company", "Company"),
			property.Text("company_industry", "Industry"),
			property.Text("company_size", "Company Size"),
			property.Num("confidence_score", "Confidence Score", property.Min(0), property.Max(100)),
			property.Text("website", "Website", property.Format("uri")),
			property.Text("country_code", "Country Code", property.Pattern(`^[A-Z]{2}$`)),
			property.Text("linkedin_url", "LinkedIn URL", property.Format("uri")),
			property.Text("phone_number", "Phone Number", property.Pattern(property.PatternE164)),
			property.Text("twitter", "Twitter Handle"),
			property.New(property.LongText, "notes", "Notes"),
			property.Text("source", "Source"),
			leadsList,
		}
	}

	return map[string]*api.OperationSchema{
		"domain_search": {
			Description: "Find email addresses for a domain",
			Properties: property.Schema{
				domain, company, limit(10), offset, emailType,
				property.New(property.MultiSelectDropdown, "seniority", "Seniority", property.Choices(
					property.Option{Label: "Junior", Value: "junior"},
					property.Option{Label: "Senior", Value: "senior"},
					property.Option{Label: "Executive", Value: "executive"},
				)),
				property.Text("department", "Department"),
			},
		},
		"find_email": {
			Description: "Find a person's email address",
			Properties: property.Schema{
				domain, company,
				property.Text("first_name", "First Name"),
				property.Text("last_name", "Last Name"),
				property.Text("full_name", "Full Name"),
			},
		},
		"verify_email": {
			Description: "Verify the deliverability of an email address",
			Properties: property.Schema{
				property.Text("email", "Email", property.Required, property.Format("email")),
			},
		},
		"count_emails": {
			Description: "Count email addresses for a domain",
			Properties:  property.Schema{domain, company, emailType},
		},
		"create_lead": {
			Description: "Create a lead",
			Properties:  lead(true),
		},
		"get_lead": {
			Description: "Get a lead",
			Properties:  property.Schema{leadID},
		},
		"update_lead": {
			Description: "Update a lead",
			Properties:  append(property.Schema{leadID}, lead(false)...),
		},
		"delete_lead": {
			Description: "Delete a lead",
			Properties:  property.Schema{leadID},
		},
		"list_leads": {
			Description: "List leads",
			Properties: property.Schema{
				leadsList,
				property.Text("email", "Email"),
				property.Text("first_name", "First Name"),
				property.Text("last_name", "Last Name"),
				company,
				property.New(property.StaticDropdown, "sync_status", "Sync Status", property.Choices(
					property.Option{Label: "Pending", Value: "pending"},
					property.Option{Label: "Error", Value: "error"},
					property.Option{Label: "Success", Value: "success"},
				)),
				property.New(property.StaticDropdown, "sending_status", "Sending Status", property.Choices(
					property.Option{Label: "Clicked", Value: "clicked"},
					property.Option{Label: "Opened", Value: "opened"},
					property.Option{Label: "Sent", Value: "sent"},
					property.Option{Label: "Pending", Value: "pending"},
					property.Option{Label: "Error", Value: "error"},
					property.Option{Label: "Bounced", Value: "bounced"},
					property.Option{Label: "Unsubscribed", Value: "unsubscribed"},
					property.Option{Label: "Replied", Value: "replied"},
				)),
				limit(20), offset,
			},
		},
		"create_leads_list": {
			Description: "Create a leads list",
			Properties: property.Schema{
				property.Text("name", "Name", property.Required, property.MaxLength(100)),
				property.Num("team_id", "Team ID"),
			},
		},
		"get_account": {
			Description: "Get account details and usage",
		},
	}
}

// requireDomainOrCompany enforces Hunter's rule that lookups name a target.
func requireDomainOrCompany(inputs map[string]interface{}) error {
	if api.String(inputs, "domain") == "" && api.String(inputs, "company") == "" {
		return &pieceserrors.ValidationError{
			Field:      "domain",
			Message:    "domain or company is required",
			Suggestion: "Provide a domain such as stripe.com, or a company name",
		}
	}
	return nil
}

func (c *HunterIntegration) domainSearch(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	if err := requireDomainOrCompany(inputs); err != nil {
		return nil, err
	}
	return c.get(ctx, "/domain-search", inputs, "domain", "company", "limit", "offset", "type", "seniority", "department")
}

func (c *HunterIntegration) findEmail(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	if err := requireDomainOrCompany(inputs); err != nil {
		return nil, err
	}
	if api.String(inputs, "full_name") == "" && (api.String(inputs, "first_name") == "" || api.String(inputs, "last_name") == "") {
		return nil, &pieceserrors.ValidationError{
			Field:      "full_name",
			Message:    "full_name, or first_name and last_name, is required",
			Suggestion: "Provide the person's name",
		}
	}
	return c.get(ctx, "/email-finder", inputs, "domain", "company", "first_name", "last_name", "full_name")
}

func (c *HunterIntegration) countEmails(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	if err := requireDomainOrCompany(inputs); err != nil {
		return nil, err
	}
	return c.get(ctx, "/email-count", inputs, "domain", "company", "type")
}

func (c *HunterIntegration) createLead(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	return c.DoResult(ctx, api.Call{
		Method: http.MethodPost,
		Path:   "/leads",
		Body:   api.Pick(inputs, leadFields...),
	})
}

// updateLead and deleteLead answer 204, so the result echoes the lead id.
func (c *HunterIntegration) updateLead(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	_, resp, err := c.Do(ctx, api.Call{
		Method: http.MethodPut,
		Path:   "/leads/{lead_id}",
		Params: inputs,
		Body:   api.Pick(inputs, leadFields...),
	})
	if err != nil {
		return nil, err
	}
	return c.ToResult(resp, map[string]interface{}{"updated": true, "lead_id": inputs["lead_id"]}), nil
}

func (c *HunterIntegration) deleteLead(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	_, resp, err := c.Do(ctx, api.Call{
		Method: http.MethodDelete,
		Path:   "/leads/{lead_id}",
		Params: inputs,
	})
	if err != nil {
		return nil, err
	}
	return c.ToResult(resp, map[string]interface{}{"deleted": true, "lead_id": inputs["lead_id"]}), nil
}

func (c *HunterIntegration) leadsListOptions(ctx context.Context, _ map[string]interface{}) ([]property.Option, error) {
	out, _, err := c.Do(ctx, api.Call{Method: http.MethodGet, Path: "/leads_lists"})
	if err != nil {
		return nil, err
	}

	lists, _ := api.Field(out, "data.leads_lists").([]interface{})
	opts := make([]property.Option, 0, len(lists))
	for _, l := range lists {
		opts = append(opts, property.Option{
			Label: api.FormatValue(api.Field(l, "name")),
			Value: api.Field(l, "id"),
		})
	}
	return opts, nil
}
