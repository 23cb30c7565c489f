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
	"net/url"

	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/operation/api"
	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

func (c *AircallIntegration) createContact(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	if len(api.Slice(inputs, "phone_numbers")) == 0 && len(api.Slice(inputs, "emails")) == 0 {
		return nil, &pieceserrors.ValidationError{
			Field:      "phone_numbers",
			Message:    "a contact needs at least one phone number or email",
			Suggestion: "Provide phone_numbers or emails",
		}
	}

	return c.DoResult(ctx, api.Call{
		Method: http.MethodPost,
		Path:   "/contacts",
		Body:   api.Pick(inputs, "first_name", "last_name", "company_name", "information", "phone_numbers", "emails"),
	})
}

// updateContact uses POST; Aircall does not accept PUT or PATCH on contacts.
func (c *AircallIntegration) updateContact(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	return c.DoResult(ctx, api.Call{
		Method: http.MethodPost,
		Path:   "/contacts/{contact_id}",
		Params: inputs,
		Body:   api.Pick(inputs, "first_name", "last_name", "company_name", "information"),
	})
}

func (c *AircallIntegration) findContact(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	query := api.Query(inputs, "phone_number", "email")
	if len(query) == 0 {
		return nil, &pieceserrors.ValidationError{
			Field:      "phone_number",
			Message:    "phone_number or email is required",
			Suggestion: "Search by phone_number (E.164) or email",
		}
	}

	return c.DoResult(ctx, api.Call{
		Method: http.MethodGet,
		Path:   "/contacts/search",
		Query:  query,
	})
}

func (c *AircallIntegration) getContact(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	return c.DoResult(ctx, api.Call{
		Method: http.MethodGet,
		Path:   "/contacts/{contact_id}",
		Params: inputs,
	})
}

func (c *AircallIntegration) listUsers(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	return c.DoResult(ctx, api.Call{
		Method: http.MethodGet,
		Path:   "/users",
		Query:  api.Query(inputs, "per_page", "page"),
	})
}

func (c *AircallIntegration) recentContacts(ctx context.Context) ([]interface{}, error) {
	query := url.Values{}
	query.Set("order", "desc")
	query.Set("per_page", "50")

	out, _, err := c.Do(ctx, api.Call{Method: http.MethodGet, Path: "/contacts", Query: query})
	if err != nil {
		return nil, err
	}
	contacts, _ := api.Field(out, "contacts").([]interface{})
	return contacts, nil
}
