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
	"net/url"

	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/property"
	"github.com/tombee/pieces/internal/trigger/polling"
	"github.com/tombee/pieces/internal/trigger/webhook"
)

// Triggers returns the triggers this piece supports.
func (c *HunterIntegration) Triggers() []api.TriggerInfo {
	return []api.TriggerInfo{
		{
			Name:        "new_lead",
			DisplayName: "New Lead",
			Description: "Fires when a lead is saved",
			Kind:        api.TriggerPolling,
			Properties: property.Schema{
				property.New(property.Dropdown, "leads_list_id", "Leads List", property.LoadWith(c.leadsListOptions)),
			},
		},
	}
}

// PollSource returns the item source of a polling trigger.
func (c *HunterIntegration) PollSource(trigger string, inputs map[string]interface{}) (polling.Source, error) {
	if trigger != "new_lead" {
		return nil, api.UnknownTrigger(c.Name(), trigger)
	}

	return polling.SourceFunc(func(ctx context.Context, _ int64) ([]polling.Item, error) {
		query := url.Values{"limit": {"100"}}
		if list := api.String(inputs, "leads_list_id"); list != "" {
			query.Set("leads_list_id", list)
		}

		out, _, err := c.Do(ctx, api.Call{Method: http.MethodGet, Path: "/leads", Query: query})
		if err != nil {
			return nil, err
		}
		leads, _ := api.Field(out, "data.leads").([]interface{})
		return polling.FromRecords(leads, "id", "created_at"), nil
	}), nil
}

// WebhookTrigger returns an error; Hunter has no webhook triggers.
func (c *HunterIntegration) WebhookTrigger(trigger string, _ map[string]interface{}) (*webhook.Definition, error) {
	return nil, api.UnknownTrigger(c.Name(), trigger)
}
