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
	"github.com/tombee/pieces/internal/trigger/polling"
	"github.com/tombee/pieces/internal/trigger/webhook"
)

// Triggers returns the triggers this piece supports.
func (c *AircallIntegration) Triggers() []api.TriggerInfo {
	return []api.TriggerInfo{
		{
			Name:        "new_call",
			DisplayName: "New Call",
			Description: "Fires for each new call",
			Kind:        api.TriggerPolling,
		},
		{
			Name:        "call_ended",
			DisplayName: "Call Ended",
			Description: "Fires when a call ends",
			Kind:        api.TriggerWebhook,
			Properties: property.Schema{
				property.New(property.Dropdown, "number_id", "Number",
					property.Describe("Only calls on this number"),
					property.LoadWith(c.numberOptions)),
			},
		},
		{
			Name:        "new_contact",
			DisplayName: "New Contact",
			Description: "Fires for each new contact",
			Kind:        api.TriggerPolling,
		},
	}
}

// PollSource returns the item source of a polling trigger.
func (c *AircallIntegration) PollSource(trigger string, inputs map[string]interface{}) (polling.Source, error) {
	switch trigger {
	case "new_call":
		return polling.SourceFunc(func(ctx context.Context, since int64) ([]polling.Item, error) {
			calls, err := c.recentCalls(ctx, since)
			if err != nil {
				return nil, err
			}
			return polling.FromRecords(calls, "id", "started_at"), nil
		}), nil
	case "new_contact":
		return polling.SourceFunc(func(ctx context.Context, _ int64) ([]polling.Item, error) {
			contacts, err := c.recentContacts(ctx)
			if err != nil {
				return nil, err
			}
			return polling.FromRecords(contacts, "id", "created_at"), nil
		}), nil
	default:
		return nil, api.UnknownTrigger(c.Name(), trigger)
	}
}

// WebhookTrigger returns the definition of a webhook trigger.
func (c *AircallIntegration) WebhookTrigger(trigger string, inputs map[string]interface{}) (*webhook.Definition, error) {
	if trigger != "call_ended" {
		return nil, api.UnknownTrigger(c.Name(), trigger)
	}

	def := &webhook.Definition{
		Registrar:      &registrar{c: c},
		Events:         []string{"call.ended"},
		EventField:     "event",
		ExpectedEvents: []string{"call.ended"},
		Forward:        webhook.ForwardData,
		IDField:        "id",
	}
	if numberID := api.String(inputs, "number_id"); numberID != "" {
		def.Match = func(payload interface{}) bool {
			return api.FormatValue(api.Field(payload, "number.id")) == numberID
		}
	}
	return def, nil
}

type registrar struct {
	c *AircallIntegration
}

func (r *registrar) CreateWebhook(ctx context.Context, callbackURL string, events []string) (string, error) {
	out, _, err := r.c.Do(ctx, api.Call{
		Method: http.MethodPost,
		Path:   "/webhooks",
		Body: map[string]interface{}{
			"custom_name": "pieces",
			"url":         callbackURL,
			"events":      events,
		},
	})
	if err != nil {
		return "", err
	}
	return api.FormatValue(api.Field(out, "webhook.webhook_id")), nil
}

func (r *registrar) DeleteWebhook(ctx context.Context, id string) error {
	_, _, err := r.c.Do(ctx, api.Call{
		Method: http.MethodDelete,
		Path:   "/webhooks/{id}",
		Params: map[string]interface{}{"id": id},
	})
	return err
}
