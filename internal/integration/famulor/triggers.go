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

	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/property"
	"github.com/tombee/pieces/internal/trigger/polling"
	"github.com/tombee/pieces/internal/trigger/webhook"
)

// Triggers returns the triggers this piece supports.
func (c *FamulorIntegration) Triggers() []api.TriggerInfo {
	return []api.TriggerInfo{
		{
			Name:        "new_lead",
			DisplayName: "New Lead",
			Description: "Fires for each lead added to any campaign",
			Kind:        api.TriggerPolling,
		},
		{
			Name:        "call_completed",
			DisplayName: "Call Completed",
			Description: "Fires when an assistant finishes a call",
			Kind:        api.TriggerWebhook,
			Properties: property.Schema{
				property.New(property.Dropdown, "assistant_id", "Assistant", property.Required,
					property.LoadWith(c.assistantOptions)),
			},
		},
	}
}

// PollSource returns the item source of a polling trigger.
func (c *FamulorIntegration) PollSource(trigger string, _ map[string]interface{}) (polling.Source, error) {
	if trigger != "new_lead" {
		return nil, api.UnknownTrigger(c.Name(), trigger)
	}

	return polling.SourceFunc(func(ctx context.Context, _ int64) ([]polling.Item, error) {
		out, _, err := c.Do(ctx, api.Call{Method: http.MethodGet, Path: "/user/leads"})
		if err != nil {
			return nil, err
		}
		return polling.FromRecords(records(out), "id", "created_at"), nil
	}), nil
}

// WebhookTrigger returns the definition of a webhook trigger. Famulor keeps
// one webhook URL per assistant, so the subscription id is the assistant id.
func (c *FamulorIntegration) WebhookTrigger(trigger string, inputs map[string]interface{}) (*webhook.Definition, error) {
	if trigger != "call_completed" {
		return nil, api.UnknownTrigger(c.Name(), trigger)
	}

	assistantID := api.String(inputs, "assistant_id")
	if assistantID == "" {
		schema := c.Triggers()[1].Properties
		if err := schema.Validate(inputs); err != nil {
			return nil, err
		}
	}

	return &webhook.Definition{
		Registrar:      &registrar{c: c, assistantID: assistantID},
		EventField:     "status",
		ExpectedEvents: []string{"completed"},
		Forward:        webhook.ForwardBody,
		IDField:        "id",
	}, nil
}

type registrar struct {
	c           *FamulorIntegration
	assistantID string
}

func (r *registrar) CreateWebhook(ctx context.Context, callbackURL string, _ []string) (string, error) {
	_, _, err := r.c.Do(ctx, api.Call{
		Method: http.MethodPost,
		Path:   "/user/assistant/{id}/webhook",
		Params: map[string]interface{}{"id": r.assistantID},
		Body:   map[string]interface{}{"webhook_url": callbackURL},
	})
	if err != nil {
		return "", err
	}
	return r.assistantID, nil
}

func (r *registrar) DeleteWebhook(ctx context.Context, id string) error {
	_, _, err := r.c.Do(ctx, api.Call{
		Method: http.MethodDelete,
		Path:   "/user/assistant/{id}/webhook",
		Params: map[string]interface{}{"id": id},
	})
	return err
}
