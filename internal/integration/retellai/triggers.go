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

	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/property"
	"github.com/tombee/pieces/internal/trigger/polling"
	"github.com/tombee/pieces/internal/trigger/webhook"
)

// CallEvents are the events Retell posts to an agent's webhook URL.
var CallEvents = []string{"call_started", "call_ended", "call_analyzed"}

// Triggers returns the triggers this piece supports.
func (c *RetellAIIntegration) Triggers() []api.TriggerInfo {
	events := make([]property.Option, 0, len(CallEvents))
	for _, e := range CallEvents {
		events = append(events, property.Option{Label: e, Value: e})
	}

	return []api.TriggerInfo{
		{
			Name:        "new_call",
			DisplayName: "New Call",
			Description: "Fires for each new call",
			Kind:        api.TriggerPolling,
			Properties: property.Schema{
				property.New(property.Dropdown, "agent_id", "Agent", property.LoadWith(c.agentOptions)),
			},
		},
		{
			Name:        "call_event",
			DisplayName: "Call Event",
			Description: "Fires on call lifecycle events of an agent",
			Kind:        api.TriggerWebhook,
			Properties: property.Schema{
				property.New(property.Dropdown, "agent_id", "Agent", property.Required, property.LoadWith(c.agentOptions)),
				property.New(property.MultiSelectDropdown, "events", "Events", property.Choices(events...),
					property.Describe("Defaults to call_ended")),
			},
		},
	}
}

// PollSource returns the item source of a polling trigger.
func (c *RetellAIIntegration) PollSource(trigger string, inputs map[string]interface{}) (polling.Source, error) {
	if trigger != "new_call" {
		return nil, api.UnknownTrigger(c.Name(), trigger)
	}

	return polling.SourceFunc(func(ctx context.Context, since int64) ([]polling.Item, error) {
		body := map[string]interface{}{"sort_order": "descending", "limit": 50}
		filter := map[string]interface{}{}
		if agentID := api.String(inputs, "agent_id"); agentID != "" {
			filter["agent_id"] = []string{agentID}
		}
		if since > 0 {
			filter["start_timestamp"] = map[string]interface{}{"lower_threshold": since}
		}
		if len(filter) > 0 {
			body["filter_criteria"] = filter
		}

		out, _, err := c.Do(ctx, api.Call{Method: http.MethodPost, Path: "/v2/list-calls", Body: body})
		if err != nil {
			return nil, err
		}
		calls, _ := out.([]interface{})
		return polling.FromRecords(calls, "call_id", "start_timestamp"), nil
	}), nil
}

// WebhookTrigger returns the definition of a webhook trigger. Retell has no
// subscription API; the agent's webhook_url is pointed at the callback on
// enable and cleared on disable, so the subscription id is the agent id.
func (c *RetellAIIntegration) WebhookTrigger(trigger string, inputs map[string]interface{}) (*webhook.Definition, error) {
	if trigger != "call_event" {
		return nil, api.UnknownTrigger(c.Name(), trigger)
	}
	if err := c.Triggers()[1].Properties.Validate(inputs); err != nil {
		return nil, err
	}

	events := api.Strings(inputs, "events")
	if len(events) == 0 {
		events = []string{"call_ended"}
	}

	return &webhook.Definition{
		Registrar:      &agentWebhook{c: c, agentID: api.String(inputs, "agent_id")},
		Events:         events,
		EventField:     "event",
		ExpectedEvents: events,
		Forward:        webhook.ForwardBody,
		IDField:        "call.call_id",
	}, nil
}

type agentWebhook struct {
	c       *RetellAIIntegration
	agentID string
}

func (a *agentWebhook) CreateWebhook(ctx context.Context, callbackURL string, _ []string) (string, error) {
	if err := a.setURL(ctx, a.agentID, callbackURL); err != nil {
		return "", err
	}
	return a.agentID, nil
}

func (a *agentWebhook) DeleteWebhook(ctx context.Context, id string) error {
	return a.setURL(ctx, id, nil)
}

func (a *agentWebhook) setURL(ctx context.Context, agentID string, url interface{}) error {
	_, _, err := a.c.Do(ctx, api.Call{
		Method: http.MethodPatch,
		Path:   "/update-agent/{agent_id}",
		Params: map[string]interface{}{"agent_id": agentID},
		Body:   map[string]interface{}{"webhook_url": url},
	})
	return err
}
