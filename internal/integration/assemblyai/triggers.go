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

package assemblyai

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/trigger/polling"
	"github.com/tombee/pieces/internal/trigger/webhook"
)

// Triggers returns the triggers this piece supports.
func (c *AssemblyAIIntegration) Triggers() []api.TriggerInfo {
	return []api.TriggerInfo{
		{
			Name:        "transcript_completed",
			DisplayName: "Transcript Completed",
			Description: "Fires when a transcript finishes processing",
			Kind:        api.TriggerPolling,
		},
	}
}

// PollSource returns the item source of a polling trigger. Completed
// transcripts are keyed by their completion time.
func (c *AssemblyAIIntegration) PollSource(trigger string, _ map[string]interface{}) (polling.Source, error) {
	if trigger != "transcript_completed" {
		return nil, api.UnknownTrigger(c.Name(), trigger)
	}

	return polling.SourceFunc(func(ctx context.Context, _ int64) ([]polling.Item, error) {
		out, _, err := c.Do(ctx, api.Call{
			Method: http.MethodGet,
			Path:   "/v2/transcript",
			Query:  url.Values{"status": {"completed"}, "limit": {"50"}},
		})
		if err != nil {
			return nil, err
		}
		transcripts, _ := api.Field(out, "transcripts").([]interface{})
		return polling.FromRecords(transcripts, "id", "completed"), nil
	}), nil
}

// WebhookTrigger returns an error; AssemblyAI has no webhook triggers.
func (c *AssemblyAIIntegration) WebhookTrigger(trigger string, _ map[string]interface{}) (*webhook.Definition, error) {
	return nil, api.UnknownTrigger(c.Name(), trigger)
}
