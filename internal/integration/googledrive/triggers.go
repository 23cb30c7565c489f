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

package googledrive

import (
	"context"
	"net/http"
	"time"

	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/property"
	"github.com/tombee/pieces/internal/trigger/polling"
	"github.com/tombee/pieces/internal/trigger/webhook"
)

// Triggers returns the triggers this piece supports.
func (c *GoogleDriveIntegration) Triggers() []api.TriggerInfo {
	folder := property.Schema{
		property.New(property.Dropdown, "folder_id", "Parent Folder",
			property.Describe("Only items directly inside this folder"),
			property.LoadWith(c.folderOptions)),
		property.Bool("include_shared_drives", "Include Shared Drives"),
	}
	return []api.TriggerInfo{
		{
			Name:        "new_file",
			DisplayName: "New File",
			Description: "Fires when a file is created",
			Kind:        api.TriggerPolling,
			Properties:  folder,
		},
		{
			Name:        "new_folder",
			DisplayName: "New Folder",
			Description: "Fires when a folder is created",
			Kind:        api.TriggerPolling,
			Properties:  folder,
		},
	}
}

// PollSource returns the item source of a polling trigger. The watermark
// narrows the query to items created after it.
func (c *GoogleDriveIntegration) PollSource(trigger string, inputs map[string]interface{}) (polling.Source, error) {
	var kind string
	switch trigger {
	case "new_file":
		kind = "mimeType != " + quote(folderMimeType)
	case "new_folder":
		kind = "mimeType = " + quote(folderMimeType)
	default:
		return nil, api.UnknownTrigger(c.Name(), trigger)
	}

	return polling.SourceFunc(func(ctx context.Context, since int64) ([]polling.Item, error) {
		clauses := []string{kind, "trashed = false"}
		if since > 0 {
			clauses = append(clauses, "createdTime > "+quote(time.UnixMilli(since).UTC().Format(time.RFC3339)))
		}
		if folderID := api.String(inputs, "folder_id"); folderID != "" {
			clauses = append(clauses, quote(folderID)+" in parents")
		}

		query := listQuery(inputs, clauses)
		query.Set("orderBy", "createdTime desc")
		query.Set("pageSize", "100")

		out, _, err := c.Do(ctx, api.Call{Method: http.MethodGet, Path: "/drive/v3/files", Query: query})
		if err != nil {
			return nil, err
		}
		files, _ := api.Field(out, "files").([]interface{})
		return polling.FromRecords(files, "id", "createdTime"), nil
	}), nil
}

// WebhookTrigger returns an error; Drive push channels are not used.
func (c *GoogleDriveIntegration) WebhookTrigger(trigger string, _ map[string]interface{}) (*webhook.Definition, error) {
	return nil, api.UnknownTrigger(c.Name(), trigger)
}
