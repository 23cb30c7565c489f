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
	"net/url"

	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/property"
)

func (c *GoogleDriveIntegration) operationSchemas() map[string]*api.OperationSchema {
	fileID := property.Text("file_id", "File ID", property.Required)
	folder := func(name, display string, constraints ...property.Constraint) property.Property {
		constraints = append(constraints, property.LoadWith(c.folderOptions))
		return property.New(property.Dropdown, name, display, constraints...)
	}
	pageSize := property.Num("page_size", "Page Size", property.Default(100), property.Min(1), property.Max(1000))
	allDrives := property.Bool("include_shared_drives", "Include Shared Drives")

	return map[string]*api.OperationSchema{
		"list_files": {
			Description: "List files in a folder",
			Properties: property.Schema{
				folder("folder_id", "Folder", property.Describe("Defaults to My Drive root")),
				property.Bool("include_trashed", "Include Trashed"),
				pageSize,
				property.Text("page_token", "Page Token"),
				allDrives,
			},
		},
		"get_file": {
			Description: "Get file metadata",
			Properties:  property.Schema{fileID, allDrives},
		},
		"search_files": {
			Description: "Search files by name or content",
			Properties: property.Schema{
				property.Text("query", "Search Text", property.Required, property.MinLength(1)),
				property.New(property.StaticDropdown, "search_in", "Search In", property.Default("name"), property.Choices(
					property.Option{Label: "File name", Value: "name"},
					property.Option{Label: "Full text", Value: "fullText"},
				)),
				property.Text("mime_type", "MIME Type"),
				folder("folder_id", "Folder"),
				pageSize,
				allDrives,
			},
		},
		"create_folder": {
			Description: "Create a folder",
			Properties: property.Schema{
				property.Text("name", "Folder Name", property.Required, property.MaxLength(255)),
				folder("parent_id", "Parent Folder"),
			},
		},
		"create_text_file": {
			Description: "Create a file from text",
			Properties: property.Schema{
				property.Text("name", "File Name", property.Required, property.MaxLength(255)),
				property.New(property.LongText, "content", "Content", property.Required),
				property.Text("mime_type", "MIME Type", property.Default("text/plain")),
				property.Bool("convert_to_doc", "Convert to Google Doc"),
				folder("parent_id", "Parent Folder"),
			},
		},
		"copy_file": {
			Description: "Copy a file",
			Properties: property.Schema{
				fileID,
				property.Text("name", "New Name", property.MaxLength(255)),
				folder("parent_id", "Destination Folder"),
			},
		},
		"delete_file": {
			Description: "Permanently delete a file",
			Properties:  property.Schema{fileID},
		},
		"share_file": {
			Description: "Grant a user or domain access to a file",
			Properties: property.Schema{
				fileID,
				property.New(property.StaticDropdown, "role", "Role", property.Required, property.Choices(
					property.Option{Label: "Reader", Value: "reader"},
					property.Option{Label: "Commenter", Value: "commenter"},
					property.Option{Label: "Writer", Value: "writer"},
					property.Option{Label: "Organizer", Value: "organizer"},
				)),
				property.New(property.StaticDropdown, "type", "Grantee Type", property.Default("user"), property.Choices(
					property.Option{Label: "User", Value: "user"},
					property.Option{Label: "Group", Value: "group"},
					property.Option{Label: "Domain", Value: "domain"},
					property.Option{Label: "Anyone", Value: "anyone"},
				)),
				property.Text("email_address", "Email", property.Format("email")),
				property.Text("domain", "Domain"),
				property.Bool("send_notification", "Send Notification Email", property.Default(true)),
			},
		},
	}
}

func (c *GoogleDriveIntegration) folderOptions(ctx context.Context, _ map[string]interface{}) ([]property.Option, error) {
	query := url.Values{}
	query.Set("q", "mimeType = '"+folderMimeType+"' and trashed = false")
	query.Set("fields", "files(id,name)")
	query.Set("pageSize", "1000")
	query.Set("orderBy", "name")

	out, _, err := c.Do(ctx, api.Call{Method: http.MethodGet, Path: "/drive/v3/files", Query: query})
	if err != nil {
		return nil, err
	}

	files, _ := api.Field(out, "files").([]interface{})
	opts := make([]property.Option, 0, len(files))
	for _, f := range files {
		opts = append(opts, property.Option{
			Label: api.FormatValue(api.Field(f, "name")),
			Value: api.Field(f, "id"),
		})
	}
	return opts, nil
}
