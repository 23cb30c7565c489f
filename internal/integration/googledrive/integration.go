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

// Package googledrive provides the Google Drive piece over the Drive v3 API.
// Requests carry an OAuth2 access token refreshed by the transport.
package googledrive

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/property"
)

// DefaultBaseURL is the Google APIs host.
const DefaultBaseURL = "https://www.googleapis.com"

// TokenURL is the Google OAuth2 token endpoint.
const TokenURL = "https://oauth2.googleapis.com/token"

// Scopes is the OAuth2 scope set the piece needs.
var Scopes = []string{"https://www.googleapis.com/auth/drive"}

const folderMimeType = "application/vnd.google-apps.folder"

// fileFields is the partial response requested for file listings.
const fileFields = "nextPageToken,files(id,name,mimeType,parents,createdTime,modifiedTime,webViewLink,size)"

// GoogleDriveIntegration implements the Google Drive piece.
type GoogleDriveIntegration struct {
	*api.BaseProvider
	schemas map[string]*api.OperationSchema
}

// NewGoogleDriveIntegration creates the Google Drive piece.
func NewGoogleDriveIntegration(config *api.ProviderConfig) (operation.Provider, error) {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	c := &GoogleDriveIntegration{BaseProvider: api.NewBaseProvider("googledrive", config)}
	c.schemas = c.operationSchemas()
	return c, nil
}

// Execute runs a named operation with the given inputs.
func (c *GoogleDriveIntegration) Execute(ctx context.Context, op string, inputs map[string]interface{}) (*operation.Result, error) {
	schema, ok := c.schemas[op]
	if !ok {
		return nil, operation.UnknownOperation(c.Name(), op)
	}
	inputs, err := c.Validate(schema.Properties, inputs)
	if err != nil {
		return nil, err
	}

	switch op {
	case "list_files":
		return c.listFiles(ctx, inputs)
	case "get_file":
		return c.getFile(ctx, inputs)
	case "search_files":
		return c.searchFiles(ctx, inputs)
	case "create_folder":
		return c.createFolder(ctx, inputs)
	case "create_text_file":
		return c.createTextFile(ctx, inputs)
	case "copy_file":
		return c.copyFile(ctx, inputs)
	case "delete_file":
		return c.deleteFile(ctx, inputs)
	case "share_file":
		return c.shareFile(ctx, inputs)
	default:
		return nil, operation.UnknownOperation(c.Name(), op)
	}
}

// Operations returns the list of available operations.
func (c *GoogleDriveIntegration) Operations() []api.OperationInfo {
	return []api.OperationInfo{
		{Name: "list_files", Description: "List files in a folder", Category: "files", Tags: []string{"read", "paginated"}},
		{Name: "get_file", Description: "Get file metadata", Category: "files", Tags: []string{"read"}},
		{Name: "search_files", Description: "Search files by name or content", Category: "files", Tags: []string{"read", "paginated"}},
		{Name: "create_folder", Description: "Create a folder", Category: "folders", Tags: []string{"write"}},
		{Name: "create_text_file", Description: "Create a file from text", Category: "files", Tags: []string{"write"}},
		{Name: "copy_file", Description: "Copy a file", Category: "files", Tags: []string{"write"}},
		{Name: "delete_file", Description: "Permanently delete a file", Category: "files", Tags: []string{"write"}},
		{Name: "share_file", Description: "Grant a user or domain access to a file", Category: "permissions", Tags: []string{"write"}},
	}
}

// OperationSchema returns the schema for an operation.
func (c *GoogleDriveIntegration) OperationSchema(op string) *api.OperationSchema {
	return c.schemas[op]
}

// Options loads the choices of a dropdown property.
func (c *GoogleDriveIntegration) Options(ctx context.Context, op, prop string, inputs map[string]interface{}) property.DropdownState {
	if s, ok := c.schemas[op]; ok {
		return c.LoadOptions(ctx, s.Properties, prop, inputs)
	}
	for _, t := range c.Triggers() {
		if t.Name == op {
			return c.LoadOptions(ctx, t.Properties, prop, inputs)
		}
	}
	return c.LoadOptions(ctx, nil, prop, inputs)
}

// Ping checks the credential.
func (c *GoogleDriveIntegration) Ping(ctx context.Context) error {
	_, _, err := c.Do(ctx, api.Call{
		Method: http.MethodGet,
		Path:   "/drive/v3/about",
		Query:  url.Values{"fields": {"user"}},
	})
	return err
}
