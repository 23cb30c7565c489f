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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/operation/api"
	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

// quote renders s as a Drive query string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

// listQuery builds the common query parameters of a file listing.
func listQuery(inputs map[string]interface{}, clauses []string) url.Values {
	query := url.Values{}
	query.Set("q", strings.Join(clauses, " and "))
	query.Set("fields", fileFields)
	if n, ok := api.Int(inputs, "page_size"); ok {
		query.Set("pageSize", strconv.Itoa(n))
	}
	if token := api.String(inputs, "page_token"); token != "" {
		query.Set("pageToken", token)
	}
	if api.Bool(inputs, "include_shared_drives") {
		query.Set("supportsAllDrives", "true")
		query.Set("includeItemsFromAllDrives", "true")
	}
	return query
}

func (c *GoogleDriveIntegration) listFiles(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	folderID := api.String(inputs, "folder_id")
	if folderID == "" {
		folderID = "root"
	}
	clauses := []string{quote(folderID) + " in parents"}
	if !api.Bool(inputs, "include_trashed") {
		clauses = append(clauses, "trashed = false")
	}

	return c.DoResult(ctx, api.Call{
		Method: http.MethodGet,
		Path:   "/drive/v3/files",
		Query:  listQuery(inputs, clauses),
	})
}

func (c *GoogleDriveIntegration) getFile(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	query := url.Values{"fields": {"*"}}
	if api.Bool(inputs, "include_shared_drives") {
		query.Set("supportsAllDrives", "true")
	}
	return c.DoResult(ctx, api.Call{
		Method: http.MethodGet,
		Path:   "/drive/v3/files/{file_id}",
		Params: inputs,
		Query:  query,
	})
}

func (c *GoogleDriveIntegration) searchFiles(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	clauses := []string{
		fmt.Sprintf("%s contains %s", api.String(inputs, "search_in"), quote(api.String(inputs, "query"))),
		"trashed = false",
	}
	if mime := api.String(inputs, "mime_type"); mime != "" {
		clauses = append(clauses, "mimeType = "+quote(mime))
	}
	if folderID := api.String(inputs, "folder_id"); folderID != "" {
		clauses = append(clauses, quote(folderID)+" in parents")
	}

	return c.DoResult(ctx, api.Call{
		Method: http.MethodGet,
		Path:   "/drive/v3/files",
		Query:  listQuery(inputs, clauses),
	})
}

func (c *GoogleDriveIntegration) createFolder(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	return c.DoResult(ctx, api.Call{
		Method: http.MethodPost,
		Path:   "/drive/v3/files",
		Query:  url.Values{"supportsAllDrives": {"true"}},
		Body:   metadata(inputs, folderMimeType),
	})
}

// createTextFile uploads metadata and content in one multipart/related
// request.
func (c *GoogleDriveIntegration) createTextFile(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	contentType := api.String(inputs, "mime_type")
	meta := metadata(inputs, "")
	if api.Bool(inputs, "convert_to_doc") {
		meta["mimeType"] = "application/vnd.google-apps.document"
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode file metadata: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	parts := []struct {
		contentType string
		data        []byte
	}{
		{"application/json; charset=UTF-8", metaJSON},
		{contentType, []byte(api.String(inputs, "content"))},
	}
	for _, p := range parts {
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {p.contentType}})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(p.data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	return c.DoResult(ctx, api.Call{
		Method:  http.MethodPost,
		Path:    "/upload/drive/v3/files",
		Query:   url.Values{"uploadType": {"multipart"}, "supportsAllDrives": {"true"}},
		RawBody: buf.Bytes(),
		Headers: map[string]string{"Content-Type": "multipart/related; boundary=" + mw.Boundary()},
	})
}

func (c *GoogleDriveIntegration) copyFile(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	return c.DoResult(ctx, api.Call{
		Method: http.MethodPost,
		Path:   "/drive/v3/files/{file_id}/copy",
		Params: inputs,
		Query:  url.Values{"supportsAllDrives": {"true"}},
		Body:   metadata(inputs, ""),
	})
}

// deleteFile answers 204 with no body, so the result confirms the id.
func (c *GoogleDriveIntegration) deleteFile(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	_, resp, err := c.Do(ctx, api.Call{
		Method: http.MethodDelete,
		Path:   "/drive/v3/files/{file_id}",
		Params: inputs,
		Query:  url.Values{"supportsAllDrives": {"true"}},
	})
	if err != nil {
		return nil, err
	}
	return c.ToResult(resp, map[string]interface{}{
		"deleted": true,
		"file_id": api.String(inputs, "file_id"),
	}), nil
}

func (c *GoogleDriveIntegration) shareFile(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	grantee := api.String(inputs, "type")
	body := map[string]interface{}{
		"role": api.String(inputs, "role"),
		"type": grantee,
	}

	switch grantee {
	case "user", "group":
		email := api.String(inputs, "email_address")
		if email == "" {
			return nil, &pieceserrors.ValidationError{
				Field:   "email_address",
				Message: fmt.Sprintf("is required when sharing with a %s", grantee),
			}
		}
		body["emailAddress"] = email
	case "domain":
		domain := api.String(inputs, "domain")
		if domain == "" {
			return nil, &pieceserrors.ValidationError{Field: "domain", Message: "is required when sharing with a domain"}
		}
		body["domain"] = domain
	}

	return c.DoResult(ctx, api.Call{
		Method: http.MethodPost,
		Path:   "/drive/v3/files/{file_id}/permissions",
		Params: inputs,
		Query: url.Values{
			"supportsAllDrives":     {"true"},
			"sendNotificationEmail": {strconv.FormatBool(api.Bool(inputs, "send_notification"))},
		},
		Body: body,
	})
}

// metadata builds a Drive file resource from name and parent_id.
func metadata(inputs map[string]interface{}, mimeType string) map[string]interface{} {
	meta := map[string]interface{}{}
	if name := api.String(inputs, "name"); name != "" {
		meta["name"] = name
	}
	if parent := api.String(inputs, "parent_id"); parent != "" {
		meta["parents"] = []string{parent}
	}
	if mimeType != "" {
		meta["mimeType"] = mimeType
	}
	return meta
}
