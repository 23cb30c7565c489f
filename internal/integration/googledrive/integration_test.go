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
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/pieces/internal/testing/mock"
	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

func newTestIntegration(t *testing.T, srv *mock.Server) *GoogleDriveIntegration {
	t.Helper()
	p, err := NewGoogleDriveIntegration(srv.ProviderConfig(nil))
	require.NoError(t, err)
	return p.(*GoogleDriveIntegration)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `'it\'s'`, quote("it's"))
	assert.Equal(t, `'a\\b'`, quote(`a\b`))
}

func TestListFiles_DefaultsToRoot(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodGet, "/drive/v3/files", http.StatusOK,
		map[string]interface{}{"files": []interface{}{}})
	c := newTestIntegration(t, srv)

	_, err := c.Execute(context.Background(), "list_files", nil)
	require.NoError(t, err)

	q := srv.Last().Query
	assert.Equal(t, "'root' in parents and trashed = false", q.Get("q"))
	assert.Equal(t, "100", q.Get("pageSize"))
	assert.Empty(t, q.Get("supportsAllDrives"))
}

func TestSearchFiles(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodGet, "/drive/v3/files", http.StatusOK,
		map[string]interface{}{"files": []interface{}{}})
	c := newTestIntegration(t, srv)

	_, err := c.Execute(context.Background(), "search_files", map[string]interface{}{
		"query":     "Q3 report",
		"mime_type": "application/pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "name contains 'Q3 report' and trashed = false and mimeType = 'application/pdf'",
		srv.Last().Query.Get("q"))
}

func TestCreateTextFile_Multipart(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodPost, "/upload/drive/v3/files", http.StatusOK,
		map[string]interface{}{"id": "f1"})
	c := newTestIntegration(t, srv)

	_, err := c.Execute(context.Background(), "create_text_file", map[string]interface{}{
		"name":      "notes.txt",
		"content":   "hello drive",
		"parent_id": "folder1",
	})
	require.NoError(t, err)

	req := srv.Last()
	assert.Equal(t, "multipart", req.Query.Get("uploadType"))

	mediaType, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/related", mediaType)

	mr := multipart.NewReader(strings.NewReader(string(req.Body)), params["boundary"])
	meta, err := mr.NextPart()
	require.NoError(t, err)
	metaBody, _ := io.ReadAll(meta)
	assert.JSONEq(t, `{"name":"notes.txt","parents":["folder1"]}`, string(metaBody))

	media, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "text/plain", media.Header.Get("Content-Type"))
	mediaBody, _ := io.ReadAll(media)
	assert.Equal(t, "hello drive", string(mediaBody))
}

func TestDeleteFile(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodDelete, "/drive/v3/files/f1", http.StatusNoContent, nil)
	c := newTestIntegration(t, srv)

	result, err := c.Execute(context.Background(), "delete_file", map[string]interface{}{"file_id": "f1"})
	require.NoError(t, err)
	assert.Equal(t, true, result.Response.(map[string]interface{})["deleted"])
}

func TestShareFile(t *testing.T) {
	t.Run("user needs email", func(t *testing.T) {
		srv := mock.NewServer(t)
		c := newTestIntegration(t, srv)

		_, err := c.Execute(context.Background(), "share_file", map[string]interface{}{
			"file_id": "f1",
			"role":    "reader",
		})
		assert.True(t, pieceserrors.IsValidation(err))
		assert.Zero(t, srv.Count())
	})

	t.Run("domain grant", func(t *testing.T) {
		srv := mock.NewServer(t).Handle(http.MethodPost, "/drive/v3/files/f1/permissions", http.StatusOK,
			map[string]interface{}{"id": "p1"})
		c := newTestIntegration(t, srv)

		_, err := c.Execute(context.Background(), "share_file", map[string]interface{}{
			"file_id":           "f1",
			"role":              "writer",
			"type":              "domain",
			"domain":            "example.com",
			"send_notification": false,
		})
		require.NoError(t, err)

		req := srv.Last()
		assert.Equal(t, "false", req.Query.Get("sendNotificationEmail"))
		assert.Equal(t, map[string]interface{}{"role": "writer", "type": "domain", "domain": "example.com"}, req.JSON())
	})
}

func TestNewFolderSource(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodGet, "/drive/v3/files", http.StatusOK, map[string]interface{}{
		"files": []interface{}{
			map[string]interface{}{"id": "d2", "createdTime": "2024-06-02T00:00:00.000Z"},
			map[string]interface{}{"id": "d1", "createdTime": "2024-06-01T00:00:00.000Z"},
		},
	})
	c := newTestIntegration(t, srv)

	src, err := c.PollSource("new_folder", map[string]interface{}{"folder_id": "parent"})
	require.NoError(t, err)

	items, err := src.Items(context.Background(), 1717200000000)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	q := srv.Last().Query.Get("q")
	assert.Contains(t, q, "mimeType = 'application/vnd.google-apps.folder'")
	assert.Contains(t, q, "createdTime > '2024-06-01T00:00:00Z'")
	assert.Contains(t, q, "'parent' in parents")
	assert.Equal(t, "createdTime desc", srv.Last().Query.Get("orderBy"))
}

func TestFolderOptions_Unauthenticated(t *testing.T) {
	srv := mock.NewServer(t)
	cfg := srv.ProviderConfig(nil)
	cfg.Authenticated = false
	p, err := NewGoogleDriveIntegration(cfg)
	require.NoError(t, err)

	state := p.(*GoogleDriveIntegration).Options(context.Background(), "new_file", "folder_id", nil)
	assert.True(t, state.Disabled)
	assert.Empty(t, state.Options)
	assert.Zero(t, srv.Count())
}
