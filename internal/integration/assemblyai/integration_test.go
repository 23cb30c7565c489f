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
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/pieces/internal/testing/mock"
	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

func newTestIntegration(t *testing.T, srv *mock.Server) *AssemblyAIIntegration {
	t.Helper()
	p, err := NewAssemblyAIIntegration(srv.ProviderConfig(nil))
	require.NoError(t, err)
	return p.(*AssemblyAIIntegration)
}

func TestUploadFile(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodPost, "/v2/upload", http.StatusOK,
		map[string]interface{}{"upload_url": "https://cdn.assemblyai.com/upload/abc"})
	c := newTestIntegration(t, srv)

	result, err := c.Execute(context.Background(), "upload_file", map[string]interface{}{
		"content": base64.StdEncoding.EncodeToString([]byte("RIFF....")),
	})
	require.NoError(t, err)

	req := srv.Last()
	assert.Equal(t, "RIFF....", string(req.Body))
	assert.Equal(t, "application/octet-stream", req.Header.Get("Content-Type"))
	assert.Equal(t, "https://cdn.assemblyai.com/upload/abc",
		result.Response.(map[string]interface{})["upload_url"])
}

func TestUploadFile_InvalidBase64(t *testing.T) {
	srv := mock.NewServer(t)
	c := newTestIntegration(t, srv)

	_, err := c.Execute(context.Background(), "upload_file", map[string]interface{}{"content": "%%%"})
	assert.True(t, pieceserrors.IsValidation(err))
	assert.Zero(t, srv.Count())
}

func TestTranscribe(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodPost, "/v2/transcript", http.StatusOK,
		map[string]interface{}{"id": "t1", "status": "queued"})
	c := newTestIntegration(t, srv)

	_, err := c.Execute(context.Background(), "transcribe", map[string]interface{}{
		"audio_url":      "https://example.com/a.mp3",
		"speaker_labels": true,
	})
	require.NoError(t, err)

	body := srv.Last().JSON()
	assert.Equal(t, "https://example.com/a.mp3", body["audio_url"])
	assert.Equal(t, true, body["language_detection"])
	assert.Equal(t, true, body["punctuate"])
	assert.NotContains(t, body, "language_code")
}

func TestTranscribe_InvalidURL(t *testing.T) {
	srv := mock.NewServer(t)
	c := newTestIntegration(t, srv)

	_, err := c.Execute(context.Background(), "transcribe", map[string]interface{}{"audio_url": "not a url"})
	require.Error(t, err)
	assert.True(t, pieceserrors.IsValidation(err))
	assert.Zero(t, srv.Count())
}

func TestGetSubtitles(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodGet, "/v2/transcript/t1/vtt", http.StatusOK, "WEBVTT\n\n00:00.000 --> 00:01.000\nhi\n")
	c := newTestIntegration(t, srv)

	result, err := c.Execute(context.Background(), "get_subtitles", map[string]interface{}{
		"transcript_id":     "t1",
		"format":            "vtt",
		"chars_per_caption": 32,
	})
	require.NoError(t, err)
	assert.Contains(t, result.Response, "WEBVTT")
	assert.Equal(t, []string{"32"}, srv.Last().Query["chars_per_caption"])
}

func TestGetSubtitles_BadFormat(t *testing.T) {
	srv := mock.NewServer(t)
	c := newTestIntegration(t, srv)

	_, err := c.Execute(context.Background(), "get_subtitles", map[string]interface{}{
		"transcript_id": "t1",
		"format":        "docx",
	})
	assert.True(t, pieceserrors.IsValidation(err))
	assert.Zero(t, srv.Count())
}

func TestWordSearch(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodGet, "/v2/transcript/t1/word-search", http.StatusOK,
		map[string]interface{}{"total_count": 2})
	c := newTestIntegration(t, srv)

	_, err := c.Execute(context.Background(), "word_search", map[string]interface{}{
		"transcript_id": "t1",
		"words":         []interface{}{"foo", "bar"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"foo,bar"}, srv.Last().Query["words"])
}

func TestLemurTask_PromptLimit(t *testing.T) {
	srv := mock.NewServer(t)
	c := newTestIntegration(t, srv)

	_, err := c.Execute(context.Background(), "lemur_task", map[string]interface{}{
		"transcript_ids": []interface{}{"t1"},
		"prompt":         "",
	})
	assert.True(t, pieceserrors.IsValidation(err))
	assert.Zero(t, srv.Count())
}

func TestTranscriptOptions(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodGet, "/v2/transcript", http.StatusOK, map[string]interface{}{
		"transcripts": []interface{}{
			map[string]interface{}{"id": "t1", "status": "completed"},
		},
	})
	c := newTestIntegration(t, srv)

	state := c.Options(context.Background(), "get_transcript", "transcript_id", nil)
	require.False(t, state.Disabled)
	require.Len(t, state.Options, 1)
	assert.Equal(t, "t1", state.Options[0].Value)
	assert.Equal(t, "t1 (completed)", state.Options[0].Label)
}

func TestTranscriptCompletedSource(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodGet, "/v2/transcript", http.StatusOK, map[string]interface{}{
		"transcripts": []interface{}{
			map[string]interface{}{"id": "t2", "status": "completed", "completed": "2024-03-01T10:00:00.123456"},
			map[string]interface{}{"id": "t1", "status": "completed", "completed": "2024-03-01T09:00:00"},
		},
	})
	c := newTestIntegration(t, srv)

	src, err := c.PollSource("transcript_completed", nil)
	require.NoError(t, err)

	items, err := src.Items(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Greater(t, items[0].EpochMS, items[1].EpochMS)
	assert.Equal(t, []string{"completed"}, srv.Last().Query["status"])

	_, err = c.WebhookTrigger("transcript_completed", nil)
	assert.Error(t, err)
}
