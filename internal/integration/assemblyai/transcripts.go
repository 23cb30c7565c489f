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
	"net/url"
	"strings"

	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/operation/api"
	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

func (c *AssemblyAIIntegration) uploadFile(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	data, err := base64.StdEncoding.DecodeString(api.String(inputs, "content"))
	if err != nil {
		return nil, &pieceserrors.ValidationError{
			Field:      "content",
			Message:    "is not valid base64",
			Suggestion: "Encode the file with base64 before passing it",
		}
	}

	return c.DoResult(ctx, api.Call{
		Method:  http.MethodPost,
		Path:    "/v2/upload",
		RawBody: data,
		Headers: map[string]string{"Content-Type": "application/octet-stream"},
	})
}

func (c *AssemblyAIIntegration) transcribe(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	body := api.Pick(inputs,
		"audio_url", "speaker_labels", "speakers_expected", "punctuate", "format_text",
		"auto_chapters", "sentiment_analysis", "entity_detection", "word_boost", "webhook_url")

	switch lang := api.String(inputs, "language_code"); lang {
	case "", "auto":
		body["language_detection"] = true
	default:
		body["language_code"] = lang
	}

	return c.DoResult(ctx, api.Call{
		Method: http.MethodPost,
		Path:   "/v2/transcript",
		Body:   body,
	})
}

// getTranscript fetches a transcript or one of its sub-resources.
func (c *AssemblyAIIntegration) getTranscript(ctx context.Context, inputs map[string]interface{}, suffix string) (*operation.Result, error) {
	return c.DoResult(ctx, api.Call{
		Method: http.MethodGet,
		Path:   "/v2/transcript/{transcript_id}" + suffix,
		Params: inputs,
	})
}

// getSubtitles returns the caption file as text.
func (c *AssemblyAIIntegration) getSubtitles(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	resp, err := c.DoRaw(ctx, api.Call{
		Method: http.MethodGet,
		Path:   "/v2/transcript/{transcript_id}/{format}",
		Params: inputs,
		Query:  api.Query(inputs, "chars_per_caption"),
	})
	if err != nil {
		return nil, err
	}
	return c.ToResult(resp, string(resp.Body)), nil
}

func (c *AssemblyAIIntegration) wordSearch(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	return c.DoResult(ctx, api.Call{
		Method: http.MethodGet,
		Path:   "/v2/transcript/{transcript_id}/word-search",
		Params: inputs,
		Query:  url.Values{"words": {strings.Join(api.Strings(inputs, "words"), ",")}},
	})
}

func (c *AssemblyAIIntegration) listTranscripts(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	return c.DoResult(ctx, api.Call{
		Method: http.MethodGet,
		Path:   "/v2/transcript",
		Query:  api.Query(inputs, "limit", "status", "created_on", "before_id", "after_id"),
	})
}

func (c *AssemblyAIIntegration) deleteTranscript(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	return c.DoResult(ctx, api.Call{
		Method: http.MethodDelete,
		Path:   "/v2/transcript/{transcript_id}",
		Params: inputs,
	})
}

func (c *AssemblyAIIntegration) lemurTask(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	return c.DoResult(ctx, api.Call{
		Method: http.MethodPost,
		Path:   "/lemur/v3/generate/task",
		Body:   api.Pick(inputs, "transcript_ids", "prompt", "context", "final_model", "max_output_size", "temperature"),
	})
}
