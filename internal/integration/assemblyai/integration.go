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

// Package assemblyai provides the AssemblyAI piece: uploads, transcription,
// transcript exports, and LeMUR tasks.
package assemblyai

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/property"
)

// DefaultBaseURL is the AssemblyAI API host.
const DefaultBaseURL = "https://api.assemblyai.com"

// AssemblyAIIntegration implements the AssemblyAI piece. The API key is sent
// verbatim in the Authorization header by the transport.
type AssemblyAIIntegration struct {
	*api.BaseProvider
	schemas map[string]*api.OperationSchema
}

// NewAssemblyAIIntegration creates the AssemblyAI piece.
func NewAssemblyAIIntegration(config *api.ProviderConfig) (operation.Provider, error) {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	c := &AssemblyAIIntegration{BaseProvider: api.NewBaseProvider("assemblyai", config)}
	c.schemas = c.operationSchemas()
	return c, nil
}

// Execute runs a named operation with the given inputs.
func (c *AssemblyAIIntegration) Execute(ctx context.Context, op string, inputs map[string]interface{}) (*operation.Result, error) {
	schema, ok := c.schemas[op]
	if !ok {
		return nil, operation.UnknownOperation(c.Name(), op)
	}
	inputs, err := c.Validate(schema.Properties, inputs)
	if err != nil {
		return nil, err
	}

	switch op {
	case "upload_file":
		return c.uploadFile(ctx, inputs)
	case "transcribe":
		return c.transcribe(ctx, inputs)
	case "get_transcript":
		return c.getTranscript(ctx, inputs, "")
	case "get_sentences":
		return c.getTranscript(ctx, inputs, "/sentences")
	case "get_paragraphs":
		return c.getTranscript(ctx, inputs, "/paragraphs")
	case "get_subtitles":
		return c.getSubtitles(ctx, inputs)
	case "word_search":
		return c.wordSearch(ctx, inputs)
	case "list_transcripts":
		return c.listTranscripts(ctx, inputs)
	case "delete_transcript":
		return c.deleteTranscript(ctx, inputs)
	case "lemur_task":
		return c.lemurTask(ctx, inputs)
	default:
		return nil, operation.UnknownOperation(c.Name(), op)
	}
}

// Operations returns the list of available operations.
func (c *AssemblyAIIntegration) Operations() []api.OperationInfo {
	return []api.OperationInfo{
		{Name: "upload_file", Description: "Upload a media file for transcription", Category: "files", Tags: []string{"write"}},
		{Name: "transcribe", Description: "Start transcribing an audio URL", Category: "transcripts", Tags: []string{"write"}},
		{Name: "get_transcript", Description: "Get a transcript", Category: "transcripts", Tags: []string{"read"}},
		{Name: "get_sentences", Description: "Get a transcript split into sentences", Category: "transcripts", Tags: []string{"read"}},
		{Name: "get_paragraphs", Description: "Get a transcript split into paragraphs", Category: "transcripts", Tags: []string{"read"}},
		{Name: "get_subtitles", Description: "Export a transcript as SRT or VTT", Category: "transcripts", Tags: []string{"read"}},
		{Name: "word_search", Description: "Search words in a transcript", Category: "transcripts", Tags: []string{"read"}},
		{Name: "list_transcripts", Description: "List transcripts", Category: "transcripts", Tags: []string{"read", "paginated"}},
		{Name: "delete_transcript", Description: "Delete a transcript", Category: "transcripts", Tags: []string{"write"}},
		{Name: "lemur_task", Description: "Run a LeMUR prompt over transcripts", Category: "lemur", Tags: []string{"write"}},
	}
}

// OperationSchema returns the schema for an operation.
func (c *AssemblyAIIntegration) OperationSchema(op string) *api.OperationSchema {
	return c.schemas[op]
}

// Options loads the choices of a dropdown property.
func (c *AssemblyAIIntegration) Options(ctx context.Context, op, prop string, inputs map[string]interface{}) property.DropdownState {
	var schema property.Schema
	if s, ok := c.schemas[op]; ok {
		schema = s.Properties
	}
	return c.LoadOptions(ctx, schema, prop, inputs)
}

// Ping checks the credential.
func (c *AssemblyAIIntegration) Ping(ctx context.Context) error {
	_, _, err := c.Do(ctx, api.Call{
		Method: http.MethodGet,
		Path:   "/v2/transcript",
		Query:  url.Values{"limit": {"1"}},
	})
	return err
}
