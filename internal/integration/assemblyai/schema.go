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
	"github.com/tombee/pieces/internal/property"
)

var languages = []property.Option{
	{Label: "Automatic detection", Value: "auto"},
	{Label: "English (global)", Value: "en"},
	{Label: "English (US)", Value: "en_us"},
	{Label: "English (UK)", Value: "en_uk"},
	{Label: "Spanish", Value: "es"},
	{Label: "French", Value: "fr"},
	{Label: "German", Value: "de"},
	{Label: "Italian", Value: "it"},
	{Label: "Portuguese", Value: "pt"},
	{Label: "Dutch", Value: "nl"},
	{Label: "Japanese", Value: "ja"},
	{Label: "Hindi", Value: "hi"},
}

var lemurModels = []property.Option{
	{Label: "Claude 3.5 Sonnet", Value: "anthropic/claude-3-5-sonnet"},
	{Label: "Claude 3 Opus", Value: "anthropic/claude-3-opus"},
	{Label: "Claude 3 Haiku", Value: "anthropic/claude-3-haiku"},
	{Label: "Default", Value: "default"},
}

func (c *AssemblyAIIntegration) operationSchemas() map[string]*api.OperationSchema {
	transcriptID := property.New(property.Dropdown, "transcript_id", "Transcript", property.Required,
		property.LoadWith(c.transcriptOptions))

	return map[string]*api.OperationSchema{
		"upload_file": {
			Description: "Upload a media file for transcription",
			Properties: property.Schema{
				property.New(property.LongText, "content", "File Content", property.Required,
					property.Describe("Base64-encoded audio or video")),
			},
			ResponseFields: []api.ResponseFieldInfo{
				{Name: "upload_url", Type: "string", Description: "URL to pass to transcribe"},
			},
		},
		"transcribe": {
			Description: "Start transcribing an audio URL",
			Properties: property.Schema{
				property.Text("audio_url", "Audio URL", property.Required, property.Format("uri")),
				property.New(property.StaticDropdown, "language_code", "Language", property.Choices(languages...)),
				property.Bool("speaker_labels", "Speaker Labels"),
				property.Num("speakers_expected", "Speakers Expected", property.Min(1), property.Max(10)),
				property.Bool("punctuate", "Punctuate", property.Default(true)),
				property.Bool("format_text", "Format Text", property.Default(true)),
				property.Bool("auto_chapters", "Auto Chapters"),
				property.Bool("sentiment_analysis", "Sentiment Analysis"),
				property.Bool("entity_detection", "Entity Detection"),
				property.New(property.Array, "word_boost", "Word Boost"),
				property.Text("webhook_url", "Webhook URL", property.Format("uri")),
			},
		},
		"get_transcript":    {Description: "Get a transcript", Properties: property.Schema{transcriptID}},
		"get_sentences":     {Description: "Get a transcript split into sentences", Properties: property.Schema{transcriptID}},
		"get_paragraphs":    {Description: "Get a transcript split into paragraphs", Properties: property.Schema{transcriptID}},
		"delete_transcript": {Description: "Delete a transcript", Properties: property.Schema{transcriptID}},
		"get_subtitles": {
			Description: "Export a transcript as SRT or VTT",
			Properties: property.Schema{
				transcriptID,
				property.New(property.StaticDropdown, "format", "Format", property.Default("srt"), property.Choices(
					property.Option{Label: "SRT", Value: "srt"},
					property.Option{Label: "VTT", Value: "vtt"},
				)),
				property.Num("chars_per_caption", "Characters per Caption", property.Min(1)),
			},
		},
		"word_search": {
			Description: "Search words in a transcript",
			Properties: property.Schema{
				transcriptID,
				property.New(property.Array, "words", "Words", property.Required, property.MinItems(1)),
			},
		},
		"list_transcripts": {
			Description: "List transcripts",
			Properties: property.Schema{
				property.Num("limit", "Limit", property.Default(10), property.Min(1), property.Max(200)),
				property.New(property.StaticDropdown, "status", "Status", property.Choices(
					property.Option{Label: "Queued", Value: "queued"},
					property.Option{Label: "Processing", Value: "processing"},
					property.Option{Label: "Completed", Value: "completed"},
					property.Option{Label: "Error", Value: "error"},
				)),
				property.Text("created_on", "Created On", property.Format("date")),
				property.Text("before_id", "Before ID"),
				property.Text("after_id", "After ID"),
			},
		},
		"lemur_task": {
			Description: "Run a LeMUR prompt over transcripts",
			Properties: property.Schema{
				property.New(property.MultiSelectDropdown, "transcript_ids", "Transcripts", property.Required,
					property.MinItems(1), property.LoadWith(c.transcriptOptions)),
				property.New(property.LongText, "prompt", "Prompt", property.Required, property.MaxLength(100000)),
				property.New(property.LongText, "context", "Context"),
				property.New(property.StaticDropdown, "final_model", "Model", property.Default("default"),
					property.Choices(lemurModels...)),
				property.Num("max_output_size", "Max Output Size", property.Min(1), property.Max(4000)),
				property.Num("temperature", "Temperature", property.Min(0), property.Max(1)),
			},
		},
	}
}

func (c *AssemblyAIIntegration) transcriptOptions(ctx context.Context, _ map[string]interface{}) ([]property.Option, error) {
	out, _, err := c.Do(ctx, api.Call{
		Method: http.MethodGet,
		Path:   "/v2/transcript",
		Query:  url.Values{"limit": {"100"}},
	})
	if err != nil {
		return nil, err
	}

	transcripts, _ := api.Field(out, "transcripts").([]interface{})
	opts := make([]property.Option, 0, len(transcripts))
	for _, t := range transcripts {
		id := api.FormatValue(api.Field(t, "id"))
		opts = append(opts, property.Option{
			Label: id + " (" + api.FormatValue(api.Field(t, "status")) + ")",
			Value: id,
		})
	}
	return opts, nil
}
