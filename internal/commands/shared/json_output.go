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

package shared

import (
	"encoding/json"
	"io"
)

// JSONResponse is the envelope of --json output.
type JSONResponse struct {
	Version string      `json:"@version"`
	Command string      `json:"command"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *JSONError  `json:"error,omitempty"`
}

// JSONError is a structured error.
type JSONError struct {
	Code       int    `json:"code"`
	Type       string `json:"type,omitempty"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`

	// Retryable marks failures that may succeed if tried again later
	Retryable bool `json:"retryable,omitempty"`
}

// EmitJSON writes a success envelope.
func EmitJSON(w io.Writer, command string, data interface{}) error {
	return encode(w, JSONResponse{Version: "1.0", Command: command, Success: true, Data: data})
}

// EmitJSONError writes a failure envelope.
func EmitJSONError(w io.Writer, command string, err error) error {
	return encode(w, JSONResponse{Version: "1.0", Command: command, Error: NewJSONError(err)})
}

// NewJSONError converts err to its structured form.
func NewJSONError(err error) *JSONError {
	je := &JSONError{
		Code:       ExitCode(err),
		Type:       errorType(err),
		Message:    err.Error(),
		Suggestion: suggestion(err),
		Retryable:  retryable(err),
	}
	if d := detail(err); d != "" {
		je.Detail = d
	}
	return je
}

// EmitRaw writes v as indented JSON.
func EmitRaw(w io.Writer, v interface{}) error {
	return encode(w, v)
}

func encode(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
