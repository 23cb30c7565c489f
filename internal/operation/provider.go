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

package operation

import (
	"context"
)

// Provider is a piece that can execute named operations.
type Provider interface {
	// Name returns the piece identifier (e.g., "aircall").
	Name() string

	// Execute runs a named operation with the given inputs.
	Execute(ctx context.Context, operation string, inputs map[string]interface{}) (*Result, error)
}

// Result is the outcome of a single operation.
type Result struct {
	// Response is the parsed (and possibly reshaped) response body
	Response interface{}

	// RawResponse is the unmodified response body
	RawResponse []byte

	// StatusCode is the HTTP status code of the last call
	StatusCode int

	// Headers are the response headers of the last call
	Headers map[string][]string

	// Metadata carries transport details such as the request id
	Metadata map[string]interface{}
}

// GetResponse returns the parsed response.
func (r *Result) GetResponse() interface{} {
	return r.Response
}
