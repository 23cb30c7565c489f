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

// Package transport executes HTTP requests on behalf of pieces.
//
// A Transport applies credentials, rate limiting, and tracing, then returns
// either a 2xx Response or a *TransportError describing what went wrong.
package transport

import (
	"context"
)

// Transport sends a single request to a vendor API.
type Transport interface {
	// Execute sends a request and returns a response.
	// The context controls cancellation and deadlines.
	// Returns TransportError on failure.
	Execute(ctx context.Context, req *Request) (*Response, error)

	// Name returns the transport identifier (e.g., "http").
	Name() string

	// SetRateLimiter configures rate limiting for this transport.
	SetRateLimiter(limiter RateLimiter)
}

// Request is a transport-agnostic HTTP request.
type Request struct {
	// Method is the HTTP method (GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS)
	Method string

	// URL is the full request URL
	URL string

	// Headers are request headers
	Headers map[string]string

	// Body is the request body
	Body []byte

	// Metadata contains transport-specific data
	Metadata map[string]interface{}
}

// Response is a successful (2xx or 3xx) transport response.
type Response struct {
	// StatusCode is the HTTP status code
	StatusCode int

	// Headers contains response headers
	Headers map[string][]string

	// Body is the response body
	Body []byte

	// Metadata contains transport-specific data (e.g., request id)
	Metadata map[string]interface{}
}

const (
	// MetadataRequestID is the service request ID
	MetadataRequestID = "request_id"

	// MetadataCorrelationID is the id sent as X-Correlation-ID
	MetadataCorrelationID = "correlation_id"

	// MetadataDurationMS is the wall time of the request in milliseconds
	MetadataDurationMS = "duration_ms"
)

// RateLimiter gates outgoing requests.
type RateLimiter interface {
	// Wait blocks until a request is allowed under the rate limit.
	// Returns an error if the context is cancelled before the request can proceed.
	Wait(ctx context.Context) error
}

type correlationKey struct{}

// WithCorrelationID returns a context carrying a correlation id. The HTTP
// transport forwards it as the X-Correlation-ID header.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the correlation id carried by ctx, if any.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
