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

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/operation/transport"
	"github.com/tombee/pieces/internal/property"
	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

// BaseProvider provides common functionality for API integrations.
type BaseProvider struct {
	name          string
	transport     transport.Transport
	baseURL       string
	authenticated bool
	extra         map[string]string
	logger        *slog.Logger
	detail        func(body []byte) string
}

// NewBaseProvider creates a new base provider.
func NewBaseProvider(name string, config *ProviderConfig) *BaseProvider {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &BaseProvider{
		name:          name,
		transport:     config.Transport,
		baseURL:       strings.TrimRight(config.BaseURL, "/"),
		authenticated: config.Authenticated,
		extra:         config.AdditionalAuth,
		logger:        logger.With(slog.String("piece", name)),
		detail:        DefaultErrorDetail,
	}
}

// Name returns the piece identifier.
func (c *BaseProvider) Name() string {
	return c.name
}

// BaseURL returns the vendor API base URL.
func (c *BaseProvider) BaseURL() string {
	return c.baseURL
}

// Authenticated reports whether a credential was configured.
func (c *BaseProvider) Authenticated() bool {
	return c.authenticated
}

// Setting returns a non-secret connection setting.
func (c *BaseProvider) Setting(key string) string {
	return c.extra[key]
}

// Logger returns the piece logger.
func (c *BaseProvider) Logger() *slog.Logger {
	return c.logger
}

// SetErrorDetail overrides how vendor error text is extracted from a
// failed response body.
func (c *BaseProvider) SetErrorDetail(fn func(body []byte) string) {
	c.detail = fn
}

// BuildURL constructs a full URL from a path template and inputs.
// Path templates use {param} syntax (e.g., "/calls/{call_id}/tags").
// Values are path-escaped; a missing or empty value is a validation error.
func (c *BaseProvider) BuildURL(pathTemplate string, inputs map[string]interface{}) (string, error) {
	path := pathTemplate

	for {
		start := strings.Index(path, "{")
		if start < 0 {
			break
		}
		end := strings.Index(path[start:], "}")
		if end < 0 {
			return "", fmt.Errorf("unterminated parameter in path %q", pathTemplate)
		}
		end += start

		name := path[start+1 : end]
		value := FormatValue(inputs[name])
		if value == "" {
			return "", &pieceserrors.ValidationError{
				Field:   name,
				Message: "is required",
			}
		}
		path = path[:start] + url.PathEscape(value) + path[end+1:]
	}

	return c.baseURL + path, nil
}

// BuildQueryString encodes the named inputs as a query string. Nil and
// empty values are skipped. Returns "" when nothing is set.
func (c *BaseProvider) BuildQueryString(inputs map[string]interface{}, names ...string) string {
	values := Query(inputs, names...)
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// BuildRequestBody constructs a JSON request body from inputs.
// Parameters in excludeParams are excluded from the body.
func (c *BaseProvider) BuildRequestBody(inputs map[string]interface{}, excludeParams []string) ([]byte, error) {
	excludeSet := make(map[string]bool)
	for _, param := range excludeParams {
		excludeSet[param] = true
	}

	body := make(map[string]interface{})
	for key, value := range inputs {
		if !excludeSet[key] && value != nil {
			body[key] = value
		}
	}

	if len(body) == 0 {
		return nil, nil
	}

	return json.Marshal(body)
}

// ExecuteRequest sends one HTTP request. Transport failures are converted to
// *operation.Error through the fixed status table.
func (c *BaseProvider) ExecuteRequest(ctx context.Context, method, url string, headers map[string]string, body []byte) (*transport.Response, error) {
	if c.transport == nil {
		return nil, &pieceserrors.ConfigError{Key: "pieces." + c.name, Reason: "no transport configured"}
	}

	req := &transport.Request{
		Method:  method,
		URL:     url,
		Headers: headers,
		Body:    body,
	}

	start := time.Now()
	resp, err := c.transport.Execute(ctx, req)
	if err != nil {
		opErr := operation.FromTransportError(err, c.detail)
		c.logger.DebugContext(ctx, "request failed",
			slog.String("method", method),
			slog.String("url", transport.SanitizeURL(url)),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			slog.Any("error", opErr))
		return nil, opErr
	}

	return resp, nil
}

// Call describes one request to the vendor API.
type Call struct {
	// Method is the HTTP method
	Method string

	// Path is a path template relative to the base URL
	Path string

	// Params supplies the path template values
	Params map[string]interface{}

	// Query is appended to the URL
	Query url.Values

	// Body is marshaled as JSON when non-nil
	Body interface{}

	// RawBody is sent as-is when set; takes precedence over Body
	RawBody []byte

	// Headers are added to the request
	Headers map[string]string

	// BaseURL overrides the provider base URL (e.g., upload hosts)
	BaseURL string
}

// Do executes a call and decodes the JSON response. An empty body decodes
// to nil.
func (c *BaseProvider) Do(ctx context.Context, call Call) (interface{}, *transport.Response, error) {
	resp, err := c.send(ctx, call)
	if err != nil {
		return nil, nil, err
	}

	var out interface{}
	if err := c.ParseJSONResponse(resp, &out); err != nil {
		return nil, resp, err
	}
	return out, resp, nil
}

// DoResult executes a call and wraps the decoded response in a Result.
func (c *BaseProvider) DoResult(ctx context.Context, call Call) (*operation.Result, error) {
	out, resp, err := c.Do(ctx, call)
	if err != nil {
		return nil, err
	}
	return c.ToResult(resp, out), nil
}

// DoRaw executes a call without decoding, for text and binary responses.
func (c *BaseProvider) DoRaw(ctx context.Context, call Call) (*transport.Response, error) {
	return c.send(ctx, call)
}

func (c *BaseProvider) send(ctx context.Context, call Call) (*transport.Response, error) {
	target, err := c.BuildURL(call.Path, call.Params)
	if err != nil {
		return nil, err
	}
	if call.BaseURL != "" {
		target = strings.TrimRight(call.BaseURL, "/") + strings.TrimPrefix(target, c.baseURL)
	}
	if len(call.Query) > 0 {
		target += "?" + call.Query.Encode()
	}

	body := call.RawBody
	if body == nil && call.Body != nil {
		body, err = json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	return c.ExecuteRequest(ctx, call.Method, target, call.Headers, body)
}

// ParseJSONResponse parses a JSON response into a target.
func (c *BaseProvider) ParseJSONResponse(resp *transport.Response, target interface{}) error {
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(resp.Body, target); err != nil {
		return fmt.Errorf("decode %s response: %w", c.name, err)
	}
	return nil
}

// ToResult converts a transport response to an operation result.
func (c *BaseProvider) ToResult(resp *transport.Response, response interface{}) *operation.Result {
	return &operation.Result{
		Response:    response,
		RawResponse: resp.Body,
		StatusCode:  resp.StatusCode,
		Headers:     resp.Headers,
		Metadata:    resp.Metadata,
	}
}

// Validate fills defaults and checks inputs against the schema before any
// network call is made.
func (c *BaseProvider) Validate(schema property.Schema, inputs map[string]interface{}) (map[string]interface{}, error) {
	inputs = schema.ApplyDefaults(inputs)
	if err := schema.Validate(inputs); err != nil {
		return nil, err
	}
	return inputs, nil
}

// LoadOptions resolves a dropdown declared in schema.
func (c *BaseProvider) LoadOptions(ctx context.Context, schema property.Schema, prop string, inputs map[string]interface{}) property.DropdownState {
	p, ok := schema.Get(prop)
	if !ok {
		return property.DropdownState{Disabled: true, Placeholder: fmt.Sprintf("unknown property %q", prop), Options: []property.Option{}}
	}
	return property.LoadOptions(ctx, p, c.authenticated, inputs)
}

// Decode unmarshals a response body into T.
func Decode[T any](resp *transport.Response) (T, error) {
	var out T
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return out, nil
	}
	err := json.Unmarshal(resp.Body, &out)
	return out, err
}

// DefaultErrorDetail pulls a vendor message out of common error envelopes:
// {"message": ...}, {"error": "..."}, {"error": {"message": ...}},
// {"errors": [{"details"|"message": ...}]}, {"detail": ...}.
func DefaultErrorDetail(body []byte) string {
	var env map[string]interface{}
	if err := json.Unmarshal(body, &env); err != nil {
		return truncate(strings.TrimSpace(string(body)), 200)
	}

	for _, key := range []string{"message", "detail", "error_description", "troubleshoot"} {
		if s, ok := env[key].(string); ok && s != "" {
			return truncate(s, 200)
		}
	}

	switch e := env["error"].(type) {
	case string:
		return truncate(e, 200)
	case map[string]interface{}:
		if s, ok := e["message"].(string); ok {
			return truncate(s, 200)
		}
	}

	if errs, ok := env["errors"].([]interface{}); ok && len(errs) > 0 {
		if first, ok := errs[0].(map[string]interface{}); ok {
			for _, key := range []string{"details", "message", "detail"} {
				if s, ok := first[key].(string); ok {
					return truncate(s, 200)
				}
			}
		}
	}

	return ""
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// UnknownTrigger returns the error for a trigger a piece does not have.
func UnknownTrigger(piece, trigger string) error {
	return &pieceserrors.NotFoundError{Resource: piece + " trigger", ID: trigger}
}
