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

package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

const tracerName = "github.com/tombee/pieces/internal/operation/transport"

// Auth types understood by the HTTP transport.
const (
	AuthNone        = "none"
	AuthBearer      = "bearer"
	AuthBasic       = "basic"
	AuthAPIKey      = "api_key"
	AuthAPIKeyQuery = "api_key_query"
	AuthOAuth2      = "oauth2"
)

// HTTPTransport implements Transport for plain HTTP APIs.
type HTTPTransport struct {
	config      *HTTPTransportConfig
	client      *http.Client
	rateLimiter RateLimiter
	tracer      trace.Tracer
	logger      *slog.Logger
}

// HTTPTransportConfig configures the HTTP transport.
type HTTPTransportConfig struct {
	// Timeout for each request (default: 30s)
	Timeout time.Duration

	// Headers are added to every request
	Headers map[string]string

	// Auth configures request authentication (optional)
	Auth *AuthConfig

	// TLSInsecure skips certificate verification. Tests only.
	TLSInsecure bool

	// UserAgent overrides the default User-Agent header
	UserAgent string

	// Logger receives one debug record per request (default: slog.Default())
	Logger *slog.Logger
}

// AuthConfig configures authentication for HTTP requests.
type AuthConfig struct {
	// Type is one of the Auth* constants
	Type string

	// Token for bearer auth
	Token string

	// Username for basic auth
	Username string

	// Password for basic auth
	Password string

	// HeaderName for api_key auth (e.g., "Authorization", "X-API-Key")
	HeaderName string

	// HeaderValue for api_key auth
	HeaderValue string

	// QueryParam for api_key_query auth (e.g., "api_key")
	QueryParam string

	// QueryValue for api_key_query auth
	QueryValue string

	// TokenSource supplies access tokens for oauth2 auth
	TokenSource oauth2.TokenSource
}

// Validate checks the configuration is valid.
func (c *HTTPTransportConfig) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %v", c.Timeout)
	}

	if c.Auth != nil {
		if err := c.Auth.Validate(); err != nil {
			return fmt.Errorf("invalid auth configuration: %w", err)
		}
	}

	return nil
}

// Validate checks that the fields required by the auth type are present.
func (a *AuthConfig) Validate() error {
	switch a.Type {
	case AuthNone, "":

	case AuthBearer:
		if a.Token == "" {
			return fmt.Errorf("token is required for bearer auth")
		}

	case AuthBasic:
		if a.Username == "" {
			return fmt.Errorf("username is required for basic auth")
		}

	case AuthAPIKey:
		if a.HeaderName == "" {
			return fmt.Errorf("header_name is required for api_key auth")
		}
		if a.HeaderValue == "" {
			return fmt.Errorf("header_value is required for api_key auth")
		}

	case AuthAPIKeyQuery:
		if a.QueryParam == "" {
			return fmt.Errorf("query_param is required for api_key_query auth")
		}
		if a.QueryValue == "" {
			return fmt.Errorf("query_value is required for api_key_query auth")
		}

	case AuthOAuth2:
		if a.TokenSource == nil {
			return fmt.Errorf("token source is required for oauth2 auth")
		}

	default:
		return fmt.Errorf("invalid auth type: %q", a.Type)
	}

	return nil
}

// NewHTTPTransport creates a new HTTP transport.
func NewHTTPTransport(config *HTTPTransportConfig) (*HTTPTransport, error) {
	if config == nil {
		config = &HTTPTransportConfig{}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,

			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: timeout,
			ExpectContinueTimeout: 1 * time.Second,

			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: config.TLSInsecure,
			},
		},
	}

	return &HTTPTransport{
		config: config,
		client: client,
		tracer: otel.Tracer(tracerName),
		logger: logger.With(slog.String("component", "transport")),
	}, nil
}

// Name returns the transport identifier.
func (t *HTTPTransport) Name() string {
	return "http"
}

// SetRateLimiter configures rate limiting for this transport.
func (t *HTTPTransport) SetRateLimiter(limiter RateLimiter) {
	t.rateLimiter = limiter
}

// Execute sends the request exactly once. Non-2xx/3xx responses come back as
// a *TransportError carrying the status code and response body.
func (t *HTTPTransport) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := t.validateRequest(req); err != nil {
		return nil, &TransportError{
			Type:    ErrorTypeInvalidReq,
			Message: fmt.Sprintf("invalid request: %s", err.Error()),
			Cause:   err,
		}
	}

	safeURL := SanitizeURL(req.URL)
	ctx, span := t.tracer.Start(ctx, "http "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", safeURL),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := t.executeOnce(ctx, req)
	duration := time.Since(start)

	attrs := []any{
		slog.String("method", req.Method),
		slog.String("url", safeURL),
		slog.Int64("duration_ms", duration.Milliseconds()),
	}
	if id := CorrelationID(ctx); id != "" {
		attrs = append(attrs, slog.String("correlation_id", id))
	}

	if err != nil {
		if te, ok := err.(*TransportError); ok && te.StatusCode > 0 {
			span.SetAttributes(attribute.Int("http.response.status_code", te.StatusCode))
			attrs = append(attrs, slog.Int("status", te.StatusCode))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.logger.DebugContext(ctx, "http request failed", append(attrs, slog.Any("error", err))...)
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	resp.Metadata[MetadataDurationMS] = duration.Milliseconds()
	t.logger.DebugContext(ctx, "http request", append(attrs, slog.Int("status", resp.StatusCode))...)
	return resp, nil
}

func (t *HTTPTransport) executeOnce(ctx context.Context, req *Request) (*Response, error) {
	if t.rateLimiter != nil {
		if err := t.rateLimiter.Wait(ctx); err != nil {
			return nil, &TransportError{
				Type:    ErrorTypeCancelled,
				Message: "rate limit wait cancelled",
				Cause:   err,
			}
		}
	}

	httpReq, err := t.buildHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, ClassifyNetworkError(err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, ClassifyNetworkError(err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
		Metadata:   make(map[string]interface{}),
	}

	if requestID := requestIDFrom(httpResp.Header); requestID != "" {
		resp.Metadata[MetadataRequestID] = requestID
	}
	if id := CorrelationID(ctx); id != "" {
		resp.Metadata[MetadataCorrelationID] = id
	}

	if httpResp.StatusCode >= 400 {
		if retryAfter := httpResp.Header.Get("Retry-After"); retryAfter != "" {
			resp.Metadata["retry_after"] = retryAfter
		}
		return nil, &TransportError{
			Type:       StatusErrorType(httpResp.StatusCode),
			StatusCode: httpResp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d", httpResp.StatusCode),
			RequestID:  requestIDFrom(httpResp.Header),
			Body:       body,
			Metadata:   resp.Metadata,
		}
	}

	return resp, nil
}

func requestIDFrom(h http.Header) string {
	for _, key := range []string{"X-Request-ID", "X-Request-Id", "Request-Id", "X-Amzn-RequestId"} {
		if v := h.Get(key); v != "" {
			return v
		}
	}
	return ""
}

func (t *HTTPTransport) validateRequest(req *Request) error {
	if req.Method == "" {
		return fmt.Errorf("method is required")
	}

	validMethods := map[string]bool{
		"GET": true, "POST": true, "PUT": true, "DELETE": true,
		"PATCH": true, "HEAD": true, "OPTIONS": true,
	}
	if !validMethods[req.Method] {
		return fmt.Errorf("invalid HTTP method: %q", req.Method)
	}

	if req.URL == "" {
		return fmt.Errorf("URL is required")
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}

	return nil
}

func (t *HTTPTransport) buildHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	var bodyReader io.Reader
	if req.Body != nil {
		bodyReader = bytes.NewReader(req.Body)
	}

	target := req.URL
	if auth := t.config.Auth; auth != nil && auth.Type == AuthAPIKeyQuery {
		u, _ := url.Parse(target)
		q := u.Query()
		q.Set(auth.QueryParam, auth.QueryValue)
		u.RawQuery = q.Encode()
		target = u.String()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bodyReader)
	if err != nil {
		return nil, &TransportError{
			Type:    ErrorTypeInvalidReq,
			Message: "failed to build HTTP request",
			Cause:   err,
		}
	}

	if t.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", t.config.UserAgent)
	}

	for key, value := range t.config.Headers {
		httpReq.Header.Set(key, value)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if id := CorrelationID(ctx); id != "" {
		httpReq.Header.Set("X-Correlation-ID", id)
	}

	if t.config.Auth != nil {
		if err := t.applyAuth(httpReq); err != nil {
			return nil, err
		}
	}

	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	return httpReq, nil
}

func (t *HTTPTransport) applyAuth(req *http.Request) error {
	auth := t.config.Auth

	switch auth.Type {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+auth.Token)

	case AuthBasic:
		req.SetBasicAuth(auth.Username, auth.Password)

	case AuthAPIKey:
		req.Header.Set(auth.HeaderName, auth.HeaderValue)

	case AuthOAuth2:
		token, err := auth.TokenSource.Token()
		if err != nil {
			return tokenError(err)
		}
		token.SetAuthHeader(req)

	case AuthAPIKeyQuery, AuthNone, "":
	}

	return nil
}

// tokenError reports a failed token exchange as a 401 so callers see the
// same authentication message as a rejected request.
func tokenError(err error) *TransportError {
	te := &TransportError{
		Type:       ErrorTypeAuth,
		StatusCode: http.StatusUnauthorized,
		Message:    "failed to acquire OAuth2 token",
		Cause:      err,
	}
	if re, ok := err.(*oauth2.RetrieveError); ok {
		te.Body = re.Body
	}
	return te
}

var sensitiveParams = []string{"api_key", "apikey", "key", "token", "access_token", "client_secret"}

// SanitizeURL removes credentials from a URL so it can be logged.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	if u.User != nil {
		u.User = url.User("REDACTED")
	}
	if u.RawQuery == "" {
		return u.String()
	}
	q := u.Query()
	for name := range q {
		for _, s := range sensitiveParams {
			if strings.EqualFold(name, s) {
				q.Set(name, "REDACTED")
			}
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
