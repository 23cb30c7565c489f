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
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
)

// ErrorType classifies transport errors.
type ErrorType string

const (
	// ErrorTypeConnection indicates the connection could not be made or was dropped
	ErrorTypeConnection ErrorType = "connection"

	// ErrorTypeDNS indicates the host name could not be resolved
	ErrorTypeDNS ErrorType = "dns"

	// ErrorTypeTLS indicates the TLS handshake or certificate check failed
	ErrorTypeTLS ErrorType = "tls"

	// ErrorTypeTimeout indicates request timeout or deadline exceeded
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeAuth indicates authentication failure (401, 403, token exchange)
	ErrorTypeAuth ErrorType = "auth"

	// ErrorTypeRateLimit indicates rate limiting (429 Too Many Requests)
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// ErrorTypeServer indicates server errors (5xx)
	ErrorTypeServer ErrorType = "server"

	// ErrorTypeClient indicates other client errors (4xx)
	ErrorTypeClient ErrorType = "client"

	// ErrorTypeInvalidReq indicates request validation error (invalid method, URL, etc.)
	ErrorTypeInvalidReq ErrorType = "invalid_request"

	// ErrorTypeCancelled indicates context was cancelled
	ErrorTypeCancelled ErrorType = "cancelled"
)

// TransportError describes a failed request.
type TransportError struct {
	// Type classifies the error
	Type ErrorType

	// StatusCode is the HTTP status code if applicable
	// Zero for non-HTTP errors (connection, timeout, etc.)
	StatusCode int

	// Message is safe to log; credentials never appear in it
	Message string

	// RequestID is the request ID from the service
	RequestID string

	// Body is the raw error response body, for vendor detail extraction
	Body []byte

	// Cause is the underlying error
	// May contain sensitive data - use Message for user-facing errors
	Cause error

	// Metadata contains service-specific debugging details
	Metadata map[string]interface{}
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// IsStatusCode reports whether the error carries the given status.
func (e *TransportError) IsStatusCode(code int) bool {
	return e.StatusCode == code
}

// IsType reports whether the error has the given type.
func (e *TransportError) IsType(t ErrorType) bool {
	return e.Type == t
}

// StatusErrorType maps an HTTP status to a transport error type.
func StatusErrorType(statusCode int) ErrorType {
	switch {
	case statusCode == 401 || statusCode == 403:
		return ErrorTypeAuth
	case statusCode == 429:
		return ErrorTypeRateLimit
	case statusCode >= 500:
		return ErrorTypeServer
	default:
		return ErrorTypeClient
	}
}

// ClassifyNetworkError converts an error returned by http.Client.Do into a
// TransportError. Order matters: a cancelled context wins over the wrapped
// net error it produces.
func ClassifyNetworkError(err error) *TransportError {
	switch {
	case errors.Is(err, context.Canceled):
		return &TransportError{Type: ErrorTypeCancelled, Message: "request cancelled", Cause: err}
	case errors.Is(err, context.DeadlineExceeded) || isTimeout(err):
		return &TransportError{Type: ErrorTypeTimeout, Message: "request timeout", Cause: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &TransportError{Type: ErrorTypeDNS, Message: fmt.Sprintf("cannot resolve host %s", dnsErr.Name), Cause: err}
	}

	if isTLSError(err) {
		return &TransportError{Type: ErrorTypeTLS, Message: "tls handshake failed", Cause: err}
	}

	return &TransportError{Type: ErrorTypeConnection, Message: "connection error", Cause: err}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isTLSError(err error) bool {
	var (
		recordErr    tls.RecordHeaderError
		verifyErr    *tls.CertificateVerificationError
		authorityErr x509.UnknownAuthorityError
		hostErr      x509.HostnameError
		invalidErr   x509.CertificateInvalidError
	)
	return errors.As(err, &recordErr) ||
		errors.As(err, &verifyErr) ||
		errors.As(err, &authorityErr) ||
		errors.As(err, &hostErr) ||
		errors.As(err, &invalidErr)
}
