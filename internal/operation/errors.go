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
	"errors"
	"fmt"
	"net/http"

	"github.com/tombee/pieces/internal/operation/transport"
)

// ErrorType classifies operation errors for appropriate handling.
type ErrorType string

const (
	// ErrorTypeAuth indicates authentication or authorization failure (401, 403)
	ErrorTypeAuth ErrorType = "auth_error"

	// ErrorTypeNotFound indicates resource not found (404)
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeValidation indicates the remote API rejected the request (400)
	ErrorTypeValidation ErrorType = "validation_error"

	// ErrorTypeConflict indicates a duplicate or unprocessable record (409, 422)
	ErrorTypeConflict ErrorType = "conflict"

	// ErrorTypeRateLimit indicates rate limit exceeded (429)
	ErrorTypeRateLimit ErrorType = "rate_limited"

	// ErrorTypeServer indicates server-side error (5xx)
	ErrorTypeServer ErrorType = "server_error"

	// ErrorTypeClient indicates any other 4xx response
	ErrorTypeClient ErrorType = "client_error"

	// ErrorTypeTimeout indicates operation timeout
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeConnection indicates network, DNS, or TLS failure
	ErrorTypeConnection ErrorType = "connection_error"

	// ErrorTypeCancelled indicates the caller cancelled the context
	ErrorTypeCancelled ErrorType = "cancelled"

	// ErrorTypeInvalidRequest indicates the request could not be built
	ErrorTypeInvalidRequest ErrorType = "invalid_request"

	// ErrorTypeUnknownOperation indicates the piece has no such operation
	ErrorTypeUnknownOperation ErrorType = "unknown_operation"
)

// Fixed messages for remote and network failures. Every piece reports the
// same message for the same condition.
const (
	MsgBadRequest    = "Invalid request: the remote API rejected the request parameters"
	MsgUnauthorized  = "Authentication failed: check the credentials for this connection"
	MsgForbidden     = "Access forbidden: the credentials lack permission for this operation"
	MsgNotFound      = "Resource not found: the referenced record does not exist"
	MsgConflict      = "Conflict: the record already exists or is in a conflicting state"
	MsgUnprocessable = "Validation failed: the remote API could not process the supplied data"
	MsgRateLimited   = "Rate limit exceeded: wait before retrying the request"
	MsgUnavailable   = "Upstream service unavailable: the remote API failed to respond"
	MsgClientError   = "Request failed: the remote API returned an unexpected client error"

	MsgTimeout    = "Request timed out before the remote API responded"
	MsgDNS        = "Could not resolve the remote API host"
	MsgTLS        = "Secure connection to the remote API failed"
	MsgConnection = "Could not connect to the remote API"
	MsgCancelled  = "Request cancelled before the remote API responded"
)

// Error represents an operation execution error with classification.
type Error struct {
	// Type classifies the error
	Type ErrorType

	// Message is the fixed human-readable description for this class of failure
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Detail is the vendor's own error text, when the response carried one.
	// It is kept out of Error() so credentials echoed by a vendor never reach logs.
	Detail string

	// SuggestText provides guidance on how to resolve the error.
	SuggestText string

	// RequestID from the external service
	RequestID string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("OperationError: %s", e.Message)

	if e.Type != "" {
		msg = fmt.Sprintf("%s (type: %s)", msg, e.Type)
	}

	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s [HTTP %d]", msg, e.StatusCode)
	}

	if e.RequestID != "" {
		msg = fmt.Sprintf("%s (request-id: %s)", msg, e.RequestID)
	}

	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrorType implements pkg/errors.ErrorClassifier.
func (e *Error) ErrorType() string {
	return string(e.Type)
}

// IsRetryable reports whether the same request may succeed later.
func (e *Error) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeServer, ErrorTypeTimeout, ErrorTypeConnection:
		return true
	default:
		return false
	}
}

// IsUserVisible implements pkg/errors.UserVisibleError.
func (e *Error) IsUserVisible() bool {
	return true
}

// UserMessage implements pkg/errors.UserVisibleError.
func (e *Error) UserMessage() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Detail)
	}
	return e.Message
}

// Suggestion implements pkg/errors.UserVisibleError.
func (e *Error) Suggestion() string {
	return e.SuggestText
}

// StatusMessage returns the fixed message and error type for an HTTP status.
func StatusMessage(statusCode int) (ErrorType, string) {
	switch {
	case statusCode == http.StatusBadRequest:
		return ErrorTypeValidation, MsgBadRequest
	case statusCode == http.StatusUnauthorized:
		return ErrorTypeAuth, MsgUnauthorized
	case statusCode == http.StatusForbidden:
		return ErrorTypeAuth, MsgForbidden
	case statusCode == http.StatusNotFound:
		return ErrorTypeNotFound, MsgNotFound
	case statusCode == http.StatusConflict:
		return ErrorTypeConflict, MsgConflict
	case statusCode == http.StatusUnprocessableEntity:
		return ErrorTypeConflict, MsgUnprocessable
	case statusCode == http.StatusTooManyRequests:
		return ErrorTypeRateLimit, MsgRateLimited
	case statusCode >= 500:
		return ErrorTypeServer, MsgUnavailable
	default:
		return ErrorTypeClient, MsgClientError
	}
}

// ErrorFromHTTPStatus creates an Error from a non-2xx response.
func ErrorFromHTTPStatus(statusCode int, detail, requestID string) *Error {
	errType, message := StatusMessage(statusCode)

	err := &Error{
		Type:       errType,
		StatusCode: statusCode,
		Message:    message,
		Detail:     detail,
		RequestID:  requestID,
	}

	switch errType {
	case ErrorTypeAuth:
		err.SuggestText = "Check the piece credentials and the scopes granted to them"
	case ErrorTypeNotFound:
		err.SuggestText = "Verify the id refers to an existing record"
	case ErrorTypeValidation, ErrorTypeConflict:
		err.SuggestText = "Check the inputs against the operation's properties"
	case ErrorTypeRateLimit:
		err.SuggestText = "Wait for the rate limit window to pass, then run again"
	case ErrorTypeServer:
		err.SuggestText = "The vendor may be having an outage; try again later"
	}

	return err
}

// FromTransportError converts a transport failure into an operation Error.
// HTTP status failures go through the status table; connectivity failures
// get their own messages. detail extracts vendor error text from a response
// body and may be nil.
func FromTransportError(err error, detail func(body []byte) string) error {
	var te *transport.TransportError
	if !errors.As(err, &te) {
		return &Error{Type: ErrorTypeConnection, Message: MsgConnection, Cause: err}
	}

	if te.StatusCode > 0 {
		d := ""
		if detail != nil && len(te.Body) > 0 {
			d = detail(te.Body)
		}
		opErr := ErrorFromHTTPStatus(te.StatusCode, d, te.RequestID)
		opErr.Cause = te
		return opErr
	}

	opErr := &Error{Cause: te, RequestID: te.RequestID}
	switch te.Type {
	case transport.ErrorTypeTimeout:
		opErr.Type, opErr.Message = ErrorTypeTimeout, MsgTimeout
		opErr.SuggestText = "Increase the piece timeout or try again later"
	case transport.ErrorTypeDNS:
		opErr.Type, opErr.Message = ErrorTypeConnection, MsgDNS
		opErr.SuggestText = "Check the base URL and network DNS configuration"
	case transport.ErrorTypeTLS:
		opErr.Type, opErr.Message = ErrorTypeConnection, MsgTLS
		opErr.SuggestText = "Check the server certificate and any TLS interception proxies"
	case transport.ErrorTypeCancelled:
		opErr.Type, opErr.Message = ErrorTypeCancelled, MsgCancelled
	case transport.ErrorTypeInvalidReq:
		opErr.Type, opErr.Message = ErrorTypeInvalidRequest, te.Message
	default:
		opErr.Type, opErr.Message = ErrorTypeConnection, MsgConnection
		opErr.SuggestText = "Check network connectivity to the vendor API"
	}
	return opErr
}

// UnknownOperation returns the error for an operation a piece does not have.
func UnknownOperation(piece, op string) *Error {
	return &Error{
		Type:        ErrorTypeUnknownOperation,
		Message:     fmt.Sprintf("unknown operation %q for piece %q", op, piece),
		SuggestText: fmt.Sprintf("Run 'pieces describe %s' to list its operations", piece),
	}
}
