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
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/tombee/pieces/internal/operation/transport"
)

func TestErrorFromHTTPStatus(t *testing.T) {
	tests := []struct {
		status   int
		wantType ErrorType
		wantMsg  string
	}{
		{400, ErrorTypeValidation, MsgBadRequest},
		{401, ErrorTypeAuth, MsgUnauthorized},
		{403, ErrorTypeAuth, MsgForbidden},
		{404, ErrorTypeNotFound, MsgNotFound},
		{409, ErrorTypeConflict, MsgConflict},
		{422, ErrorTypeConflict, MsgUnprocessable},
		{429, ErrorTypeRateLimit, MsgRateLimited},
		{500, ErrorTypeServer, MsgUnavailable},
		{503, ErrorTypeServer, MsgUnavailable},
		{418, ErrorTypeClient, MsgClientError},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("HTTP %d", tt.status), func(t *testing.T) {
			err := ErrorFromHTTPStatus(tt.status, "vendor said no", "")
			if err.Type != tt.wantType {
				t.Errorf("Type = %s, want %s", err.Type, tt.wantType)
			}
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.StatusCode != tt.status {
				t.Errorf("StatusCode = %d", err.StatusCode)
			}
			if strings.Contains(err.Error(), "vendor said no") {
				t.Errorf("Error() leaked vendor detail: %s", err.Error())
			}
		})
	}
}

func TestErrorMessage_SameAcrossPieces(t *testing.T) {
	a := ErrorFromHTTPStatus(404, `{"error":"Call not found"}`, "")
	b := ErrorFromHTTPStatus(404, `{"errors":[{"id":"wrong_params"}]}`, "")
	if a.Error() != b.Error() {
		t.Errorf("messages differ: %q vs %q", a.Error(), b.Error())
	}
}

func TestFromTransportError(t *testing.T) {
	detail := func(body []byte) string { return "detail:" + string(body) }

	tests := []struct {
		name       string
		err        error
		wantType   ErrorType
		wantMsg    string
		wantDetail string
	}{
		{
			name:       "http status",
			err:        &transport.TransportError{Type: transport.ErrorTypeRateLimit, StatusCode: 429, Body: []byte("slow")},
			wantType:   ErrorTypeRateLimit,
			wantMsg:    MsgRateLimited,
			wantDetail: "detail:slow",
		},
		{
			name:     "timeout",
			err:      &transport.TransportError{Type: transport.ErrorTypeTimeout},
			wantType: ErrorTypeTimeout,
			wantMsg:  MsgTimeout,
		},
		{
			name:     "dns",
			err:      &transport.TransportError{Type: transport.ErrorTypeDNS, Cause: &net.DNSError{Name: "x"}},
			wantType: ErrorTypeConnection,
			wantMsg:  MsgDNS,
		},
		{
			name:     "tls",
			err:      &transport.TransportError{Type: transport.ErrorTypeTLS},
			wantType: ErrorTypeConnection,
			wantMsg:  MsgTLS,
		},
		{
			name:     "connection",
			err:      &transport.TransportError{Type: transport.ErrorTypeConnection},
			wantType: ErrorTypeConnection,
			wantMsg:  MsgConnection,
		},
		{
			name:     "cancelled",
			err:      &transport.TransportError{Type: transport.ErrorTypeCancelled},
			wantType: ErrorTypeCancelled,
			wantMsg:  MsgCancelled,
		},
		{
			name:     "foreign error",
			err:      errors.New("boom"),
			wantType: ErrorTypeConnection,
			wantMsg:  MsgConnection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromTransportError(tt.err, detail)
			var opErr *Error
			if !errors.As(err, &opErr) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if opErr.Type != tt.wantType {
				t.Errorf("Type = %s, want %s", opErr.Type, tt.wantType)
			}
			if opErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", opErr.Message, tt.wantMsg)
			}
			if opErr.Detail != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", opErr.Detail, tt.wantDetail)
			}
		})
	}
}

func TestError_IsRetryable(t *testing.T) {
	if !(&Error{Type: ErrorTypeRateLimit}).IsRetryable() {
		t.Error("rate limited should be retryable")
	}
	if (&Error{Type: ErrorTypeNotFound}).IsRetryable() {
		t.Error("not found should not be retryable")
	}
}

type stubProvider struct {
	name  string
	calls []string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Execute(ctx context.Context, op string, inputs map[string]interface{}) (*Result, error) {
	s.calls = append(s.calls, op)
	return &Result{Response: op}, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	aircall := &stubProvider{name: "aircall"}
	r.Register(&stubProvider{name: "hunter"})
	r.Register(aircall)

	if got := r.List(); len(got) != 2 || got[0] != "aircall" || got[1] != "hunter" {
		t.Errorf("List() = %v", got)
	}

	result, err := r.Execute(context.Background(), "aircall.tag_call", nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Response != "tag_call" || len(aircall.calls) != 1 {
		t.Errorf("unexpected dispatch: %v %v", result.Response, aircall.calls)
	}

	if _, err := r.Execute(context.Background(), "missing.op", nil); err == nil {
		t.Error("expected error for unknown piece")
	}
	if _, err := r.Execute(context.Background(), "no-dot", nil); err == nil {
		t.Error("expected error for bad reference")
	}
}
