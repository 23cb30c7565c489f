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

package errors_test

import (
	"errors"
	"fmt"
	"testing"

	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *pieceserrors.ValidationError
		wantMsg string
	}{
		{
			name:    "with field",
			err:     &pieceserrors.ValidationError{Field: "phone_number", Message: "does not match pattern"},
			wantMsg: "validation failed on phone_number: does not match pattern",
		},
		{
			name:    "without field",
			err:     &pieceserrors.ValidationError{Message: "inputs must be an object"},
			wantMsg: "validation failed: inputs must be an object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("ValidationError.Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestConfigError_Unwrap(t *testing.T) {
	cause := errors.New("file not found")
	err := &pieceserrors.ConfigError{Key: "pieces.aircall", Reason: "cannot load", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("ConfigError should unwrap to its cause")
	}
	if got, want := err.Error(), "config error at pieces.aircall: cannot load"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIsValidation(t *testing.T) {
	wrapped := fmt.Errorf("run failed: %w", &pieceserrors.ValidationError{Field: "email"})
	if !pieceserrors.IsValidation(wrapped) {
		t.Error("IsValidation should see through wrapping")
	}
	if pieceserrors.IsValidation(errors.New("plain")) {
		t.Error("IsValidation should be false for plain errors")
	}
}

type classified struct{ kind string }

func (c *classified) Error() string     { return c.kind }
func (c *classified) ErrorType() string { return c.kind }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"classifier", fmt.Errorf("poll: %w", &classified{kind: "rate_limited"}), "rate_limited"},
		{"validation", &pieceserrors.ValidationError{Message: "bad"}, "validation"},
		{"plain", errors.New("boom"), "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pieceserrors.Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}
