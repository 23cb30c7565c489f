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

// Package errors defines the error types shared by pieces, the CLI, and the
// trigger runtime.
package errors

import (
	"fmt"
)

// ValidationError reports an input that failed its property schema.
// It is returned before any network call is made.
type ValidationError struct {
	// Field is the property name, or a JSON pointer for nested values
	Field string

	// Message is the human-readable description of the failure
	Message string

	// Suggestion provides guidance for fixing the input
	Suggestion string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NotFoundError represents a lookup miss for a local resource such as a piece,
// an operation, or a trigger instance.
type NotFoundError struct {
	// Resource is the kind of thing that was looked up (e.g., "piece", "trigger")
	Resource string

	// ID is the identifier that was not found
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ConfigError represents a problem in the configuration file or environment.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "pieces.aircall.auth")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error, if any
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
