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

// Package api provides the shared request helper and metadata types that
// every piece builds on.
package api

import (
	"context"
	"log/slog"

	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/operation/transport"
	"github.com/tombee/pieces/internal/property"
	"github.com/tombee/pieces/internal/trigger/polling"
	"github.com/tombee/pieces/internal/trigger/webhook"
)

// ProviderConfig holds configuration for creating a piece.
type ProviderConfig struct {
	// Transport is the configured transport (HTTP with auth applied)
	Transport transport.Transport

	// BaseURL is the vendor API base URL; each piece has a default
	BaseURL string

	// Authenticated reports whether a credential was configured
	Authenticated bool

	// AdditionalAuth holds non-secret per-connection settings
	// (e.g., Ariba realm, Famulor assistant id)
	AdditionalAuth map[string]string

	// Logger receives per-operation logs (default: slog.Default())
	Logger *slog.Logger
}

// AuthDefaults describes how a piece expects its credential to be sent.
// Connection config overrides any of these fields.
type AuthDefaults struct {
	// Type is the transport auth type (basic, bearer, api_key, api_key_query, oauth2)
	Type string

	// HeaderName carries the key for api_key auth
	HeaderName string

	// QueryParam carries the key for api_key_query auth
	QueryParam string

	// Flow is the OAuth2 flow (client_credentials or refresh_token)
	Flow string

	// TokenURL is the OAuth2 token endpoint
	TokenURL string

	// Scopes are requested for OAuth2 flows
	Scopes []string
}

// OperationInfo describes an available operation.
type OperationInfo struct {
	// Name is the operation identifier (e.g., "tag_call")
	Name string `json:"name"`

	// Description explains what the operation does
	Description string `json:"description"`

	// Category groups related operations (e.g., "calls", "contacts")
	Category string `json:"category"`

	// Tags provide additional metadata (e.g., "read", "write", "paginated")
	Tags []string `json:"tags,omitempty"`
}

// OperationSchema describes the inputs and outputs of an operation.
type OperationSchema struct {
	// Description explains what the operation does
	Description string `json:"description"`

	// Properties declares the accepted inputs
	Properties property.Schema `json:"properties"`

	// ResponseFields describes notable response fields
	ResponseFields []ResponseFieldInfo `json:"response_fields,omitempty"`
}

// ResponseFieldInfo describes a response field.
type ResponseFieldInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// TriggerKind distinguishes polled from pushed triggers.
type TriggerKind string

const (
	TriggerPolling TriggerKind = "polling"
	TriggerWebhook TriggerKind = "webhook"
)

// TriggerInfo describes a trigger a piece offers.
type TriggerInfo struct {
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name"`
	Description string          `json:"description"`
	Kind        TriggerKind     `json:"kind"`
	Properties  property.Schema `json:"properties,omitempty"`
}

// TypedProvider exposes operation metadata.
type TypedProvider interface {
	// Operations returns all operations this piece supports.
	Operations() []OperationInfo

	// OperationSchema returns the schema for a specific operation, or nil.
	OperationSchema(operation string) *OperationSchema
}

// OptionsProvider resolves dynamic dropdowns.
type OptionsProvider interface {
	// Options loads the choices of a dropdown property of an operation or trigger.
	Options(ctx context.Context, operation, prop string, inputs map[string]interface{}) property.DropdownState
}

// TriggerProvider exposes the triggers of a piece.
type TriggerProvider interface {
	// Triggers returns all triggers this piece supports.
	Triggers() []TriggerInfo

	// PollSource returns the item source of a polling trigger.
	PollSource(trigger string, inputs map[string]interface{}) (polling.Source, error)

	// WebhookTrigger returns the definition of a webhook trigger.
	WebhookTrigger(trigger string, inputs map[string]interface{}) (*webhook.Definition, error)
}

// Pinger validates a credential with a cheap read call.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Piece is the full surface every integration implements.
type Piece interface {
	operation.Provider
	TypedProvider
	OptionsProvider
	TriggerProvider
	Pinger
}
