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

// Package webhook implements push triggers: registering a callback URL with
// the vendor on enable, removing it on disable, and turning inbound
// deliveries into trigger events.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Registrar creates and deletes vendor webhook subscriptions.
type Registrar interface {
	// CreateWebhook subscribes callbackURL to events and returns the
	// vendor subscription id.
	CreateWebhook(ctx context.Context, callbackURL string, events []string) (string, error)

	// DeleteWebhook removes the subscription.
	DeleteWebhook(ctx context.Context, id string) error
}

// ForwardMode selects what an accepted delivery emits.
type ForwardMode string

const (
	// ForwardData emits the envelope's "data" member
	ForwardData ForwardMode = "data"

	// ForwardBody emits the whole envelope
	ForwardBody ForwardMode = "body"
)

// Definition describes a webhook trigger of a piece.
type Definition struct {
	// Registrar manages the subscription; nil when the vendor is configured
	// by hand and only the receiving side is needed
	Registrar Registrar

	// Events are subscribed on enable
	Events []string

	// EventField is the dotted path of the event name in the envelope
	EventField string

	// ExpectedEvents are the accepted event names; empty accepts all
	ExpectedEvents []string

	// Forward selects the emitted payload
	Forward ForwardMode

	// IDField is the dotted path of the record id in the emitted payload
	IDField string

	// Match narrows accepted payloads by trigger inputs; nil accepts all
	Match func(payload interface{}) bool
}

// Extract parses a delivery and returns zero or one payload. Deliveries
// whose event field does not match an expected event yield nothing.
func Extract(body []byte, eventField string, expectedEvents []string, forward ForwardMode) ([]interface{}, error) {
	var envelope interface{}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}

	if eventField != "" && len(expectedEvents) > 0 {
		event := lookup(envelope, eventField)
		if !contains(expectedEvents, fmt.Sprint(event)) {
			return nil, nil
		}
	}

	if forward == ForwardData {
		data := lookup(envelope, "data")
		if data == nil {
			return nil, nil
		}
		return []interface{}{data}, nil
	}

	return []interface{}{envelope}, nil
}

// lookup reads a dotted path from decoded JSON.
func lookup(v interface{}, path string) interface{} {
	for _, part := range strings.Split(path, ".") {
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil
		}
		v = m[part]
	}
	return v
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
