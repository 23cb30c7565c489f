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

// Package trigger holds the types shared by polling and webhook triggers:
// the emitted Event and the optional filter applied before emission.
package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Event is one item produced by a trigger instance.
type Event struct {
	// TriggerID identifies the configured trigger instance
	TriggerID string `json:"trigger_id"`

	// Piece is the integration that produced the event (e.g., "aircall")
	Piece string `json:"piece"`

	// Trigger is the trigger name within the piece (e.g., "new_call")
	Trigger string `json:"trigger"`

	// ID is the vendor record id, when known
	ID string `json:"id,omitempty"`

	// EpochMS is the record timestamp for polled items
	EpochMS int64 `json:"epoch_ms,omitempty"`

	// ReceivedAt is when the runtime produced the event
	ReceivedAt time.Time `json:"received_at"`

	// CorrelationID ties the event to the poll or delivery that produced it
	CorrelationID string `json:"correlation_id,omitempty"`

	// Data is the vendor payload
	Data interface{} `json:"data"`
}

// Emitter delivers events to whatever consumes them.
type Emitter func(ctx context.Context, event Event) error

// FormatID renders a vendor record id. JSON numbers decode as float64, so
// whole numbers are printed as integers rather than in exponent form.
func FormatID(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
