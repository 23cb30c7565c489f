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

// Package polling implements time-based polling triggers.
//
// A Source lists recent vendor records, each tagged with an epoch-millisecond
// timestamp. The Poller keeps a per-trigger watermark and emits only records
// strictly newer than it. A failed fetch never advances the watermark.
package polling

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/tombee/pieces/internal/trigger"
)

// Item is one polled vendor record.
type Item struct {
	// ID is the vendor record id
	ID string `json:"id"`

	// EpochMS is the record's creation or update time in milliseconds
	EpochMS int64 `json:"epoch_ms"`

	// Data is the record as returned by the vendor
	Data interface{} `json:"data"`
}

// Source lists candidate items. lastFetchEpochMS is the current watermark;
// a source may use it to narrow the request, but Dedupe is authoritative.
type Source interface {
	Items(ctx context.Context, lastFetchEpochMS int64) ([]Item, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, lastFetchEpochMS int64) ([]Item, error)

// Items implements Source.
func (f SourceFunc) Items(ctx context.Context, lastFetchEpochMS int64) ([]Item, error) {
	return f(ctx, lastFetchEpochMS)
}

// State tracks a polling trigger across executions.
type State struct {
	// TriggerID is the unique identifier for this trigger instance
	TriggerID string `json:"trigger_id"`

	// Piece is the integration being polled
	Piece string `json:"piece"`

	// Trigger is the trigger name within the piece
	Trigger string `json:"trigger"`

	// LastFetchEpochMS is the watermark: the newest item timestamp emitted
	LastFetchEpochMS int64 `json:"last_fetch_epoch_ms"`

	// LastError is the last error message encountered
	LastError string `json:"last_error,omitempty"`

	// ErrorCount tracks consecutive errors
	ErrorCount int `json:"error_count"`

	// Paused is set once ErrorCount reaches the service limit
	Paused bool `json:"paused"`

	// CreatedAt is when this trigger was enabled
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when this state was last updated
	UpdatedAt time.Time `json:"updated_at"`
}

// Dedupe keeps the items strictly newer than watermark, ordered oldest
// first, and returns the new watermark. Items sharing the watermark's exact
// timestamp are treated as already seen.
func Dedupe(items []Item, watermark int64) ([]Item, int64) {
	fresh := make([]Item, 0, len(items))
	next := watermark
	for _, item := range items {
		if item.EpochMS <= watermark {
			continue
		}
		fresh = append(fresh, item)
		if item.EpochMS > next {
			next = item.EpochMS
		}
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].EpochMS < fresh[j].EpochMS
	})

	return fresh, next
}

// EpochMS parses a vendor timestamp into epoch milliseconds. It accepts
// RFC 3339 strings, unix seconds, and unix milliseconds; zero means the
// value could not be read.
func EpochMS(v interface{}) int64 {
	switch x := v.(type) {
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05", "2006-01-02 15:04:05 MST"} {
			if t, err := time.Parse(layout, x); err == nil {
				return t.UnixMilli()
			}
		}
	case float64:
		return scaleEpoch(int64(x))
	case int64:
		return scaleEpoch(x)
	case int:
		return scaleEpoch(int64(x))
	}
	return 0
}

// scaleEpoch treats values below 1e11 as seconds. 1e11 seconds is the year
// 5138, while 1e11 milliseconds is 1973.
func scaleEpoch(n int64) int64 {
	if n > 0 && n < 1e11 {
		return n * 1000
	}
	return n
}

// FromRecords turns decoded vendor records into items, reading the id and
// timestamp from dotted paths. Records without a readable timestamp are
// dropped.
func FromRecords(records []interface{}, idField, timeField string) []Item {
	items := make([]Item, 0, len(records))
	for _, r := range records {
		ms := EpochMS(field(r, timeField))
		if ms == 0 {
			continue
		}
		items = append(items, Item{
			ID:      trigger.FormatID(field(r, idField)),
			EpochMS: ms,
			Data:    r,
		})
	}
	return items
}

func field(v interface{}, path string) interface{} {
	for _, part := range strings.Split(path, ".") {
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil
		}
		v = m[part]
	}
	return v
}
