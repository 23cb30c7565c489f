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

package polling

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrNotEnabled is returned when polling a trigger that has no state.
var ErrNotEnabled = errors.New("polling trigger is not enabled")

// SampleSize is the number of items Test returns.
const SampleSize = 5

// Poller runs the lifecycle of one polling trigger instance:
// disabled → enabled (watermark = now) → polling → disabled (state deleted).
type Poller struct {
	TriggerID string
	Piece     string
	Trigger   string
	Source    Source
	States    *StateManager

	// Now returns the current time (default: time.Now).
	Now func() time.Time
}

func (p *Poller) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// OnEnable stores a fresh state whose watermark is the current time, so
// records that existed before enabling are never emitted.
func (p *Poller) OnEnable(ctx context.Context) (*State, error) {
	state := &State{
		TriggerID:        p.TriggerID,
		Piece:            p.Piece,
		Trigger:          p.Trigger,
		LastFetchEpochMS: p.now().UnixMilli(),
	}
	if err := p.States.SaveState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// OnDisable discards the watermark.
func (p *Poller) OnDisable(ctx context.Context) error {
	return p.States.DeleteState(ctx, p.TriggerID)
}

// Poll fetches items and returns those newer than the watermark, oldest
// first. On a fetch error nothing is emitted, the watermark is unchanged,
// and the failure is recorded in the state and returned.
func (p *Poller) Poll(ctx context.Context) ([]Item, error) {
	state, err := p.States.GetState(ctx, p.TriggerID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("%s: %w", p.TriggerID, ErrNotEnabled)
	}

	items, fetchErr := p.Source.Items(ctx, state.LastFetchEpochMS)
	if fetchErr != nil {
		state.ErrorCount++
		state.LastError = fetchErr.Error()
		if err := p.States.SaveState(ctx, state); err != nil {
			return nil, errors.Join(fetchErr, err)
		}
		return nil, fetchErr
	}

	fresh, watermark := Dedupe(items, state.LastFetchEpochMS)
	state.LastFetchEpochMS = watermark
	state.ErrorCount = 0
	state.LastError = ""
	if err := p.States.SaveState(ctx, state); err != nil {
		return nil, err
	}

	return fresh, nil
}

// Test returns the newest items regardless of the watermark, for use as
// sample data. State is not touched.
func (p *Poller) Test(ctx context.Context) ([]Item, error) {
	items, err := p.Source.Items(ctx, 0)
	if err != nil {
		return nil, err
	}

	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EpochMS > sorted[j].EpochMS
	})
	if len(sorted) > SampleSize {
		sorted = sorted[:SampleSize]
	}
	return sorted, nil
}
