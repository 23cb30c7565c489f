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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/pieces/internal/trigger"
)

func newMemoryStates(t *testing.T) *StateManager {
	t.Helper()
	sm, err := NewStateManager(StateConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { sm.Close() })
	return sm
}

func TestDedupe(t *testing.T) {
	items := []Item{
		{ID: "c", EpochMS: 300},
		{ID: "a", EpochMS: 100},
		{ID: "b", EpochMS: 200},
		{ID: "old", EpochMS: 50},
	}

	fresh, watermark := Dedupe(items, 100)

	require.Len(t, fresh, 2)
	assert.Equal(t, "b", fresh[0].ID)
	assert.Equal(t, "c", fresh[1].ID)
	assert.Equal(t, int64(300), watermark)
}

func TestDedupe_EqualTimestampSuppressed(t *testing.T) {
	fresh, watermark := Dedupe([]Item{{ID: "same", EpochMS: 100}}, 100)
	assert.Empty(t, fresh)
	assert.Equal(t, int64(100), watermark)
}

func TestDedupe_Empty(t *testing.T) {
	fresh, watermark := Dedupe(nil, 42)
	assert.Empty(t, fresh)
	assert.Equal(t, int64(42), watermark)
}

func TestEpochMS(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want int64
	}{
		{"rfc3339", "2024-01-02T03:04:05Z", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).UnixMilli()},
		{"unix seconds", float64(1700000000), 1700000000000},
		{"unix millis", float64(1700000000123), 1700000000123},
		{"garbage", "yesterday", 0},
		{"nil", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EpochMS(tt.in))
		})
	}
}

func TestStateManager_RoundTrip(t *testing.T) {
	sm := newMemoryStates(t)
	ctx := context.Background()

	state, err := sm.GetState(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, sm.SaveState(ctx, &State{
		TriggerID:        "t1",
		Piece:            "aircall",
		Trigger:          "new_call",
		LastFetchEpochMS: 1234,
		LastError:        "boom",
		ErrorCount:       2,
		Paused:           true,
	}))

	got, err := sm.GetState(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "aircall", got.Piece)
	assert.Equal(t, "new_call", got.Trigger)
	assert.Equal(t, int64(1234), got.LastFetchEpochMS)
	assert.Equal(t, "boom", got.LastError)
	assert.Equal(t, 2, got.ErrorCount)
	assert.True(t, got.Paused)
	assert.False(t, got.CreatedAt.IsZero())

	states, err := sm.ListStates(ctx)
	require.NoError(t, err)
	assert.Len(t, states, 1)

	require.NoError(t, sm.DeleteState(ctx, "t1"))
	got, err = sm.GetState(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

// fakeSource serves a fixed item list and records the watermark it was given.
type fakeSource struct {
	mu        sync.Mutex
	items     []Item
	err       error
	calls     int
	lastSince int64
}

func (f *fakeSource) Items(ctx context.Context, since int64) ([]Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastSince = since
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func newPoller(t *testing.T, src Source, now time.Time) *Poller {
	return &Poller{
		TriggerID: "t1",
		Piece:     "hunter",
		Trigger:   "new_lead",
		Source:    src,
		States:    newMemoryStates(t),
		Now:       func() time.Time { return now },
	}
}

func TestPoller_Lifecycle(t *testing.T) {
	ctx := context.Background()
	enabledAt := time.UnixMilli(1000)
	src := &fakeSource{items: []Item{
		{ID: "before", EpochMS: 900},
		{ID: "after1", EpochMS: 1100},
		{ID: "after2", EpochMS: 1200},
	}}
	p := newPoller(t, src, enabledAt)

	_, err := p.Poll(ctx)
	require.ErrorIs(t, err, ErrNotEnabled)

	state, err := p.OnEnable(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), state.LastFetchEpochMS)

	items, err := p.Poll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "after1", items[0].ID)
	assert.Equal(t, int64(1000), src.lastSince)

	// Same remote data: nothing new.
	items, err = p.Poll(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int64(1200), src.lastSince)

	require.NoError(t, p.OnDisable(ctx))
	_, err = p.Poll(ctx)
	assert.ErrorIs(t, err, ErrNotEnabled)
}

func TestPoller_FailureKeepsWatermark(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{}
	p := newPoller(t, src, time.UnixMilli(1000))
	_, err := p.OnEnable(ctx)
	require.NoError(t, err)

	src.err = errors.New("upstream down")
	items, err := p.Poll(ctx)
	require.Error(t, err)
	assert.Nil(t, items)

	state, err := p.States.GetState(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), state.LastFetchEpochMS)
	assert.Equal(t, 1, state.ErrorCount)
	assert.Equal(t, "upstream down", state.LastError)

	src.err = nil
	src.items = []Item{{ID: "n", EpochMS: 1500}}
	items, err = p.Poll(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	state, err = p.States.GetState(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 0, state.ErrorCount)
	assert.Empty(t, state.LastError)
}

func TestPoller_Test(t *testing.T) {
	var items []Item
	for i := 1; i <= 8; i++ {
		items = append(items, Item{ID: string(rune('a' + i)), EpochMS: int64(i)})
	}
	p := newPoller(t, &fakeSource{items: items}, time.Now())

	sample, err := p.Test(context.Background())
	require.NoError(t, err)
	require.Len(t, sample, SampleSize)
	assert.Equal(t, int64(8), sample[0].EpochMS)

	state, err := p.States.GetState(context.Background(), "t1")
	require.NoError(t, err)
	assert.Nil(t, state, "Test must not create state")
}

func TestService_PollNowEmits(t *testing.T) {
	ctx := context.Background()
	states := newMemoryStates(t)

	var emitted []trigger.Event
	svc, err := NewService(ServiceConfig{
		States: states,
		Emitter: func(ctx context.Context, e trigger.Event) error {
			emitted = append(emitted, e)
			return nil
		},
	})
	require.NoError(t, err)

	filter, err := trigger.CompileFilter(`data.kind == "keep"`)
	require.NoError(t, err)

	now := time.Now().UnixMilli()
	src := &fakeSource{items: []Item{
		{ID: "1", EpochMS: now + 60000, Data: map[string]interface{}{"kind": "keep"}},
		{ID: "2", EpochMS: now + 120000, Data: map[string]interface{}{"kind": "drop"}},
	}}

	require.NoError(t, svc.RegisterTrigger(ctx, &Registration{
		TriggerID: "t1",
		Piece:     "aircall",
		Trigger:   "new_call",
		Source:    src,
		Filter:    filter,
	}))

	items, err := svc.PollNow(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Len(t, emitted, 1)
	assert.Equal(t, "1", emitted[0].ID)
	assert.Equal(t, "aircall", emitted[0].Piece)
	assert.NotEmpty(t, emitted[0].CorrelationID)

	_, err = svc.PollNow(ctx, "unknown")
	assert.Error(t, err)
}

func TestService_PausesAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	states := newMemoryStates(t)

	svc, err := NewService(ServiceConfig{
		States:               states,
		Emitter:              func(ctx context.Context, e trigger.Event) error { return nil },
		MaxConsecutiveErrors: 3,
	})
	require.NoError(t, err)

	src := &fakeSource{err: errors.New("503")}
	require.NoError(t, svc.RegisterTrigger(ctx, &Registration{TriggerID: "t1", Piece: "p", Trigger: "t", Source: src}))

	for i := 0; i < 3; i++ {
		_, err := svc.PollNow(ctx, "t1")
		require.Error(t, err)
	}

	state, err := states.GetState(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, state.Paused)
	assert.Equal(t, 3, state.ErrorCount)

	require.NoError(t, svc.Resume(ctx, "t1"))
	state, err = states.GetState(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, state.Paused)
	assert.Equal(t, 0, state.ErrorCount)
}

func TestService_InvalidSchedule(t *testing.T) {
	svc, err := NewService(ServiceConfig{
		States:  newMemoryStates(t),
		Emitter: func(ctx context.Context, e trigger.Event) error { return nil },
	})
	require.NoError(t, err)

	err = svc.RegisterTrigger(context.Background(), &Registration{
		TriggerID: "t1",
		Source:    &fakeSource{},
		Schedule:  "every tuesday",
	})
	assert.Error(t, err)
}

func TestNewService_RequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceConfig{})
	assert.Error(t, err)
}
