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

package server

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/pieces/internal/config"
	"github.com/tombee/pieces/internal/integration"
	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/store"
	"github.com/tombee/pieces/internal/testing/mock"
	"github.com/tombee/pieces/internal/trigger"
	"github.com/tombee/pieces/internal/trigger/polling"
	"github.com/tombee/pieces/internal/trigger/webhook"
	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

type collector struct {
	mu     sync.Mutex
	events []trigger.Event
}

func (c *collector) emit(_ context.Context, e trigger.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *collector) all() []trigger.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]trigger.Event(nil), c.events...)
}

type fixture struct {
	srv    *mock.Server
	rt     *Runtime
	events *collector
	store  store.Store
	states *polling.StateManager
}

func newFixture(t *testing.T, triggers ...config.TriggerConfig) *fixture {
	t.Helper()

	srv := mock.NewServer(t)
	cfg := config.Default()
	cfg.Server.PublicURL = "https://hooks.example.com/"
	cfg.Triggers = triggers

	states, err := polling.NewStateManager(polling.StateConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { states.Close() })

	f := &fixture{srv: srv, events: &collector{}, store: store.NewMemory(), states: states}
	f.rt, err = NewRuntime(Options{
		Config: cfg,
		Pieces: func(name string) (api.Piece, error) {
			return integration.New(name, srv.ProviderConfig(nil))
		},
		Store:   f.store,
		States:  states,
		Emitter: f.events.emit,
	})
	require.NoError(t, err)
	return f
}

func TestRuntime_PollingLifecycle(t *testing.T) {
	f := newFixture(t, config.TriggerConfig{
		ID:      "calls",
		Piece:   "aircall",
		Trigger: "new_call",
		Filter:  "data.duration > 10",
	})
	future := float64(time.Now().Add(time.Hour).Unix())
	f.srv.Handle(http.MethodGet, "/calls", http.StatusOK, map[string]interface{}{
		"calls": []interface{}{
			map[string]interface{}{"id": 2, "started_at": future + 60, "duration": 5},
			map[string]interface{}{"id": 1, "started_at": future, "duration": 30},
		},
	})
	ctx := context.Background()

	status, err := f.rt.Enable(ctx, "calls")
	require.NoError(t, err)
	assert.Equal(t, api.TriggerPolling, status.Kind)
	assert.NotZero(t, status.WatermarkMS)

	_, err = f.rt.Poll(ctx, "calls")
	require.NoError(t, err)
	events := f.events.all()
	require.Len(t, events, 1)
	assert.Equal(t, "1", events[0].ID)
	assert.Equal(t, "aircall", events[0].Piece)

	// The watermark advanced past both records.
	_, err = f.rt.Poll(ctx, "calls")
	require.NoError(t, err)
	assert.Len(t, f.events.all(), 1)

	require.NoError(t, f.rt.Disable(ctx, "calls"))
	state, err := f.states.GetState(ctx, "calls")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestRuntime_PollFailureKeepsWatermark(t *testing.T) {
	f := newFixture(t, config.TriggerConfig{ID: "calls", Piece: "aircall", Trigger: "new_call"})
	f.srv.Handle(http.MethodGet, "/calls", http.StatusServiceUnavailable, map[string]interface{}{"message": "down"})
	ctx := context.Background()

	status, err := f.rt.Enable(ctx, "calls")
	require.NoError(t, err)

	_, err = f.rt.Poll(ctx, "calls")
	require.Error(t, err)
	assert.Empty(t, f.events.all())

	state, err := f.states.GetState(ctx, "calls")
	require.NoError(t, err)
	assert.Equal(t, status.WatermarkMS, state.LastFetchEpochMS)
	assert.Equal(t, 1, state.ErrorCount)
}

func TestRuntime_TestSample(t *testing.T) {
	f := newFixture(t,
		config.TriggerConfig{ID: "calls", Piece: "aircall", Trigger: "new_call"},
		config.TriggerConfig{ID: "ended", Piece: "aircall", Trigger: "call_ended"},
	)
	f.srv.Handle(http.MethodGet, "/calls", http.StatusOK, map[string]interface{}{
		"calls": []interface{}{map[string]interface{}{"id": 1, "started_at": 1700000000}},
	})
	ctx := context.Background()

	items, err := f.rt.Test(ctx, "calls")
	require.NoError(t, err)
	require.Len(t, items, 1)

	state, err := f.states.GetState(ctx, "calls")
	require.NoError(t, err)
	assert.Nil(t, state, "test must not enable the trigger")

	_, err = f.rt.Test(ctx, "ended")
	assert.True(t, pieceserrors.IsValidation(err))
}

func TestRuntime_WebhookLifecycle(t *testing.T) {
	f := newFixture(t, config.TriggerConfig{ID: "ended", Piece: "aircall", Trigger: "call_ended", Filter: "data.duration > 10"})
	f.srv.
		Handle(http.MethodPost, "/webhooks", http.StatusCreated, map[string]interface{}{
			"webhook": map[string]interface{}{"webhook_id": "wh-1"},
		}).
		Handle(http.MethodDelete, "/webhooks/wh-1", http.StatusOK, map[string]interface{}{})
	ctx := context.Background()

	status, err := f.rt.Enable(ctx, "ended")
	require.NoError(t, err)
	assert.Equal(t, "wh-1", status.WebhookID)
	assert.Equal(t, "https://hooks.example.com/webhooks/ended", status.CallbackURL)
	assert.Equal(t, "https://hooks.example.com/webhooks/ended", f.srv.Last().JSON()["url"])

	st, err := f.rt.Status(ctx, "ended")
	require.NoError(t, err)
	assert.True(t, st.Enabled)
	assert.Equal(t, "wh-1", st.WebhookID)

	// Enabling again keeps the subscription.
	_, err = f.rt.Enable(ctx, "ended")
	require.NoError(t, err)
	assert.Equal(t, 1, f.srv.Count())

	assert.Equal(t, 1, f.rt.Activate(ctx))
	srv := NewServer(f.rt, "", nil, time.Second, nil)

	deliver := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/ended", strings.NewReader(body)))
		return rec
	}
	assert.Equal(t, http.StatusOK, deliver(`{"event":"call.ended","data":{"id":9,"duration":12}}`).Code)
	assert.Equal(t, http.StatusOK, deliver(`{"event":"call.ended","data":{"id":10,"duration":3}}`).Code)
	assert.Equal(t, http.StatusOK, deliver(`{"event":"call.created","data":{"id":11,"duration":60}}`).Code)

	events := f.events.all()
	require.Len(t, events, 1)
	assert.Equal(t, "9", events[0].ID)

	require.NoError(t, f.rt.Disable(ctx, "ended"))
	assert.Equal(t, http.MethodDelete, f.srv.Last().Method)
	_, ok, err := store.Namespace(f.store, "trigger:ended:").Get(ctx, webhook.KeyWebhookID)
	require.NoError(t, err)
	assert.False(t, ok)

	st, err = f.rt.Status(ctx, "ended")
	require.NoError(t, err)
	assert.False(t, st.Enabled)

	assert.Equal(t, http.StatusNotFound, deliver(`{"event":"call.ended","data":{"id":12,"duration":99}}`).Code)
}

func TestRuntime_ResolveErrors(t *testing.T) {
	f := newFixture(t,
		config.TriggerConfig{ID: "bad-trigger", Piece: "aircall", Trigger: "nope"},
		config.TriggerConfig{ID: "bad-filter", Piece: "aircall", Trigger: "new_call", Filter: "data.("},
		config.TriggerConfig{ID: "no-account", Piece: "truelayer", Trigger: "new_transaction"},
	)
	ctx := context.Background()

	_, err := f.rt.Enable(ctx, "missing")
	assert.Error(t, err)

	_, err = f.rt.Enable(ctx, "bad-trigger")
	assert.Error(t, err)

	_, err = f.rt.Enable(ctx, "bad-filter")
	var cfgErr *pieceserrors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)

	_, err = f.rt.Enable(ctx, "no-account")
	assert.True(t, pieceserrors.IsValidation(err))

	assert.Equal(t, 0, f.rt.Activate(ctx))
	assert.Zero(t, f.srv.Count())
}

func TestRuntime_WebhookNeedsPublicURL(t *testing.T) {
	f := newFixture(t, config.TriggerConfig{ID: "ended", Piece: "aircall", Trigger: "call_ended"})
	f.rt.cfg.Server.PublicURL = ""

	_, err := f.rt.Enable(context.Background(), "ended")
	var cfgErr *pieceserrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "server.public_url", cfgErr.Key)
}

func TestServer_Serve(t *testing.T) {
	f := newFixture(t)
	srv := NewServer(f.rt, "", nil, time.Second, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + ln.Addr().String() + "/healthz")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestJSONLinesEmitter(t *testing.T) {
	var buf bytes.Buffer
	emit := JSONLinesEmitter(&buf)
	require.NoError(t, emit(context.Background(), trigger.Event{TriggerID: "a", Data: map[string]interface{}{"x": 1}}))
	require.NoError(t, emit(context.Background(), trigger.Event{TriggerID: "b"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"trigger_id":"a"`)
}
