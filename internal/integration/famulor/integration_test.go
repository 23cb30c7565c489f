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

package famulor

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/pieces/internal/store"
	"github.com/tombee/pieces/internal/testing/mock"
	"github.com/tombee/pieces/internal/trigger/webhook"
	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

func newTestIntegration(t *testing.T, srv *mock.Server) *FamulorIntegration {
	t.Helper()
	p, err := NewFamulorIntegration(srv.ProviderConfig(nil))
	require.NoError(t, err)
	return p.(*FamulorIntegration)
}

func TestMakeCall(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodPost, "/user/make_call", http.StatusOK,
		map[string]interface{}{"status": true, "call_id": 991})
	c := newTestIntegration(t, srv)

	result, err := c.Execute(context.Background(), "make_call", map[string]interface{}{
		"assistant_id": 12,
		"phone_number": "+4915112345678",
		"variables":    map[string]interface{}{"name": "Ada"},
	})
	require.NoError(t, err)

	body := srv.Last().JSON()
	assert.Equal(t, float64(12), body["assistant_id"])
	assert.Equal(t, "+4915112345678", body["phone_number"])
	assert.Equal(t, float64(991), result.Response.(map[string]interface{})["call_id"])
}

func TestMakeCall_InvalidPhone(t *testing.T) {
	srv := mock.NewServer(t)
	c := newTestIntegration(t, srv)

	_, err := c.Execute(context.Background(), "make_call", map[string]interface{}{
		"assistant_id": 12,
		"phone_number": "015112345678",
	})
	require.Error(t, err)
	assert.True(t, pieceserrors.IsValidation(err))
	assert.Zero(t, srv.Count())
}

func TestAddLead_DuplicateFlag(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodPost, "/user/leads/create", http.StatusOK, map[string]interface{}{"id": 1})
	c := newTestIntegration(t, srv)

	_, err := c.Execute(context.Background(), "add_lead", map[string]interface{}{
		"campaign_id":     3,
		"phone_number":    "+14155550100",
		"allow_duplicate": true,
	})
	require.NoError(t, err)
	assert.Equal(t, true, srv.Last().JSON()["allow_dupplicate"])
}

func TestSendSMS_TooLong(t *testing.T) {
	srv := mock.NewServer(t)
	c := newTestIntegration(t, srv)

	long := make([]byte, 301)
	for i := range long {
		long[i] = 'a'
	}
	_, err := c.Execute(context.Background(), "send_sms", map[string]interface{}{
		"from": 1,
		"to":   "+14155550100",
		"body": string(long),
	})
	assert.True(t, pieceserrors.IsValidation(err))
	assert.Zero(t, srv.Count())
}

func TestAssistantOptions(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodGet, "/user/assistants/outbound", http.StatusOK, map[string]interface{}{
		"data": []interface{}{map[string]interface{}{"id": 12, "name": "Sales"}},
	})
	c := newTestIntegration(t, srv)

	state := c.Options(context.Background(), "call_completed", "assistant_id", nil)
	require.False(t, state.Disabled)
	require.Len(t, state.Options, 1)
	assert.Equal(t, "Sales", state.Options[0].Label)
}

func TestNewLeadSource(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodGet, "/user/leads", http.StatusOK, []interface{}{
		map[string]interface{}{"id": 1, "created_at": "2024-05-01T08:00:00.000000Z"},
		map[string]interface{}{"id": 2, "created_at": "2024-05-02T08:00:00.000000Z"},
	})
	c := newTestIntegration(t, srv)

	src, err := c.PollSource("new_lead", nil)
	require.NoError(t, err)
	items, err := src.Items(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestCallCompletedLifecycle(t *testing.T) {
	srv := mock.NewServer(t).
		Handle(http.MethodPost, "/user/assistant/12/webhook", http.StatusOK, map[string]interface{}{"status": true}).
		Handle(http.MethodDelete, "/user/assistant/12/webhook", http.StatusOK, map[string]interface{}{"status": true})
	c := newTestIntegration(t, srv)

	def, err := c.WebhookTrigger("call_completed", map[string]interface{}{"assistant_id": 12})
	require.NoError(t, err)

	l := &webhook.Lifecycle{Registrar: def.Registrar, Store: store.NewMemory()}
	id, err := l.OnEnable(context.Background(), "https://hooks.example.com/trg")
	require.NoError(t, err)
	assert.Equal(t, "12", id)
	assert.Equal(t, "https://hooks.example.com/trg", srv.Last().JSON()["webhook_url"])

	require.NoError(t, l.OnDisable(context.Background()))
	assert.Equal(t, http.MethodDelete, srv.Last().Method)
	assert.Equal(t, 2, srv.Count())
}

func TestCallCompleted_RequiresAssistant(t *testing.T) {
	c := newTestIntegration(t, mock.NewServer(t))

	_, err := c.WebhookTrigger("call_completed", nil)
	assert.True(t, pieceserrors.IsValidation(err))
}
