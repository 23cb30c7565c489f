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

package hunter

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/testing/mock"
	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

func newTestIntegration(t *testing.T, srv *mock.Server) *HunterIntegration {
	t.Helper()
	p, err := NewHunterIntegration(srv.ProviderConfig(nil))
	require.NoError(t, err)
	return p.(*HunterIntegration)
}

func TestDomainSearch(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodGet, "/domain-search", http.StatusOK,
		map[string]interface{}{"data": map[string]interface{}{"domain": "stripe.com"}})
	c := newTestIntegration(t, srv)

	_, err := c.Execute(context.Background(), "domain_search", map[string]interface{}{
		"domain":    "stripe.com",
		"seniority": []interface{}{"senior", "executive"},
	})
	require.NoError(t, err)

	q := srv.Last().Query
	assert.Equal(t, "stripe.com", q.Get("domain"))
	assert.Equal(t, "10", q.Get("limit"))
	assert.Equal(t, "senior,executive", q.Get("seniority"))
}

func TestLimitBounds(t *testing.T) {
	for _, limit := range []int{0, 101} {
		srv := mock.NewServer(t)
		c := newTestIntegration(t, srv)

		_, err := c.Execute(context.Background(), "domain_search", map[string]interface{}{
			"domain": "stripe.com",
			"limit":  limit,
		})

		var verr *pieceserrors.ValidationError
		require.True(t, errors.As(err, &verr), "limit %d: %v", limit, err)
		assert.Equal(t, "limit", verr.Field)
		assert.Zero(t, srv.Count())
	}
}

func TestFindEmail_NeedsTarget(t *testing.T) {
	srv := mock.NewServer(t)
	c := newTestIntegration(t, srv)

	_, err := c.Execute(context.Background(), "find_email", map[string]interface{}{"full_name": "Ada Lovelace"})
	assert.True(t, pieceserrors.IsValidation(err))

	_, err = c.Execute(context.Background(), "find_email", map[string]interface{}{"domain": "example.com", "first_name": "Ada"})
	assert.True(t, pieceserrors.IsValidation(err))

	assert.Zero(t, srv.Count())
}

func TestVerifyEmail_InvalidEmail(t *testing.T) {
	srv := mock.NewServer(t)
	c := newTestIntegration(t, srv)

	_, err := c.Execute(context.Background(), "verify_email", map[string]interface{}{"email": "nope"})
	assert.True(t, pieceserrors.IsValidation(err))
	assert.Zero(t, srv.Count())
}

func TestCreateLead_Duplicate(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodPost, "/leads", http.StatusUnprocessableEntity, map[string]interface{}{
		"errors": []interface{}{
			map[string]interface{}{"id": "duplicated_entry", "code": 422, "details": "This lead already exists"},
		},
	})
	c := newTestIntegration(t, srv)

	_, err := c.Execute(context.Background(), "create_lead", map[string]interface{}{
		"email":      "ada@example.com",
		"first_name": "Ada",
	})

	var opErr *operation.Error
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, http.StatusUnprocessableEntity, opErr.StatusCode)
	assert.Equal(t, "This lead already exists", opErr.Detail)
	assert.Equal(t, map[string]interface{}{"email": "ada@example.com", "first_name": "Ada"}, srv.Last().JSON())
}

func TestDeleteLead(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodDelete, "/leads/7", http.StatusNoContent, nil)
	c := newTestIntegration(t, srv)

	result, err := c.Execute(context.Background(), "delete_lead", map[string]interface{}{"lead_id": 7})
	require.NoError(t, err)
	assert.Equal(t, true, result.Response.(map[string]interface{})["deleted"])
}

func TestNewLeadSource(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodGet, "/leads", http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"leads": []interface{}{
				map[string]interface{}{"id": 2, "created_at": "2024-02-02 10:00:00 UTC"},
				map[string]interface{}{"id": 1, "created_at": "2024-02-01 10:00:00 UTC"},
			},
		},
	})
	c := newTestIntegration(t, srv)

	src, err := c.PollSource("new_lead", map[string]interface{}{"leads_list_id": 5})
	require.NoError(t, err)

	items, err := src.Items(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "2", items[0].ID)
	assert.Equal(t, int64(1706868000000), items[0].EpochMS)
	assert.Equal(t, "5", srv.Last().Query.Get("leads_list_id"))
}

func TestLeadsListOptions(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodGet, "/leads_lists", http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"leads_lists": []interface{}{map[string]interface{}{"id": 5, "name": "Prospects"}},
		},
	})
	c := newTestIntegration(t, srv)

	state := c.Options(context.Background(), "create_lead", "leads_list_id", nil)
	require.Len(t, state.Options, 1)
	assert.Equal(t, "Prospects", state.Options[0].Label)
}
