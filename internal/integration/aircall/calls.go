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

package aircall

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/trigger/polling"
)

// tagCall adds tags to a call. Aircall answers with an empty body, so the
// result carries a confirmation message alongside whatever came back.
func (c *AircallIntegration) tagCall(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	tagIDs := make([]interface{}, 0)
	for _, t := range api.Slice(inputs, "tags") {
		tagIDs = append(tagIDs, api.Field(t, "tag_id"))
	}

	out, resp, err := c.Do(ctx, api.Call{
		Method: http.MethodPost,
		Path:   "/calls/{call_id}/tags",
		Params: inputs,
		Body:   map[string]interface{}{"tags": tagIDs},
	})
	if err != nil {
		return nil, err
	}

	return c.ToResult(resp, map[string]interface{}{
		"status":  "success",
		"message": fmt.Sprintf("Tags added successfully to call %s", api.String(inputs, "call_id")),
		"data":    out,
	}), nil
}

func (c *AircallIntegration) commentCall(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	out, resp, err := c.Do(ctx, api.Call{
		Method: http.MethodPost,
		Path:   "/calls/{call_id}/comments",
		Params: inputs,
		Body:   api.Pick(inputs, "content"),
	})
	if err != nil {
		return nil, err
	}

	return c.ToResult(resp, map[string]interface{}{
		"status":  "success",
		"message": fmt.Sprintf("Comment added successfully to call %s", api.String(inputs, "call_id")),
		"data":    out,
	}), nil
}

func (c *AircallIntegration) getCall(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	return c.DoResult(ctx, api.Call{
		Method: http.MethodGet,
		Path:   "/calls/{call_id}",
		Params: inputs,
	})
}

func (c *AircallIntegration) searchCalls(ctx context.Context, inputs map[string]interface{}) (*operation.Result, error) {
	query := api.Query(inputs, "direction", "phone_number", "user_id", "order", "per_page", "page")
	for _, key := range []string{"from", "to"} {
		if ms := polling.EpochMS(inputs[key]); ms > 0 {
			query.Set(key, strconv.FormatInt(ms/1000, 10))
		}
	}

	return c.DoResult(ctx, api.Call{
		Method: http.MethodGet,
		Path:   "/calls/search",
		Query:  query,
	})
}

// recentCalls lists the newest calls, optionally since a unix time.
func (c *AircallIntegration) recentCalls(ctx context.Context, sinceMS int64) ([]interface{}, error) {
	query := url.Values{}
	query.Set("order", "desc")
	query.Set("per_page", "50")
	if sinceMS > 0 {
		query.Set("from", strconv.FormatInt(sinceMS/1000, 10))
	}

	out, _, err := c.Do(ctx, api.Call{Method: http.MethodGet, Path: "/calls", Query: query})
	if err != nil {
		return nil, err
	}
	calls, _ := api.Field(out, "calls").([]interface{})
	return calls, nil
}
