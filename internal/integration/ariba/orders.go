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

package ariba

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/property"
	"github.com/tombee/pieces/internal/trigger/polling"
	"github.com/tombee/pieces/internal/trigger/webhook"
)

const (
	ordersPath       = "/purchase-orders/v1/prod/orders"
	requisitionsPath = "/requisitions/v1/prod/requisitions"
	suppliersPath    = "/supplier-data/v4/prod/vendors"
)

func (c *AribaIntegration) operationSchemas() map[string]*api.OperationSchema {
	paging := property.Schema{
		property.Text("filter", "Filter", property.Describe("OData $filter, e.g. documentStatus eq 'Ordered'")),
		property.Num("top", "Page Size", property.Default(50), property.Min(1), property.Max(100)),
		property.Num("skip", "Skip", property.Min(0)),
		property.New(property.DateTime, "updated_after", "Updated After"),
	}

	return map[string]*api.OperationSchema{
		"list_purchase_orders": {
			Description: "List purchase orders",
			Properties:  paging,
		},
		"get_purchase_order": {
			Description: "Get a purchase order",
			Properties: property.Schema{
				property.Text("order_id", "Order ID", property.Required, property.Describe("e.g. PO1234")),
			},
		},
		"list_requisitions": {
			Description: "List requisitions",
			Properties:  paging,
		},
		"get_supplier": {
			Description: "Get supplier master data",
			Properties: property.Schema{
				property.Text("supplier_id", "Supplier ID", property.Required),
			},
		},
	}
}

func (c *AribaIntegration) list(ctx context.Context, path string, inputs map[string]interface{}) (*operation.Result, error) {
	query := url.Values{}
	if n, ok := api.Int(inputs, "top"); ok {
		query.Set("$top", strconv.Itoa(n))
	}
	if n, ok := api.Int(inputs, "skip"); ok && n > 0 {
		query.Set("$skip", strconv.Itoa(n))
	}

	filter := api.String(inputs, "filter")
	if ms := polling.EpochMS(inputs["updated_after"]); ms > 0 {
		clause := "lastModifiedDate gt " + time.UnixMilli(ms).UTC().Format(time.RFC3339)
		if filter != "" {
			filter = fmt.Sprintf("(%s) and %s", filter, clause)
		} else {
			filter = clause
		}
	}
	if filter != "" {
		query.Set("$filter", filter)
	}

	return c.DoResult(ctx, c.call(http.MethodGet, path, nil, query))
}

func (c *AribaIntegration) get(ctx context.Context, path string, inputs map[string]interface{}) (*operation.Result, error) {
	return c.DoResult(ctx, c.call(http.MethodGet, path, inputs, nil))
}

// Triggers returns the triggers this piece supports.
func (c *AribaIntegration) Triggers() []api.TriggerInfo {
	return []api.TriggerInfo{
		{
			Name:        "new_purchase_order",
			DisplayName: "New Purchase Order",
			Description: "Fires for each new purchase order",
			Kind:        api.TriggerPolling,
		},
	}
}

// PollSource returns the item source of a polling trigger. Orders are
// requested newest first and narrowed by the watermark.
func (c *AribaIntegration) PollSource(trigger string, _ map[string]interface{}) (polling.Source, error) {
	if trigger != "new_purchase_order" {
		return nil, api.UnknownTrigger(c.Name(), trigger)
	}

	return polling.SourceFunc(func(ctx context.Context, since int64) ([]polling.Item, error) {
		query := url.Values{"$top": {"100"}, "$orderby": {"orderDate desc"}}
		if since > 0 {
			query.Set("$filter", "orderDate gt "+time.UnixMilli(since).UTC().Format(time.RFC3339))
		}

		out, _, err := c.Do(ctx, c.call(http.MethodGet, ordersPath, nil, query))
		if err != nil {
			return nil, err
		}
		orders, _ := api.Field(out, "content").([]interface{})
		return polling.FromRecords(orders, "documentNumber", "orderDate"), nil
	}), nil
}

// WebhookTrigger returns an error; Ariba has no webhook triggers.
func (c *AribaIntegration) WebhookTrigger(trigger string, _ map[string]interface{}) (*webhook.Definition, error) {
	return nil, api.UnknownTrigger(c.Name(), trigger)
}
