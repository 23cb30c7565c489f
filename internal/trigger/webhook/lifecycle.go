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

package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/store"
)

// KeyWebhookID is the store key holding the vendor subscription id.
const KeyWebhookID = "webhook_id"

// Lifecycle enables and disables one webhook trigger instance. Store must
// be namespaced to the instance.
type Lifecycle struct {
	Registrar Registrar
	Store     store.Store
	Events    []string
	Logger    *slog.Logger
}

func (l *Lifecycle) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// OnEnable registers callbackURL with the vendor and stores the returned id.
func (l *Lifecycle) OnEnable(ctx context.Context, callbackURL string) (string, error) {
	if l.Registrar == nil {
		return "", nil
	}

	id, err := l.Registrar.CreateWebhook(ctx, callbackURL, l.Events)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("vendor returned an empty webhook id")
	}

	if err := l.Store.Put(ctx, KeyWebhookID, id); err != nil {
		return "", fmt.Errorf("store webhook id: %w", err)
	}

	l.logger().InfoContext(ctx, "webhook registered", slog.String("webhook_id", id))
	return id, nil
}

// OnDisable deletes the stored subscription. With no stored id it does
// nothing. A subscription the vendor no longer knows counts as deleted.
func (l *Lifecycle) OnDisable(ctx context.Context) error {
	if l.Registrar == nil {
		return nil
	}

	id, ok, err := l.Store.Get(ctx, KeyWebhookID)
	if err != nil {
		return fmt.Errorf("read webhook id: %w", err)
	}
	if !ok || id == "" {
		return nil
	}

	if err := l.Registrar.DeleteWebhook(ctx, id); err != nil {
		var opErr *operation.Error
		if !errors.As(err, &opErr) || opErr.Type != operation.ErrorTypeNotFound {
			return err
		}
		l.logger().WarnContext(ctx, "webhook already gone at vendor",
			slog.String("webhook_id", id))
	}

	if err := l.Store.Delete(ctx, KeyWebhookID); err != nil {
		return fmt.Errorf("remove webhook id: %w", err)
	}

	l.logger().InfoContext(ctx, "webhook removed", slog.String("webhook_id", id))
	return nil
}
