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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tombee/pieces/internal/trigger"
)

// maxBodyBytes caps inbound deliveries.
const maxBodyBytes = 1 << 20

// Route binds a trigger instance to its definition.
type Route struct {
	TriggerID  string
	Piece      string
	Trigger    string
	Definition *Definition
	Filter     *trigger.Filter
}

// Receiver serves inbound webhook deliveries at POST /webhooks/{trigger_id}.
// Signatures are not verified here; that belongs to the ingress in front.
type Receiver struct {
	mu      sync.RWMutex
	routes  map[string]*Route
	emitter trigger.Emitter
	logger  *slog.Logger
}

// NewReceiver creates a receiver that emits accepted deliveries.
func NewReceiver(emitter trigger.Emitter, logger *slog.Logger) *Receiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Receiver{
		routes:  make(map[string]*Route),
		emitter: emitter,
		logger:  logger.With(slog.String("component", "webhook")),
	}
}

// Add registers a route, replacing any route with the same trigger id.
func (rc *Receiver) Add(route *Route) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.routes[route.TriggerID] = route
}

// Remove unregisters a route.
func (rc *Receiver) Remove(triggerID string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	delete(rc.routes, triggerID)
}

// RegisterRoutes registers the webhook endpoint on mux.
func (rc *Receiver) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhooks/{trigger_id}", rc.handleWebhook)
}

func (rc *Receiver) handleWebhook(w http.ResponseWriter, r *http.Request) {
	triggerID := r.PathValue("trigger_id")

	rc.mu.RLock()
	route, ok := rc.routes[triggerID]
	rc.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown trigger %q", triggerID))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("payload exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	def := route.Definition
	payloads, err := Extract(body, def.EventField, def.ExpectedEvents, def.Forward)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	correlationID := r.Header.Get("X-Correlation-ID")
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	logger := rc.logger.With(
		slog.String("trigger_id", triggerID),
		slog.String("correlation_id", correlationID))

	emitted := 0
	for _, payload := range payloads {
		if def.Match != nil && !def.Match(payload) {
			continue
		}
		event := trigger.Event{
			TriggerID:     triggerID,
			Piece:         route.Piece,
			Trigger:       route.Trigger,
			ReceivedAt:    time.Now(),
			CorrelationID: correlationID,
			Data:          payload,
		}
		if def.IDField != "" {
			if id := lookup(payload, def.IDField); id != nil {
				event.ID = trigger.FormatID(id)
			}
		}

		match, err := route.Filter.Match(event)
		if err != nil {
			logger.Warn("filter evaluation failed", slog.Any("error", err))
			continue
		}
		if !match {
			continue
		}

		if err := rc.emitter(r.Context(), event); err != nil {
			logger.Error("failed to emit webhook event", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "failed to deliver event")
			return
		}
		emitted++
	}

	status := "accepted"
	if emitted == 0 {
		status = "ignored"
	}
	logger.Debug("webhook delivery", slog.String("status", status))

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  status,
		"emitted": emitted,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
