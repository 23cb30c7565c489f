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

// Package server runs configured trigger instances: it enables and disables
// them, schedules polling triggers, and receives webhook deliveries.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/metric"

	"github.com/tombee/pieces/internal/config"
	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/store"
	"github.com/tombee/pieces/internal/trigger"
	"github.com/tombee/pieces/internal/trigger/polling"
	"github.com/tombee/pieces/internal/trigger/webhook"
	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

// PieceSource resolves a piece by name.
type PieceSource func(name string) (api.Piece, error)

// Options configures a Runtime.
type Options struct {
	// Config lists the trigger instances and the public URL (required)
	Config *config.Config

	// Pieces resolves pieces by name (required)
	Pieces PieceSource

	// Store holds webhook subscription ids (required)
	Store store.Store

	// States holds polling watermarks (required)
	States *polling.StateManager

	// Emitter receives trigger events (required)
	Emitter trigger.Emitter

	// MeterProvider enables polling metrics when set
	MeterProvider metric.MeterProvider

	Logger *slog.Logger
}

// Status reports the state of an enabled trigger instance.
type Status struct {
	TriggerID string          `json:"trigger_id"`
	Piece     string          `json:"piece"`
	Trigger   string          `json:"trigger"`
	Kind      api.TriggerKind `json:"kind"`
	Enabled   bool            `json:"enabled"`

	// WebhookID is the vendor subscription id of a webhook trigger
	WebhookID string `json:"webhook_id,omitempty"`

	// CallbackURL is where the vendor delivers webhook events
	CallbackURL string `json:"callback_url,omitempty"`

	// WatermarkMS is the polling watermark
	WatermarkMS int64 `json:"watermark_ms,omitempty"`

	Paused bool `json:"paused,omitempty"`
}

// Runtime manages the trigger instances named in the config.
type Runtime struct {
	cfg      *config.Config
	pieces   PieceSource
	store    store.Store
	states   *polling.StateManager
	polling  *polling.Service
	receiver *webhook.Receiver
	logger   *slog.Logger
}

// instance is a trigger config resolved against its piece.
type instance struct {
	config.TriggerConfig
	piece  api.Piece
	info   api.TriggerInfo
	inputs map[string]interface{}
	filter *trigger.Filter
}

// NewRuntime creates a runtime.
func NewRuntime(opts Options) (*Runtime, error) {
	if opts.Config == nil || opts.Pieces == nil || opts.Store == nil || opts.States == nil || opts.Emitter == nil {
		return nil, fmt.Errorf("config, pieces, store, states, and emitter are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	svc, err := polling.NewService(polling.ServiceConfig{
		States:        opts.States,
		Emitter:       opts.Emitter,
		Logger:        logger,
		MeterProvider: opts.MeterProvider,
	})
	if err != nil {
		return nil, err
	}

	return &Runtime{
		cfg:      opts.Config,
		pieces:   opts.Pieces,
		store:    opts.Store,
		states:   opts.States,
		polling:  svc,
		receiver: webhook.NewReceiver(opts.Emitter, logger),
		logger:   logger.With(slog.String("component", "runtime")),
	}, nil
}

func (r *Runtime) resolve(id string) (*instance, error) {
	tc, err := r.cfg.Trigger(id)
	if err != nil {
		return nil, err
	}
	piece, err := r.pieces(tc.Piece)
	if err != nil {
		return nil, err
	}

	in := &instance{TriggerConfig: tc, piece: piece}
	found := false
	for _, info := range piece.Triggers() {
		if info.Name == tc.Trigger {
			in.info, found = info, true
			break
		}
	}
	if !found {
		return nil, api.UnknownTrigger(tc.Piece, tc.Trigger)
	}

	in.inputs = in.info.Properties.ApplyDefaults(tc.Inputs)
	if err := in.info.Properties.Validate(in.inputs); err != nil {
		return nil, err
	}

	if in.filter, err = trigger.CompileFilter(tc.Filter); err != nil {
		return nil, &pieceserrors.ConfigError{Key: "triggers." + id + ".filter", Reason: "invalid filter expression", Cause: err}
	}
	return in, nil
}

// namespace returns the store view of one trigger instance.
func (r *Runtime) namespace(id string) store.Store {
	return store.Namespace(r.store, "trigger:"+id+":")
}

// CallbackURL returns the webhook delivery URL of a trigger instance.
func (r *Runtime) CallbackURL(id string) (string, error) {
	base := strings.TrimRight(r.cfg.Server.PublicURL, "/")
	if base == "" {
		return "", &pieceserrors.ConfigError{Key: "server.public_url", Reason: "required to register webhook triggers"}
	}
	return base + "/webhooks/" + id, nil
}

func (r *Runtime) lifecycle(in *instance, def *webhook.Definition) *webhook.Lifecycle {
	return &webhook.Lifecycle{
		Registrar: def.Registrar,
		Store:     r.namespace(in.ID),
		Events:    def.Events,
		Logger:    r.logger.With(slog.String("trigger_id", in.ID)),
	}
}

func (r *Runtime) poller(in *instance) (*polling.Poller, error) {
	src, err := in.piece.PollSource(in.Trigger, in.inputs)
	if err != nil {
		return nil, err
	}
	return &polling.Poller{
		TriggerID: in.ID,
		Piece:     in.Piece,
		Trigger:   in.Trigger,
		Source:    src,
		States:    r.states,
	}, nil
}

// Enable enables a trigger instance. Enabling an enabled instance keeps its
// watermark or subscription.
func (r *Runtime) Enable(ctx context.Context, id string) (*Status, error) {
	in, err := r.resolve(id)
	if err != nil {
		return nil, err
	}

	if in.info.Kind == api.TriggerWebhook {
		return r.enableWebhook(ctx, in)
	}

	p, err := r.poller(in)
	if err != nil {
		return nil, err
	}
	state, err := r.states.GetState(ctx, id)
	if err != nil {
		return nil, err
	}
	if state == nil {
		if state, err = p.OnEnable(ctx); err != nil {
			return nil, err
		}
	}
	return in.status(state), nil
}

func (r *Runtime) enableWebhook(ctx context.Context, in *instance) (*Status, error) {
	def, err := in.piece.WebhookTrigger(in.Trigger, in.inputs)
	if err != nil {
		return nil, err
	}
	callback, err := r.CallbackURL(in.ID)
	if err != nil {
		return nil, err
	}

	status := in.status(nil)
	status.Enabled = true
	status.CallbackURL = callback
	existing, ok, err := r.namespace(in.ID).Get(ctx, webhook.KeyWebhookID)
	if err != nil {
		return nil, err
	}
	if ok {
		status.WebhookID = existing
		return status, nil
	}

	if status.WebhookID, err = r.lifecycle(in, def).OnEnable(ctx, callback); err != nil {
		return nil, err
	}
	return status, nil
}

// Status reports the stored state of a trigger instance without changing it.
func (r *Runtime) Status(ctx context.Context, id string) (*Status, error) {
	in, err := r.resolve(id)
	if err != nil {
		return nil, err
	}

	if in.info.Kind == api.TriggerWebhook {
		status := in.status(nil)
		if status.CallbackURL, err = r.CallbackURL(id); err != nil {
			status.CallbackURL = ""
		}
		webhookID, ok, err := r.namespace(id).Get(ctx, webhook.KeyWebhookID)
		if err != nil {
			return nil, err
		}
		status.Enabled, status.WebhookID = ok, webhookID
		return status, nil
	}

	state, err := r.states.GetState(ctx, id)
	if err != nil {
		return nil, err
	}
	return in.status(state), nil
}

func (in *instance) status(state *polling.State) *Status {
	s := &Status{TriggerID: in.ID, Piece: in.Piece, Trigger: in.Trigger, Kind: in.info.Kind}
	if state != nil {
		s.Enabled = true
		s.WatermarkMS = state.LastFetchEpochMS
		s.Paused = state.Paused
	}
	return s
}

// Disable disables a trigger instance: a polling watermark is discarded and
// a webhook subscription is deleted at the vendor.
func (r *Runtime) Disable(ctx context.Context, id string) error {
	in, err := r.resolve(id)
	if err != nil {
		return err
	}

	if in.info.Kind == api.TriggerWebhook {
		def, err := in.piece.WebhookTrigger(in.Trigger, in.inputs)
		if err != nil {
			return err
		}
		r.receiver.Remove(id)
		return r.lifecycle(in, def).OnDisable(ctx)
	}

	return r.polling.Disable(ctx, id)
}

// Poll runs one poll of a polling trigger, enabling it first if needed, and
// emits and returns its new items.
func (r *Runtime) Poll(ctx context.Context, id string) ([]polling.Item, error) {
	in, err := r.resolve(id)
	if err != nil {
		return nil, err
	}
	if err := r.register(ctx, in); err != nil {
		return nil, err
	}
	return r.polling.PollNow(ctx, id)
}

// Test returns sample items of a polling trigger without touching its
// watermark.
func (r *Runtime) Test(ctx context.Context, id string) ([]polling.Item, error) {
	in, err := r.resolve(id)
	if err != nil {
		return nil, err
	}
	if in.info.Kind != api.TriggerPolling {
		return nil, &pieceserrors.ValidationError{
			Field:      "trigger",
			Message:    fmt.Sprintf("%s.%s is a webhook trigger and has no sample data", in.Piece, in.Trigger),
			Suggestion: "Enable it and send a test event from the vendor",
		}
	}
	p, err := r.poller(in)
	if err != nil {
		return nil, err
	}
	return p.Test(ctx)
}

func (r *Runtime) register(ctx context.Context, in *instance) error {
	if in.info.Kind != api.TriggerPolling {
		return &pieceserrors.ValidationError{
			Field:   "trigger",
			Message: fmt.Sprintf("%s.%s is not a polling trigger", in.Piece, in.Trigger),
		}
	}
	src, err := in.piece.PollSource(in.Trigger, in.inputs)
	if err != nil {
		return err
	}
	return r.polling.RegisterTrigger(ctx, &polling.Registration{
		TriggerID: in.ID,
		Piece:     in.Piece,
		Trigger:   in.Trigger,
		Schedule:  in.Schedule,
		Source:    src,
		Filter:    in.filter,
	})
}

// Activate enables every configured trigger instance: polling triggers are
// scheduled and webhook triggers are routed to the receiver. A trigger that
// fails to activate is logged and skipped.
func (r *Runtime) Activate(ctx context.Context) int {
	active := 0
	for _, tc := range r.cfg.Triggers {
		logger := r.logger.With(slog.String("trigger_id", tc.ID))

		in, err := r.resolve(tc.ID)
		if err != nil {
			logger.Error("cannot activate trigger", slog.Any("error", err))
			continue
		}

		if in.info.Kind == api.TriggerWebhook {
			err = r.activateWebhook(ctx, in)
		} else {
			err = r.register(ctx, in)
		}
		if err != nil {
			logger.Error("cannot activate trigger", slog.Any("error", err))
			continue
		}
		active++
	}
	return active
}

func (r *Runtime) activateWebhook(ctx context.Context, in *instance) error {
	if _, err := r.enableWebhook(ctx, in); err != nil {
		return err
	}
	def, err := in.piece.WebhookTrigger(in.Trigger, in.inputs)
	if err != nil {
		return err
	}
	r.receiver.Add(&webhook.Route{
		TriggerID:  in.ID,
		Piece:      in.Piece,
		Trigger:    in.Trigger,
		Definition: def,
		Filter:     in.filter,
	})
	return nil
}

// Receiver returns the webhook receiver.
func (r *Runtime) Receiver() *webhook.Receiver {
	return r.receiver
}

// Start begins scheduled polling.
func (r *Runtime) Start(ctx context.Context) error {
	return r.polling.Start(ctx)
}

// Stop halts scheduled polling, waiting for in-flight polls up to ctx.
func (r *Runtime) Stop(ctx context.Context) error {
	return r.polling.Stop(ctx)
}
