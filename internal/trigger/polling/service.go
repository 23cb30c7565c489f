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
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/metric"

	"github.com/tombee/pieces/internal/trigger"
	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

// DefaultSchedule polls every five minutes.
const DefaultSchedule = "@every 5m"

// DefaultMaxConsecutiveErrors pauses a trigger after this many failed polls.
const DefaultMaxConsecutiveErrors = 10

// Service schedules polling triggers and emits their new items.
type Service struct {
	cfg           ServiceConfig
	logger        *slog.Logger
	cron          *cron.Cron
	states        *StateManager
	registrations map[string]*registration
	metrics       *MetricsCollector
	mu            sync.RWMutex
	ctx           context.Context
	cancel        context.CancelFunc
	started       bool
}

// ServiceConfig contains configuration for the polling service.
type ServiceConfig struct {
	// States persists watermarks (required)
	States *StateManager

	// Emitter receives each new item (required)
	Emitter trigger.Emitter

	// Logger for service messages (default: slog.Default())
	Logger *slog.Logger

	// PollTimeout bounds each poll (default: 30s)
	PollTimeout time.Duration

	// MaxConsecutiveErrors pauses a trigger after this many failures
	MaxConsecutiveErrors int

	// MeterProvider enables metrics when set
	MeterProvider metric.MeterProvider
}

// Registration describes one polling trigger instance.
type Registration struct {
	// TriggerID is the unique identifier of this instance
	TriggerID string

	// Piece and Trigger name the trigger implementation
	Piece   string
	Trigger string

	// Schedule is a cron spec or descriptor such as "@every 5m"
	Schedule string

	// Source lists the vendor records
	Source Source

	// Filter drops events before emission (optional)
	Filter *trigger.Filter
}

type registration struct {
	*Registration
	poller  *Poller
	entryID cron.EntryID
	running sync.Mutex
}

// NewService creates a polling service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.States == nil {
		return nil, fmt.Errorf("state manager is required")
	}
	if cfg.Emitter == nil {
		return nil, fmt.Errorf("emitter is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.PollTimeout == 0 {
		cfg.PollTimeout = 30 * time.Second
	}
	if cfg.MaxConsecutiveErrors == 0 {
		cfg.MaxConsecutiveErrors = DefaultMaxConsecutiveErrors
	}

	logger := cfg.Logger.With(slog.String("component", "polling"))
	cl := cronLogger{logger: logger}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Service{
		cfg:           cfg,
		logger:        logger,
		cron:          cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		states:        cfg.States,
		registrations: make(map[string]*registration),
		ctx:           ctx,
		cancel:        cancel,
	}

	if cfg.MeterProvider != nil {
		metrics, err := NewMetricsCollector(cfg.MeterProvider)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to create metrics collector: %w", err)
		}
		s.metrics = metrics
	}

	return s, nil
}

// Start begins scheduled polling.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("service already started")
	}

	s.cron.Start()
	s.started = true
	s.logger.Info("polling service started", slog.Int("triggers", len(s.registrations)))

	return nil
}

// Stop halts scheduling and waits for in-flight polls, bounded by ctx.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	s.logger.Info("stopping polling service")

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("all polls stopped")
	case <-ctx.Done():
		s.logger.Warn("polling shutdown timed out, some polls may not have completed")
	}
	s.cancel()

	return nil
}

// RegisterTrigger schedules a polling trigger. A trigger seen for the first
// time is enabled with a watermark of now. A paused trigger is registered
// but not scheduled until Resume.
func (s *Service) RegisterTrigger(ctx context.Context, reg *Registration) error {
	if reg.TriggerID == "" {
		return &pieceserrors.ValidationError{Field: "id", Message: "trigger id is required"}
	}
	if reg.Source == nil {
		return &pieceserrors.ValidationError{Field: "trigger", Message: fmt.Sprintf("%s.%s is not a polling trigger", reg.Piece, reg.Trigger)}
	}
	if reg.Schedule == "" {
		reg.Schedule = DefaultSchedule
	}

	r := &registration{
		Registration: reg,
		poller: &Poller{
			TriggerID: reg.TriggerID,
			Piece:     reg.Piece,
			Trigger:   reg.Trigger,
			Source:    reg.Source,
			States:    s.states,
		},
	}

	state, err := s.states.GetState(ctx, reg.TriggerID)
	if err != nil {
		return err
	}
	if state == nil {
		if state, err = r.poller.OnEnable(ctx); err != nil {
			return fmt.Errorf("enable %s: %w", reg.TriggerID, err)
		}
		s.logger.Info("enabled polling trigger",
			slog.String("trigger_id", reg.TriggerID),
			slog.Int64("watermark", state.LastFetchEpochMS))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, exists := s.registrations[reg.TriggerID]; exists {
		s.cron.Remove(old.entryID)
	}

	if !state.Paused {
		if err := s.schedule(r); err != nil {
			return err
		}
	} else {
		s.logger.Warn("polling trigger is paused",
			slog.String("trigger_id", reg.TriggerID),
			slog.String("last_error", state.LastError))
	}

	s.registrations[reg.TriggerID] = r
	s.updateActive()

	s.logger.Info("registered polling trigger",
		slog.String("trigger_id", reg.TriggerID),
		slog.String("piece", reg.Piece),
		slog.String("trigger", reg.Trigger),
		slog.String("schedule", reg.Schedule))

	return nil
}

func (s *Service) schedule(r *registration) error {
	id := r.TriggerID
	entryID, err := s.cron.AddFunc(r.Schedule, func() {
		if _, err := s.PollNow(s.ctx, id); err != nil {
			s.logger.Debug("scheduled poll failed", slog.String("trigger_id", id), slog.Any("error", err))
		}
	})
	if err != nil {
		return &pieceserrors.ValidationError{
			Field:      "schedule",
			Message:    fmt.Sprintf("invalid schedule %q: %v", r.Schedule, err),
			Suggestion: "use a cron expression or a descriptor such as @every 5m",
		}
	}
	r.entryID = entryID
	return nil
}

// UnregisterTrigger stops scheduling a trigger. Its state is kept.
func (s *Service) UnregisterTrigger(triggerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.registrations[triggerID]; ok {
		s.cron.Remove(r.entryID)
		delete(s.registrations, triggerID)
		s.updateActive()
	}
}

// Disable unregisters a trigger and discards its watermark.
func (s *Service) Disable(ctx context.Context, triggerID string) error {
	s.UnregisterTrigger(triggerID)
	return s.states.DeleteState(ctx, triggerID)
}

// Resume clears the error count of a paused trigger and schedules it again.
func (s *Service) Resume(ctx context.Context, triggerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.registrations[triggerID]
	if !ok {
		return &pieceserrors.NotFoundError{Resource: "trigger", ID: triggerID}
	}

	state, err := s.states.GetState(ctx, triggerID)
	if err != nil {
		return err
	}
	if state == nil || !state.Paused {
		return nil
	}

	state.Paused = false
	state.ErrorCount = 0
	state.LastError = ""
	if err := s.states.SaveState(ctx, state); err != nil {
		return err
	}
	return s.schedule(r)
}

// PollNow runs one poll of a registered trigger and emits its new items.
// Polls of the same trigger never overlap.
func (s *Service) PollNow(ctx context.Context, triggerID string) ([]Item, error) {
	s.mu.RLock()
	r, ok := s.registrations[triggerID]
	s.mu.RUnlock()
	if !ok {
		return nil, &pieceserrors.NotFoundError{Resource: "trigger", ID: triggerID}
	}

	r.running.Lock()
	defer r.running.Unlock()

	pollCtx, cancel := context.WithTimeout(ctx, s.cfg.PollTimeout)
	defer cancel()

	correlationID := uuid.NewString()
	logger := s.logger.With(
		slog.String("trigger_id", triggerID),
		slog.String("correlation_id", correlationID))

	start := time.Now()
	items, err := r.poller.Poll(pollCtx)
	duration := time.Since(start)

	if s.metrics != nil {
		s.metrics.RecordPoll(ctx, r.Piece, r.Trigger, err == nil, duration)
	}

	if err != nil {
		s.handleFailure(ctx, r, err, logger)
		return nil, err
	}

	emitted := make([]Item, 0, len(items))
	for _, item := range items {
		event := trigger.Event{
			TriggerID:     triggerID,
			Piece:         r.Piece,
			Trigger:       r.Trigger,
			ID:            item.ID,
			EpochMS:       item.EpochMS,
			ReceivedAt:    time.Now(),
			CorrelationID: correlationID,
			Data:          item.Data,
		}

		match, err := r.Filter.Match(event)
		if err != nil {
			logger.Warn("filter evaluation failed", slog.String("item_id", item.ID), slog.Any("error", err))
			continue
		}
		if !match {
			continue
		}

		if err := s.cfg.Emitter(ctx, event); err != nil {
			logger.Error("failed to emit item", slog.String("item_id", item.ID), slog.Any("error", err))
			continue
		}
		emitted = append(emitted, item)
	}

	if s.metrics != nil {
		s.metrics.RecordItems(ctx, r.Piece, r.Trigger, len(emitted))
	}

	logger.Debug("poll complete",
		slog.Int("fetched_new", len(items)),
		slog.Int("emitted", len(emitted)),
		slog.Int64("duration_ms", duration.Milliseconds()))

	return emitted, nil
}

func (s *Service) handleFailure(ctx context.Context, r *registration, pollErr error, logger *slog.Logger) {
	if s.metrics != nil {
		s.metrics.RecordError(ctx, r.Piece, pieceserrors.Classify(pollErr))
	}

	state, err := s.states.GetState(ctx, r.TriggerID)
	if err != nil || state == nil {
		logger.Warn("poll failed", slog.Any("error", pollErr))
		return
	}

	logger.Warn("poll failed",
		slog.Int("error_count", state.ErrorCount),
		slog.Any("error", pollErr))

	if state.ErrorCount < s.cfg.MaxConsecutiveErrors || state.Paused {
		return
	}

	state.Paused = true
	if err := s.states.SaveState(ctx, state); err != nil {
		logger.Error("failed to pause trigger", slog.Any("error", err))
		return
	}

	s.mu.Lock()
	s.cron.Remove(r.entryID)
	s.mu.Unlock()

	logger.Error("polling trigger paused after consecutive failures",
		slog.Int("error_count", state.ErrorCount))
}

// Registered returns the ids of registered triggers.
func (s *Service) Registered() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.registrations))
	for id := range s.registrations {
		ids = append(ids, id)
	}
	return ids
}

func (s *Service) updateActive() {
	if s.metrics != nil {
		s.metrics.SetActiveTriggers(len(s.registrations))
	}
}

// cronLogger routes cron's logging into slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
