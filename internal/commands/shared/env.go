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

package shared

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"go.opentelemetry.io/otel/metric"

	"github.com/tombee/pieces/internal/config"
	"github.com/tombee/pieces/internal/integration"
	"github.com/tombee/pieces/internal/log"
	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/server"
	"github.com/tombee/pieces/internal/store"
	"github.com/tombee/pieces/internal/trigger"
	"github.com/tombee/pieces/internal/trigger/polling"
	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

// LoadConfig loads the configuration named by --config, or the default.
func LoadConfig() (*config.Config, error) {
	return config.Load(GetConfigPath())
}

// NewLogger builds the command logger from the config file, then the
// environment, then --verbose.
func NewLogger(cfg *config.Config) *slog.Logger {
	lc := &log.Config{
		Level:     cfg.Log.Level,
		Format:    log.Format(cfg.Log.Format),
		Output:    os.Stderr,
		AddSource: cfg.Log.Source,
	}

	env := log.FromEnv()
	if os.Getenv("PIECES_DEBUG") != "" || os.Getenv("PIECES_LOG_LEVEL") != "" || os.Getenv("LOG_LEVEL") != "" {
		lc.Level = env.Level
	}
	if os.Getenv("LOG_FORMAT") != "" {
		lc.Format = env.Format
	}
	lc.AddSource = lc.AddSource || env.AddSource

	if GetVerbose() {
		lc.Level = "debug"
	}
	return log.New(lc)
}

// NewPiece creates the named piece with the connection from cfg.
func NewPiece(cfg *config.Config, name string, logger *slog.Logger) (api.Piece, error) {
	if _, ok := integration.BuiltinRegistry[name]; !ok {
		// Let New report the unknown name.
		return integration.New(name, nil)
	}
	pc, err := cfg.ProviderConfig(name, integration.Defaults[name], logger)
	if err != nil {
		return nil, err
	}
	return integration.New(name, pc)
}

// PieceCache creates pieces on first use and reuses them.
func PieceCache(cfg *config.Config, logger *slog.Logger) func(name string) (api.Piece, error) {
	var mu sync.Mutex
	pieces := make(map[string]api.Piece)
	return func(name string) (api.Piece, error) {
		mu.Lock()
		defer mu.Unlock()
		if p, ok := pieces[name]; ok {
			return p, nil
		}
		p, err := NewPiece(cfg, name, logger)
		if err != nil {
			return nil, err
		}
		pieces[name] = p
		return p, nil
	}
}

// Runtime is a trigger runtime with the stores it owns.
type Runtime struct {
	*server.Runtime

	store  store.Store
	states *polling.StateManager
}

// Close releases the stores.
func (r *Runtime) Close() error {
	return errors.Join(r.states.Close(), r.store.Close())
}

// OpenRuntime opens the configured state stores and builds a trigger
// runtime around them.
func OpenRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger, emitter trigger.Emitter, mp metric.MeterProvider) (*Runtime, error) {
	st, err := store.Open(ctx, store.Config{
		Backend:  cfg.State.Backend,
		Path:     cfg.State.Path,
		RedisURL: cfg.State.RedisURL,
		Prefix:   cfg.State.Prefix,
	})
	if err != nil {
		return nil, &pieceserrors.ConfigError{Key: "state", Reason: "cannot open trigger store", Cause: err}
	}
	states, err := polling.NewStateManager(polling.StateConfig{Path: cfg.State.PollPath})
	if err != nil {
		st.Close()
		return nil, &pieceserrors.ConfigError{Key: "state.poll_path", Reason: "cannot open polling state", Cause: err}
	}

	rt, err := server.NewRuntime(server.Options{
		Config:        cfg,
		Pieces:        server.PieceSource(PieceCache(cfg, logger)),
		Store:         st,
		States:        states,
		Emitter:       emitter,
		MeterProvider: mp,
		Logger:        logger,
	})
	if err != nil {
		states.Close()
		st.Close()
		return nil, err
	}
	return &Runtime{Runtime: rt, store: st, states: states}, nil
}
