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
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/tombee/pieces/internal/log"
)

// Server exposes the webhook receiver, a health check, and optionally
// metrics over HTTP while the runtime polls.
type Server struct {
	runtime         *Runtime
	http            *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// NewServer creates a server listening on addr. metrics may be nil.
func NewServer(rt *Runtime, addr string, metrics http.Handler, shutdownTimeout time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	logger = log.WithComponent(logger, "server")
	if shutdownTimeout <= 0 {
		shutdownTimeout = 15 * time.Second
	}

	mux := http.NewServeMux()
	rt.Receiver().RegisterRoutes(mux)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	return &Server{
		runtime: rt,
		http: &http.Server{
			Addr:              addr,
			Handler:           log.Middleware(logger, mux),
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run activates the configured triggers, serves HTTP, and blocks until ctx
// is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	active := s.runtime.Activate(ctx)
	if err := s.runtime.Start(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()
	s.logger.Info("trigger server listening",
		slog.String("addr", ln.Addr().String()),
		slog.Int("triggers", active))

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http shutdown", slog.Any("error", err))
	}
	if err := s.runtime.Stop(shutdownCtx); err != nil {
		s.logger.Warn("polling shutdown", slog.Any("error", err))
	}

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return nil
}
