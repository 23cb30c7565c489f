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

// Package serve implements the trigger server command.
package serve

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"

	"github.com/tombee/pieces/internal/commands/shared"
	"github.com/tombee/pieces/internal/server"
	"github.com/tombee/pieces/internal/tracing"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the trigger server",
		Long: `Enable every configured trigger, poll on schedule, and receive webhook
deliveries at POST /webhooks/<trigger-id>.

Each trigger event is written to stdout as one JSON object per line. Logs
go to stderr. GET /healthz reports liveness; GET /metrics serves Prometheus
metrics when server.metrics is set.`,
		Example: `  pieces serve
  pieces serve --listen :9090 --config ./pieces.yaml | jq .data`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("listen", "", "Listen address (overrides server.listen)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := shared.LoadConfig()
	if err != nil {
		return err
	}
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Server.Listen = listen
	}
	logger := shared.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		mp      metric.MeterProvider
		handler http.Handler
	)
	if cfg.Server.Metrics {
		v, _, _ := shared.GetVersion()
		metrics, err := tracing.NewMetricsProvider("pieces", v)
		if err != nil {
			return err
		}
		defer shutdown(metrics, logger)
		mp, handler = metrics.MeterProvider(), metrics.Handler()
	}

	rt, err := shared.OpenRuntime(ctx, cfg, logger, server.JSONLinesEmitter(cmd.OutOrStdout()), mp)
	if err != nil {
		return err
	}
	defer rt.Close()

	srv := server.NewServer(rt.Runtime, cfg.Server.Listen, handler, cfg.Server.ShutdownTimeout, logger)
	return srv.Run(ctx)
}

func shutdown(metrics *tracing.MetricsProvider, logger *slog.Logger) {
	if err := metrics.Shutdown(context.Background()); err != nil {
		logger.Warn("metrics shutdown", slog.Any("error", err))
	}
}
