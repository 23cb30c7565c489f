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

// Package triggers implements the commands that manage trigger instances.
package triggers

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/pieces/internal/commands/shared"
	"github.com/tombee/pieces/internal/config"
	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/server"
	"github.com/tombee/pieces/internal/trigger"
)

// NewTriggersCommand creates the triggers command with subcommands.
func NewTriggersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "triggers",
		Short: "Manage trigger instances",
		Long: `Manage the trigger instances declared under triggers: in the config file.

Enabling a polling trigger records a watermark so only newer items fire.
Enabling a webhook trigger registers the callback URL with the vendor.
'pieces serve' enables every configured trigger on start.

Subcommands:
  list     - Show configured triggers and their state
  enable   - Enable a trigger
  disable  - Disable a trigger and drop its state
  poll     - Run one poll and print the new events
  test     - Print sample items without moving the watermark`,
	}

	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newEnableCommand())
	cmd.AddCommand(newDisableCommand())
	cmd.AddCommand(newPollCommand())
	cmd.AddCommand(newTestCommand())

	return cmd
}

// collector gathers the events a command run emits.
type collector struct {
	mu     sync.Mutex
	events []trigger.Event
}

func (c *collector) emit(_ context.Context, e trigger.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *collector) all() []trigger.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.events == nil {
		return []trigger.Event{}
	}
	return append([]trigger.Event(nil), c.events...)
}

// withRuntime loads the config, opens a runtime and runs fn against it.
func withRuntime(cmd *cobra.Command, emitter trigger.Emitter, fn func(ctx context.Context, cfg *config.Config, rt *server.Runtime) error) error {
	cfg, err := shared.LoadConfig()
	if err != nil {
		return err
	}
	if emitter == nil {
		emitter = (&collector{}).emit
	}

	ctx := cmd.Context()
	rt, err := shared.OpenRuntime(ctx, cfg, shared.NewLogger(cfg), emitter, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	return fn(ctx, cfg, rt.Runtime)
}

func printStatus(out io.Writer, s *server.Status) {
	state := shared.Muted.Render("disabled")
	switch {
	case s.Paused:
		state = shared.StatusWarn.Render("paused")
	case s.Enabled:
		state = shared.StatusOK.Render("enabled")
	}
	fmt.Fprintf(out, "  %s %s %s [%s]\n",
		shared.Bold.Render(s.TriggerID),
		s.Piece+"."+s.Trigger,
		shared.Muted.Render("("+string(s.Kind)+")"),
		state)

	switch {
	case s.Kind == api.TriggerWebhook && s.WebhookID != "":
		fmt.Fprintf(out, "      %s %s\n", shared.RenderLabel("webhook:"), s.WebhookID)
		fmt.Fprintf(out, "      %s %s\n", shared.RenderLabel("callback:"), s.CallbackURL)
	case s.Kind == api.TriggerPolling && s.WatermarkMS > 0:
		fmt.Fprintf(out, "      %s %s\n", shared.RenderLabel("watermark:"),
			time.UnixMilli(s.WatermarkMS).UTC().Format(time.RFC3339))
	}
}
