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

package triggers

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tombee/pieces/internal/commands/shared"
	"github.com/tombee/pieces/internal/config"
	"github.com/tombee/pieces/internal/server"
	"github.com/tombee/pieces/internal/trigger/polling"
)

func newPollCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "poll <trigger-id>",
		Short: "Run one poll and print the new events",
		Long: `Run one poll of a polling trigger, enabling it first if needed. Events
newer than the watermark pass the trigger filter and are printed one JSON
object per line; the watermark then advances.`,
		Args: cobra.ExactArgs(1),
		RunE: runPoll,
	}
}

func runPoll(cmd *cobra.Command, args []string) error {
	events := &collector{}
	return withRuntime(cmd, events.emit, func(ctx context.Context, _ *config.Config, rt *server.Runtime) error {
		if _, err := rt.Poll(ctx, args[0]); err != nil {
			return err
		}

		if shared.GetJSON() {
			return shared.EmitJSON(cmd.OutOrStdout(), "triggers poll", events.all())
		}
		emit := server.JSONLinesEmitter(cmd.OutOrStdout())
		for _, e := range events.all() {
			if err := emit(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func newTestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test <trigger-id>",
		Short: "Print sample items without moving the watermark",
		Args:  cobra.ExactArgs(1),
		RunE:  runTest,
	}
}

func runTest(cmd *cobra.Command, args []string) error {
	return withRuntime(cmd, nil, func(ctx context.Context, _ *config.Config, rt *server.Runtime) error {
		items, err := rt.Test(ctx, args[0])
		if err != nil {
			return err
		}
		if items == nil {
			items = []polling.Item{}
		}

		if shared.GetJSON() {
			return shared.EmitJSON(cmd.OutOrStdout(), "triggers test", items)
		}
		if len(items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), shared.Muted.Render("(no items)"))
			return nil
		}
		return shared.EmitRaw(cmd.OutOrStdout(), items)
	})
}
