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
)

// ListEntry is one row of `pieces triggers list`.
type ListEntry struct {
	*server.Status
	Error string `json:"error,omitempty"`
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show configured triggers and their state",
		Example: `  pieces triggers list
  pieces triggers list --json`,
		Args: cobra.NoArgs,
		RunE: runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	return withRuntime(cmd, nil, func(ctx context.Context, cfg *config.Config, rt *server.Runtime) error {
		entries := make([]ListEntry, 0, len(cfg.Triggers))
		for _, tc := range cfg.Triggers {
			st, err := rt.Status(ctx, tc.ID)
			if err != nil {
				entries = append(entries, ListEntry{
					Status: &server.Status{TriggerID: tc.ID, Piece: tc.Piece, Trigger: tc.Trigger},
					Error:  err.Error(),
				})
				continue
			}
			entries = append(entries, ListEntry{Status: st})
		}

		if shared.GetJSON() {
			return shared.EmitJSON(cmd.OutOrStdout(), "triggers list", entries)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, shared.Bold.Render("Triggers:"))
		if len(entries) == 0 {
			fmt.Fprintln(out, shared.Muted.Render("  (none)"))
			return nil
		}
		for _, e := range entries {
			if e.Error != "" {
				fmt.Fprintf(out, "  %s %s\n", shared.Bold.Render(e.TriggerID), shared.RenderError(e.Error))
				continue
			}
			printStatus(out, e.Status)
		}
		return nil
	})
}
