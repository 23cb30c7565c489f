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

func newEnableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <trigger-id>",
		Short: "Enable a trigger",
		Long: `Enable a trigger instance. A polling trigger records the newest item
as its watermark; a webhook trigger subscribes its callback URL at the
vendor. Enabling an enabled trigger changes nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: runEnable,
	}
}

func runEnable(cmd *cobra.Command, args []string) error {
	return withRuntime(cmd, nil, func(ctx context.Context, _ *config.Config, rt *server.Runtime) error {
		st, err := rt.Enable(ctx, args[0])
		if err != nil {
			return err
		}
		st.Enabled = true

		if shared.GetJSON() {
			return shared.EmitJSON(cmd.OutOrStdout(), "triggers enable", st)
		}
		printStatus(cmd.OutOrStdout(), st)
		return nil
	})
}

func newDisableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <trigger-id>",
		Short: "Disable a trigger and drop its state",
		Long: `Disable a trigger instance. A polling trigger loses its watermark; a
webhook trigger's subscription is deleted at the vendor.`,
		Args: cobra.ExactArgs(1),
		RunE: runDisable,
	}
}

func runDisable(cmd *cobra.Command, args []string) error {
	return withRuntime(cmd, nil, func(ctx context.Context, _ *config.Config, rt *server.Runtime) error {
		if err := rt.Disable(ctx, args[0]); err != nil {
			return err
		}

		if shared.GetJSON() {
			return shared.EmitJSON(cmd.OutOrStdout(), "triggers disable", map[string]string{"trigger_id": args[0]})
		}
		fmt.Fprintln(cmd.OutOrStdout(), shared.RenderOK(args[0]+" disabled"))
		return nil
	})
}
