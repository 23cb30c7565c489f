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

package run

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tombee/pieces/internal/commands/shared"
	"github.com/tombee/pieces/internal/operation"
)

// NewOptionsCommand creates the options command.
func NewOptionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "options <piece>.<operation> <property>",
		Short: "List the choices of a dropdown property",
		Long: `Load the choices of a dropdown property from the vendor.

The operation may also name a trigger. Inputs the dropdown depends on are
given with --input.`,
		Example: `  pieces options aircall.tag_call tag_id
  pieces options truelayer.new_transaction account_id --json`,
		Args: cobra.ExactArgs(2),
		RunE: runOptions,
	}

	addInputFlag(cmd.Flags())

	return cmd
}

func runOptions(cmd *cobra.Command, args []string) error {
	pieceName, opName, err := operation.ParseReference(args[0])
	if err != nil {
		return err
	}
	pairs, _ := cmd.Flags().GetStringArray("input")
	inputs, err := ParseInputs(pairs, "", nil)
	if err != nil {
		return err
	}

	cfg, err := shared.LoadConfig()
	if err != nil {
		return err
	}
	p, err := shared.NewPiece(cfg, pieceName, shared.NewLogger(cfg))
	if err != nil {
		return err
	}

	state := p.Options(cmd.Context(), opName, args[1], inputs)

	if shared.GetJSON() {
		return shared.EmitJSON(cmd.OutOrStdout(), "options", state)
	}

	out := cmd.OutOrStdout()
	if state.Disabled {
		fmt.Fprintln(out, shared.RenderWarn(state.Placeholder))
		return nil
	}
	if len(state.Options) == 0 {
		fmt.Fprintln(out, shared.Muted.Render("(no options)"))
		return nil
	}
	for _, o := range state.Options {
		fmt.Fprintf(out, "%-24v %s\n", o.Value, shared.Muted.Render(o.Label))
	}
	return nil
}
