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

// Package cli assembles the pieces command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/tombee/pieces/internal/commands/auth"
	"github.com/tombee/pieces/internal/commands/catalog"
	"github.com/tombee/pieces/internal/commands/run"
	"github.com/tombee/pieces/internal/commands/serve"
	"github.com/tombee/pieces/internal/commands/shared"
	"github.com/tombee/pieces/internal/commands/triggers"
	versioncmd "github.com/tombee/pieces/internal/commands/version"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root command without subcommands.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pieces",
		Short: "pieces - typed actions and triggers for SaaS APIs",
		Long: `pieces runs typed operations against SaaS APIs (Aircall, SAP Ariba,
AssemblyAI, Famulor, Google Drive, Grok, Hunter, Retell AI, TrueLayer) and
turns their changes into trigger events by polling or webhooks.

Run 'pieces list' to see the available pieces and operations.
Run 'pieces describe <piece>.<operation>' to see what an operation accepts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	verbose, json, config := shared.RegisterFlagPointers()

	cmd.PersistentFlags().BoolVarP(verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(json, "json", false, "Output in JSON format")
	cmd.PersistentFlags().StringVar(config, "config", "", "Path to config file (default: ~/.config/pieces/config.yaml)")

	return cmd
}

// NewCommand creates the root command with every subcommand attached.
func NewCommand() *cobra.Command {
	cmd := NewRootCommand()

	cmd.AddCommand(catalog.NewListCommand())
	cmd.AddCommand(catalog.NewDescribeCommand())
	cmd.AddCommand(run.NewRunCommand())
	cmd.AddCommand(run.NewOptionsCommand())
	cmd.AddCommand(auth.NewAuthCommand())
	cmd.AddCommand(triggers.NewTriggersCommand())
	cmd.AddCommand(serve.NewServeCommand())
	cmd.AddCommand(versioncmd.NewVersionCommand())

	return cmd
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
