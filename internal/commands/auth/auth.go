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

// Package auth implements the credential commands.
package auth

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/pieces/internal/commands/shared"
	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

// TestResult is the outcome of `pieces auth test`.
type TestResult struct {
	Piece      string `json:"piece"`
	OK         bool   `json:"ok"`
	DurationMS int64  `json:"duration_ms"`
}

// NewAuthCommand creates the auth command group.
func NewAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Check piece credentials",
	}

	cmd.AddCommand(newTestCommand())

	return cmd
}

func newTestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test <piece>",
		Short: "Validate the credential of a piece",
		Long: `Validate the configured credential of a piece with a cheap read call
to the vendor API.`,
		Example: `  pieces auth test hunter`,
		Args:    cobra.ExactArgs(1),
		RunE:    runTest,
	}
}

func runTest(cmd *cobra.Command, args []string) error {
	name := args[0]

	cfg, err := shared.LoadConfig()
	if err != nil {
		return err
	}
	p, err := shared.NewPiece(cfg, name, shared.NewLogger(cfg))
	if err != nil {
		return err
	}
	if cfg.Pieces[name].Auth.IsZero() {
		return &pieceserrors.ConfigError{
			Key:    "pieces." + name + ".auth",
			Reason: "no credential configured",
		}
	}

	start := time.Now()
	if err := p.Ping(cmd.Context()); err != nil {
		return err
	}
	result := TestResult{Piece: name, OK: true, DurationMS: time.Since(start).Milliseconds()}

	if shared.GetJSON() {
		return shared.EmitJSON(cmd.OutOrStdout(), "auth test", result)
	}
	fmt.Fprintln(cmd.OutOrStdout(), shared.RenderOK(fmt.Sprintf("%s: credential accepted %s",
		name, shared.Muted.Render(fmt.Sprintf("(%dms)", result.DurationMS)))))
	return nil
}
