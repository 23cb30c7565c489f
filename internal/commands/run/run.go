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

// Package run implements the commands that call piece operations.
package run

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tombee/pieces/internal/commands/shared"
	"github.com/tombee/pieces/internal/jq"
	"github.com/tombee/pieces/internal/log"
	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/operation/transport"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <piece>.<operation>",
		Short: "Run a piece operation",
		Long: `Run one operation of a piece and print its response as JSON.

Inputs are validated against the operation's properties before any request
is sent. String values given with --input are converted to the declared
type; JSON objects and arrays may be given inline.`,
		Example: `  # Tag a call
  pieces run aircall.tag_call --input call_id=123 --input 'tags=[{"tag_id":7}]'

  # Inputs from a file, filtered output
  pieces run hunter.domain_search --inputs search.json --jq '.data.emails[].value'`,
		Args: cobra.ExactArgs(1),
		RunE: runOperation,
	}

	addInputFlag(cmd.Flags())
	cmd.Flags().String("inputs", "", "JSON file of inputs ('-' for stdin)")
	cmd.Flags().String("jq", "", "jq expression applied to the response")

	return cmd
}

func runOperation(cmd *cobra.Command, args []string) error {
	pieceName, opName, err := operation.ParseReference(args[0])
	if err != nil {
		return err
	}

	pairs, _ := cmd.Flags().GetStringArray("input")
	file, _ := cmd.Flags().GetString("inputs")
	expr, _ := cmd.Flags().GetString("jq")

	filter, err := jq.Compile(expr)
	if err != nil {
		return err
	}
	inputs, err := ParseInputs(pairs, file, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, err := shared.LoadConfig()
	if err != nil {
		return err
	}
	logger := shared.NewLogger(cfg)

	p, err := shared.NewPiece(cfg, pieceName, logger)
	if err != nil {
		return err
	}
	schema := p.OperationSchema(opName)
	if schema == nil {
		return operation.UnknownOperation(pieceName, opName)
	}
	inputs = schema.Properties.Coerce(inputs)

	correlationID := uuid.NewString()
	ctx := transport.WithCorrelationID(cmd.Context(), correlationID)
	logger.Debug("running operation",
		slog.String(log.PieceKey, pieceName),
		slog.String(log.OperationKey, opName),
		slog.String("correlation_id", correlationID))

	result, err := p.Execute(ctx, opName, inputs)
	if err != nil {
		return err
	}

	out, err := filter.Run(ctx, result.GetResponse())
	if err != nil {
		return fmt.Errorf("filter response: %w", err)
	}

	if shared.GetJSON() {
		return shared.EmitJSON(cmd.OutOrStdout(), "run", out)
	}
	return shared.EmitRaw(cmd.OutOrStdout(), out)
}
