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

// Package catalog implements the commands that browse the built-in pieces.
package catalog

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/tombee/pieces/internal/commands/shared"
	"github.com/tombee/pieces/internal/integration"
	"github.com/tombee/pieces/internal/operation/api"
	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

// PieceSummary is one entry of `pieces list`.
type PieceSummary struct {
	Name       string   `json:"name"`
	Operations []string `json:"operations"`
	Triggers   []string `json:"triggers"`
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pieces and their operations",
		Long: `List the built-in pieces with their operations and triggers.

The --filter glob is matched against piece names and against
piece.operation references.`,
		Example: `  # Everything
  pieces list

  # One piece
  pieces list --filter aircall

  # All contact operations
  pieces list --filter '*.*_contact'`,
		Args: cobra.NoArgs,
		RunE: runList,
	}

	cmd.Flags().String("filter", "", "Glob matched against piece or piece.operation")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	pattern, _ := cmd.Flags().GetString("filter")
	summaries, err := List(pattern)
	if err != nil {
		return err
	}

	if shared.GetJSON() {
		return shared.EmitJSON(cmd.OutOrStdout(), "list", summaries)
	}

	out := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(out, shared.Muted.Render("No pieces match "+pattern))
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintln(out, shared.Header.Render(s.Name))
		for _, op := range s.Operations {
			fmt.Fprintf(out, "  %s\n", op)
		}
		if len(s.Triggers) > 0 {
			fmt.Fprintf(out, "  %s %s\n", shared.RenderLabel("triggers:"), strings.Join(s.Triggers, ", "))
		}
	}
	return nil
}

// List returns the pieces and operations matching pattern. An empty
// pattern matches everything.
func List(pattern string) ([]PieceSummary, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, &pieceserrors.ValidationError{
			Field:      "filter",
			Message:    fmt.Sprintf("invalid glob %q", pattern),
			Suggestion: "Use * and ? wildcards, e.g. 'aircall.*'",
		}
	}

	var summaries []PieceSummary
	for _, name := range integration.Names() {
		p, err := integration.New(name, nil)
		if err != nil {
			return nil, err
		}

		whole := pattern == "" || match(pattern, name)
		s := PieceSummary{Name: name, Operations: []string{}, Triggers: []string{}}
		for _, op := range p.Operations() {
			if whole || match(pattern, name+"."+op.Name) {
				s.Operations = append(s.Operations, op.Name)
			}
		}
		if whole {
			for _, t := range p.Triggers() {
				s.Triggers = append(s.Triggers, t.Name)
			}
		}
		if whole || len(s.Operations) > 0 {
			summaries = append(summaries, s)
		}
	}
	if summaries == nil {
		summaries = []PieceSummary{}
	}
	return summaries, nil
}

func match(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}

// lookup creates a piece for metadata only.
func lookup(name string) (api.Piece, error) {
	return integration.New(name, nil)
}
