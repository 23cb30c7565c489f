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

package catalog

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/pieces/internal/commands/shared"
	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/property"
)

// PieceDescription is the output of `pieces describe <piece>`.
type PieceDescription struct {
	Name       string              `json:"name"`
	Operations []api.OperationInfo `json:"operations"`
	Triggers   []api.TriggerInfo   `json:"triggers"`
}

// ItemDescription is the output of `pieces describe <piece>.<name>` for an
// operation or a trigger.
type ItemDescription struct {
	Piece       string                  `json:"piece"`
	Name        string                  `json:"name"`
	Kind        string                  `json:"kind"`
	Description string                  `json:"description"`
	Properties  property.Schema         `json:"properties"`
	InputSchema map[string]interface{}  `json:"input_schema"`
	Response    []api.ResponseFieldInfo `json:"response_fields,omitempty"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <piece>[.<operation>]",
		Short: "Show the operations of a piece or the inputs of an operation",
		Long: `Describe a piece, one of its operations, or one of its triggers.

For an operation or trigger the declared properties are shown along with
the JSON Schema its inputs are validated against.`,
		Example: `  pieces describe aircall
  pieces describe aircall.tag_call
  pieces describe aircall.call_ended --json`,
		Args: cobra.ExactArgs(1),
		RunE: runDescribe,
	}
}

func runDescribe(cmd *cobra.Command, args []string) error {
	name, item, _ := strings.Cut(args[0], ".")
	p, err := lookup(name)
	if err != nil {
		return err
	}

	if item == "" {
		desc := PieceDescription{Name: p.Name(), Operations: p.Operations(), Triggers: p.Triggers()}
		if shared.GetJSON() {
			return shared.EmitJSON(cmd.OutOrStdout(), "describe", desc)
		}
		printPiece(cmd.OutOrStdout(), desc)
		return nil
	}

	desc, err := Describe(p, item)
	if err != nil {
		return err
	}
	if shared.GetJSON() {
		return shared.EmitJSON(cmd.OutOrStdout(), "describe", desc)
	}
	printItem(cmd.OutOrStdout(), desc)
	return nil
}

// Describe returns the description of an operation or trigger of p.
func Describe(p api.Piece, name string) (*ItemDescription, error) {
	if schema := p.OperationSchema(name); schema != nil {
		return &ItemDescription{
			Piece:       p.Name(),
			Name:        name,
			Kind:        "operation",
			Description: schema.Description,
			Properties:  nonNil(schema.Properties),
			InputSchema: schema.Properties.JSONSchema(),
			Response:    schema.ResponseFields,
		}, nil
	}

	for _, t := range p.Triggers() {
		if t.Name == name {
			return &ItemDescription{
				Piece:       p.Name(),
				Name:        name,
				Kind:        string(t.Kind) + " trigger",
				Description: t.Description,
				Properties:  nonNil(t.Properties),
				InputSchema: t.Properties.JSONSchema(),
			}, nil
		}
	}

	return nil, operation.UnknownOperation(p.Name(), name)
}

func nonNil(s property.Schema) property.Schema {
	if s == nil {
		return property.Schema{}
	}
	return s
}

func printPiece(out io.Writer, d PieceDescription) {
	fmt.Fprintln(out, shared.Header.Render(d.Name))
	fmt.Fprintln(out)

	fmt.Fprintln(out, shared.Bold.Render("Operations:"))
	for _, op := range d.Operations {
		fmt.Fprintf(out, "  %-20s %s %s\n", op.Name, op.Description,
			shared.Muted.Render("["+strings.Join(append([]string{op.Category}, op.Tags...), ", ")+"]"))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, shared.Bold.Render("Triggers:"))
	if len(d.Triggers) == 0 {
		fmt.Fprintln(out, shared.Muted.Render("  (none)"))
	}
	for _, t := range d.Triggers {
		fmt.Fprintf(out, "  %-20s %s %s\n", t.Name, t.Description, shared.Muted.Render("("+string(t.Kind)+")"))
	}
}

func printItem(out io.Writer, d *ItemDescription) {
	fmt.Fprintf(out, "%s %s\n", shared.Header.Render(d.Piece+"."+d.Name), shared.Muted.Render("("+d.Kind+")"))
	fmt.Fprintln(out, d.Description)
	fmt.Fprintln(out)

	fmt.Fprintln(out, shared.Bold.Render("Properties:"))
	if len(d.Properties) == 0 {
		fmt.Fprintln(out, shared.Muted.Render("  (none)"))
	}
	printProperties(out, d.Properties, "  ")

	if len(d.Response) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, shared.Bold.Render("Response fields:"))
		for _, f := range d.Response {
			fmt.Fprintf(out, "  %-24s %-8s %s\n", f.Name, f.Type, f.Description)
		}
	}
}

func printProperties(out io.Writer, props property.Schema, indent string) {
	for _, p := range props {
		name := p.Name
		if p.Required {
			name += "*"
		}
		fmt.Fprintf(out, "%s%-22s %-22s %s\n", indent, name, shared.Muted.Render(string(p.Type)), p.Description)
		if len(p.Options) > 0 {
			labels := make([]string, 0, len(p.Options))
			for _, o := range p.Options {
				labels = append(labels, fmt.Sprintf("%v", o.Value))
			}
			fmt.Fprintf(out, "%s  %s %s\n", indent, shared.RenderLabel("one of:"), strings.Join(labels, ", "))
		}
		if p.Dynamic() {
			fmt.Fprintf(out, "%s  %s\n", indent, shared.RenderLabel("options are loaded from the vendor"))
		}
		if len(p.Items) > 0 {
			printProperties(out, p.Items, indent+"  ")
		}
	}
}
