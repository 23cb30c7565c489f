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

package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/tombee/pieces/internal/commands/catalog"
	"github.com/tombee/pieces/internal/commands/shared"
)

func TestNewCommand_Subcommands(t *testing.T) {
	cmd := NewCommand()

	want := []string{"list", "describe", "run", "options", "auth", "triggers", "serve", "version"}
	for _, name := range want {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestNewCommand_GlobalFlags(t *testing.T) {
	cmd := NewCommand()
	for _, name := range []string{"verbose", "json", "config"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing persistent flag --%s", name)
		}
	}
}

func TestNewCommand_JSONFlag(t *testing.T) {
	defer shared.SetJSONForTest(false)

	cmd := NewCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"list", "--json", "--filter", "grok"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("list failed: %v", err)
	}

	var resp struct {
		Command string                 `json:"command"`
		Data    []catalog.PieceSummary `json:"data"`
	}
	if err := json.Unmarshal(buf.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if resp.Command != "list" || len(resp.Data) != 1 || resp.Data[0].Name != "grok" {
		t.Errorf("unexpected response: %+v", resp)
	}
}
