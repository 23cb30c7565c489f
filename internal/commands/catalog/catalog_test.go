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
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/pieces/internal/commands/shared"
	"github.com/tombee/pieces/internal/integration"
	"github.com/tombee/pieces/internal/operation"
	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

func TestList_All(t *testing.T) {
	summaries, err := List("")
	require.NoError(t, err)
	require.Len(t, summaries, len(integration.Names()))
	for _, s := range summaries {
		assert.NotEmpty(t, s.Operations, s.Name)
	}
}

func TestList_Filter(t *testing.T) {
	tests := []struct {
		pattern string
		pieces  []string
		ops     map[string][]string
	}{
		{
			pattern: "aircall",
			pieces:  []string{"aircall"},
		},
		{
			pattern: "aircall.*_call",
			pieces:  []string{"aircall"},
			ops:     map[string][]string{"aircall": {"tag_call", "comment_call", "get_call"}},
		},
		{
			pattern: "nothing*",
			pieces:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			summaries, err := List(tt.pattern)
			require.NoError(t, err)

			var names []string
			for _, s := range summaries {
				names = append(names, s.Name)
				if want, ok := tt.ops[s.Name]; ok {
					assert.ElementsMatch(t, want, s.Operations)
					assert.Empty(t, s.Triggers)
				}
			}
			assert.Equal(t, tt.pieces, names)
		})
	}
}

func TestList_InvalidPattern(t *testing.T) {
	_, err := List("[")
	assert.True(t, pieceserrors.IsValidation(err))
}

func TestListCommand_JSON(t *testing.T) {
	shared.SetJSONForTest(true)
	defer shared.SetJSONForTest(false)

	cmd := NewListCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--filter", "hunter"})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Success bool           `json:"success"`
		Data    []PieceSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "hunter", resp.Data[0].Name)
}

func TestDescribe(t *testing.T) {
	p, err := lookup("aircall")
	require.NoError(t, err)

	d, err := Describe(p, "tag_call")
	require.NoError(t, err)
	assert.Equal(t, "operation", d.Kind)
	assert.Equal(t, []string{"call_id", "tags"}, d.InputSchema["required"])

	d, err = Describe(p, "call_ended")
	require.NoError(t, err)
	assert.Equal(t, "webhook trigger", d.Kind)

	_, err = Describe(p, "nope")
	var opErr *operation.Error
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, operation.ErrorTypeUnknownOperation, opErr.Type)
}

func TestDescribeCommand_Text(t *testing.T) {
	cmd := NewDescribeCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"aircall.tag_call"})
	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "aircall.tag_call")
	assert.Contains(t, out, "call_id*")
	assert.Contains(t, out, "tag_id*")
}

func TestDescribeCommand_UnknownPiece(t *testing.T) {
	cmd := NewDescribeCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"nope"})
	err := cmd.Execute()
	assert.True(t, pieceserrors.IsNotFound(err))
}
