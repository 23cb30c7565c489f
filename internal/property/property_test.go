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

package property

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

var callSchema = Schema{
	Text("phone_number", "Phone Number", Required, Pattern(`^\+[1-9]\d{6,14}$`)),
	Text("email", "Email", Format("email")),
	New(LongText, "content", "Comment", MaxLength(5000)),
	Num("limit", "Limit", Min(1), Max(100), Default(10)),
	New(StaticDropdown, "direction", "Direction", Choices(
		Option{Label: "Inbound", Value: "inbound"},
		Option{Label: "Outbound", Value: "outbound"},
	)),
	New(Array, "tags", "Tags", Of(Num("tag_id", "Tag ID", Required))),
}

func TestSchema_Validate(t *testing.T) {
	long := make([]byte, 5001)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name      string
		inputs    map[string]interface{}
		wantField string
	}{
		{
			name:   "valid",
			inputs: map[string]interface{}{"phone_number": "+14155550100", "limit": 5, "direction": "inbound"},
		},
		{
			name:   "nil optional is absent",
			inputs: map[string]interface{}{"phone_number": "+14155550100", "email": nil},
		},
		{
			name:      "missing required",
			inputs:    map[string]interface{}{},
			wantField: "phone_number",
		},
		{
			name:      "empty required",
			inputs:    map[string]interface{}{"phone_number": ""},
			wantField: "phone_number",
		},
		{
			name:      "bad phone",
			inputs:    map[string]interface{}{"phone_number": "555-0100"},
			wantField: "phone_number",
		},
		{
			name:      "bad email",
			inputs:    map[string]interface{}{"phone_number": "+14155550100", "email": "not-an-email"},
			wantField: "email",
		},
		{
			name:      "comment too long",
			inputs:    map[string]interface{}{"phone_number": "+14155550100", "content": string(long)},
			wantField: "content",
		},
		{
			name:      "limit out of range",
			inputs:    map[string]interface{}{"phone_number": "+14155550100", "limit": 500},
			wantField: "limit",
		},
		{
			name:      "unknown option",
			inputs:    map[string]interface{}{"phone_number": "+14155550100", "direction": "sideways"},
			wantField: "direction",
		},
		{
			name: "nested item missing field",
			inputs: map[string]interface{}{
				"phone_number": "+14155550100",
				"tags":         []interface{}{map[string]interface{}{"tag_id": 1}, map[string]interface{}{}},
			},
			wantField: "tags[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := callSchema.Validate(tt.inputs)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *pieceserrors.ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.wantField, verr.Field)
			assert.NotEmpty(t, verr.Message)
		})
	}
}

func TestSchema_ValidateMessages(t *testing.T) {
	err := callSchema.Validate(map[string]interface{}{"phone_number": "+14155550100", "limit": 0})
	var verr *pieceserrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "must be greater than or equal to 1", verr.Message)
}

func TestSchema_ApplyDefaults(t *testing.T) {
	in := map[string]interface{}{"phone_number": "+1", "limit": nil}
	out := callSchema.ApplyDefaults(in)

	assert.Equal(t, 10, out["limit"])
	assert.Nil(t, in["limit"], "input map must not be modified")
}

func TestSchema_Coerce(t *testing.T) {
	s := Schema{
		Num("limit", "Limit"),
		Bool("verbose", "Verbose"),
		New(Array, "ids", "IDs"),
		New(JSON, "payload", "Payload"),
	}

	out := s.Coerce(map[string]interface{}{
		"limit":   "25",
		"verbose": "true",
		"ids":     "a, b",
		"payload": `{"k":1}`,
		"other":   "x",
	})

	assert.Equal(t, float64(25), out["limit"])
	assert.Equal(t, true, out["verbose"])
	assert.Equal(t, []interface{}{"a", "b"}, out["ids"])
	assert.Equal(t, map[string]interface{}{"k": float64(1)}, out["payload"])
	assert.Equal(t, "x", out["other"])
}

func TestLoadOptions(t *testing.T) {
	ok := func(ctx context.Context, inputs map[string]interface{}) ([]Option, error) {
		return []Option{{Label: "Sales", Value: 1}}, nil
	}
	failing := func(ctx context.Context, inputs map[string]interface{}) ([]Option, error) {
		return nil, errors.New("401")
	}
	panicking := func(ctx context.Context, inputs map[string]interface{}) ([]Option, error) {
		var m map[string]int
		m["boom"] = 1
		return nil, nil
	}

	tests := []struct {
		name          string
		prop          Property
		authenticated bool
		wantDisabled  bool
		wantOptions   int
	}{
		{"loaded", New(Dropdown, "team", "Team", LoadWith(ok)), true, false, 1},
		{"no credential", New(Dropdown, "team", "Team", LoadWith(ok)), false, true, 0},
		{"loader error", New(Dropdown, "team", "Team", LoadWith(failing)), true, true, 0},
		{"loader panic", New(Dropdown, "team", "Team", LoadWith(panicking)), true, true, 0},
		{"static", New(StaticDropdown, "dir", "Dir", Choices(Option{Label: "In", Value: "in"})), false, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := LoadOptions(context.Background(), tt.prop, tt.authenticated, nil)
			assert.Equal(t, tt.wantDisabled, state.Disabled)
			require.NotNil(t, state.Options)
			assert.Len(t, state.Options, tt.wantOptions)
		})
	}
}
