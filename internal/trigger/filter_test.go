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

package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Match(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		data       interface{}
		want       bool
	}{
		{"empty matches", "", map[string]interface{}{}, true},
		{"field equal", `data.status == "completed"`, map[string]interface{}{"status": "completed"}, true},
		{"field differs", `data.status == "completed"`, map[string]interface{}{"status": "queued"}, false},
		{"numeric", `data.duration > 60`, map[string]interface{}{"duration": float64(90)}, true},
		{"piece var", `piece == "aircall"`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := CompileFilter(tt.expression)
			require.NoError(t, err)

			got, err := f.Match(Event{Piece: "aircall", Data: tt.data})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileFilter_Invalid(t *testing.T) {
	_, err := CompileFilter(`data.status ==`)
	assert.Error(t, err)
}
