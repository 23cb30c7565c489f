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
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/pieces/internal/commands/shared"
	"github.com/tombee/pieces/internal/testing/mock"
	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

// useConfig points the commands at an aircall connection served by srv.
func useConfig(t *testing.T, srv *mock.Server) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "pieces:\n  aircall:\n    base_url: " + srv.URL + "\n    auth:\n      username: id\n      password: token\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0600))
	shared.SetConfigPathForTest(path)
	t.Cleanup(func() { shared.SetConfigPathForTest("") })
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRunCommand()
	if args[0] == "options" {
		cmd = NewOptionsCommand()
		args = args[1:]
	}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseInputs(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "inputs.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"call_id": 1, "content": "from file"}`), 0600))

	inputs, err := ParseInputs([]string{"call_id=2", `tags=[{"tag_id":7}]`, "note=a=b"}, file, nil)
	require.NoError(t, err)
	assert.Equal(t, "2", inputs["call_id"])
	assert.Equal(t, "from file", inputs["content"])
	assert.Equal(t, []interface{}{map[string]interface{}{"tag_id": float64(7)}}, inputs["tags"])
	assert.Equal(t, "a=b", inputs["note"])

	inputs, err = ParseInputs(nil, "-", strings.NewReader(`{"x": true}`))
	require.NoError(t, err)
	assert.Equal(t, true, inputs["x"])
}

func TestParseInputs_Invalid(t *testing.T) {
	_, err := ParseInputs([]string{"novalue"}, "", nil)
	assert.True(t, pieceserrors.IsValidation(err))

	_, err = ParseInputs(nil, "-", strings.NewReader(`[1, 2]`))
	assert.True(t, pieceserrors.IsValidation(err))
}

func TestRun_WithFilter(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodGet, "/calls/123", http.StatusOK, map[string]interface{}{
		"call": map[string]interface{}{"id": 123, "status": "done", "duration": 42},
	})
	useConfig(t, srv)

	out, err := execute(t, "aircall.get_call", "--input", "call_id=123", "--jq", ".call.duration")
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)

	req := srv.Last()
	assert.Equal(t, "/calls/123", req.Path)
	assert.True(t, strings.HasPrefix(req.Header.Get("Authorization"), "Basic "))
	assert.NotEmpty(t, req.Header.Get("X-Correlation-ID"))
}

func TestRun_JSONEnvelope(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodGet, "/calls/5", http.StatusOK, map[string]interface{}{
		"call": map[string]interface{}{"id": 5},
	})
	useConfig(t, srv)
	shared.SetJSONForTest(true)
	defer shared.SetJSONForTest(false)

	out, err := execute(t, "aircall.get_call", "--input", "call_id=5")
	require.NoError(t, err)

	var resp shared.JSONResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "run", resp.Command)
}

func TestRun_ValidationShortCircuits(t *testing.T) {
	srv := mock.NewServer(t)
	useConfig(t, srv)

	_, err := execute(t, "aircall.tag_call", "--input", "call_id=123")
	require.Error(t, err)
	assert.Equal(t, shared.ExitInvalidInput, shared.ExitCode(err))
	assert.Equal(t, 0, srv.Count())
}

func TestRun_UnknownOperation(t *testing.T) {
	useConfig(t, mock.NewServer(t))

	_, err := execute(t, "aircall.nope")
	assert.Equal(t, shared.ExitNotFound, shared.ExitCode(err))

	_, err = execute(t, "aircall")
	assert.Equal(t, shared.ExitInvalidInput, shared.ExitCode(err))
}

func TestRun_VendorError(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodGet, "/calls/9", http.StatusNotFound, map[string]interface{}{
		"error": "Not found", "troubleshoot": "Call does not exist",
	})
	useConfig(t, srv)

	_, err := execute(t, "aircall.get_call", "--input", "call_id=9")
	require.Error(t, err)
	assert.Equal(t, shared.ExitOperationFailed, shared.ExitCode(err))
}

func TestOptions(t *testing.T) {
	srv := mock.NewServer(t).Handle(http.MethodGet, "/tags", http.StatusOK, map[string]interface{}{
		"tags": []interface{}{map[string]interface{}{"id": 7, "name": "VIP"}},
	})
	useConfig(t, srv)

	out, err := execute(t, "options", "aircall.tag_call", "tag_id")
	require.NoError(t, err)
	assert.Contains(t, out, "7")
	assert.Contains(t, out, "VIP")
}
