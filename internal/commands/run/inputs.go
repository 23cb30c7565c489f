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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

// addInputFlag registers the repeatable --input flag.
func addInputFlag(fs *pflag.FlagSet) {
	fs.StringArrayP("input", "i", nil, "Input as key=value (repeatable)")
}

// ParseInputs merges the inputs of a JSON file and of k=v pairs; pairs win.
// A file of "-" is read from stdin. A pair value that looks like a JSON
// object or array is decoded, so list inputs can be given inline.
func ParseInputs(pairs []string, file string, stdin io.Reader) (map[string]interface{}, error) {
	inputs := make(map[string]interface{})

	if file != "" {
		var (
			data []byte
			err  error
		)
		if file == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(file)
		}
		if err != nil {
			return nil, fmt.Errorf("read inputs: %w", err)
		}
		if err := json.Unmarshal(data, &inputs); err != nil {
			return nil, &pieceserrors.ValidationError{
				Field:      "inputs",
				Message:    fmt.Sprintf("inputs file is not a JSON object: %v", err),
				Suggestion: `Pass an object such as {"call_id": 123}`,
			}
		}
		if inputs == nil {
			inputs = make(map[string]interface{})
		}
	}

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, &pieceserrors.ValidationError{
				Field:      "input",
				Message:    fmt.Sprintf("invalid input %q", pair),
				Suggestion: "Use key=value, e.g. --input call_id=123",
			}
		}
		inputs[key] = inlineValue(value)
	}

	return inputs, nil
}

func inlineValue(s string) interface{} {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var v interface{}
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return s
}
