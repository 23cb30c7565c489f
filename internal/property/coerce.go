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
	"encoding/json"
	"strconv"
	"strings"
)

// Coerce converts string inputs, as typed on a command line, to the value
// type each property expects. Values that do not parse are left as strings
// so Validate reports them.
func (s Schema) Coerce(inputs map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(inputs))
	for k, v := range inputs {
		out[k] = v
		str, ok := v.(string)
		if !ok {
			continue
		}
		p, ok := s.Get(k)
		if !ok {
			continue
		}
		out[k] = coerceString(p.Type, str)
	}
	return out
}

func coerceString(t Type, s string) interface{} {
	switch t {
	case Number:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case Checkbox:
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	case Array, MultiSelectDropdown:
		trimmed := strings.TrimSpace(s)
		if strings.HasPrefix(trimmed, "[") {
			var v []interface{}
			if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
				return v
			}
		}
		if trimmed == "" {
			return []interface{}{}
		}
		parts := strings.Split(trimmed, ",")
		out := make([]interface{}, 0, len(parts))
		for _, part := range parts {
			out = append(out, strings.TrimSpace(part))
		}
		return out
	case Object, JSON:
		var v interface{}
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}
	return s
}
