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

package api

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// FormatValue renders an input value for a URL. Whole floats print without
// a fractional part, since JSON decoding turns every number into float64.
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return FormatValue(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	case []interface{}:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			parts = append(parts, FormatValue(item))
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(x, ",")
	default:
		return fmt.Sprint(x)
	}
}

// Query encodes the named inputs, skipping nil and empty values.
func Query(inputs map[string]interface{}, names ...string) url.Values {
	values := url.Values{}
	for _, name := range names {
		if s := FormatValue(inputs[name]); s != "" {
			values.Set(name, s)
		}
	}
	return values
}

// Pick copies the named non-nil inputs into a new map.
func Pick(inputs map[string]interface{}, names ...string) map[string]interface{} {
	out := make(map[string]interface{}, len(names))
	for _, name := range names {
		if v, ok := inputs[name]; ok && v != nil {
			out[name] = v
		}
	}
	return out
}

// String returns an input as a string, or "" when absent.
func String(inputs map[string]interface{}, key string) string {
	return FormatValue(inputs[key])
}

// Int returns a numeric input as an int.
func Int(inputs map[string]interface{}, key string) (int, bool) {
	switch x := inputs[key].(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	case json.Number:
		n, err := x.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(x)
		return n, err == nil
	default:
		return 0, false
	}
}

// Bool returns a boolean input, false when absent.
func Bool(inputs map[string]interface{}, key string) bool {
	switch x := inputs[key].(type) {
	case bool:
		return x
	case string:
		b, _ := strconv.ParseBool(x)
		return b
	default:
		return false
	}
}

// Slice returns an array input.
func Slice(inputs map[string]interface{}, key string) []interface{} {
	switch x := inputs[key].(type) {
	case []interface{}:
		return x
	case []string:
		out := make([]interface{}, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	case []map[string]interface{}:
		out := make([]interface{}, len(x))
		for i, m := range x {
			out[i] = m
		}
		return out
	default:
		return nil
	}
}

// Strings returns an array input as strings.
func Strings(inputs map[string]interface{}, key string) []string {
	items := Slice(inputs, key)
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, FormatValue(item))
	}
	return out
}

// Field reads a dotted path such as "data.id" from decoded JSON.
func Field(v interface{}, path string) interface{} {
	for _, part := range strings.Split(path, ".") {
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil
		}
		v = m[part]
	}
	return v
}
