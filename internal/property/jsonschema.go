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
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

var (
	compiledMu sync.RWMutex
	compiled   = make(map[string]*jsonschema.Schema)
)

// JSONSchema renders the declaration as a draft 2020-12 JSON Schema document.
func (s Schema) JSONSchema() map[string]interface{} {
	props := make(map[string]interface{}, len(s))
	required := []string{}
	for _, p := range s {
		props[p.Name] = p.jsonSchema()
		if p.Required {
			required = append(required, p.Name)
		}
	}
	doc := map[string]interface{}{
		"$schema":    "https://json-schema.org/draft/2020-12/schema",
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

func (p Property) jsonSchema() map[string]interface{} {
	out := map[string]interface{}{}
	if p.Description != "" {
		out["description"] = p.Description
	}

	switch p.Type {
	case ShortText, LongText:
		out["type"] = "string"
	case DateTime:
		out["type"] = "string"
		if p.Format == "" {
			out["format"] = "date-time"
		}
	case Number:
		out["type"] = "number"
	case Checkbox:
		out["type"] = "boolean"
	case Object:
		out["type"] = "object"
	case Array, MultiSelectDropdown:
		out["type"] = "array"
		if len(p.Items) > 0 {
			items := p.Items.JSONSchema()
			delete(items, "$schema")
			out["items"] = items
		}
	case StaticDropdown:
		if len(p.Options) > 0 {
			enum := make([]interface{}, 0, len(p.Options))
			for _, o := range p.Options {
				enum = append(enum, o.Value)
			}
			out["enum"] = enum
		}
	}

	if p.Pattern != "" {
		out["pattern"] = p.Pattern
	}
	if p.Format != "" {
		out["format"] = p.Format
	}
	if p.MinLength != nil {
		out["minLength"] = *p.MinLength
	}
	if p.MaxLength != nil {
		out["maxLength"] = *p.MaxLength
	}
	if p.Minimum != nil {
		out["minimum"] = *p.Minimum
	}
	if p.Maximum != nil {
		out["maximum"] = *p.Maximum
	}
	if p.MinItems != nil {
		out["minItems"] = *p.MinItems
	}
	return out
}

// Validate checks inputs against the declaration. Nil values count as absent.
// The first violation is returned as *errors.ValidationError.
func (s Schema) Validate(inputs map[string]interface{}) error {
	present := make(map[string]interface{}, len(inputs))
	for k, v := range inputs {
		if v != nil {
			present[k] = v
		}
	}

	for _, p := range s {
		if !p.Required {
			continue
		}
		v, ok := present[p.Name]
		if !ok || v == "" {
			return &pieceserrors.ValidationError{
				Field:      p.Name,
				Message:    "is required",
				Suggestion: fmt.Sprintf("Provide a value for %q (%s)", p.Name, p.DisplayName),
			}
		}
	}

	compiledSchema, err := s.compile()
	if err != nil {
		return fmt.Errorf("compile property schema: %w", err)
	}

	doc, err := toJSONValue(present)
	if err != nil {
		return &pieceserrors.ValidationError{Message: fmt.Sprintf("inputs are not JSON-serializable: %v", err)}
	}

	if err := compiledSchema.Validate(doc); err != nil {
		return s.toValidationError(err)
	}
	return nil
}

func (s Schema) compile() (*jsonschema.Schema, error) {
	raw, err := json.Marshal(s.JSONSchema())
	if err != nil {
		return nil, err
	}
	key := string(raw)

	compiledMu.RLock()
	if cached, ok := compiled[key]; ok {
		compiledMu.RUnlock()
		return cached, nil
	}
	compiledMu.RUnlock()

	compiledMu.Lock()
	defer compiledMu.Unlock()

	if cached, ok := compiled[key]; ok {
		return cached, nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	url := fmt.Sprintf("pieces://properties/%d", len(compiled))
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	sch, err := c.Compile(url)
	if err != nil {
		return nil, err
	}
	compiled[key] = sch
	return sch, nil
}

// toJSONValue round-trips a Go value through JSON so that numeric values
// become json.Number, which the validator requires.
func toJSONValue(v interface{}) (interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(b))
}

func (s Schema) toValidationError(err error) error {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return &pieceserrors.ValidationError{Message: err.Error()}
	}

	leaf := firstLeaf(verr)
	field := fieldPath(leaf.InstanceLocation)
	keyword := ""
	if kp := leaf.ErrorKind.KeywordPath(); len(kp) > 0 {
		keyword = kp[len(kp)-1]
	}

	var prop Property
	for i := len(leaf.InstanceLocation) - 1; i >= 0; i-- {
		name := leaf.InstanceLocation[i]
		if _, err := strconv.Atoi(name); err == nil {
			continue
		}
		prop, _ = s.Get(name)
		break
	}

	return &pieceserrors.ValidationError{
		Field:   field,
		Message: describeViolation(keyword, prop),
	}
}

func firstLeaf(verr *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(verr.Causes) > 0 {
		verr = verr.Causes[0]
	}
	return verr
}

// fieldPath renders ["tags","0","tag_id"] as "tags[0].tag_id".
func fieldPath(loc []string) string {
	var b strings.Builder
	for _, part := range loc {
		if _, err := strconv.Atoi(part); err == nil {
			fmt.Fprintf(&b, "[%s]", part)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

func describeViolation(keyword string, p Property) string {
	switch keyword {
	case "pattern":
		if p.Pattern != "" {
			return fmt.Sprintf("must match pattern %s", p.Pattern)
		}
		return "does not match the required pattern"
	case "format":
		if p.Format != "" {
			return fmt.Sprintf("must be a valid %s", p.Format)
		}
		return "has an invalid format"
	case "maxLength":
		if p.MaxLength != nil {
			return fmt.Sprintf("must be at most %d characters", *p.MaxLength)
		}
		return "is too long"
	case "minLength":
		if p.MinLength != nil {
			return fmt.Sprintf("must be at least %d characters", *p.MinLength)
		}
		return "is too short"
	case "minimum":
		if p.Minimum != nil {
			return fmt.Sprintf("must be greater than or equal to %v", *p.Minimum)
		}
		return "is too small"
	case "maximum":
		if p.Maximum != nil {
			return fmt.Sprintf("must be less than or equal to %v", *p.Maximum)
		}
		return "is too large"
	case "minItems":
		if p.MinItems != nil {
			return fmt.Sprintf("must contain at least %d items", *p.MinItems)
		}
		return "has too few items"
	case "enum":
		return "is not one of the allowed options"
	case "type":
		return "has the wrong type"
	case "required":
		return "is missing a required field"
	default:
		return "is invalid"
	}
}
