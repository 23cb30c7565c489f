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

// Package property declares the typed inputs of piece actions and triggers.
//
// A Schema is an ordered list of Property declarations. It validates an input
// bag before any network call is made, fills declared defaults, and resolves
// dynamic dropdown options from the vendor API.
package property

import (
	"strings"
)

// Type is the kind of value a property accepts.
type Type string

const (
	ShortText           Type = "short_text"
	LongText            Type = "long_text"
	Number              Type = "number"
	Checkbox            Type = "checkbox"
	Array               Type = "array"
	Object              Type = "object"
	JSON                Type = "json"
	StaticDropdown      Type = "static_dropdown"
	Dropdown            Type = "dropdown"
	MultiSelectDropdown Type = "multi_select_dropdown"
	DateTime            Type = "date_time"
)

// Common value patterns.
const (
	// PatternE164 matches international phone numbers such as +14155550100.
	PatternE164 = `^\+[1-9]\d{6,14}$`
)

// Option is one choice of a dropdown.
type Option struct {
	Label string      `json:"label"`
	Value interface{} `json:"value"`
}

// Property declares one input.
type Property struct {
	Name        string      `json:"name"`
	DisplayName string      `json:"display_name"`
	Description string      `json:"description,omitempty"`
	Type        Type        `json:"type"`
	Required    bool        `json:"required"`
	Default     interface{} `json:"default,omitempty"`

	Pattern   string   `json:"pattern,omitempty"`
	Format    string   `json:"format,omitempty"`
	MinLength *int     `json:"min_length,omitempty"`
	MaxLength *int     `json:"max_length,omitempty"`
	Minimum   *float64 `json:"minimum,omitempty"`
	Maximum   *float64 `json:"maximum,omitempty"`
	MinItems  *int     `json:"min_items,omitempty"`

	// Options is the fixed choice list of a static dropdown.
	Options []Option `json:"options,omitempty"`

	// Items declares the fields of each element of an array of objects.
	Items Schema `json:"items,omitempty"`

	// Loader fetches the choices of a dynamic dropdown.
	Loader OptionsLoader `json:"-"`

	// RefreshOn names the properties whose values the loader depends on.
	RefreshOn []string `json:"refresh_on,omitempty"`
}

// Dynamic reports whether the property's options come from a loader.
func (p Property) Dynamic() bool {
	return p.Loader != nil
}

// Constraint adjusts a property declaration.
type Constraint func(*Property)

// Required marks the property as mandatory.
func Required(p *Property) {
	p.Required = true
}

// Describe sets the help text.
func Describe(text string) Constraint {
	return func(p *Property) { p.Description = text }
}

// Default sets the value used when the input is absent.
func Default(v interface{}) Constraint {
	return func(p *Property) { p.Default = v }
}

// Pattern requires string values to match a regular expression.
func Pattern(re string) Constraint {
	return func(p *Property) { p.Pattern = re }
}

// Format requires string values to satisfy a JSON Schema format
// such as "email", "uri", or "date-time".
func Format(name string) Constraint {
	return func(p *Property) { p.Format = name }
}

// MinLength sets the minimum string length.
func MinLength(n int) Constraint {
	return func(p *Property) { p.MinLength = &n }
}

// MaxLength sets the maximum string length.
func MaxLength(n int) Constraint {
	return func(p *Property) { p.MaxLength = &n }
}

// Min sets the inclusive numeric lower bound.
func Min(v float64) Constraint {
	return func(p *Property) { p.Minimum = &v }
}

// Max sets the inclusive numeric upper bound.
func Max(v float64) Constraint {
	return func(p *Property) { p.Maximum = &v }
}

// MinItems sets the minimum array length.
func MinItems(n int) Constraint {
	return func(p *Property) { p.MinItems = &n }
}

// Choices sets the options of a static dropdown.
func Choices(opts ...Option) Constraint {
	return func(p *Property) { p.Options = opts }
}

// Of declares the element fields of an array of objects.
func Of(items ...Property) Constraint {
	return func(p *Property) { p.Items = items }
}

// LoadWith sets the loader of a dynamic dropdown.
func LoadWith(loader OptionsLoader, refreshOn ...string) Constraint {
	return func(p *Property) {
		p.Loader = loader
		p.RefreshOn = refreshOn
	}
}

// New declares a property of the given type.
func New(t Type, name, displayName string, constraints ...Constraint) Property {
	p := Property{Name: name, DisplayName: displayName, Type: t}
	for _, c := range constraints {
		c(&p)
	}
	return p
}

// Text is shorthand for a short_text property.
func Text(name, displayName string, constraints ...Constraint) Property {
	return New(ShortText, name, displayName, constraints...)
}

// Num is shorthand for a number property.
func Num(name, displayName string, constraints ...Constraint) Property {
	return New(Number, name, displayName, constraints...)
}

// Bool is shorthand for a checkbox property.
func Bool(name, displayName string, constraints ...Constraint) Property {
	return New(Checkbox, name, displayName, constraints...)
}

// Schema is an ordered property list.
type Schema []Property

// Get returns the named property. Element fields of arrays are found too,
// so "tag_id" resolves inside an array of {tag_id} objects.
func (s Schema) Get(name string) (Property, bool) {
	for _, p := range s {
		if p.Name == name {
			return p, true
		}
	}
	for _, p := range s {
		if found, ok := p.Items.Get(name); ok {
			return found, true
		}
	}
	return Property{}, false
}

// ApplyDefaults returns a copy of inputs with declared defaults filled in
// for absent or nil values.
func (s Schema) ApplyDefaults(inputs map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(inputs)+len(s))
	for k, v := range inputs {
		out[k] = v
	}
	for _, p := range s {
		if p.Default == nil {
			continue
		}
		if v, ok := out[p.Name]; !ok || v == nil {
			out[p.Name] = p.Default
		}
	}
	return out
}

// String lists the property names, required ones marked with '*'.
func (s Schema) String() string {
	names := make([]string, 0, len(s))
	for _, p := range s {
		if p.Required {
			names = append(names, p.Name+"*")
		} else {
			names = append(names, p.Name)
		}
	}
	return strings.Join(names, ", ")
}
