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
	"fmt"
	"log/slog"
)

// OptionsLoader fetches dropdown choices from the vendor API. inputs holds
// the values entered so far, so a loader can depend on another property.
type OptionsLoader func(ctx context.Context, inputs map[string]interface{}) ([]Option, error)

// DropdownState is what a UI renders for a dropdown.
type DropdownState struct {
	Disabled    bool     `json:"disabled"`
	Placeholder string   `json:"placeholder,omitempty"`
	Options     []Option `json:"options"`
}

// Placeholders shown when a dropdown cannot be populated.
const (
	PlaceholderConnect = "Connect your account first"
	PlaceholderFailed  = "Could not load options, check the connection"
)

// LoadOptions resolves the choices of a dropdown property. It never fails:
// without a credential, or when the loader errors or panics, the dropdown is
// returned disabled with an empty option list.
func LoadOptions(ctx context.Context, p Property, authenticated bool, inputs map[string]interface{}) (state DropdownState) {
	if p.Loader == nil {
		opts := p.Options
		if opts == nil {
			opts = []Option{}
		}
		return DropdownState{Options: opts}
	}

	if !authenticated {
		return disabled(PlaceholderConnect)
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Default().WarnContext(ctx, "dropdown loader panicked",
				slog.String("property", p.Name),
				slog.String("panic", fmt.Sprint(r)))
			state = disabled(PlaceholderFailed)
		}
	}()

	opts, err := p.Loader(ctx, inputs)
	if err != nil {
		slog.Default().DebugContext(ctx, "dropdown loader failed",
			slog.String("property", p.Name),
			slog.Any("error", err))
		return disabled(PlaceholderFailed)
	}
	if opts == nil {
		opts = []Option{}
	}
	return DropdownState{Options: opts}
}

func disabled(placeholder string) DropdownState {
	return DropdownState{Disabled: true, Placeholder: placeholder, Options: []Option{}}
}
