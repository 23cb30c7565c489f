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

package operation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry manages the set of available pieces.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a piece to the registry, replacing any piece of the same name.
func (r *Registry) Register(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// Get retrieves a piece by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, &Error{
			Type:        ErrorTypeUnknownOperation,
			Message:     fmt.Sprintf("piece %q not found", name),
			SuggestText: "Run 'pieces list' to see the available pieces",
		}
	}

	return provider, nil
}

// Execute runs an operation.
// The reference should be in format "piece.operation".
func (r *Registry) Execute(ctx context.Context, reference string, inputs map[string]interface{}) (*Result, error) {
	pieceName, operationName, err := ParseReference(reference)
	if err != nil {
		return nil, err
	}

	provider, err := r.Get(pieceName)
	if err != nil {
		return nil, err
	}

	return provider.Execute(ctx, operationName, inputs)
}

// List returns the names of all registered pieces in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// ParseReference splits "piece.operation" into its parts.
func ParseReference(reference string) (string, string, error) {
	piece, op, ok := strings.Cut(reference, ".")
	if !ok || piece == "" || op == "" {
		return "", "", &Error{
			Type:        ErrorTypeInvalidRequest,
			Message:     fmt.Sprintf("invalid operation reference %q", reference),
			SuggestText: "Use the form piece.operation, e.g. aircall.tag_call",
		}
	}
	return piece, op, nil
}
