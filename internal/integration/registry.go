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

// Package integration wires the built-in pieces.
package integration

import (
	"fmt"
	"sort"

	"github.com/tombee/pieces/internal/integration/aircall"
	"github.com/tombee/pieces/internal/integration/ariba"
	"github.com/tombee/pieces/internal/integration/assemblyai"
	"github.com/tombee/pieces/internal/integration/famulor"
	"github.com/tombee/pieces/internal/integration/googledrive"
	"github.com/tombee/pieces/internal/integration/grok"
	"github.com/tombee/pieces/internal/integration/hunter"
	"github.com/tombee/pieces/internal/integration/retellai"
	"github.com/tombee/pieces/internal/integration/truelayer"
	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/operation/transport"
	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

// Factory creates a piece from its connection config.
type Factory func(config *api.ProviderConfig) (operation.Provider, error)

// BuiltinRegistry holds all built-in piece factories.
var BuiltinRegistry = map[string]Factory{
	"aircall":     aircall.NewAircallIntegration,
	"ariba":       ariba.NewAribaIntegration,
	"assemblyai":  assemblyai.NewAssemblyAIIntegration,
	"famulor":     famulor.NewFamulorIntegration,
	"googledrive": googledrive.NewGoogleDriveIntegration,
	"grok":        grok.NewGrokIntegration,
	"hunter":      hunter.NewHunterIntegration,
	"retellai":    retellai.NewRetellAIIntegration,
	"truelayer":   truelayer.NewTrueLayerIntegration,
}

// Defaults holds the credential style of each built-in piece.
var Defaults = map[string]api.AuthDefaults{
	"aircall":     {Type: transport.AuthBasic},
	"ariba":       {Type: transport.AuthOAuth2, Flow: transport.FlowClientCredentials, TokenURL: ariba.TokenURL},
	"assemblyai":  {Type: transport.AuthAPIKey, HeaderName: "Authorization"},
	"famulor":     {Type: transport.AuthBearer},
	"googledrive": {Type: transport.AuthOAuth2, Flow: transport.FlowRefreshToken, TokenURL: googledrive.TokenURL, Scopes: googledrive.Scopes},
	"grok":        {Type: transport.AuthBearer},
	"hunter":      {Type: transport.AuthAPIKeyQuery, QueryParam: "api_key"},
	"retellai":    {Type: transport.AuthBearer},
	"truelayer":   {Type: transport.AuthOAuth2, Flow: transport.FlowRefreshToken, TokenURL: truelayer.TokenURL, Scopes: truelayer.Scopes},
}

// Names returns the built-in piece names in sorted order.
func Names() []string {
	names := make([]string, 0, len(BuiltinRegistry))
	for name := range BuiltinRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates the named built-in piece.
func New(name string, config *api.ProviderConfig) (api.Piece, error) {
	factory, ok := BuiltinRegistry[name]
	if !ok {
		return nil, &pieceserrors.NotFoundError{Resource: "piece", ID: name}
	}
	if config == nil {
		config = &api.ProviderConfig{}
	}

	p, err := factory(config)
	if err != nil {
		return nil, err
	}
	piece, ok := p.(api.Piece)
	if !ok {
		return nil, fmt.Errorf("piece %s does not implement the full piece surface", name)
	}
	return piece, nil
}

// NewRegistry creates an operation registry holding every piece named in
// configs. Pieces without a config entry are created unauthenticated.
func NewRegistry(configs map[string]*api.ProviderConfig) (*operation.Registry, error) {
	reg := operation.NewRegistry()
	for _, name := range Names() {
		p, err := New(name, configs[name])
		if err != nil {
			return nil, fmt.Errorf("create piece %s: %w", name, err)
		}
		reg.Register(p)
	}
	return reg, nil
}
