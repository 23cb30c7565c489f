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

package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/tombee/pieces/internal/operation"
	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/testing/mock"
	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

// TestAllPiecesRegistered instantiates every built-in piece against a mock
// server and checks its declared surface.
func TestAllPiecesRegistered(t *testing.T) {
	if len(BuiltinRegistry) != 9 {
		t.Fatalf("BuiltinRegistry has %d pieces, want 9", len(BuiltinRegistry))
	}

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			srv := mock.NewServer(t)
			piece, err := New(name, srv.ProviderConfig(map[string]string{"realm": "acme-T", "api_key": "k"}))
			if err != nil {
				t.Fatalf("New(%s): %v", name, err)
			}
			if piece.Name() != name {
				t.Errorf("Name() = %q, want %q", piece.Name(), name)
			}

			ops := piece.Operations()
			if len(ops) == 0 {
				t.Fatal("no operations declared")
			}
			seen := make(map[string]bool)
			for _, op := range ops {
				if seen[op.Name] {
					t.Errorf("operation %s declared twice", op.Name)
				}
				seen[op.Name] = true
				if piece.OperationSchema(op.Name) == nil {
					t.Errorf("operation %s has no schema", op.Name)
				}
				if op.Description == "" {
					t.Errorf("operation %s has no description", op.Name)
				}
			}

			_, err = piece.Execute(context.Background(), "no_such_operation", nil)
			var opErr *operation.Error
			if !errors.As(err, &opErr) || opErr.Type != operation.ErrorTypeUnknownOperation {
				t.Errorf("unknown operation error = %v, want %s", err, operation.ErrorTypeUnknownOperation)
			}

			for _, trig := range piece.Triggers() {
				if trig.Kind != api.TriggerPolling && trig.Kind != api.TriggerWebhook {
					t.Errorf("trigger %s has kind %q", trig.Name, trig.Kind)
				}
			}
			if _, err := piece.PollSource("no_such_trigger", nil); err == nil {
				t.Error("PollSource accepted an unknown trigger")
			}
			if _, err := piece.WebhookTrigger("no_such_trigger", nil); err == nil {
				t.Error("WebhookTrigger accepted an unknown trigger")
			}
			if srv.Count() != 0 {
				t.Errorf("surface checks made %d requests", srv.Count())
			}
		})
	}
}

func TestNew_UnknownPiece(t *testing.T) {
	_, err := New("nope", nil)
	var nf *pieceserrors.NotFoundError
	if !errors.As(err, &nf) || nf.ID != "nope" {
		t.Fatalf("New(nope) error = %v, want NotFoundError", err)
	}
}

func TestNewRegistry_Unconfigured(t *testing.T) {
	reg, err := NewRegistry(nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if got := len(reg.List()); got != len(BuiltinRegistry) {
		t.Fatalf("registry has %d pieces, want %d", got, len(BuiltinRegistry))
	}

	_, err = reg.Execute(context.Background(), "aircall.no_such_operation", nil)
	var opErr *operation.Error
	if !errors.As(err, &opErr) || opErr.Type != operation.ErrorTypeUnknownOperation {
		t.Fatalf("Execute error = %v, want unknown operation", err)
	}
}
