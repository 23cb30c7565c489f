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

// Package jq filters operation results with jq expressions.
package jq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/itchyny/gojq"

	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

const (
	// DefaultTimeout bounds a single filter run.
	DefaultTimeout = 5 * time.Second

	// DefaultMaxInputSize is the largest result a filter accepts (10MB).
	DefaultMaxInputSize = 10 * 1024 * 1024
)

// Filter is a compiled jq expression.
type Filter struct {
	expr         string
	code         *gojq.Code
	timeout      time.Duration
	maxInputSize int
}

// Compile parses expr. An empty expression yields a nil Filter, which
// passes its input through unchanged.
func Compile(expr string) (*Filter, error) {
	if expr == "" {
		return nil, nil
	}

	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, &pieceserrors.ValidationError{
			Field:      "jq",
			Message:    fmt.Sprintf("invalid jq expression: %v", err),
			Suggestion: "Check the expression syntax, e.g. '.results[] | .id'",
		}
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, &pieceserrors.ValidationError{
			Field:   "jq",
			Message: fmt.Sprintf("jq compilation failed: %v", err),
		}
	}

	return &Filter{
		expr:         expr,
		code:         code,
		timeout:      DefaultTimeout,
		maxInputSize: DefaultMaxInputSize,
	}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.expr
}

// Run applies the filter to data. A single output is returned as is;
// several outputs are collected into a slice; none yields nil.
func (f *Filter) Run(ctx context.Context, data interface{}) (interface{}, error) {
	if f == nil {
		return data, nil
	}

	input, err := f.normalize(data)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var results []interface{}
	iter := f.code.RunWithContext(ctx, input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("jq filter timed out after %v", f.timeout)
			}
			return nil, fmt.Errorf("jq: %w", err)
		}
		results = append(results, v)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

// normalize converts data to the plain JSON values gojq understands.
func (f *Filter) normalize(data interface{}) (interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}
	if len(raw) > f.maxInputSize {
		return nil, fmt.Errorf("data size (%d bytes) exceeds maximum (%d bytes)", len(raw), f.maxInputSize)
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("failed to decode data: %w", err)
	}
	return v, nil
}
