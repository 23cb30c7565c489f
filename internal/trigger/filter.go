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

package trigger

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

// Filter is a compiled boolean expression evaluated against each event
// before it is emitted. The expression sees the variables data, id,
// piece, and trigger.
type Filter struct {
	source  string
	program *vm.Program
}

// CompileFilter compiles an expression such as `data.status == "done"`.
// An empty expression returns a nil Filter, which matches everything.
func CompileFilter(expression string) (*Filter, error) {
	if expression == "" {
		return nil, nil
	}

	program, err := expr.Compile(expression,
		expr.Env(map[string]interface{}{}),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &pieceserrors.ValidationError{
			Field:      "filter",
			Message:    fmt.Sprintf("failed to compile expression: %s", err.Error()),
			Suggestion: "check expression syntax, e.g. data.status == \"completed\"",
		}
	}

	return &Filter{source: expression, program: program}, nil
}

// Match reports whether the event passes the filter.
func (f *Filter) Match(event Event) (bool, error) {
	if f == nil {
		return true, nil
	}

	env := map[string]interface{}{
		"data":    event.Data,
		"id":      event.ID,
		"piece":   event.Piece,
		"trigger": event.Trigger,
	}

	result, err := expr.Run(f.program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate filter %q: %w", f.source, err)
	}

	match, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("filter %q must return boolean, got %T", f.source, result)
	}
	return match, nil
}

// String returns the expression source.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.source
}
