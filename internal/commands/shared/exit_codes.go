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

package shared

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tombee/pieces/internal/operation"
	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitOperationFailed = 1
	ExitInvalidInput    = 2
	ExitConfigError     = 3
	ExitNotFound        = 4
)

// ExitError is an error that carries an exit code
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// ExitCode classifies err into a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var cfgErr *pieceserrors.ConfigError
	if errors.As(err, &cfgErr) {
		return ExitConfigError
	}
	if pieceserrors.IsValidation(err) {
		return ExitInvalidInput
	}
	var opErr *operation.Error
	if errors.As(err, &opErr) {
		switch opErr.Type {
		case operation.ErrorTypeUnknownOperation:
			return ExitNotFound
		case operation.ErrorTypeInvalidRequest:
			return ExitInvalidInput
		}
	}
	if pieceserrors.IsNotFound(err) {
		return ExitNotFound
	}
	return ExitOperationFailed
}

// PrintError writes err, the vendor detail and a suggestion when the error
// carries them.
func PrintError(w io.Writer, err error) {
	fmt.Fprintln(w, RenderError(err.Error()))

	if d := detail(err); d != "" {
		fmt.Fprintf(w, "%s %s\n", RenderLabel("Detail:"), d)
	}

	if s := suggestion(err); s != "" {
		fmt.Fprintf(w, "\n%s %s\n", RenderLabel("Suggestion:"), s)
	}
}

func detail(err error) string {
	var opErr *operation.Error
	if errors.As(err, &opErr) {
		return opErr.Detail
	}
	return ""
}

func retryable(err error) bool {
	var opErr *operation.Error
	return errors.As(err, &opErr) && opErr.IsRetryable()
}

func errorType(err error) string {
	return pieceserrors.Classify(err)
}

func suggestion(err error) string {
	var verr *pieceserrors.ValidationError
	if errors.As(err, &verr) {
		return verr.Suggestion
	}
	var uv pieceserrors.UserVisibleError
	if errors.As(err, &uv) && uv.IsUserVisible() {
		return uv.Suggestion()
	}
	return ""
}

// HandleExitError prints err and exits with its code. With --json the error
// envelope goes to stdout.
func HandleExitError(err error) {
	if err == nil {
		return
	}
	if GetJSON() {
		_ = EmitJSONError(os.Stdout, "pieces", err)
	} else {
		PrintError(os.Stderr, err)
	}
	os.Exit(ExitCode(err))
}
