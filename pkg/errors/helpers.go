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

package errors

import (
	"errors"
)

// IsValidation reports whether err or any error it wraps is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err or any error it wraps is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Classify returns the category of err if it implements ErrorClassifier,
// "validation" for validation errors, and "internal" otherwise.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	var c ErrorClassifier
	if errors.As(err, &c) {
		return c.ErrorType()
	}
	if IsValidation(err) {
		return "validation"
	}
	return "internal"
}
