// Copyright 2024 The OpenMARL Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vault

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is wrapped by every error caused by malformed or misaligned
// input data, both in the vault data model and in the analysis computations.
// It is never retried, the failing input is rejected as a whole.
var ErrInvalidInput = errors.New("invalid input")

// NewInvalidInputError creates an error wrapping ErrInvalidInput
func NewInvalidInputError(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, a...))
}

// UnknownDatasetError is raised when a requested dataset UID is not in the store
type UnknownDatasetError struct {
	UID string
}

func (e *UnknownDatasetError) Error() string {
	return fmt.Sprintf("unknown dataset %q", e.UID)
}

// UnexpectedError wraps internal store failures
type UnexpectedError struct {
	err error
}

func (e *UnexpectedError) Error() string {
	return e.err.Error()
}

func (e *UnexpectedError) Unwrap() error {
	return e.err
}

// NewUnexpectedError creates an UnexpectedError, the format accepts the `%w` verb
func NewUnexpectedError(format string, a ...interface{}) error {
	return &UnexpectedError{err: fmt.Errorf(format, a...)}
}
