// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package interop

import (
	"errors"

	"github.com/elmts/elm-typescript-interop/internal/protocol"
)

// ErrUsage is returned when the CLI is given arguments it does not accept.
var ErrUsage = errors.New("`elm-typescript-interop` doesn't accept any CLI arguments, see github README.")

// EngineError is returned when the engine ends the run with a failure. Its
// message has already been printed.
type EngineError struct {
	// Kind is either protocol.KindParsingError or protocol.KindExitFailure.
	Kind    protocol.Kind
	Message string
}

// Error returns the message the engine sent.
func (e *EngineError) Error() string {
	return e.Message
}

// Reported reports whether the error has already been shown to the user.
func (e *EngineError) Reported() bool {
	return true
}

// reportedError marks an error whose message has already been printed.
type reportedError struct {
	err error
}

func report(err error) error {
	return &reportedError{err: err}
}

// Error returns the message of the wrapped error.
func (e *reportedError) Error() string {
	return e.err.Error()
}

// Unwrap returns the wrapped error.
func (e *reportedError) Unwrap() error {
	return e.err
}

// Reported always returns true.
func (e *reportedError) Reported() bool {
	return true
}
