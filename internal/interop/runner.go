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
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/elmts/elm-typescript-interop/internal/discovery"
	"github.com/elmts/elm-typescript-interop/internal/engine"
	"github.com/elmts/elm-typescript-interop/internal/output"
	"github.com/elmts/elm-typescript-interop/internal/protocol"
)

type state int

const (
	awaitingConfig state = iota
	awaitingEngineMessage
	terminated
)

// String returns the name of the state, as used in logs.
func (s state) String() string {
	switch s {
	case awaitingConfig:
		return "AwaitingConfig"
	case awaitingEngineMessage:
		return "AwaitingEngineMessage"
	case terminated:
		return "Terminated"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// runner owns a single run. Engine messages are handled one at a time, in the
// order the engine sent them, until a handler moves the run to terminated.
type runner struct {
	state     state
	engine    Engine
	discovery discovery.Options
}

func (r *runner) fail(err error) error {
	r.state = terminated
	return err
}

func (r *runner) loop(ctx context.Context) error {
	for {
		select {
		case msg, ok := <-r.engine.Messages():
			if !ok {
				if err := r.engine.Err(); err != nil {
					return r.fail(fmt.Errorf("%w: %w", engine.ErrStopped, err))
				}
				return r.fail(engine.ErrStopped)
			}
			err := r.dispatch(ctx, msg)
			if r.state == terminated {
				return err
			}
		case <-ctx.Done():
			return r.fail(ctx.Err())
		}
	}
}

// dispatch handles one engine message. Terminal messages, and any failure
// while handling a request, end the run.
func (r *runner) dispatch(ctx context.Context, msg protocol.Message) error {
	slog.Debug("engine message", "kind", msg.Kind, "state", r.state)
	switch msg.Kind {
	case protocol.KindPrint:
		fmt.Fprintln(stdout, msg.Text)
		return nil
	case protocol.KindRequestSourceFiles:
		return r.readSourceFiles(ctx, msg.Roots)
	case protocol.KindParsingError:
		fmt.Fprintln(stderr, msg.Text)
		return r.fail(&EngineError{Kind: msg.Kind, Message: msg.Text})
	case protocol.KindGeneratedFiles:
		if err := output.Write(msg.Files); err != nil {
			return r.fail(err)
		}
		slog.Info("wrote generated files", "count", len(msg.Files))
		return r.fail(nil)
	case protocol.KindExitFailure:
		fmt.Fprintln(stdout, msg.Text)
		return r.fail(&EngineError{Kind: msg.Kind, Message: msg.Text})
	case protocol.KindExitSuccess:
		fmt.Fprintln(stdout, msg.Text)
		return r.fail(nil)
	}
	return r.fail(fmt.Errorf("%w: %q", protocol.ErrUnknownPort, msg.Kind))
}

func (r *runner) readSourceFiles(ctx context.Context, roots []string) error {
	files, err := discovery.Discover(ctx, roots, r.discovery)
	if err != nil {
		var missing *discovery.MissingRootsError
		if errors.As(err, &missing) {
			fmt.Fprintln(stderr, missing.Error())
			return r.fail(report(err))
		}
		return r.fail(err)
	}
	slog.Debug("read source files", "roots", roots, "count", len(files))
	if err := r.engine.Send(ctx, protocol.ReadSourceFilesMessage(files)); err != nil {
		return r.fail(err)
	}
	return nil
}
