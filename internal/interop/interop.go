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

// Package interop contains the business logic for the elm-typescript-interop
// CLI. It loads the Elm project manifest, starts the code generation engine
// and serves the engine's requests until it ends the run. Talking to the
// engine, reading sources and writing outputs are left to other packages.
package interop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/elmts/elm-typescript-interop/internal/config"
	"github.com/elmts/elm-typescript-interop/internal/discovery"
	"github.com/elmts/elm-typescript-interop/internal/engine"
	"github.com/elmts/elm-typescript-interop/internal/manifest"
	"github.com/elmts/elm-typescript-interop/internal/protocol"
)

// Engine is an abstraction over a running code generation engine.
type Engine interface {
	Messages() <-chan protocol.Message
	Err() error
	Send(ctx context.Context, m protocol.HostMessage) error
	Close() error
}

// Replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr

	startEngine = func(ctx context.Context, cfg *config.Config, flags protocol.Flags) (Engine, error) {
		return engine.Start(ctx, cfg, flags)
	}
)

// Run executes the CLI with the given command line arguments. Messages meant
// for the user are written as the run progresses; the returned error decides
// the exit status.
func Run(ctx context.Context, args ...string) error {
	showVersion, err := parseArgs(args)
	if err != nil {
		return err
	}
	if showVersion {
		fmt.Fprintln(stdout, version())
		return nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	r := &runner{state: awaitingConfig}
	projectConfig, err := manifest.Load(wd)
	if err != nil {
		if errors.Is(err, manifest.ErrNotFound) {
			fmt.Fprintln(stderr, manifest.ErrNotFound.Error())
			return r.fail(report(err))
		}
		return r.fail(err)
	}

	cfg, err := config.Load(wd)
	if err != nil {
		return r.fail(err)
	}
	if err := setupLogging(cfg); err != nil {
		return r.fail(err)
	}
	slog.Info("elm-typescript-interop", "dir", wd, "engine", cfg.Engine.Command, "url", cfg.Engine.URL)

	eng, err := startEngine(ctx, cfg, protocol.Flags{ElmProjectConfig: projectConfig})
	if err != nil {
		return r.fail(err)
	}
	r.engine = eng
	r.discovery = discovery.NewOptions(cfg)
	r.state = awaitingEngineMessage

	runErr := r.loop(ctx)
	if cerr := eng.Close(); cerr != nil {
		if runErr == nil {
			slog.Warn("engine did not shut down cleanly", "err", cerr)
		} else {
			runErr = errors.Join(runErr, cerr)
		}
	}
	return runErr
}

func setupLogging(cfg *config.Config) error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	return nil
}
