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

// Command elm-typescript-interop generates TypeScript declarations for the
// ports of an Elm project. Run it from the project's root folder.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/elmts/elm-typescript-interop/internal/interop"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := interop.Run(ctx, os.Args[1:]...)
	stop()
	if err != nil {
		var r interface{ Reported() bool }
		if !errors.As(err, &r) || !r.Reported() {
			fmt.Fprintf(os.Stderr, "elm-typescript-interop: %v\n", err)
		}
		os.Exit(1)
	}
}
