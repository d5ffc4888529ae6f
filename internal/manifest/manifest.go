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

// Package manifest locates and parses the Elm project manifest.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// ElmJSON is the manifest of Elm 0.19 projects.
	ElmJSON = "elm.json"
	// ElmPackageJSON is the manifest of Elm 0.18 projects. It is only used
	// when ElmJSON does not exist.
	ElmPackageJSON = "elm-package.json"
)

// candidates lists the manifest file names in priority order.
var candidates = []string{ElmJSON, ElmPackageJSON}

// ErrNotFound is returned by Load when no manifest exists.
var ErrNotFound = errors.New("I couldn't find an `elm.json` or `elm-package.json` file. " +
	"Please run `elm-typescript-interop` from your Elm project's root folder.")

// ProjectConfig is the parsed project manifest. The host does not interpret
// it; it is handed to the engine as-is.
type ProjectConfig map[string]any

// Error reports a manifest that exists but cannot be used.
type Error struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying read or parse error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Load returns the parsed contents of the first manifest found in dir. Only
// that file is read, even when both exist.
func Load(dir string) (ProjectConfig, error) {
	path, err := find(dir)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	slog.Debug("loaded project manifest", "path", path)
	return cfg, nil
}

func find(dir string) (string, error) {
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		_, err := os.Stat(path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", &Error{Path: path, Err: err}
		}
	}
	return "", ErrNotFound
}

// Parse decodes a manifest document. Numbers are kept as json.Number so
// they are passed on exactly as written.
func Parse(data []byte) (ProjectConfig, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var cfg ProjectConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, errors.New("manifest must be a JSON object")
	}
	if dec.More() {
		return nil, errors.New("unexpected data after the manifest object")
	}
	return cfg, nil
}
