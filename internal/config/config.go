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

// Package config defines the host settings: which engine to run, how source
// files are discovered and how much is logged.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// DefaultEngineCommand is the engine executable used when neither a
	// settings file nor the environment names one.
	DefaultEngineCommand = "elm-typescript-interop-engine"
	// DefaultPattern matches Elm modules at any depth below a source directory.
	DefaultPattern = "**/*.elm"
	// DefaultConcurrency is the number of source files read in parallel.
	DefaultConcurrency = 8
	// DotEnvFile holds environment variables loaded before the settings file
	// is read.
	DotEnvFile = ".env"
)

// Environment variables that override the settings file.
const (
	EnvEngineCommand = "ELM_TYPESCRIPT_INTEROP_ENGINE"
	EnvEngineURL     = "ELM_TYPESCRIPT_INTEROP_ENGINE_URL"
	EnvLogLevel      = "ELM_TYPESCRIPT_INTEROP_LOG_LEVEL"
)

// DefaultExclude lists directories holding dependencies and build artifacts.
// They never contain project sources.
var DefaultExclude = []string{"node_modules", "elm-stuff"}

// lookupEnv is a variable so it can be replaced during testing.
var lookupEnv = os.LookupEnv

// Config holds the host settings. When adding members to this struct, please
// keep them in alphabetical order.
type Config struct {
	// Discovery controls how source files are found.
	Discovery Discovery `yaml:"discovery" toml:"discovery"`

	// Engine selects the code generation engine.
	Engine Engine `yaml:"engine" toml:"engine"`

	// LogLevel is the minimum level of log records written to stderr. One of
	// debug, info, warn or error. Defaults to warn so that only engine output
	// reaches the terminal.
	//
	// LogLevel can be overridden with ELM_TYPESCRIPT_INTEROP_LOG_LEVEL.
	LogLevel string `yaml:"log_level" toml:"log_level"`

	// Source is the settings file the values were read from. It is empty
	// when no settings file exists.
	Source string `yaml:"-" toml:"-"`
}

// Engine selects the engine to run. Exactly one transport is used: URL when it
// is set, otherwise Command.
type Engine struct {
	// Args are passed to Command.
	Args []string `yaml:"args" toml:"args"`

	// Command is the engine executable. It speaks the protocol over its
	// standard input and output.
	//
	// Command can be overridden with ELM_TYPESCRIPT_INTEROP_ENGINE.
	Command string `yaml:"command" toml:"command"`

	// URL is the ws:// or wss:// address of an engine service.
	//
	// URL can be overridden with ELM_TYPESCRIPT_INTEROP_ENGINE_URL.
	URL string `yaml:"url" toml:"url"`
}

// Discovery controls how source files are found below each source directory.
type Discovery struct {
	// Concurrency is the number of files read in parallel.
	Concurrency int `yaml:"concurrency" toml:"concurrency"`

	// Exclude lists directory names that are skipped at any depth.
	Exclude []string `yaml:"exclude" toml:"exclude"`

	// Pattern is a doublestar pattern matched against the slash separated
	// path of each file relative to its source directory.
	Pattern string `yaml:"pattern" toml:"pattern"`

	// PreserveTraversalOrder keeps files in directory traversal order instead
	// of sorting them by path.
	PreserveTraversalOrder bool `yaml:"preserve_traversal_order" toml:"preserve_traversal_order"`
}

// New returns a Config holding the default settings.
func New() *Config {
	return &Config{
		Discovery: Discovery{
			Concurrency: DefaultConcurrency,
			Exclude:     append([]string(nil), DefaultExclude...),
			Pattern:     DefaultPattern,
		},
		Engine: Engine{
			Command: DefaultEngineCommand,
		},
		LogLevel: "warn",
	}
}

// applyEnv overrides settings with environment variables.
func (c *Config) applyEnv() {
	if v, ok := lookupEnv(EnvEngineCommand); ok && v != "" {
		c.Engine.Command = v
	}
	if v, ok := lookupEnv(EnvEngineURL); ok && v != "" {
		c.Engine.URL = v
	}
	if v, ok := lookupEnv(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
}

// IsValid ensures the values contained in a Config are valid.
func (c *Config) IsValid() (bool, error) {
	if c.Engine.URL != "" {
		u, err := url.Parse(c.Engine.URL)
		if err != nil {
			return false, fmt.Errorf("invalid engine url: %w", err)
		}
		if (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
			return false, fmt.Errorf("engine url must be a ws:// or wss:// address: %q", c.Engine.URL)
		}
	} else if c.Engine.Command == "" {
		return false, errors.New("no engine command or url configured")
	}

	if !doublestar.ValidatePattern(c.Discovery.Pattern) {
		return false, fmt.Errorf("invalid discovery pattern: %q", c.Discovery.Pattern)
	}
	if c.Discovery.Concurrency < 1 {
		return false, fmt.Errorf("discovery concurrency must be positive, got %d", c.Discovery.Concurrency)
	}
	for _, name := range c.Discovery.Exclude {
		if name == "" {
			return false, errors.New("discovery exclude list contains an empty name")
		}
	}

	if _, err := c.Level(); err != nil {
		return false, err
	}
	return true, nil
}

// Level returns LogLevel as a slog.Level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
