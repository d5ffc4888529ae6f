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

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Settings file names, in priority order. The first one found is the only
// one read.
const (
	SettingsYAML = ".elm-typescript-interop.yaml"
	SettingsYML  = ".elm-typescript-interop.yml"
	SettingsTOML = ".elm-typescript-interop.toml"
)

type decodeFunc func(data []byte, cfg *Config) error

var settingsFiles = []struct {
	name   string
	decode decodeFunc
}{
	{SettingsYAML, decodeYAML},
	{SettingsYML, decodeYAML},
	{SettingsTOML, decodeTOML},
}

// Load returns the settings for a project rooted at dir. Values are layered:
// defaults, then the settings file in dir (if any), then environment
// variables. A .env file in dir populates the environment first; variables
// that are already set are not overridden.
func Load(dir string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(dir, DotEnvFile)); err != nil {
		return nil, err
	}
	cfg := New()
	for _, f := range settingsFiles {
		path := filepath.Join(dir, f.name)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read settings: %w", err)
		}
		if err := f.decode(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		cfg.Source = path
		slog.Debug("loaded settings", "path", path)
		break
	}
	cfg.applyEnv()
	if _, err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	slog.Debug("loaded environment file", "path", path)
	return nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func decodeTOML(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}
