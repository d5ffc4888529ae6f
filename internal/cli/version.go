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

// Package cli reports build information for the elm-typescript-interop
// binary.
package cli

import (
	"runtime/debug"
	"strings"
	"time"
)

// releaseVersion is set at link time by release builds:
//
//	go build -ldflags "-X github.com/elmts/elm-typescript-interop/internal/cli.releaseVersion=1.2.3"
var releaseVersion string

// Version returns the version printed by --version. Release builds report
// the version they were linked with; other builds report their module
// version or a pseudo-version derived from VCS stamps, following
// https://go.dev/ref/mod#versions.
func Version() string {
	if releaseVersion != "" {
		return releaseVersion
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "not available"
	}
	return version(info)
}

func version(info *debug.BuildInfo) string {
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}

	settings := map[string]string{}
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	revision, at := settings["vcs.revision"], settings["vcs.time"]
	if revision == "" && at == "" {
		return "not available"
	}

	parts := []string{"0.0.0"}
	if revision != "" {
		// Pseudo-versions carry at most 12 characters of the commit hash.
		parts = append(parts, revision[:min(len(revision), 12)])
	}
	if t, err := time.Parse(time.RFC3339, at); err == nil {
		parts = append(parts, t.UTC().Format("20060102150405"))
	}
	v := strings.Join(parts, "-")
	if settings["vcs.modified"] == "true" {
		v += "+dirty"
	}
	return v
}
