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
	"fmt"
	"slices"

	"github.com/elmts/elm-typescript-interop/internal/cli"
)

var version = cli.Version

// versionFlags are the only arguments accepted, and only in first position.
var versionFlags = []string{"--version", "-version"}

// parseArgs accepts either no arguments or a leading --version. Anything
// else, including "--", -h and --version=false, is a usage error. Arguments
// following --version are ignored.
func parseArgs(args []string) (showVersion bool, err error) {
	if len(args) == 0 {
		return false, nil
	}
	if slices.Contains(versionFlags, args[0]) {
		return true, nil
	}
	return false, usage()
}

func usage() error {
	fmt.Fprintln(stderr, ErrUsage.Error())
	return report(ErrUsage)
}
