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

// Package output writes generated files to disk.
package output

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/elmts/elm-typescript-interop/internal/protocol"
)

// WriteError reports a generated file that could not be written.
type WriteError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying file system error.
func (e *WriteError) Unwrap() error {
	return e.Err
}

// Write writes files in order. Each file replaces any existing file at its
// path. When the parent directory of a file does not exist it is created;
// its own parent must already exist.
//
// Writing stops at the first failure. Files written before it are left in
// place.
func Write(files []protocol.GeneratedFile) error {
	for _, f := range files {
		if err := writeFile(f.Path, f.Contents); err != nil {
			return &WriteError{Path: f.Path, Err: err}
		}
		slog.Debug("wrote generated file", "path", f.Path, "bytes", len(f.Contents))
	}
	return nil
}

func writeFile(path, contents string) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return createAndWriteToFile(path, contents)
}

func ensureDir(dir string) error {
	_, err := os.Stat(dir)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.Mkdir(dir, 0755); err != nil && !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("failed to make directory: %w", err)
	}
	return nil
}

// createAndWriteToFile creates a file with the specified name and content.
// It will truncate the file if it already exists.
func createAndWriteToFile(filePath string, content string) (err error) {
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer func() {
		cerr := file.Close()
		if err == nil {
			err = cerr
		}
	}()
	_, err = file.WriteString(content)
	return err
}
