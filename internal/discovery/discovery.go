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

// Package discovery finds and reads the source files below a list of source
// directories.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/elmts/elm-typescript-interop/internal/config"
	"github.com/elmts/elm-typescript-interop/internal/protocol"
)

// Options control which files are discovered.
type Options struct {
	// Pattern is matched against the slash separated path of each file
	// relative to its source directory.
	Pattern string
	// Exclude lists directory names skipped at any depth.
	Exclude []string
	// Concurrency is the number of files read in parallel.
	Concurrency int
	// PreserveTraversalOrder keeps files in traversal order instead of
	// sorting them by path within each source directory.
	PreserveTraversalOrder bool
}

// DefaultOptions returns the options used for Elm projects.
func DefaultOptions() Options {
	return NewOptions(config.New())
}

// NewOptions returns the discovery options held in cfg.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Pattern:                cfg.Discovery.Pattern,
		Exclude:                cfg.Discovery.Exclude,
		Concurrency:            cfg.Discovery.Concurrency,
		PreserveTraversalOrder: cfg.Discovery.PreserveTraversalOrder,
	}
}

// MissingRootsError is returned by Discover when source directories do not
// exist. It lists every missing directory, in the order they were given.
type MissingRootsError struct {
	Paths []string
}

// Error lists the missing directories in the order they were requested.
func (e *MissingRootsError) Error() string {
	return fmt.Sprintf("Could not find src directories: %s", strings.Join(e.Paths, ", "))
}

// ReadError is returned by Discover when a discovered file cannot be read.
type ReadError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read source file %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying file system error.
func (e *ReadError) Unwrap() error {
	return e.Err
}

// Discover returns every source file below roots. Files of earlier roots come
// first.
//
// All roots are checked before anything is read: if any root is missing,
// Discover returns a *MissingRootsError and reads nothing. Failing to read a
// discovered file fails the whole call.
func Discover(ctx context.Context, roots []string, opts Options) ([]protocol.SourceFile, error) {
	if err := checkRoots(roots); err != nil {
		return nil, err
	}
	var paths []string
	for _, root := range roots {
		found, err := enumerate(root, opts)
		if err != nil {
			return nil, err
		}
		slog.Debug("enumerated source directory", "root", root, "files", len(found))
		paths = append(paths, found...)
	}
	return readAll(ctx, paths, opts.Concurrency)
}

func checkRoots(roots []string) error {
	var missing []string
	for _, root := range roots {
		_, err := os.Stat(root)
		if err == nil {
			continue
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to check source directory %s: %w", root, err)
		}
		missing = append(missing, root)
	}
	if len(missing) > 0 {
		return &MissingRootsError{Paths: missing}
	}
	return nil
}

// enumerate returns the files below root matching opts.Pattern. Excluded
// directories and entries whose name starts with a dot are skipped. A root
// lying inside an excluded directory contributes nothing.
func enumerate(root string, opts Options) ([]string, error) {
	if dir, ok := excludedSegment(root, opts.Exclude); ok {
		slog.Debug("skipping source directory inside an excluded directory", "root", root, "excluded", dir)
		return nil, nil
	}
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && slices.Contains(opts.Exclude, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		ok, err := doublestar.Match(opts.Pattern, filepath.ToSlash(rel))
		if err != nil {
			return fmt.Errorf("invalid pattern %q: %w", opts.Pattern, err)
		}
		if ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan source directory %s: %w", root, err)
	}
	if !opts.PreserveTraversalOrder {
		slices.Sort(paths)
	}
	return paths, nil
}

// excludedSegment returns the first segment of root that names an excluded
// directory.
func excludedSegment(root string, exclude []string) (string, bool) {
	for _, seg := range strings.Split(filepath.ToSlash(filepath.Clean(root)), "/") {
		if slices.Contains(exclude, seg) {
			return seg, true
		}
	}
	return "", false
}

// readAll reads paths in parallel. The result keeps the order of paths.
func readAll(ctx context.Context, paths []string, concurrency int) ([]protocol.SourceFile, error) {
	files := make([]protocol.SourceFile, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return &ReadError{Path: path, Err: err}
			}
			files[i] = protocol.SourceFile{Path: path, Contents: string(data)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}
