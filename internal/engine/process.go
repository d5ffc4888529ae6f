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

package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/elmts/elm-typescript-interop/internal/protocol"
)

// Replaced in tests.
var (
	stopTimeout           = 2 * time.Second
	stderr      io.Writer = os.Stderr
)

// process is an engine executable. The host writes one JSON envelope per
// line to its standard input and decodes a stream of envelopes from its
// standard output. Its standard error is shown to the user.
type process struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	w     *bufio.Writer
	dec   *json.Decoder
}

func startProcess(ctx context.Context, command string, args []string) (*process, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Stderr = stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	slog.Debug(fmt.Sprintf("=== Engine start %s", strings.Repeat("=", 63)))
	slog.Debug(cmd.String())
	slog.Debug(strings.Repeat("-", 80))
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start engine %q: %w", command, err)
	}
	return &process{
		cmd:   cmd,
		stdin: stdin,
		w:     bufio.NewWriter(stdin),
		dec:   json.NewDecoder(bufio.NewReader(stdout)),
	}, nil
}

func (p *process) read() (*protocol.Envelope, error) {
	var env protocol.Envelope
	if err := p.dec.Decode(&env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (p *process) write(env *protocol.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if _, err := p.w.Write(append(data, '\n')); err != nil {
		return err
	}
	return p.w.Flush()
}

// close closes the engine's standard input, waits for the reader to stop and
// then reaps the engine. An engine still running after stopTimeout is killed.
func (p *process) close(readerDone <-chan struct{}) error {
	cerr := p.stdin.Close()
	if errors.Is(cerr, os.ErrClosed) {
		cerr = nil
	}
	timeout := time.NewTimer(stopTimeout)
	defer timeout.Stop()
	killed := false
	kill := func() {
		slog.Debug("engine did not exit, killing it", "pid", p.cmd.Process.Pid)
		if kerr := p.cmd.Process.Kill(); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
			slog.Warn("failed to kill engine", "err", kerr)
		}
		killed = true
	}

	// Wait closes the stdout pipe, so it must not run while the reader is
	// still decoding from it.
	select {
	case <-readerDone:
	case <-timeout.C:
		kill()
		<-readerDone
	}
	waited := make(chan error, 1)
	go func() {
		waited <- p.cmd.Wait()
	}()
	var err error
	select {
	case err = <-waited:
	case <-timeout.C:
		kill()
		err = <-waited
	}
	slog.Debug(fmt.Sprintf("=== Engine end %s", strings.Repeat("=", 65)))
	if err != nil && !killed {
		return fmt.Errorf("engine exited: %w", err)
	}
	return cerr
}
