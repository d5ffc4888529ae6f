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

// Package engine runs a code generation engine and exchanges protocol
// messages with it.
//
// An engine is either a local executable speaking the protocol over its
// standard input and output, or a service reached over a websocket. Either
// way the host sees a Channel: messages from the engine arrive on a Go
// channel in the order the engine sent them, and replies are sent with
// Channel.Send.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/elmts/elm-typescript-interop/internal/config"
	"github.com/elmts/elm-typescript-interop/internal/protocol"
)

// ErrStopped is returned when the engine stops before ending the run.
var ErrStopped = errors.New("engine stopped before finishing")

// bufferSize is the number of decoded messages held while the host is busy
// handling an earlier one.
const bufferSize = 16

// transport moves envelopes to and from an engine.
type transport interface {
	// read returns the next envelope, or io.EOF once the engine has
	// finished sending.
	read() (*protocol.Envelope, error)
	write(env *protocol.Envelope) error
	// close shuts the engine down. readerDone is closed once read will no
	// longer be called.
	close(readerDone <-chan struct{}) error
}

// Channel is a running engine.
type Channel struct {
	t        transport
	messages chan protocol.Message
	done     chan struct{}
	received chan struct{}
	err      error

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// Start starts the engine selected by cfg and sends it flags as its
// initialization data. The caller must call Close when done.
func Start(ctx context.Context, cfg *config.Config, flags protocol.Flags) (*Channel, error) {
	var (
		t   transport
		err error
	)
	if cfg.Engine.URL != "" {
		slog.Debug("connecting to engine", "url", cfg.Engine.URL)
		t, err = dialWebSocket(ctx, cfg.Engine.URL)
	} else {
		slog.Debug("starting engine", "command", cfg.Engine.Command, "args", cfg.Engine.Args)
		t, err = startProcess(ctx, cfg.Engine.Command, cfg.Engine.Args)
	}
	if err != nil {
		return nil, err
	}
	c := newChannel(t)
	if err := c.Send(ctx, protocol.InitMessage(flags)); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to initialize engine: %w", err), c.Close())
	}
	return c, nil
}

func newChannel(t transport) *Channel {
	c := &Channel{
		t:        t,
		messages: make(chan protocol.Message, bufferSize),
		done:     make(chan struct{}),
		received: make(chan struct{}),
	}
	go c.receive()
	return c
}

// receive decodes envelopes until the engine stops or the channel is closed.
func (c *Channel) receive() {
	defer close(c.received)
	defer close(c.messages)
	for {
		env, err := c.t.read()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.err = err
			}
			return
		}
		msg, err := env.Decode()
		if err != nil {
			c.err = err
			return
		}
		select {
		case c.messages <- msg:
		case <-c.done:
			return
		}
	}
}

// Messages returns the messages sent by the engine, in the order it sent
// them. The channel is closed when the engine stops sending or Close is
// called.
func (c *Channel) Messages() <-chan protocol.Message {
	return c.messages
}

// Err returns the error that closed the Messages channel. It is nil when the
// engine ended its stream cleanly. Err must only be called after Messages is
// closed.
func (c *Channel) Err() error {
	return c.err
}

// Send sends a message to the engine.
func (c *Channel) Send(ctx context.Context, m protocol.HostMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env, err := m.Envelope()
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.t.write(env); err != nil {
		return fmt.Errorf("failed to send %s message: %w", m.Port, err)
	}
	return nil
}

// Close stops the engine. Messages still in flight are discarded.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.closeErr = c.t.close(c.received)
	})
	return c.closeErr
}
