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
	"context"

	"github.com/elmts/elm-typescript-interop/internal/protocol"
)

// mockEngine is a scripted implementation of the Engine interface for testing.
// steps[0] is delivered as soon as the engine starts, and each message sent
// by the host releases the next step. The message stream ends once every step
// has been delivered.
type mockEngine struct {
	Engine
	steps     [][]protocol.Message
	streamErr error
	sendErr   error
	closeErr  error

	messages chan protocol.Message
	sent     []protocol.HostMessage
	closed   bool
}

func newMockEngine(steps ...[]protocol.Message) *mockEngine {
	return &mockEngine{
		steps:    steps,
		messages: make(chan protocol.Message, 64),
	}
}

// start delivers the first step. It is called when the host starts the
// engine so that fields set after construction are honored.
func (m *mockEngine) start() {
	if len(m.steps) == 0 {
		close(m.messages)
		return
	}
	m.next()
}

func (m *mockEngine) next() {
	if len(m.steps) == 0 {
		return
	}
	for _, msg := range m.steps[0] {
		m.messages <- msg
	}
	m.steps = m.steps[1:]
	if len(m.steps) == 0 {
		close(m.messages)
	}
}

func (m *mockEngine) Messages() <-chan protocol.Message {
	return m.messages
}

func (m *mockEngine) Err() error {
	return m.streamErr
}

func (m *mockEngine) Send(ctx context.Context, msg protocol.HostMessage) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, msg)
	m.next()
	return nil
}

func (m *mockEngine) Close() error {
	m.closed = true
	return m.closeErr
}
