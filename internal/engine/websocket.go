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
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/gorilla/websocket"

	"github.com/elmts/elm-typescript-interop/internal/protocol"
)

const closeGracePeriod = time.Second

// wsConn is an engine service reached over a websocket. Every text frame
// holds one JSON envelope.
type wsConn struct {
	conn *websocket.Conn
}

func dialWebSocket(ctx context.Context, url string) (*wsConn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to engine at %s: %w", url, err)
	}
	return &wsConn{conn: conn}, nil
}

func (c *wsConn) read() (*protocol.Envelope, error) {
	var env protocol.Envelope
	if err := c.conn.ReadJSON(&env); err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, io.EOF
		}
		return nil, err
	}
	return &env, nil
}

func (c *wsConn) write(env *protocol.Envelope) error {
	return c.conn.WriteJSON(env)
}

// close sends a close frame and gives the peer closeGracePeriod to answer it
// before the connection is torn down.
func (c *wsConn) close(readerDone <-chan struct{}) error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) && !errors.Is(err, net.ErrClosed) {
		return errors.Join(err, c.conn.Close())
	}
	select {
	case <-readerDone:
	case <-time.After(closeGracePeriod):
	}
	return c.conn.Close()
}
