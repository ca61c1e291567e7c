// Copyright 2026 The Dramaforge Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package notify

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultSendTimeout bounds one channel write.
const DefaultSendTimeout = 5 * time.Second

// WSChannel adapts a WebSocket connection to the Channel interface. Writes
// are serialized; gorilla connections allow only one concurrent writer.
type WSChannel struct {
	conn        *websocket.Conn
	sendTimeout time.Duration

	writeMu sync.Mutex
	closed  bool
}

// NewWSChannel wraps a connection. A non-positive timeout selects the
// default.
func NewWSChannel(conn *websocket.Conn, sendTimeout time.Duration) *WSChannel {
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	return &WSChannel{conn: conn, sendTimeout: sendTimeout}
}

// Accept implements Channel. The connection is already upgraded when the
// channel is built, so there is nothing left to negotiate.
func (c *WSChannel) Accept() error {
	return nil
}

// Send implements Channel. Each write carries a deadline so one stuck
// client cannot wedge the fan-out worker.
func (c *WSChannel) Send(env Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.sendTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(env)
}

// SendText pushes a raw text frame, serialized with envelope writes. Used
// for protocol chatter like ping replies.
func (c *WSChannel) SendText(text string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.sendTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// Close implements Channel.
func (c *WSChannel) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	deadline := time.Now().Add(time.Second)
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return c.conn.Close()
}
