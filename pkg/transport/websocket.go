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

package transport

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dramaforge/dramaforge/pkg/notify"
	"github.com/dramaforge/dramaforge/pkg/tenancy"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins (configure for production)
	},
}

// handleWebSocket upgrades the connection, registers it with the hub and
// serves the client protocol until disconnect:
//
//	"ping"              -> "pong"
//	"subscribe:<taskID>" -> push the task's current progress frame
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	tenantID := tenancy.FromContext(r.Context())

	// Upgrade writes its own error response on failure.
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("WebSocket upgrade failed", "tenant", tenantID, "error", err)
		return
	}

	sendTimeout := time.Duration(s.deps.Config.Notify.SendTimeoutSeconds) * time.Second
	ch := notify.NewWSChannel(conn, sendTimeout)

	if err := s.deps.Hub.Connect(ch, tenantID); err != nil {
		slog.Warn("WebSocket registration failed", "tenant", tenantID, "error", err)
		_ = ch.Close()
		return
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordWSConnect(r.Context())
	}

	defer func() {
		s.deps.Hub.Disconnect(ch, tenantID)
		_ = ch.Close()
		if s.deps.Metrics != nil {
			s.deps.Metrics.RecordWSDisconnect(r.Context())
		}
	}()

	_ = ch.Send(notify.NewInfo("connected", map[string]interface{}{
		"tenant_id": tenantID,
	}))

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		switch message := string(payload); {
		case message == "ping":
			if err := ch.SendText("pong"); err != nil {
				return
			}
		case strings.HasPrefix(message, "subscribe:"):
			taskID := strings.TrimPrefix(message, "subscribe:")

			// Subscriptions are tenant-scoped; foreign task IDs look
			// identical to unknown ones.
			task := s.deps.Registry.Get(taskID)
			if task == nil || task.TenantID() != tenantID {
				_ = ch.Send(notify.NewError("unknown task", map[string]interface{}{
					"task_id": taskID,
				}))
				continue
			}
			s.deps.Feedback.PushSnapshot(taskID)
		}
	}
}
