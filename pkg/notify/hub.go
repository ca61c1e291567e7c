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
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dramaforge/dramaforge/pkg/observability"
)

// Channel is an opaque push endpoint, typically one WebSocket connection.
type Channel interface {
	// Accept prepares the channel for delivery. A channel that fails to
	// accept is never registered.
	Accept() error

	// Send pushes one envelope. A send error marks the channel dead.
	Send(env Envelope) error

	// Close releases the channel.
	Close() error
}

// Hub routes envelopes to the channels of each tenant. Safe for concurrent
// use.
type Hub struct {
	mu       sync.Mutex
	channels map[string]map[Channel]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		channels: make(map[string]map[Channel]struct{}),
	}
}

// Connect accepts the channel and registers it under the tenant.
func (h *Hub) Connect(ch Channel, tenantID string) error {
	if ch == nil {
		return fmt.Errorf("channel is required")
	}
	if err := ch.Accept(); err != nil {
		return fmt.Errorf("channel rejected connection: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.channels[tenantID]
	if !ok {
		set = make(map[Channel]struct{})
		h.channels[tenantID] = set
	}
	set[ch] = struct{}{}

	slog.Debug("Channel connected", "tenant", tenantID, "channels", len(set))
	return nil
}

// Disconnect removes the channel from the tenant's set. Tenants with no
// channels left are dropped entirely.
func (h *Hub) Disconnect(ch Channel, tenantID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(ch, tenantID)
}

// SendToTenant fans the envelope out to every channel of the tenant.
// Delivery is concurrent over a snapshot of the set; channels that fail are
// closed and pruned. Failures are logged, never returned.
func (h *Hub) SendToTenant(env Envelope, tenantID string) {
	h.mu.Lock()
	set := h.channels[tenantID]
	snapshot := make([]Channel, 0, len(set))
	for ch := range set {
		snapshot = append(snapshot, ch)
	}
	h.mu.Unlock()

	if len(snapshot) == 0 {
		return
	}

	var (
		failedMu sync.Mutex
		failed   []Channel
	)
	var g errgroup.Group
	for _, ch := range snapshot {
		ch := ch
		g.Go(func() error {
			if err := ch.Send(env); err != nil {
				slog.Debug("Channel send failed, pruning", "tenant", tenantID, "error", err)
				observability.GetGlobalMetrics().RecordSendFailure(context.Background())
				failedMu.Lock()
				failed = append(failed, ch)
				failedMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) == 0 {
		return
	}

	h.mu.Lock()
	for _, ch := range failed {
		h.removeLocked(ch, tenantID)
	}
	h.mu.Unlock()

	for _, ch := range failed {
		_ = ch.Close()
	}
}

// BroadcastAll sends the envelope to every connected tenant.
func (h *Hub) BroadcastAll(env Envelope) {
	h.mu.Lock()
	tenants := make([]string, 0, len(h.channels))
	for tenantID := range h.channels {
		tenants = append(tenants, tenantID)
	}
	h.mu.Unlock()

	for _, tenantID := range tenants {
		h.SendToTenant(env, tenantID)
	}
}

// ChannelCount returns the number of channels registered for the tenant.
func (h *Hub) ChannelCount(tenantID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels[tenantID])
}

// removeLocked drops the channel and, when empty, the tenant set. Caller
// holds the lock.
func (h *Hub) removeLocked(ch Channel, tenantID string) {
	set, ok := h.channels[tenantID]
	if !ok {
		return
	}
	delete(set, ch)
	if len(set) == 0 {
		delete(h.channels, tenantID)
	}
}

// SendProgress pushes a progress frame to the tenant.
func (h *Hub) SendProgress(tenantID string, data map[string]interface{}) {
	h.SendToTenant(NewProgress(data), tenantID)
}

// SendStatus pushes a status update to the tenant.
func (h *Hub) SendStatus(tenantID, status, message string, data map[string]interface{}) {
	h.SendToTenant(NewStatus(status, message, data), tenantID)
}

// SendError pushes an error notice to the tenant.
func (h *Hub) SendError(tenantID, errText string, details map[string]interface{}) {
	h.SendToTenant(NewError(errText, details), tenantID)
}

// SendSuccess pushes a success notice to the tenant.
func (h *Hub) SendSuccess(tenantID, message string, data map[string]interface{}) {
	h.SendToTenant(NewSuccess(message, data), tenantID)
}

// SendInfo pushes an informational notice to the tenant.
func (h *Hub) SendInfo(tenantID, message string, data map[string]interface{}) {
	h.SendToTenant(NewInfo(message, data), tenantID)
}
