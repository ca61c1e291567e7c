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
	"errors"
	"sync"
	"testing"

	"github.com/dramaforge/dramaforge/pkg/progress"
)

// stubChannel records sent envelopes and can be told to fail.
type stubChannel struct {
	mu        sync.Mutex
	sent      []Envelope
	acceptErr error
	sendErr   error
	closed    bool
}

func (c *stubChannel) Accept() error {
	return c.acceptErr
}

func (c *stubChannel) Send(env Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, env)
	return nil
}

func (c *stubChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *stubChannel) envelopes() []Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Envelope(nil), c.sent...)
}

func TestHubDeliversToTenant(t *testing.T) {
	hub := NewHub()
	ch := &stubChannel{}
	if err := hub.Connect(ch, "tenant-a"); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	hub.SendInfo("tenant-a", "render queued", nil)

	sent := ch.envelopes()
	if len(sent) != 1 {
		t.Fatalf("expected 1 envelope, got %d", len(sent))
	}
	if sent[0].Type != TypeInfo || sent[0].Message != "render queued" {
		t.Errorf("unexpected envelope: %+v", sent[0])
	}
}

func TestHubTenantIsolation(t *testing.T) {
	hub := NewHub()
	a := &stubChannel{}
	b := &stubChannel{}
	_ = hub.Connect(a, "tenant-a")
	_ = hub.Connect(b, "tenant-b")

	hub.SendInfo("tenant-a", "only for a", nil)

	if len(a.envelopes()) != 1 {
		t.Error("tenant-a should receive the message")
	}
	if len(b.envelopes()) != 0 {
		t.Error("tenant-b must not see tenant-a's messages")
	}
}

func TestHubRejectsFailedAccept(t *testing.T) {
	hub := NewHub()
	ch := &stubChannel{acceptErr: errors.New("refused")}

	if err := hub.Connect(ch, "tenant-a"); err == nil {
		t.Fatal("connect should fail when accept fails")
	}
	if hub.ChannelCount("tenant-a") != 0 {
		t.Error("rejected channel must not be registered")
	}
}

func TestHubPrunesFailedChannels(t *testing.T) {
	hub := NewHub()
	good := &stubChannel{}
	bad := &stubChannel{sendErr: errors.New("broken pipe")}
	_ = hub.Connect(good, "tenant-a")
	_ = hub.Connect(bad, "tenant-a")

	hub.SendInfo("tenant-a", "first", nil)

	if hub.ChannelCount("tenant-a") != 1 {
		t.Fatalf("failed channel should be pruned, count = %d", hub.ChannelCount("tenant-a"))
	}
	if !bad.closed {
		t.Error("pruned channel should be closed")
	}

	// The healthy channel keeps receiving.
	hub.SendInfo("tenant-a", "second", nil)
	if got := len(good.envelopes()); got != 2 {
		t.Errorf("healthy channel should have 2 envelopes, got %d", got)
	}
}

func TestHubDisconnectDropsEmptyTenant(t *testing.T) {
	hub := NewHub()
	ch := &stubChannel{}
	_ = hub.Connect(ch, "tenant-a")

	hub.Disconnect(ch, "tenant-a")
	if hub.ChannelCount("tenant-a") != 0 {
		t.Error("disconnected channel should be gone")
	}
	if len(hub.channels) != 0 {
		t.Error("tenant with no channels should be dropped")
	}
}

func TestHubBroadcastAll(t *testing.T) {
	hub := NewHub()
	a := &stubChannel{}
	b := &stubChannel{}
	_ = hub.Connect(a, "tenant-a")
	_ = hub.Connect(b, "tenant-b")

	hub.BroadcastAll(NewInfo("maintenance at midnight", nil))

	if len(a.envelopes()) != 1 || len(b.envelopes()) != 1 {
		t.Error("broadcast should reach every tenant")
	}
}

func TestFeedbackLifecycleMessages(t *testing.T) {
	hub := NewHub()
	registry := progress.NewRegistry()
	feedback := NewFeedback(registry, hub)

	ch := &stubChannel{}
	_ = hub.Connect(ch, "tenant-a")

	task := feedback.StartTask("task-1", "tenant-a", 10, "render episode")
	if task.Status() != progress.StatusInProgress {
		t.Fatalf("started task should be in_progress, got %s", task.Status())
	}

	feedback.UpdateProgress("task-1", 5, "compositing")
	feedback.CompleteTask("task-1", "episode ready")

	sent := ch.envelopes()
	// start: status + progress; update: progress; complete: progress + success
	types := make([]MessageType, len(sent))
	for i, env := range sent {
		types[i] = env.Type
	}
	want := []MessageType{TypeStatus, TypeProgress, TypeProgress, TypeProgress, TypeSuccess}
	if len(types) != len(want) {
		t.Fatalf("expected %d envelopes %v, got %d %v", len(want), want, len(types), types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("envelope %d: expected %s, got %s", i, want[i], types[i])
		}
	}

	update := sent[2]
	if update.Data["current_step_description"] != "compositing" {
		t.Errorf("progress frame should carry the step description, got %v",
			update.Data["current_step_description"])
	}

	final := sent[3]
	if final.Data["percentage"] != float64(100) {
		t.Errorf("final progress frame should be 100%%, got %v", final.Data["percentage"])
	}
}

func TestFeedbackCancelTask(t *testing.T) {
	hub := NewHub()
	registry := progress.NewRegistry()
	feedback := NewFeedback(registry, hub)

	ch := &stubChannel{}
	_ = hub.Connect(ch, "tenant-a")

	feedback.StartTask("task-1", "tenant-a", 8, "export")
	feedback.UpdateProgress("task-1", 5, "compositing scenes")
	feedback.CancelTask("task-1", "cancelled by user")

	if got := registry.Get("task-1").Status(); got != progress.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", got)
	}

	sent := ch.envelopes()
	if len(sent) < 2 {
		t.Fatalf("expected progress then info on cancel, got %d envelopes", len(sent))
	}
	frame := sent[len(sent)-2]
	if frame.Type != TypeProgress {
		t.Fatalf("cancel should push a final progress frame, got %s", frame.Type)
	}
	if frame.Data["status"] != string(progress.StatusCancelled) {
		t.Errorf("final frame should report cancelled, got %v", frame.Data["status"])
	}
	if frame.Data["current_step_description"] != "compositing scenes" {
		t.Errorf("final frame should carry the last step description, got %v",
			frame.Data["current_step_description"])
	}
	last := sent[len(sent)-1]
	if last.Type != TypeInfo || last.Message != "cancelled by user" {
		t.Errorf("expected trailing info envelope, got %+v", last)
	}
}

func TestFeedbackFailTask(t *testing.T) {
	hub := NewHub()
	registry := progress.NewRegistry()
	feedback := NewFeedback(registry, hub)

	ch := &stubChannel{}
	_ = hub.Connect(ch, "tenant-a")

	feedback.StartTask("task-1", "tenant-a", 4, "export")
	feedback.FailTask("task-1", "storage unreachable")

	task := registry.Get("task-1")
	if task.Status() != progress.StatusFailed {
		t.Fatalf("expected failed, got %s", task.Status())
	}

	sent := ch.envelopes()
	last := sent[len(sent)-1]
	if last.Type != TypeError || last.Error != "storage unreachable" {
		t.Errorf("expected trailing error envelope, got %+v", last)
	}
}

func TestFeedbackUnknownTaskIgnored(t *testing.T) {
	hub := NewHub()
	registry := progress.NewRegistry()
	feedback := NewFeedback(registry, hub)

	ch := &stubChannel{}
	_ = hub.Connect(ch, "tenant-a")

	feedback.UpdateProgress("no-such-task", 1, "")
	feedback.CompleteTask("no-such-task", "")
	if feedback.PushSnapshot("no-such-task") {
		t.Error("snapshot of unknown task should report false")
	}
	if len(ch.envelopes()) != 0 {
		t.Error("unknown task operations must not emit messages")
	}
}
