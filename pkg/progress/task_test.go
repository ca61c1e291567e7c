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

package progress

import (
	"testing"
	"time"
)

func TestTaskLifecycle(t *testing.T) {
	r := NewRegistry()
	task := r.Create("task-1", "tenant-a", 10, "render episode")

	if task.Status() != StatusPending {
		t.Fatalf("new task should be pending, got %s", task.Status())
	}

	task.Start()
	if task.Status() != StatusInProgress {
		t.Fatalf("started task should be in_progress, got %s", task.Status())
	}

	task.Update(5, "compositing scenes")
	if got := task.Percentage(); got != 50 {
		t.Errorf("expected 50%%, got %v", got)
	}

	task.Complete()
	if task.Status() != StatusCompleted {
		t.Fatalf("expected completed, got %s", task.Status())
	}
	if got := task.Percentage(); got != 100 {
		t.Errorf("completed task should report 100%%, got %v", got)
	}

	snapshot := task.Snapshot()
	if snapshot.CompletedAt == nil {
		t.Error("completed task should have a completion timestamp")
	}
	if snapshot.StartedAt == nil {
		t.Error("started task should have a start timestamp")
	}
}

func TestStepDescriptionsKeyedByStep(t *testing.T) {
	r := NewRegistry()
	task := r.Create("task-1", "tenant-a", 10, "render")
	task.Start()

	task.Update(3, "storyboarding")
	task.Update(5, "compositing scenes")

	s := task.Snapshot()
	if s.CurrentStepDescription != "compositing scenes" {
		t.Fatalf("expected current step description, got %q", s.CurrentStepDescription)
	}
	if s.StepDescriptions[3] != "storyboarding" || s.StepDescriptions[5] != "compositing scenes" {
		t.Errorf("descriptions should be keyed by step, got %v", s.StepDescriptions)
	}

	task.Update(7, "")
	s = task.Snapshot()
	if s.CurrentStepDescription != "" {
		t.Errorf("step without a recorded description should report empty, got %q", s.CurrentStepDescription)
	}
	if len(s.StepDescriptions) != 2 {
		t.Errorf("empty descriptions must not be recorded, got %v", s.StepDescriptions)
	}
}

func TestTerminalStatesAbsorb(t *testing.T) {
	r := NewRegistry()
	task := r.Create("task-1", "tenant-a", 10, "render")

	task.Start()
	task.Fail("render node crashed")

	task.Complete()
	if task.Status() != StatusFailed {
		t.Errorf("failed task should stay failed, got %s", task.Status())
	}
	task.Cancel()
	if task.Status() != StatusFailed {
		t.Errorf("failed task should stay failed after cancel, got %s", task.Status())
	}
	if got := task.Snapshot().ErrorMessage; got != "render node crashed" {
		t.Errorf("error message should survive, got %q", got)
	}
}

func TestUpdateOnlyInProgress(t *testing.T) {
	r := NewRegistry()
	task := r.Create("task-1", "tenant-a", 10, "render")

	task.Update(3, "ignored while pending")
	if got := task.Snapshot().CurrentStep; got != 0 {
		t.Errorf("pending task should ignore updates, got step %d", got)
	}

	task.Start()
	task.Update(3, "scene 3")
	task.Cancel()
	task.Update(7, "ignored after cancel")
	if got := task.Snapshot().CurrentStep; got != 3 {
		t.Errorf("cancelled task should ignore updates, got step %d", got)
	}
}

func TestPercentageMonotone(t *testing.T) {
	r := NewRegistry()
	task := r.Create("task-1", "tenant-a", 10, "render")
	task.Start()

	task.Update(6, "")
	task.Update(4, "stale update")
	if got := task.Snapshot().CurrentStep; got != 6 {
		t.Errorf("step should never move backwards, got %d", got)
	}

	task.Update(15, "overshoot")
	if got := task.Snapshot().CurrentStep; got != 10 {
		t.Errorf("step should clamp to total, got %d", got)
	}
}

func TestZeroStepsPercentage(t *testing.T) {
	r := NewRegistry()
	task := r.Create("task-1", "tenant-a", 0, "fire and forget")

	if got := task.Percentage(); got != 0 {
		t.Errorf("zero-step task should report 0%%, got %v", got)
	}
	task.Start()
	task.Complete()
	if got := task.Percentage(); got != 0 {
		t.Errorf("zero-step task reports 0%% even when done, got %v", got)
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry()
	if task := r.Get("no-such-task"); task != nil {
		t.Errorf("unknown task should be nil, got %v", task)
	}
}

func TestRegistryCreateIdempotent(t *testing.T) {
	r := NewRegistry()
	first := r.Create("task-1", "tenant-a", 10, "render")
	second := r.Create("task-1", "tenant-a", 99, "other")

	if first != second {
		t.Error("creating an existing ID should return the existing task")
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 task, got %d", r.Len())
	}
}

func TestRegistryGeneratesID(t *testing.T) {
	r := NewRegistry()
	task := r.Create("", "tenant-a", 10, "render")
	if task.ID() == "" {
		t.Fatal("empty task ID should be generated")
	}
	if r.Get(task.ID()) != task {
		t.Error("generated ID should be registered")
	}
}

func TestCleanupCompleted(t *testing.T) {
	r := NewRegistry()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	r.setNow(clock.now)

	done := r.Create("done", "tenant-a", 1, "finished long ago")
	done.Start()
	done.Complete()

	running := r.Create("running", "tenant-a", 10, "still going")
	running.Start()

	clock.advance(25 * time.Hour)

	fresh := r.Create("fresh", "tenant-a", 1, "just finished")
	fresh.Start()
	fresh.Complete()

	removed := r.CleanupCompleted(24 * time.Hour)
	if len(removed) != 1 {
		t.Fatalf("expected 1 task removed, got %d", len(removed))
	}
	if removed[0].ID != "done" {
		t.Errorf("expected 'done' removed, got %q", removed[0].ID)
	}
	if r.Get("running") == nil {
		t.Error("running task should survive cleanup")
	}
	if r.Get("fresh") == nil {
		t.Error("recently finished task should survive cleanup")
	}
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}
