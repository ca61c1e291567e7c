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
	"sync"
	"time"
)

// Status is a task lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether the status absorbs further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Task is the mutable state of one long-running operation. All methods are
// safe for concurrent use.
type Task struct {
	mu sync.Mutex

	id               string
	tenantID         string
	totalSteps       int
	currentStep      int
	description      string
	status           Status
	startedAt        time.Time
	completedAt      time.Time
	errorMessage     string
	stepDescriptions map[int]string

	now func() time.Time
}

// Snapshot is an immutable view of a task, shaped for JSON.
type Snapshot struct {
	ID          string     `json:"task_id"`
	TenantID    string     `json:"tenant_id,omitempty"`
	Status      Status     `json:"status"`
	Description string     `json:"description,omitempty"`
	CurrentStep int        `json:"current_step"`
	TotalSteps  int        `json:"total_steps"`
	Percentage  float64    `json:"percentage"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	ErrorMessage string `json:"error_message,omitempty"`

	// CurrentStepDescription is the description recorded for the step the
	// task currently stands on, empty when none was recorded.
	CurrentStepDescription string `json:"current_step_description,omitempty"`

	StepDescriptions map[int]string `json:"step_descriptions,omitempty"`
}

// newTask creates a pending task.
func newTask(id, tenantID string, totalSteps int, description string) *Task {
	if totalSteps < 0 {
		totalSteps = 0
	}
	return &Task{
		id:          id,
		tenantID:    tenantID,
		totalSteps:  totalSteps,
		description: description,
		status:      StatusPending,
		now:         time.Now,
	}
}

// ID returns the task identifier.
func (t *Task) ID() string {
	return t.id
}

// TenantID returns the owning tenant.
func (t *Task) TenantID() string {
	return t.tenantID
}

// Status returns the current lifecycle state.
func (t *Task) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Start moves the task from pending to in_progress. It is a no-op in any
// other state.
func (t *Task) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != StatusPending {
		return
	}
	t.status = StatusInProgress
	t.startedAt = t.now()
}

// Update advances the task to the given step. Updates apply only while the
// task is in progress, and the step never moves backwards.
func (t *Task) Update(step int, description string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != StatusInProgress {
		return
	}
	if step <= t.currentStep {
		return
	}
	if t.totalSteps > 0 && step > t.totalSteps {
		step = t.totalSteps
	}
	t.currentStep = step
	if description != "" {
		if t.stepDescriptions == nil {
			t.stepDescriptions = make(map[int]string)
		}
		t.stepDescriptions[step] = description
	}
}

// Complete marks the task completed, forcing the step counter to the end
// so the reported percentage is 100. No-op in a terminal state.
func (t *Task) Complete() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status.IsTerminal() {
		return
	}
	t.status = StatusCompleted
	t.currentStep = t.totalSteps
	t.completedAt = t.now()
}

// Fail marks the task failed with the given message. No-op in a terminal
// state.
func (t *Task) Fail(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status.IsTerminal() {
		return
	}
	t.status = StatusFailed
	t.errorMessage = message
	t.completedAt = t.now()
}

// Cancel marks the task cancelled. No-op in a terminal state.
func (t *Task) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status.IsTerminal() {
		return
	}
	t.status = StatusCancelled
	t.completedAt = t.now()
}

// Percentage returns progress as 0..100. Tasks with no declared steps
// report 0 until they finish.
func (t *Task) Percentage() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percentageLocked()
}

func (t *Task) percentageLocked() float64 {
	if t.totalSteps == 0 {
		return 0
	}
	return float64(t.currentStep) / float64(t.totalSteps) * 100
}

// Snapshot returns an immutable copy of the task's state.
func (t *Task) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Snapshot{
		ID:          t.id,
		TenantID:    t.tenantID,
		Status:      t.status,
		Description: t.description,
		CurrentStep: t.currentStep,
		TotalSteps:  t.totalSteps,
		Percentage:  t.percentageLocked(),
	}
	if !t.startedAt.IsZero() {
		startedAt := t.startedAt
		s.StartedAt = &startedAt
	}
	if !t.completedAt.IsZero() {
		completedAt := t.completedAt
		s.CompletedAt = &completedAt
	}
	s.ErrorMessage = t.errorMessage
	s.CurrentStepDescription = t.stepDescriptions[t.currentStep]
	if len(t.stepDescriptions) > 0 {
		s.StepDescriptions = make(map[int]string, len(t.stepDescriptions))
		for step, desc := range t.stepDescriptions {
			s.StepDescriptions[step] = desc
		}
	}
	return s
}

// finishedBefore reports whether the task reached a terminal state at or
// before the cutoff.
func (t *Task) finishedBefore(cutoff time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status.IsTerminal() && !t.completedAt.IsZero() && !t.completedAt.After(cutoff)
}

// setNow overrides the clock (tests only).
func (t *Task) setNow(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}
