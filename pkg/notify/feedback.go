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
	"github.com/dramaforge/dramaforge/pkg/progress"
)

// Feedback drives task lifecycle messaging: it advances task state in the
// registry and pushes the matching envelopes to the owning tenant. All
// delivery is fire and forget; the registry remains the authority on task
// state.
type Feedback struct {
	registry *progress.Registry
	hub      *Hub
}

// NewFeedback creates a feedback service over the registry and hub.
func NewFeedback(registry *progress.Registry, hub *Hub) *Feedback {
	return &Feedback{registry: registry, hub: hub}
}

// StartTask registers and starts a task, announcing it with a status
// message followed by the first progress frame. Returns the task.
func (f *Feedback) StartTask(taskID, tenantID string, totalSteps int, description string) *progress.Task {
	task := f.registry.Create(taskID, tenantID, totalSteps, description)
	task.Start()

	f.hub.SendStatus(tenantID, string(progress.StatusInProgress), description, nil)
	f.hub.SendProgress(tenantID, frame(task))
	return task
}

// UpdateProgress advances the task and pushes a progress frame. Unknown
// tasks are ignored.
func (f *Feedback) UpdateProgress(taskID string, step int, description string) {
	task := f.registry.Get(taskID)
	if task == nil {
		return
	}
	task.Update(step, description)
	f.hub.SendProgress(task.TenantID(), frame(task))
}

// CompleteTask finishes the task, pushing the final progress frame and a
// success message.
func (f *Feedback) CompleteTask(taskID, message string) {
	task := f.registry.Get(taskID)
	if task == nil {
		return
	}
	task.Complete()
	f.hub.SendProgress(task.TenantID(), frame(task))
	f.hub.SendSuccess(task.TenantID(), message, map[string]interface{}{"task_id": task.ID()})
}

// FailTask marks the task failed, pushing the final progress frame and an
// error message.
func (f *Feedback) FailTask(taskID, errText string) {
	task := f.registry.Get(taskID)
	if task == nil {
		return
	}
	task.Fail(errText)
	f.hub.SendProgress(task.TenantID(), frame(task))
	f.hub.SendError(task.TenantID(), errText, map[string]interface{}{"task_id": task.ID()})
}

// CancelTask marks the task cancelled, pushing the final progress frame
// and an info message.
func (f *Feedback) CancelTask(taskID, reason string) {
	task := f.registry.Get(taskID)
	if task == nil {
		return
	}
	task.Cancel()
	f.hub.SendProgress(task.TenantID(), frame(task))
	f.hub.SendInfo(task.TenantID(), reason, map[string]interface{}{"task_id": task.ID()})
}

// Notify pushes a one-off envelope to the tenant, outside any task.
func (f *Feedback) Notify(tenantID string, env Envelope) {
	f.hub.SendToTenant(env, tenantID)
}

// PushSnapshot pushes the task's current progress frame, e.g. in response
// to a subscribe request.
func (f *Feedback) PushSnapshot(taskID string) bool {
	task := f.registry.Get(taskID)
	if task == nil {
		return false
	}
	f.hub.SendProgress(task.TenantID(), frame(task))
	return true
}

// frame shapes a task snapshot into a progress payload.
func frame(task *progress.Task) map[string]interface{} {
	s := task.Snapshot()
	data := map[string]interface{}{
		"task_id":      s.ID,
		"status":       string(s.Status),
		"current_step": s.CurrentStep,
		"total_steps":  s.TotalSteps,
		"percentage":   s.Percentage,
	}
	if s.Description != "" {
		data["description"] = s.Description
	}
	if s.CurrentStepDescription != "" {
		data["current_step_description"] = s.CurrentStepDescription
	}
	if s.ErrorMessage != "" {
		data["error_message"] = s.ErrorMessage
	}
	return data
}
