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
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultRetention is how long finished tasks stay queryable.
const DefaultRetention = 24 * time.Hour

// Archiver persists finished task snapshots before the registry drops them.
type Archiver interface {
	Archive(ctx context.Context, snapshots []Snapshot) error
}

// Registry holds the live tasks. Safe for concurrent use.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*Task

	archiver Archiver
	now      func() time.Time
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithArchiver attaches an archive for finished tasks.
func WithArchiver(a Archiver) RegistryOption {
	return func(r *Registry) {
		r.archiver = a
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		tasks: make(map[string]*Task),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create registers a new pending task. An empty taskID gets a generated
// UUID. Creating an ID that already exists returns the existing task.
func (r *Registry) Create(taskID, tenantID string, totalSteps int, description string) *Task {
	if taskID == "" {
		taskID = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.tasks[taskID]; ok {
		return existing
	}
	task := newTask(taskID, tenantID, totalSteps, description)
	task.now = r.now
	r.tasks[taskID] = task
	return task
}

// Get returns the task, or nil when unknown.
func (r *Registry) Get(taskID string) *Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tasks[taskID]
}

// Len returns the number of live tasks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// CleanupCompleted removes tasks that finished at least maxAge ago and
// returns their final snapshots. Non-positive maxAge selects the default
// 24h retention.
func (r *Registry) CleanupCompleted(maxAge time.Duration) []Snapshot {
	if maxAge <= 0 {
		maxAge = DefaultRetention
	}

	r.mu.Lock()
	cutoff := r.now().Add(-maxAge)
	var removed []Snapshot
	for id, task := range r.tasks {
		if task.finishedBefore(cutoff) {
			removed = append(removed, task.Snapshot())
			delete(r.tasks, id)
		}
	}
	r.mu.Unlock()

	return removed
}

// RunJanitor periodically removes expired finished tasks until the context
// is cancelled, archiving them when an archiver is configured. Intended to
// run as a goroutine.
func (r *Registry) RunJanitor(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := r.CleanupCompleted(maxAge)
			if len(removed) == 0 {
				continue
			}
			slog.Debug("Cleaned up finished tasks", "count", len(removed))
			if r.archiver != nil {
				if err := r.archiver.Archive(ctx, removed); err != nil {
					slog.Error("Failed to archive finished tasks", "error", err, "count", len(removed))
				}
			}
		}
	}
}

// setNow overrides the clock for the registry and future tasks (tests only).
func (r *Registry) setNow(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
	for _, task := range r.tasks {
		task.setNow(now)
	}
}
