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
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dramaforge/dramaforge"
	"github.com/dramaforge/dramaforge/pkg/ratelimit"
	"github.com/dramaforge/dramaforge/pkg/tenancy"
)

// respondJSON writes a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": dramaforge.Version,
	})
}

// handleUsage returns the tenant's quota snapshot, plus the rate headroom
// observed when this request was admitted.
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	tenantID := tenancy.FromContext(r.Context())

	payload := map[string]interface{}{
		"quota": s.deps.Tracker.Usage(tenantID),
	}
	if decision, ok := ratelimit.DecisionFromContext(r.Context()); ok {
		payload["rate"] = map[string]interface{}{
			"limit":     decision.Limit,
			"remaining": decision.Remaining,
		}
	}
	respondJSON(w, http.StatusOK, payload)
}

// handleLimits returns the tenant's remaining rate quota for a category.
func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	tenantID := tenancy.FromContext(r.Context())
	category := ratelimit.ParseCategory(chi.URLParam(r, "category"))

	rule := s.deps.Limiter.Rule(category)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"category":       string(category),
		"limit":          rule.Max,
		"window_seconds": int(rule.Window.Seconds()),
		"remaining":      s.deps.Limiter.Remaining(tenantID, category),
	})
}

// handleTask returns a task's progress snapshot.
func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	task := s.deps.Registry.Get(taskID)
	if task == nil {
		respondJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": map[string]interface{}{
				"code":    "TASK_NOT_FOUND",
				"message": "no such task: " + taskID,
			},
		})
		return
	}

	snapshot := task.Snapshot()

	// Tasks are tenant-scoped; other tenants get the same 404 as a
	// missing task so IDs cannot be probed.
	tenantID := tenancy.FromContext(r.Context())
	if snapshot.TenantID != "" && snapshot.TenantID != tenantID {
		respondJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": map[string]interface{}{
				"code":    "TASK_NOT_FOUND",
				"message": "no such task: " + taskID,
			},
		})
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}
