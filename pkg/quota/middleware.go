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

package quota

import (
	"encoding/json"
	"net/http"

	"github.com/dramaforge/dramaforge/pkg/tenancy"
)

// Middleware charges each request against the tenant's request budget and,
// after the handler returns, records its wall time as cpu_time. Wall time
// is charged even when the handler fails; the work was still done.
func Middleware(t *Tracker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID := tenancy.FromContext(r.Context())

			if !t.TryConsume(tenantID, ResourceRequests, 1) {
				writeQuotaExceeded(w, t.Usage(tenantID))
				return
			}

			start := t.now()
			next.ServeHTTP(w, r)
			elapsed := t.now().Sub(start)

			t.TryConsume(tenantID, ResourceCPUTime, elapsed.Seconds())
		})
	}
}

// writeQuotaExceeded sends the 429 budget-exhausted response with the
// tenant's usage snapshot so clients can see what ran out.
func writeQuotaExceeded(w http.ResponseWriter, snapshot Snapshot) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	response := map[string]interface{}{
		"error": map[string]interface{}{
			"code":    "RESOURCE_LIMIT_EXCEEDED",
			"message": "resource budget exhausted for this window",
		},
		"usage": snapshot,
	}
	_ = json.NewEncoder(w).Encode(response)
}
