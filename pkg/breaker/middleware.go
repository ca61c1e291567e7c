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

package breaker

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dramaforge/dramaforge/pkg/tenancy"
)

// Middleware refuses requests from isolated tenants and feeds server errors
// back into the breaker. The isolation check runs before the handler; after
// it, any 5xx response counts as one error against the tenant.
func Middleware(b *Breaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID := tenancy.FromContext(r.Context())

			if b.ShouldIsolate(tenantID) {
				writeIsolated(w, b.ErrorCount(tenantID))
				return
			}

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)

			if recorder.status >= http.StatusInternalServerError {
				b.RecordError(tenantID, fmt.Errorf("%s %s returned %d", r.Method, r.URL.Path, recorder.status))
				if b.ShouldIsolate(tenantID) {
					slog.Warn("Tenant isolated after repeated errors",
						"tenant", tenantID,
						"errors", b.ErrorCount(tenantID))
				}
			}
		})
	}
}

// statusRecorder captures the response status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// writeIsolated sends the 503 isolation response.
func writeIsolated(w http.ResponseWriter, errorCount int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)

	response := map[string]interface{}{
		"error": map[string]interface{}{
			"code":    "USER_ISOLATED",
			"message": "too many recent errors, access temporarily suspended",
		},
		"error_count": errorCount,
	}
	_ = json.NewEncoder(w).Encode(response)
}
