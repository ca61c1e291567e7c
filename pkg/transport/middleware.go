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
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dramaforge/dramaforge/pkg/breaker"
	"github.com/dramaforge/dramaforge/pkg/observability"
	"github.com/dramaforge/dramaforge/pkg/ratelimit"
)

// responseWriter wraps http.ResponseWriter to capture status code and size.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// Flush implements http.Flusher for streaming responses.
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// metricsMiddleware records request durations keyed by the chi route
// pattern, so path parameters do not explode label cardinality.
func metricsMiddleware(metrics observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if metrics == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = r.URL.Path
			}
			metrics.RecordRequest(r.Context(), route, time.Since(start))
		})
	}
}

// isolationMiddleware wraps the breaker middleware with metrics recording.
func isolationMiddleware(b *breaker.Breaker, metrics observability.Metrics) func(http.Handler) http.Handler {
	base := breaker.Middleware(b)
	return func(next http.Handler) http.Handler {
		wrapped := base(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			wrapped.ServeHTTP(rw, r)
			if rw.statusCode == http.StatusServiceUnavailable && metrics != nil {
				metrics.RecordIsolation(r.Context())
			}
		})
	}
}

// onRateLimited records the rejection before sending the default 429.
func onRateLimited(metrics observability.Metrics) func(http.ResponseWriter, *http.Request, ratelimit.Decision) {
	return func(w http.ResponseWriter, r *http.Request, decision ratelimit.Decision) {
		if metrics != nil {
			category := ratelimit.CategoryFromPath(r)
			metrics.RecordAdmission(r.Context(), string(category), false, "rate_limit")
		}
		ratelimit.DefaultOnLimited(w, r, decision)
	}
}
