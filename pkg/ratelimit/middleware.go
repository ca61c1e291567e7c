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

package ratelimit

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dramaforge/dramaforge/pkg/tenancy"
)

// CategoryFunc classifies an HTTP request into a rate limit category.
type CategoryFunc func(r *http.Request) Category

// CategoryFromPath classifies requests by URL path. Uploads and exports get
// their own (tighter) buckets; everything else under /api/ shares the api
// bucket.
func CategoryFromPath(r *http.Request) Category {
	path := r.URL.Path
	switch {
	case strings.Contains(path, "/api/upload"):
		return CategoryUpload
	case strings.Contains(path, "/api/export"):
		return CategoryExport
	case strings.HasPrefix(path, "/api/"):
		return CategoryAPI
	default:
		return CategoryDefault
	}
}

// MiddlewareConfig configures the rate limiting middleware.
type MiddlewareConfig struct {
	// Limiter is the limiter to enforce.
	Limiter *Limiter

	// CategoryFunc classifies requests. If nil, CategoryFromPath is used.
	CategoryFunc CategoryFunc

	// ExcludedPaths are paths that bypass rate limiting.
	ExcludedPaths []string

	// OnLimited is called when a request is denied.
	// If nil, a default JSON error response is sent.
	OnLimited func(w http.ResponseWriter, r *http.Request, decision Decision)
}

// Middleware creates an HTTP middleware that enforces per-tenant rate
// limits. The tenant is taken from the request context; requests without a
// resolved tenant are limited under the anonymous bucket.
func Middleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	if cfg.Limiter == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	if cfg.CategoryFunc == nil {
		cfg.CategoryFunc = CategoryFromPath
	}
	if cfg.OnLimited == nil {
		cfg.OnLimited = DefaultOnLimited
	}

	excludedPaths := make(map[string]bool)
	for _, path := range cfg.ExcludedPaths {
		excludedPaths[path] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if excludedPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			tenantID := tenancy.FromContext(r.Context())
			category := cfg.CategoryFunc(r)

			decision := cfg.Limiter.Allow(tenantID, category)

			ctx := context.WithValue(r.Context(), decisionKey{}, decision)
			r = r.WithContext(ctx)

			if !decision.Allowed {
				slog.Debug("Request rate limited",
					"error", NewLimitError(tenantID, category, decision))
				cfg.OnLimited(w, r, decision)
				return
			}

			addRateLimitHeaders(w, decision)
			next.ServeHTTP(w, r)
		})
	}
}

// decisionKey is the context key for the admission decision.
type decisionKey struct{}

// DecisionFromContext extracts the admission decision from the request
// context. Returns false if no rate limit middleware ran.
func DecisionFromContext(ctx context.Context) (Decision, bool) {
	d, ok := ctx.Value(decisionKey{}).(Decision)
	return d, ok
}

// DefaultOnLimited sends the default 429 response.
func DefaultOnLimited(w http.ResponseWriter, r *http.Request, decision Decision) {
	w.Header().Set("Content-Type", "application/json")
	if secs := decision.RetrySeconds(); secs > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	addRateLimitHeaders(w, decision)
	w.WriteHeader(http.StatusTooManyRequests)

	response := map[string]interface{}{
		"error": map[string]interface{}{
			"code":    "RATE_LIMIT_EXCEEDED",
			"message": "rate limit exceeded, please slow down",
		},
		"retry_after_seconds": decision.RetrySeconds(),
	}
	_ = json.NewEncoder(w).Encode(response)
}

// addRateLimitHeaders adds standard rate limit headers to the response.
func addRateLimitHeaders(w http.ResponseWriter, decision Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
}
