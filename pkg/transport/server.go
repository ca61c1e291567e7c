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

// Package transport wires the isolation layers into an HTTP server.
//
// Request flow: tenant resolution, rate limiting, error isolation,
// resource quota, handler. Rejections short-circuit with the JSON error
// shape of the layer that refused. WebSocket endpoints register their
// connections with the notification hub for push delivery.
package transport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dramaforge/dramaforge/pkg/breaker"
	"github.com/dramaforge/dramaforge/pkg/config"
	"github.com/dramaforge/dramaforge/pkg/notify"
	"github.com/dramaforge/dramaforge/pkg/observability"
	"github.com/dramaforge/dramaforge/pkg/progress"
	"github.com/dramaforge/dramaforge/pkg/quota"
	"github.com/dramaforge/dramaforge/pkg/ratelimit"
	"github.com/dramaforge/dramaforge/pkg/tenancy"
)

// Deps are the components the server serves.
type Deps struct {
	Config   *config.Config
	Limiter  *ratelimit.Limiter
	Breaker  *breaker.Breaker
	Tracker  *quota.Tracker
	Registry *progress.Registry
	Hub      *notify.Hub
	Feedback *notify.Feedback

	// Resolver is optional; without it every request runs as anonymous.
	Resolver *tenancy.Resolver

	// Metrics is optional; nil disables recording.
	Metrics observability.Metrics
}

// Server is the dramaforge HTTP server.
type Server struct {
	deps       Deps
	router     chi.Router
	httpServer *http.Server
}

// NewServer builds the router and middleware chain.
func NewServer(deps Deps) *Server {
	s := &Server{deps: deps}

	r := chi.NewRouter()
	r.Use(metricsMiddleware(deps.Metrics))

	r.Get("/healthz", s.handleHealth)
	if deps.Config.Metrics.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	tenantMiddleware := tenancy.AnonymousMiddleware
	if deps.Resolver != nil {
		tenantMiddleware = deps.Resolver.Middleware
	}

	r.Group(func(r chi.Router) {
		r.Use(tenantMiddleware)
		r.Use(ratelimit.Middleware(ratelimit.MiddlewareConfig{
			Limiter:   deps.Limiter,
			OnLimited: onRateLimited(deps.Metrics),
		}))
		r.Use(isolationMiddleware(deps.Breaker, deps.Metrics))
		r.Use(quota.Middleware(deps.Tracker))

		r.Get("/api/usage", s.handleUsage)
		r.Get("/api/limits/{category}", s.handleLimits)
		r.Get("/api/tasks/{taskID}", s.handleTask)
	})

	r.Group(func(r chi.Router) {
		r.Use(tenantMiddleware)
		r.Get("/ws/feedback", s.handleWebSocket)
		r.Get("/ws/notifications", s.handleWebSocket)
	})

	s.router = r
	return s
}

// Router exposes the handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the server until the context is cancelled, then shuts down
// within the configured grace period. Background sweeps run alongside.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.deps.Config

	s.httpServer = &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.deps.Registry.RunJanitor(ctx,
		time.Duration(cfg.Progress.SweepIntervalSeconds)*time.Second,
		time.Duration(cfg.Progress.RetainCompletedHours)*time.Hour)
	go s.runSweeper(ctx)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "address", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownGraceSeconds)*time.Second)
	defer cancel()

	slog.Info("Shutting down server")
	return s.httpServer.Shutdown(shutdownCtx)
}

// runSweeper periodically prunes idle tenant bookkeeping so quiet tenants
// do not hold memory forever.
func (s *Server) runSweeper(ctx context.Context) {
	maxIdle := time.Duration(s.deps.Config.Isolation.IdleEvictionMinutes) * time.Minute
	if maxIdle <= 0 {
		return
	}

	ticker := time.NewTicker(maxIdle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			buckets := s.deps.Limiter.Sweep()
			tenants := s.deps.Breaker.Sweep()
			evicted := s.deps.Tracker.EvictIdle(maxIdle)
			if buckets+tenants+evicted > 0 {
				slog.Debug("Swept idle tenant state",
					"rate_buckets", buckets,
					"breaker_tenants", tenants,
					"quota_tenants", evicted)
			}
		}
	}
}
