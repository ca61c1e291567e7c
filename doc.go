// Package dramaforge is the tenant isolation core for the dramaforge
// short-drama video platform.
//
// Every tenant shares one deployment, so the service wraps each request in
// per-tenant backpressure: a sliding-window rate limiter keyed by request
// category, an error circuit breaker that suspends tenants whose requests
// keep failing, and a resource quota tracker with rolling budgets. Ownership
// checks keep tenants out of each other's data, and long-running render and
// export tasks report progress over WebSocket push channels.
//
// # Quick Start
//
// Install the server:
//
//	go install github.com/dramaforge/dramaforge/cmd/dramaforge@latest
//
// Run it with the built-in limits:
//
//	dramaforge serve
//
// Or point it at a configuration file:
//
//	dramaforge serve --config dramaforge.yaml
//
// # Packages
//
//   - pkg/ratelimit: sliding-window rate limiter
//   - pkg/breaker: per-tenant error circuit breaker
//   - pkg/quota: rolling resource budgets
//   - pkg/tenancy: tenant context, JWT resolution, ownership guards
//   - pkg/progress: task state machine and registry
//   - pkg/notify: push hub and task feedback choreography
//   - pkg/transport: HTTP/WebSocket server gluing the layers together
package dramaforge
