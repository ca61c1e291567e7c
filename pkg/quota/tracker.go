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
	"math"
	"sync"
	"time"

	"github.com/dramaforge/dramaforge/pkg/config"
)

// Resource names a metered consumption dimension.
type Resource string

const (
	// ResourceCPUTime is handler wall time in seconds.
	ResourceCPUTime Resource = "cpu_time"

	// ResourceMemory is allocated bytes.
	ResourceMemory Resource = "memory"

	// ResourceRequests is the request count.
	ResourceRequests Resource = "requests"
)

// DefaultResetInterval is the rolling budget window.
const DefaultResetInterval = 3600 * time.Second

// DefaultLimits returns the built-in budget table.
func DefaultLimits() map[Resource]float64 {
	return map[Resource]float64{
		ResourceCPUTime:  300,
		ResourceMemory:   1 << 30,
		ResourceRequests: 1000,
	}
}

// Snapshot is a point-in-time view of one tenant's consumption.
type Snapshot struct {
	// Usage holds the current-window counters, including unmetered keys.
	Usage map[Resource]float64 `json:"usage"`

	// Limits holds the configured budgets.
	Limits map[Resource]float64 `json:"limits"`

	// ResetIn is the number of seconds until the tenant's counters reset.
	ResetIn int `json:"reset_in"`
}

// usage is one tenant's counters and window anchor.
type usage struct {
	counters  map[Resource]float64
	lastReset time.Time
	lastTouch time.Time
}

// Tracker enforces per-tenant resource budgets. Safe for concurrent use.
type Tracker struct {
	mu            sync.Mutex
	limits        map[Resource]float64
	resetInterval time.Duration
	tenants       map[string]*usage

	now func() time.Time
}

// New creates a tracker with the given budget table and reset interval.
// A nil table selects the built-in defaults; a non-positive interval
// selects the default hour.
func New(limits map[Resource]float64, resetInterval time.Duration) *Tracker {
	if limits == nil {
		limits = DefaultLimits()
	}
	if resetInterval <= 0 {
		resetInterval = DefaultResetInterval
	}
	return &Tracker{
		limits:        limits,
		resetInterval: resetInterval,
		tenants:       make(map[string]*usage),
		now:           time.Now,
	}
}

// FromConfig creates a tracker from the isolation config section. Zero
// budgets fall back to the built-in defaults, so a partially filled
// section never yields an always-rejecting tracker.
func FromConfig(cfg *config.QuotaConfig) *Tracker {
	if cfg == nil {
		return New(nil, 0)
	}
	defaults := DefaultLimits()
	limits := map[Resource]float64{
		ResourceCPUTime:  cfg.CPUTimeSeconds,
		ResourceMemory:   cfg.MemoryBytes,
		ResourceRequests: cfg.Requests,
	}
	for resource, limit := range limits {
		if limit <= 0 {
			limits[resource] = defaults[resource]
		}
	}
	return New(limits, time.Duration(cfg.ResetIntervalSeconds)*time.Second)
}

// TryConsume attempts to charge amount of resource to the tenant. It
// returns false, recording nothing, when the charge would exceed the
// resource's budget. Resources without a budget always succeed and
// accumulate uncapped.
func (t *Tracker) TryConsume(tenantID string, resource Resource, amount float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	u := t.tenantLocked(tenantID)

	if limit, metered := t.limits[resource]; metered {
		if u.counters[resource]+amount > limit {
			return false
		}
	}

	u.counters[resource] += amount
	return true
}

// Usage returns the tenant's current-window snapshot. A due reset is
// applied first, so the counters always describe the live window.
func (t *Tracker) Usage(tenantID string) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	u := t.tenantLocked(tenantID)

	counters := make(map[Resource]float64, len(u.counters))
	for k, v := range u.counters {
		counters[k] = v
	}
	limits := make(map[Resource]float64, len(t.limits))
	for k, v := range t.limits {
		limits[k] = v
	}

	resetIn := t.resetInterval - t.now().Sub(u.lastReset)
	if resetIn < 0 {
		resetIn = 0
	}
	return Snapshot{
		Usage:   counters,
		Limits:  limits,
		ResetIn: int(math.Ceil(resetIn.Seconds())),
	}
}

// Remaining returns the budget left for one resource, applying a due reset
// first. Unmetered resources report +Inf.
func (t *Tracker) Remaining(tenantID string, resource Resource) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	u := t.tenantLocked(tenantID)

	limit, metered := t.limits[resource]
	if !metered {
		return math.Inf(1)
	}
	remaining := limit - u.counters[resource]
	if remaining < 0 {
		return 0
	}
	return remaining
}

// EvictIdle drops tenants with no activity for at least maxIdle, bounding
// memory for tenants that have gone quiet. Returns the number evicted.
func (t *Tracker) EvictIdle(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	evicted := 0
	for tenantID, u := range t.tenants {
		if now.Sub(u.lastTouch) >= maxIdle {
			delete(t.tenants, tenantID)
			evicted++
		}
	}
	return evicted
}

// tenantLocked returns the tenant's usage record, creating it if needed and
// applying a due window reset. Caller holds the lock.
func (t *Tracker) tenantLocked(tenantID string) *usage {
	now := t.now()

	u, ok := t.tenants[tenantID]
	if !ok {
		u = &usage{
			counters:  make(map[Resource]float64),
			lastReset: now,
		}
		t.tenants[tenantID] = u
	}

	if now.Sub(u.lastReset) >= t.resetInterval {
		u.counters = make(map[Resource]float64)
		u.lastReset = now
	}
	u.lastTouch = now
	return u
}

// setNow overrides the clock (tests only).
func (t *Tracker) setNow(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}
