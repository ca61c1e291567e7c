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
	"sync"
	"time"

	"github.com/dramaforge/dramaforge/pkg/config"
)

// DefaultWindow is the sliding window over which errors are counted.
const DefaultWindow = 300 * time.Second

// DefaultThreshold is the error count that trips isolation.
const DefaultThreshold = 10

// record is one observed error.
type record struct {
	ts      time.Time
	message string
}

// Breaker tracks per-tenant error rates and decides when to isolate.
// Safe for concurrent use.
type Breaker struct {
	mu        sync.Mutex
	window    time.Duration
	threshold int
	errors    map[string][]record

	now func() time.Time
}

// New creates a breaker with the given window and threshold. Non-positive
// arguments select the defaults.
func New(window time.Duration, threshold int) *Breaker {
	if window <= 0 {
		window = DefaultWindow
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Breaker{
		window:    window,
		threshold: threshold,
		errors:    make(map[string][]record),
		now:       time.Now,
	}
}

// FromConfig creates a breaker from the isolation config section.
func FromConfig(cfg *config.BreakerConfig) *Breaker {
	if cfg == nil {
		return New(0, 0)
	}
	return New(time.Duration(cfg.WindowSeconds)*time.Second, cfg.Threshold)
}

// RecordError registers an error for the tenant. The error message is kept
// for diagnostics; a nil error is recorded with an empty message.
func (b *Breaker) RecordError(tenantID string, err error) {
	message := ""
	if err != nil {
		message = err.Error()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	live := b.pruneLocked(tenantID, now)
	b.errors[tenantID] = append(live, record{ts: now, message: message})
}

// ShouldIsolate reports whether the tenant has crossed the error threshold
// inside the current window. Expired records are pruned as a side effect.
func (b *Breaker) ShouldIsolate(tenantID string) bool {
	return b.ErrorCount(tenantID) >= b.threshold
}

// ErrorCount returns the number of errors the tenant has inside the current
// window. Expired records are pruned as a side effect.
func (b *Breaker) ErrorCount(tenantID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	live := b.pruneLocked(tenantID, b.now())
	if len(live) == 0 {
		delete(b.errors, tenantID)
	} else {
		b.errors[tenantID] = live
	}
	return len(live)
}

// Threshold returns the configured trip threshold.
func (b *Breaker) Threshold() int {
	return b.threshold
}

// Sweep prunes every tenant and drops those with no live errors, bounding
// memory for tenants that have gone quiet. Returns the number of tenants
// removed.
func (b *Breaker) Sweep() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	removed := 0
	for tenantID := range b.errors {
		live := b.pruneLocked(tenantID, now)
		if len(live) == 0 {
			delete(b.errors, tenantID)
			removed++
		} else {
			b.errors[tenantID] = live
		}
	}
	return removed
}

// pruneLocked returns the tenant's records still inside the window.
// Caller holds the lock.
func (b *Breaker) pruneLocked(tenantID string, now time.Time) []record {
	records := b.errors[tenantID]

	start := 0
	for start < len(records) && now.Sub(records[start].ts) >= b.window {
		start++
	}
	if start == 0 {
		return records
	}
	return append(records[:0:0], records[start:]...)
}

// setNow overrides the clock (tests only).
func (b *Breaker) setNow(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}
