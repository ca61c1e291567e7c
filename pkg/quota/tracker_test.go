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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dramaforge/dramaforge/pkg/config"
	"github.com/dramaforge/dramaforge/pkg/tenancy"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestTracker() (*Tracker, *fakeClock) {
	tr := New(nil, 0)
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	tr.setNow(clock.now)
	return tr, clock
}

func TestConsumeWithinBudget(t *testing.T) {
	tr, _ := newTestTracker()

	if !tr.TryConsume("tenant-a", ResourceCPUTime, 250) {
		t.Fatal("250s of the 300s budget should be accepted")
	}
	if got := tr.Usage("tenant-a").Usage[ResourceCPUTime]; got != 250 {
		t.Errorf("expected 250 cpu_time used, got %v", got)
	}
}

func TestRejectWithoutRecording(t *testing.T) {
	tr, _ := newTestTracker()

	tr.TryConsume("tenant-a", ResourceCPUTime, 250)

	if tr.TryConsume("tenant-a", ResourceCPUTime, 100) {
		t.Fatal("consuming past the budget should be rejected")
	}

	// The rejected charge must not count.
	if got := tr.Usage("tenant-a").Usage[ResourceCPUTime]; got != 250 {
		t.Errorf("rejected charge should not be recorded, usage = %v", got)
	}

	// A smaller charge that fits still goes through.
	if !tr.TryConsume("tenant-a", ResourceCPUTime, 50) {
		t.Fatal("a charge that fits the remaining budget should succeed")
	}
}

func TestExactBudgetAccepted(t *testing.T) {
	tr, _ := newTestTracker()

	if !tr.TryConsume("tenant-a", ResourceCPUTime, 300) {
		t.Fatal("a charge landing exactly on the budget should succeed")
	}
	if tr.TryConsume("tenant-a", ResourceCPUTime, 0.001) {
		t.Fatal("any further charge should be rejected")
	}
}

func TestWindowReset(t *testing.T) {
	tr, clock := newTestTracker()

	for i := 0; i < 1000; i++ {
		tr.TryConsume("tenant-a", ResourceRequests, 1)
	}
	if tr.TryConsume("tenant-a", ResourceRequests, 1) {
		t.Fatal("request budget should be exhausted")
	}

	clock.advance(3601 * time.Second)
	if !tr.TryConsume("tenant-a", ResourceRequests, 1) {
		t.Fatal("budget should reset after the interval")
	}
	if got := tr.Usage("tenant-a").Usage[ResourceRequests]; got != 1 {
		t.Errorf("expected fresh window with 1 request, got %v", got)
	}
}

func TestUsageAppliesDueReset(t *testing.T) {
	tr, clock := newTestTracker()

	tr.TryConsume("tenant-a", ResourceCPUTime, 200)
	clock.advance(3601 * time.Second)

	snapshot := tr.Usage("tenant-a")
	if got := snapshot.Usage[ResourceCPUTime]; got != 0 {
		t.Errorf("usage read should apply the due reset, got %v", got)
	}
}

func TestUnmeteredResourceAccumulates(t *testing.T) {
	tr, _ := newTestTracker()

	for i := 0; i < 100; i++ {
		if !tr.TryConsume("tenant-a", Resource("gpu_seconds"), 1e6) {
			t.Fatal("unmetered resource should never be rejected")
		}
	}
	if got := tr.Usage("tenant-a").Usage[Resource("gpu_seconds")]; got != 1e8 {
		t.Errorf("expected 1e8 accumulated, got %v", got)
	}
	if !math.IsInf(tr.Remaining("tenant-a", Resource("gpu_seconds")), 1) {
		t.Error("unmetered resource should report infinite remaining")
	}
}

func TestTenantBudgetsIndependent(t *testing.T) {
	tr, _ := newTestTracker()

	tr.TryConsume("tenant-a", ResourceCPUTime, 300)
	if !tr.TryConsume("tenant-b", ResourceCPUTime, 300) {
		t.Fatal("tenant-b's budget should be unaffected by tenant-a")
	}
}

func TestSnapshotFields(t *testing.T) {
	tr, clock := newTestTracker()

	tr.TryConsume("tenant-a", ResourceRequests, 5)
	clock.advance(600 * time.Second)

	snapshot := tr.Usage("tenant-a")
	if snapshot.Limits[ResourceRequests] != 1000 {
		t.Errorf("expected request limit 1000, got %v", snapshot.Limits[ResourceRequests])
	}
	if snapshot.ResetIn != 3000 {
		t.Errorf("expected reset in 3000s, got %d", snapshot.ResetIn)
	}
}

func TestEvictIdle(t *testing.T) {
	tr, clock := newTestTracker()

	tr.TryConsume("tenant-a", ResourceRequests, 1)
	clock.advance(30 * time.Minute)
	tr.TryConsume("tenant-b", ResourceRequests, 1)

	clock.advance(31 * time.Minute)
	evicted := tr.EvictIdle(60 * time.Minute)
	if evicted != 1 {
		t.Fatalf("expected 1 tenant evicted, got %d", evicted)
	}
	if len(tr.tenants) != 1 {
		t.Fatalf("expected 1 tracked tenant, got %d", len(tr.tenants))
	}
}

func TestMiddlewareChargesRequests(t *testing.T) {
	tr, _ := newTestTracker()

	handler := Middleware(tr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	r = r.WithContext(tenancy.WithTenant(r.Context(), "tenant-a"))
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if got := tr.Usage("tenant-a").Usage[ResourceRequests]; got != 1 {
		t.Errorf("expected 1 request charged, got %v", got)
	}
}

func TestMiddlewareRejectsExhaustedBudget(t *testing.T) {
	tr, _ := newTestTracker()
	tr.TryConsume("tenant-a", ResourceRequests, 1000)

	handler := Middleware(tr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run when the budget is exhausted")
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	r = r.WithContext(tenancy.WithTenant(r.Context(), "tenant-a"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
}

func TestFromConfigZeroLimitsFallBack(t *testing.T) {
	tr := FromConfig(&config.QuotaConfig{ResetIntervalSeconds: 60})

	if !tr.TryConsume("tenant-a", ResourceRequests, 1) {
		t.Fatal("zero-value config must not reject every request")
	}
	if !tr.TryConsume("tenant-a", ResourceCPUTime, 10) {
		t.Fatal("zero-value config must not reject cpu time")
	}

	// A partially filled section keeps the explicit budget and defaults
	// the rest.
	tr = FromConfig(&config.QuotaConfig{Requests: 2})
	if !tr.TryConsume("tenant-a", ResourceRequests, 2) {
		t.Fatal("explicit request budget should admit up to its limit")
	}
	if tr.TryConsume("tenant-a", ResourceRequests, 1) {
		t.Fatal("explicit request budget should reject past its limit")
	}
	if !tr.TryConsume("tenant-a", ResourceMemory, 1<<20) {
		t.Fatal("unset memory budget should fall back to the default")
	}
}
