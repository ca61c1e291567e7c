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
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

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

func newTestBreaker() (*Breaker, *fakeClock) {
	b := New(0, 0)
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b.setNow(clock.now)
	return b, clock
}

func TestBelowThresholdNotIsolated(t *testing.T) {
	b, _ := newTestBreaker()

	for i := 0; i < 9; i++ {
		b.RecordError("tenant-a", errors.New("render failed"))
	}
	if b.ShouldIsolate("tenant-a") {
		t.Fatal("9 errors should not isolate")
	}
	if got := b.ErrorCount("tenant-a"); got != 9 {
		t.Errorf("expected 9 errors, got %d", got)
	}
}

func TestThresholdIsolates(t *testing.T) {
	b, _ := newTestBreaker()

	for i := 0; i < 10; i++ {
		b.RecordError("tenant-a", errors.New("render failed"))
	}
	if !b.ShouldIsolate("tenant-a") {
		t.Fatal("10th error should isolate")
	}
}

func TestDecayClosesBreaker(t *testing.T) {
	b, clock := newTestBreaker()

	for i := 0; i < 10; i++ {
		b.RecordError("tenant-a", errors.New("render failed"))
	}
	if !b.ShouldIsolate("tenant-a") {
		t.Fatal("tenant should be isolated")
	}

	clock.advance(301 * time.Second)
	if b.ShouldIsolate("tenant-a") {
		t.Fatal("isolation should lift once errors age out")
	}
	if got := b.ErrorCount("tenant-a"); got != 0 {
		t.Errorf("expected 0 errors after decay, got %d", got)
	}
}

func TestPartialDecay(t *testing.T) {
	b, clock := newTestBreaker()

	for i := 0; i < 5; i++ {
		b.RecordError("tenant-a", errors.New("early"))
	}
	clock.advance(150 * time.Second)
	for i := 0; i < 5; i++ {
		b.RecordError("tenant-a", errors.New("late"))
	}
	if !b.ShouldIsolate("tenant-a") {
		t.Fatal("10 errors inside the window should isolate")
	}

	// The early batch ages out, the late batch does not.
	clock.advance(151 * time.Second)
	if b.ShouldIsolate("tenant-a") {
		t.Fatal("isolation should lift once half the errors expire")
	}
	if got := b.ErrorCount("tenant-a"); got != 5 {
		t.Errorf("expected 5 live errors, got %d", got)
	}
}

func TestTenantIsolationIndependent(t *testing.T) {
	b, _ := newTestBreaker()

	for i := 0; i < 10; i++ {
		b.RecordError("tenant-a", errors.New("fail"))
	}
	if b.ShouldIsolate("tenant-b") {
		t.Fatal("tenant-b should not be isolated by tenant-a's errors")
	}
}

func TestSweepDropsQuietTenants(t *testing.T) {
	b, clock := newTestBreaker()

	b.RecordError("tenant-a", errors.New("fail"))
	clock.advance(200 * time.Second)
	b.RecordError("tenant-b", errors.New("fail"))

	clock.advance(101 * time.Second)
	removed := b.Sweep()
	if removed != 1 {
		t.Fatalf("expected 1 tenant removed, got %d", removed)
	}
	if len(b.errors) != 1 {
		t.Fatalf("expected 1 tracked tenant, got %d", len(b.errors))
	}
}

func TestMiddlewareIsolates(t *testing.T) {
	b, _ := newTestBreaker()

	handler := Middleware(b)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	request := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/api/render", nil)
		r = r.WithContext(tenancy.WithTenant(r.Context(), "tenant-a"))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w
	}

	// Ten failing requests trip the breaker; the next is refused up front.
	for i := 0; i < 10; i++ {
		if w := request(); w.Code != http.StatusInternalServerError {
			t.Fatalf("request %d should reach the handler, got %d", i+1, w.Code)
		}
	}
	w := request()
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("isolated tenant should get 503, got %d", w.Code)
	}
}

func TestMiddlewareIgnoresClientErrors(t *testing.T) {
	b, _ := newTestBreaker()

	handler := Middleware(b)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	for i := 0; i < 20; i++ {
		r := httptest.NewRequest(http.MethodGet, "/api/missing", nil)
		r = r.WithContext(tenancy.WithTenant(r.Context(), "tenant-a"))
		handler.ServeHTTP(httptest.NewRecorder(), r)
	}
	if b.ShouldIsolate("tenant-a") {
		t.Fatal("4xx responses should not count toward isolation")
	}
}
