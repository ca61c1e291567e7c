package ratelimit

import (
	"math"
	"sync"
	"time"
)

// entry is one admitted request (or batch) inside a window.
type entry struct {
	ts     time.Time
	weight int
}

// bucketKey identifies a (tenant, category) window.
type bucketKey struct {
	tenant   string
	category Category
}

// Limiter is a per-tenant, per-category sliding-window rate limiter.
//
// All methods are safe for concurrent use. Each check-then-consume runs
// under one lock so a decision and its bookkeeping are a single atomic
// unit; tenants never observe each other's quota.
type Limiter struct {
	mu      sync.Mutex
	rules   map[Category]Rule
	buckets map[bucketKey][]entry

	// now is swappable for deterministic window tests.
	now func() time.Time
}

// New creates a limiter with the given category table.
// A nil table selects the built-in defaults. A "default" category is
// required and used as the fallback for unknown categories.
func New(rules map[Category]Rule) *Limiter {
	if rules == nil {
		rules = DefaultRules()
	}
	if _, ok := rules[CategoryDefault]; !ok {
		rules[CategoryDefault] = DefaultRules()[CategoryDefault]
	}
	return &Limiter{
		rules:   rules,
		buckets: make(map[bucketKey][]entry),
		now:     time.Now,
	}
}

// Allow checks and consumes one unit of quota for the tenant's category.
// A denied request does not consume quota.
func (l *Limiter) Allow(tenantID string, category Category) Decision {
	return l.AllowN(tenantID, category, 1)
}

// AllowN is Allow with a batch weight. Weights below 1 are treated as 1.
func (l *Limiter) AllowN(tenantID string, category Category, weight int) Decision {
	if weight < 1 {
		weight = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rule := l.rule(category)
	key := bucketKey{tenant: tenantID, category: l.effective(category)}
	now := l.now()

	entries, used := l.prune(key, rule.Window, now)

	if used >= rule.Max {
		// Full window: the caller can retry once the oldest entry ages out.
		oldest := entries[0].ts
		waitSecs := math.Ceil((rule.Window - now.Sub(oldest)).Seconds()) + 1
		return Decision{
			Allowed:    false,
			RetryAfter: time.Duration(waitSecs) * time.Second,
			Remaining:  0,
			Limit:      rule.Max,
		}
	}

	l.buckets[key] = append(entries, entry{ts: now, weight: weight})
	remaining := rule.Max - used - weight
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Remaining: remaining, Limit: rule.Max}
}

// Remaining returns the quota left in the tenant's current window without
// consuming any. Expired entries are pruned as a side effect.
func (l *Limiter) Remaining(tenantID string, category Category) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	rule := l.rule(category)
	key := bucketKey{tenant: tenantID, category: l.effective(category)}
	_, used := l.prune(key, rule.Window, l.now())

	if used >= rule.Max {
		return 0
	}
	return rule.Max - used
}

// Rule returns the effective rule for a category.
func (l *Limiter) Rule(category Category) Rule {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rule(category)
}

// SetRules swaps the category table, e.g. on config reload. Existing window
// entries are kept; they are re-evaluated against the new rules.
func (l *Limiter) SetRules(rules map[Category]Rule) {
	if rules == nil {
		return
	}
	if _, ok := rules[CategoryDefault]; !ok {
		rules[CategoryDefault] = DefaultRules()[CategoryDefault]
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.rules = rules
}

// Sweep prunes every bucket and drops those left empty, bounding memory for
// tenants that have gone quiet. Returns the number of buckets removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key := range l.buckets {
		rule := l.rule(key.category)
		entries, _ := l.prune(key, rule.Window, now)
		if len(entries) == 0 {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// prune drops expired entries for key and returns the live entries along
// with their summed weight. The pruned slice is stored back.
func (l *Limiter) prune(key bucketKey, window time.Duration, now time.Time) ([]entry, int) {
	entries := l.buckets[key]

	// Entries are appended in time order, so find the first live one.
	start := 0
	for start < len(entries) && now.Sub(entries[start].ts) >= window {
		start++
	}
	if start > 0 {
		entries = append(entries[:0:0], entries[start:]...)
		if len(entries) == 0 {
			delete(l.buckets, key)
		} else {
			l.buckets[key] = entries
		}
	}

	used := 0
	for _, e := range entries {
		used += e.weight
	}
	return entries, used
}

// rule resolves a category to its rule, falling back to default.
func (l *Limiter) rule(category Category) Rule {
	if r, ok := l.rules[category]; ok {
		return r
	}
	return l.rules[CategoryDefault]
}

// effective maps unknown categories onto default so their entries share the
// fallback bucket.
func (l *Limiter) effective(category Category) Category {
	if _, ok := l.rules[category]; ok {
		return category
	}
	return CategoryDefault
}

// setNow overrides the clock (tests only).
func (l *Limiter) setNow(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}
