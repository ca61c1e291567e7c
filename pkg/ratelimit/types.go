package ratelimit

import (
	"time"

	"github.com/dramaforge/dramaforge/pkg/config"
)

// Category classifies a request for bucket selection.
type Category string

const (
	// CategoryDefault is the fallback bucket for unclassified requests.
	CategoryDefault Category = "default"

	// CategoryAPI covers general API calls.
	CategoryAPI Category = "api"

	// CategoryUpload covers asset uploads.
	CategoryUpload Category = "upload"

	// CategoryExport covers video export jobs.
	CategoryExport Category = "export"
)

// ParseCategory converts a config string to a Category.
func ParseCategory(s string) Category {
	return Category(s)
}

// Rule is a single category limit: at most Max weighted requests per Window.
type Rule struct {
	Max    int
	Window time.Duration
}

// Decision is the outcome of an admission check.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool `json:"allowed"`

	// RetryAfter is how long the tenant should wait before retrying.
	// Zero when allowed.
	RetryAfter time.Duration `json:"retry_after,omitempty"`

	// Remaining is the quota left in the window after this decision.
	Remaining int `json:"remaining"`

	// Limit is the category maximum, for response headers.
	Limit int `json:"limit"`
}

// RetrySeconds returns the retry hint in whole seconds.
func (d Decision) RetrySeconds() int {
	return int(d.RetryAfter / time.Second)
}

// DefaultRules returns the built-in category table.
func DefaultRules() map[Category]Rule {
	return map[Category]Rule{
		CategoryDefault: {Max: 100, Window: 60 * time.Second},
		CategoryAPI:     {Max: 60, Window: 60 * time.Second},
		CategoryUpload:  {Max: 10, Window: 60 * time.Second},
		CategoryExport:  {Max: 5, Window: 300 * time.Second},
	}
}

// RulesFromConfig converts the config table to limiter rules.
func RulesFromConfig(cfg *config.IsolationConfig) map[Category]Rule {
	rules := make(map[Category]Rule, len(cfg.RateLimits))
	for name, r := range cfg.RateLimits {
		rules[ParseCategory(name)] = Rule{
			Max:    r.Max,
			Window: time.Duration(r.WindowSeconds) * time.Second,
		}
	}
	return rules
}
