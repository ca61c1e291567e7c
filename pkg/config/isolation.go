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

package config

import "fmt"

// IsolationConfig configures the per-tenant admission components: the
// sliding-window rate limiter, the error circuit breaker, and the resource
// quota tracker.
type IsolationConfig struct {
	// RateLimits maps request categories to their limits. The "default"
	// category is the fallback for unknown categories and is always present
	// after SetDefaults.
	RateLimits map[string]RateLimitRule `yaml:"rate_limits,omitempty" mapstructure:"rate_limits"`

	// Breaker configures per-tenant error isolation.
	Breaker BreakerConfig `yaml:"breaker,omitempty" mapstructure:"breaker"`

	// Quota configures per-tenant resource budgets.
	Quota QuotaConfig `yaml:"quota,omitempty" mapstructure:"quota"`

	// IdleEvictionMinutes bounds per-tenant bookkeeping: tenants with no
	// activity for this long are dropped by the periodic sweep. 0 disables
	// eviction.
	IdleEvictionMinutes int `yaml:"idle_eviction_minutes,omitempty" mapstructure:"idle_eviction_minutes"`
}

// RateLimitRule is a single category limit: at most Max requests per window.
type RateLimitRule struct {
	// Max is the maximum number of requests allowed inside the window.
	Max int `yaml:"max" mapstructure:"max"`

	// WindowSeconds is the sliding window length in seconds.
	WindowSeconds int `yaml:"window_seconds" mapstructure:"window_seconds"`
}

// BreakerConfig configures the error circuit breaker.
type BreakerConfig struct {
	// WindowSeconds is the rolling error window in seconds.
	WindowSeconds int `yaml:"window_seconds,omitempty" mapstructure:"window_seconds"`

	// Threshold is the error count at which a tenant is isolated.
	Threshold int `yaml:"threshold,omitempty" mapstructure:"threshold"`
}

// QuotaConfig configures the resource quota tracker.
type QuotaConfig struct {
	// CPUTimeSeconds is the CPU-time budget per reset interval.
	CPUTimeSeconds float64 `yaml:"cpu_time_seconds,omitempty" mapstructure:"cpu_time_seconds"`

	// MemoryBytes is the memory budget per reset interval.
	MemoryBytes float64 `yaml:"memory_bytes,omitempty" mapstructure:"memory_bytes"`

	// Requests is the request-count budget per reset interval.
	Requests float64 `yaml:"requests,omitempty" mapstructure:"requests"`

	// ResetIntervalSeconds is the rolling reset interval.
	ResetIntervalSeconds int `yaml:"reset_interval_seconds,omitempty" mapstructure:"reset_interval_seconds"`
}

// SetDefaults applies the built-in limit tables.
func (c *IsolationConfig) SetDefaults() {
	if c.RateLimits == nil {
		c.RateLimits = make(map[string]RateLimitRule)
	}
	defaults := map[string]RateLimitRule{
		"default": {Max: 100, WindowSeconds: 60},
		"api":     {Max: 60, WindowSeconds: 60},
		"upload":  {Max: 10, WindowSeconds: 60},
		"export":  {Max: 5, WindowSeconds: 300},
	}
	for name, rule := range defaults {
		if _, ok := c.RateLimits[name]; !ok {
			c.RateLimits[name] = rule
		}
	}

	if c.Breaker.WindowSeconds == 0 {
		c.Breaker.WindowSeconds = 300
	}
	if c.Breaker.Threshold == 0 {
		c.Breaker.Threshold = 10
	}

	if c.Quota.CPUTimeSeconds == 0 {
		c.Quota.CPUTimeSeconds = 300
	}
	if c.Quota.MemoryBytes == 0 {
		c.Quota.MemoryBytes = 1 << 30 // 1 GiB
	}
	if c.Quota.Requests == 0 {
		c.Quota.Requests = 1000
	}
	if c.Quota.ResetIntervalSeconds == 0 {
		c.Quota.ResetIntervalSeconds = 3600
	}

	if c.IdleEvictionMinutes == 0 {
		c.IdleEvictionMinutes = 60
	}
}

// Validate validates the isolation configuration.
func (c *IsolationConfig) Validate() error {
	if _, ok := c.RateLimits["default"]; !ok {
		return fmt.Errorf("isolation.rate_limits must contain a 'default' category")
	}
	for name, rule := range c.RateLimits {
		if rule.Max <= 0 {
			return fmt.Errorf("isolation.rate_limits.%s.max must be positive", name)
		}
		if rule.WindowSeconds <= 0 {
			return fmt.Errorf("isolation.rate_limits.%s.window_seconds must be positive", name)
		}
	}
	if c.Breaker.Threshold < 1 {
		return fmt.Errorf("isolation.breaker.threshold must be at least 1")
	}
	if c.Breaker.WindowSeconds <= 0 {
		return fmt.Errorf("isolation.breaker.window_seconds must be positive")
	}
	if c.Quota.ResetIntervalSeconds <= 0 {
		return fmt.Errorf("isolation.quota.reset_interval_seconds must be positive")
	}
	if c.IdleEvictionMinutes < 0 {
		return fmt.Errorf("isolation.idle_eviction_minutes must not be negative")
	}
	return nil
}

// ProgressConfig configures progress tracking.
type ProgressConfig struct {
	// RetainCompletedHours is how long finished tasks stay queryable before
	// the cleanup sweep removes them.
	RetainCompletedHours int `yaml:"retain_completed_hours,omitempty" mapstructure:"retain_completed_hours"`

	// SweepIntervalSeconds is how often the janitor runs.
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds,omitempty" mapstructure:"sweep_interval_seconds"`

	// Archive configures the optional SQL archive for finished tasks.
	Archive ArchiveConfig `yaml:"archive,omitempty" mapstructure:"archive"`
}

// ArchiveConfig configures archiving of finished tasks to SQL.
type ArchiveConfig struct {
	// Enabled turns archiving on.
	Enabled bool `yaml:"enabled,omitempty" mapstructure:"enabled"`

	// Database references a named entry in the databases section.
	Database string `yaml:"database,omitempty" mapstructure:"database"`
}

// SetDefaults applies progress defaults.
func (c *ProgressConfig) SetDefaults() {
	if c.RetainCompletedHours == 0 {
		c.RetainCompletedHours = 24
	}
	if c.SweepIntervalSeconds == 0 {
		c.SweepIntervalSeconds = 600
	}
}

// Validate validates the progress configuration.
func (c *ProgressConfig) Validate() error {
	if c.RetainCompletedHours < 0 {
		return fmt.Errorf("progress.retain_completed_hours must not be negative")
	}
	if c.SweepIntervalSeconds <= 0 {
		return fmt.Errorf("progress.sweep_interval_seconds must be positive")
	}
	if c.Archive.Enabled && c.Archive.Database == "" {
		return fmt.Errorf("progress.archive.database is required when archiving is enabled")
	}
	return nil
}

// NotifyConfig configures push delivery.
type NotifyConfig struct {
	// SendTimeoutSeconds bounds a single channel write. A channel that
	// cannot accept a message within this time is pruned.
	SendTimeoutSeconds int `yaml:"send_timeout_seconds,omitempty" mapstructure:"send_timeout_seconds"`
}

// SetDefaults applies notify defaults.
func (c *NotifyConfig) SetDefaults() {
	if c.SendTimeoutSeconds == 0 {
		c.SendTimeoutSeconds = 5
	}
}
