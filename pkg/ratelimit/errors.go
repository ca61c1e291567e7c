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
	"errors"
	"fmt"
)

// ErrRateLimitExceeded is the sentinel under every rate limit denial.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// LimitError carries the denial decision alongside the error.
type LimitError struct {
	// Tenant is the denied tenant.
	Tenant string

	// Category is the bucket that was full.
	Category Category

	// Decision holds the denial details, including the retry hint.
	Decision Decision
}

// Error returns the error message.
func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for tenant %s (category %s): retry in %ds",
		e.Tenant, e.Category, e.Decision.RetrySeconds())
}

// Unwrap returns the underlying sentinel.
func (e *LimitError) Unwrap() error {
	return ErrRateLimitExceeded
}

// NewLimitError creates a LimitError from a denial decision.
func NewLimitError(tenant string, category Category, decision Decision) *LimitError {
	return &LimitError{Tenant: tenant, Category: category, Decision: decision}
}

// IsLimitError checks if an error is a rate limit denial.
func IsLimitError(err error) bool {
	if err == nil {
		return false
	}
	var le *LimitError
	if errors.As(err, &le) {
		return true
	}
	return errors.Is(err, ErrRateLimitExceeded)
}
