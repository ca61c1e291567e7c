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

// Package ratelimit provides per-tenant sliding-window rate limiting.
//
// Each (tenant, category) pair owns an independent window of timestamped
// request entries. Admission is strict: once the window holds the category
// maximum, further requests are denied with a retry hint until the oldest
// entry ages out. Denied requests never consume quota.
//
// # Basic Usage
//
//	limiter := ratelimit.New(nil) // built-in category table
//	d := limiter.Allow("tenant-1", ratelimit.CategoryExport)
//	if !d.Allowed {
//	    // back off for d.RetryAfter
//	}
//
// # Categories
//
//   - default: 100 requests / 60s (fallback for unknown categories)
//   - api:     60 requests / 60s
//   - upload:  10 requests / 60s
//   - export:  5 requests / 300s
//
// All state is process-memory only; restarting the process resets every
// window. Reads prune expired entries as a side effect, so Remaining is not
// a pure read (this keeps window bookkeeping lazy and allocation-free on
// the hot path).
package ratelimit
