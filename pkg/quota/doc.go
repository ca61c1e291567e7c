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

// Package quota tracks cumulative per-tenant resource consumption against
// rolling budgets.
//
// Each tenant accumulates counters (cpu_time, memory, requests) that reset
// wholesale once the reset interval has elapsed since the tenant's last
// reset. The reset check always runs before a consumption is evaluated, so
// a tenant never gets rejected against a stale window. A consumption that
// would exceed its budget is rejected without being recorded. Resource
// keys without a configured budget accumulate freely for visibility.
//
// Usage and Remaining are mutating reads: they apply a due reset before
// reporting, so the snapshot a caller sees is always current-window.
package quota
