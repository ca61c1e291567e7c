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

// Package breaker isolates tenants whose requests keep failing.
//
// Each tenant accumulates timestamped error records. When the count inside
// the sliding window reaches the threshold, the tenant is isolated: further
// requests are refused up front instead of burning capacity on work that
// keeps failing. There is no manual reset and no half-open probing; the
// breaker closes by itself as old errors age out of the window.
//
// Defaults: 10 errors within 300 seconds.
package breaker
