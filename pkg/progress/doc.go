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

// Package progress tracks long-running task state.
//
// A Task moves through a forward-only state machine:
//
//	pending -> in_progress -> completed | failed | cancelled
//
// Terminal states absorb every later transition, so a stray Complete after
// a Fail cannot resurrect a task. Step updates only apply while the task
// is in progress, and the reported percentage never goes backwards.
//
// Live tasks are held in memory by a Registry. Finished tasks stay
// queryable until a cleanup sweep removes them; an optional SQL archive
// keeps a durable record of what the sweep drops.
package progress
