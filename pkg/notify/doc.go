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

// Package notify pushes real-time messages to connected tenants.
//
// A Hub maps tenant IDs to sets of channels. Delivery is best effort:
// sends fan out concurrently over a snapshot of the tenant's channels, a
// channel that fails to accept a message is closed and pruned, and no
// delivery failure ever reaches the caller. Task state, not notification
// delivery, is the source of truth.
//
// The Feedback service layers the task-lifecycle message choreography on
// top: starting a task emits a status message then the first progress
// frame, completion emits the final progress frame then a success message,
// and so on.
package notify
