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

// Package tenancy provides tenant identity plumbing and ownership checks.
//
// A tenant ID travels on the request context. The resolver middleware
// extracts it from a Bearer JWT; requests without a usable token run as
// the anonymous tenant rather than being rejected, so public endpoints
// keep working and the isolation layers still get a bucket to charge.
//
// Ownership checks are pure predicates over small capability interfaces:
// a resource that knows its owner implements Owned, one with a
// collaborator list implements Shared. Callers decide what to do with a
// denial; this package never writes responses.
package tenancy
