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

package tenancy

// Owned is implemented by resources that belong to a single tenant.
type Owned interface {
	OwnerID() string
}

// Shared is implemented by resources that grant access beyond the owner.
type Shared interface {
	CollaboratorIDs() []string
}

// TenantScoper is implemented by query builders that can restrict results
// to one tenant.
type TenantScoper interface {
	ScopeToTenant(tenantID string) interface{}
}

// IsOwner reports whether the resource is owned by the tenant. Resources
// that do not expose an owner are owned by no one.
func IsOwner(resource interface{}, tenantID string) bool {
	if tenantID == "" {
		return false
	}
	owned, ok := resource.(Owned)
	if !ok {
		return false
	}
	return owned.OwnerID() == tenantID
}

// CanAccess reports whether the tenant may use the resource: it is the
// owner, or it appears in the resource's collaborator list.
func CanAccess(resource interface{}, tenantID string) bool {
	if IsOwner(resource, tenantID) {
		return true
	}
	if tenantID == "" {
		return false
	}
	shared, ok := resource.(Shared)
	if !ok {
		return false
	}
	for _, id := range shared.CollaboratorIDs() {
		if id == tenantID {
			return true
		}
	}
	return false
}

// ScopeToTenant restricts a query to one tenant when the builder supports
// it. Builders without the capability pass through unchanged, so callers
// can apply it unconditionally.
func ScopeToTenant(query interface{}, tenantID string) interface{} {
	if scoper, ok := query.(TenantScoper); ok {
		return scoper.ScopeToTenant(tenantID)
	}
	return query
}
