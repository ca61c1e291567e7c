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

import "context"

// Anonymous is the tenant ID charged for requests without a resolved
// identity. Anonymous requests share one set of buckets.
const Anonymous = "anonymous"

type contextKey string

const tenantContextKey contextKey = "tenant"

// WithTenant returns a context carrying the tenant ID.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantContextKey, tenantID)
}

// FromContext returns the tenant ID on the context, or Anonymous when
// none was resolved.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(tenantContextKey).(string); ok && id != "" {
		return id
	}
	return Anonymous
}

// IsAnonymous reports whether the context carries no resolved tenant.
func IsAnonymous(ctx context.Context) bool {
	return FromContext(ctx) == Anonymous
}
