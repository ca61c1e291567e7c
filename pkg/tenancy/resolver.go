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

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Resolver resolves the tenant from a Bearer JWT. Public keys are fetched
// from the auth provider's JWKS endpoint and cached with auto-refresh to
// handle key rotation.
type Resolver struct {
	jwksURL  string
	cache    *jwk.Cache
	issuer   string
	audience string
}

// NewResolver creates a resolver that auto-fetches JWKS from the provider.
// The key set is refreshed at most every 15 minutes.
func NewResolver(ctx context.Context, jwksURL, issuer, audience string) (*Resolver, error) {
	cache := jwk.NewCache(ctx)
	if err := cache.Register(jwksURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		return nil, fmt.Errorf("failed to register JWKS URL: %w", err)
	}

	// Initial fetch proves the endpoint is reachable and well formed.
	if _, err := cache.Refresh(ctx, jwksURL); err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS from %s: %w", jwksURL, err)
	}

	return &Resolver{
		jwksURL:  jwksURL,
		cache:    cache,
		issuer:   issuer,
		audience: audience,
	}, nil
}

// ResolveToken validates the token and extracts the tenant ID from its
// tenant_id claim, falling back to the subject.
func (r *Resolver) ResolveToken(ctx context.Context, tokenString string) (string, error) {
	keyset, err := r.cache.Get(ctx, r.jwksURL)
	if err != nil {
		return "", fmt.Errorf("failed to get JWKS: %w", err)
	}

	options := []jwt.ParseOption{
		jwt.WithKeySet(keyset),
		jwt.WithValidate(true),
	}
	if r.issuer != "" {
		options = append(options, jwt.WithIssuer(r.issuer))
	}
	if r.audience != "" {
		options = append(options, jwt.WithAudience(r.audience))
	}

	token, err := jwt.Parse([]byte(tokenString), options...)
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	if v, ok := token.Get("tenant_id"); ok {
		if id, ok := v.(string); ok && id != "" {
			return id, nil
		}
	}
	if sub := token.Subject(); sub != "" {
		return sub, nil
	}
	return "", fmt.Errorf("token carries no tenant identity")
}

// Middleware resolves the tenant for each request and stores it on the
// context. A missing or invalid token downgrades the request to the
// anonymous tenant; it is never rejected here.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		tenantID := Anonymous

		if token := bearerToken(req); token != "" {
			id, err := r.ResolveToken(req.Context(), token)
			if err != nil {
				slog.Debug("Tenant resolution failed, continuing as anonymous", "error", err)
			} else {
				tenantID = id
			}
		}

		next.ServeHTTP(w, req.WithContext(WithTenant(req.Context(), tenantID)))
	})
}

// AnonymousMiddleware tags every request as anonymous. Used when auth is
// not configured so downstream layers always see a tenant.
func AnonymousMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		next.ServeHTTP(w, req.WithContext(WithTenant(req.Context(), Anonymous)))
	})
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return ""
	}
	return token
}
