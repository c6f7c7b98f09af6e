// Package kratosmw provides Kratos framework middleware for UAT bearer tokens.
//
// Server middleware verifies tokens with the client's TokenVerifier and works
// transparently with both Kratos HTTP and gRPC transports. Client middleware
// signs tokens with the client's TokenIssuer for outgoing calls.
package kratosmw

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"

	uat "github.com/chimerakang/uat-go"
	"github.com/chimerakang/uat-go/scope"
)

// AuthOption configures Auth middleware behavior.
type AuthOption func(*authConfig)

type authConfig struct {
	excludedOperations map[string]bool
}

// WithExcludedOperations sets operations that skip authentication (e.g. health checks).
// Operations are matched by transport.Operation() (gRPC method or HTTP route pattern).
func WithExcludedOperations(ops ...string) AuthOption {
	return func(cfg *authConfig) {
		for _, op := range ops {
			cfg.excludedOperations[op] = true
		}
	}
}

// Auth returns Kratos middleware that verifies UAT tokens via client.Verifier().
// On success, it stores claims in the context (retrievable via uat.ClaimsFromContext).
// Returns kratos errors.Unauthorized if the token is missing or invalid.
func Auth(client *uat.Client, opts ...AuthOption) middleware.Middleware {
	cfg := &authConfig{excludedOperations: make(map[string]bool)}
	for _, o := range opts {
		o(cfg)
	}

	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			tr, ok := transport.FromServerContext(ctx)
			if !ok {
				return handler(ctx, req)
			}

			if cfg.excludedOperations[tr.Operation()] {
				return handler(ctx, req)
			}

			tokenStr := extractBearerToken(tr.RequestHeader().Get("Authorization"))
			if tokenStr == "" {
				return nil, errors.Unauthorized("UNAUTHORIZED", "missing authorization token")
			}

			verifier := client.Verifier()
			if verifier == nil {
				return nil, errors.InternalServer("INTERNAL", "token verifier not configured")
			}

			claims, err := verifier.Verify(ctx, tokenStr)
			if err != nil {
				return nil, errors.Unauthorized("UNAUTHORIZED", "invalid token")
			}

			return handler(uat.WithClaims(ctx, claims), req)
		}
	}
}

// Tenant returns Kratos middleware that only admits tokens issued for one of
// the given tenants. Requires Auth middleware to run first.
// Returns kratos errors.Forbidden for any other tenant.
func Tenant(tenantIDs ...string) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			tenantID := uat.TenantIDFromContext(ctx)
			if tenantID == "" {
				return nil, errors.Unauthorized("UNAUTHORIZED", "missing tenant context")
			}
			if !slices.Contains(tenantIDs, tenantID) {
				return nil, errors.Forbidden("FORBIDDEN", "tenant not allowed")
			}
			return handler(ctx, req)
		}
	}
}

// RequireScope returns Kratos middleware that checks the token grants required.
// Requires Auth middleware to run first.
// Returns kratos errors.Forbidden if the scope is not granted.
func RequireScope(required string) middleware.Middleware {
	return RequireAnyScope(required)
}

// RequireAnyScope returns Kratos middleware that checks the token grants at
// least one of the given scopes.
func RequireAnyScope(scopes ...string) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			claims := uat.ClaimsFromContext(ctx)
			if claims == nil {
				return nil, errors.Unauthorized("UNAUTHORIZED", "missing token claims")
			}

			granted := scope.FromStrings(claims.Scopes)
			for _, s := range scopes {
				if granted.Covers(scope.Scope(s)) {
					return handler(ctx, req)
				}
			}

			return nil, errors.Forbidden("FORBIDDEN", "insufficient scope")
		}
	}
}

// BearerToken returns Kratos client-side middleware that signs a UAT for email
// with client.IssueToken and injects it into outgoing requests.
// The token is cached and re-signed one minute before it expires.
func BearerToken(client *uat.Client, email string, scopes []string) middleware.Middleware {
	src := &tokenSource{client: client, email: email, scopes: scopes, now: time.Now}
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			tok, err := src.token()
			if err != nil {
				return nil, errors.Unauthorized("UNAUTHORIZED", "failed to sign token")
			}

			if tr, ok := transport.FromClientContext(ctx); ok {
				tr.RequestHeader().Set("Authorization", "Bearer "+tok)
			}

			return handler(ctx, req)
		}
	}
}

const refreshMargin = time.Minute

type tokenSource struct {
	client *uat.Client
	email  string
	scopes []string
	now    func() time.Time

	mu     sync.Mutex
	cached string
	expiry time.Time
}

func (s *tokenSource) token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.cached != "" && now.Add(refreshMargin).Before(s.expiry) {
		return s.cached, nil
	}
	tok, err := s.client.IssueToken(s.email, s.scopes)
	if err != nil {
		return "", err
	}
	s.cached, s.expiry = tok, now.Add(s.client.Config().Expiry())
	return tok, nil
}

// --- internal helpers ---

func extractBearerToken(auth string) string {
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
