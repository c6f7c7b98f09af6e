// Package ginmw provides Gin HTTP middleware that accepts UAT bearer tokens.
//
// All middleware functions accept an *uat.Client and use its TokenVerifier,
// so any verifier implementation (RSA public key, fake) can back them.
package ginmw

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	uat "github.com/chimerakang/uat-go"
	"github.com/chimerakang/uat-go/scope"
)

// Context keys for storing UAT data in gin.Context.
const (
	KeyTenantID = "uat_tenant_id"
	KeyEmail    = "uat_email"
	KeyScopes   = "uat_scopes"
	KeyClaims   = "uat_claims"
)

// AuthOption configures Auth middleware behavior.
type AuthOption func(*authConfig)

type authConfig struct {
	excludedPaths map[string]bool
}

// WithExcludedPaths sets paths that skip authentication (e.g. health checks).
func WithExcludedPaths(paths ...string) AuthOption {
	return func(cfg *authConfig) {
		for _, p := range paths {
			cfg.excludedPaths[p] = true
		}
	}
}

// Auth returns Gin middleware that verifies UAT tokens via client.Verifier().
// On success, it stores claims in the Gin context and in the request context
// (retrievable via GetClaims or uat.ClaimsFromContext).
// Responds with 401 if the token is missing or invalid.
func Auth(client *uat.Client, opts ...AuthOption) gin.HandlerFunc {
	cfg := &authConfig{excludedPaths: make(map[string]bool)}
	for _, o := range opts {
		o(cfg)
	}

	return func(c *gin.Context) {
		if cfg.excludedPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		tokenStr := extractBearerToken(c.Request)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization token"})
			return
		}

		verifier := client.Verifier()
		if verifier == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token verifier not configured"})
			return
		}

		claims, err := verifier.Verify(c.Request.Context(), tokenStr)
		if err != nil {
			client.Logger().Debug("rejected bearer token", "path", c.Request.URL.Path, "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(KeyClaims, claims)
		c.Set(KeyTenantID, claims.TenantID)
		c.Set(KeyEmail, claims.Email)
		c.Set(KeyScopes, claims.Scopes)
		c.Request = c.Request.WithContext(uat.WithClaims(c.Request.Context(), claims))

		c.Next()
	}
}

// Tenant returns Gin middleware that only admits tokens issued for one of the
// given tenants. Requires Auth middleware to run first.
// Responds with 403 if the tenant is not allowed.
func Tenant(tenantIDs ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := GetTenantID(c)
		if tenantID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing tenant context"})
			return
		}
		if !slices.Contains(tenantIDs, tenantID) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "tenant not allowed"})
			return
		}
		c.Next()
	}
}

// RequireScope returns Gin middleware that checks the token grants required.
// Requires Auth middleware to run first.
// Responds with 403 if the scope is not granted.
func RequireScope(required string) gin.HandlerFunc {
	return RequireAnyScope(required)
}

// RequireAnyScope returns Gin middleware that checks the token grants at least
// one of the given scopes.
func RequireAnyScope(scopes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token claims"})
			return
		}

		granted := scope.FromStrings(claims.Scopes)
		for _, s := range scopes {
			if granted.Covers(scope.Scope(s)) {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient scope"})
	}
}

// --- Context helpers ---

// GetTenantID returns the tenant ID from the Gin context.
func GetTenantID(c *gin.Context) string {
	v, _ := c.Get(KeyTenantID)
	s, _ := v.(string)
	return s
}

// GetEmail returns the token subject's email from the Gin context.
func GetEmail(c *gin.Context) string {
	v, _ := c.Get(KeyEmail)
	s, _ := v.(string)
	return s
}

// GetScopes returns the granted scopes from the Gin context.
func GetScopes(c *gin.Context) []string {
	v, _ := c.Get(KeyScopes)
	s, _ := v.([]string)
	return s
}

// GetClaims returns the full claims from the Gin context.
func GetClaims(c *gin.Context) *uat.TokenClaims {
	v, _ := c.Get(KeyClaims)
	cl, _ := v.(*uat.TokenClaims)
	return cl
}

// --- internal helpers ---

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
