package uat

import "context"

type ctxKey string

const (
	ctxKeyClaims   ctxKey = "uat_claims"
	ctxKeyTenantID ctxKey = "uat_tenant_id"
	ctxKeyEmail    ctxKey = "uat_email"
)

// WithClaims stores verified token claims in the context.
func WithClaims(ctx context.Context, claims *TokenClaims) context.Context {
	ctx = context.WithValue(ctx, ctxKeyClaims, claims)
	ctx = context.WithValue(ctx, ctxKeyTenantID, claims.TenantID)
	return context.WithValue(ctx, ctxKeyEmail, claims.Email)
}

// ClaimsFromContext extracts the verified token claims from the context.
func ClaimsFromContext(ctx context.Context) *TokenClaims {
	v, _ := ctx.Value(ctxKeyClaims).(*TokenClaims)
	return v
}

// TenantIDFromContext extracts the tenant ID of the verified token.
func TenantIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyTenantID).(string)
	return v
}

// EmailFromContext extracts the subject email of the verified token.
func EmailFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyEmail).(string)
	return v
}
