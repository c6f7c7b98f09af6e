// Package grpcmw provides gRPC interceptors that accept UAT bearer tokens.
//
// All interceptors accept an *uat.Client and use its TokenVerifier, so any
// verifier implementation can back them.
package grpcmw

import (
	"context"
	"slices"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	uat "github.com/chimerakang/uat-go"
	"github.com/chimerakang/uat-go/scope"
)

// AuthOption configures auth interceptor behavior.
type AuthOption func(*authConfig)

type authConfig struct {
	excludedMethods map[string]bool
}

// WithExcludedMethods sets gRPC methods that skip authentication.
// Methods should be fully qualified (e.g. "/package.Service/Method").
func WithExcludedMethods(methods ...string) AuthOption {
	return func(cfg *authConfig) {
		for _, m := range methods {
			cfg.excludedMethods[m] = true
		}
	}
}

// UnaryAuth returns a gRPC unary server interceptor that verifies UAT tokens.
// On success, it stores claims in the context via uat.WithClaims.
func UnaryAuth(client *uat.Client, opts ...AuthOption) grpc.UnaryServerInterceptor {
	cfg := &authConfig{excludedMethods: make(map[string]bool)}
	for _, o := range opts {
		o(cfg)
	}

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if cfg.excludedMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		ctx, err := authenticate(ctx, client.Verifier())
		if err != nil {
			return nil, err
		}

		return handler(ctx, req)
	}
}

// StreamAuth returns a gRPC stream server interceptor that verifies UAT tokens.
func StreamAuth(client *uat.Client, opts ...AuthOption) grpc.StreamServerInterceptor {
	cfg := &authConfig{excludedMethods: make(map[string]bool)}
	for _, o := range opts {
		o(cfg)
	}

	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if cfg.excludedMethods[info.FullMethod] {
			return handler(srv, ss)
		}

		ctx, err := authenticate(ss.Context(), client.Verifier())
		if err != nil {
			return err
		}

		wrapped := &wrappedStream{ServerStream: ss, ctx: ctx}
		return handler(srv, wrapped)
	}
}

// UnaryTenant returns a gRPC unary server interceptor that only admits tokens
// issued for one of the given tenants. Requires UnaryAuth to run first.
func UnaryTenant(tenantIDs ...string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		tenantID := uat.TenantIDFromContext(ctx)
		if tenantID == "" {
			return nil, status.Error(codes.Unauthenticated, "missing tenant context")
		}
		if !slices.Contains(tenantIDs, tenantID) {
			return nil, status.Error(codes.PermissionDenied, "tenant not allowed")
		}
		return handler(ctx, req)
	}
}

// UnaryRequireScope returns a gRPC unary server interceptor that checks the
// token grants required. Requires UnaryAuth to run first.
func UnaryRequireScope(required string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if err := checkScope(ctx, required); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamRequireScope is the streaming counterpart of UnaryRequireScope.
func StreamRequireScope(required string) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if err := checkScope(ss.Context(), required); err != nil {
			return err
		}
		return handler(srv, ss)
	}
}

// --- internal helpers ---

func authenticate(ctx context.Context, verifier uat.TokenVerifier) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx, status.Error(codes.Unauthenticated, "missing metadata")
	}

	tokenStr := extractBearerFromMD(md)
	if tokenStr == "" {
		return ctx, status.Error(codes.Unauthenticated, "missing authorization token")
	}

	if verifier == nil {
		return ctx, status.Error(codes.Internal, "token verifier not configured")
	}

	claims, err := verifier.Verify(ctx, tokenStr)
	if err != nil {
		return ctx, status.Error(codes.Unauthenticated, "invalid token")
	}

	return uat.WithClaims(ctx, claims), nil
}

func checkScope(ctx context.Context, required string) error {
	claims := uat.ClaimsFromContext(ctx)
	if claims == nil {
		return status.Error(codes.Unauthenticated, "missing token claims")
	}
	if !scope.FromStrings(claims.Scopes).Covers(scope.Scope(required)) {
		return status.Error(codes.PermissionDenied, "insufficient scope")
	}
	return nil
}

func extractBearerFromMD(md metadata.MD) string {
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	parts := strings.SplitN(vals[0], " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// wrappedStream wraps grpc.ServerStream to override Context().
type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context {
	return w.ctx
}
