package uat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/mock/gomock"

	uat "github.com/chimerakang/uat-go"
	"github.com/chimerakang/uat-go/mocks"
)

func TestNewClient_RequiresIssuer(t *testing.T) {
	_, err := uat.NewClient(uat.Config{})
	if !errors.Is(err, uat.ErrValidation) {
		t.Fatalf("NewClient() error = %v, want validation error", err)
	}
}

func TestNewClient_AppliesDefaults(t *testing.T) {
	c, err := uat.NewClient(uat.Config{JWTIssuer: "https://issuer.example.com"})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	cfg := c.Config()
	if cfg.JWTExpirationMinutes != uat.DefaultExpirationMinutes {
		t.Errorf("JWTExpirationMinutes = %d, want %d", cfg.JWTExpirationMinutes, uat.DefaultExpirationMinutes)
	}
	if cfg.KeyDir != uat.DefaultKeyDir {
		t.Errorf("KeyDir = %q, want %q", cfg.KeyDir, uat.DefaultKeyDir)
	}
	if cfg.HTTPTimeout != uat.DefaultHTTPTimeout {
		t.Errorf("HTTPTimeout = %v, want %v", cfg.HTTPTimeout, uat.DefaultHTTPTimeout)
	}
	if c.Logger() == nil {
		t.Error("Logger() should default to slog.Default()")
	}
}

func TestNewClient_NilServices(t *testing.T) {
	c, err := uat.NewClient(uat.Config{JWTIssuer: "https://issuer.example.com"})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	if c.Keys() != nil || c.Issuer() != nil || c.Verifier() != nil {
		t.Error("unset services should be nil")
	}
	if c.ControlPlane() != nil || c.Registrar() != nil || c.ContentAPI() != nil {
		t.Error("unset services should be nil")
	}
	if err := c.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() should fail with no services")
	}
	if _, err := c.IssueToken("a@b.c", nil); err == nil {
		t.Error("IssueToken() should fail without an issuer")
	}
}

func TestClient_IssueToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	issuer := mocks.NewMockTokenIssuer(ctrl)
	issuer.EXPECT().
		IssueToken("https://issuer.example.com", "tenant-1", "a@b.c", []string{"tableau:content:read"}, 10).
		Return("signed", nil)

	c, err := uat.NewClient(uat.Config{
		JWTIssuer:            "https://issuer.example.com",
		TenantID:             "tenant-1",
		JWTExpirationMinutes: 10,
	}, uat.WithTokenIssuer(issuer))
	if err != nil {
		t.Fatal(err)
	}

	tok, err := c.IssueToken("a@b.c", []string{"tableau:content:read"})
	if err != nil || tok != "signed" {
		t.Fatalf("IssueToken() = %q, %v", tok, err)
	}
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error: %v", err)
	}
}

func TestClient_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	cp := mocks.NewMockControlPlane(ctrl)
	api := mocks.NewMockContentAPI(ctrl)

	cpSession := &uat.Session{Token: "cp", Via: uat.SourceControlPlane}
	apiSession := &uat.Session{Token: "api", Via: uat.SourceContentAPI, Site: "acme"}
	cp.EXPECT().LoginJWT(gomock.Any(), "tok").Return(cpSession, nil)
	api.EXPECT().SignIn(gomock.Any(), "tok", "acme").Return(apiSession, nil)

	c, err := uat.NewClient(uat.Config{JWTIssuer: "https://issuer.example.com", ContentAPISiteID: "acme"},
		uat.WithControlPlane(cp), uat.WithContentAPI(api))
	if err != nil {
		t.Fatal(err)
	}

	a, b := c.Login(context.Background(), "tok")
	if diff := cmp.Diff(uat.LegResult{Status: uat.StatusSuccess, Session: cpSession}, a); diff != "" {
		t.Errorf("control plane leg mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(uat.LegResult{Status: uat.StatusSuccess, Session: apiSession}, b); diff != "" {
		t.Errorf("content API leg mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_Login_LegsAreIndependent(t *testing.T) {
	ctrl := gomock.NewController(t)
	cp := mocks.NewMockControlPlane(ctrl)
	api := mocks.NewMockContentAPI(ctrl)

	ex := &uat.Exchange{Method: "POST", URL: "https://cm.example.com/api/v1/jwt/login", StatusCode: 401}
	rejected := &uat.AuthenticationError{HTTPFailure: uat.HTTPFailure{StatusCode: 401, Body: "nope", Exchange: ex}}
	cp.EXPECT().LoginJWT(gomock.Any(), "tok").Return(nil, rejected)
	api.EXPECT().SignIn(gomock.Any(), "tok", "acme").Return(&uat.Session{Token: "api"}, nil)

	c, err := uat.NewClient(uat.Config{JWTIssuer: "https://issuer.example.com", ContentAPISiteID: "acme"},
		uat.WithControlPlane(cp), uat.WithContentAPI(api))
	if err != nil {
		t.Fatal(err)
	}

	a, b := c.Login(context.Background(), "tok")
	if a.Status != uat.StatusFailed || !errors.Is(a.Err, uat.ErrAuthentication) {
		t.Errorf("control plane leg = %+v, want authentication failure", a)
	}
	if a.Exchange != ex {
		t.Error("failed leg should carry the recorded exchange")
	}
	if b.Status != uat.StatusSuccess {
		t.Errorf("content API leg = %+v, want success", b)
	}
}

func TestClient_Login_EmptySessions(t *testing.T) {
	ctrl := gomock.NewController(t)
	cp := mocks.NewMockControlPlane(ctrl)
	api := mocks.NewMockContentAPI(ctrl)

	cp.EXPECT().LoginJWT(gomock.Any(), "tok").Return(nil, nil)
	api.EXPECT().SignIn(gomock.Any(), "tok", "acme").Return(&uat.Session{Site: "acme"}, nil)

	c, err := uat.NewClient(uat.Config{JWTIssuer: "https://issuer.example.com", ContentAPISiteID: "acme"},
		uat.WithControlPlane(cp), uat.WithContentAPI(api))
	if err != nil {
		t.Fatal(err)
	}

	a, b := c.Login(context.Background(), "tok")
	for name, leg := range map[string]uat.LegResult{"control plane": a, "content API": b} {
		if leg.Status != uat.StatusFailed || !errors.Is(leg.Err, uat.ErrAuthentication) {
			t.Errorf("%s leg = %+v, want authentication failure", name, leg)
		}
		if leg.Session != nil {
			t.Errorf("%s leg should not carry a session", name)
		}
	}
}

func TestClient_Login_SkipsWithoutSite(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockContentAPI(ctrl)

	c, err := uat.NewClient(uat.Config{JWTIssuer: "https://issuer.example.com"}, uat.WithContentAPI(api))
	if err != nil {
		t.Fatal(err)
	}

	a, b := c.Login(context.Background(), "tok")
	if a.Status != uat.StatusSkipped || b.Status != uat.StatusSkipped {
		t.Errorf("legs = %s/%s, want skipped/skipped", a.Status, b.Status)
	}
}

type closingVerifier struct {
	uat.TokenVerifier
	closed bool
}

func (v *closingVerifier) Close() error {
	v.closed = true
	return nil
}

func TestClient_Close(t *testing.T) {
	v := &closingVerifier{}
	c, err := uat.NewClient(uat.Config{JWTIssuer: "https://issuer.example.com"}, uat.WithTokenVerifier(v))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if !v.closed {
		t.Error("Close() should close services implementing io.Closer")
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if uat.ClaimsFromContext(ctx) != nil || uat.TenantIDFromContext(ctx) != "" || uat.EmailFromContext(ctx) != "" {
		t.Error("empty context should yield zero values")
	}

	claims := &uat.TokenClaims{TenantID: "t1", Email: "a@b.c", Scopes: []string{"tableau:content:read"}}
	ctx = uat.WithClaims(ctx, claims)
	if uat.ClaimsFromContext(ctx) != claims {
		t.Error("ClaimsFromContext() should return the stored claims")
	}
	if uat.TenantIDFromContext(ctx) != "t1" || uat.EmailFromContext(ctx) != "a@b.c" {
		t.Error("tenant or email not stored")
	}
	if !claims.HasScope("tableau:content:read") || claims.HasScope("tableau:content:delete") {
		t.Error("HasScope() mismatch")
	}
}
