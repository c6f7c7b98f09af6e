package ginmw

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"

	uat "github.com/chimerakang/uat-go"
	"github.com/chimerakang/uat-go/token"
)

const testIssuer = "https://issuer.example.com"

func init() {
	gin.SetMode(gin.TestMode)
}

func setup(t *testing.T) (*uat.Client, *token.Builder) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	client, err := uat.NewClient(uat.Config{JWTIssuer: testIssuer, TenantID: "tenant-1"},
		uat.WithTokenVerifier(token.NewVerifier(&key.PublicKey, token.WithIssuer(testIssuer))),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, token.NewBuilder(key)
}

func issue(t *testing.T, b *token.Builder, tenant string, scopes ...string) string {
	t.Helper()
	tok, err := b.IssueToken(testIssuer, tenant, "admin@example.com", scopes, 5)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return tok
}

func serve(r *gin.Engine, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_Success(t *testing.T) {
	client, b := setup(t)
	tok := issue(t, b, "tenant-1", "tableau:content:read")

	r := gin.New()
	r.Use(Auth(client))
	var gotTenant, gotEmail, fromRequest string
	var gotScopes []string
	r.GET("/data", func(c *gin.Context) {
		gotTenant = GetTenantID(c)
		gotEmail = GetEmail(c)
		gotScopes = GetScopes(c)
		fromRequest = uat.TenantIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := serve(r, "/data", tok)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body)
	}
	if gotTenant != "tenant-1" || fromRequest != "tenant-1" {
		t.Errorf("tenant = %q / %q, want tenant-1", gotTenant, fromRequest)
	}
	if gotEmail != "admin@example.com" {
		t.Errorf("email = %q", gotEmail)
	}
	if diff := cmp.Diff([]string{"tableau:content:read"}, gotScopes); diff != "" {
		t.Errorf("scopes mismatch (-want +got):\n%s", diff)
	}
}

func TestAuth_Rejects(t *testing.T) {
	client, _ := setup(t)
	_, other := setup(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"garbage", "not-a-jwt"},
		{"wrong key", issue(t, other, "tenant-1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(Auth(client))
			r.GET("/data", func(c *gin.Context) { c.Status(http.StatusOK) })

			if w := serve(r, "/data", tt.header); w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
		})
	}
}

func TestAuth_NonBearerScheme(t *testing.T) {
	client, b := setup(t)
	r := gin.New()
	r.Use(Auth(client))
	r.GET("/data", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/data", nil)
	req.Header.Set("Authorization", "Basic "+issue(t, b, "tenant-1"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuth_ExcludedPath(t *testing.T) {
	client, _ := setup(t)
	r := gin.New()
	r.Use(Auth(client, WithExcludedPaths("/healthz")))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := serve(r, "/healthz", ""); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestAuth_NoVerifier(t *testing.T) {
	client, err := uat.NewClient(uat.Config{JWTIssuer: testIssuer})
	if err != nil {
		t.Fatal(err)
	}
	r := gin.New()
	r.Use(Auth(client))
	r.GET("/data", func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := serve(r, "/data", "anything"); w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestTenant(t *testing.T) {
	client, b := setup(t)
	r := gin.New()
	r.Use(Auth(client), Tenant("tenant-1", "tenant-2"))
	r.GET("/data", func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := serve(r, "/data", issue(t, b, "tenant-2")); w.Code != http.StatusOK {
		t.Errorf("allowed tenant: status = %d, want 200", w.Code)
	}
	if w := serve(r, "/data", issue(t, b, "tenant-9")); w.Code != http.StatusForbidden {
		t.Errorf("other tenant: status = %d, want 403", w.Code)
	}
}

func TestRequireScope(t *testing.T) {
	client, b := setup(t)

	tests := []struct {
		name     string
		granted  []string
		required string
		want     int
	}{
		{"exact", []string{"tableau:content:read"}, "tableau:content:read", http.StatusOK},
		{"wildcard", []string{"tableau:content:*"}, "tableau:content:read", http.StatusOK},
		{"other action", []string{"tableau:content:read"}, "tableau:content:delete", http.StatusForbidden},
		{"other prefix", []string{"tableau:sites:*"}, "tableau:content:read", http.StatusForbidden},
		{"none", nil, "tableau:content:read", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(Auth(client), RequireScope(tt.required))
			r.GET("/data", func(c *gin.Context) { c.Status(http.StatusOK) })

			if w := serve(r, "/data", issue(t, b, "tenant-1", tt.granted...)); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRequireAnyScope(t *testing.T) {
	client, b := setup(t)
	r := gin.New()
	r.Use(Auth(client), RequireAnyScope("tableau:sites:update", "tableau:content:read"))
	r.GET("/data", func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := serve(r, "/data", issue(t, b, "tenant-1", "tableau:content:read")); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRequireScope_WithoutAuth(t *testing.T) {
	r := gin.New()
	r.Use(RequireScope("tableau:content:read"))
	r.GET("/data", func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := serve(r, "/data", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := extractBearerToken(req); got != tt.want {
			t.Errorf("extractBearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
