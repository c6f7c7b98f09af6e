package fake_test

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	uat "github.com/chimerakang/uat-go"
	"github.com/chimerakang/uat-go/fake"
	"github.com/chimerakang/uat-go/keys"
	"github.com/chimerakang/uat-go/token"
)

const issuer = "https://issuer.example.com"

type harness struct {
	srv    *fake.Server
	signer *token.Builder
	pubPEM string
}

func setup(t *testing.T, opts ...fake.Option) *harness {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	_, pub, err := keys.Encode(key)
	if err != nil {
		t.Fatal(err)
	}
	srv := fake.NewServer(opts...)
	t.Cleanup(srv.Close)
	return &harness{srv: srv, signer: token.NewBuilder(key), pubPEM: string(pub)}
}

func (h *harness) config(name string, scopes ...string) uat.Configuration {
	return uat.Configuration{
		Name:          name,
		Issuer:        issuer,
		PublicKey:     h.pubPEM,
		UsernameClaim: uat.UsernameClaimEmail,
		ResourceIDs:   []string{"tenant-1"},
		Scopes:        scopes,
		Enabled:       true,
	}
}

func (h *harness) token(t *testing.T, tenant string, scopes ...string) string {
	t.Helper()
	tok, err := h.signer.IssueToken(issuer, tenant, "admin@example.com", scopes, 5)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func post(t *testing.T, url, session string, body any) (int, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set("x-tableau-session-token", session)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

// --- PAT login ---

func TestPATLogin(t *testing.T) {
	h := setup(t, fake.WithPATSecret("s3cret"))

	code, body := post(t, h.srv.URL()+fake.PATLoginPath, "", map[string]string{"token": "s3cret"})
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body["sessionToken"] == "" || body["sessionToken"] == nil {
		t.Error("expected a session token")
	}

	code, _ = post(t, h.srv.URL()+fake.PATLoginPath, "", map[string]string{"token": "nope"})
	if code != http.StatusUnauthorized {
		t.Errorf("wrong secret: status = %d, want 401", code)
	}
}

// --- JWT login ---

func TestJWTLogin(t *testing.T) {
	h := setup(t)
	url := h.srv.URL() + fake.JWTLoginPath

	code, _ := post(t, url, "", map[string]string{"token": h.token(t, "tenant-1")})
	if code != http.StatusUnauthorized {
		t.Fatalf("before registration: status = %d, want 401", code)
	}

	h2 := setup(t, fake.WithConfiguration(h.config("cfg", "tableau:content:*")))
	h2.signer = h.signer
	url = h2.srv.URL() + fake.JWTLoginPath

	tests := []struct {
		name   string
		tenant string
		scopes []string
		want   int
	}{
		{"granted", "tenant-1", []string{"tableau:content:read"}, http.StatusOK},
		{"no scopes", "tenant-1", nil, http.StatusOK},
		{"other tenant", "tenant-2", nil, http.StatusUnauthorized},
		{"scope not granted", "tenant-1", []string{"tableau:sites:read"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := post(t, url, "", map[string]string{"token": h2.token(t, tt.tenant, tt.scopes...)})
			if code != tt.want {
				t.Errorf("status = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestJWTLogin_DisabledConfiguration(t *testing.T) {
	h := setup(t)
	cfg := h.config("cfg")
	cfg.Enabled = false
	h2 := setup(t, fake.WithConfiguration(cfg))
	h2.signer = h.signer

	code, _ := post(t, h2.srv.URL()+fake.JWTLoginPath, "", map[string]string{"token": h2.token(t, "tenant-1")})
	if code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", code)
	}
}

// --- Configurations ---

func TestCreateConfiguration(t *testing.T) {
	h := setup(t)
	session := h.srv.IssueSession()
	url := h.srv.URL() + fake.ConfigsPath

	code, body := post(t, url, session, h.config("cfg", "tableau:content:read"))
	if code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", code)
	}
	if body["configId"] == nil {
		t.Error("expected configId in response")
	}

	code, _ = post(t, url, session, h.config("cfg"))
	if code != http.StatusConflict {
		t.Errorf("duplicate name: status = %d, want 409", code)
	}

	bad := h.config("other")
	bad.PublicKey = "not a key"
	code, _ = post(t, url, session, bad)
	if code != http.StatusBadRequest {
		t.Errorf("bad key: status = %d, want 400", code)
	}

	code, _ = post(t, url, "bogus", h.config("third"))
	if code != http.StatusUnauthorized {
		t.Errorf("bad session: status = %d, want 401", code)
	}

	got := h.srv.Configurations()
	if len(got) != 1 {
		t.Fatalf("expected 1 configuration, got %d", len(got))
	}
	if diff := cmp.Diff([]string{"tableau:content:read"}, got[0].Scopes); diff != "" {
		t.Errorf("scopes mismatch (-want +got):\n%s", diff)
	}
}

func TestFailNext(t *testing.T) {
	h := setup(t, fake.WithPATSecret("s3cret"))
	h.srv.FailNext(fake.PATLoginPath, http.StatusServiceUnavailable)

	url := h.srv.URL() + fake.PATLoginPath
	if code, _ := post(t, url, "", map[string]string{"token": "s3cret"}); code != http.StatusServiceUnavailable {
		t.Errorf("first call: status = %d, want 503", code)
	}
	if code, _ := post(t, url, "", map[string]string{"token": "s3cret"}); code != http.StatusOK {
		t.Errorf("second call: status = %d, want 200", code)
	}
	if n := h.srv.Calls(fake.PATLoginPath); n != 2 {
		t.Errorf("Calls = %d, want 2", n)
	}
}

// --- Content API ---

func signIn(t *testing.T, h *harness, tok, site string) int {
	t.Helper()
	code, _ := post(t, h.srv.URL()+fake.SignInPath, "", map[string]any{
		"credentials": map[string]any{"jwt": tok, "isUat": true, "site": map[string]string{"contentUrl": site}},
	})
	return code
}

func TestSignIn(t *testing.T) {
	h := setup(t)
	h2 := setup(t, fake.WithSite("acme"), fake.WithConfiguration(h.config("cfg")))
	h2.signer = h.signer

	if code := signIn(t, h2, h2.token(t, "tenant-1"), "acme"); code != http.StatusOK {
		t.Errorf("known site: status = %d, want 200", code)
	}
	if code := signIn(t, h2, h2.token(t, "tenant-1"), "globex"); code != http.StatusNotFound {
		t.Errorf("unknown site: status = %d, want 404", code)
	}
	if code := signIn(t, h2, "garbage", "acme"); code != http.StatusUnauthorized {
		t.Errorf("malformed token: status = %d, want 401", code)
	}
}

func TestSignIn_RequiresUATFlag(t *testing.T) {
	h := setup(t)
	code, _ := post(t, h.srv.URL()+fake.SignInPath, "", map[string]any{
		"credentials": map[string]any{"jwt": "x", "site": map[string]string{"contentUrl": ""}},
	})
	if code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
}

func TestConfig(t *testing.T) {
	h := setup(t)
	cfg := h.srv.Config(uat.Config{JWTIssuer: issuer})
	if cfg.ControlPlaneJWTLoginURL != h.srv.URL()+fake.JWTLoginPath {
		t.Errorf("JWT login URL = %q", cfg.ControlPlaneJWTLoginURL)
	}
	if cfg.ContentAPIPodURL != h.srv.URL() {
		t.Errorf("pod URL = %q", cfg.ContentAPIPodURL)
	}
	if cfg.JWTIssuer != issuer {
		t.Errorf("issuer not preserved: %q", cfg.JWTIssuer)
	}
}
