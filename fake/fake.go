// Package fake provides an in-memory Cloud Manager and content API for testing.
//
// Use fake.NewServer() in unit tests to exercise the real HTTP clients without
// network access. The server validates tokens against the configurations that
// have been registered with it, the same way the real control plane does.
package fake

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	uat "github.com/chimerakang/uat-go"
	"github.com/chimerakang/uat-go/keys"
	"github.com/chimerakang/uat-go/scope"
	"github.com/chimerakang/uat-go/token"
)

// Route paths served by the fake.
const (
	PATLoginPath  = "/api/v1/pat/login"
	JWTLoginPath  = "/api/v1/jwt/login"
	ConfigsPath   = "/api/v1/uat-configurations"
	SignInPath    = "/api/3.27/auth/signin"
	sessionHeader = "x-tableau-session-token"
)

// Option configures the fake server.
type Option func(*Server)

// WithPATSecret registers a personal access token secret accepted by PAT login.
func WithPATSecret(secret string) Option {
	return func(s *Server) { s.patSecrets[secret] = true }
}

// WithSite registers a site content URL accepted by the content API. If no
// site is registered, any site is accepted.
func WithSite(contentURL string) Option {
	return func(s *Server) { s.sites[contentURL] = uuid.NewString() }
}

// WithConfiguration pre-registers a configuration.
func WithConfiguration(cfg uat.Configuration) Option {
	return func(s *Server) { s.add(cfg) }
}

// Server is an httptest-backed fake of the Cloud Manager and content API.
type Server struct {
	mu         sync.Mutex
	patSecrets map[string]bool
	sites      map[string]string             // contentUrl → site LUID
	sessions   map[string]uat.SessionSource  // session token → source
	configs    map[string]*uat.Configuration // configId → configuration
	faults     map[string][]int              // route → queued status codes
	calls      map[string]int                // route → request count
	order      []string                      // configIds in creation order

	engine *gin.Engine
	srv    *httptest.Server
}

// NewServer starts a fake server. Call Close when done.
func NewServer(opts ...Option) *Server {
	s := &Server{
		patSecrets: make(map[string]bool),
		sites:      make(map[string]string),
		sessions:   make(map[string]uat.SessionSource),
		configs:    make(map[string]*uat.Configuration),
		faults:     make(map[string][]int),
		calls:      make(map[string]int),
	}
	for _, o := range opts {
		o(s)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(s.count, s.inject)
	r.POST(PATLoginPath, s.patLogin)
	r.POST(JWTLoginPath, s.jwtLogin)
	r.POST(SignInPath, s.signIn)

	cfgs := r.Group(ConfigsPath, s.requireSession)
	cfgs.POST("", s.createConfig)
	cfgs.GET("", s.listConfigs)
	cfgs.DELETE("/:id", s.deleteConfig)

	s.engine = r
	s.srv = httptest.NewServer(r)
	return s
}

// URL returns the base URL of the server.
func (s *Server) URL() string { return s.srv.URL }

// Handler returns the underlying gin engine.
func (s *Server) Handler() http.Handler { return s.engine }

// Close shuts down the server.
func (s *Server) Close() { s.srv.Close() }

// Config fills the endpoint fields of base with this server's URLs.
func (s *Server) Config(base uat.Config) uat.Config {
	base.ControlPlanePATLoginURL = s.URL() + PATLoginPath
	base.ControlPlaneJWTLoginURL = s.URL() + JWTLoginPath
	base.ControlPlaneUATConfigsURL = s.URL() + ConfigsPath
	base.ContentAPIPodURL = s.URL()
	return base
}

// FailNext makes the next request to route answer with status instead of
// being handled. Calls queue in order.
func (s *Server) FailNext(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[route] = append(s.faults[route], status)
}

// Calls returns how many requests route has received.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// Configurations returns the registered configurations in creation order.
func (s *Server) Configurations() []uat.Configuration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uat.Configuration, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.configs[id])
	}
	return out
}

// IssueSession creates a control-plane session token directly.
func (s *Server) IssueSession() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newSession(uat.SourceControlPlane)
}

func (s *Server) newSession(src uat.SessionSource) string {
	tok := uuid.NewString()
	s.sessions[tok] = src
	return tok
}

func (s *Server) add(cfg uat.Configuration) string {
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	cfg.ID = id
	s.configs[id] = &cfg
	s.order = append(s.order, id)
	return id
}

func route(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return strings.TrimSuffix(p, "/:id")
	}
	return c.Request.URL.Path
}

func (s *Server) count(c *gin.Context) {
	s.mu.Lock()
	s.calls[route(c)]++
	s.mu.Unlock()
	c.Next()
}

func (s *Server) inject(c *gin.Context) {
	r := route(c)
	s.mu.Lock()
	q := s.faults[r]
	if len(q) == 0 {
		s.mu.Unlock()
		c.Next()
		return
	}
	status := q[0]
	s.faults[r] = q[1:]
	s.mu.Unlock()
	c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
}

func (s *Server) requireSession(c *gin.Context) {
	tok := c.GetHeader(sessionHeader)
	s.mu.Lock()
	src, ok := s.sessions[tok]
	s.mu.Unlock()
	if !ok || src != uat.SourceControlPlane {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session token"})
		return
	}
	c.Next()
}

type loginBody struct {
	Token string `json:"token"`
}

func (s *Server) patLogin(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.patSecrets[body.Token] {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid personal access token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionToken": s.newSession(uat.SourceControlPlane)})
}

func (s *Server) jwtLogin(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.verify(c, body.Token); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionToken": s.newSession(uat.SourceControlPlane)})
}

type signInBody struct {
	Credentials struct {
		JWT   string `json:"jwt"`
		IsUAT bool   `json:"isUat"`
		Site  struct {
			ContentURL string `json:"contentUrl"`
		} `json:"site"`
	} `json:"credentials"`
}

func (s *Server) signIn(c *gin.Context) {
	var body signInBody
	if err := c.ShouldBindJSON(&body); err != nil || !body.Credentials.IsUAT {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "400000", "summary": "Bad Request"}})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	site := body.Credentials.Site.ContentURL
	siteID, known := s.sites[site]
	if len(s.sites) > 0 && !known {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "404000", "summary": "Site not found"}})
		return
	}
	if siteID == "" {
		siteID = uuid.NewString()
	}
	claims, err := s.verify(c, body.Credentials.JWT)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"code": "401001", "summary": "Signin Error", "detail": err.Error()}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"credentials": gin.H{
		"token": s.newSession(uat.SourceContentAPI),
		"site":  gin.H{"id": siteID, "contentUrl": site},
		"user":  gin.H{"id": claims.Email},
	}})
}

type verifyError string

func (e verifyError) Error() string { return string(e) }

// verify checks tok against every enabled configuration whose issuer matches.
// Caller holds s.mu.
func (s *Server) verify(c *gin.Context, tok string) (*uat.TokenClaims, error) {
	unverified, err := token.Decode(tok)
	if err != nil {
		return nil, verifyError("malformed token")
	}

	var reason error = verifyError("no configuration for issuer " + unverified.Issuer)
	for _, id := range s.order {
		cfg := s.configs[id]
		if !cfg.Enabled || cfg.Issuer != unverified.Issuer {
			continue
		}
		pub, err := keys.ParsePublicKey([]byte(cfg.PublicKey))
		if err != nil {
			continue
		}
		claims, err := token.NewVerifier(pub, token.WithIssuer(cfg.Issuer)).Verify(c.Request.Context(), tok)
		if err != nil {
			reason = verifyError("signature or claims rejected")
			continue
		}
		if !slices.Contains(cfg.ResourceIDs, claims.TenantID) {
			reason = verifyError("tenant not authorized by configuration")
			continue
		}
		if ok, missing := scope.FromStrings(claims.Scopes).SubsetOf(scope.FromStrings(cfg.Scopes)); !ok {
			reason = verifyError("scopes not granted: " + strings.Join(missing.Strings(), " "))
			continue
		}
		return claims, nil
	}
	return nil, reason
}

func (s *Server) createConfig(c *gin.Context) {
	var cfg uat.Configuration
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed configuration"})
		return
	}
	if cfg.Name == "" || cfg.Issuer == "" || len(cfg.ResourceIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, issuer and resourceIds are required"})
		return
	}
	if _, err := keys.ParsePublicKey([]byte(cfg.PublicKey)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "publicKey is not a valid PEM public key"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.configs {
		if existing.Name == cfg.Name {
			c.JSON(http.StatusConflict, gin.H{"error": "configuration with this name already exists"})
			return
		}
	}
	cfg.ID = ""
	id := s.add(cfg)
	c.JSON(http.StatusCreated, configJSON(s.configs[id], false))
}

func (s *Server) listConfigs(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]gin.H, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, configJSON(s.configs[id], true))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) deleteConfig(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.configs[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "configuration not found"})
		return
	}
	delete(s.configs, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	c.Status(http.StatusNoContent)
}

// configJSON renders cfg with either a nested {"id":{"configId":...}} or a
// flat "configId", matching the two shapes the control plane returns.
func configJSON(cfg *uat.Configuration, nested bool) gin.H {
	h := gin.H{
		"name":          cfg.Name,
		"issuer":        cfg.Issuer,
		"publicKey":     cfg.PublicKey,
		"usernameClaim": cfg.UsernameClaim,
		"resourceIds":   cfg.ResourceIDs,
		"scopes":        cfg.Scopes,
		"enabled":       cfg.Enabled,
	}
	if nested {
		h["id"] = gin.H{"configId": cfg.ID}
	} else {
		h["configId"] = cfg.ID
	}
	return h
}
