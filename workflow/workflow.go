// Package workflow drives a complete UAT setup and login run: key material,
// token issuance, configuration registration and both login legs. Each step
// records its own status so one failure never hides the outcome of the others.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	uat "github.com/chimerakang/uat-go"
	"github.com/chimerakang/uat-go/audit"
	"github.com/chimerakang/uat-go/keys"
	"github.com/chimerakang/uat-go/metrics"
	"github.com/chimerakang/uat-go/scope"
	"github.com/chimerakang/uat-go/session"
	"github.com/chimerakang/uat-go/token"
	"github.com/chimerakang/uat-go/transport"
)

// Step names a workflow stage.
type Step string

const (
	StepKeys              Step = "keys"
	StepToken             Step = "token"
	StepRegister          Step = "register"
	StepControlPlaneLogin Step = "controlplane_login"
	StepContentAPILogin   Step = "contentapi_login"
)

// Steps returns every step in execution order.
func Steps() []Step {
	return []Step{StepKeys, StepToken, StepRegister, StepControlPlaneLogin, StepContentAPILogin}
}

// Plan describes one run.
type Plan struct {
	// ConfigName names the configuration to register. Empty skips registration.
	ConfigName string

	// Email is the token subject.
	Email string

	// Scopes are requested in the token and registered with the configuration.
	Scopes []string

	// ResourceIDs overrides the configured tenant ID as the configuration's resource IDs.
	ResourceIDs []string

	// Site overrides Config.ContentAPISiteID. Empty with no configured site skips Leg B.
	Site string

	// RotateKeys replaces an existing key pair. A rotated key invalidates any
	// configuration registered with the old one.
	RotateKeys bool
}

// StepResult is the outcome of one step.
type StepResult struct {
	Step     Step
	Status   uat.LegStatus
	Message  string
	Err      error
	Exchange *uat.Exchange
	Curl     string
	Advisory bool // succeeded with a non-fatal warning
	Duration time.Duration
}

// Result collects every step of a run.
type Result struct {
	Steps        []StepResult
	Token        string
	Claims       *uat.TokenClaims
	ControlPlane *uat.Session
	ContentAPI   *uat.Session
	Registration *uat.RegistrationOutcome
}

// Step returns the result for s, or nil if it did not run.
func (r *Result) Step(s Step) *StepResult {
	for i := range r.Steps {
		if r.Steps[i].Step == s {
			return &r.Steps[i]
		}
	}
	return nil
}

// OK reports whether no step failed.
func (r *Result) OK() bool {
	for _, s := range r.Steps {
		if s.Status == uat.StatusFailed {
			return false
		}
	}
	return true
}

// Err returns the first step failure, or nil.
func (r *Result) Err() error {
	for _, s := range r.Steps {
		if s.Status == uat.StatusFailed {
			return fmt.Errorf("uat/workflow: step %s: %w", s.Step, s.Err)
		}
	}
	return nil
}

// KeyGenerator is implemented by key providers that can create key material.
type KeyGenerator interface {
	Exists() bool
	Generate(opts ...keys.GenerateOption) (*keys.KeyPair, error)
}

// controlPlaneLeg is implemented by control-plane clients that expose the
// recorded exchange of a successful login.
type controlPlaneLeg interface {
	LoginLeg(ctx context.Context, token string) uat.LegResult
}

// contentAPILeg is the content-API counterpart of controlPlaneLeg.
type contentAPILeg interface {
	Login(ctx context.Context, token, site string) uat.LegResult
}

// Runner executes plans against one configuration.
type Runner struct {
	cfg          uat.Config
	keys         uat.KeyProvider
	issuer       uat.TokenIssuer
	controlPlane uat.ControlPlane
	registrar    uat.Registrar
	contentAPI   uat.ContentAPI
	sessions     *session.Cache
	logger       *slog.Logger
	metrics      *metrics.Metrics
	audit        *audit.Logger
	now          func() time.Time
}

// Option configures the Runner.
type Option func(*Runner)

// WithTokenIssuer overrides signing with the loaded private key.
func WithTokenIssuer(i uat.TokenIssuer) Option {
	return func(r *Runner) { r.issuer = i }
}

// WithControlPlane sets the client used for PAT login and Leg A.
func WithControlPlane(cp uat.ControlPlane) Option {
	return func(r *Runner) { r.controlPlane = cp }
}

// WithRegistrar sets the configuration registrar.
func WithRegistrar(reg uat.Registrar) Option {
	return func(r *Runner) { r.registrar = reg }
}

// WithContentAPI sets the client used for Leg B.
func WithContentAPI(api uat.ContentAPI) Option {
	return func(r *Runner) { r.contentAPI = api }
}

// WithSessionCache reuses PAT sessions across runs.
func WithSessionCache(c *session.Cache) Option {
	return func(r *Runner) { r.sessions = c }
}

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithAuditLogger emits audit events for key generation and token issuance.
func WithAuditLogger(a *audit.Logger) Option {
	return func(r *Runner) { r.audit = a }
}

// New creates a Runner. kp supplies key material; if it also implements
// KeyGenerator, missing keys are generated.
func New(cfg uat.Config, kp uat.KeyProvider, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg.WithDefaults(),
		keys:   kp,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// NewFromClient creates a Runner from the services configured on c.
func NewFromClient(c *uat.Client, opts ...Option) *Runner {
	base := []Option{
		WithLogger(c.Logger()),
		WithTokenIssuer(c.Issuer()),
		WithControlPlane(c.ControlPlane()),
		WithRegistrar(c.Registrar()),
		WithContentAPI(c.ContentAPI()),
	}
	return New(c.Config(), c.Keys(), append(base, opts...)...)
}

// Run executes every step of plan. A failure in keys or token stops the run
// and marks the remaining steps skipped; the later steps are independent.
func (r *Runner) Run(ctx context.Context, plan Plan) *Result {
	res := &Result{}
	record := func(sr StepResult) {
		if sr.Exchange != nil && sr.Curl == "" {
			sr.Curl = transport.Curl(sr.Exchange)
		}
		res.Steps = append(res.Steps, sr)
		r.logger.Info("workflow step", "step", sr.Step, "status", sr.Status, "message", sr.Message)
	}
	skipRest := func(from Step, why string) {
		started := false
		for _, s := range Steps() {
			if s == from {
				started = true
			}
			if started {
				record(StepResult{Step: s, Status: uat.StatusSkipped, Message: why})
			}
		}
	}

	scopes, err := scope.ValidateSet(plan.Scopes)
	if err != nil {
		record(StepResult{Step: StepKeys, Status: uat.StatusSkipped, Message: "scopes rejected"})
		record(StepResult{Step: StepToken, Status: uat.StatusFailed, Message: err.Error(), Err: err})
		skipRest(StepRegister, "no token")
		return res
	}

	sr := r.runKeys(ctx, plan)
	record(sr)
	if sr.Status == uat.StatusFailed {
		skipRest(StepToken, "no key material")
		return res
	}

	sr = r.runToken(ctx, plan, scopes, res)
	record(sr)
	if sr.Status == uat.StatusFailed {
		skipRest(StepRegister, "no token")
		return res
	}

	var legA *StepResult
	sr, legA = r.runRegister(ctx, plan, scopes, res)
	record(sr)

	if legA == nil {
		a := r.runControlPlaneLogin(ctx, res.Token, res)
		legA = &a
	}
	record(*legA)

	record(r.runContentAPILogin(ctx, plan, res))
	return res
}

func (r *Runner) runKeys(ctx context.Context, plan Plan) (sr StepResult) {
	start := r.now()
	sr.Step = StepKeys
	defer func() { sr.Duration = time.Since(start) }()

	if r.keys == nil {
		sr.Status, sr.Err = uat.StatusFailed, &uat.KeyMaterialError{Err: errors.New("no key provider configured")}
		sr.Message = sr.Err.Error()
		return sr
	}
	gen, canGenerate := r.keys.(KeyGenerator)
	if !canGenerate || (gen.Exists() && !plan.RotateKeys) {
		sr.Status, sr.Message = uat.StatusSuccess, "using existing key pair"
		return sr
	}

	var opts []keys.GenerateOption
	if plan.RotateKeys {
		opts = append(opts, keys.WithOverwrite())
	}
	ev := audit.Event{Action: audit.ActionKeyGenerate, Result: audit.ResultSuccess, TenantID: r.cfg.TenantID}
	kp, err := gen.Generate(opts...)
	if err != nil {
		sr.Status, sr.Err, sr.Message = uat.StatusFailed, err, err.Error()
		ev.Result, ev.Error = audit.ResultFailure, err.Error()
		r.audit.LogContext(ctx, ev)
		return sr
	}
	r.metrics.RecordKeyGenerated()
	ev.Resource = kp.PublicKeyPath
	r.audit.LogContext(ctx, ev)
	sr.Status, sr.Message = uat.StatusSuccess, "generated key pair in "+kp.PublicKeyPath
	return sr
}

func (r *Runner) runToken(ctx context.Context, plan Plan, scopes scope.Set, res *Result) StepResult {
	start := r.now()
	sr := StepResult{Step: StepToken}
	ev := audit.Event{
		Action:   audit.ActionTokenIssue,
		Issuer:   r.cfg.JWTIssuer,
		TenantID: r.cfg.TenantID,
		Subject:  plan.Email,
		Scopes:   scopes.Strings(),
	}
	fail := func(err error) StepResult {
		r.metrics.RecordTokenIssued(metrics.ResultFailure)
		ev.Result, ev.Error = audit.ResultFailure, err.Error()
		r.audit.LogContext(ctx, ev)
		sr.Status, sr.Err, sr.Message = uat.StatusFailed, err, err.Error()
		sr.Duration = time.Since(start)
		return sr
	}

	issuer := r.issuer
	if issuer == nil {
		if r.keys == nil {
			return fail(&uat.KeyMaterialError{Err: errors.New("no key provider configured")})
		}
		priv, err := r.keys.LoadPrivateKey()
		if err != nil {
			return fail(err)
		}
		issuer = token.NewBuilder(priv)
	}

	tok, err := issuer.IssueToken(r.cfg.JWTIssuer, r.cfg.TenantID, plan.Email, scopes.Strings(), r.cfg.JWTExpirationMinutes)
	if err != nil {
		return fail(err)
	}
	res.Token = tok
	if claims, err := token.Decode(tok); err == nil {
		res.Claims = claims
	}

	r.metrics.RecordTokenIssued(metrics.ResultSuccess)
	ev.Result = audit.ResultSuccess
	r.audit.LogContext(ctx, ev)
	sr.Status = uat.StatusSuccess
	sr.Message = fmt.Sprintf("signed token for %s with %d scope(s), valid %d minute(s)", plan.Email, len(scopes), r.cfg.JWTExpirationMinutes)
	sr.Duration = time.Since(start)
	return sr
}

// runRegister registers the plan's configuration. Without a PAT secret it
// performs Leg A first to obtain a session and returns that leg's result so
// it is not repeated.
func (r *Runner) runRegister(ctx context.Context, plan Plan, scopes scope.Set, res *Result) (StepResult, *StepResult) {
	start := r.now()
	sr := StepResult{Step: StepRegister}
	if plan.ConfigName == "" || r.registrar == nil {
		sr.Status, sr.Message = uat.StatusSkipped, "no configuration to register"
		return sr, nil
	}

	var legA *StepResult
	sess, key, err := r.patSession(ctx)
	if err == nil && sess == "" {
		a := r.runControlPlaneLogin(ctx, res.Token, res)
		legA = &a
		if a.Status != uat.StatusSuccess {
			err = fmt.Errorf("no control plane session: %w", a.Err)
		} else {
			sess = res.ControlPlane.Token
		}
	}
	if err != nil {
		sr.Status, sr.Err, sr.Message = uat.StatusFailed, err, err.Error()
		sr.Exchange = uat.ExchangeOf(err)
		sr.Duration = time.Since(start)
		return sr, legA
	}

	cfg, err := r.cfg.BuildConfiguration(r.keys, plan.ConfigName, scopes.Strings(), plan.ResourceIDs)
	if err != nil {
		sr.Status, sr.Err, sr.Message = uat.StatusFailed, err, err.Error()
		sr.Duration = time.Since(start)
		return sr, legA
	}

	out, err := r.registrar.CreateConfiguration(ctx, sess, cfg)
	res.Registration = out
	if out != nil {
		sr.Exchange = out.Exchange
		sr.Message = out.Message
	}
	switch {
	case err == nil:
		sr.Status = uat.StatusSuccess
	case uat.IsNonFatal(err):
		sr.Status, sr.Advisory, sr.Message = uat.StatusSuccess, true, err.Error()
	default:
		var failed *uat.RegistrationFailed
		if errors.As(err, &failed) && failed.StatusCode == http.StatusUnauthorized && r.sessions != nil {
			r.sessions.Invalidate(key)
		}
		sr.Status, sr.Err = uat.StatusFailed, err
		if sr.Message == "" {
			sr.Message = err.Error()
		}
		if sr.Exchange == nil {
			sr.Exchange = uat.ExchangeOf(err)
		}
	}
	sr.Duration = time.Since(start)
	return sr, legA
}

// patSession returns a PAT session, or "" when no PAT secret is configured.
func (r *Runner) patSession(ctx context.Context) (string, session.Key, error) {
	key := session.Key{Via: uat.SourceControlPlane, Tenant: r.cfg.TenantID}
	if r.cfg.ControlPlanePATSecret == "" || r.controlPlane == nil {
		return "", key, nil
	}
	login := func(ctx context.Context) (*uat.Session, error) {
		return r.controlPlane.LoginPAT(ctx, r.cfg.ControlPlanePATSecret)
	}
	var (
		s   *uat.Session
		err error
	)
	if r.sessions != nil {
		s, err = r.sessions.Get(ctx, key, login)
	} else {
		s, err = login(ctx)
	}
	if leg := uat.NewLegResult(s, err); leg.Err != nil {
		if r.sessions != nil {
			r.sessions.Invalidate(key)
		}
		return "", key, fmt.Errorf("PAT login: %w", leg.Err)
	}
	return s.Token, key, nil
}

func (r *Runner) runControlPlaneLogin(ctx context.Context, tok string, res *Result) StepResult {
	start := r.now()
	if r.controlPlane == nil {
		return StepResult{Step: StepControlPlaneLogin, Status: uat.StatusSkipped, Message: "control plane not configured"}
	}

	var leg uat.LegResult
	if cp, ok := r.controlPlane.(controlPlaneLeg); ok {
		leg = cp.LoginLeg(ctx, tok)
	} else {
		s, err := r.controlPlane.LoginJWT(ctx, tok)
		leg = uat.NewLegResult(s, err)
	}
	res.ControlPlane = leg.Session
	return fromLeg(StepControlPlaneLogin, leg, time.Since(start))
}

func (r *Runner) runContentAPILogin(ctx context.Context, plan Plan, res *Result) StepResult {
	start := r.now()
	site := plan.Site
	if site == "" {
		site = r.cfg.ContentAPISiteID
	}
	if r.contentAPI == nil || site == "" {
		return StepResult{Step: StepContentAPILogin, Status: uat.StatusSkipped, Message: "no site configured"}
	}

	var leg uat.LegResult
	if api, ok := r.contentAPI.(contentAPILeg); ok {
		leg = api.Login(ctx, res.Token, site)
	} else {
		s, err := r.contentAPI.SignIn(ctx, res.Token, site)
		leg = uat.NewLegResult(s, err)
	}
	res.ContentAPI = leg.Session
	return fromLeg(StepContentAPILogin, leg, time.Since(start))
}

func fromLeg(step Step, leg uat.LegResult, d time.Duration) StepResult {
	sr := StepResult{Step: step, Status: leg.Status, Err: leg.Err, Exchange: leg.Exchange, Duration: d}
	switch {
	case leg.Err != nil:
		sr.Message = leg.Err.Error()
		if sr.Exchange == nil {
			sr.Exchange = uat.ExchangeOf(leg.Err)
		}
	case leg.Status == uat.StatusSuccess:
		sr.Message = "login succeeded"
	default:
		sr.Message = "skipped"
	}
	return sr
}
