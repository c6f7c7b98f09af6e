package uat

import "time"

// TenantClaim is the vendor-specific claim key carrying the target tenant ID.
const TenantClaim = "https://tableau.com/tenantId"

// UsernameClaimEmail is the only username claim convention registered configurations use.
const UsernameClaimEmail = "email"

// TokenClaims is the claim set carried by a signed UAT token.
type TokenClaims struct {
	Issuer    string
	TenantID  string
	Email     string
	Scopes    []string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string // jti
}

// HasScope reports whether the claims grant the given scope string.
func (c *TokenClaims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Configuration is a UAT trust configuration as registered with Cloud Manager.
type Configuration struct {
	ID            string   `json:"-"`
	Name          string   `json:"name"`
	Issuer        string   `json:"issuer"`
	PublicKey     string   `json:"publicKey"`
	UsernameClaim string   `json:"usernameClaim"`
	ResourceIDs   []string `json:"resourceIds"`
	Scopes        []string `json:"scopes"`
	Enabled       bool     `json:"enabled"`
}

// SessionSource identifies which API issued a session token.
type SessionSource string

const (
	SourceControlPlane SessionSource = "control_plane"
	SourceContentAPI   SessionSource = "content_api"
)

// Session is a bearer session returned by a login call.
// Its expiry is server-defined and not tracked by the client.
type Session struct {
	Token      string
	Via        SessionSource
	Site       string // content API sessions only
	AcquiredAt time.Time
}

// LegStatus is the terminal state of one login leg or workflow step.
type LegStatus string

const (
	StatusSuccess LegStatus = "success"
	StatusFailed  LegStatus = "failed"
	StatusSkipped LegStatus = "skipped"
)

// Exchange records one HTTP round-trip so an operator can reproduce it.
type Exchange struct {
	Method       string
	URL          string
	Headers      map[string]string
	RequestBody  []byte
	StatusCode   int
	ResponseBody []byte
}

// LegResult is the outcome of one login leg.
type LegResult struct {
	Status   LegStatus
	Session  *Session
	Err      error
	Exchange *Exchange
}

// RegistrationResult distinguishes the three outcomes of a configuration create.
type RegistrationResult string

const (
	RegistrationCreated       RegistrationResult = "created"
	RegistrationAlreadyExists RegistrationResult = "already_exists"
	RegistrationFailedResult  RegistrationResult = "failed"
)

// RegistrationOutcome is returned by a configuration create.
type RegistrationOutcome struct {
	Result   RegistrationResult
	Message  string
	Exchange *Exchange
}

// Success reports whether the configuration was created by this call.
func (o *RegistrationOutcome) Success() bool {
	return o != nil && o.Result == RegistrationCreated
}

// Fatal reports whether callers should stop. An existing configuration is advisory.
func (o *RegistrationOutcome) Fatal() bool {
	return o == nil || o.Result == RegistrationFailedResult
}
