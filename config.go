package uat

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds endpoint and issuance configuration. It is passed explicitly to
// each component instead of being read from the environment at call time.
type Config struct {
	// ControlPlanePATLoginURL is the Cloud Manager personal access token login endpoint.
	ControlPlanePATLoginURL string `mapstructure:"controlPlanePatLoginUrl"`

	// ControlPlanePATSecret is the personal access token secret. Optional.
	ControlPlanePATSecret string `mapstructure:"controlPlanePatSecret"`

	// ControlPlaneJWTLoginURL is the Cloud Manager JWT login endpoint.
	ControlPlaneJWTLoginURL string `mapstructure:"controlPlaneJwtLoginUrl"`

	// ControlPlaneUATConfigsURL is the collection URL for UAT configurations.
	ControlPlaneUATConfigsURL string `mapstructure:"controlPlaneUatConfigsUrl"`

	// ContentAPIPodURL is the pod base URL, e.g. "https://prod-useast-a.online.tableau.com".
	ContentAPIPodURL string `mapstructure:"contentApiPodUrl"`

	// ContentAPISiteID is the site content URL. Empty means the content API leg is skipped.
	ContentAPISiteID string `mapstructure:"contentApiSiteId"`

	// JWTIssuer must match the issuer of the registered configuration.
	JWTIssuer string `mapstructure:"jwtIssuer"`

	// JWTExpirationMinutes is the token lifetime in minutes. Default: 5.
	JWTExpirationMinutes int `mapstructure:"jwtExpirationMinutes"`

	// TenantID is the default resource ID when none are given explicitly.
	TenantID string `mapstructure:"tenantId"`

	// KeyDir is where the PEM key pair lives. Default: "keys".
	KeyDir string `mapstructure:"keyDir"`

	// HTTPTimeout bounds every network call. Default: 10 seconds.
	HTTPTimeout time.Duration `mapstructure:"httpTimeout"`
}

// Defaults applied by Config.WithDefaults.
const (
	DefaultExpirationMinutes = 5
	DefaultKeyDir            = "keys"
	DefaultHTTPTimeout       = 10 * time.Second
)

// Environment variable names read by ConfigFromEnv.
const (
	EnvPATLoginURL   = "CLOUD_MANAGER_PAT_LOGIN_URL"
	EnvPATSecret     = "CLOUD_MANAGER_PAT_SECRET"
	EnvJWTLoginURL   = "CLOUD_MANAGER_JWT_LOGIN_URL"
	EnvUATConfigsURL = "CLOUD_MANAGER_UAT_CONFIGS_URL"
	EnvTenantID      = "CLOUD_MANAGER_TENANT_ID"
	EnvPodURL        = "TABLEAU_CLOUD_POD_URL"
	EnvSiteID        = "TABLEAU_CLOUD_SITE_ID"
	EnvJWTIssuer     = "JWT_ISSUER"
	EnvJWTExpiration = "JWT_EXPIRATION"
	EnvKeyDir        = "UAT_KEY_DIR"
	EnvHTTPTimeout   = "UAT_HTTP_TIMEOUT"
)

// Config keys, as used in config files.
const (
	keyPATLoginURL   = "controlPlanePatLoginUrl"
	keyPATSecret     = "controlPlanePatSecret"
	keyJWTLoginURL   = "controlPlaneJwtLoginUrl"
	keyUATConfigsURL = "controlPlaneUatConfigsUrl"
	keyPodURL        = "contentApiPodUrl"
	keySiteID        = "contentApiSiteId"
	keyJWTIssuer     = "jwtIssuer"
	keyJWTExpiration = "jwtExpirationMinutes"
	keyTenantID      = "tenantId"
	keyKeyDir        = "keyDir"
	keyHTTPTimeout   = "httpTimeout"
)

var envBindings = map[string]string{
	keyPATLoginURL:   EnvPATLoginURL,
	keyPATSecret:     EnvPATSecret,
	keyJWTLoginURL:   EnvJWTLoginURL,
	keyUATConfigsURL: EnvUATConfigsURL,
	keyPodURL:        EnvPodURL,
	keySiteID:        EnvSiteID,
	keyJWTIssuer:     EnvJWTIssuer,
	keyJWTExpiration: EnvJWTExpiration,
	keyTenantID:      EnvTenantID,
	keyKeyDir:        EnvKeyDir,
	keyHTTPTimeout:   EnvHTTPTimeout,
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(keyJWTExpiration, DefaultExpirationMinutes)
	v.SetDefault(keyKeyDir, DefaultKeyDir)
	v.SetDefault(keyHTTPTimeout, DefaultHTTPTimeout)
	return v
}

// ConfigFromEnv builds a Config from the process environment.
func ConfigFromEnv() (Config, error) {
	v := newViper()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("uat: bind %s: %w", env, err)
		}
	}
	return decodeConfig(v)
}

// LoadConfigFile reads a YAML config file. Unset fields receive defaults.
func LoadConfigFile(path string) (Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("uat: read config %s: %w", path, err)
	}
	return decodeConfig(v)
}

// decodeConfig decodes the typed keys one by one so a bad value is reported
// against its key, then the whole struct.
func decodeConfig(v *viper.Viper) (Config, error) {
	var minutes int
	if err := v.UnmarshalKey(keyJWTExpiration, &minutes); err != nil {
		return Config{}, Invalid(keyJWTExpiration, "not an integer: %q", v.GetString(keyJWTExpiration))
	}
	var timeout time.Duration
	if err := v.UnmarshalKey(keyHTTPTimeout, &timeout); err != nil {
		return Config{}, Invalid(keyHTTPTimeout, "not a duration: %q", v.GetString(keyHTTPTimeout))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("uat: decode config: %w", err)
	}
	return cfg.WithDefaults(), nil
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.JWTExpirationMinutes == 0 {
		c.JWTExpirationMinutes = DefaultExpirationMinutes
	}
	if c.KeyDir == "" {
		c.KeyDir = DefaultKeyDir
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	return c
}

// Validate checks the fields needed to issue tokens.
func (c Config) Validate() error {
	if c.JWTIssuer == "" {
		return Invalid("jwtIssuer", "must not be empty")
	}
	if c.JWTExpirationMinutes <= 0 {
		return Invalid("jwtExpirationMinutes", "must be positive, got %d", c.JWTExpirationMinutes)
	}
	if c.HTTPTimeout < 0 {
		return Invalid("httpTimeout", "must not be negative")
	}
	return nil
}

// Expiry returns the configured token lifetime.
func (c Config) Expiry() time.Duration {
	return time.Duration(c.JWTExpirationMinutes) * time.Minute
}

// ResolveResourceIDs applies the default-resolution order for configuration
// resource IDs: an explicit list wins, otherwise the configured tenant ID.
// Empty entries are dropped; an empty result is a validation error.
func (c Config) ResolveResourceIDs(explicit []string) ([]string, error) {
	ids := explicit
	if ids == nil {
		ids = []string{c.TenantID}
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil, Invalid("resourceIds", "no resource IDs after filtering unset values")
	}
	return out, nil
}

// BuildConfiguration assembles the configuration registered for name: the
// public key from kp, the configured issuer, and the resolved resource IDs.
// Scopes are used as given.
func (c Config) BuildConfiguration(kp KeyProvider, name string, scopes []string, resourceIDs []string) (Configuration, error) {
	if strings.TrimSpace(name) == "" {
		return Configuration{}, Invalid("name", "must not be empty")
	}
	ids, err := c.ResolveResourceIDs(resourceIDs)
	if err != nil {
		return Configuration{}, err
	}
	if kp == nil {
		return Configuration{}, ErrMissingKeyMaterial
	}
	pub, err := kp.LoadPublicKeyPEM()
	if err != nil {
		if errors.Is(err, ErrMissingKeyMaterial) {
			return Configuration{}, ErrMissingKeyMaterial
		}
		return Configuration{}, err
	}
	if scopes == nil {
		scopes = []string{}
	}
	return Configuration{
		Name:          name,
		Issuer:        c.JWTIssuer,
		PublicKey:     string(pub),
		UsernameClaim: UsernameClaimEmail,
		ResourceIDs:   ids,
		Scopes:        scopes,
		Enabled:       true,
	}, nil
}
