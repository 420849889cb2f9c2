// Package config loads the login server configuration from a yaml file, with
// environment variable overrides for the client credentials so secrets can
// stay out of the file.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Authority names accepted by the Authority field.
const (
	AuthorityCommon        = "common"
	AuthorityOrganizations = "organizations"
	AuthorityConsumers     = "consumers"
	AuthorityTenant        = "tenant"
)

type Config struct {
	// Authority selects which class of account may sign in: "common",
	// "organizations", "consumers", or "tenant".
	Authority string `yaml:"authority"`

	// TenantID identifies the tenant (GUID or verified domain) when
	// Authority is "tenant".
	TenantID string `yaml:"tenant_id"`

	// ClientID is the application (client) ID from the app registration.
	ClientID string `yaml:"client_id"`

	// ClientSecret should normally come from the AZUREAD_CLIENT_SECRET
	// environment variable rather than the file.
	ClientSecret string `yaml:"client_secret"`

	// RedirectURL is the registered OAuth2 redirect URI.
	RedirectURL string `yaml:"redirect_url"`

	// Scopes lists extra scopes to request beyond openid, offline_access,
	// profile, and email.
	Scopes []string `yaml:"scopes"`

	// ListenAddr is the address the demo server binds to.
	ListenAddr string `yaml:"listen_addr"`

	// SessionSecrets seed the cookie encryption keys, newest first.
	SessionSecrets []string `yaml:"session_secrets"`

	// AllowedTenants restricts sign-in to these tenant GUIDs (tid claim).
	// Empty means no tenant restriction.
	AllowedTenants []string `yaml:"allowed_tenants"`

	// AllowedEmailDomain restricts sign-in to emails under this domain.
	// Empty means no domain restriction.
	AllowedEmailDomain string `yaml:"allowed_email_domain"`

	// DisableAuth bypasses authentication entirely. Local development only.
	DisableAuth bool `yaml:"disable_auth"`
}

// Load reads the configuration file at path, applies environment overrides
// and defaults, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if v := os.Getenv("AZUREAD_CLIENT_ID"); v != "" {
		cfg.ClientID = v
	}
	if v := os.Getenv("AZUREAD_CLIENT_SECRET"); v != "" {
		cfg.ClientSecret = v
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Authority == "" {
		c.Authority = AuthorityCommon
	}
	if c.ListenAddr == "" {
		c.ListenAddr = "localhost:8080"
	}
	if c.RedirectURL == "" {
		c.RedirectURL = fmt.Sprintf("http://%s/callback", c.ListenAddr)
	}
}

func (c *Config) validate() error {
	switch c.Authority {
	case AuthorityCommon, AuthorityOrganizations, AuthorityConsumers:
		if c.TenantID != "" {
			return fmt.Errorf("tenant_id is only valid with authority %q, got %q", AuthorityTenant, c.Authority)
		}
	case AuthorityTenant:
		if c.TenantID == "" {
			return fmt.Errorf("tenant_id is required when authority is %q", AuthorityTenant)
		}
	default:
		return fmt.Errorf("unsupported authority %q", c.Authority)
	}

	if !c.DisableAuth {
		if c.ClientID == "" {
			return fmt.Errorf("client_id is required (or set AZUREAD_CLIENT_ID)")
		}
		if c.ClientSecret == "" {
			return fmt.Errorf("client_secret is required (or set AZUREAD_CLIENT_SECRET)")
		}
	}

	if !strings.HasPrefix(c.RedirectURL, "http://") && !strings.HasPrefix(c.RedirectURL, "https://") {
		return fmt.Errorf("redirect_url must be an absolute http(s) URL, got %q", c.RedirectURL)
	}

	return nil
}

// IsLocalDev reports whether the redirect URL points at a plain-http
// localhost, which relaxes the Secure cookie flag.
func (c *Config) IsLocalDev() bool {
	return strings.HasPrefix(c.RedirectURL, "http://localhost") ||
		strings.HasPrefix(c.RedirectURL, "http://127.0.0.1")
}
