package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	// Keep ambient credentials out of the test.
	t.Setenv("AZUREAD_CLIENT_ID", "")
	t.Setenv("AZUREAD_CLIENT_SECRET", "")
	path := filepath.Join(t.TempDir(), "azuread.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
authority: tenant
tenant_id: contoso.onmicrosoft.com
client_id: client-id
client_secret: client-secret
redirect_url: https://app.example.com/callback
listen_addr: ":9000"
session_secrets:
  - newest
  - older
allowed_tenants:
  - 11111111-1111-1111-1111-111111111111
allowed_email_domain: contoso.com
`)

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, AuthorityTenant, cfg.Authority)
	assert.Equal(t, "contoso.onmicrosoft.com", cfg.TenantID)
	assert.Equal(t, "client-id", cfg.ClientID)
	assert.Equal(t, "client-secret", cfg.ClientSecret)
	assert.Equal(t, "https://app.example.com/callback", cfg.RedirectURL)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, []string{"newest", "older"}, cfg.SessionSecrets)
	assert.Equal(t, []string{"11111111-1111-1111-1111-111111111111"}, cfg.AllowedTenants)
	assert.Equal(t, "contoso.com", cfg.AllowedEmailDomain)
	assert.False(t, cfg.IsLocalDev())
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
client_id: client-id
client_secret: client-secret
`)

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, AuthorityCommon, cfg.Authority)
	assert.Equal(t, "localhost:8080", cfg.ListenAddr)
	assert.Equal(t, "http://localhost:8080/callback", cfg.RedirectURL)
	assert.True(t, cfg.IsLocalDev())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
client_id: file-client-id
client_secret: file-client-secret
`)
	t.Setenv("AZUREAD_CLIENT_ID", "env-client-id")
	t.Setenv("AZUREAD_CLIENT_SECRET", "env-client-secret")

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "env-client-id", cfg.ClientID)
	assert.Equal(t, "env-client-secret", cfg.ClientSecret)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		wantErr  string
	}{
		{
			name: "unsupported authority",
			contents: `
authority: b2c
client_id: client-id
client_secret: client-secret
`,
			wantErr: "unsupported authority",
		},
		{
			name: "tenant authority without tenant_id",
			contents: `
authority: tenant
client_id: client-id
client_secret: client-secret
`,
			wantErr: "tenant_id is required",
		},
		{
			name: "tenant_id with shared authority",
			contents: `
authority: common
tenant_id: contoso.onmicrosoft.com
client_id: client-id
client_secret: client-secret
`,
			wantErr: "tenant_id is only valid",
		},
		{
			name: "missing client_id",
			contents: `
client_secret: client-secret
`,
			wantErr: "client_id is required",
		},
		{
			name: "relative redirect_url",
			contents: `
client_id: client-id
client_secret: client-secret
redirect_url: /callback
`,
			wantErr: "redirect_url must be an absolute",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.contents))
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_DisableAuthSkipsCredentialChecks(t *testing.T) {
	path := writeConfig(t, `
disable_auth: true
`)

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.True(t, cfg.DisableAuth)
	assert.Empty(t, cfg.ClientID)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
