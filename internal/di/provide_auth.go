package di

import (
	"context"
	"fmt"

	"github.com/ccakes/azuread"
	"github.com/ccakes/azuread/internal/auth"
	"github.com/ccakes/azuread/internal/authz"
	"github.com/ccakes/azuread/internal/config"
	"github.com/ccakes/azuread/internal/policy"
	"github.com/ccakes/azuread/internal/services"
	"github.com/rs/zerolog"
)

// ProvideConfig loads the yaml configuration referenced by the container's
// config path.
func ProvideConfig(path ConfigPath) (*config.Config, error) {
	return config.Load(string(path))
}

// ProvideProvider selects the azuread provider for the configured authority.
func ProvideProvider(ctx context.Context, cfg *config.Config) (azuread.Provider, error) {
	logger := zerolog.Ctx(ctx)

	var provider azuread.Provider
	switch cfg.Authority {
	case config.AuthorityCommon:
		provider = azuread.Common
	case config.AuthorityOrganizations:
		provider = azuread.Organizations
	case config.AuthorityConsumers:
		provider = azuread.Consumers
	case config.AuthorityTenant:
		tenant, err := azuread.NewTenant(cfg.TenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to build tenant provider: %w", err)
		}
		provider = tenant
	default:
		return nil, fmt.Errorf("unsupported authority: %s", cfg.Authority)
	}

	logger.Info().
		Str("authority", provider.Name()).
		Str("auth_url", provider.AuthURL().String()).
		Str("token_url", provider.TokenURL().String()).
		Msg("Provider selected")

	return provider, nil
}

// ProvideSessionKeyService builds the session key service from the
// configured secrets.
func ProvideSessionKeyService(cfg *config.Config) *services.SessionKeyService {
	return services.NewSessionKeyService(cfg.SessionSecrets)
}

// ProvideSessionKeys derives the cookie keys. When no usable secret is
// configured the server falls back to an ephemeral key, which breaks
// sessions across restarts and is only acceptable for local development.
func ProvideSessionKeys(ctx context.Context, keyService *services.SessionKeyService) ([][]byte, error) {
	logger := zerolog.Ctx(ctx)

	keys, err := keyService.GetSessionKeys(ctx)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("No session keys available, an ephemeral key will be generated")
		return [][]byte{}, nil
	}
	return keys, nil
}

// ProvideAuthorizer builds the claims authorizer, or nil when neither a
// tenant allowlist nor an email domain restriction is configured.
func ProvideAuthorizer(ctx context.Context, cfg *config.Config) (*authz.Authorizer, error) {
	logger := zerolog.Ctx(ctx)

	if len(cfg.AllowedTenants) == 0 && cfg.AllowedEmailDomain == "" {
		logger.Info().Msg("Claims authorization disabled - all authenticated users allowed")
		return nil, nil
	}

	validator, err := policy.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create access policy validator: %w", err)
	}

	logger.Info().
		Strs("allowed_tenants", cfg.AllowedTenants).
		Str("allowed_email_domain", cfg.AllowedEmailDomain).
		Msg("Claims authorization enabled")

	return authz.NewClaimsAuthorizer(validator, cfg.AllowedTenants, cfg.AllowedEmailDomain), nil
}

// ProvideAuthenticator wires the provider, authorizer, and session keys into
// the Authenticator serving the login flow.
func ProvideAuthenticator(ctx context.Context, cfg *config.Config, provider azuread.Provider, authorizer *authz.Authorizer, sessionKeys [][]byte, disableAuth DisableAuth) (*auth.Authenticator, error) {
	logger := zerolog.Ctx(ctx)

	if bool(disableAuth) || cfg.DisableAuth {
		logger.Warn().Msg("Authentication is DISABLED - using NoOp authenticator (development only)")
		return auth.NewNoOpAuthenticator(), nil
	}

	authenticator, err := auth.NewAuthenticator(ctx, auth.AuthenticatorInput{
		Provider:     provider,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		ExtraScopes:  cfg.Scopes,
		Authorizer:   authorizer,
		SessionKeys:  sessionKeys,
		IsLocalDev:   cfg.IsLocalDev(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}

	return authenticator, nil
}
