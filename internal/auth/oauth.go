package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ccakes/azuread"
	"github.com/ccakes/azuread/internal/authz"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	sessionName = "azuread-session"
	stateKey    = "state"
	profileKey  = "profile"     // stores profile JSON
	tokenKey    = "oauth_token" // stores the full oauth2.Token JSON, refresh token included
)

// Authenticator drives the authorization-code flow against an
// azuread.Provider and keeps the resulting profile and token in an encrypted
// cookie session.
type Authenticator struct {
	provider        azuread.Provider
	oidcProvider    *oidc.Provider
	oauth2Config    oauth2.Config
	sessionStore    *sessions.CookieStore
	redirectURL     string
	authorizer      *authz.Authorizer // optional claims authorization
	skipIssuerCheck bool
}

// Profile holds the ID token claims the application cares about. Entra ID
// puts the sign-in name in preferred_username; email is only present when the
// account has one and the email scope was granted.
type Profile struct {
	Sub               string `json:"sub"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
	TenantID          string `json:"tid"`
}

// EmailOrUsername returns the email claim, falling back to
// preferred_username when the token carries no email.
func (p Profile) EmailOrUsername() string {
	if p.Email != "" {
		return p.Email
	}
	return p.PreferredUsername
}

type AuthenticatorInput struct {
	Provider     azuread.Provider
	ClientID     string
	ClientSecret string
	RedirectURL  string
	ExtraScopes  []string
	Authorizer   *authz.Authorizer
	SessionKeys  [][]byte
	IsLocalDev   bool // disables the Secure cookie flag for http://localhost
}

// multiTenantAuthority reports whether name is one of the shared authorities.
// Their discovery documents advertise the templated issuer
// "https://login.microsoftonline.com/{tenantid}/v2.0", so issuer validation
// has to be relaxed: go-oidc would otherwise reject both the discovery
// document and every ID token.
func multiTenantAuthority(name string) bool {
	switch name {
	case "common", "organizations", "consumers":
		return true
	}
	return false
}

func NewAuthenticator(ctx context.Context, input AuthenticatorInput) (*Authenticator, error) {
	logger := zerolog.Ctx(ctx)

	provider := input.Provider
	issuerURL := provider.IssuerURL()
	skipIssuerCheck := multiTenantAuthority(provider.Name())

	logger.Info().
		Str("authority", provider.Name()).
		Str("issuer_url", issuerURL).
		Bool("multi_tenant", skipIssuerCheck).
		Msg("Initializing OIDC provider")

	discoveryCtx := ctx
	if skipIssuerCheck {
		// Shared authority: accept the templated issuer in the discovery
		// document and skip the issuer match on ID tokens. Single-tenant
		// authorities keep full validation.
		logger.Info().Msg("Shared authority detected - relaxing issuer validation")
		discoveryCtx = oidc.InsecureIssuerURLContext(ctx, issuerURL)
	}

	// The OIDC provider is only used for key discovery and ID token
	// verification; the OAuth2 endpoints come from the azuread provider,
	// which already knows them.
	oidcProvider, err := oidc.NewProvider(discoveryCtx, issuerURL)
	if err != nil {
		logger.Error().
			Err(err).
			Str("issuer_url", issuerURL).
			Msg("Failed to create OIDC provider")
		return nil, fmt.Errorf("failed to create OIDC provider for %s: %w", issuerURL, err)
	}

	oauth2Config := azuread.NewConfig(
		provider,
		input.ClientID,
		input.ClientSecret,
		input.RedirectURL,
		append([]string{"profile", "email"}, input.ExtraScopes...)...,
	)

	logger.Info().
		Str("auth_url", oauth2Config.Endpoint.AuthURL).
		Str("token_url", oauth2Config.Endpoint.TokenURL).
		Strs("scopes", oauth2Config.Scopes).
		Msg("OAuth endpoints configured")

	sessionKeys := input.SessionKeys
	if len(sessionKeys) == 0 {
		logger.Warn().Msg("No session keys provided, generating ephemeral fallback key")
		fallbackKey := make([]byte, 32)
		if _, err := rand.Read(fallbackKey); err != nil {
			return nil, fmt.Errorf("failed to generate fallback session key: %w", err)
		}
		sessionKeys = [][]byte{fallbackKey}
	}

	// Newest key first: writes use the first key, reads try all of them,
	// which is what makes key rotation transparent.
	sessionStore := sessions.NewCookieStore(sessionKeys...)
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   !input.IsLocalDev,
		SameSite: http.SameSiteLaxMode,
	}

	logger.Info().
		Int("session_key_count", len(sessionKeys)).
		Str("authority", provider.Name()).
		Bool("secure_cookies", !input.IsLocalDev).
		Msg("Authenticator initialized")

	return &Authenticator{
		provider:        provider,
		oidcProvider:    oidcProvider,
		oauth2Config:    *oauth2Config,
		sessionStore:    sessionStore,
		redirectURL:     input.RedirectURL,
		authorizer:      input.Authorizer,
		skipIssuerCheck: skipIssuerCheck,
	}, nil
}

// generateState creates a random state value for CSRF protection
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// HandleLogin redirects to the Entra ID authorization endpoint.
func (a *Authenticator) HandleLogin(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	if a.IsNoOp() {
		logger.Info().Msg("Login not required in NoOp auth mode, redirecting to home")
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	state, err := generateState()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to generate state")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// A fresh session is fine here; decrypt errors just mean there was no
	// usable cookie, and the state is overwritten either way.
	session, _ := a.sessionStore.Get(r, sessionName)
	session.Values[stateKey] = state
	if err := session.Save(r, w); err != nil {
		logger.Error().Err(err).Msg("Failed to save session")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	logger.Info().
		Str("authority", a.provider.Name()).
		Msg("Redirecting to authorization endpoint")
	http.Redirect(w, r, a.oauth2Config.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback handles the authorization-code redirect: it checks the CSRF
// state, exchanges the code, verifies the ID token, and stores the profile
// and token in the session.
func (a *Authenticator) HandleCallback(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	if a.IsNoOp() {
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	session, err := a.sessionStore.Get(r, sessionName)
	if err != nil {
		logger.Warn().Err(err).Msg("Session cookie error in callback, redirecting to login")
		http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
		return
	}

	storedState, ok := session.Values[stateKey].(string)
	if !ok || storedState == "" {
		logger.Error().Msg("State not found in session")
		http.Error(w, "Invalid state", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("state") != storedState {
		logger.Error().Msg("State mismatch")
		http.Error(w, "Invalid state", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		logger.Error().Msg("Code not found in callback")
		http.Error(w, "Code not found", http.StatusBadRequest)
		return
	}

	token, err := a.oauth2Config.Exchange(r.Context(), code)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to exchange code for token")
		http.Error(w, "Failed to exchange token", http.StatusInternalServerError)
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		logger.Error().Msg("No id_token in token response")
		http.Error(w, "No id_token", http.StatusInternalServerError)
		return
	}

	verifier := a.oidcProvider.Verifier(&oidc.Config{
		ClientID:        a.oauth2Config.ClientID,
		SkipIssuerCheck: a.skipIssuerCheck,
	})
	idToken, err := verifier.Verify(r.Context(), rawIDToken)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to verify ID token")
		http.Error(w, "Failed to verify token", http.StatusInternalServerError)
		return
	}

	var profile Profile
	if err := idToken.Claims(&profile); err != nil {
		logger.Error().Err(err).Msg("Failed to extract claims")
		http.Error(w, "Failed to extract profile", http.StatusInternalServerError)
		return
	}

	if a.authorizer != nil {
		authzProfile := authz.Profile{
			Sub:      profile.Sub,
			Name:     profile.Name,
			Email:    profile.EmailOrUsername(),
			TenantID: profile.TenantID,
		}
		if err := a.authorizer.Authorize(authzProfile); err != nil {
			logger.Warn().
				Str("sub", profile.Sub).
				Str("tenant_id", profile.TenantID).
				Err(err).
				Msg("User authorization failed")
			http.Error(w, fmt.Sprintf("Access denied: %v", err), http.StatusForbidden)
			return
		}
	}

	profileJSON, err := json.Marshal(profile)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal profile")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	tokenJSON, err := json.Marshal(token)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal token")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	session.Values[profileKey] = string(profileJSON)
	session.Values[tokenKey] = string(tokenJSON)
	delete(session.Values, stateKey)

	if err := session.Save(r, w); err != nil {
		logger.Error().Err(err).Msg("Failed to save session")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	logger.Info().
		Str("sub", profile.Sub).
		Str("tenant_id", profile.TenantID).
		Msg("User authenticated successfully")
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// HandleLogout clears the session and redirects to the authority's
// end-session endpoint so the Entra ID session is terminated as well.
func (a *Authenticator) HandleLogout(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	if a.IsNoOp() {
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	session, _ := a.sessionStore.Get(r, sessionName)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		logger.Error().Err(err).Msg("Failed to clear session")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	redirectURL, err := url.Parse(a.redirectURL)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to parse redirect URL")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	returnTo := fmt.Sprintf("%s://%s", redirectURL.Scheme, redirectURL.Host)

	logger.Info().
		Str("authority", a.provider.Name()).
		Msg("Logging out user")
	http.Redirect(w, r, a.provider.LogoutURL(returnTo), http.StatusTemporaryRedirect)
}

// CurrentProfile returns the authenticated profile stored in the request's
// session, or false when the request is unauthenticated.
func (a *Authenticator) CurrentProfile(r *http.Request) (Profile, bool) {
	if a.IsNoOp() {
		return Profile{}, false
	}
	session, err := a.sessionStore.Get(r, sessionName)
	if err != nil {
		return Profile{}, false
	}
	profileJSON, ok := session.Values[profileKey].(string)
	if !ok || profileJSON == "" {
		return Profile{}, false
	}
	var profile Profile
	if err := json.Unmarshal([]byte(profileJSON), &profile); err != nil {
		return Profile{}, false
	}
	return profile, true
}
