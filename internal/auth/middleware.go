package auth

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// RequireAuth creates middleware that ensures the user is authenticated.
// If redirectOnFail is true (for document/HTML routes), it redirects to
// /login on auth failure; otherwise (for API routes) it returns a 403 JSON
// response.
//
// When the stored access token has expired and a refresh token is present,
// the middleware renews the token through the OAuth2 token source and writes
// the fresh token back to the session before letting the request through.
func (a *Authenticator) RequireAuth(redirectOnFail bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := zerolog.Ctx(r.Context())

			if a.IsNoOp() {
				logger.Debug().
					Str("path", r.URL.Path).
					Msg("Authentication bypassed (NoOp mode)")
				next.ServeHTTP(w, r)
				return
			}

			session, err := a.sessionStore.Get(r, sessionName)
			if err != nil {
				// Expected when the cookie was encrypted with a rotated-out
				// key, tampered with, or simply absent.
				logger.Debug().
					Str("path", r.URL.Path).
					Str("error", err.Error()).
					Msg("Invalid or expired session cookie")
				a.handleAuthFailure(w, r, redirectOnFail, "Session expired or invalid")
				return
			}

			profileJSON, ok := session.Values[profileKey].(string)
			if !ok || profileJSON == "" {
				logger.Debug().Str("path", r.URL.Path).Msg("No profile in session")
				a.handleAuthFailure(w, r, redirectOnFail, "Unauthorized")
				return
			}

			var profile Profile
			if err := json.Unmarshal([]byte(profileJSON), &profile); err != nil {
				logger.Error().Err(err).Msg("Failed to parse profile from session")
				a.handleAuthFailure(w, r, redirectOnFail, "Invalid session data")
				return
			}

			if tokenJSON, ok := session.Values[tokenKey].(string); ok && tokenJSON != "" {
				refreshed, err := a.refreshTokenIfExpired(r, tokenJSON)
				if err != nil {
					logger.Info().
						Str("path", r.URL.Path).
						Str("sub", profile.Sub).
						Err(err).
						Msg("Token refresh failed, re-authentication required")
					a.handleAuthFailure(w, r, redirectOnFail, "Session expired or invalid")
					return
				}
				if refreshed != "" {
					session.Values[tokenKey] = refreshed
					if err := session.Save(r, w); err != nil {
						logger.Error().Err(err).Msg("Failed to persist refreshed token")
					}
				}
			}

			logger.Debug().
				Str("path", r.URL.Path).
				Str("sub", profile.Sub).
				Str("tenant_id", profile.TenantID).
				Msg("Authenticated request")

			next.ServeHTTP(w, r)
		})
	}
}

// refreshTokenIfExpired renews an expired access token through the refresh
// token. It returns the fresh token JSON, or "" when the stored token is
// still valid or carries no refresh token.
func (a *Authenticator) refreshTokenIfExpired(r *http.Request, tokenJSON string) (string, error) {
	var token oauth2.Token
	if err := json.Unmarshal([]byte(tokenJSON), &token); err != nil {
		return "", err
	}
	if token.Valid() || token.RefreshToken == "" {
		return "", nil
	}

	fresh, err := a.oauth2Config.TokenSource(r.Context(), &token).Token()
	if err != nil {
		return "", err
	}

	freshJSON, err := json.Marshal(fresh)
	if err != nil {
		return "", err
	}

	zerolog.Ctx(r.Context()).Info().
		Time("new_expiry", fresh.Expiry).
		Msg("Access token refreshed")
	return string(freshJSON), nil
}

// handleAuthFailure handles authentication failures based on the request type
func (a *Authenticator) handleAuthFailure(w http.ResponseWriter, r *http.Request, redirectOnFail bool, message string) {
	logger := zerolog.Ctx(r.Context())

	if redirectOnFail {
		logger.Info().
			Str("path", r.URL.Path).
			Str("reason", message).
			Msg("Redirecting to login")
		http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
		return
	}

	logger.Warn().
		Str("path", r.URL.Path).
		Str("reason", message).
		Msg("API authentication failed")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
