package azuread

import (
	"golang.org/x/oauth2"
)

// Scopes the identity platform treats specially. ScopeOfflineAccess asks for
// a refresh token alongside the access token, turning the grant into a
// renewable bearer credential.
const (
	ScopeOpenID        = "openid"
	ScopeOfflineAccess = "offline_access"
)

// Endpoint returns the oauth2.Endpoint for p, ready to drop into an
// oauth2.Config.
func Endpoint(p Provider) oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:  p.AuthURL().String(),
		TokenURL: p.TokenURL().String(),
	}
}

// NewConfig builds an oauth2.Config for p. The openid and offline_access
// scopes are always requested so the resulting token is a bearer token that
// the oauth2 client can renew through its refresh token without re-prompting
// the user; extraScopes are appended after them, duplicates dropped.
func NewConfig(p Provider, clientID, clientSecret, redirectURL string, extraScopes ...string) *oauth2.Config {
	scopes := []string{ScopeOpenID, ScopeOfflineAccess}
	for _, s := range extraScopes {
		if s == ScopeOpenID || s == ScopeOfflineAccess {
			continue
		}
		scopes = append(scopes, s)
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     Endpoint(p),
		Scopes:       scopes,
	}
}
