// Package azuread provides Microsoft Entra ID (Azure AD) endpoint
// configuration for the v2.0 identity platform.
//
// The package carries no protocol logic. Each Provider is a static pair of
// authorization and token endpoint URLs, plus the matching OIDC issuer and
// logout endpoint, handed to an OAuth2 client such as golang.org/x/oauth2.
// Token exchange, refresh, and verification belong to that client.
//
// Four authorities are available, differing only in which accounts may sign
// in: Common (personal and work/school), Organizations (work/school only),
// Consumers (personal only), and a single tenant addressed by GUID or domain
// via NewTenant.
package azuread

import (
	"fmt"
	"net/url"
)

// loginHost is the Entra ID authority host shared by every endpoint.
const loginHost = "login.microsoftonline.com"

// Provider describes where an OAuth2 client sends a user for authorization
// and where it exchanges an authorization code or refresh token. All methods
// are side-effect free and safe for concurrent use; the URLs were validated
// when the provider was constructed and never change afterwards.
type Provider interface {
	// AuthURL returns the authorization endpoint. The returned URL is a
	// shared, read-only value; callers must not modify it.
	AuthURL() *url.URL

	// TokenURL returns the token endpoint. Same sharing rules as AuthURL.
	TokenURL() *url.URL

	// IssuerURL returns the OIDC issuer for this authority, used to verify
	// ID tokens and to locate the discovery document.
	IssuerURL() string

	// LogoutURL returns the end-session endpoint for this authority. When
	// postLogoutRedirectURI is non-empty it is attached as the
	// post_logout_redirect_uri parameter.
	LogoutURL(postLogoutRedirectURI string) string

	// Name returns the authority path segment: "common", "organizations",
	// "consumers", or the tenant identifier.
	Name() string
}

// authority is the shared implementation behind every provider variant. The
// endpoint URLs are parsed once at construction and treated as read-only.
type authority struct {
	name     string
	authURL  *url.URL
	tokenURL *url.URL
}

func (a authority) AuthURL() *url.URL  { return a.authURL }
func (a authority) TokenURL() *url.URL { return a.tokenURL }
func (a authority) Name() string       { return a.name }

func (a authority) IssuerURL() string {
	return fmt.Sprintf("https://%s/%s/v2.0", loginHost, a.name)
}

func (a authority) LogoutURL(postLogoutRedirectURI string) string {
	logoutURL := fmt.Sprintf("https://%s/%s/oauth2/v2.0/logout", loginHost, a.name)
	if postLogoutRedirectURI == "" {
		return logoutURL
	}
	params := url.Values{}
	params.Add("post_logout_redirect_uri", postLogoutRedirectURI)
	return fmt.Sprintf("%s?%s", logoutURL, params.Encode())
}
