package azuread

import (
	"fmt"
	"net/url"
)

const (
	authURLTemplate  = "https://login.microsoftonline.com/%s/oauth2/v2.0/authorize"
	tokenURLTemplate = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"
)

// EndpointError reports a tenant identifier whose substitution into the
// endpoint templates did not produce a valid absolute URL.
type EndpointError struct {
	Tenant string // identifier as supplied by the caller
	Raw    string // substituted URL that was rejected
	Err    error  // non-nil when the URL parser itself rejected the string
}

func (e *EndpointError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("azuread: malformed endpoint for tenant %q: %v", e.Tenant, e.Err)
	}
	return fmt.Sprintf("azuread: malformed endpoint for tenant %q: %q is not a valid endpoint URL", e.Tenant, e.Raw)
}

func (e *EndpointError) Unwrap() error { return e.Err }

// Tenant restricts sign-in to a single Entra ID tenant, addressed either by
// its GUID (e.g. "8eaef023-2b34-4da1-9baa-8bc8c9d6a490") or by a verified
// domain name (e.g. "contoso.onmicrosoft.com").
type Tenant struct {
	authority
}

// NewTenant builds the endpoint pair for the given tenant identifier.
//
// The identifier is substituted verbatim into the authorization and token URL
// templates; its semantic form (GUID vs. domain) is not checked. Construction
// fails with *EndpointError when the identifier is empty or when the
// substituted string does not parse and re-serialize as the same absolute
// URL, which rejects whitespace, control characters, and anything else the
// URL parser would escape or drop.
func NewTenant(id string) (*Tenant, error) {
	if id == "" {
		return nil, &EndpointError{Tenant: id, Raw: fmt.Sprintf(authURLTemplate, id)}
	}

	authURL, err := parseEndpoint(id, fmt.Sprintf(authURLTemplate, id))
	if err != nil {
		return nil, err
	}
	tokenURL, err := parseEndpoint(id, fmt.Sprintf(tokenURLTemplate, id))
	if err != nil {
		return nil, err
	}

	return &Tenant{authority{name: id, authURL: authURL, tokenURL: tokenURL}}, nil
}

// MustTenant is like NewTenant but panics when construction fails. Intended
// for identifiers known at program start, in the manner of regexp.MustCompile.
func MustTenant(id string) *Tenant {
	t, err := NewTenant(id)
	if err != nil {
		panic(err)
	}
	return t
}

// parseEndpoint accepts raw only if it parses as an absolute URL on the
// expected host and survives re-serialization byte for byte. The round trip
// check is what turns an identifier with embedded whitespace into a
// construction failure rather than a silently percent-encoded endpoint.
func parseEndpoint(tenant, raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &EndpointError{Tenant: tenant, Raw: raw, Err: err}
	}
	if u.Scheme != "https" || u.Host != loginHost || u.String() != raw {
		return nil, &EndpointError{Tenant: tenant, Raw: raw}
	}
	return u, nil
}
