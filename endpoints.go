package azuread

import (
	"fmt"
	"net/url"
)

// Fixed endpoint table for the three shared authorities. Parsed once at
// process initialization; Provider accessors hand out these values unchanged
// for the life of the process.
var (
	commonAuthURL         = mustParse("https://login.microsoftonline.com/common/oauth2/v2.0/authorize")
	commonTokenURL        = mustParse("https://login.microsoftonline.com/common/oauth2/v2.0/token")
	organizationsAuthURL  = mustParse("https://login.microsoftonline.com/organizations/oauth2/v2.0/authorize")
	organizationsTokenURL = mustParse("https://login.microsoftonline.com/organizations/oauth2/v2.0/token")
	consumersAuthURL      = mustParse("https://login.microsoftonline.com/consumers/oauth2/v2.0/authorize")
	consumersTokenURL     = mustParse("https://login.microsoftonline.com/consumers/oauth2/v2.0/token")
)

// Common accepts both personal Microsoft accounts and work or school accounts
// from any Entra ID tenant.
var Common Provider = authority{
	name:     "common",
	authURL:  commonAuthURL,
	tokenURL: commonTokenURL,
}

// Organizations accepts only work or school accounts from Entra ID tenants.
var Organizations Provider = authority{
	name:     "organizations",
	authURL:  organizationsAuthURL,
	tokenURL: organizationsTokenURL,
}

// Consumers accepts only personal Microsoft accounts.
var Consumers Provider = authority{
	name:     "consumers",
	authURL:  consumersAuthURL,
	tokenURL: consumersTokenURL,
}

func mustParse(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(fmt.Sprintf("azuread: invalid endpoint URL %q: %v", raw, err))
	}
	return u
}
