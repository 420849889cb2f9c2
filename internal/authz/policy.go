package authz

import (
	"fmt"
	"strings"

	"github.com/ccakes/azuread/internal/policy"
)

// Profile represents user information needed for authorization.
// This mirrors the auth.Profile struct but keeps packages decoupled.
type Profile struct {
	Sub      string
	Name     string
	Email    string
	TenantID string
}

// Policy defines an authorization rule that can allow or deny access.
type Policy interface {
	// Authorize returns nil if the user is authorized, or an error if denied.
	Authorize(profile Profile) error
	// Name returns a human-readable name for this policy.
	Name() string
}

// ClaimsPolicy evaluates the verified ID token claims against the embedded
// rego access policy: a tenant allowlist and an email domain restriction,
// either of which may be empty (and is then not enforced).
type ClaimsPolicy struct {
	validator      *policy.Validator
	allowedTenants []string
	emailDomain    string
}

// NewClaimsPolicy creates a rego-backed claims policy. allowedTenants holds
// Entra ID tenant GUIDs matched against the tid claim; emailDomain is a bare
// domain ("contoso.com") matched case-insensitively against the email claim.
func NewClaimsPolicy(validator *policy.Validator, allowedTenants []string, emailDomain string) *ClaimsPolicy {
	return &ClaimsPolicy{
		validator:      validator,
		allowedTenants: allowedTenants,
		emailDomain:    emailDomain,
	}
}

// Name returns the policy name.
func (p *ClaimsPolicy) Name() string {
	return "ClaimsAccessPolicy"
}

// Authorize evaluates the profile's claims against the rego policy.
func (p *ClaimsPolicy) Authorize(profile Profile) error {
	result, err := p.validator.Evaluate(policy.Claims{
		Sub:      profile.Sub,
		Email:    profile.Email,
		TenantID: profile.TenantID,
	}, p.allowedTenants, p.emailDomain)
	if err != nil {
		return fmt.Errorf("policy evaluation failed: %w", err)
	}
	if !result.Allowed {
		if len(result.Violations) == 0 {
			return fmt.Errorf("access denied")
		}
		return fmt.Errorf("access denied: %s", strings.Join(result.Violations, "; "))
	}
	return nil
}

// Authorizer manages a collection of authorization policies.
type Authorizer struct {
	policies []Policy
	enabled  bool
}

// NewAuthorizer creates a new authorizer with the given policies.
func NewAuthorizer(enabled bool, policies ...Policy) *Authorizer {
	return &Authorizer{
		policies: policies,
		enabled:  enabled,
	}
}

// Authorize runs all policies and returns an error if any policy denies access.
func (a *Authorizer) Authorize(profile Profile) error {
	if !a.enabled {
		return nil
	}

	for _, p := range a.policies {
		if err := p.Authorize(profile); err != nil {
			return fmt.Errorf("authorization policy %s failed: %w", p.Name(), err)
		}
	}
	return nil
}

// NewClaimsAuthorizer creates a preconfigured authorizer enforcing the
// embedded rego access policy. This is a convenience function for the common
// use case.
func NewClaimsAuthorizer(validator *policy.Validator, allowedTenants []string, emailDomain string) *Authorizer {
	return NewAuthorizer(true, NewClaimsPolicy(validator, allowedTenants, emailDomain))
}
