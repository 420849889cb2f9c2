package authz

import (
	"errors"
	"testing"

	"github.com/ccakes/azuread/internal/policy"
	"github.com/stretchr/testify/assert"
)

type stubPolicy struct {
	err error
}

func (p *stubPolicy) Name() string              { return "StubPolicy" }
func (p *stubPolicy) Authorize(_ Profile) error { return p.err }

func TestAuthorizer(t *testing.T) {
	profile := Profile{Sub: "sub-1", Email: "user@contoso.com"}

	t.Run("disabled authorizer allows everyone", func(t *testing.T) {
		a := NewAuthorizer(false, &stubPolicy{err: errors.New("denied")})
		assert.NoError(t, a.Authorize(profile))
	})

	t.Run("all policies pass", func(t *testing.T) {
		a := NewAuthorizer(true, &stubPolicy{}, &stubPolicy{})
		assert.NoError(t, a.Authorize(profile))
	})

	t.Run("denial is wrapped with the policy name", func(t *testing.T) {
		denial := errors.New("denied")
		a := NewAuthorizer(true, &stubPolicy{}, &stubPolicy{err: denial})

		err := a.Authorize(profile)
		assert.Error(t, err)
		assert.ErrorIs(t, err, denial)
		assert.Contains(t, err.Error(), "StubPolicy")
	})
}

func TestClaimsPolicy(t *testing.T) {
	validator, err := policy.NewValidator()
	assert.NoError(t, err)

	allowedTenant := "11111111-1111-1111-1111-111111111111"

	t.Run("allows profile from an allowed tenant", func(t *testing.T) {
		a := NewClaimsAuthorizer(validator, []string{allowedTenant}, "")
		assert.NoError(t, a.Authorize(Profile{
			Sub:      "sub-1",
			Email:    "user@contoso.com",
			TenantID: allowedTenant,
		}))
	})

	t.Run("denies profile from another tenant", func(t *testing.T) {
		a := NewClaimsAuthorizer(validator, []string{allowedTenant}, "")
		err := a.Authorize(Profile{
			Sub:      "sub-2",
			Email:    "user@contoso.com",
			TenantID: "22222222-2222-2222-2222-222222222222",
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not in the allowed tenant list")
	})

	t.Run("denies email outside the domain", func(t *testing.T) {
		a := NewClaimsAuthorizer(validator, nil, "contoso.com")
		err := a.Authorize(Profile{
			Sub:   "sub-3",
			Email: "user@fabrikam.com",
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not under domain")
	})
}
