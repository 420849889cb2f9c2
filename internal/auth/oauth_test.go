package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ccakes/azuread"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
)

func TestMultiTenantAuthority(t *testing.T) {
	assert.True(t, multiTenantAuthority("common"))
	assert.True(t, multiTenantAuthority("organizations"))
	assert.True(t, multiTenantAuthority("consumers"))
	assert.False(t, multiTenantAuthority("contoso.onmicrosoft.com"))
	assert.False(t, multiTenantAuthority("8eaef023-2b34-4da1-9baa-8bc8c9d6a490"))
}

func TestGenerateState(t *testing.T) {
	first, err := generateState()
	assert.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := generateState()
	assert.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestProfile_EmailOrUsername(t *testing.T) {
	p := Profile{Email: "user@contoso.com", PreferredUsername: "user@contoso.onmicrosoft.com"}
	assert.Equal(t, "user@contoso.com", p.EmailOrUsername())

	p.Email = ""
	assert.Equal(t, "user@contoso.onmicrosoft.com", p.EmailOrUsername())
}

func TestRequireAuth_NoOpPassthrough(t *testing.T) {
	a := NewNoOpAuthenticator()
	assert.True(t, a.IsNoOp())

	called := false
	handler := a.RequireAuth(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/whoami", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_Unauthenticated(t *testing.T) {
	// A bare-bones authenticator with a session store but no session cookie
	// on the request.
	a := &Authenticator{
		provider:     azuread.Common,
		sessionStore: sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef")),
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached without a session")
	})

	t.Run("API route returns 403 JSON", func(t *testing.T) {
		rec := httptest.NewRecorder()
		a.RequireAuth(false)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/whoami", nil))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "error")
	})

	t.Run("document route redirects to login", func(t *testing.T) {
		rec := httptest.NewRecorder()
		a.RequireAuth(true)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})
}
