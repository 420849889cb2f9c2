package policy

import (
	"testing"
)

func TestValidator_Evaluate(t *testing.T) {
	validator, err := NewValidator()
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}

	tests := []struct {
		name            string
		claims          Claims
		allowedTenants  []string
		emailDomain     string
		expectAllow     bool
		expectViolation string
	}{
		{
			name: "no rules configured allows everyone",
			claims: Claims{
				Sub:      "sub-1",
				Email:    "user@anywhere.example",
				TenantID: "11111111-1111-1111-1111-111111111111",
			},
			expectAllow: true,
		},
		{
			name: "tenant on the allowlist",
			claims: Claims{
				Sub:      "sub-2",
				Email:    "user@contoso.com",
				TenantID: "11111111-1111-1111-1111-111111111111",
			},
			allowedTenants: []string{
				"11111111-1111-1111-1111-111111111111",
				"22222222-2222-2222-2222-222222222222",
			},
			expectAllow: true,
		},
		{
			name: "tenant not on the allowlist",
			claims: Claims{
				Sub:      "sub-3",
				Email:    "user@contoso.com",
				TenantID: "33333333-3333-3333-3333-333333333333",
			},
			allowedTenants:  []string{"11111111-1111-1111-1111-111111111111"},
			expectAllow:     false,
			expectViolation: `tenant "33333333-3333-3333-3333-333333333333" is not in the allowed tenant list`,
		},
		{
			name: "missing tenant claim with allowlist configured",
			claims: Claims{
				Sub:   "sub-4",
				Email: "user@contoso.com",
			},
			allowedTenants:  []string{"11111111-1111-1111-1111-111111111111"},
			expectAllow:     false,
			expectViolation: `tenant "" is not in the allowed tenant list`,
		},
		{
			name: "email under the allowed domain",
			claims: Claims{
				Sub:      "sub-5",
				Email:    "User@Contoso.COM",
				TenantID: "11111111-1111-1111-1111-111111111111",
			},
			emailDomain: "contoso.com",
			expectAllow: true,
		},
		{
			name: "email outside the allowed domain",
			claims: Claims{
				Sub:      "sub-6",
				Email:    "user@fabrikam.com",
				TenantID: "11111111-1111-1111-1111-111111111111",
			},
			emailDomain:     "contoso.com",
			expectAllow:     false,
			expectViolation: `email "user@fabrikam.com" is not under domain "contoso.com"`,
		},
		{
			name: "both rules enforced together",
			claims: Claims{
				Sub:      "sub-7",
				Email:    "user@contoso.com",
				TenantID: "11111111-1111-1111-1111-111111111111",
			},
			allowedTenants: []string{"11111111-1111-1111-1111-111111111111"},
			emailDomain:    "contoso.com",
			expectAllow:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := validator.Evaluate(tt.claims, tt.allowedTenants, tt.emailDomain)
			if err != nil {
				t.Fatalf("Evaluate() unexpected error: %v", err)
			}

			if result.Allowed != tt.expectAllow {
				t.Errorf("Allowed = %v, want %v (violations: %v)", result.Allowed, tt.expectAllow, result.Violations)
			}

			if tt.expectViolation != "" {
				found := false
				for _, v := range result.Violations {
					if v == tt.expectViolation {
						found = true
					}
				}
				if !found {
					t.Errorf("Violations = %v, want to contain %q", result.Violations, tt.expectViolation)
				}
			}

			if tt.expectAllow && len(result.Violations) != 0 {
				t.Errorf("Violations = %v, want none", result.Violations)
			}
		})
	}
}
