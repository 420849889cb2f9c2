package policy

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
	"github.com/open-policy-agent/opa/storage/inmem"
)

//go:embed access.rego
var policyContent string

// Validator evaluates verified ID token claims against the embedded rego
// access policy.
type Validator struct {
	prepared rego.PreparedEvalQuery
}

// Claims is the policy input: the subset of ID token claims the access
// policy rules over.
type Claims struct {
	Sub      string `json:"sub"`
	Email    string `json:"email"`
	TenantID string `json:"tid"`
}

type EvaluationResult struct {
	Allowed    bool     `json:"allowed"`
	Violations []string `json:"violations,omitempty"`
}

func NewValidator() (*Validator, error) {
	query, err := rego.New(
		rego.Query("data.access.allow"),
		rego.Module("access.rego", policyContent),
	).PrepareForEval(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare policy query: %w", err)
	}

	return &Validator{
		prepared: query,
	}, nil
}

// Evaluate runs the access policy for the given claims. allowedTenants and
// emailDomain become policy data; an empty list or domain disables the
// corresponding rule.
func (v *Validator) Evaluate(claims Claims, allowedTenants []string, emailDomain string) (*EvaluationResult, error) {
	ctx := context.Background()

	input := map[string]interface{}{
		"sub":   claims.Sub,
		"email": claims.Email,
		"tid":   claims.TenantID,
	}

	data := map[string]interface{}{
		"allowed_tenants": toInterfaceSlice(allowedTenants),
		"email_domain":    emailDomain,
	}

	// The policy data varies per authorizer configuration, so the query is
	// prepared against a store built for this evaluation.
	store := inmem.NewFromObject(data)
	query, err := rego.New(
		rego.Query("data.access.allow"),
		rego.Module("access.rego", policyContent),
		rego.Store(store),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare policy query with data: %w", err)
	}

	results, err := query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 {
		return &EvaluationResult{
			Allowed:    false,
			Violations: []string{"policy evaluation returned no results"},
		}, nil
	}

	allowed, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return &EvaluationResult{
			Allowed:    false,
			Violations: []string{"policy evaluation returned non-boolean result"},
		}, nil
	}

	result := &EvaluationResult{
		Allowed: allowed,
	}

	if !allowed {
		violations, err := v.getViolations(ctx, input, data)
		if err != nil {
			return nil, fmt.Errorf("failed to get violations: %w", err)
		}
		result.Violations = violations
	}

	return result, nil
}

func (v *Validator) getViolations(ctx context.Context, input, data map[string]interface{}) ([]string, error) {
	store := inmem.NewFromObject(data)

	violationQuery, err := rego.New(
		rego.Query("data.access.violations"),
		rego.Module("access.rego", policyContent),
		rego.Store(store),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare violations query: %w", err)
	}

	results, err := violationQuery.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate violations: %w", err)
	}

	if len(results) == 0 {
		return nil, nil
	}

	raw, ok := results[0].Expressions[0].Value.([]interface{})
	if !ok {
		return nil, nil
	}

	violations := make([]string, 0, len(raw))
	for _, item := range raw {
		if msg, ok := item.(string); ok {
			violations = append(violations, msg)
		}
	}
	return violations, nil
}

func toInterfaceSlice(values []string) []interface{} {
	out := make([]interface{}, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}
