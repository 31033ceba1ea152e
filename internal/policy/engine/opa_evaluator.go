package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	"fulqrun/backend/internal/policy/domain"
	"fulqrun/backend/internal/policy/repository"
)

const allowQuery = "data.fulqrun.authz.allow"

// Default Rego policy mirroring the built-in role ladder: admins may do
// anything, managers anything except org administration, reps may read and
// write their own records.
const defaultRegoPolicy = `package fulqrun.authz

default allow = false

admin_actions := {"org.update", "org.suspend", "member.add", "member.remove", "member.change_role", "connector.create", "connector.update", "connector.delete", "policy.write"}

allow if {
	input.role == "admin"
}

allow if {
	input.role == "manager"
	not admin_actions[input.action]
}

allow if {
	input.role == "rep"
	not admin_actions[input.action]
	not input.action in {"lead.delete", "contact.delete", "opportunity.delete", "quota.write"}
	owner_ok
}

owner_ok if {
	input.resource.owner == ""
}

owner_ok if {
	input.resource.owner == input.user_id
}
`

// OPAEvaluator evaluates access questions with OPA Rego. Org policies are
// compiled together with the default policy; on compile or eval failure the
// evaluator fails closed to the default policy alone.
type OPAEvaluator struct {
	policyRepo repository.Repository
}

// NewOPAEvaluator returns an OPA-based access evaluator.
func NewOPAEvaluator(policyRepo repository.Repository) *OPAEvaluator {
	return &OPAEvaluator{policyRepo: policyRepo}
}

// HealthCheck verifies that the in-process Rego engine can compile and
// evaluate the default policy. Does not touch the database.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	allowed, err := evalAllow(ctx, []string{defaultRegoPolicy}, buildInput(AccessInput{Role: "admin", Action: "org.update"}))
	if err != nil {
		return fmt.Errorf("eval default policy: %w", err)
	}
	if !allowed {
		return fmt.Errorf("default policy denied admin baseline")
	}
	return nil
}

// Allow evaluates the org's enabled policies plus the default policy.
func (e *OPAEvaluator) Allow(ctx context.Context, orgID string, in AccessInput) (bool, error) {
	var orgPolicies []*domain.Policy
	if e.policyRepo != nil {
		var err error
		orgPolicies, err = e.policyRepo.ListEnabledByOrg(ctx, orgID)
		if err != nil {
			log.Printf("policy: list org policies: %v, using default policy", err)
			orgPolicies = nil
		}
	}
	modules := []string{defaultRegoPolicy}
	for _, p := range orgPolicies {
		modules = append(modules, p.Rules)
	}
	input := buildInput(in)
	allowed, err := evalAllow(ctx, modules, input)
	if err != nil {
		if len(orgPolicies) == 0 {
			return false, err
		}
		// A broken org policy must not lock out the default rules.
		log.Printf("policy: evaluation with org policies failed: %v, retrying with default only", err)
		return evalAllow(ctx, []string{defaultRegoPolicy}, input)
	}
	return allowed, nil
}

// CheckSyntax compiles the given Rego source and reports the first error.
// Used to validate policies on write.
func CheckSyntax(rules string) error {
	_, err := ast.CompileModules(map[string]string{"candidate.rego": rules})
	if err != nil {
		return fmt.Errorf("compile policy: %w", err)
	}
	return nil
}

func buildInput(in AccessInput) map[string]interface{} {
	return map[string]interface{}{
		"user_id": in.UserID,
		"role":    in.Role,
		"action":  in.Action,
		"resource": map[string]interface{}{
			"type":  in.ResourceType,
			"owner": in.ResourceOwner,
		},
	}
}

func evalAllow(ctx context.Context, modules []string, input map[string]interface{}) (bool, error) {
	compiled := make(map[string]string, len(modules))
	for i, m := range modules {
		compiled[fmt.Sprintf("policy_%d.rego", i)] = m
	}
	compiler, err := ast.CompileModules(compiled)
	if err != nil {
		return false, fmt.Errorf("compile policies: %w", err)
	}
	q := rego.New(
		rego.Query(allowQuery),
		rego.Compiler(compiler),
		rego.Input(input),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return false, fmt.Errorf("eval policies: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, nil
	}
	return allowed, nil
}
