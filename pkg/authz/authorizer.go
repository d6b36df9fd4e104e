// Package authz composes the policy loader, role resolver, workflow
// profile map, and policy evaluator into the single fail-closed
// authorizeOrchestratorAction operation.
package authz

import (
	"fmt"

	"github.com/ixado-dev/ixado/pkg/identity"
	"github.com/ixado-dev/ixado/pkg/policy"
	"github.com/ixado-dev/ixado/pkg/profile"
	"github.com/ixado-dev/ixado/pkg/settings"
)

// PolicyLoader loads the settings-derived policy and role-resolution
// config. settings.Load satisfies this directly; tests may substitute a
// fake that fails on demand.
type PolicyLoader interface {
	Load() (settings.Loaded, error)
}

// LoaderFunc adapts a plain function to PolicyLoader.
type LoaderFunc func() (settings.Loaded, error)

func (f LoaderFunc) Load() (settings.Loaded, error) { return f() }

// Input describes one authorization request against the orchestrator
// action surface.
type Input struct {
	Action  profile.OrchestratorAction
	Session identity.SessionContext
}

// Decision is the outcome of authorizeOrchestratorAction.
type Decision struct {
	Allowed bool
	Reason  policy.DenyReason
	Message string
}

// AuthorizeOrchestratorAction implements the fail-closed composition
// described by the specification: any collaborator failure denies, a
// missing action mapping denies, and the first primitive deny within the
// resolved profile's cumulative action list short-circuits the whole
// decision.
func AuthorizeOrchestratorAction(input Input, loader PolicyLoader) Decision {
	loaded, err := loader.Load()
	if err != nil {
		return Decision{Reason: policy.ReasonPolicyLoadFailed, Message: err.Error()}
	}

	role, hasRole := identity.ResolveRole(input.Session, loaded.RoleResolutionConfig)
	if !hasRole {
		return Decision{Reason: policy.ReasonRoleResolveFailed, Message: "role resolution returned no role"}
	}

	_, primitives, ok := profile.Resolve(input.Action)
	if !ok {
		return Decision{Reason: policy.ReasonMissingMapping, Message: fmt.Sprintf("orchestrator action %q has no profile mapping", input.Action)}
	}

	for _, primitive := range primitives {
		d, err := evaluateSafely(role, hasRole, primitive, loaded.Policy)
		if err != nil {
			return Decision{Reason: policy.ReasonEvaluatorError, Message: err.Error()}
		}
		if !d.Allowed {
			return Decision{
				Reason:  d.Reason,
				Message: fmt.Sprintf("orchestrator action %q denied on primitive %q: %s", input.Action, primitive, d.Reason),
			}
		}
	}

	return Decision{Allowed: true}
}

// evaluateSafely wraps policy.Evaluate so an unexpected panic inside the
// evaluator (malformed policy data that slipped past validation, say)
// denies the request instead of crashing the caller.
func evaluateSafely(role policy.Role, hasRole bool, action policy.Action, pol policy.AuthPolicy) (d policy.Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("evaluator panic: %v", r)
		}
	}()
	d = policy.Evaluate(role, hasRole, action, pol)
	return d, nil
}
