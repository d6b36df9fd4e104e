// Package profile defines the cumulative workflow profiles used by the
// orchestration authorizer: each profile names an ordered list of
// underlying policy primitive actions, and profiles are cumulative — a
// higher profile's action list is the union of its own additions and every
// lower profile's. Adapted from the cumulative approval-mode ordering
// pattern (Ask < Safe < Auto < Yolo) into a flatter, read-oriented
// hierarchy: readonly < planning < execution < privileged.
package profile

import (
	"fmt"

	"github.com/ixado-dev/ixado/pkg/policy"
)

// Name identifies a workflow profile.
type Name string

const (
	Readonly   Name = "readonly"
	Planning   Name = "planning"
	Execution  Name = "execution"
	Privileged Name = "privileged"
)

var order = []Name{Readonly, Planning, Execution, Privileged}

// ownActions lists the policy primitive actions a profile contributes on
// top of the previous profile in the ordering.
var ownActions = map[Name][]policy.Action{
	Readonly:   {"git:read:status", "git:read:branch", "git:read:log", "ci:read:status"},
	Planning:   {"phase:plan", "task:create", "task:list"},
	Execution:  {"execution:run", "task:update", "git:privileged:commit"},
	Privileged: {"git:privileged:branch-create", "git:privileged:rebase", "git:privileged:push", "git:privileged:pr-create", "git:privileged:pr-merge"},
}

// Actions returns every primitive action reachable at profile n: its own
// additions plus every lower profile's additions, in ascending order.
func (n Name) Actions() []policy.Action {
	var all []policy.Action
	for _, p := range order {
		all = append(all, ownActions[p]...)
		if p == n {
			break
		}
	}
	return all
}

// OrchestratorAction is a domain-level operation identifier issued by the
// embedding orchestrator (e.g. "run-planning-phase", "create-branch"),
// distinct from the lower-level policy.Action primitives it requires.
type OrchestratorAction string

// actionProfile is the total function from orchestrator action to the
// workflow profile it belongs to — used to classify and document each
// orchestrator action's scope tier. An orchestrator action absent from
// this map is an implementation bug, not a runtime condition — callers
// surface it as the missing-action-mapping deny reason.
var actionProfile = map[OrchestratorAction]Name{
	"view-status":         Readonly,
	"view-branch":         Readonly,
	"view-ci-status":      Readonly,
	"plan-phase":          Planning,
	"create-task":         Planning,
	"run-execution-phase": Execution,
	"commit-changes":      Execution,
	"create-branch":       Privileged,
	"rebase-branch":       Privileged,
	"push-branch":         Privileged,
	"create-pull-request": Privileged,
	"merge-pull-request":  Privileged,
}

// requiredPrimitives is the total function from orchestrator action to the
// ordered policy primitive(s) that actually gate it. This is deliberately
// NOT the owning profile's full cumulative Actions() list: that cumulative
// list spans every lower tier's primitives too (e.g. Privileged includes
// Execution's "git:privileged:commit" ahead of its own "branch-create"),
// and evaluating it in full would attribute a deny to an unrelated
// lower-tier primitive instead of the primitive the orchestrator action
// itself performs. Each entry here is the primitive (or short ordered
// list of primitives) whose own evaluate() result decides the action.
var requiredPrimitives = map[OrchestratorAction][]policy.Action{
	"view-status":         {"git:read:status"},
	"view-branch":         {"git:read:branch"},
	"view-ci-status":      {"ci:read:status"},
	"plan-phase":          {"phase:plan"},
	"create-task":         {"task:create"},
	"run-execution-phase": {"execution:run"},
	"commit-changes":      {"git:privileged:commit"},
	"create-branch":       {"git:privileged:branch-create"},
	"rebase-branch":       {"git:privileged:rebase"},
	"push-branch":         {"git:privileged:push"},
	"create-pull-request": {"git:privileged:pr-create"},
	"merge-pull-request":  {"git:privileged:pr-merge"},
}

// Resolve returns the profile assigned to action and the ordered primitive
// list that must all be authorized (see requiredPrimitives), or ok=false
// when the action is absent from the map.
func Resolve(action OrchestratorAction) (name Name, actions []policy.Action, ok bool) {
	name, ok = actionProfile[action]
	if !ok {
		return "", nil, false
	}
	return name, requiredPrimitives[action], true
}

// ValidateActionMap checks every declared orchestrator action resolves to
// a known profile, every profile name used is one of the four declared
// profiles, and every action also has a non-empty required-primitive list
// whose entries all belong to its profile's cumulative Actions() —
// guarding against a typo turning either map into a partial function, or
// the two maps drifting out of sync, at runtime.
func ValidateActionMap() error {
	validNames := map[Name]bool{Readonly: true, Planning: true, Execution: true, Privileged: true}
	for action, name := range actionProfile {
		if !validNames[name] {
			return fmt.Errorf("profile: orchestrator action %q maps to unknown profile %q", action, name)
		}
		prims, ok := requiredPrimitives[action]
		if !ok || len(prims) == 0 {
			return fmt.Errorf("profile: orchestrator action %q has no required primitives", action)
		}
		allowed := make(map[policy.Action]bool)
		for _, a := range name.Actions() {
			allowed[a] = true
		}
		for _, p := range prims {
			if !allowed[p] {
				return fmt.Errorf("profile: orchestrator action %q requires primitive %q outside its %q profile scope", action, p, name)
			}
		}
	}
	return nil
}
