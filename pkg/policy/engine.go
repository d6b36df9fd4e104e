package policy

import "fmt"

// Evaluate implements the policy evaluator: deterministic, pure, no I/O.
//
// Order of operations mirrors the specification exactly: a null role denies
// first, the denylist is checked before the allowlist (denylist-wins), and
// an allowlist miss denies last.
func Evaluate(role Role, hasRole bool, action Action, pol AuthPolicy) Decision {
	d := Decision{Role: role, HasRole: hasRole, Action: action}

	if !hasRole {
		d.Allowed = false
		d.Reason = ReasonNoRole
		return d
	}

	rules, ok := pol.Roles[role]
	if !ok {
		d.Allowed = false
		d.Reason = ReasonNoRole
		return d
	}

	for _, deny := range rules.Denylist {
		if deny.Matches(action) {
			d.Allowed = false
			d.Reason = ReasonDenylistMatch
			return d
		}
	}

	for _, allow := range rules.Allowlist {
		if allow.Matches(action) {
			d.Allowed = true
			d.MatchedPattern = allow
			return d
		}
	}

	d.Allowed = false
	d.Reason = ReasonNoAllowlistMatch
	return d
}

// Validate checks the policy's structural invariants: all four roles must
// be present, every role must carry a non-empty allowlist, and the owner
// role must be the unconstrained '*' allow with an empty denylist.
func (p AuthPolicy) Validate() error {
	for _, r := range []Role{RoleOwner, RoleAdmin, RoleOperator, RoleViewer} {
		rules, ok := p.Roles[r]
		if !ok {
			return fmt.Errorf("policy: missing rule set for role %q", r)
		}
		if len(rules.Allowlist) == 0 {
			return fmt.Errorf("policy: role %q has an empty allowlist", r)
		}
		for _, pat := range rules.Allowlist {
			if !pat.Valid() {
				return fmt.Errorf("policy: role %q has malformed allow pattern %q", r, pat)
			}
		}
		for _, pat := range rules.Denylist {
			if !pat.Valid() {
				return fmt.Errorf("policy: role %q has malformed deny pattern %q", r, pat)
			}
		}
	}

	owner := p.Roles[RoleOwner]
	if len(owner.Denylist) != 0 {
		return fmt.Errorf("policy: owner role must have an empty denylist")
	}
	ownerAllowsAll := false
	for _, pat := range owner.Allowlist {
		if pat == "*" {
			ownerAllowsAll = true
			break
		}
	}
	if !ownerAllowsAll {
		return fmt.Errorf("policy: owner role must allow '*'")
	}
	return nil
}

// privilegedNamespaces are denied to viewer and operator by default.
var privilegedDenylist = []Pattern{
	"git:privileged:*",
	"config:write",
	"agent:*",
}

// readNamespaces are broadly safe to expose to every role.
var readAllowlist = []Pattern{
	"read:*",
	"git:read:*",
	"ci:read:*",
}

// DefaultPolicy returns the policy shipped with the system: viewer and
// operator have explicit denies on privileged namespaces, admin allows the
// privileged namespaces plus the phase/task/execution surface, and owner is
// unconstrained.
func DefaultPolicy() AuthPolicy {
	return AuthPolicy{
		Version: "1",
		Roles: map[Role]RoleRuleSet{
			RoleViewer: {
				Allowlist: append([]Pattern{}, readAllowlist...),
				Denylist:  append([]Pattern{}, privilegedDenylist...),
			},
			RoleOperator: {
				Allowlist: append(append([]Pattern{}, readAllowlist...), "execution:*", "task:*"),
				Denylist:  append([]Pattern{}, privilegedDenylist...),
			},
			RoleAdmin: {
				Allowlist: append(append([]Pattern{}, readAllowlist...),
					"git:privileged:*", "config:write", "agent:*",
					"execution:*", "phase:*", "task:*"),
				Denylist: nil,
			},
			RoleOwner: {
				Allowlist: []Pattern{"*"},
				Denylist:  nil,
			},
		},
	}
}
