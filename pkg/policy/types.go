// Package policy implements the four-role authorization model at the heart
// of ixado: roles, allowlist/denylist pattern rule sets, and the default
// policy shipped with the system.
//
// Design principles (carried over from the RBAC lineage this package is
// descended from):
//   - Deny by default: no allowlist match means denied.
//   - Denylist wins: an explicit deny always beats a wildcard allow.
//   - Every decision names itself: deny reasons form a closed, stable set.
package policy

import "regexp"

// Role is one of the four named privilege levels, ordered least to most
// privileged: Viewer < Operator < Admin < Owner.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

// roleLevel assigns each role its index in the privilege ordering. Higher
// is more privileged.
var roleLevel = map[Role]int{
	RoleViewer:   0,
	RoleOperator: 1,
	RoleAdmin:    2,
	RoleOwner:    3,
}

// Level returns the role's position in the privilege ordering, or -1 for an
// unrecognized role.
func (r Role) Level() int {
	lvl, ok := roleLevel[r]
	if !ok {
		return -1
	}
	return lvl
}

// Valid reports whether r is one of the four known role names.
func (r Role) Valid() bool {
	_, ok := roleLevel[r]
	return ok
}

// AtLeast reports whether r is at least as privileged as other. Unknown
// roles are never at-least anything (fail closed).
func (r Role) AtLeast(other Role) bool {
	rl, ok1 := roleLevel[r]
	ol, ok2 := roleLevel[other]
	return ok1 && ok2 && rl >= ol
}

// actionPattern is the shared grammar for both action strings and patterns:
// a lower-kebab identifier sequence joined by ':', optionally ending in a
// ':*' suffix wildcard, or the literal '*'.
var actionPattern = regexp.MustCompile(`^\*$|^[a-z][a-z0-9]*(?::[a-z][a-z0-9]*)*(?::\*)?$`)

// Action is a fully-qualified operation identifier, e.g. "git:privileged:push".
type Action string

// Valid reports whether the action string conforms to the action grammar.
func (a Action) Valid() bool {
	return actionPattern.MatchString(string(a))
}

// Pattern is an action identifier with optional trailing ':*' or the
// literal '*', used in allowlists and denylists.
type Pattern string

// Valid reports whether the pattern string conforms to the pattern grammar.
func (p Pattern) Valid() bool {
	return actionPattern.MatchString(string(p))
}

// Matches reports whether the pattern matches the given action.
//
// '*' matches anything. A pattern ending in ':*' matches any action whose
// string begins with the pattern minus the trailing '*' (so "foo:bar:*"
// matches "foo:bar:baz" but not "foo:bar" itself — it is an exact prefix
// match, not a deep-prefix match). Anything else requires exact equality.
func (p Pattern) Matches(a Action) bool {
	if p == "*" {
		return true
	}
	s := string(p)
	if len(s) >= 2 && s[len(s)-1] == '*' && s[len(s)-2] == ':' {
		prefix := s[:len(s)-1] // keep the trailing ':'
		return len(string(a)) > len(prefix) && string(a)[:len(prefix)] == prefix
	}
	return string(p) == string(a)
}

// RoleRuleSet holds the ordered allowlist and denylist patterns for a role.
// Evaluation walks both lists in their declared order; the allowlist must
// be non-empty, the denylist may be empty.
type RoleRuleSet struct {
	Allowlist []Pattern
	Denylist  []Pattern
}

// AuthPolicy is a versioned, per-role set of rules. All four roles must be
// present. The owner role must allow '*' with an empty denylist — this
// invariant is checked by Validate, not silently repaired.
type AuthPolicy struct {
	Version string
	Roles   map[Role]RoleRuleSet
}

// DenyReason names why evaluate() denied an action. The set is closed —
// every reason below is the only vocabulary callers should switch on.
type DenyReason string

const (
	ReasonNoRole            DenyReason = "no-role"
	ReasonDenylistMatch     DenyReason = "denylist-match"
	ReasonNoAllowlistMatch  DenyReason = "no-allowlist-match"
	ReasonPolicyLoadFailed  DenyReason = "policy-load-failed"
	ReasonRoleResolveFailed DenyReason = "role-resolution-failed"
	ReasonEvaluatorError    DenyReason = "evaluator-error"
	ReasonMissingMapping    DenyReason = "missing-action-mapping"
)

// Decision is the outcome of evaluating an action against a policy. Exactly
// one of Allow/Deny branches is meaningful, selected by the Allowed field.
type Decision struct {
	Allowed        bool
	Role           Role // zero value ("") stands for "no role"
	HasRole        bool
	Action         Action
	MatchedPattern Pattern    // set only when Allowed
	Reason         DenyReason // set only when !Allowed
	Message        string     // optional human-readable detail, set by composing callers
}
