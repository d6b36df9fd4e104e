package policy

import "testing"

func TestPatternMatches(t *testing.T) {
	cases := []struct {
		pattern Pattern
		action  Action
		want    bool
	}{
		{"*", "anything:at:all", true},
		{"git:privileged:*", "git:privileged:push", true},
		{"git:privileged:*", "git:privileged", false},
		{"git:privileged:*", "git:privileges:push", false},
		{"config:write", "config:write", true},
		{"config:write", "config:write:extra", false},
		{"read:*", "read:pr", true},
	}
	for _, c := range cases {
		if got := c.pattern.Matches(c.action); got != c.want {
			t.Errorf("Pattern(%q).Matches(%q) = %v, want %v", c.pattern, c.action, got, c.want)
		}
	}
}

func TestEvaluateNullRoleDenies(t *testing.T) {
	d := Evaluate("", false, "git:read:status", DefaultPolicy())
	if d.Allowed || d.Reason != ReasonNoRole {
		t.Fatalf("expected no-role deny, got %+v", d)
	}
}

func TestEvaluateDenylistWinsOverAllowlist(t *testing.T) {
	pol := AuthPolicy{
		Version: "1",
		Roles: map[Role]RoleRuleSet{
			RoleAdmin: {
				Allowlist: []Pattern{"git:privileged:*"},
				Denylist:  []Pattern{"git:privileged:force-push"},
			},
		},
	}
	d := Evaluate(RoleAdmin, true, "git:privileged:force-push", pol)
	if d.Allowed || d.Reason != ReasonDenylistMatch {
		t.Fatalf("expected denylist-match deny, got %+v", d)
	}

	d2 := Evaluate(RoleAdmin, true, "git:privileged:push", pol)
	if !d2.Allowed || d2.MatchedPattern != "git:privileged:*" {
		t.Fatalf("expected allow via wildcard, got %+v", d2)
	}
}

func TestEvaluateNoAllowlistMatchDenies(t *testing.T) {
	pol := AuthPolicy{
		Version: "1",
		Roles: map[Role]RoleRuleSet{
			RoleViewer: {Allowlist: []Pattern{"read:*"}},
		},
	}
	d := Evaluate(RoleViewer, true, "config:write", pol)
	if d.Allowed || d.Reason != ReasonNoAllowlistMatch {
		t.Fatalf("expected no-allowlist-match deny, got %+v", d)
	}
}

func TestOwnerAlwaysAllowed(t *testing.T) {
	pol := DefaultPolicy()
	actions := []Action{"git:privileged:push", "config:write", "agent:spawn", "anything:goes"}
	for _, a := range actions {
		d := Evaluate(RoleOwner, true, a, pol)
		if !d.Allowed {
			t.Errorf("owner should be allowed %q, got deny reason %q", a, d.Reason)
		}
	}
}

func TestDefaultPolicyDeniesViewerAndOperatorPrivileged(t *testing.T) {
	pol := DefaultPolicy()
	for _, role := range []Role{RoleViewer, RoleOperator} {
		d := Evaluate(role, true, "git:privileged:push", pol)
		if d.Allowed {
			t.Errorf("role %q should be denied git:privileged:push", role)
		}
		d2 := Evaluate(role, true, "config:write", pol)
		if d2.Allowed {
			t.Errorf("role %q should be denied config:write", role)
		}
	}
}

func TestDefaultPolicyAllowsAdminPrivileged(t *testing.T) {
	pol := DefaultPolicy()
	d := Evaluate(RoleAdmin, true, "git:privileged:push", pol)
	if !d.Allowed {
		t.Fatalf("admin should be allowed git:privileged:push, got %+v", d)
	}
}

func TestDefaultPolicyValidates(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Fatalf("default policy failed validation: %v", err)
	}
}

func TestValidateRejectsOwnerWithDenylist(t *testing.T) {
	pol := DefaultPolicy()
	owner := pol.Roles[RoleOwner]
	owner.Denylist = []Pattern{"config:write"}
	pol.Roles[RoleOwner] = owner

	if err := pol.Validate(); err == nil {
		t.Fatalf("expected validation error for owner with non-empty denylist")
	}
}

func TestValidateRejectsMissingRole(t *testing.T) {
	pol := AuthPolicy{Roles: map[Role]RoleRuleSet{
		RoleOwner: {Allowlist: []Pattern{"*"}},
	}}
	if err := pol.Validate(); err == nil {
		t.Fatalf("expected validation error for missing roles")
	}
}

func TestRoleAtLeast(t *testing.T) {
	if !RoleAdmin.AtLeast(RoleOperator) {
		t.Fatalf("admin should be at least operator")
	}
	if RoleViewer.AtLeast(RoleAdmin) {
		t.Fatalf("viewer should not be at least admin")
	}
	if Role("bogus").AtLeast(RoleViewer) {
		t.Fatalf("unknown role should never be at-least anything")
	}
}
