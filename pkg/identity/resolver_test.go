package identity

import (
	"testing"

	"github.com/ixado-dev/ixado/pkg/policy"
)

func int64p(v int64) *int64    { return &v }
func strp(s string) *string    { return &s }

func TestResolveCLINoOverrideDefaultsToOwner(t *testing.T) {
	role, ok := ResolveRole(SessionContext{Source: SourceCLI}, RoleResolutionConfig{})
	if !ok || role != policy.RoleOwner {
		t.Fatalf("expected owner, got role=%q ok=%v", role, ok)
	}
}

func TestResolveCLIExplicitEmptyIsNoRole(t *testing.T) {
	role, ok := ResolveRole(SessionContext{Source: SourceCLI, CLIRole: ""}, RoleResolutionConfig{CLIRole: strp("")})
	if ok {
		t.Fatalf("expected no role, got %q", role)
	}
}

func TestResolveCLIUnknownRoleFails(t *testing.T) {
	_, ok := ResolveRole(SessionContext{Source: SourceCLI}, RoleResolutionConfig{CLIRole: strp("superuser")})
	if ok {
		t.Fatalf("expected resolution failure for unknown role")
	}
}

func TestResolveCLIKnownRole(t *testing.T) {
	role, ok := ResolveRole(SessionContext{Source: SourceCLI}, RoleResolutionConfig{CLIRole: strp("admin")})
	if !ok || role != policy.RoleAdmin {
		t.Fatalf("expected admin, got role=%q ok=%v", role, ok)
	}
}

func TestResolveTelegramOwnerOverrideBeatsTable(t *testing.T) {
	cfg := RoleResolutionConfig{
		TelegramOwnerID: int64p(42),
		TelegramRoles:   []TelegramRoleEntry{{UserID: 42, Role: "viewer"}},
	}
	role, ok := ResolveRole(SessionContext{Source: SourceTelegram, UserID: 42}, cfg)
	if !ok || role != policy.RoleOwner {
		t.Fatalf("owner override should win, got role=%q ok=%v", role, ok)
	}
}

func TestResolveTelegramFirstMatchWins(t *testing.T) {
	cfg := RoleResolutionConfig{
		TelegramRoles: []TelegramRoleEntry{
			{UserID: 7, Role: "operator"},
			{UserID: 7, Role: "admin"},
		},
	}
	role, ok := ResolveRole(SessionContext{Source: SourceTelegram, UserID: 7}, cfg)
	if !ok || role != policy.RoleOperator {
		t.Fatalf("expected first match (operator), got role=%q ok=%v", role, ok)
	}
}

func TestResolveTelegramInvalidRoleStopsScan(t *testing.T) {
	cfg := RoleResolutionConfig{
		TelegramRoles: []TelegramRoleEntry{
			{UserID: 7, Role: "superuser"},
			{UserID: 7, Role: "admin"},
		},
	}
	_, ok := ResolveRole(SessionContext{Source: SourceTelegram, UserID: 7}, cfg)
	if ok {
		t.Fatalf("invalid first match must not fall through to a later valid entry")
	}
}

func TestResolveTelegramNoMatch(t *testing.T) {
	_, ok := ResolveRole(SessionContext{Source: SourceTelegram, UserID: 99}, RoleResolutionConfig{})
	if ok {
		t.Fatalf("expected no role for unmatched user id")
	}
}

func TestResolveUnknownSource(t *testing.T) {
	_, ok := ResolveRole(SessionContext{Source: "carrier-pigeon"}, RoleResolutionConfig{})
	if ok {
		t.Fatalf("expected no role for unknown session source")
	}
}
