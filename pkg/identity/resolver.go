// Package identity resolves the role a caller acts as from a heterogeneous
// session context: a trusted local CLI invocation, or a chat-bot user id
// that must be looked up against a configured role map.
//
// Resolution is fail-secure throughout: any ambiguity or unknown value
// resolves to "no role" rather than falling back to a guessed default.
package identity

import "github.com/ixado-dev/ixado/pkg/policy"

// SessionSource distinguishes where a session originated.
type SessionSource string

const (
	SourceCLI      SessionSource = "cli"
	SourceTelegram SessionSource = "telegram"
)

// SessionContext is the tagged context resolveRole operates on. For CLI
// sessions only Source and CLIRole matter; for Telegram sessions only
// Source and UserID matter.
type SessionContext struct {
	Source  SessionSource
	CLIRole string // as supplied on the command line; empty means "not specified"
	UserID  int64  // Telegram user id, required when Source == SourceTelegram
}

// TelegramRoleEntry is one row of the configured userId->role table,
// evaluated in declared order.
type TelegramRoleEntry struct {
	UserID int64
	Role   string
}

// RoleResolutionConfig mirrors the external settings shape: an optional
// Telegram owner override, an ordered Telegram role table, and an optional
// CLI role override.
type RoleResolutionConfig struct {
	TelegramOwnerID *int64
	TelegramRoles   []TelegramRoleEntry
	CLIRole         *string
}

// ResolveRole derives a Role from ctx and cfg, or reports hasRole=false when
// no role applies (a fail-secure "no role" outcome, not an error).
//
// CLI rule: an absent CLIRole (cfg.CLIRole == nil) defaults to owner — the
// local CLI is trusted by default. An explicitly empty string is distinct
// from absent and resolves to no role, per the specification's decision on
// this point. Any other non-empty value must name one of the four known
// roles or resolution fails (no silent fallback).
//
// Telegram rule: an owner-id match beats every entry in TelegramRoles, full
// stop. Otherwise the table is scanned in order and the first userId match
// wins — parsed into a role or failing outright, never falling through to a
// later entry.
func ResolveRole(ctx SessionContext, cfg RoleResolutionConfig) (role policy.Role, hasRole bool) {
	switch ctx.Source {
	case SourceCLI:
		return resolveCLIRole(ctx, cfg)
	case SourceTelegram:
		return resolveTelegramRole(ctx, cfg)
	default:
		return "", false
	}
}

func resolveCLIRole(ctx SessionContext, cfg RoleResolutionConfig) (policy.Role, bool) {
	if cfg.CLIRole == nil {
		return policy.RoleOwner, true
	}
	if *cfg.CLIRole == "" {
		return "", false
	}
	r := policy.Role(*cfg.CLIRole)
	if !r.Valid() {
		return "", false
	}
	return r, true
}

func resolveTelegramRole(ctx SessionContext, cfg RoleResolutionConfig) (policy.Role, bool) {
	if cfg.TelegramOwnerID != nil && *cfg.TelegramOwnerID == ctx.UserID {
		return policy.RoleOwner, true
	}

	for _, entry := range cfg.TelegramRoles {
		if entry.UserID != ctx.UserID {
			continue
		}
		r := policy.Role(entry.Role)
		if !r.Valid() {
			return "", false
		}
		return r, true
	}

	return "", false
}
