// Package settings loads the authorization policy and role-resolution
// configuration from optional local and global JSON settings files,
// merging with local-wins precedence and falling back to the built-in
// default policy. The merge-with-presence-tracking idiom is adapted from
// the teacher's YAML local/global config merge, translated to the JSON
// wire format this system's settings files use.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ixado-dev/ixado/pkg/identity"
	"github.com/ixado-dev/ixado/pkg/policy"
)

// GlobalPathResolver supplies the path to the global settings file. It is
// an external collaborator (e.g. backed by IXADO_GLOBAL_CONFIG_FILE or an
// OS-specific config directory) — settings-file discovery itself is out
// of scope for this package.
type GlobalPathResolver interface {
	GlobalSettingsFilePath() (string, bool)
}

// EnvGlobalPathResolver resolves the global settings path from the
// IXADO_GLOBAL_CONFIG_FILE environment variable.
type EnvGlobalPathResolver struct{}

func (EnvGlobalPathResolver) GlobalSettingsFilePath() (string, bool) {
	v := os.Getenv("IXADO_GLOBAL_CONFIG_FILE")
	if v == "" {
		return "", false
	}
	return v, true
}

// fileSchema is the on-disk shape of a settings file: an optional
// authorization block. A missing "authorization.policy" key means the
// file contributes nothing to the final policy.
type fileSchema struct {
	Authorization *authorizationSchema `json:"authorization"`
}

type authorizationSchema struct {
	Policy               *policySchema         `json:"policy"`
	RoleResolutionConfig *roleResolutionSchema `json:"roleResolutionConfig"`
}

type policySchema struct {
	Version string                       `json:"version"`
	Roles   map[string]roleRuleSetSchema `json:"roles"`
}

type roleRuleSetSchema struct {
	Allowlist []string `json:"allowlist"`
	Denylist  []string `json:"denylist"`
}

type roleResolutionSchema struct {
	TelegramOwnerID *int64                   `json:"telegramOwnerId"`
	TelegramRoles   []telegramRoleSchemaItem `json:"telegramRoles"`
	CLIRole         *string                  `json:"cliRole"`
}

type telegramRoleSchemaItem struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
}

// LoadError identifies the settings file whose content failed to load or
// validate, along with the aggregated issue paths found in it.
type LoadError struct {
	File   string
	Kind   string // "invalid-json" or "schema-invalid"
	Issues []string
}

func (e *LoadError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("settings: %s: %s", e.File, e.Kind)
	}
	return fmt.Sprintf("settings: %s: %s: %s", e.File, e.Kind, strings.Join(e.Issues, "; "))
}

// Loaded is the outcome of Load: a resolved policy and role-resolution
// config, each falling back local -> global -> built-in default.
type Loaded struct {
	Policy               policy.AuthPolicy
	RoleResolutionConfig identity.RoleResolutionConfig
}

// Load reads localSettingsFilePath and the path supplied by resolver (if
// any), merges them with local-wins precedence, and falls back to
// policy.DefaultPolicy() and a zero-value role-resolution config when
// neither file supplies one. Both files are optional: a missing file is a
// normal outcome, not an error.
func Load(localSettingsFilePath string, resolver GlobalPathResolver) (Loaded, error) {
	localFile, err := loadFile(localSettingsFilePath)
	if err != nil {
		return Loaded{}, err
	}

	var globalFile *fileSchema
	if resolver != nil {
		if globalPath, ok := resolver.GlobalSettingsFilePath(); ok {
			globalFile, err = loadFile(globalPath)
			if err != nil {
				return Loaded{}, err
			}
		}
	}

	result := Loaded{
		Policy:               policy.DefaultPolicy(),
		RoleResolutionConfig: identity.RoleResolutionConfig{},
	}

	if pol, ok := extractPolicy(globalFile); ok {
		result.Policy = pol
	}
	if cfg, ok := extractRoleResolutionConfig(globalFile); ok {
		result.RoleResolutionConfig = cfg
	}

	if pol, ok := extractPolicy(localFile); ok {
		result.Policy = pol
	}
	if cfg, ok := extractRoleResolutionConfig(localFile); ok {
		result.RoleResolutionConfig = cfg
	}

	return result, nil
}

// loadFile reads and parses path. A non-existent path is a normal outcome
// (nil, nil), not an error. Unreadable or non-JSON content fails with
// invalid-json.
func loadFile(path string) (*fileSchema, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &LoadError{File: path, Kind: "invalid-json", Issues: []string{err.Error()}}
	}

	var fs fileSchema
	if err := json.Unmarshal(data, &fs); err != nil {
		return nil, &LoadError{File: path, Kind: "invalid-json", Issues: []string{err.Error()}}
	}

	if fs.Authorization != nil && fs.Authorization.Policy != nil {
		if issues := validatePolicySchema(*fs.Authorization.Policy); len(issues) > 0 {
			return nil, &LoadError{File: path, Kind: "schema-invalid", Issues: issues}
		}
	}

	return &fs, nil
}

func extractPolicy(fs *fileSchema) (policy.AuthPolicy, bool) {
	if fs == nil || fs.Authorization == nil || fs.Authorization.Policy == nil {
		return policy.AuthPolicy{}, false
	}
	return toAuthPolicy(*fs.Authorization.Policy), true
}

func extractRoleResolutionConfig(fs *fileSchema) (identity.RoleResolutionConfig, bool) {
	if fs == nil || fs.Authorization == nil || fs.Authorization.RoleResolutionConfig == nil {
		return identity.RoleResolutionConfig{}, false
	}
	s := fs.Authorization.RoleResolutionConfig
	cfg := identity.RoleResolutionConfig{
		TelegramOwnerID: s.TelegramOwnerID,
		CLIRole:         s.CLIRole,
	}
	for _, t := range s.TelegramRoles {
		cfg.TelegramRoles = append(cfg.TelegramRoles, identity.TelegramRoleEntry{UserID: t.UserID, Role: t.Role})
	}
	return cfg, true
}

func toAuthPolicy(s policySchema) policy.AuthPolicy {
	roles := make(map[policy.Role]policy.RoleRuleSet, len(s.Roles))
	for roleName, rules := range s.Roles {
		rrs := policy.RoleRuleSet{}
		for _, a := range rules.Allowlist {
			rrs.Allowlist = append(rrs.Allowlist, policy.Pattern(a))
		}
		for _, d := range rules.Denylist {
			rrs.Denylist = append(rrs.Denylist, policy.Pattern(d))
		}
		roles[policy.Role(roleName)] = rrs
	}
	return policy.AuthPolicy{Version: s.Version, Roles: roles}
}

// validatePolicySchema aggregates every structural issue found in s so a
// single load failure can report them all at once, rather than stopping at
// the first problem.
func validatePolicySchema(s policySchema) []string {
	var issues []string
	required := []policy.Role{policy.RoleOwner, policy.RoleAdmin, policy.RoleOperator, policy.RoleViewer}
	for _, r := range required {
		rules, ok := s.Roles[string(r)]
		if !ok {
			issues = append(issues, fmt.Sprintf("roles.%s: missing", r))
			continue
		}
		if len(rules.Allowlist) == 0 {
			issues = append(issues, fmt.Sprintf("roles.%s.allowlist: must be non-empty", r))
		}
		for i, p := range rules.Allowlist {
			if !policy.Pattern(p).Valid() {
				issues = append(issues, fmt.Sprintf("roles.%s.allowlist[%d]: malformed pattern %q", r, i, p))
			}
		}
		for i, p := range rules.Denylist {
			if !policy.Pattern(p).Valid() {
				issues = append(issues, fmt.Sprintf("roles.%s.denylist[%d]: malformed pattern %q", r, i, p))
			}
		}
	}
	if owner, ok := s.Roles[string(policy.RoleOwner)]; ok {
		if len(owner.Denylist) != 0 {
			issues = append(issues, "roles.owner.denylist: must be empty")
		}
		ownerAllowsAll := false
		for _, p := range owner.Allowlist {
			if p == "*" {
				ownerAllowsAll = true
			}
		}
		if !ownerAllowsAll {
			issues = append(issues, "roles.owner.allowlist: must include '*'")
		}
	}
	return issues
}
