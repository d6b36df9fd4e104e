// Package guard implements the privileged-action wrapper: the single choke
// point every mutating VCS operation passes through. It authorizes against
// the policy evaluator, writes a redacted audit record for the decision,
// delegates to the VCS/GitHub facades only on allow, and writes a second
// audit record describing the executed command. No underlying command ever
// runs on a deny decision — the execution step is strictly after the
// authorization check, matching the teacher's approval-gate-before-action
// shape in pkg/approval, generalized from a four-mode prompt gate into a
// policy-evaluator gate.
package guard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ixado-dev/ixado/pkg/audit"
	"github.com/ixado-dev/ixado/pkg/ixerr"
	"github.com/ixado-dev/ixado/pkg/policy"
	"github.com/ixado-dev/ixado/pkg/telemetry"
	"github.com/ixado-dev/ixado/pkg/vcs"
)

// defaultActor is used when no actor identifier is supplied.
const defaultActor = "system:unknown"

// Branches gathers the git primitives PrivilegedGitActions gates.
type Branches interface {
	CreateBranch(name string) error
	Rebase(onto string) error
	PushBranch(branch, remote string, setUpstream bool) error
}

// GitHub gathers the gh primitives PrivilegedGitActions gates.
type GitHub interface {
	CreatePullRequest(opts vcs.CreatePROptions) (string, error)
	MergePullRequest(prNumber int, method vcs.MergeMethod) error
}

// AuditAppender is the subset of *audit.Logger PrivilegedGitActions needs;
// an interface so tests can substitute an in-memory recorder.
type AuditAppender interface {
	Append(audit.Entry) error
}

// AuthorizationDeniedError is raised when assertAuthorized denies a
// privileged action. It carries the full deny decision so callers can
// branch on Reason without parsing a message string.
type AuthorizationDeniedError struct {
	Action  policy.Action
	Role    policy.Role
	HasRole bool
	Reason  policy.DenyReason
}

func (e *AuthorizationDeniedError) Error() string {
	roleStr := "<no-role>"
	if e.HasRole {
		roleStr = string(e.Role)
	}
	return fmt.Sprintf("authorization denied: action=%s role=%s reason=%s", e.Action, roleStr, e.Reason)
}

// PrivilegedGitActions is the single wrapper through which every
// privileged VCS operation passes. It holds the VCS and GitHub facades, the
// session's already-resolved role (possibly absent), the loaded policy, the
// audit sink, and an actor identifier recorded on every entry.
type PrivilegedGitActions struct {
	VCS     Branches
	GitHub  GitHub
	Role    policy.Role
	HasRole bool
	Policy  policy.AuthPolicy
	Actor   string
	Audit   AuditAppender

	// Metrics is the optional ambient telemetry sink; nil records nothing.
	Metrics *telemetry.Metrics
}

// New constructs a PrivilegedGitActions. actor defaults to "system:unknown"
// when empty.
func New(vcsFacade Branches, ghFacade GitHub, role policy.Role, hasRole bool, pol policy.AuthPolicy, actor string, auditLog AuditAppender) *PrivilegedGitActions {
	if actor == "" {
		actor = defaultActor
	}
	return &PrivilegedGitActions{
		VCS:     vcsFacade,
		GitHub:  ghFacade,
		Role:    role,
		HasRole: hasRole,
		Policy:  pol,
		Actor:   actor,
		Audit:   auditLog,
	}
}

// WithMetrics attaches the ambient telemetry counters and returns p for
// chaining at construction time.
func (p *PrivilegedGitActions) WithMetrics(m *telemetry.Metrics) *PrivilegedGitActions {
	p.Metrics = m
	return p
}

// assertAuthorized evaluates action against p's role and policy, appending
// the decision's audit entry. On deny it appends before returning the
// AuthorizationDeniedError; on allow it appends the "matched:<pattern>"
// record and returns nil. No caller may execute the underlying command
// before this returns nil.
func (p *PrivilegedGitActions) assertAuthorized(action policy.Action, target, requestID string) error {
	_, span := telemetry.StartSpan(context.Background(), "guard.authorize",
		telemetry.AttrAction.String(string(action)), telemetry.AttrTarget.String(target),
		telemetry.AttrRequestID.String(requestID))
	defer span.End()

	d := policy.Evaluate(p.Role, p.HasRole, action, p.Policy)

	if !d.Allowed {
		span.SetAttributes(telemetry.AttrDecision.String(string(d.Reason)))
		p.Metrics.RecordPrivilegedAction("deny")
		entryRole := ""
		if p.HasRole {
			entryRole = string(p.Role)
		}
		if err := p.Audit.Append(audit.Entry{
			Actor:    p.Actor,
			Role:     entryRole,
			Action:   string(action),
			Target:   target,
			Decision: audit.DecisionDeny,
			Reason:   string(d.Reason),
		}); err != nil {
			return ixerr.Wrap(err, ixerr.KindInternal, "failed to append deny audit entry")
		}
		return &AuthorizationDeniedError{Action: action, Role: p.Role, HasRole: p.HasRole, Reason: d.Reason}
	}

	span.SetAttributes(telemetry.AttrDecision.String("allow"))
	p.Metrics.RecordPrivilegedAction("allow")

	entryRole := ""
	if p.HasRole {
		entryRole = string(p.Role)
	}
	if err := p.Audit.Append(audit.Entry{
		Actor:    p.Actor,
		Role:     entryRole,
		Action:   string(action),
		Target:   target,
		Decision: audit.DecisionAllow,
		Reason:   "matched:" + string(d.MatchedPattern),
	}); err != nil {
		return ixerr.Wrap(err, ixerr.KindInternal, "failed to append allow audit entry")
	}
	return nil
}

// auditExecuted appends the post-execution audit record: allow, reason
// "executed", and the SHA-256 hex digest of the canonical command string.
func (p *PrivilegedGitActions) auditExecuted(action policy.Action, target, command, requestID string) error {
	_, span := telemetry.StartSpan(context.Background(), "guard.execute",
		telemetry.AttrAction.String(string(action)), telemetry.AttrTarget.String(target),
		telemetry.AttrRequestID.String(requestID))
	defer span.End()
	entryRole := ""
	if p.HasRole {
		entryRole = string(p.Role)
	}
	sum := sha256.Sum256([]byte(command))
	if err := p.Audit.Append(audit.Entry{
		Actor:       p.Actor,
		Role:        entryRole,
		Action:      string(action),
		Target:      target,
		Decision:    audit.DecisionAllow,
		Reason:      "executed",
		CommandHash: hex.EncodeToString(sum[:]),
	}); err != nil {
		return ixerr.Wrap(err, ixerr.KindInternal, "failed to append execution audit entry")
	}
	return nil
}

// CreateBranch gates `git checkout -b <name>` behind
// git:privileged:branch-create.
func (p *PrivilegedGitActions) CreateBranch(name string) error {
	const action policy.Action = "git:privileged:branch-create"
	target := "branch:" + name
	command := "git checkout -b " + name
	requestID := telemetry.NewRequestID()

	if err := p.assertAuthorized(action, target, requestID); err != nil {
		return err
	}
	if err := p.VCS.CreateBranch(name); err != nil {
		return err
	}
	return p.auditExecuted(action, target, command, requestID)
}

// Rebase gates `git rebase <onto>` behind git:privileged:rebase.
func (p *PrivilegedGitActions) Rebase(onto string) error {
	const action policy.Action = "git:privileged:rebase"
	target := "ref:" + onto
	command := "git rebase " + onto
	requestID := telemetry.NewRequestID()

	if err := p.assertAuthorized(action, target, requestID); err != nil {
		return err
	}
	if err := p.VCS.Rebase(onto); err != nil {
		return err
	}
	return p.auditExecuted(action, target, command, requestID)
}

// PushBranch gates `git push [-u] <remote> <branch>` behind
// git:privileged:push. remote defaults to "origin" for target/command
// purposes, matching the default the underlying primitive applies.
func (p *PrivilegedGitActions) PushBranch(branch, remote string, setUpstream bool) error {
	const action policy.Action = "git:privileged:push"
	effectiveRemote := remote
	if effectiveRemote == "" {
		effectiveRemote = "origin"
	}
	target := fmt.Sprintf("branch:%s@%s", branch, effectiveRemote)

	var commandParts []string
	commandParts = append(commandParts, "git", "push")
	if setUpstream {
		commandParts = append(commandParts, "-u")
	}
	commandParts = append(commandParts, effectiveRemote, branch)
	command := strings.Join(commandParts, " ")

	requestID := telemetry.NewRequestID()
	if err := p.assertAuthorized(action, target, requestID); err != nil {
		return err
	}
	if err := p.VCS.PushBranch(branch, remote, setUpstream); err != nil {
		return err
	}
	return p.auditExecuted(action, target, command, requestID)
}

// CreatePullRequest gates `gh pr create` behind git:privileged:pr-create.
func (p *PrivilegedGitActions) CreatePullRequest(opts vcs.CreatePROptions) (string, error) {
	const action policy.Action = "git:privileged:pr-create"
	target := fmt.Sprintf("pr:%s->%s", opts.Head, opts.Base)
	command := fmt.Sprintf("gh pr create --base %s --head %s --title %s", opts.Base, opts.Head, opts.Title)

	requestID := telemetry.NewRequestID()
	if err := p.assertAuthorized(action, target, requestID); err != nil {
		return "", err
	}
	url, err := p.GitHub.CreatePullRequest(opts)
	if err != nil {
		return "", err
	}
	if err := p.auditExecuted(action, target, command, requestID); err != nil {
		return "", err
	}
	return url, nil
}

// MergePullRequest gates `gh pr merge <n> --<method> --auto` behind
// git:privileged:pr-merge.
func (p *PrivilegedGitActions) MergePullRequest(prNumber int, method vcs.MergeMethod) error {
	const action policy.Action = "git:privileged:pr-merge"
	target := fmt.Sprintf("pr:%d", prNumber)
	effectiveMethod := method
	if effectiveMethod == "" {
		effectiveMethod = vcs.MergeMethodMerge
	}
	command := fmt.Sprintf("gh pr merge %d --%s --auto", prNumber, effectiveMethod)

	requestID := telemetry.NewRequestID()
	if err := p.assertAuthorized(action, target, requestID); err != nil {
		return err
	}
	if err := p.GitHub.MergePullRequest(prNumber, method); err != nil {
		return err
	}
	return p.auditExecuted(action, target, command, requestID)
}
