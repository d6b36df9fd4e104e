package vcs

import (
	"errors"
	"testing"
)

var errMainMissing = errors.New("fatal: needed a single revision")

func TestResolveViaGoGitFalseOnNonRepo(t *testing.T) {
	if _, ok := resolveViaGoGit(t.TempDir()); ok {
		t.Fatalf("expected resolveViaGoGit to fail on a non-git directory")
	}
}

func TestResolveDefaultBranchFallsBackToCLIProbeWhenNotAGitDir(t *testing.T) {
	r := newFakeRunner()
	r.stub("abc123\n", "git", "rev-parse", "--verify", "main")
	c := &Client{Dir: t.TempDir(), Runner: r}

	branch, err := c.ResolveDefaultBranch()
	if err != nil || branch != "main" {
		t.Fatalf("unexpected result: %q %v", branch, err)
	}
}

func TestResolveDefaultBranchFallsBackToMasterWhenMainMissing(t *testing.T) {
	r := newFakeRunner()
	r.errs[r.key("git", "rev-parse", "--verify", "main")] = errMainMissing
	r.stub("abc123\n", "git", "rev-parse", "--verify", "master")
	c := &Client{Dir: t.TempDir(), Runner: r}

	branch, err := c.ResolveDefaultBranch()
	if err != nil || branch != "master" {
		t.Fatalf("unexpected result: %q %v", branch, err)
	}
}

func TestResolveDefaultBranchFailsWhenNeitherResolves(t *testing.T) {
	r := newFakeRunner()
	r.errs[r.key("git", "rev-parse", "--verify", "main")] = errMainMissing
	r.errs[r.key("git", "rev-parse", "--verify", "master")] = errMainMissing
	c := &Client{Dir: t.TempDir(), Runner: r}

	if _, err := c.ResolveDefaultBranch(); err == nil {
		t.Fatalf("expected error when neither main nor master resolves")
	}
}
