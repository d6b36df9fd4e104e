package vcs

import (
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/ixado-dev/ixado/pkg/ixerr"
)

// ResolveDefaultBranch determines the repository's default branch without
// shelling out when possible: it opens the repo read-only with go-git and
// reads the symbolic ref refs/remotes/origin/HEAD. When go-git cannot
// resolve that ref (a freshly cloned mirror, a detached remote HEAD), it
// falls back to probing `main` then `master` via the process runner,
// exactly as the CLI-based PR creation flow this is adapted from does.
func (c *Client) ResolveDefaultBranch() (string, error) {
	if branch, ok := resolveViaGoGit(c.Dir); ok {
		return branch, nil
	}
	return c.resolveViaCLIProbe()
}

func resolveViaGoGit(repoPath string) (string, bool) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return "", false
	}

	ref, err := repo.Reference(plumbing.NewRemoteHEADReferenceName("origin"), true)
	if err != nil || ref == nil {
		return "", false
	}

	name := ref.Name().Short()
	name = strings.TrimPrefix(name, "origin/")
	if name == "" {
		return "", false
	}
	return name, true
}

func (c *Client) resolveViaCLIProbe() (string, error) {
	for _, candidate := range []string{"main", "master"} {
		if _, err := c.run("git", "rev-parse", "--verify", candidate); err == nil {
			return candidate, nil
		}
	}
	return "", ixerr.New(ixerr.KindInternal, "could not determine default branch via go-git or CLI probe")
}
