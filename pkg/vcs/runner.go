// Package vcs implements the VCS primitives contract: thin, validated
// wrappers around git and gh subcommands, a CI status normalizer and poll
// loop, PR template rendering, and default-branch resolution. Every
// mutating operation is a literal forwarding to the corresponding
// subcommand — the authorization choke point lives one layer up, in
// pkg/guard.
package vcs

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const defaultCommandTimeout = 30 * time.Second

// Runner abstracts external command execution so git/gh invocations can be
// faked in tests without touching a real working tree. dir may be empty,
// meaning "inherit the caller's working directory."
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// execRunner is the production Runner, shelling out via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return output, fmt.Errorf("%s command timed out", name)
		}
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return output, fmt.Errorf("%s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return output, err
	}
	return output, nil
}

// Client wraps git/gh invocations behind a Runner, with a working directory
// and timeout shared by every call.
type Client struct {
	Dir     string
	Timeout time.Duration
	Runner  Runner
}

// NewClient constructs a Client rooted at dir using the real process runner.
func NewClient(dir string) *Client {
	return &Client{Dir: dir, Timeout: defaultCommandTimeout, Runner: execRunner{}}
}

func (c *Client) runner() Runner {
	if c.Runner == nil {
		return execRunner{}
	}
	return c.Runner
}

func (c *Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultCommandTimeout
	}
	return c.Timeout
}

// run executes name with args in c.Dir, honoring c.Timeout.
func (c *Client) run(name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout())
	defer cancel()

	output, err := c.runner().Run(ctx, c.Dir, name, args...)
	if err != nil {
		return output, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return output, nil
}
