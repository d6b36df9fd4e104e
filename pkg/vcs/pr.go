package vcs

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/ixado-dev/ixado/pkg/ixerr"
)

// prURLPattern matches the first gh pr create stdout line naming the new
// PR's URL.
var prURLPattern = regexp.MustCompile(`^https://github\.com/.+/pull/\d+$`)

// pullRequestNumberPattern extracts the trailing PR number from a PR URL,
// requiring the digits be followed by end-of-string, '/', '?', or '#'.
var pullRequestNumberPattern = regexp.MustCompile(`/pull/(\d+)(?:$|[/?#])`)

// CreatePROptions are the optional flags createPullRequest forwards to `gh
// pr create`.
type CreatePROptions struct {
	Base      string
	Head      string
	Title     string
	Body      string
	Template  string
	Labels    []string
	Assignees []string
	Draft     bool
}

// CreatePullRequest invokes `gh pr create` and returns the created PR's
// URL, scanned line-by-line from stdout for the first line matching the
// GitHub pull request URL shape.
func (c *Client) CreatePullRequest(opts CreatePROptions) (string, error) {
	if strings.TrimSpace(opts.Base) == "" || strings.TrimSpace(opts.Head) == "" || strings.TrimSpace(opts.Title) == "" {
		return "", ixerr.New(ixerr.KindInvalidArgument, "base, head, and title are required to create a pull request")
	}

	args := []string{"pr", "create",
		"--base", opts.Base,
		"--head", opts.Head,
		"--title", opts.Title,
		"--body", opts.Body,
	}
	if opts.Template != "" {
		args = append(args, "--template", opts.Template)
	}
	if len(opts.Labels) > 0 {
		args = append(args, "--label", strings.Join(opts.Labels, ","))
	}
	if len(opts.Assignees) > 0 {
		args = append(args, "--assignee", strings.Join(opts.Assignees, ","))
	}
	if opts.Draft {
		args = append(args, "--draft")
	}

	output, err := c.run("gh", args...)
	if err != nil {
		return "", ixerr.Wrap(err, ixerr.KindInternal, "gh pr create failed")
	}

	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if prURLPattern.MatchString(line) {
			return line, nil
		}
	}
	return "", ixerr.New(ixerr.KindInternal, "gh pr create did not print a pull request URL")
}

// MergeMethod is one of the three methods `gh pr merge` accepts.
type MergeMethod string

const (
	MergeMethodMerge  MergeMethod = "merge"
	MergeMethodSquash MergeMethod = "squash"
	MergeMethodRebase MergeMethod = "rebase"
)

// MergePullRequest runs `gh pr merge <n> --<method> --auto`. method
// defaults to MergeMethodMerge.
func (c *Client) MergePullRequest(prNumber int, method MergeMethod) error {
	if err := ValidatePositiveInt("prNumber", prNumber); err != nil {
		return err
	}
	if method == "" {
		method = MergeMethodMerge
	}
	_, err := c.run("gh", "pr", "merge", strconv.Itoa(prNumber), "--"+string(method), "--auto")
	if err != nil {
		return ixerr.Wrap(err, ixerr.KindInternal, "gh pr merge failed")
	}
	return nil
}

// MarkPullRequestReady runs `gh pr ready <n>`.
func (c *Client) MarkPullRequestReady(prNumber int) error {
	if err := ValidatePositiveInt("prNumber", prNumber); err != nil {
		return err
	}
	_, err := c.run("gh", "pr", "ready", strconv.Itoa(prNumber))
	if err != nil {
		return ixerr.Wrap(err, ixerr.KindInternal, "gh pr ready failed")
	}
	return nil
}

// ParsePullRequestNumberFromURL extracts the PR number from a URL of the
// form ".../pull/123", rejecting anything else (trailing garbage after
// the digits other than '/', '?', '#', or end-of-string).
func ParsePullRequestNumberFromURL(url string) (int, error) {
	m := pullRequestNumberPattern.FindStringSubmatch(url)
	if m == nil {
		return 0, ixerr.New(ixerr.KindInvalidArgument, "url does not contain a recognizable pull request number").
			WithContext("url", url)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, ixerr.Wrap(err, ixerr.KindInvalidArgument, "pull request number is not a valid integer")
	}
	return n, nil
}

// rawStatusCheckRollup mirrors the JSON shape of `gh pr view --json
// statusCheckRollup`.
type rawStatusCheckRollup struct {
	StatusCheckRollup []rawCheck `json:"statusCheckRollup"`
}

type rawCheck struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
	DetailsURL string `json:"detailsUrl"`
}

// GetCIStatus runs `gh pr view <n> --json statusCheckRollup`, parses the
// result, and normalizes it per NormalizeChecks.
func (c *Client) GetCIStatus(prNumber int) (Summary, error) {
	if err := ValidatePositiveInt("prNumber", prNumber); err != nil {
		return Summary{}, err
	}

	output, err := c.run("gh", "pr", "view", strconv.Itoa(prNumber), "--json", "statusCheckRollup")
	if err != nil {
		return Summary{}, ixerr.Wrap(err, ixerr.KindInternal, "gh pr view failed")
	}

	var raw rawStatusCheckRollup
	if jsonErr := json.Unmarshal(output, &raw); jsonErr != nil {
		return Summary{}, ixerr.Wrap(jsonErr, ixerr.KindCommandParseFailed, "failed to parse statusCheckRollup JSON")
	}

	checks := make([]Check, 0, len(raw.StatusCheckRollup))
	for _, rc := range raw.StatusCheckRollup {
		checks = append(checks, normalizeCheck(rc))
	}
	return Summary{Overall: reduceOverall(checks), Checks: checks}, nil
}

func normalizeCheck(rc rawCheck) Check {
	status := strings.ToUpper(strings.TrimSpace(rc.Status))
	conclusion := strings.ToUpper(strings.TrimSpace(rc.Conclusion))

	var state State
	switch {
	case isPendingStatus(status):
		state = StatePending
	case isSuccessConclusion(conclusion):
		state = StateSuccess
	case conclusion == "CANCELLED":
		state = StateCancelled
	case isFailureConclusion(conclusion):
		state = StateFailure
	case status == "COMPLETED" && conclusion == "":
		state = StateUnknown
	default:
		state = StateUnknown
	}

	return Check{Name: rc.Name, State: state, DetailsURL: rc.DetailsURL}
}

func isPendingStatus(s string) bool {
	switch s {
	case "QUEUED", "IN_PROGRESS", "PENDING", "REQUESTED", "WAITING":
		return true
	}
	return false
}

func isSuccessConclusion(s string) bool {
	switch s {
	case "SUCCESS", "NEUTRAL", "SKIPPED":
		return true
	}
	return false
}

func isFailureConclusion(s string) bool {
	switch s {
	case "FAILURE", "TIMED_OUT", "ACTION_REQUIRED", "STARTUP_FAILURE":
		return true
	}
	return false
}

// reduceOverall folds a check list into one overall State: any FAILURE
// wins outright; else any PENDING/UNKNOWN keeps things PENDING; else any
// CANCELLED; else, if non-empty and every check is SUCCESS, SUCCESS;
// otherwise PENDING.
func reduceOverall(checks []Check) State {
	if len(checks) == 0 {
		return StatePending
	}

	hasPendingOrUnknown := false
	hasCancelled := false
	allSuccess := true

	for _, c := range checks {
		switch c.State {
		case StateFailure:
			return StateFailure
		case StatePending, StateUnknown:
			hasPendingOrUnknown = true
			allSuccess = false
		case StateCancelled:
			hasCancelled = true
			allSuccess = false
		case StateSuccess:
		default:
			allSuccess = false
		}
	}

	if hasPendingOrUnknown {
		return StatePending
	}
	if hasCancelled {
		return StateCancelled
	}
	if allSuccess {
		return StateSuccess
	}
	return StatePending
}
