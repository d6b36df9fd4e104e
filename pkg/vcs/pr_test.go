package vcs

import "testing"

func TestNormalizeCheckPendingStatuses(t *testing.T) {
	for _, status := range []string{"QUEUED", "IN_PROGRESS", "PENDING", "REQUESTED", "WAITING"} {
		c := normalizeCheck(rawCheck{Status: status})
		if c.State != StatePending {
			t.Errorf("status %q: expected PENDING, got %q", status, c.State)
		}
	}
}

func TestNormalizeCheckSuccessConclusions(t *testing.T) {
	for _, concl := range []string{"SUCCESS", "NEUTRAL", "SKIPPED"} {
		c := normalizeCheck(rawCheck{Status: "COMPLETED", Conclusion: concl})
		if c.State != StateSuccess {
			t.Errorf("conclusion %q: expected SUCCESS, got %q", concl, c.State)
		}
	}
}

func TestNormalizeCheckFailureConclusions(t *testing.T) {
	for _, concl := range []string{"FAILURE", "TIMED_OUT", "ACTION_REQUIRED", "STARTUP_FAILURE"} {
		c := normalizeCheck(rawCheck{Status: "COMPLETED", Conclusion: concl})
		if c.State != StateFailure {
			t.Errorf("conclusion %q: expected FAILURE, got %q", concl, c.State)
		}
	}
}

func TestNormalizeCheckCancelled(t *testing.T) {
	c := normalizeCheck(rawCheck{Status: "COMPLETED", Conclusion: "CANCELLED"})
	if c.State != StateCancelled {
		t.Fatalf("expected CANCELLED, got %q", c.State)
	}
}

func TestNormalizeCheckCompletedEmptyConclusionIsUnknown(t *testing.T) {
	c := normalizeCheck(rawCheck{Status: "COMPLETED", Conclusion: ""})
	if c.State != StateUnknown {
		t.Fatalf("expected UNKNOWN, got %q", c.State)
	}
}

func TestReduceOverallFailureWins(t *testing.T) {
	checks := []Check{{State: StateSuccess}, {State: StateFailure}, {State: StatePending}}
	if got := reduceOverall(checks); got != StateFailure {
		t.Fatalf("expected FAILURE, got %q", got)
	}
}

func TestReduceOverallPendingBeatsCancelled(t *testing.T) {
	checks := []Check{{State: StateCancelled}, {State: StatePending}}
	if got := reduceOverall(checks); got != StatePending {
		t.Fatalf("expected PENDING, got %q", got)
	}
}

func TestReduceOverallAllSuccess(t *testing.T) {
	checks := []Check{{State: StateSuccess}, {State: StateSuccess}}
	if got := reduceOverall(checks); got != StateSuccess {
		t.Fatalf("expected SUCCESS, got %q", got)
	}
}

func TestReduceOverallEmptyIsPending(t *testing.T) {
	if got := reduceOverall(nil); got != StatePending {
		t.Fatalf("expected PENDING for empty check list, got %q", got)
	}
}

func TestParsePullRequestNumberFromURL(t *testing.T) {
	cases := []struct {
		url     string
		want    int
		wantErr bool
	}{
		{"https://github.com/acme/widgets/pull/42", 42, false},
		{"https://github.com/acme/widgets/pull/42/files", 42, false},
		{"https://github.com/acme/widgets/pull/42?tab=checks", 42, false},
		{"https://github.com/acme/widgets/pull/42abc", 0, true},
		{"https://github.com/acme/widgets/issues/42", 0, true},
	}
	for _, c := range cases {
		got, err := ParsePullRequestNumberFromURL(c.url)
		if c.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", c.url)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Errorf("%s: got %d, %v, want %d", c.url, got, err, c.want)
		}
	}
}

func TestMergePullRequestValidatesPositiveInt(t *testing.T) {
	c := &Client{Runner: newFakeRunner()}
	if err := c.MergePullRequest(0, MergeMethodSquash); err == nil {
		t.Fatalf("expected invalid-argument error for non-positive PR number")
	}
}

func TestCreatePullRequestRequiresBaseHeadTitle(t *testing.T) {
	c := &Client{Runner: newFakeRunner()}
	if _, err := c.CreatePullRequest(CreatePROptions{}); err == nil {
		t.Fatalf("expected invalid-argument error for missing required fields")
	}
}

func TestCreatePullRequestExtractsURL(t *testing.T) {
	r := newFakeRunner()
	r.stub("Some banner text\nhttps://github.com/acme/widgets/pull/7\n",
		"gh", "pr", "create", "--base", "main", "--head", "feat", "--title", "t", "--body", "")
	c := &Client{Runner: r}
	url, err := c.CreatePullRequest(CreatePROptions{Base: "main", Head: "feat", Title: "t"})
	if err != nil || url != "https://github.com/acme/widgets/pull/7" {
		t.Fatalf("unexpected result: %q %v", url, err)
	}
}
