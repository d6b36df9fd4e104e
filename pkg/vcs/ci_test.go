package vcs

import (
	"context"
	"testing"
	"time"

	"github.com/ixado-dev/ixado/pkg/ixerr"
)

func TestFingerprintIsOrderIndependent(t *testing.T) {
	a := Summary{Overall: StateSuccess, Checks: []Check{{Name: "b", State: StateSuccess}, {Name: "a", State: StateSuccess}}}
	b := Summary{Overall: StateSuccess, Checks: []Check{{Name: "a", State: StateSuccess}, {Name: "b", State: StateSuccess}}}
	if a.fingerprint() != b.fingerprint() {
		t.Fatalf("fingerprint should not depend on check order")
	}
}

func TestPollSingleConfirmationTerminatesImmediately(t *testing.T) {
	calls := 0
	fetch := func() (Summary, error) {
		calls++
		return Summary{Overall: StateSuccess, Checks: []Check{{Name: "build", State: StateSuccess}}}, nil
	}
	noSleep := func(time.Duration) {}

	summary, err := Poll(context.Background(), 1, fetch, PollOptions{TerminalConfirmations: 1, Sleep: noSleep})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Overall != StateSuccess {
		t.Fatalf("expected SUCCESS, got %q", summary.Overall)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one fetch with confirmations=1, got %d", calls)
	}
}

func TestPollRequiresMultipleConfirmations(t *testing.T) {
	calls := 0
	fetch := func() (Summary, error) {
		calls++
		return Summary{Overall: StateSuccess, Checks: []Check{{Name: "build", State: StateSuccess}}}, nil
	}
	noSleep := func(time.Duration) {}

	_, err := Poll(context.Background(), 1, fetch, PollOptions{TerminalConfirmations: 3, Sleep: noSleep})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 confirming fetches, got %d", calls)
	}
}

func TestPollDetectsRerun(t *testing.T) {
	sequence := []Summary{
		{Overall: StateSuccess, Checks: []Check{{Name: "build", State: StateSuccess}}},
		{Overall: StatePending, Checks: []Check{{Name: "build", State: StatePending}}},
		{Overall: StateSuccess, Checks: []Check{{Name: "build", State: StateSuccess}}},
	}
	idx := 0
	fetch := func() (Summary, error) {
		s := sequence[idx]
		if idx < len(sequence)-1 {
			idx++
		}
		return s, nil
	}
	var reruns int
	onTransition := func(tr Transition) {
		if tr.IsRerun {
			reruns++
		}
	}
	noSleep := func(time.Duration) {}

	_, err := Poll(context.Background(), 1, fetch, PollOptions{TerminalConfirmations: 1, OnTransition: onTransition, Sleep: noSleep})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reruns != 1 {
		t.Fatalf("expected exactly one rerun transition, got %d", reruns)
	}
}

func TestPollTimesOutWhenNeverTerminal(t *testing.T) {
	fetch := func() (Summary, error) {
		return Summary{Overall: StatePending, Checks: []Check{{Name: "build", State: StatePending}}}, nil
	}
	slept := 0
	sleep := func(time.Duration) { slept++ }

	_, err := Poll(context.Background(), 9, fetch, PollOptions{TimeoutMs: 1, Sleep: sleep})
	if err == nil {
		t.Fatalf("expected ci-poll-timeout error")
	}
	if !ixerr.Is(err, ixerr.KindCIPollTimeout) {
		t.Fatalf("expected ci-poll-timeout kind, got %v", err)
	}
}

func TestPollPropagatesFetchError(t *testing.T) {
	fetch := func() (Summary, error) { return Summary{}, ixerr.New(ixerr.KindInternal, "boom") }
	_, err := Poll(context.Background(), 1, fetch, PollOptions{})
	if err == nil {
		t.Fatalf("expected fetch error to propagate")
	}
}
