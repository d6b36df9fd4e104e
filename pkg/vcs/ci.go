package vcs

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ixado-dev/ixado/pkg/ixerr"
	"github.com/ixado-dev/ixado/pkg/telemetry"
)

// State is a normalized CI check or overall status.
type State string

const (
	StatePending   State = "PENDING"
	StateSuccess   State = "SUCCESS"
	StateFailure   State = "FAILURE"
	StateCancelled State = "CANCELLED"
	StateUnknown   State = "UNKNOWN"
)

// terminal reports whether s is one of the three terminal states.
func (s State) terminal() bool {
	return s == StateSuccess || s == StateFailure || s == StateCancelled
}

// Check is one normalized CI check result.
type Check struct {
	Name       string
	State      State
	DetailsURL string
}

// Summary is the overall reduction plus the ordered check list it was
// computed from.
type Summary struct {
	Overall State
	Checks  []Check
}

// fingerprint computes "overall | sort(name|state|detailsUrl)" exactly as
// specified, used by the poll loop to detect transitions cheaply.
func (s Summary) fingerprint() string {
	parts := make([]string, 0, len(s.Checks))
	for _, c := range s.Checks {
		parts = append(parts, c.Name+"|"+string(c.State)+"|"+c.DetailsURL)
	}
	sort.Strings(parts)
	return string(s.Overall) + "|" + strings.Join(parts, "|")
}

// Transition describes one poll iteration's observation, handed to
// onTransition before any internal state is updated. onTransition only
// fires when the overall state or fingerprint actually changed from the
// previous iteration — a repeated confirmed-terminal observation is not a
// transition and does not invoke it.
type Transition struct {
	PollCount               int
	PreviousOverall         State
	CurrentOverall          State
	PreviousFingerprint     string
	CurrentFingerprint      string
	IsRerun                 bool
	IsTerminal              bool
	TerminalObservationCount int
}

// PollOptions configures Poll. Zero values fall back to the documented
// defaults.
type PollOptions struct {
	IntervalMs            int
	TimeoutMs             int
	TerminalConfirmations int
	OnTransition          func(Transition)
	Sleep                 func(time.Duration) // overridable for tests
	Metrics               *telemetry.Metrics  // optional; nil records nothing
}

func (o PollOptions) interval() time.Duration {
	if o.IntervalMs <= 0 {
		return 15000 * time.Millisecond
	}
	return time.Duration(o.IntervalMs) * time.Millisecond
}

func (o PollOptions) timeout() time.Duration {
	if o.TimeoutMs <= 0 {
		return 900000 * time.Millisecond
	}
	return time.Duration(o.TimeoutMs) * time.Millisecond
}

func (o PollOptions) confirmations() int {
	if o.TerminalConfirmations <= 0 {
		return 1
	}
	return o.TerminalConfirmations
}

func (o PollOptions) sleep(d time.Duration) {
	if o.Sleep != nil {
		o.Sleep(d)
		return
	}
	time.Sleep(d)
}

// Poll runs the CI poll loop against prNumber using fetch to retrieve each
// observation, returning once the required number of consecutive
// confirmed-terminal observations has been reached, or failing with a
// ci-poll-timeout error if timeoutMs elapses first.
func Poll(ctx context.Context, prNumber int, fetch func() (Summary, error), opts PollOptions) (Summary, error) {
	start := time.Now()
	var previousOverall State
	var previousFingerprint string
	terminalObservations := 0
	pollCount := 0

	for {
		pollCount++
		_, span := telemetry.StartSpan(ctx, "ci.poll.iteration",
			telemetry.AttrPRNumber.Int(prNumber))
		summary, err := fetch()
		if err != nil {
			span.RecordError(err)
			span.End()
			return Summary{}, err
		}

		fp := summary.fingerprint()
		isRerun := previousOverall.terminal() && summary.Overall == StatePending
		isTerminal := summary.Overall.terminal()

		transitioned := summary.Overall != previousOverall || fp != previousFingerprint
		if transitioned {
			opts.Metrics.RecordPollTransition()
		}
		if isRerun {
			opts.Metrics.RecordPollRerun()
		}
		span.SetAttributes(telemetry.AttrDecision.String(string(summary.Overall)))
		span.End()

		sameAsConfirmedTerminal := isTerminal && summary.Overall == previousOverall && fp == previousFingerprint
		var nextCount int
		switch {
		case sameAsConfirmedTerminal:
			nextCount = terminalObservations + 1
		case isTerminal:
			nextCount = 1
		default:
			nextCount = 0
		}

		if transitioned && opts.OnTransition != nil {
			opts.OnTransition(Transition{
				PollCount:                pollCount,
				PreviousOverall:          previousOverall,
				CurrentOverall:           summary.Overall,
				PreviousFingerprint:      previousFingerprint,
				CurrentFingerprint:       fp,
				IsRerun:                  isRerun,
				IsTerminal:               isTerminal,
				TerminalObservationCount: nextCount,
			})
		}

		previousOverall = summary.Overall
		previousFingerprint = fp
		terminalObservations = nextCount

		if isTerminal && terminalObservations >= opts.confirmations() {
			return summary, nil
		}

		if time.Since(start) >= opts.timeout() {
			return Summary{}, ixerr.New(ixerr.KindCIPollTimeout, "CI status did not reach a confirmed terminal state before timeout").
				WithContext("prNumber", prNumber).
				WithContext("timeoutMs", int(opts.timeout().Milliseconds()))
		}

		select {
		case <-ctx.Done():
			return Summary{}, ctx.Err()
		default:
		}

		if isTerminal && terminalObservations < opts.confirmations() {
			continue
		}
		opts.sleep(opts.interval())
	}
}
