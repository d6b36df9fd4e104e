// Package ixerr provides the structured error taxonomy shared by every
// fallible operation in the ixado core.
//
// Every kind below corresponds to a named error/deny-reason category in the
// specification's error handling design: authorization denials, policy load
// failures, dirty working trees, invalid primitive arguments, external
// command parse failures, and CI polling timeouts all carry a stable Kind
// so callers can switch on it instead of matching message strings.
package ixerr

import (
	"fmt"
	"strings"
)

// Kind identifies the category of a structured error.
type Kind string

const (
	KindAuthorizationDenied Kind = "authorization-denied"
	KindPolicyLoadFailed    Kind = "policy-load-failed"
	KindDirtyWorkingTree    Kind = "dirty-working-tree"
	KindInvalidArgument     Kind = "invalid-argument"
	KindCommandParseFailed  Kind = "command-parse-failed"
	KindCIPollTimeout       Kind = "ci-poll-timeout"
	KindInternal            Kind = "internal"
)

// Error is the structured error type returned by the core packages.
type Error struct {
	Kind       Kind
	Message    string
	Underlying error
	Context    map[string]any
}

// New creates a structured error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind and message to an existing error. Returns nil when
// err is nil so call sites can write `return ixerr.Wrap(err, ...)` unconditionally.
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Underlying: err}
}

// WithContext attaches a structured field (e.g. "action", "role", "reason")
// to the error for inspection by callers or test assertions.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any, 1)
	}
	e.Context[key] = value
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Kind, e.Message))
	if len(e.Context) > 0 {
		sb.WriteString(" {")
		first := true
		for k, v := range e.Context {
			if !first {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s: %v", k, v)
			first = false
		}
		sb.WriteString("}")
	}
	if e.Underlying != nil {
		fmt.Fprintf(&sb, ": %v", e.Underlying)
	}
	return sb.String()
}

// Unwrap supports errors.Is/errors.As against the underlying cause.
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is reports whether target is an *Error with the same Kind, so
// errors.Is(err, ixerr.New(ixerr.KindDirtyWorkingTree, "")) works as a
// kind-only sentinel match.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

// Is reports whether err is a structured error of the given kind, unwrapping
// as needed.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ae, ok := err.(*Error); ok {
			e = ae
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}

// GetKind extracts the Kind from err, or "" if err is not a structured error.
func GetKind(err error) Kind {
	e, ok := err.(*Error)
	if !ok {
		return ""
	}
	return e.Kind
}
