// Package serrors defines the semantic error kinds shared by the scanner, the
// storage layer and the API. A kind says what went wrong (a page timed out, a
// run does not exist); the wrapped cause says why.
package serrors

import (
	"errors"
	"fmt"
)

// Kind is a semantic error category. Kinds are comparable sentinels created
// with NewKind and can be matched with errors.Is and errors.As through the
// Error wrapper.
type Kind interface {
	error
	isKind()
}

type kind struct{ s string }

func (k kind) Error() string { return k.s }
func (k kind) isKind()       {}

// NewKind creates a kind named name. The name is what API clients and the
// FetchError text of a partner result see.
func NewKind(name string) Kind { return kind{s: name} }

// The kinds used across the module. The fetch family (ErrTimeout,
// ErrRateLimited, ErrFetchFailed) is recorded on partner results; ErrUnavailable
// is the only kind that aborts a scan; the rest map to API status codes.
var (
	// ErrNotFound indicates the requested run or partner result does not exist.
	ErrNotFound = NewKind("NOT_FOUND")
	// ErrUnauthorized indicates a missing or invalid API token.
	ErrUnauthorized = NewKind("UNAUTHORIZED")
	// ErrBadRequest indicates invalid input, such as a malformed partner URL.
	ErrBadRequest = NewKind("BAD_REQUEST")
	// ErrInternal indicates an internal error.
	ErrInternal = NewKind("INTERNAL")
	// ErrTimeout indicates a page could not be fetched within its time budget.
	ErrTimeout = NewKind("TIMEOUT")
	// ErrUnavailable indicates the fetch capability could not be acquired.
	// It is the only error that aborts a scan.
	ErrUnavailable = NewKind("UNAVAILABLE")
	// ErrRateLimited indicates the partner host answered with too many requests.
	ErrRateLimited = NewKind("RATE_LIMITED")
	// ErrFetchFailed indicates a network, navigation or HTTP status failure for a page.
	ErrFetchFailed = NewKind("FETCH_FAILED")
)

// IsFetchError reports whether err belongs to the per-partner fetch error family.
// Such errors are recorded on the partner result and never abort a scan.
func IsFetchError(err error) bool {
	return errors.Is(err, ErrFetchFailed) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimited)
}

// KindOf returns the kind of the outermost semantic error in err's chain, or
// nil when there is none. A bare kind sentinel counts as its own kind.
//
// It is how partner results render their FetchError prefix and how the API
// picks a status code:
//
//	serrors.KindOf(serrors.Wrap(serrors.ErrTimeout, err, "page load")) == serrors.ErrTimeout
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) && e.kind != nil {
		return e.kind
	}

	var k Kind
	if errors.As(err, &k) {
		return k
	}

	return nil
}

// Error carries a kind, an optional cause and an optional message.
//
// Matching semantics:
//   - errors.Is(err, target) matches target against the kind, then the cause
//     chain.
//   - errors.As(err, target) extracts the kind, or any error from the cause
//     chain such as a *fetcher.RetryAfterError.
//
// Formatting: Error() prints "<msg>: <cause>", falling back to whichever of the
// two is set and finally to the kind name. Callers that need the kind in the
// text prefix it themselves with KindOf.
type Error struct {
	kind Kind
	err  error
	msg  string
}

// With returns an error of kind k with a formatted message and no cause. Use
// it when the failure originates here, e.g. an unexpected HTTP status.
func With(k Kind, msgFmt string, args ...any) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(msgFmt, args...)}
}

// Wrap returns an error of kind k wrapping err, with a formatted message. The
// cause stays reachable through errors.Is, errors.As and Unwrap.
func Wrap(k Kind, err error, msgFmt string, args ...any) *Error {
	return &Error{kind: k, err: err, msg: fmt.Sprintf(msgFmt, args...)}
}

// KindOnly returns an error that carries just k.
func KindOnly(k Kind) *Error { return &Error{kind: k} }

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.msg != "" && e.err != nil:
		return e.msg + ": " + e.err.Error()
	case e.msg != "":
		return e.msg
	case e.err != nil:
		return e.err.Error()
	case e.kind != nil:
		return e.kind.Error()
	default:
		return "unknown error"
	}
}

func (e *Error) Unwrap() error { return e.err }

// Is matches target against the kind first, then the cause chain.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return e == nil && target == nil
	}

	return (e.kind != nil && errors.Is(e.kind, target)) || (e.err != nil && errors.Is(e.err, target))
}

// As extracts the kind first, then anything from the cause chain.
func (e *Error) As(target any) bool {
	if e == nil || target == nil {
		return false
	}

	return (e.kind != nil && errors.As(e.kind, target)) || (e.err != nil && errors.As(e.err, target))
}

// Kind returns the kind of e, or nil.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the message attached to e, without the cause.
func (e *Error) Message() string { return e.msg }

// Cause returns the wrapped cause, or nil.
func (e *Error) Cause() error { return e.err }
