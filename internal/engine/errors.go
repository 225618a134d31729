package engine

import "fmt"

// Kind classifies an engine failure for transport mapping.
type Kind uint8

const (
	KindNotFound Kind = iota
	KindPreconditionFailed
	KindInvalidInput
	KindOwnershipViolation
	KindDuplicateSubmission
	KindResourceExhausted
	KindDependencyUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindPreconditionFailed:
		return "precondition_failed"
	case KindInvalidInput:
		return "invalid_input"
	case KindOwnershipViolation:
		return "ownership_violation"
	case KindDuplicateSubmission:
		return "duplicate_submission"
	case KindResourceExhausted:
		return "resource_exhausted"
	case KindDependencyUnavailable:
		return "dependency_unavailable"
	}
	return "unknown"
}

// Error is a tagged, user-presentable engine failure. The reason never
// contains internal state.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Is makes errors.Is match on Kind against a bare &Error{Kind: k}.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Reason == "" || t.Reason == e.Reason)
}

func errNotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Reason: fmt.Sprintf(format, args...)}
}

func errPrecondition(format string, args ...interface{}) *Error {
	return &Error{Kind: KindPreconditionFailed, Reason: fmt.Sprintf(format, args...)}
}

func errInvalid(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidInput, Reason: fmt.Sprintf(format, args...)}
}

func errOwnership(format string, args ...interface{}) *Error {
	return &Error{Kind: KindOwnershipViolation, Reason: fmt.Sprintf(format, args...)}
}

func errDuplicate(format string, args ...interface{}) *Error {
	return &Error{Kind: KindDuplicateSubmission, Reason: fmt.Sprintf(format, args...)}
}

func errExhausted(format string, args ...interface{}) *Error {
	return &Error{Kind: KindResourceExhausted, Reason: fmt.Sprintf(format, args...)}
}

// NewDependencyError wraps a collaborator failure (store, cache) so the
// transport layer can report it without leaking internals.
func NewDependencyError(what string) *Error {
	return &Error{Kind: KindDependencyUnavailable, Reason: what + " unavailable"}
}

// KindOf returns the Kind of err when it is an engine Error, or
// KindDependencyUnavailable otherwise.
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindDependencyUnavailable
}
