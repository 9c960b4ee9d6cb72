// Package dberrors carries the small set of error kinds spec.md §7 names,
// so the executor can format responses ("ERROR: ...") uniformly while
// callers that need to branch on kind (tests, replication) still can.
package dberrors

import "fmt"

// Kind tags one of the error categories surfaced to clients.
type Kind int

const (
	KindSyntax Kind = iota
	KindAuthRequired
	KindAuthFailed
	KindPermissionDenied
	KindNotOwner
	KindReadOnlyReplica
	KindTxState
	KindConstraint
	KindNotFound
	KindType
	KindInternal
)

// Error is a kinded error with a human-readable message.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// New builds a kinded error.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Syntax is shorthand for a fixed "Syntax Error" message per spec.md §7.
func Syntax() *Error { return New(KindSyntax, "Syntax Error") }

func Constraint(format string, args ...interface{}) *Error {
	return New(KindConstraint, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func Type(format string, args ...interface{}) *Error {
	return New(KindType, format, args...)
}

func Internal(format string, args ...interface{}) *Error {
	return New(KindInternal, format, args...)
}
