package result

import (
	"errors"
	"fmt"
)

// LookupState distinguishes a found resource, a resource the server says
// does not exist yet, and a lookup that could not be answered. The zero
// value is StateFailed so an unset Lookup is never mistaken for an answer.
type LookupState int

const (
	StateFailed LookupState = iota
	StatePresent
	StateAbsent
)

var errNoAnswer = errors.New("lookup not performed")

func (s LookupState) String() string {
	switch s {
	case StatePresent:
		return "present"
	case StateAbsent:
		return "absent"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("LookupState(%d)", int(s))
	}
}

// Lookup is the outcome of fetching something that may not exist.
// A Failed lookup must never be read as Absent.
type Lookup[T any] struct {
	state LookupState
	value T
	cause error
}

func Present[T any](value T) Lookup[T] {
	return Lookup[T]{state: StatePresent, value: value}
}

func Absent[T any]() Lookup[T] {
	return Lookup[T]{state: StateAbsent}
}

func Failed[T any](cause error) Lookup[T] {
	if cause == nil {
		cause = errors.New("lookup failed")
	}
	return Lookup[T]{state: StateFailed, cause: cause}
}

func (l Lookup[T]) State() LookupState { return l.state }

func (l Lookup[T]) IsPresent() bool { return l.state == StatePresent }

func (l Lookup[T]) IsAbsent() bool { return l.state == StateAbsent }

func (l Lookup[T]) IsFailed() bool { return l.state == StateFailed }

// Value returns the found value and whether it is present.
func (l Lookup[T]) Value() (T, bool) {
	return l.value, l.state == StatePresent
}

// Cause returns why the lookup failed; nil unless Failed.
func (l Lookup[T]) Cause() error {
	if l.state == StateFailed && l.cause == nil {
		return errNoAnswer
	}
	return l.cause
}

// Map converts a Present value, keeping Absent and Failed as they are.
func Map[T, U any](l Lookup[T], fn func(T) U) Lookup[U] {
	switch l.state {
	case StatePresent:
		return Present(fn(l.value))
	case StateAbsent:
		return Absent[U]()
	default:
		return Failed[U](l.Cause())
	}
}
