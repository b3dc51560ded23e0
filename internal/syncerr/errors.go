package syncerr

import (
	"errors"
	"fmt"
)

// Kind classifies a sync failure so callers can decide between skip and abort
// without inspecting error text.
type Kind int

const (
	Unknown Kind = iota
	Transient
	NoData
	Parse
	Duplicate
	Store
	StoreFatal
	CircuitOpen
)

var kindNames = map[Kind]string{
	Unknown:     "unknown",
	Transient:   "transient",
	NoData:      "no_data",
	Parse:       "parse",
	Duplicate:   "duplicate",
	Store:       "store",
	StoreFatal:  "store_fatal",
	CircuitOpen: "circuit_open",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the single error type produced by the sync engine and its collaborators.
type Error struct {
	Kind  Kind
	Op    string
	Count int // error count, set for CircuitOpen
	Err   error
}

func (e *Error) Error() string {
	if e.Kind == CircuitOpen {
		return fmt.Sprintf("too many errors: %d", e.Count)
	}
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with a kind and the operation that failed.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Transientf(op, format string, args ...any) *Error {
	return New(Transient, op, fmt.Errorf(format, args...))
}

func NoDataf(op, format string, args ...any) *Error {
	return New(NoData, op, fmt.Errorf(format, args...))
}

func Parsef(op, format string, args ...any) *Error {
	return New(Parse, op, fmt.Errorf(format, args...))
}

// CircuitOpenError reports that the error ceiling was exceeded after count errors.
func CircuitOpenError(count int) *Error {
	return &Error{Kind: CircuitOpen, Op: "gate", Count: count}
}

// KindOf returns the kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsFatal reports whether err must abort the whole run.
func IsFatal(err error) bool {
	switch KindOf(err) {
	case StoreFatal, CircuitOpen:
		return true
	}
	return false
}
