package parser

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindMissingHost ErrorKind = iota
	KindMissingLocation
	KindInvalidHeader
	KindInvalidMethod
)

var (
	ErrMissingHost     = errors.New("expected host line")
	ErrMissingLocation = errors.New("expected location")
	ErrInvalidHeader   = errors.New("invalid header syntax")
	ErrInvalidMethod   = errors.New("invalid method")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindMissingHost:
		return ErrMissingHost
	case KindMissingLocation:
		return ErrMissingLocation
	case KindInvalidHeader:
		return ErrInvalidHeader
	case KindInvalidMethod:
		return ErrInvalidMethod
	default:
		return nil
	}
}

func (k ErrorKind) String() string {
	switch k {
	case KindMissingHost:
		return "MissingHost"
	case KindMissingLocation:
		return "MissingLocation"
	case KindInvalidHeader:
		return "InvalidHeader"
	case KindInvalidMethod:
		return "InvalidMethod"
	default:
		return "unknown"
	}
}

// ParseError describes a malformed block. Line is the line number in the
// original document, comments and blank lines included.
type ParseError struct {
	Kind  ErrorKind
	File  string
	Line  int
	Token string
}

func (e *ParseError) Error() string {
	msg := "malformed block"
	if sentinel := e.Kind.sentinel(); sentinel != nil {
		msg = sentinel.Error()
	}
	if e.Kind == KindInvalidMethod {
		msg = fmt.Sprintf("%s: %s", msg, e.Token)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: Error (line %d): %s", e.File, e.Line, msg)
	}
	return fmt.Sprintf("Error (line %d): %s", e.Line, msg)
}

// Is matches the sentinel of the error's kind, so errors.Is(err,
// ErrInvalidHeader) works on any *ParseError of that kind.
func (e *ParseError) Is(target error) bool {
	sentinel := e.Kind.sentinel()
	return sentinel != nil && target == sentinel
}

func newError(kind ErrorKind, line int) *ParseError {
	return &ParseError{Kind: kind, Line: line}
}
