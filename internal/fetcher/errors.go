package fetcher

import (
	"errors"
	"fmt"
)

// Fetch failure causes.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrResponseTooLarge     = errors.New("response exceeds size limit")
	ErrInvalidUTF8          = errors.New("invalid UTF-8")
	ErrEmptyTable           = errors.New("no header row")
	ErrTooManyFields        = errors.New("record has more fields than the header")
)

// FetchError reports a network, HTTP or source read failure.
type FetchError struct {
	Err        error
	Source     string
	StatusCode int
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Source, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// DecodeError reports bytes that are not valid UTF-8 text.
type DecodeError struct {
	Err    error
	Offset int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode: byte offset %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ParseError reports malformed delimited text.
type ParseError struct {
	Err  error
	Line int
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse: line %d: %v", e.Line, e.Err)
	}

	return fmt.Sprintf("parse: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
