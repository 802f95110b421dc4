package bf

import (
	"errors"
	"fmt"
)

// Parse failures.
var (
	ErrUnmatchedOpen  = errors.New("unmatched opening bracket")
	ErrUnmatchedClose = errors.New("unmatched closing bracket")
)

// Runtime failures.
var (
	ErrTapeUnderflow  = errors.New("tape underflow: data pointer moved left of the origin")
	ErrTapeOverflow   = errors.New("tape overflow: tape growth is disabled")
	ErrCellOverflow   = errors.New("cell value out of range: cell wrapping is disabled")
	ErrInputExhausted = errors.New("input exhausted")
	ErrStepLimit      = errors.New("step limit exceeded")
)

// ParseError reports a malformed program. Pos is the byte offset of the
// offending bracket in the raw source text, before comment stripping.
type ParseError struct {
	Pos int
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v at offset %d", e.Err, e.Pos)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// RuntimeError reports a fatal condition during execution. Pos is the byte
// offset in the source of the command that failed, and Ptr is the data
// pointer at the time of failure. Err is one of the runtime sentinel errors,
// or a wrapped I/O error from the input source or output sink.
type RuntimeError struct {
	Cmd Command
	Pos int
	Ptr int
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%v (command %q at offset %d, cell %d)", e.Err, e.Cmd.String(), e.Pos, e.Ptr)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}
