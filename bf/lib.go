// Package bf is a brainfuck interpreter: a parser that validates bracket
// nesting and a tape-walking execution engine with swappable input and
// output streams.
package bf

import (
	"bytes"
	"context"
	"io"
	"strings"
)

// Run parses and executes source with the default configuration, reading
// from input and writing to output.
func Run(source string, input io.Reader, output io.Writer) error {
	return RunContext(context.Background(), source, input, output)
}

// RunContext is Run with a cancellable context.
func RunContext(ctx context.Context, source string, input io.Reader, output io.Writer) error {
	program, err := Parse(source)
	if err != nil {
		return err
	}
	_, err = NewInterpreter(program, input, output, DefaultConfig()).RunContext(ctx)
	return err
}

// Execute runs source with the default configuration, feeding it input as
// the input stream, and returns the produced output bytes.
func Execute(source string, input string) ([]byte, error) {
	var out bytes.Buffer
	if err := Run(source, strings.NewReader(input), &out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
