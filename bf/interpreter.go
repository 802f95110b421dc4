package bf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// How many commands run between checks of ctx.Done(). Must be a power of
// two.
const contextCheckInterval = 1024

// Interpreter executes one Program over a byte tape. It owns its tape and
// pointers exclusively, so concurrent runs need one Interpreter each; a
// single Interpreter must not be shared between goroutines.
type Interpreter struct {
	program *Program
	config  Config

	pc    int
	tape  []byte
	ptr   int
	steps int

	input  io.Reader
	output io.Writer
	buf    [1]byte
}

// ExecutionInfo describes a finished run.
type ExecutionInfo struct {
	// Cells is the final tape. It aliases the interpreter's tape rather
	// than copying it.
	Cells []byte
	// Pointer is the final data pointer.
	Pointer int
	// Steps is the number of commands dispatched.
	Steps int
	// Duration is the wall time the run took.
	Duration time.Duration
}

// NewInterpreter returns an interpreter for program reading from input and
// writing to output. A nil input behaves as an exhausted source; a nil
// output discards. The zero Config is not the default config, use
// DefaultConfig.
func NewInterpreter(program *Program, input io.Reader, output io.Writer, config Config) *Interpreter {
	if config.TapeLength <= 0 {
		config.TapeLength = DefaultTapeLength
	}
	return &Interpreter{
		program: program,
		config:  config,
		tape:    make([]byte, config.TapeLength),
		input:   input,
		output:  output,
	}
}

// Reset rewinds the interpreter so the same program can be run again. The
// tape is reallocated at its configured initial length and zero-filled.
func (i *Interpreter) Reset() {
	i.pc = 0
	i.ptr = 0
	i.steps = 0
	i.tape = make([]byte, i.config.TapeLength)
}

// At returns the value of cell j, or 0 if j is out of tape bounds.
func (i *Interpreter) At(j int) byte {
	if j < 0 || j >= len(i.tape) {
		return 0
	}
	return i.tape[j]
}

// Pointer returns the current data pointer.
func (i *Interpreter) Pointer() int {
	return i.ptr
}

// Steps returns the number of commands dispatched so far.
func (i *Interpreter) Steps() int {
	return i.steps
}

// TapeLength returns the current tape length, which can exceed the
// configured initial length after growth.
func (i *Interpreter) TapeLength() int {
	return len(i.tape)
}

// Run executes the program to completion. See RunContext.
func (i *Interpreter) Run() (*ExecutionInfo, error) {
	return i.RunContext(context.Background())
}

// RunContext executes the program until it halts or a fatal condition
// occurs. It blocks for the whole run; ctx is checked periodically so a
// caller can cancel a runaway program. Failures are reported as a
// *RuntimeError, except cancellation which surfaces as ctx.Err().
func (i *Interpreter) RunContext(ctx context.Context) (*ExecutionInfo, error) {
	start := time.Now()

	for i.pc < len(i.program.commands) {
		if i.steps&(contextCheckInterval-1) == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}
		if i.config.MaxSteps > 0 && i.steps >= i.config.MaxSteps {
			return nil, i.fail(ErrStepLimit)
		}
		i.steps++

		switch i.program.commands[i.pc] {
		case Increment:
			if !i.config.WrapCells && i.tape[i.ptr] == 255 {
				return nil, i.fail(ErrCellOverflow)
			}
			i.tape[i.ptr]++
		case Decrement:
			if !i.config.WrapCells && i.tape[i.ptr] == 0 {
				return nil, i.fail(ErrCellOverflow)
			}
			i.tape[i.ptr]--
		case Right:
			i.ptr++
			if i.ptr >= len(i.tape) {
				if !i.config.AllowGrowth {
					return nil, i.fail(ErrTapeOverflow)
				}
				i.tape = append(i.tape, 0)
			}
		case Left:
			// There is no cell left of the origin. No wraparound.
			if i.ptr == 0 {
				return nil, i.fail(ErrTapeUnderflow)
			}
			i.ptr--
		case Output:
			if i.output != nil {
				i.buf[0] = i.tape[i.ptr]
				if _, err := i.output.Write(i.buf[:]); err != nil {
					return nil, i.fail(fmt.Errorf("writing output: %w", err))
				}
			}
		case Input:
			if err := i.readInput(); err != nil {
				return nil, err
			}
		case LoopStart:
			if i.tape[i.ptr] == 0 {
				i.pc = i.program.jumps[i.pc]
			}
		case LoopEnd:
			if i.tape[i.ptr] != 0 {
				i.pc = i.program.jumps[i.pc]
			}
		}
		i.pc++
	}

	return &ExecutionInfo{
		Cells:    i.tape,
		Pointer:  i.ptr,
		Steps:    i.steps,
		Duration: time.Since(start),
	}, nil
}

// readInput reads one byte into the current cell, applying the configured
// EOFPolicy once the source runs dry.
func (i *Interpreter) readInput() error {
	if i.input != nil {
		_, err := io.ReadFull(i.input, i.buf[:])
		if err == nil {
			i.tape[i.ptr] = i.buf[0]
			return nil
		}
		if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return i.fail(fmt.Errorf("reading input: %w", err))
		}
	}
	switch i.config.EOFPolicy {
	case EOFZero:
		i.tape[i.ptr] = 0
	case EOFUnchanged:
		// Keep the cell as it is.
	case EOFError:
		return i.fail(ErrInputExhausted)
	}
	return nil
}

func (i *Interpreter) fail(err error) error {
	return &RuntimeError{
		Cmd: i.program.commands[i.pc],
		Pos: i.program.offsets[i.pc],
		Ptr: i.ptr,
		Err: err,
	}
}
