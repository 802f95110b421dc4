package bf

// EOFPolicy selects what an Input command does once the input source is
// exhausted.
type EOFPolicy int

const (
	// EOFZero sets the current cell to 0. This is the default, matching the
	// most common brainfuck convention.
	EOFZero EOFPolicy = iota
	// EOFUnchanged leaves the current cell as it was.
	EOFUnchanged
	// EOFError fails the run with ErrInputExhausted.
	EOFError
)

func (p EOFPolicy) String() string {
	switch p {
	case EOFZero:
		return "zero"
	case EOFUnchanged:
		return "unchanged"
	case EOFError:
		return "error"
	default:
		return "unknown"
	}
}

// DefaultTapeLength is the initial number of tape cells.
const DefaultTapeLength = 30_000

// Config holds the run-time options of an interpreter. It is read once at
// construction and never mutated afterwards; the zero value of each field
// other than TapeLength, AllowGrowth and WrapCells matches the default.
type Config struct {
	// TapeLength is the initial cell count. Zero or negative means
	// DefaultTapeLength.
	TapeLength int
	// AllowGrowth extends the tape with zeroed cells when the data pointer
	// moves past the end. When false, doing so is a fatal ErrTapeOverflow.
	AllowGrowth bool
	// WrapCells makes cell arithmetic wrap mod 256. When false,
	// incrementing 255 or decrementing 0 is a fatal ErrCellOverflow.
	WrapCells bool
	// MaxSteps caps the total number of commands dispatched in one run.
	// Zero means no limit. Recommended when running untrusted programs,
	// since brainfuck loops trivially forever.
	MaxSteps int
	// EOFPolicy selects the Input behavior past end of input.
	EOFPolicy EOFPolicy
}

// DefaultConfig returns the documented defaults: a 30,000 cell growable
// tape, wrapping cells, no step limit, and EOF reads setting the cell to 0.
func DefaultConfig() Config {
	return Config{
		TapeLength:  DefaultTapeLength,
		AllowGrowth: true,
		WrapCells:   true,
		MaxSteps:    0,
		EOFPolicy:   EOFZero,
	}
}
