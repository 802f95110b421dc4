// Command brainfuck runs a brainfuck program from a string argument or a
// source file.
//
//	brainfuck '++++++[>+++++++<-]>+++.'
//	brainfuck -file hello.bf -max-steps 1000000
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/Tom-the-Bomb/brainfuck-go/bf"
)

var (
	filename   string
	inputText  string
	outputPath string
	tapeLength int
	noGrowth   bool
	noWrap     bool
	maxSteps   int
	eofMode    string
	printCells bool
	verbose    bool
)

func init() {
	flag.StringVar(&filename, "file", "", "brainfuck source file, instead of a code argument")
	flag.StringVar(&inputText, "input", "", "input text for ',' commands, instead of stdin")
	flag.StringVar(&outputPath, "output", "", "file to write program output to, instead of stdout")
	flag.IntVar(&tapeLength, "tape-length", bf.DefaultTapeLength, "initial number of tape cells")
	flag.BoolVar(&noGrowth, "no-growth", false, "fail instead of growing the tape past its initial length")
	flag.BoolVar(&noWrap, "no-wrap", false, "fail on cell overflow instead of wrapping mod 256")
	flag.IntVar(&maxSteps, "max-steps", 0, "maximum commands to execute, 0 for no limit")
	flag.StringVar(&eofMode, "eof", "zero", "behavior of ',' past end of input: zero, unchanged or error")
	flag.BoolVar(&printCells, "print-cells", false, "print the tape after execution")
	flag.BoolVar(&verbose, "verbose", false, "log execution statistics")
}

func main() {
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if !verbose {
		logger = logger.Level(zerolog.WarnLevel)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		logger.Error().Err(err).Msg("brainfuck")
		os.Exit(1)
	}
}

func run(ctx context.Context, logger zerolog.Logger) error {
	source, err := loadSource()
	if err != nil {
		return err
	}

	program, err := bf.Parse(source)
	if err != nil {
		return err
	}
	logger.Info().Int("commands", program.Len()).Msg("parsed program")

	var input io.Reader = os.Stdin
	if inputText != "" {
		input = strings.NewReader(inputText)
	}

	var output io.Writer = os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	eof, err := parseEOFMode(eofMode)
	if err != nil {
		return err
	}

	interpreter := bf.NewInterpreter(program, input, output, bf.Config{
		TapeLength:  tapeLength,
		AllowGrowth: !noGrowth,
		WrapCells:   !noWrap,
		MaxSteps:    maxSteps,
		EOFPolicy:   eof,
	})

	info, err := interpreter.RunContext(ctx)
	if err != nil {
		return err
	}

	logger.Info().
		Int("steps", info.Steps).
		Int("pointer", info.Pointer).
		Int("tape_length", len(info.Cells)).
		Dur("duration", info.Duration).
		Msg("execution finished")

	if printCells {
		fmt.Fprintf(os.Stderr, "\ncells: %v\n", info.Cells)
	}
	return nil
}

func loadSource() (string, error) {
	if code := flag.Arg(0); code != "" {
		return code, nil
	}
	if filename == "" {
		return "", fmt.Errorf("no program: pass brainfuck code as an argument or use -file")
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("reading source file: %w", err)
	}
	return string(data), nil
}

func parseEOFMode(mode string) (bf.EOFPolicy, error) {
	switch mode {
	case "zero":
		return bf.EOFZero, nil
	case "unchanged":
		return bf.EOFUnchanged, nil
	case "error":
		return bf.EOFError, nil
	default:
		return 0, fmt.Errorf("invalid -eof mode %q: want zero, unchanged or error", mode)
	}
}
