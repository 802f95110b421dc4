package bf

// Program is an immutable parsed brainfuck program: the instruction sequence
// with every non-command character stripped, plus a jump table resolving each
// bracket to its partner so loops cost O(1) at run time.
type Program struct {
	commands []Command
	// offsets[i] is the byte offset of commands[i] in the original source.
	offsets []int
	// jumps[i] is the index of the bracket matching commands[i], or -1 for
	// commands that are not brackets.
	jumps []int
}

// Parse validates source and builds a Program from it. Characters outside
// the eight-command set are dropped. Bracket nesting is checked with an
// explicit stack, and every matched pair is recorded in the jump table.
// Unbalanced brackets fail with a *ParseError carrying the byte offset of
// the offending bracket in source.
func Parse(source string) (*Program, error) {
	commands, offsets := lex(source)

	jumps := make([]int, len(commands))
	var stack []int
	for i, c := range commands {
		switch c {
		case LoopStart:
			stack = append(stack, i)
			jumps[i] = -1 // patched when the matching ] is found
		case LoopEnd:
			if len(stack) == 0 {
				return nil, &ParseError{Pos: offsets[i], Err: ErrUnmatchedClose}
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			jumps[open] = i
			jumps[i] = open
		default:
			jumps[i] = -1
		}
	}
	if len(stack) > 0 {
		// Report the earliest bracket left open.
		return nil, &ParseError{Pos: offsets[stack[0]], Err: ErrUnmatchedOpen}
	}

	return &Program{
		commands: commands,
		offsets:  offsets,
		jumps:    jumps,
	}, nil
}

// MustParse is like Parse but panics on a malformed program. Intended for
// program literals in tests and examples.
func MustParse(source string) *Program {
	p, err := Parse(source)
	if err != nil {
		panic(err)
	}
	return p
}

// Len returns the number of commands in the program.
func (p *Program) Len() int {
	return len(p.commands)
}

// Match returns the index of the bracket matching the command at i, or -1
// when the command at i is not a bracket or i is out of range.
func (p *Program) Match(i int) int {
	if i < 0 || i >= len(p.jumps) {
		return -1
	}
	return p.jumps[i]
}

// Commands returns a copy of the program's instruction sequence.
func (p *Program) Commands() []Command {
	out := make([]Command, len(p.commands))
	copy(out, p.commands)
	return out
}

// String renders the program back out as source text.
func (p *Program) String() string {
	runes := make([]rune, len(p.commands))
	for i, c := range p.commands {
		runes[i] = rune(c)
	}
	return string(runes)
}
