package bf

// Command is a single brainfuck instruction. The value of a Command is the
// rune of the instruction itself, so a parsed program can be printed back
// out as valid source.
type Command rune

const (
	Increment Command = '+'
	Decrement Command = '-'
	Left      Command = '<'
	Right     Command = '>'
	Output    Command = '.'
	Input     Command = ','
	LoopStart Command = '['
	LoopEnd   Command = ']'
	Ignore    Command = ' '
)

func parseRune(c rune) Command {
	switch c {
	case '+', '-', '<', '>', '.', ',', '[', ']':
		return Command(c)
	default:
		return Ignore
	}
}

func (c Command) String() string {
	if parseRune(rune(c)) == Ignore {
		return " "
	}
	return string(rune(c))
}

// Strip removes every character that is not one of the eight brainfuck
// instructions. Everything else is a comment.
func Strip(source string) string {
	var result []rune
	for _, c := range source {
		if parseRune(c) != Ignore {
			result = append(result, c)
		}
	}
	return string(result)
}

// lex filters source down to its commands, keeping the byte offset of each
// command in the original text for error reporting.
func lex(source string) (commands []Command, offsets []int) {
	for i, c := range source {
		cmd := parseRune(c)
		if cmd != Ignore {
			commands = append(commands, cmd)
			offsets = append(offsets, i)
		}
	}
	return commands, offsets
}
