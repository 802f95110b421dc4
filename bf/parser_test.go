package bf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tom-the-Bomb/brainfuck-go/bf"
)

func TestParse_StripsComments(t *testing.T) {
	program, err := bf.Parse("a + b [ c - d ] e . f")
	require.NoError(t, err)
	assert.Equal(t, "+[-].", program.String())
	assert.Equal(t, []bf.Command{
		bf.Increment,
		bf.LoopStart,
		bf.Decrement,
		bf.LoopEnd,
		bf.Output,
	}, program.Commands())
}

func TestParse_Empty(t *testing.T) {
	program, err := bf.Parse("")
	require.NoError(t, err)
	assert.Equal(t, 0, program.Len())
}

func TestParse_Balanced(t *testing.T) {
	for _, source := range []string{
		"[]",
		"[[]]",
		"[[][]]",
		"+[->[.]<]",
		"++++++++[>++++[>++>+++>+++>+<<<<-]>+>+>->>+[<]<-]",
	} {
		_, err := bf.Parse(source)
		assert.NoError(t, err, "source %q", source)
	}
}

func TestParse_UnmatchedOpen(t *testing.T) {
	_, err := bf.Parse("++[->+<")
	require.ErrorIs(t, err, bf.ErrUnmatchedOpen)

	var parseErr *bf.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 2, parseErr.Pos)
}

func TestParse_UnmatchedOpen_EarliestReported(t *testing.T) {
	// Both brackets are unmatched; the earliest one is the one reported.
	_, err := bf.Parse("[+[")
	var parseErr *bf.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 0, parseErr.Pos)
}

func TestParse_UnmatchedClose(t *testing.T) {
	_, err := bf.Parse("++]--")
	require.ErrorIs(t, err, bf.ErrUnmatchedClose)

	var parseErr *bf.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 2, parseErr.Pos)
}

func TestParse_PositionIsSourceOffset(t *testing.T) {
	// The reported offset points into the raw text, comments included.
	_, err := bf.Parse("comment ] more")
	var parseErr *bf.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 8, parseErr.Pos)
}

func TestParse_JumpTablePairing(t *testing.T) {
	// Index:         0123456
	program := bf.MustParse("+[[][]]")
	assert.Equal(t, -1, program.Match(0))
	assert.Equal(t, 6, program.Match(1))
	assert.Equal(t, 3, program.Match(2))
	assert.Equal(t, 2, program.Match(3))
	assert.Equal(t, 5, program.Match(4))
	assert.Equal(t, 4, program.Match(5))
	assert.Equal(t, 1, program.Match(6))

	assert.Equal(t, -1, program.Match(-1))
	assert.Equal(t, -1, program.Match(7))
}

func TestMustParse_PanicsOnMalformed(t *testing.T) {
	assert.Panics(t, func() {
		bf.MustParse("[")
	})
}
