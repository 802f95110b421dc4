package bf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Tom-the-Bomb/brainfuck-go/bf"
)

func TestStrip(t *testing.T) {
	input := "++\n\n--<    >.,[hello sailor]"
	assert.Equal(t, "++--<>.,[]", bf.Strip(input))
}

func TestStrip_Empty(t *testing.T) {
	assert.Equal(t, "", bf.Strip(""))
	assert.Equal(t, "", bf.Strip("no instructions here at all"))
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "+", bf.Increment.String())
	assert.Equal(t, "-", bf.Decrement.String())
	assert.Equal(t, "<", bf.Left.String())
	assert.Equal(t, ">", bf.Right.String())
	assert.Equal(t, ".", bf.Output.String())
	assert.Equal(t, ",", bf.Input.String())
	assert.Equal(t, "[", bf.LoopStart.String())
	assert.Equal(t, "]", bf.LoopEnd.String())
	assert.Equal(t, " ", bf.Command('x').String())
}
