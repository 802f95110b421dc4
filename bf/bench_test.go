package bf_test

import (
	"io"
	"strings"
	"testing"

	"github.com/Tom-the-Bomb/brainfuck-go/bf"
)

func BenchmarkHelloWorld(b *testing.B) {
	program := bf.MustParse(helloWorld)
	interpreter := bf.NewInterpreter(program, nil, io.Discard, bf.DefaultConfig())
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		interpreter.Reset()
		if _, err := interpreter.Run(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkInput(b *testing.B) {
	program := bf.MustParse(",+>,++>,+>,++>,+>")
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		interpreter := bf.NewInterpreter(program, strings.NewReader("12345"), io.Discard, bf.DefaultConfig())
		if _, err := interpreter.Run(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParse(b *testing.B) {
	for n := 0; n < b.N; n++ {
		if _, err := bf.Parse(helloWorld); err != nil {
			b.Fatal(err)
		}
	}
}
