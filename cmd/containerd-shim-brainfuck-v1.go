// Command containerd-shim-brainfuck-v1 is a containerd runtime v2 shim
// that runs .bf bundle entrypoints through the in-process interpreter.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/containerd/containerd/v2/pkg/shim"

	bfshim "github.com/Tom-the-Bomb/brainfuck-go/shim"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shim.Run(ctx, bfshim.NewManager("io.containerd.brainfuck.v1"))
}
