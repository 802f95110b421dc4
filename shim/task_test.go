package shim

import (
	"context"
	"io"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Tom-the-Bomb/brainfuck-go/bf"
)

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func newTestTask(t *testing.T, source string, in io.ReadCloser) *task {
	t.Helper()
	runCtx, cancel := context.WithCancel(context.Background())
	done, markDone := context.WithCancel(context.Background())
	return &task{
		program:  bf.MustParse(source),
		runCtx:   runCtx,
		cancel:   cancel,
		done:     done,
		markDone: markDone,
		started:  true,
		in:       in,
		out:      nopWriteCloser{io.Discard},
		errOut:   nopWriteCloser{io.Discard},
	}
}

func TestRunTask_KillUnblocksPendingInput(t *testing.T) {
	// A ',' with no writer on the other end of the stdin pipe parks the
	// run inside Read, where the interpreter cannot observe cancellation.
	// Killing the task must tear the stdio down so the run still exits.
	blockedIn, _ := io.Pipe()
	blocked := newTestTask(t, ",", blockedIn)

	// A second live task keeps the all-exited sweep from firing, so the
	// service needs no shutdown plumbing here.
	liveIn, _ := io.Pipe()
	live := newTestTask(t, ",", liveIn)
	defer live.closeIO()

	s := &bfTaskService{
		tasks: map[string]*task{"blocked": blocked, "live": live},
	}

	finished := make(chan struct{})
	go func() {
		s.runTask("blocked", blocked)
		close(finished)
	}()

	time.Sleep(50 * time.Millisecond)
	blocked.cancel()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("run goroutine still blocked after kill")
	}

	assert.Error(t, blocked.done.Err())
	assert.Equal(t, exitCodeSignal+int(syscall.SIGKILL), blocked.exitStatus)
}

func TestRunTask_CompletionIsNotReportedAsKill(t *testing.T) {
	in, _ := io.Pipe()
	short := newTestTask(t, "+-", in)

	liveIn, _ := io.Pipe()
	live := newTestTask(t, ",", liveIn)
	defer live.closeIO()

	s := &bfTaskService{
		tasks: map[string]*task{"short": short, "live": live},
	}

	finished := make(chan struct{})
	go func() {
		s.runTask("short", short)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("run goroutine did not finish")
	}

	assert.Equal(t, 0, short.exitStatus)
}
