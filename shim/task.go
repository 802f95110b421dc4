package shim

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"syscall"
	"time"

	taskAPI "github.com/containerd/containerd/api/runtime/task/v2"
	tasktypes "github.com/containerd/containerd/api/types/task"
	"github.com/containerd/containerd/protobuf"
	ptypes "github.com/containerd/containerd/v2/pkg/protobuf/types"
	"github.com/containerd/containerd/v2/pkg/shim"
	"github.com/containerd/containerd/v2/pkg/shutdown"
	"github.com/containerd/errdefs"
	"github.com/containerd/fifo"
	"github.com/containerd/log"
	"github.com/containerd/ttrpc"
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/Tom-the-Bomb/brainfuck-go/bf"
)

// task is one brainfuck program running inside the shim process.
type task struct {
	program *bf.Program

	// runCtx is cancelled by Kill; done is cancelled by the run goroutine
	// when the task has finished and its exit fields are valid.
	runCtx   context.Context
	cancel   context.CancelFunc
	done     context.Context
	markDone context.CancelFunc

	started    bool
	exitStatus int
	exitTime   time.Time

	stdin  string
	stdout string

	in     io.ReadCloser
	out    io.WriteCloser
	errOut io.WriteCloser
}

func (t *task) String() string {
	if t.done.Err() != nil {
		return fmt.Sprintf("exitTime:%s, exitStatus:%d", t.exitTime.Format(time.RFC3339), t.exitStatus)
	}
	if t.started {
		return "running"
	}
	return "created"
}

func (t *task) closeIO() {
	t.in.Close()
	t.out.Close()
	t.errOut.Close()
}

type bfTaskService struct {
	mu       sync.RWMutex
	tasks    map[string]*task
	shutdown shutdown.Service
}

func newTaskService(ctx context.Context, sd shutdown.Service) (taskAPI.TaskService, error) {
	return &bfTaskService{
		tasks:    make(map[string]*task, 1),
		shutdown: sd,
	}, nil
}

// RegisterTTRPC allows TTRPC services to be registered with the underlying server
func (s *bfTaskService) RegisterTTRPC(server *ttrpc.Server) error {
	taskAPI.RegisterTaskService(server, s)
	return nil
}

var (
	_ = shim.TTRPCService(&bfTaskService{})
)

func (s *bfTaskService) grabDone(id string) (context.Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task not created: %w", errdefs.ErrNotFound)
	}
	return t.done, nil
}

// openWriteFifo validates that path is a fifo and opens it for writing.
func openWriteFifo(ctx context.Context, path string) (io.WriteCloser, error) {
	ok, err := fifo.IsFifo(path)
	if err != nil {
		return nil, fmt.Errorf("checking whether file %s is a fifo: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("file %s is not a fifo", path)
	}
	w, err := fifo.OpenFifo(ctx, path, syscall.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("opening write only fifo %s: %w", path, err)
	}
	return w, nil
}

func openReadFifo(ctx context.Context, path string) (io.ReadCloser, error) {
	ok, err := fifo.IsFifo(path)
	if err != nil {
		return nil, fmt.Errorf("checking whether file %s is a fifo: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("file %s is not a fifo", path)
	}
	r, err := fifo.OpenFifo(ctx, path, syscall.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("opening read only fifo %s: %w", path, err)
	}
	return r, nil
}

// Create a new container. The bundle's entrypoint is loaded and parsed
// here, so a malformed program fails the task before it ever starts.
func (s *bfTaskService) Create(ctx context.Context, r *taskAPI.CreateTaskRequest) (_ *taskAPI.CreateTaskResponse, retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[r.ID]; ok {
		return nil, errdefs.ErrAlreadyExists
	}

	config, err := ReadConfig(r.Bundle)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	source, err := os.ReadFile(config.ScriptPath())
	if err != nil {
		return nil, fmt.Errorf("reading script %s: %w", config.Entrypoint, err)
	}

	program, err := bf.Parse(string(source))
	if err != nil {
		return nil, errdefs.ErrInvalidArgument.WithMessage(fmt.Sprintf("parsing %s: %v", config.Entrypoint, err))
	}

	in, err := openReadFifo(ctx, r.Stdin)
	if err != nil {
		return nil, err
	}

	out, err := openWriteFifo(ctx, r.Stdout)
	if err != nil {
		in.Close()
		return nil, err
	}

	stderr := r.Stderr
	if stderr == "" {
		stderr = r.Stdout
	}
	errOut, err := openWriteFifo(ctx, stderr)
	if err != nil {
		in.Close()
		out.Close()
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	done, markDone := context.WithCancel(context.Background())

	s.tasks[r.ID] = &task{
		program:  program,
		runCtx:   runCtx,
		cancel:   cancel,
		done:     done,
		markDone: markDone,
		stdin:    r.Stdin,
		stdout:   r.Stdout,
		in:       in,
		out:      out,
		errOut:   errOut,
	}

	// Tasks run in-process; the task pid is the shim pid.
	return &taskAPI.CreateTaskResponse{
		Pid: uint32(os.Getpid()),
	}, nil
}

// Start the primary user process inside the container
func (s *bfTaskService) Start(ctx context.Context, r *taskAPI.StartRequest) (*taskAPI.StartResponse, error) {
	log.G(ctx).Debug("start (service)")

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[r.ID]
	if !ok {
		return nil, fmt.Errorf("task not created: %w", errdefs.ErrNotFound)
	}
	if t.started {
		return nil, errdefs.ErrFailedPrecondition.WithMessage(fmt.Sprintf("task %s already started", r.ID))
	}
	t.started = true

	go s.runTask(r.ID, t)

	return &taskAPI.StartResponse{
		Pid: uint32(os.Getpid()),
	}, nil
}

// runTask executes the task's program to completion and records its exit
// status. Cancellation via Kill maps to 128+SIGKILL, a runtime or parse-level
// failure to exit status 1 with the error written to the task's stderr.
func (s *bfTaskService) runTask(id string, t *task) {
	// A killed task may be blocked inside a fifo read or write, which the
	// interpreter cannot interrupt on its own. Tearing the stdio down on
	// cancellation forces the pending I/O to return.
	stop := context.AfterFunc(t.runCtx, t.closeIO)

	interpreter := bf.NewInterpreter(t.program, t.in, t.out, bf.DefaultConfig())
	info, err := interpreter.RunContext(t.runCtx)

	status := 0
	switch {
	case err != nil && t.runCtx.Err() != nil:
		// Killed. The run surfaced either the cancellation itself or the
		// error from its torn-down stdio.
		status = exitCodeSignal + int(syscall.SIGKILL)
	case err != nil:
		fmt.Fprintf(t.errOut, "brainfuck: %v\n", err)
		status = 1
	default:
		log.G(t.runCtx).Debugf("task %s finished after %d steps in %s", id, info.Steps, info.Duration)
	}

	if stop() {
		t.closeIO()
	}

	s.mu.Lock()
	t.exitStatus = status
	t.exitTime = time.Now()
	t.markDone()

	allDone := true
	for _, other := range s.tasks {
		if other.done.Err() == nil {
			allDone = false
			break
		}
	}
	s.mu.Unlock()

	if allDone {
		log.G(context.Background()).Debug("all tasks exited. shutting down the shim")
		s.shutdown.Shutdown()
	}
}

// Delete a process or container
func (s *bfTaskService) Delete(ctx context.Context, r *taskAPI.DeleteRequest) (*taskAPI.DeleteResponse, error) {
	log.G(ctx).Debug("delete (service)")

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[r.ID]
	if !ok {
		return nil, fmt.Errorf("task not created: %w", errdefs.ErrNotFound)
	}

	if t.started && t.done.Err() == nil {
		return nil, errdefs.ErrFailedPrecondition.WithMessage(fmt.Sprintf("task %s is not done yet", r.ID))
	}
	if !t.started && t.done.Err() == nil {
		// Never ran; release the fifos that Create opened.
		t.closeIO()
		t.markDone()
	}
	delete(s.tasks, r.ID)

	return &taskAPI.DeleteResponse{
		Pid:        uint32(os.Getpid()),
		ExitStatus: uint32(t.exitStatus),
		ExitedAt:   protobuf.ToTimestamp(t.exitTime),
	}, nil
}

// Exec an additional process inside the container
func (s *bfTaskService) Exec(ctx context.Context, r *taskAPI.ExecProcessRequest) (*ptypes.Empty, error) {
	log.G(ctx).Debug("exec (service)")
	return nil, errdefs.ErrNotImplemented.WithMessage("Exec (task)")
}

// ResizePty of a process
func (s *bfTaskService) ResizePty(ctx context.Context, r *taskAPI.ResizePtyRequest) (*ptypes.Empty, error) {
	log.G(ctx).Debug("resizepty (service)")
	return &ptypes.Empty{}, nil
}

// State returns runtime state of a process
func (s *bfTaskService) State(ctx context.Context, r *taskAPI.StateRequest) (*taskAPI.StateResponse, error) {
	log.G(ctx).Debug("state (service)")

	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[r.ID]
	if !ok {
		return nil, fmt.Errorf("task not created: %w", errdefs.ErrNotFound)
	}

	status := tasktypes.Status_CREATED
	switch {
	case t.done.Err() != nil:
		status = tasktypes.Status_STOPPED
	case t.started:
		status = tasktypes.Status_RUNNING
	}

	return &taskAPI.StateResponse{
		ID:         r.ID,
		Pid:        uint32(os.Getpid()),
		Status:     status,
		Stdout:     t.stdout,
		Stdin:      t.stdin,
		ExitStatus: uint32(t.exitStatus),
		ExitedAt:   protobuf.ToTimestamp(t.exitTime),
	}, nil
}

// Pause the container
func (s *bfTaskService) Pause(ctx context.Context, r *taskAPI.PauseRequest) (*ptypes.Empty, error) {
	log.G(ctx).Debug("pause (service)")
	return nil, errdefs.ErrNotImplemented.WithMessage("Pause (task)")
}

// Resume the container
func (s *bfTaskService) Resume(ctx context.Context, r *taskAPI.ResumeRequest) (*ptypes.Empty, error) {
	log.G(ctx).Debug("resume (service)")
	return nil, errdefs.ErrNotImplemented.WithMessage("Resume (task)")
}

// Kill a process. The run goroutine observes the cancelled context and
// winds the task down; Kill waits for that to happen.
func (s *bfTaskService) Kill(ctx context.Context, r *taskAPI.KillRequest) (*ptypes.Empty, error) {
	log.G(ctx).Debug("kill (service)")

	s.mu.Lock()
	t, ok := s.tasks[r.ID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("task not created: %w", errdefs.ErrNotFound)
	}

	if t.done.Err() != nil {
		s.mu.Unlock()
		log.G(ctx).Warnf("task already exited: %s", r.ID)
		return &ptypes.Empty{}, nil
	}

	log.G(ctx).Debugf("kill id:%s execid:%s sig:%d", r.ID, r.ExecID, r.Signal)
	t.cancel()

	if !t.started {
		// No run goroutine to observe the cancellation.
		t.closeIO()
		t.exitStatus = exitCodeSignal + int(syscall.SIGKILL)
		t.exitTime = time.Now()
		t.markDone()
		s.mu.Unlock()
		return &ptypes.Empty{}, nil
	}
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.done.Done():
	}

	return &ptypes.Empty{}, nil
}

// Pids returns all pids inside the container
func (s *bfTaskService) Pids(ctx context.Context, r *taskAPI.PidsRequest) (*taskAPI.PidsResponse, error) {
	log.G(ctx).Debug("pids (service)")
	return nil, errdefs.ErrNotImplemented.WithMessage("Pids (task)")
}

// CloseIO of a process
func (s *bfTaskService) CloseIO(ctx context.Context, r *taskAPI.CloseIORequest) (*ptypes.Empty, error) {
	log.G(ctx).Debug("closeio (service)")
	return nil, errdefs.ErrNotImplemented.WithMessage("CloseIO (task)")
}

// Checkpoint the container
func (s *bfTaskService) Checkpoint(ctx context.Context, r *taskAPI.CheckpointTaskRequest) (*ptypes.Empty, error) {
	log.G(ctx).Debug("checkpoint (service)")
	return nil, errdefs.ErrNotImplemented.WithMessage("Checkpoint (task)")
}

// Connect returns shim information of the underlying service
func (s *bfTaskService) Connect(ctx context.Context, r *taskAPI.ConnectRequest) (*taskAPI.ConnectResponse, error) {
	log.G(ctx).Debug("connect (service)")

	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.tasks[r.ID]; !ok {
		return nil, fmt.Errorf("task not created: %w", errdefs.ErrNotFound)
	}

	return &taskAPI.ConnectResponse{
		ShimPid: uint32(os.Getpid()),
		TaskPid: uint32(os.Getpid()),
	}, nil
}

// Shutdown is called after the underlying resources of the shim are cleaned up and the service can be stopped
func (s *bfTaskService) Shutdown(ctx context.Context, r *taskAPI.ShutdownRequest) (*ptypes.Empty, error) {
	log.G(ctx).Debug("shutdown (service)")

	s.shutdown.Shutdown()
	return &ptypes.Empty{}, nil
}

// Stats returns container level system stats for a container and its processes
func (s *bfTaskService) Stats(ctx context.Context, r *taskAPI.StatsRequest) (*taskAPI.StatsResponse, error) {
	log.G(ctx).Debug("stats (service)")
	return &taskAPI.StatsResponse{
		Stats: &anypb.Any{},
	}, nil
}

// Update the live container
func (s *bfTaskService) Update(ctx context.Context, r *taskAPI.UpdateTaskRequest) (*ptypes.Empty, error) {
	log.G(ctx).Debug("update (service)")
	return nil, errdefs.ErrNotImplemented.WithMessage("Update (task)")
}

// Wait for a process to exit
func (s *bfTaskService) Wait(ctx context.Context, r *taskAPI.WaitRequest) (*taskAPI.WaitResponse, error) {
	log.G(ctx).Debug("wait (service)")

	done, err := s.grabDone(r.ID)
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-done.Done():
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[r.ID]
	if !ok {
		return nil, fmt.Errorf("task was removed: %w", errdefs.ErrNotFound)
	}

	return &taskAPI.WaitResponse{
		ExitStatus: uint32(t.exitStatus),
		ExitedAt:   protobuf.ToTimestamp(t.exitTime),
	}, nil
}
