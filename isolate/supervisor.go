package isolate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/criyle/go-evalfork/pkg/cancel"
	"github.com/criyle/go-evalfork/pkg/datachannel"
	"github.com/criyle/go-evalfork/pkg/pipe"
	"github.com/criyle/go-evalfork/runner"
)

// Supervisor runs computations in child processes. The zero value runs
// without timeout and discards the child's output. A Supervisor may be used
// by several goroutines at once, each Run owns its own child.
type Supervisor struct {
	// Timeout is the wall clock limit of the child, 0 means no limit
	Timeout time.Duration

	// Stdout and Stderr receive the child's output in order as it arrives.
	// The slice is only valid during the call. nil discards.
	Stdout pipe.Sink
	Stderr pipe.Sink

	// Cancel is polled by the supervisor loop, ctx of Run is checked too
	Cancel cancel.Source

	// ForceKill sends SIGKILL from the first escalation step instead of
	// SIGINT then SIGTERM
	ForceKill bool

	// Setup is applied by the child before the computation runs
	Setup *Setup

	// ExecFile is the executable that calls Init, default is the current
	// executable (/proc/self/exe on linux)
	ExecFile string

	// Env is the environment of the child, default is os.Environ()
	Env []string

	// Logger receives debug events of the loop and warnings, default is
	// slog.Default()
	Logger *slog.Logger
}

// child is one spawned child process and the parent ends of its pipes
type child struct {
	cmd *exec.Cmd
	pid int

	results int
	stdout  *pipe.Relay
	stderr  *pipe.Relay

	// requestDone receives the result of writing the request
	requestDone chan error
}

// Run evaluates the computation registered as name with arg in a new child
// process and waits for its value. The child and its process group are
// killed and reaped before Run returns.
//
// The error is nil or a *Fault. On success the encoded value is in
// Result.Value, use Result.Decode or Evaluate to decode it.
func (s *Supervisor) Run(ctx context.Context, name string, arg any) (runner.Result, error) {
	setupStart := time.Now()
	logger := s.logger().With("computation", name)

	if s.ExecFile == "" {
		if _, ok := lookup(name); !ok {
			return setupFault(setupStart, fmt.Errorf("computation %q is not registered", name))
		}
	}
	rawArg, err := datachannel.Marshal(arg)
	if err != nil {
		return setupFault(setupStart, fmt.Errorf("encode argument: %w", err))
	}
	if err := s.Setup.validate(); err != nil {
		return setupFault(setupStart, fmt.Errorf("setup: %w", err))
	}

	// the parent death signal is sent when the spawning thread exits, keep
	// the thread until the child is reaped
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	req := &request{
		Version: execVersion,
		Name:    name,
		Arg:     rawArg,
		Setup:   s.Setup,
		Parent:  os.Getpid(),
	}
	c, err := s.start(req)
	if err != nil {
		return setupFault(setupStart, err)
	}
	logger.Debug("child started", "pid", c.pid)

	return s.supervise(ctx, c, setupStart, logger)
}

// start creates the pipes and spawns the child. On error no process exists
// and every fd is closed.
func (s *Supervisor) start(req *request) (*child, error) {
	execFile := s.ExecFile
	if execFile == "" {
		var err error
		if execFile, err = currentExec(); err != nil {
			return nil, fmt.Errorf("locate executable: %w", err)
		}
	}

	var (
		results, stdout, stderr, reqPipe pipe.Pipe
		pipes                            = []*pipe.Pipe{&results, &stdout, &stderr, &reqPipe}
		err                              error
	)
	closeAll := func() {
		for _, p := range pipes {
			p.Close()
		}
	}
	for _, p := range pipes {
		if *p, err = pipe.New(); err != nil {
			closeAll()
			return nil, fmt.Errorf("create pipes: %w", err)
		}
	}

	// the child ends are owned by the files from here on
	childFiles := []*os.File{
		takeFile(&reqPipe.R, "request"),
		takeFile(&results.W, "results"),
		takeFile(&stdout.W, "stdout"),
		takeFile(&stderr.W, "stderr"),
	}
	defer func() {
		for _, f := range childFiles {
			f.Close()
		}
	}()

	cmd := &exec.Cmd{
		Path:        execFile,
		Args:        []string{os.Args[0], initArg},
		Env:         childEnv(s.Env),
		Stdout:      childFiles[2],
		Stderr:      childFiles[3],
		ExtraFiles:  childFiles[:2],
		SysProcAttr: sysProcAttr(),
	}
	if err := cmd.Start(); err != nil {
		closeAll()
		return nil, fmt.Errorf("start child: %w", err)
	}

	c := &child{
		cmd:         cmd,
		pid:         cmd.Process.Pid,
		results:     results.R,
		stdout:      pipe.NewRelay(stdout.R, s.Stdout),
		stderr:      pipe.NewRelay(stderr.R, s.Stderr),
		requestDone: make(chan error, 1),
	}
	for _, fd := range []int{c.results, stdout.R, stderr.R} {
		if err := pipe.SetNonblock(fd); err != nil {
			s.logger().Warn("set nonblock", "error", err)
		}
	}

	// the request is written concurrently so a child that never reads it
	// cannot block the loop, the write fails with EPIPE once the child is gone
	reqW := reqPipe.W
	go func() {
		err := datachannel.Encode(datachannel.FdWriter{Fd: reqW}, req)
		reqPipe.CloseWrite()
		c.requestDone <- err
	}()
	return c, nil
}

// takeFile moves the ownership of fd to a new os.File
func takeFile(fd *int, name string) *os.File {
	f := os.NewFile(uintptr(*fd), name)
	*fd = -1
	return f
}

func childEnv(env []string) []string {
	if env == nil {
		env = os.Environ()
	}
	ret := make([]string, 0, len(env)+1)
	for _, e := range env {
		if !strings.HasPrefix(e, versionEnv+"=") {
			ret = append(ret, e)
		}
	}
	return append(ret, versionEnv+"="+execVersion)
}

func (s *Supervisor) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func setupFault(start time.Time, err error) (runner.Result, error) {
	return runner.Result{
			Status:    runner.StatusRunnerError,
			Error:     err.Error(),
			SetUpTime: time.Since(start),
		}, &Fault{
			Status:  runner.StatusRunnerError,
			Message: err.Error(),
			Err:     err,
		}
}

// Evaluate runs the computation with s and decodes its value as T. A nil s
// uses the zero Supervisor.
func Evaluate[T any](ctx context.Context, s *Supervisor, name string, arg any) (T, error) {
	var v T
	if s == nil {
		s = new(Supervisor)
	}
	res, err := s.Run(ctx, name, arg)
	if err != nil {
		return v, err
	}
	if err := res.Decode(&v); err != nil {
		return v, fmt.Errorf("isolate: decode %s value: %w", name, err)
	}
	return v, nil
}

// IsFault reports whether err is a Fault of the given status
func IsFault(err error, status runner.Status) bool {
	var f *Fault
	return errors.As(err, &f) && f.Status == status
}
