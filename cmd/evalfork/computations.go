package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sys/unix"

	"github.com/criyle/go-evalfork/isolate"
	"github.com/criyle/go-evalfork/pkg/identity"
)

// built-in computations, registered before main calls isolate.Init
func init() {
	isolate.Register("echo", echo)
	isolate.Register("sleep", sleep)
	isolate.Register("fail", fail)
	isolate.Register("crash", crash)
	isolate.RegisterFunc("spawn", spawn)
	isolate.Register("whoami", whoami)
}

// echo returns its argument
func echo(ctx context.Context, call *isolate.Call) (any, error) {
	var v any
	if err := call.Arg(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// sleep waits for a duration ("1.5s") or a number of seconds, returning
// early when interrupted
func sleep(ctx context.Context, call *isolate.Call) (any, error) {
	var v any
	if err := call.Arg(&v); err != nil {
		return nil, err
	}
	var d time.Duration
	switch t := v.(type) {
	case string:
		var err error
		if d, err = time.ParseDuration(t); err != nil {
			return nil, err
		}
	case uint64:
		d = time.Duration(t) * time.Second
	case int64:
		d = time.Duration(t) * time.Second
	case float64:
		d = time.Duration(t * float64(time.Second))
	default:
		return nil, fmt.Errorf("sleep: invalid duration %v", v)
	}

	fmt.Fprintf(call.Stdout, "sleeping %v\n", d)
	select {
	case <-ctx.Done():
		fmt.Fprintln(call.Stderr, "sleep interrupted")
		return nil, ctx.Err()
	case <-time.After(d):
		return d.String(), nil
	}
}

// fail reports its argument as error
func fail(ctx context.Context, call *isolate.Call) (any, error) {
	var msg string
	if err := call.Arg(&msg); err != nil || msg == "" {
		msg = "computation failed"
	}
	return nil, errors.New(msg)
}

// crash kills the child without reporting
func crash(ctx context.Context, call *isolate.Call) (any, error) {
	fmt.Fprintln(call.Stderr, "crashing")
	return nil, identity.Kill(identity.Pid(), unix.SIGKILL)
}

// spawn runs a command in the child's process group and returns its exit
// code, its output is the child's output
func spawn(ctx context.Context, call *isolate.Call, argv []string) (int, error) {
	if len(argv) == 0 {
		return 0, errors.New("spawn: empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = call.Stdout
	cmd.Stderr = call.Stderr
	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 0, err
}

// whoami reports the identity the computation runs with
func whoami(ctx context.Context, call *isolate.Call) (any, error) {
	pgid, err := identity.Pgid(0)
	if err != nil {
		return nil, err
	}
	groups, err := unix.Getgroups()
	if err != nil {
		return nil, err
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"uid":    identity.UID(),
		"euid":   identity.EUID(),
		"gid":    identity.GID(),
		"egid":   identity.EGID(),
		"groups": groups,
		"pid":    identity.Pid(),
		"ppid":   identity.PPid(),
		"pgid":   pgid,
		"cwd":    wd,
	}, nil
}
