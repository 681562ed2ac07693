package isolate

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/criyle/go-evalfork/pkg/datachannel"
	"github.com/criyle/go-evalfork/pkg/identity"
)

// Init is called first in main (or TestMain). In the re-executed child it
// runs the requested computation and exits, otherwise it is noop.
func Init() {
	if len(os.Args) < 2 || os.Args[1] != initArg {
		return
	}
	ver, ok := os.LookupEnv(versionEnv)
	if !ok {
		return
	}
	if ver != execVersion {
		fmt.Fprintf(os.Stderr, "evalfork_child: unsupported exec version %q\n", ver)
		os.Exit(exitProtocol)
	}
	os.Unsetenv(versionEnv)
	os.Exit(runChild())
}

func runChild() int {
	parent := identity.PPid()
	watchParent(parent)

	// nothing the computation starts may hold the results pipe open
	if err := closeOnExecAllFds(); err != nil {
		fmt.Fprintf(os.Stderr, "evalfork_child: failed to close_on_exec all fd %v\n", err)
	}

	req, err := readRequest(requestFd)
	if err != nil {
		return report(nil, err)
	}
	if req.Parent != parent {
		// reparented before the death watch was armed
		fmt.Fprintf(os.Stderr, "evalfork_child: parent %d gone\n", req.Parent)
		return exitProtocol
	}
	if pgid, err := identity.Pgid(0); err == nil && pgid != identity.Pid() {
		if err := identity.SetPgid(0, 0); err != nil {
			return report(nil, err)
		}
	}
	if err := req.Setup.apply(); err != nil {
		return report(nil, fmt.Errorf("setup: %w", err))
	}

	fn, ok := lookup(req.Name)
	if !ok {
		return report(nil, fmt.Errorf("computation %q is not registered", req.Name))
	}
	call := &Call{
		Name:   req.Name,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		arg:    req.Arg,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	v, err := invoke(ctx, fn, call)
	stop()
	return report(v, err)
}

func invoke(ctx context.Context, fn Computation, call *Call) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, call)
}

// report writes the status word then the value or the error message. It
// returns the exit code of the child.
func report(v any, err error) int {
	w := datachannel.FdWriter{Fd: resultsFd}
	if err == nil {
		raw, merr := datachannel.Marshal(v)
		if merr == nil {
			if datachannel.WriteStatus(w, datachannel.StatusOK) != nil {
				return exitFailed
			}
			if err := datachannel.Encode(w, raw); err != nil {
				fmt.Fprintf(os.Stderr, "evalfork_child: %v\n", err)
				return exitFailed
			}
			return exitOK
		}
		err = fmt.Errorf("encode value: %w", merr)
	}

	if datachannel.WriteStatus(w, datachannel.StatusFailed) != nil {
		return exitFailed
	}
	if err := datachannel.Encode(w, err.Error()); err != nil {
		fmt.Fprintf(os.Stderr, "evalfork_child: %v\n", err)
	}
	return exitFailed
}
