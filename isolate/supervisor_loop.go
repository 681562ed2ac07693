package isolate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"syscall"
	"time"

	"github.com/criyle/go-evalfork/pkg/cancel"
	"github.com/criyle/go-evalfork/pkg/datachannel"
	"github.com/criyle/go-evalfork/pkg/identity"
	"github.com/criyle/go-evalfork/runner"
	"golang.org/x/sys/unix"
)

// state is owned by the supervisor loop
type state struct {
	start     time.Time
	elapsed   time.Duration
	killCount int
	timedOut  bool
}

// outcome is what the results pipe delivered
type outcome struct {
	gotStatus bool
	status    uint32
	value     datachannel.RawValue
	message   string
	hasMsg    bool
	decodeErr error
}

func (s *Supervisor) supervise(ctx context.Context, c *child, setupStart time.Time, logger *slog.Logger) (runner.Result, error) {
	st := &state{start: time.Now()}
	setupTime := st.start.Sub(setupStart)
	abort := cancel.Sticky(cancel.Any(s.Cancel, cancel.Context(ctx)))

	ready, loopErr := s.watch(c, st, abort, logger)

	// deliver what is left in the output pipes, nothing more is waited for
	c.drain(logger)
	c.stdout.Close()
	c.stderr.Close()

	var out outcome
	if ready && loopErr == nil {
		// the child may stall after the status word, give up on the value
		// when the caller aborts or the time limit is exceeded by a grace
		interrupt := cancel.Any(abort, cancel.Func(func() bool {
			return s.Timeout > 0 && time.Since(st.start) > s.Timeout+escalationWait
		}))
		out = readOutcome(datachannel.FdReader{Fd: c.results, Interrupt: interrupt}, logger)
		if out.gotStatus && st.killCount == 0 {
			c.awaitExit(logger)
		}
	}

	c.cleanup(logger)
	st.elapsed = time.Since(st.start)

	res := runner.Result{
		Escalations: st.killCount,
		SetUpTime:   setupTime,
		RunningTime: st.elapsed,
	}
	var sig syscall.Signal
	if ps := c.cmd.ProcessState; ps != nil {
		if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			sig = ws.Signal()
			res.ExitStatus = int(sig)
		} else {
			res.ExitStatus = ps.ExitCode()
		}
	}

	if out.gotStatus && out.status == datachannel.StatusOK && out.decodeErr == nil {
		res.Status = runner.StatusNormal
		res.Value = out.value
		logger.Debug("child finished", "pid", c.pid, "result", res)
		return res, nil
	}

	fault := &Fault{Timeout: s.Timeout, Elapsed: st.elapsed}
	switch {
	case loopErr != nil:
		fault.Status = runner.StatusRunnerError
		fault.Message = loopErr.Error()
		fault.Err = loopErr

	case st.killCount > 0 && st.timedOut:
		fault.Status = runner.StatusTimeLimitExceeded

	case st.killCount > 0:
		fault.Status = runner.StatusCancelled

	case out.hasMsg:
		fault.Status = runner.StatusChildError
		fault.Message = out.message

	default:
		fault.Status = runner.StatusChildDied
		fault.Signal = sig
		fault.Err = out.decodeErr
	}
	res.Status = fault.Status
	res.Error = fault.Error()
	logger.Debug("child failed", "pid", c.pid, "result", res)
	return res, fault
}

// watch runs until the results pipe is readable or hung up. Output is
// relayed while waiting. Once the timeout elapsed or the caller aborted,
// every iteration sends the next signal of the ladder instead.
func (s *Supervisor) watch(c *child, st *state, abort cancel.Source, logger *slog.Logger) (bool, error) {
	for {
		if st.timedOut || abort.Requested() {
			sig := s.escalation(st.killCount)
			logger.Debug("terminating child", "pid", c.pid, "signal", sig, "escalation", st.killCount, "elapsed", st.elapsed)
			if err := identity.KillGroup(c.pid, sig); err != nil {
				logger.Warn("kill child", "pid", c.pid, "error", err)
			}
			st.killCount++

			ready, err := c.poll(escalationWait, false)
			c.drain(logger)
			if err != nil || ready {
				return ready, err
			}
			continue
		}

		ready, err := c.poll(pollWait, true)
		if err != nil {
			return false, err
		}
		c.drain(logger)
		if ready {
			return true, nil
		}
		st.elapsed = time.Since(st.start)
		st.timedOut = s.Timeout > 0 && st.elapsed > s.Timeout
	}
}

// escalation returns the signal of the n-th termination step
func (s *Supervisor) escalation(n int) syscall.Signal {
	switch {
	case s.ForceKill:
		return syscall.SIGKILL
	case n == 0:
		return syscall.SIGINT
	case n == 1:
		return syscall.SIGTERM
	}
	return syscall.SIGKILL
}

// poll waits up to d and reports whether the results pipe is readable.
// With output it also wakes up for output on the pipes still open.
func (c *child) poll(d time.Duration, output bool) (bool, error) {
	fds := []unix.PollFd{
		{Fd: int32(c.results), Events: unix.POLLIN},
		{Fd: -1},
		{Fd: -1},
	}
	if output {
		if !c.stdout.Closed() {
			fds[1] = unix.PollFd{Fd: int32(c.stdout.Fd), Events: unix.POLLIN}
		}
		if !c.stderr.Closed() {
			fds[2] = unix.PollFd{Fd: int32(c.stderr.Fd), Events: unix.POLLIN}
		}
	}
	_, err := unix.Poll(fds, int(d/time.Millisecond))
	if err == unix.EINTR {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("poll on results pipe: %w", err)
	}
	return fds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0, nil
}

func (c *child) drain(logger *slog.Logger) {
	if _, err := c.stdout.Drain(); err != nil {
		logger.Warn("relay stdout", "error", err)
	}
	if _, err := c.stderr.Drain(); err != nil {
		logger.Warn("relay stderr", "error", err)
	}
}

// awaitExit waits for the child to close its end of the results pipe, which
// happens when it exits after reporting
func (c *child) awaitExit(logger *slog.Logger) {
	deadline := time.Now().Add(exitWait)
	for {
		left := time.Until(deadline)
		if left <= 0 {
			logger.Debug("child did not exit after reporting", "pid", c.pid)
			return
		}
		fds := []unix.PollFd{{Fd: int32(c.results), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, int(left/time.Millisecond)+1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}
		if fds[0].Revents&(unix.POLLHUP|unix.POLLERR) != 0 {
			return
		}
		// unexpected trailing bytes, discard them and keep waiting
		var buf [512]byte
		if k, err := unix.Read(c.results, buf[:]); k <= 0 && err != unix.EAGAIN && err != unix.EINTR {
			return
		}
	}
}

// cleanup closes the results pipe, kills the whole process group and reaps
// the child, whatever state the child is in
func (c *child) cleanup(logger *slog.Logger) {
	if err := unix.Close(c.results); err != nil {
		logger.Warn("close results", "error", err)
	}
	c.results = -1
	if err := identity.KillGroup(c.pid, syscall.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		logger.Warn("kill process group", "pid", c.pid, "error", err)
	}
	// exit errors are reported through ProcessState
	c.cmd.Wait()
	if err := <-c.requestDone; err != nil {
		logger.Debug("write request", "error", err)
	}
}

func readOutcome(r io.Reader, logger *slog.Logger) outcome {
	var out outcome
	st, err := datachannel.ReadStatus(r)
	switch {
	case err == nil:
		out.gotStatus = true
		out.status = st
	case errors.Is(err, io.EOF):
		// closed without status
		return out
	default:
		logger.Debug("read status", "error", err)
		return out
	}

	if st == datachannel.StatusOK {
		var v datachannel.RawValue
		if err := datachannel.Decode(r, &v); err != nil {
			out.decodeErr = err
		} else {
			out.value = v
		}
		return out
	}
	if err := datachannel.Decode(r, &out.message); err != nil {
		logger.Debug("read error message", "error", err)
	} else {
		out.hasMsg = true
	}
	return out
}
