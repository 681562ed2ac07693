package datachannel

import (
	"errors"
	"io"
	"time"

	"github.com/criyle/go-evalfork/pkg/cancel"
	"golang.org/x/sys/unix"
)

// DefaultWait is the poll interval between interrupt checks
const DefaultWait = 200 * time.Millisecond

// ErrInterrupted is returned by FdReader when its interrupt source asked
// to abort
var ErrInterrupted = errors.New("datachannel: interrupted")

// FdWriter writes to a raw file descriptor, blocking or not, until every
// byte is written
type FdWriter struct {
	Fd int
}

// Write writes all of p, retrying partial and interrupted writes
func (w FdWriter) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := unix.Write(w.Fd, p[written:])
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			if err := waitFd(w.Fd, unix.POLLOUT, -1); err != nil {
				return written, err
			}
			continue
		case err != nil:
			return written, err
		}
		written += n
	}
	return written, nil
}

// FdReader reads from a raw file descriptor. Data already available is
// always returned; when the fd would block, Interrupt is checked before
// every poll of at most Wait.
type FdReader struct {
	Fd        int
	Interrupt cancel.Source
	Wait      time.Duration
}

// Read reads available data, io.EOF when the peer closed its end
func (r FdReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	wait := r.Wait
	if wait <= 0 {
		wait = DefaultWait
	}
	for {
		ready, err := pollIn(r.Fd, 0)
		if err != nil {
			return 0, err
		}
		if !ready {
			if r.Interrupt != nil && r.Interrupt.Requested() {
				return 0, ErrInterrupted
			}
			if ready, err = pollIn(r.Fd, wait); err != nil {
				return 0, err
			}
			if !ready {
				continue
			}
		}
		n, err := unix.Read(r.Fd, p)
		switch {
		case err == unix.EINTR || err == unix.EAGAIN:
			continue
		case err != nil:
			return 0, err
		case n == 0:
			return 0, io.EOF
		}
		return n, nil
	}
}

func pollIn(fd int, wait time.Duration) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(wait/time.Millisecond))
	if err == unix.EINTR {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func waitFd(fd int, events int16, ms int) error {
	fds := []unix.PollFd{{Fd: int32(fd), Events: events}}
	for {
		_, err := unix.Poll(fds, ms)
		if err == unix.EINTR {
			continue
		}
		return err
	}
}
