package pipe

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// BufferSize is the read size used by Relay
const BufferSize = 64 << 10

// Relay forwards the readable content of a non-blocking pipe read end to
// a Sink. It is driven by the caller's loop, Drain never blocks.
type Relay struct {
	Fd   int
	Sink Sink

	buf    []byte
	closed bool
}

// NewRelay creates a relay for the read end fd, nil sink discards
func NewRelay(fd int, sink Sink) *Relay {
	if sink == nil {
		sink = Discard
	}
	return &Relay{Fd: fd, Sink: sink}
}

// Drain reads until the pipe would block or reaches end of file and
// forwards each non-empty read to the sink in order. It returns the
// number of bytes forwarded.
func (r *Relay) Drain() (int, error) {
	if r.closed || r.Fd < 0 {
		return 0, nil
	}
	if r.buf == nil {
		r.buf = make([]byte, BufferSize)
	}
	total := 0
	for {
		n, err := unix.Read(r.Fd, r.buf)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			return total, nil
		case err != nil:
			return total, fmt.Errorf("relay: read fd(%d): %w", r.Fd, err)
		case n == 0:
			r.closed = true
			return total, nil
		}
		total += n
		r.Sink(r.buf[:n])
	}
}

// Closed reports whether the write end was closed and fully drained
func (r *Relay) Closed() bool {
	return r.closed
}

// Close closes the read end
func (r *Relay) Close() error {
	r.closed = true
	return closeFd(&r.Fd)
}
