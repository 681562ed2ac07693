// Package pipe provides raw close-on-exec pipes and a non-blocking relay
// that forwards whatever is readable from a pipe to a sink.
package pipe

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Pipe is a pair of raw file descriptors, R is the read end and W the
// write end. A closed end is set to -1.
type Pipe struct {
	R, W int
}

// New creates a pipe with both ends marked close_on_exec
func New() (Pipe, error) {
	var p [2]int
	if err := pipe2(p[:]); err != nil {
		return Pipe{R: -1, W: -1}, fmt.Errorf("pipe: %w", err)
	}
	return Pipe{R: p[0], W: p[1]}, nil
}

// CloseRead closes the read end if still open
func (p *Pipe) CloseRead() error {
	return closeFd(&p.R)
}

// CloseWrite closes the write end if still open
func (p *Pipe) CloseWrite() error {
	return closeFd(&p.W)
}

// Close closes both ends
func (p *Pipe) Close() error {
	err1 := p.CloseRead()
	err2 := p.CloseWrite()
	if err1 != nil {
		return err1
	}
	return err2
}

// SetNonblock marks fd as non-blocking
func SetNonblock(fd int) error {
	if err := unix.SetNonblock(fd, true); err != nil {
		return fmt.Errorf("pipe: set nonblock fd(%d): %w", fd, err)
	}
	return nil
}

func closeFd(fd *int) error {
	if *fd < 0 {
		return nil
	}
	err := unix.Close(*fd)
	*fd = -1
	return err
}
