//go:build unix && !linux

package pipe

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// no pipe2 here, hold the fork lock so that no child inherits the fds
// between pipe and close_on_exec
func pipe2(p []int) error {
	syscall.ForkLock.RLock()
	defer syscall.ForkLock.RUnlock()

	if err := unix.Pipe(p); err != nil {
		return err
	}
	unix.CloseOnExec(p[0])
	unix.CloseOnExec(p[1])
	return nil
}
