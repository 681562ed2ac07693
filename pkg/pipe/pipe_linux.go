package pipe

import "golang.org/x/sys/unix"

func pipe2(p []int) error {
	return unix.Pipe2(p, unix.O_CLOEXEC)
}
