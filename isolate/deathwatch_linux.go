package isolate

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// watchParent kills the child with SIGKILL when parent exits. Pdeathsig is
// already set at spawn, it is armed again in case the executable dropped it
// (e.g. set-user-ID), then the parent is checked to close the race with an
// exit before arming.
func watchParent(parent int) {
	if err := unix.Prctl(unix.PR_SET_PDEATHSIG, uintptr(unix.SIGKILL), 0, 0, 0); err != nil {
		fmt.Fprintf(os.Stderr, "evalfork_child: prctl(PR_SET_PDEATHSIG) %v\n", err)
	}
	if unix.Getppid() != parent {
		os.Exit(exitProtocol)
	}
}

func closeOnExecAllFds() error {
	// get all fd from /proc/self/fd
	const fdPath = "/proc/self/fd"
	fds, err := os.ReadDir(fdPath)
	if err != nil {
		return err
	}
	for _, f := range fds {
		fd, err := strconv.Atoi(f.Name())
		if err != nil {
			return err
		}
		if fd > 2 {
			unix.CloseOnExec(fd)
		}
	}
	return nil
}
