//go:build unix && !linux

package isolate

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

const parentPollInterval = 100 * time.Millisecond

// watchParent exits once the child is reparented
func watchParent(parent int) {
	go func() {
		for range time.Tick(parentPollInterval) {
			if unix.Getppid() != parent {
				os.Exit(exitProtocol)
			}
		}
	}()
}

func closeOnExecAllFds() error {
	unix.CloseOnExec(requestFd)
	unix.CloseOnExec(resultsFd)
	return nil
}
