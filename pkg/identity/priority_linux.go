package identity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Priority returns the nice value of the target.
// The raw syscall reports 20 - nice to keep the result positive.
func Priority(which, who int) (int, error) {
	prio, err := unix.Getpriority(which, who)
	if err != nil {
		return 0, fmt.Errorf("identity: getpriority: %w", err)
	}
	return 20 - prio, nil
}
