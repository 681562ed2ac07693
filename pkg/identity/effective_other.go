//go:build unix && !linux

package identity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// SetEUID sets the effective user id
func SetEUID(uid int) error {
	if err := unix.Seteuid(uid); err != nil {
		return fmt.Errorf("identity: seteuid(%d): %w", uid, err)
	}
	return nil
}

// SetEGID sets the effective group id
func SetEGID(gid int) error {
	if err := unix.Setegid(gid); err != nil {
		return fmt.Errorf("identity: setegid(%d): %w", gid, err)
	}
	return nil
}
