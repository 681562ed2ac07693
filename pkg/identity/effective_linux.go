package identity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// SetEUID sets the effective user id, real and saved ids are kept
func SetEUID(uid int) error {
	if err := unix.Setresuid(-1, uid, -1); err != nil {
		return fmt.Errorf("identity: seteuid(%d): %w", uid, err)
	}
	return nil
}

// SetEGID sets the effective group id, real and saved ids are kept
func SetEGID(gid int) error {
	if err := unix.Setresgid(-1, gid, -1); err != nil {
		return fmt.Errorf("identity: setegid(%d): %w", gid, err)
	}
	return nil
}
