// Package identity wraps the process identity calls made by the isolated child
// before a computation runs: chroot, uid / gid switching, process group,
// scheduling priority and signal delivery.
package identity

import (
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

// PriorityProcess and friends select the target kind of Priority / SetPriority
const (
	PriorityProcess = unix.PRIO_PROCESS
	PriorityGroup   = unix.PRIO_PGRP
	PriorityUser    = unix.PRIO_USER
)

// Chroot changes the root directory to path and moves the working directory
// inside it
func Chroot(path string) error {
	if err := unix.Chroot(path); err != nil {
		return fmt.Errorf("identity: chroot(%s): %w", path, err)
	}
	if err := unix.Chdir("/"); err != nil {
		return fmt.Errorf("identity: chdir after chroot: %w", err)
	}
	return nil
}

// Chdir changes the working directory
func Chdir(path string) error {
	if err := unix.Chdir(path); err != nil {
		return fmt.Errorf("identity: chdir(%s): %w", path, err)
	}
	return nil
}

// UID returns the real user id
func UID() int { return unix.Getuid() }

// EUID returns the effective user id
func EUID() int { return unix.Geteuid() }

// GID returns the real group id
func GID() int { return unix.Getgid() }

// EGID returns the effective group id
func EGID() int { return unix.Getegid() }

// SetUID sets the user id
func SetUID(uid int) error {
	if err := unix.Setuid(uid); err != nil {
		return fmt.Errorf("identity: setuid(%d): %w", uid, err)
	}
	return nil
}

// SetGID sets the group id
func SetGID(gid int) error {
	if err := unix.Setgid(gid); err != nil {
		return fmt.Errorf("identity: setgid(%d): %w", gid, err)
	}
	return nil
}

// SetGroups replaces the supplementary group list
func SetGroups(gids []int) error {
	if err := unix.Setgroups(gids); err != nil {
		return fmt.Errorf("identity: setgroups(%v): %w", gids, err)
	}
	return nil
}

// Pid returns the process id
func Pid() int { return unix.Getpid() }

// PPid returns the parent process id
func PPid() int { return unix.Getppid() }

// Pgid returns the process group of pid (0 for the caller)
func Pgid(pid int) (int, error) {
	pgid, err := unix.Getpgid(pid)
	if err != nil {
		return 0, fmt.Errorf("identity: getpgid(%d): %w", pid, err)
	}
	return pgid, nil
}

// SetPgid moves pid into the process group pgid
func SetPgid(pid, pgid int) error {
	if err := unix.Setpgid(pid, pgid); err != nil {
		return fmt.Errorf("identity: setpgid(%d, %d): %w", pid, pgid, err)
	}
	return nil
}

// SetPriority sets the nice value of the target
func SetPriority(which, who, prio int) error {
	if err := unix.Setpriority(which, who, prio); err != nil {
		return fmt.Errorf("identity: setpriority(%d): %w", prio, err)
	}
	return nil
}

// Kill sends sig to pid. A negative pid addresses the process group -pid.
func Kill(pid int, sig unix.Signal) error {
	if err := unix.Kill(pid, sig); err != nil {
		return fmt.Errorf("identity: kill(%d, %v): %w", pid, sig, err)
	}
	return nil
}

// KillGroup sends sig to every member of process group pgid
func KillGroup(pgid int, sig unix.Signal) error {
	return Kill(-pgid, sig)
}

// ParseSignal accepts a signal name with or without the SIG prefix
// (e.g. "TERM", "sigkill") or a signal number
func ParseSignal(s string) (unix.Signal, error) {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err == nil && fmt.Sprint(n) == s {
		if n < 0 || n > 64 {
			return 0, fmt.Errorf("identity: signal %d out of range", n)
		}
		return unix.Signal(n), nil
	}
	name := strings.ToUpper(s)
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}
	sig := unix.SignalNum(name)
	if sig == 0 {
		return 0, fmt.Errorf("identity: unknown signal %q", s)
	}
	return sig, nil
}
