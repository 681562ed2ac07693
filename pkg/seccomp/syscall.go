// Package seccomp installs the syscall deny list of an isolated child.
//
// The filter denies the listed syscalls with EPERM and allows everything
// else. It is loaded with no_new_privs and synchronized to every thread, so
// it survives across the rest of the child's life, including exec.
package seccomp

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/elastic/go-seccomp-bpf/arch"
)

// ErrUnsupported is returned where seccomp filtering is unavailable
var ErrUnsupported = errors.New("seccomp: not supported on this platform")

var info, errInfo = arch.GetInfo("")

// Validate checks every name is a syscall of the running architecture
func Validate(names []string) error {
	if errInfo != nil {
		return fmt.Errorf("seccomp: %w", errInfo)
	}
	var unknown []string
	for _, n := range names {
		if _, ok := info.SyscallNames[n]; !ok {
			unknown = append(unknown, n)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("seccomp: unknown syscall(s) on %s: %s", runtime.GOARCH, strings.Join(unknown, ", "))
	}
	return nil
}

// SyscallName converts syscall number to syscall name
func SyscallName(nr int) (string, error) {
	if errInfo != nil {
		return "", fmt.Errorf("seccomp: %w", errInfo)
	}
	n, ok := info.SyscallNumbers[nr]
	if !ok {
		return "", fmt.Errorf("seccomp: syscall no %d does not exist", nr)
	}
	return n, nil
}
