//go:build !linux

package seccomp

import "golang.org/x/net/bpf"

// Program fails, there is no seccomp on this platform
func Program(names []string) ([]bpf.RawInstruction, error) {
	return nil, ErrUnsupported
}

// Deny fails unless names is empty
func Deny(names []string) error {
	if len(names) == 0 {
		return nil
	}
	return ErrUnsupported
}
