//go:build linux

package seccomp

import (
	"errors"
	"testing"

	libseccomp "github.com/elastic/go-seccomp-bpf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/bpf"
	"golang.org/x/sys/unix"
)

func TestValidate(t *testing.T) {
	require.NoError(t, Validate([]string{"read", "write", "getpgid"}))
	require.NoError(t, Validate(nil))

	err := Validate([]string{"read", "no_such_call", "frobnicate"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_call, frobnicate")
}

func TestSyscallName(t *testing.T) {
	n, err := SyscallName(unix.SYS_READ)
	require.NoError(t, err)
	assert.Equal(t, "read", n)

	_, err = SyscallName(-1)
	assert.Error(t, err)
}

func TestProgram(t *testing.T) {
	raw, err := Program([]string{"getpgid", "acct"})
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	insts, ok := bpf.Disassemble(raw)
	assert.True(t, ok)
	assert.Len(t, insts, len(raw))

	_, err = Program([]string{"no_such_call"})
	assert.Error(t, err)
}

func TestDenyEmpty(t *testing.T) {
	require.NoError(t, Deny(nil))
}

// TestDeny installs a filter on the test process itself, so it only denies a
// call nothing else in this package makes.
func TestDeny(t *testing.T) {
	if !libseccomp.Supported() {
		t.Skip("seccomp not supported")
	}
	_, err := unix.Getpgid(0)
	require.NoError(t, err)

	require.NoError(t, Deny([]string{"getpgid"}))

	_, err = unix.Getpgid(0)
	assert.True(t, errors.Is(err, unix.EPERM), "got %v", err)
}
