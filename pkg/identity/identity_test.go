package identity

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestGetters(t *testing.T) {
	assert.Equal(t, os.Getuid(), UID())
	assert.Equal(t, os.Geteuid(), EUID())
	assert.Equal(t, os.Getgid(), GID())
	assert.Equal(t, os.Getegid(), EGID())
	assert.Equal(t, os.Getpid(), Pid())
	assert.Equal(t, os.Getppid(), PPid())
}

func TestSetToCurrent(t *testing.T) {
	uid, gid := UID(), GID()
	require.NoError(t, SetEGID(EGID()))
	require.NoError(t, SetEUID(EUID()))
	assert.Equal(t, uid, UID())
	assert.Equal(t, gid, GID())
}

func TestPgid(t *testing.T) {
	self, err := Pgid(0)
	require.NoError(t, err)
	byPid, err := Pgid(Pid())
	require.NoError(t, err)
	assert.Equal(t, self, byPid)
}

func TestPriority(t *testing.T) {
	nice, err := Priority(PriorityProcess, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, nice, -20)
	assert.LessOrEqual(t, nice, 19)
	require.NoError(t, SetPriority(PriorityProcess, 0, nice))
}

func TestKill(t *testing.T) {
	require.NoError(t, Kill(Pid(), 0))

	pgid, err := Pgid(0)
	require.NoError(t, err)
	require.NoError(t, KillGroup(pgid, 0))
}

func TestChrootUnprivileged(t *testing.T) {
	if EUID() == 0 {
		t.Skip("running as root")
	}
	err := Chroot(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, unix.EPERM))
}

func TestParseSignal(t *testing.T) {
	tests := []struct {
		in   string
		want unix.Signal
	}{
		{"SIGINT", unix.SIGINT},
		{"term", unix.SIGTERM},
		{"Kill", unix.SIGKILL},
		{"9", unix.SIGKILL},
		{"0", 0},
	}
	for _, tt := range tests {
		got, err := ParseSignal(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, in := range []string{"SIGNOPE", "-1", "1000"} {
		_, err := ParseSignal(in)
		assert.Error(t, err, in)
	}
}
