package pipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func newTestPipe(t *testing.T) *Pipe {
	t.Helper()
	p, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	require.NoError(t, SetNonblock(p.R))
	return &p
}

func TestNewCloseOnExec(t *testing.T) {
	p := newTestPipe(t)
	for _, fd := range []int{p.R, p.W} {
		flag, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
		require.NoError(t, err)
		assert.NotZero(t, flag&unix.FD_CLOEXEC, "fd %d not close on exec", fd)
	}
}

func TestPipeCloseTwice(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	require.NoError(t, p.CloseWrite())
	assert.Equal(t, -1, p.W)
	require.NoError(t, p.CloseWrite())
	require.NoError(t, p.Close())
	assert.Equal(t, -1, p.R)
}

func TestRelayDrainWouldBlock(t *testing.T) {
	p := newTestPipe(t)

	var got [][]byte
	r := NewRelay(p.R, func(b []byte) {
		got = append(got, append([]byte(nil), b...))
	})

	n, err := r.Drain()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, got)
	assert.False(t, r.Closed())

	_, err = unix.Write(p.W, []byte("hello"))
	require.NoError(t, err)

	n, err = r.Drain()
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	require.Len(t, got, 1)
	assert.Equal(t, "hello", string(got[0]))
	assert.False(t, r.Closed())
}

func TestRelayDrainClosed(t *testing.T) {
	p := newTestPipe(t)

	buf := NewBuffer(1024)
	r := NewRelay(p.R, buf.Sink())

	_, err := unix.Write(p.W, []byte("a"))
	require.NoError(t, err)
	_, err = unix.Write(p.W, []byte("b"))
	require.NoError(t, err)
	require.NoError(t, p.CloseWrite())

	n, err := r.Drain()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, r.Closed())
	assert.Equal(t, "ab", buf.Buffer.String())

	// drained relays stay quiet
	n, err = r.Drain()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRelayNilSink(t *testing.T) {
	p := newTestPipe(t)
	r := NewRelay(p.R, nil)

	_, err := unix.Write(p.W, []byte("dropped"))
	require.NoError(t, err)
	n, err := r.Drain()
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestRelayClose(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	defer p.CloseWrite()

	r := NewRelay(p.R, nil)
	require.NoError(t, r.Close())
	assert.True(t, r.Closed())
	assert.Equal(t, -1, r.Fd)
}
