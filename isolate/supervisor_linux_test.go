package isolate

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// processState returns the state letter of pid from /proc, empty if gone
func processState(pid int) string {
	b, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "stat"))
	if err != nil {
		return ""
	}
	// the command name may contain spaces, fields follow the last ')'
	s := string(b)
	i := strings.LastIndexByte(s, ')')
	if i < 0 {
		return ""
	}
	fields := strings.Fields(s[i+1:])
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// children counts the live processes whose parent is the test process
func children(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir("/proc")
	require.NoError(t, err)

	self := strconv.Itoa(os.Getpid())
	n := 0
	for _, e := range entries {
		if _, err := strconv.Atoi(e.Name()); err != nil {
			continue
		}
		b, err := os.ReadFile(filepath.Join("/proc", e.Name(), "stat"))
		if err != nil {
			continue
		}
		s := string(b)
		i := strings.LastIndexByte(s, ')')
		fields := strings.Fields(s[i+1:])
		if len(fields) > 1 && fields[1] == self {
			n++
		}
	}
	return n
}

func TestNoChildLeft(t *testing.T) {
	before := children(t)
	for _, comp := range []struct {
		name string
		arg  any
	}{
		{"test.add", []int{1}},
		{"test.fail", nil},
		{"test.exit", 1},
	} {
		new(Supervisor).Run(context.Background(), comp.name, comp.arg)
		assert.Equal(t, before, children(t), comp.name)
	}
}
