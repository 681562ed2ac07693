//go:build linux

package rlimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestPrepareRLimit(t *testing.T) {
	tests := []struct {
		name   string
		rl     RLimits
		expect []int
	}{
		{
			name:   "Empty",
			rl:     RLimits{},
			expect: []int{},
		},
		{
			name:   "CPU only",
			rl:     RLimits{CPU: 1},
			expect: []int{unix.RLIMIT_CPU},
		},
		{
			name:   "Data only",
			rl:     RLimits{Data: 1024},
			expect: []int{unix.RLIMIT_DATA},
		},
		{
			name: "All fields",
			rl: RLimits{CPU: 1, CPUHard: 2, Data: 1024, FileSize: 2048, Stack: 4096, AddressSpace: 8192,
				OpenFile: 16, Process: 32, MemLock: 65536, DisableCore: true},
			expect: []int{unix.RLIMIT_CPU, unix.RLIMIT_DATA, unix.RLIMIT_FSIZE, unix.RLIMIT_STACK, unix.RLIMIT_AS,
				unix.RLIMIT_NOFILE, unix.RLIMIT_NPROC, unix.RLIMIT_MEMLOCK, unix.RLIMIT_CORE},
		},
		{
			name:   "DisableCore only",
			rl:     RLimits{DisableCore: true},
			expect: []int{unix.RLIMIT_CORE},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rls := tt.rl.PrepareRLimit()
			require.Len(t, rls, len(tt.expect))
			for i, r := range rls {
				assert.Equal(t, tt.expect[i], r.Res, "resource at %d", i)
			}
		})
	}
}

func TestPrepareRLimitCPUHard(t *testing.T) {
	rls := RLimits{CPU: 3, CPUHard: 1}.PrepareRLimit()
	require.Len(t, rls, 1)
	assert.Equal(t, unix.Rlimit{Cur: 3, Max: 3}, rls[0].Rlim)
}

func TestRLimitString(t *testing.T) {
	tests := []struct {
		name string
		rl   RLimit
		want string
	}{
		{
			name: "CPU",
			rl:   RLimit{Res: unix.RLIMIT_CPU, Rlim: unix.Rlimit{Cur: 1, Max: 2}},
			want: "CPU[1 s:2 s]",
		},
		{
			name: "NOFILE",
			rl:   RLimit{Res: unix.RLIMIT_NOFILE, Rlim: unix.Rlimit{Cur: 10, Max: 20}},
			want: "OpenFile[10:20]",
		},
		{
			name: "NPROC",
			rl:   RLimit{Res: unix.RLIMIT_NPROC, Rlim: unix.Rlimit{Cur: 5, Max: Infinity}},
			want: "Process[5:unlimited]",
		},
		{
			name: "DATA",
			rl:   RLimit{Res: unix.RLIMIT_DATA, Rlim: unix.Rlimit{Cur: 1024, Max: 2048}},
			want: "Data[1.0 KiB:2.0 KiB]",
		},
		{
			name: "FSIZE",
			rl:   RLimit{Res: unix.RLIMIT_FSIZE, Rlim: unix.Rlimit{Cur: 100, Max: 200}},
			want: "File[100 B:200 B]",
		},
		{
			name: "STACK",
			rl:   RLimit{Res: unix.RLIMIT_STACK, Rlim: unix.Rlimit{Cur: 4096, Max: 8192}},
			want: "Stack[4.0 KiB:8.0 KiB]",
		},
		{
			name: "AS",
			rl:   RLimit{Res: unix.RLIMIT_AS, Rlim: unix.Rlimit{Cur: 123, Max: 456}},
			want: "AddressSpace[123 B:456 B]",
		},
		{
			name: "MEMLOCK",
			rl:   RLimit{Res: unix.RLIMIT_MEMLOCK, Rlim: unix.Rlimit{Cur: 1024, Max: Infinity}},
			want: "MemLock[1.0 KiB:unlimited]",
		},
		{
			name: "CORE",
			rl:   RLimit{Res: unix.RLIMIT_CORE, Rlim: unix.Rlimit{Cur: 0, Max: 0}},
			want: "Core[0 B:0 B]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rl.String())
		})
	}
}

func TestRLimitsString(t *testing.T) {
	rl := RLimits{
		CPU:          1,
		CPUHard:      2,
		Data:         1024,
		FileSize:     2048,
		Stack:        4096,
		AddressSpace: 8192,
		OpenFile:     16,
		DisableCore:  true,
	}
	want := "RLimits[CPU[1 s:2 s],Data[1.0 KiB:1.0 KiB],File[2.0 KiB:2.0 KiB],Stack[4.0 KiB:4.0 KiB],AddressSpace[8.0 KiB:8.0 KiB],OpenFile[16:16],Core[0 B:0 B]]"
	assert.Equal(t, want, rl.String())
	assert.Equal(t, "RLimits[]", RLimits{}.String())
}

func TestParseResource(t *testing.T) {
	res, err := ParseResource("NOFILE")
	require.NoError(t, err)
	assert.Equal(t, unix.RLIMIT_NOFILE, res)

	res, err = ParseResource("as")
	require.NoError(t, err)
	assert.Equal(t, unix.RLIMIT_AS, res)

	_, err = ParseResource("rss")
	assert.ErrorContains(t, err, "unknown resource")

	assert.Len(t, ResourceNames(), 9)
	assert.False(t, IsSize(unix.RLIMIT_CPU))
	assert.True(t, IsSize(unix.RLIMIT_STACK))
}

func TestApplyUnchanged(t *testing.T) {
	cur, err := Get(unix.RLIMIT_NOFILE)
	require.NoError(t, err)

	got, err := Apply(unix.RLIMIT_NOFILE, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, cur, got)
}

func TestApplyLowerSoft(t *testing.T) {
	orig, err := Get(unix.RLIMIT_CORE)
	require.NoError(t, err)
	t.Cleanup(func() {
		restore := orig
		unix.Setrlimit(unix.RLIMIT_CORE, &restore)
	})

	soft := uint64(0)
	got, err := Apply(unix.RLIMIT_CORE, &soft, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got.Cur)
	assert.Equal(t, orig.Max, got.Max)
}

func TestRLimitSet(t *testing.T) {
	orig, err := Get(unix.RLIMIT_CORE)
	require.NoError(t, err)
	t.Cleanup(func() {
		restore := orig
		unix.Setrlimit(unix.RLIMIT_CORE, &restore)
	})

	r := RLimit{Res: unix.RLIMIT_CORE, Rlim: unix.Rlimit{Cur: 0, Max: orig.Max}}
	require.NoError(t, r.Set())

	got, err := Get(unix.RLIMIT_CORE)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got.Cur)
}
