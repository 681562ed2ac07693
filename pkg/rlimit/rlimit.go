// Package rlimit provides data structure for resource limits by setrlimit syscall
// and the plain get / set calls used to inspect and adjust them.
package rlimit

import (
	"fmt"
	"strings"

	"github.com/criyle/go-evalfork/runner"
	"golang.org/x/sys/unix"
)

// RLimits defines the rlimit applied by setrlimit syscall to the isolated child
type RLimits struct {
	CPU          uint64 // in s
	CPUHard      uint64 // in s
	Data         uint64 // in bytes
	FileSize     uint64 // in bytes
	Stack        uint64 // in bytes
	AddressSpace uint64 // in bytes
	OpenFile     uint64 // count of open files
	Process      uint64 // count of processes of the user
	MemLock      uint64 // in bytes
	DisableCore  bool   // set core to 0
}

// RLimit is the resource limits defined by setrlimit
type RLimit struct {
	// Res is the resource type (e.g. unix.RLIMIT_CPU)
	Res int
	// Rlim is the limit applied to that resource
	Rlim unix.Rlimit
}

func getRlimit(cur, max uint64) unix.Rlimit {
	return unix.Rlimit{Cur: cur, Max: max}
}

// PrepareRLimit creates rlimit structures for the child
// TimeLimit in s, SizeLimit in byte
func (r RLimits) PrepareRLimit() []RLimit {
	var ret []RLimit
	if r.CPU > 0 {
		cpuHard := r.CPUHard
		if cpuHard < r.CPU {
			cpuHard = r.CPU
		}

		ret = append(ret, RLimit{
			Res:  unix.RLIMIT_CPU,
			Rlim: getRlimit(r.CPU, cpuHard),
		})
	}
	if r.Data > 0 {
		ret = append(ret, RLimit{
			Res:  unix.RLIMIT_DATA,
			Rlim: getRlimit(r.Data, r.Data),
		})
	}
	if r.FileSize > 0 {
		ret = append(ret, RLimit{
			Res:  unix.RLIMIT_FSIZE,
			Rlim: getRlimit(r.FileSize, r.FileSize),
		})
	}
	if r.Stack > 0 {
		ret = append(ret, RLimit{
			Res:  unix.RLIMIT_STACK,
			Rlim: getRlimit(r.Stack, r.Stack),
		})
	}
	if r.AddressSpace > 0 {
		ret = append(ret, RLimit{
			Res:  unix.RLIMIT_AS,
			Rlim: getRlimit(r.AddressSpace, r.AddressSpace),
		})
	}
	if r.OpenFile > 0 {
		ret = append(ret, RLimit{
			Res:  unix.RLIMIT_NOFILE,
			Rlim: getRlimit(r.OpenFile, r.OpenFile),
		})
	}
	if r.Process > 0 {
		ret = append(ret, RLimit{
			Res:  unix.RLIMIT_NPROC,
			Rlim: getRlimit(r.Process, r.Process),
		})
	}
	if r.MemLock > 0 {
		ret = append(ret, RLimit{
			Res:  unix.RLIMIT_MEMLOCK,
			Rlim: getRlimit(r.MemLock, r.MemLock),
		})
	}
	if r.DisableCore {
		ret = append(ret, RLimit{
			Res:  unix.RLIMIT_CORE,
			Rlim: getRlimit(0, 0),
		})
	}
	return ret
}

func (r RLimit) String() string {
	switch r.Res {
	case unix.RLIMIT_CPU:
		return fmt.Sprintf("CPU[%s s:%s s]", count(r.Rlim.Cur), count(r.Rlim.Max))
	case unix.RLIMIT_NOFILE:
		return fmt.Sprintf("OpenFile[%s:%s]", count(r.Rlim.Cur), count(r.Rlim.Max))
	case unix.RLIMIT_NPROC:
		return fmt.Sprintf("Process[%s:%s]", count(r.Rlim.Cur), count(r.Rlim.Max))
	}
	t := ""
	switch r.Res {
	case unix.RLIMIT_DATA:
		t = "Data"
	case unix.RLIMIT_FSIZE:
		t = "File"
	case unix.RLIMIT_STACK:
		t = "Stack"
	case unix.RLIMIT_AS:
		t = "AddressSpace"
	case unix.RLIMIT_MEMLOCK:
		t = "MemLock"
	case unix.RLIMIT_CORE:
		t = "Core"
	}
	return fmt.Sprintf("%s[%s:%s]", t, size(r.Rlim.Cur), size(r.Rlim.Max))
}

func (r RLimits) String() string {
	var sb strings.Builder
	sb.WriteString("RLimits[")
	for i, rl := range r.PrepareRLimit() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(rl.String())
	}
	sb.WriteString("]")
	return sb.String()
}

func count(v uint64) string {
	if v == Infinity {
		return "unlimited"
	}
	return fmt.Sprintf("%d", v)
}

func size(v uint64) string {
	if v == Infinity {
		return "unlimited"
	}
	return runner.Size(v).String()
}
