package seccomp

import (
	"fmt"
	"runtime"
	"unsafe"

	libseccomp "github.com/elastic/go-seccomp-bpf"
	"golang.org/x/net/bpf"
	"golang.org/x/sys/unix"
)

func denyPolicy(names []string) *libseccomp.Policy {
	return &libseccomp.Policy{
		DefaultAction: libseccomp.ActionAllow,
		Syscalls: []libseccomp.SyscallGroup{
			{
				Action: libseccomp.ActionErrno,
				Names:  names,
			},
		},
	}
}

// Program assembles the deny filter for names into raw BPF instructions
func Program(names []string) ([]bpf.RawInstruction, error) {
	if err := Validate(names); err != nil {
		return nil, err
	}
	insts, err := denyPolicy(names).Assemble()
	if err != nil {
		return nil, fmt.Errorf("seccomp: assemble policy: %w", err)
	}
	raw, err := bpf.Assemble(insts)
	if err != nil {
		return nil, fmt.Errorf("seccomp: assemble bpf: %w", err)
	}
	return raw, nil
}

// Deny loads a filter failing every syscall in names with EPERM for all
// threads of the calling process. An empty list installs nothing.
func Deny(names []string) error {
	if len(names) == 0 {
		return nil
	}
	raw, err := Program(names)
	if err != nil {
		return err
	}
	if !libseccomp.Supported() {
		return ErrUnsupported
	}
	if err := libseccomp.SetNoNewPrivs(); err != nil {
		return fmt.Errorf("seccomp: prctl(PR_SET_NO_NEW_PRIVS): %w", err)
	}
	return load(raw, unix.SECCOMP_FILTER_FLAG_TSYNC)
}

// load installs the raw program with seccomp(SECCOMP_SET_MODE_FILTER)
func load(raw []bpf.RawInstruction, flags uintptr) error {
	filter := make([]unix.SockFilter, 0, len(raw))
	for _, inst := range raw {
		filter = append(filter, unix.SockFilter{
			Code: inst.Op,
			Jt:   inst.Jt,
			Jf:   inst.Jf,
			K:    inst.K,
		})
	}
	prog := &unix.SockFprog{
		Len:    uint16(len(filter)),
		Filter: &filter[0],
	}
	_, _, errno := unix.Syscall(unix.SYS_SECCOMP, unix.SECCOMP_SET_MODE_FILTER, flags, uintptr(unsafe.Pointer(prog)))
	runtime.KeepAlive(filter)
	if errno != 0 {
		return fmt.Errorf("seccomp: load filter: %w", errno)
	}
	return nil
}
