package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/criyle/go-evalfork/config"
	"github.com/criyle/go-evalfork/pkg/identity"
	"github.com/criyle/go-evalfork/pkg/rlimit"
	"github.com/criyle/go-evalfork/pkg/seccomp"
	"github.com/criyle/go-evalfork/pkg/userdb"
	"golang.org/x/net/bpf"
)

func lookupUser(args []string) error {
	if len(args) != 1 {
		return usageError{msg: "usage: evalfork user <name|uid>"}
	}
	u, err := userdb.LookupUser(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("name=%s uid=%d gid=%d gecos=%q home=%s shell=%s\n", u.Name, u.UID, u.GID, u.Gecos, u.HomeDir, u.Shell)
	return nil
}

func lookupGroup(args []string) error {
	if len(args) != 1 {
		return usageError{msg: "usage: evalfork group <name|gid>"}
	}
	g, err := userdb.LookupGroup(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("name=%s gid=%d members=%s\n", g.Name, g.GID, strings.Join(g.Members, ","))
	return nil
}

// showRLimit applies the limits to evalfork itself, useful to check what
// the system allows before writing them to the configuration
func showRLimit(args []string) error {
	if len(args) < 1 || len(args) > 3 {
		return usageError{msg: "usage: evalfork rlimit <resource> [soft [hard]]"}
	}
	res, err := rlimit.ParseResource(args[0])
	if err != nil {
		return usageError{msg: err.Error()}
	}
	var soft, hard *uint64
	if len(args) > 1 {
		spec := args[1]
		if len(args) > 2 {
			spec += ":" + args[2]
		}
		s, h, err := config.ParseLimit(res, spec)
		if err != nil {
			return usageError{msg: err.Error()}
		}
		soft = &s
		if len(args) > 2 {
			hard = &h
		}
	}
	lim, err := rlimit.Apply(res, soft, hard)
	if err != nil {
		return err
	}
	fmt.Println(rlimit.RLimit{Res: res, Rlim: lim})
	return nil
}

func sendSignal(args []string) error {
	if len(args) != 2 {
		return usageError{msg: "usage: evalfork kill <pid> <signal>"}
	}
	pid, err := strconv.Atoi(args[0])
	if err != nil || pid == 0 {
		return usageError{msg: fmt.Sprintf("invalid pid %q", args[0])}
	}
	sig, err := identity.ParseSignal(args[1])
	if err != nil {
		return usageError{msg: err.Error()}
	}
	if err := identity.Kill(pid, sig); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "sent %v to %d\n", sig, pid)
	return nil
}

// showSeccomp prints the deny filter the child would load for the syscalls,
// given by name or by number
func showSeccomp(args []string) error {
	if len(args) == 0 {
		return usageError{msg: "usage: evalfork seccomp <syscall|nr>..."}
	}
	names := make([]string, 0, len(args))
	for _, a := range args {
		if nr, err := strconv.Atoi(a); err == nil {
			n, err := seccomp.SyscallName(nr)
			if err != nil {
				return usageError{msg: err.Error()}
			}
			a = n
		}
		names = append(names, a)
	}
	raw, err := seccomp.Program(names)
	if err != nil {
		return err
	}
	insts, _ := bpf.Disassemble(raw)
	fmt.Printf("# deny %s (%d instructions)\n", strings.Join(names, ","), len(insts))
	for i, inst := range insts {
		fmt.Printf("%4d: %v\n", i, inst)
	}
	return nil
}
