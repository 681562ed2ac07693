package rlimit

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sys/unix"
)

var resources = map[string]int{
	"as":      unix.RLIMIT_AS,
	"core":    unix.RLIMIT_CORE,
	"cpu":     unix.RLIMIT_CPU,
	"data":    unix.RLIMIT_DATA,
	"fsize":   unix.RLIMIT_FSIZE,
	"memlock": unix.RLIMIT_MEMLOCK,
	"nofile":  unix.RLIMIT_NOFILE,
	"nproc":   unix.RLIMIT_NPROC,
	"stack":   unix.RLIMIT_STACK,
}

// ParseResource maps a resource name (as, core, cpu, data, fsize, memlock,
// nofile, nproc, stack) to its RLIMIT_* value
func ParseResource(name string) (int, error) {
	res, ok := resources[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("rlimit: unknown resource %q (one of %s)", name, strings.Join(ResourceNames(), ", "))
	}
	return res, nil
}

// ResourceNames lists the names accepted by ParseResource
func ResourceNames() []string {
	names := make([]string, 0, len(resources))
	for n := range resources {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// IsSize reports whether the resource is measured in bytes
func IsSize(res int) bool {
	switch res {
	case unix.RLIMIT_CPU, unix.RLIMIT_NOFILE, unix.RLIMIT_NPROC:
		return false
	}
	return true
}

// Get returns the current limits of res
func Get(res int) (unix.Rlimit, error) {
	var lim unix.Rlimit
	if err := unix.Getrlimit(res, &lim); err != nil {
		return lim, fmt.Errorf("rlimit: getrlimit for current limits %w", err)
	}
	return lim, nil
}

// Apply changes the limits of res for the calling process and returns the
// limits in effect afterwards. A nil bound is left unchanged. When the new
// soft limit exceeds the hard limit, the hard limit is raised to match it.
func Apply(res int, soft, hard *uint64) (unix.Rlimit, error) {
	lim, err := Get(res)
	if err != nil {
		return lim, err
	}
	if soft == nil && hard == nil {
		return lim, nil
	}
	if soft != nil {
		lim.Cur = *soft
		if lim.Cur > lim.Max {
			lim.Max = lim.Cur
		}
	}
	if hard != nil {
		lim.Max = *hard
	}
	if err := unix.Setrlimit(res, &lim); err != nil {
		return lim, fmt.Errorf("rlimit: setrlimit %w", err)
	}
	return Get(res)
}

// Set applies the limit r to the calling process
func (r RLimit) Set() error {
	lim := r.Rlim
	if err := unix.Setrlimit(r.Res, &lim); err != nil {
		return fmt.Errorf("rlimit: setrlimit %v: %w", r, err)
	}
	return nil
}
