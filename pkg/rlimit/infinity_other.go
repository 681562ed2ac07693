//go:build unix && !linux

package rlimit

import "golang.org/x/sys/unix"

// Infinity is the value of an unlimited bound (RLIM_INFINITY)
const Infinity = uint64(unix.RLIM_INFINITY)
