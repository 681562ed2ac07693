package rlimit

// Infinity is the value of an unlimited bound (RLIM_INFINITY)
const Infinity = ^uint64(0)
