// Package cancel provides polled cancellation sources. A supervisor loop
// checks Requested once per iteration instead of being interrupted, the
// same way an interpreter checks a pending interrupt flag.
package cancel

import (
	"context"
	"sync/atomic"
)

// Source reports whether the caller's environment asked for an abort
type Source interface {
	Requested() bool
}

// Func adapts a plain predicate to a Source
type Func func() bool

// Requested calls f
func (f Func) Requested() bool {
	return f()
}

type never struct{}

func (never) Requested() bool { return false }

// Never is a Source that never requests cancellation
var Never Source = never{}

// Flag is a Source that is set explicitly, safe for concurrent use
type Flag struct {
	v atomic.Bool
}

// Set requests cancellation
func (f *Flag) Set() {
	f.v.Store(true)
}

// Reset clears the request
func (f *Flag) Reset() {
	f.v.Store(false)
}

// Requested reports whether Set was called since the last Reset
func (f *Flag) Requested() bool {
	return f.v.Load()
}

type ctxSource struct {
	ctx context.Context
}

func (c ctxSource) Requested() bool {
	return c.ctx.Err() != nil
}

// Context returns a Source that reports ctx being done
func Context(ctx context.Context) Source {
	if ctx == nil || ctx.Done() == nil {
		return Never
	}
	return ctxSource{ctx: ctx}
}

type anySource []Source

func (a anySource) Requested() bool {
	for _, s := range a {
		if s.Requested() {
			return true
		}
	}
	return false
}

// Any returns a Source that requests cancellation when any of srcs does.
// nil sources are skipped.
func Any(srcs ...Source) Source {
	var a anySource
	for _, s := range srcs {
		if s != nil && s != Never {
			a = append(a, s)
		}
	}
	switch len(a) {
	case 0:
		return Never
	case 1:
		return a[0]
	}
	return a
}

// Latch makes a Source sticky: once it reported true it keeps reporting
// true. It is not safe for concurrent use and is meant to be owned by a
// single loop.
type Latch struct {
	src Source
	hit bool
}

// Sticky wraps src in a Latch
func Sticky(src Source) *Latch {
	if src == nil {
		src = Never
	}
	return &Latch{src: src}
}

// Requested reports whether the wrapped source ever requested cancellation
func (l *Latch) Requested() bool {
	if !l.hit {
		l.hit = l.src.Requested()
	}
	return l.hit
}
