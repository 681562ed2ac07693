package config

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/criyle/go-evalfork/pkg/rlimit"
	"github.com/criyle/go-evalfork/runner"
)

// ParseLimit parses "soft[:hard]" for res. Sizes accept k/m/g suffixes,
// "unlimited" is rlimit.Infinity. A missing hard limit equals soft.
func ParseLimit(res int, s string) (soft, hard uint64, err error) {
	softStr, hardStr, ok := strings.Cut(s, ":")
	if soft, err = parseBound(res, softStr); err != nil {
		return 0, 0, err
	}
	if !ok {
		return soft, soft, nil
	}
	if hard, err = parseBound(res, hardStr); err != nil {
		return 0, 0, err
	}
	if soft > hard {
		return 0, 0, fmt.Errorf("soft limit %s above hard limit %s", softStr, hardStr)
	}
	return soft, hard, nil
}

func parseBound(res int, s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "unlimited" || s == "infinity" {
		return rlimit.Infinity, nil
	}
	if rlimit.IsSize(res) {
		var sz runner.Size
		if err := sz.Set(s); err != nil {
			return 0, fmt.Errorf("invalid size %q: %w", s, err)
		}
		return uint64(sz), nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q: %w", s, err)
	}
	return v, nil
}

func limitPair(soft, hard uint64) unix.Rlimit {
	return unix.Rlimit{Cur: soft, Max: hard}
}
