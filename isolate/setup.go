package isolate

import (
	"fmt"
	"path/filepath"

	"github.com/criyle/go-evalfork/pkg/identity"
	"github.com/criyle/go-evalfork/pkg/rlimit"
	"github.com/criyle/go-evalfork/pkg/seccomp"
)

// Setup is applied by the child before the computation runs, in field
// order: resource limits, root and work directory, credential, syscall
// deny list
type Setup struct {
	// RLimits are set in order by setrlimit
	RLimits []rlimit.RLimit `cbor:"rlimits,omitempty"`

	// Chroot changes the root directory (requires CAP_SYS_CHROOT)
	Chroot string `cbor:"chroot,omitempty"`

	// WorkDir is the working directory, inside Chroot if set
	WorkDir string `cbor:"workdir,omitempty"`

	// Credential switches the process identity, nil keeps it
	Credential *Credential `cbor:"credential,omitempty"`

	// DenySyscalls fail with EPERM for the rest of the child's life
	DenySyscalls []string `cbor:"deny_syscalls,omitempty"`
}

// Credential is the identity the child switches to
type Credential struct {
	UID    int   `cbor:"uid"`
	GID    int   `cbor:"gid"`
	Groups []int `cbor:"groups,omitempty"`
}

// validate checks what can be checked before spawning
func (s *Setup) validate() error {
	if s == nil {
		return nil
	}
	if s.Chroot != "" && !filepath.IsAbs(s.Chroot) {
		return fmt.Errorf("chroot %q is not absolute", s.Chroot)
	}
	if s.Credential != nil && (s.Credential.UID < 0 || s.Credential.GID < 0) {
		return fmt.Errorf("invalid credential %d:%d", s.Credential.UID, s.Credential.GID)
	}
	if len(s.DenySyscalls) > 0 {
		if err := seccomp.Validate(s.DenySyscalls); err != nil {
			return err
		}
	}
	return nil
}

// apply runs in the child. The group is switched before the user, since
// setgid needs the privileges setuid drops.
func (s *Setup) apply() error {
	if s == nil {
		return nil
	}
	for _, rl := range s.RLimits {
		if err := rl.Set(); err != nil {
			return err
		}
	}
	if s.Chroot != "" {
		if err := identity.Chroot(s.Chroot); err != nil {
			return err
		}
	}
	if s.WorkDir != "" {
		if err := identity.Chdir(s.WorkDir); err != nil {
			return err
		}
	}
	if c := s.Credential; c != nil {
		// root drops its own supplementary groups even when none are given
		if len(c.Groups) > 0 || identity.EUID() == 0 {
			if err := identity.SetGroups(c.Groups); err != nil {
				return err
			}
		}
		if err := identity.SetGID(c.GID); err != nil {
			return err
		}
		if err := identity.SetUID(c.UID); err != nil {
			return err
		}
	}
	return seccomp.Deny(s.DenySyscalls)
}
