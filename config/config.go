// Package config loads the evalfork configuration file
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/criyle/go-evalfork/isolate"
	"github.com/criyle/go-evalfork/pkg/pipe"
	"github.com/criyle/go-evalfork/pkg/rlimit"
	"github.com/criyle/go-evalfork/pkg/seccomp"
	"github.com/criyle/go-evalfork/pkg/userdb"
	"github.com/criyle/go-evalfork/runner"
)

// DefaultOutputLimit bounds the output kept per stream
const DefaultOutputLimit = runner.Size(1 << 20)

// Config represents the evalfork configuration
type Config struct {
	Timeout   time.Duration `yaml:"timeout"`
	ForceKill bool          `yaml:"force_kill"`

	// OutputLimit is the number of bytes forwarded per stream, 0 forwards
	// everything
	OutputLimit runner.Size `yaml:"output_limit"`
	LogLevel    string        `yaml:"log_level"`
	Setup       *SetupEntry   `yaml:"setup,omitempty"`
}

// SetupEntry configures what the child applies before the computation
type SetupEntry struct {
	Chroot  string `yaml:"chroot,omitempty"`
	WorkDir string `yaml:"workdir,omitempty"`

	// User is a user name or uid resolved by the passwd database, UID and
	// GID override what it resolves to
	User string `yaml:"user,omitempty"`
	UID  *int   `yaml:"uid,omitempty"`
	GID  *int   `yaml:"gid,omitempty"`

	// RLimits maps a resource name (e.g. nofile, as) to "soft[:hard]"
	RLimits map[string]string `yaml:"rlimits,omitempty"`

	DenySyscalls []string `yaml:"deny_syscalls,omitempty"`
}

// Default returns a Config with the default output limit and log level
func Default() *Config {
	return &Config{
		OutputLimit: DefaultOutputLimit,
		LogLevel:    "info",
	}
}

// OutputSink forwards the child's output to w within OutputLimit
func (c *Config) OutputSink(w io.Writer) pipe.Sink {
	sink := pipe.WriterSink(w)
	if c.OutputLimit == 0 {
		return sink
	}
	return pipe.Limit(int64(c.OutputLimit), sink)
}

// Load reads and parses a configuration file
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	// #nosec G304 -- config path comes from CLI flag
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse parses a configuration document over the defaults
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %v", c.Timeout)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	s := c.Setup
	if s == nil {
		return nil
	}
	if s.Chroot != "" && !filepath.IsAbs(s.Chroot) {
		return fmt.Errorf("setup.chroot must be absolute: %q", s.Chroot)
	}
	for name, v := range s.RLimits {
		res, err := rlimit.ParseResource(name)
		if err != nil {
			return fmt.Errorf("setup.rlimits: %w", err)
		}
		if _, _, err := ParseLimit(res, v); err != nil {
			return fmt.Errorf("setup.rlimits.%s: %w", name, err)
		}
	}
	if len(s.DenySyscalls) > 0 {
		if err := seccomp.Validate(s.DenySyscalls); err != nil {
			return fmt.Errorf("setup.deny_syscalls: %w", err)
		}
	}
	return nil
}

// Level returns the slog level of log_level
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return l, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// IsolateSetup converts the setup section for isolate.Supervisor, users
// and groups are resolved with db. It returns nil when nothing is set up.
func (c *Config) IsolateSetup(db userdb.DB) (*isolate.Setup, error) {
	s := c.Setup
	if s == nil {
		return nil, nil
	}
	ret := &isolate.Setup{
		Chroot:       s.Chroot,
		WorkDir:      s.WorkDir,
		DenySyscalls: s.DenySyscalls,
	}

	names := make([]string, 0, len(s.RLimits))
	for n := range s.RLimits {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		res, err := rlimit.ParseResource(n)
		if err != nil {
			return nil, err
		}
		soft, hard, err := ParseLimit(res, s.RLimits[n])
		if err != nil {
			return nil, fmt.Errorf("rlimit %s: %w", n, err)
		}
		ret.RLimits = append(ret.RLimits, rlimit.RLimit{Res: res, Rlim: limitPair(soft, hard)})
	}

	if s.User != "" || s.UID != nil || s.GID != nil {
		cred := &isolate.Credential{UID: os.Getuid(), GID: os.Getgid()}
		if s.User != "" {
			u, err := db.LookupUser(s.User)
			if err != nil {
				return nil, err
			}
			groups, err := db.GroupIDs(u)
			if err != nil {
				return nil, err
			}
			cred.UID, cred.GID, cred.Groups = u.UID, u.GID, groups
		}
		if s.UID != nil {
			cred.UID = *s.UID
		}
		if s.GID != nil {
			cred.GID = *s.GID
		}
		ret.Credential = cred
	}

	if ret.Chroot == "" && ret.WorkDir == "" && len(ret.DenySyscalls) == 0 &&
		len(ret.RLimits) == 0 && ret.Credential == nil {
		return nil, nil
	}
	return ret, nil
}
