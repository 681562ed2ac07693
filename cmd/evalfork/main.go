// Command evalfork evaluates a built-in computation in an isolated child
// process and prints its value, and exposes the process collaborators
// (user / group lookup, resource limits, signals, syscall filters) for
// inspection.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/criyle/go-evalfork/config"
	"github.com/criyle/go-evalfork/isolate"
	"github.com/criyle/go-evalfork/pkg/cancel"
	"github.com/criyle/go-evalfork/pkg/datachannel"
	"github.com/criyle/go-evalfork/pkg/userdb"
	"github.com/criyle/go-evalfork/runner"
)

// usageError exits with code 2
type usageError struct {
	msg string
}

func (e usageError) Error() string { return e.msg }

func (usageError) ExitCode() int { return 2 }

// faultError exits with code 1 after the fault was printed
type faultError struct {
	err error
}

func (e faultError) Error() string { return e.err.Error() }

func (e faultError) Unwrap() error { return e.err }

func (faultError) ExitCode() int { return 1 }

func main() {
	// the re-executed child runs its computation here and never returns,
	// computations are registered by init functions before
	isolate.Init()

	if err := run(os.Args[1:]); err != nil {
		var fe faultError
		if !errors.As(err, &fe) {
			fmt.Fprintf(os.Stderr, "evalfork: %v\n", err)
		}
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

type options struct {
	configPath  string
	timeout     time.Duration
	forceKill   bool
	outputLimit runner.Size
	logLevel    string
	list        bool
}

func run(argv []string) error {
	var opt options
	flagSet := pflag.NewFlagSet("evalfork", pflag.ContinueOnError)
	flagSet.StringVar(&opt.configPath, "config", "", "path to the YAML configuration file")
	flagSet.DurationVar(&opt.timeout, "timeout", 0, "wall clock limit of the child (0: none)")
	flagSet.BoolVar(&opt.forceKill, "force-kill", false, "send SIGKILL right away on timeout or interrupt")
	flagSet.Var(&opt.outputLimit, "output-limit", "bytes of child output kept per stream (e.g. 64k, 0: unlimited)")
	flagSet.StringVar(&opt.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flagSet.BoolVar(&opt.list, "list", false, "list the built-in computations")
	flagSet.SetInterspersed(false)
	flagSet.Usage = func() { printUsage(flagSet) }

	if err := flagSet.Parse(argv); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return usageError{msg: err.Error()}
	}

	cfg := config.Default()
	if opt.configPath != "" {
		var err error
		if cfg, err = config.Load(opt.configPath); err != nil {
			return err
		}
	}
	if flagSet.Changed("timeout") {
		cfg.Timeout = opt.timeout
	}
	if flagSet.Changed("force-kill") {
		cfg.ForceKill = opt.forceKill
	}
	if flagSet.Changed("output-limit") {
		cfg.OutputLimit = opt.outputLimit
	}
	if flagSet.Changed("log-level") {
		cfg.LogLevel = opt.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return usageError{msg: err.Error()}
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if opt.list {
		for _, name := range isolate.Registered() {
			fmt.Println(name)
		}
		return nil
	}

	args := flagSet.Args()
	if len(args) == 0 {
		printUsage(flagSet)
		return usageError{msg: "missing computation"}
	}
	switch args[0] {
	case "user":
		return lookupUser(args[1:])
	case "group":
		return lookupGroup(args[1:])
	case "rlimit":
		return showRLimit(args[1:])
	case "kill":
		return sendSignal(args[1:])
	case "seccomp":
		return showSeccomp(args[1:])
	}
	return evaluate(cfg, logger, args)
}

func evaluate(cfg *config.Config, logger *slog.Logger, args []string) error {
	name := args[0]
	if len(args) > 2 {
		return usageError{msg: "too many arguments"}
	}
	var arg any
	if len(args) == 2 {
		// YAML is a superset of JSON and keeps integers as integers
		if err := yaml.Unmarshal([]byte(args[1]), &arg); err != nil {
			return usageError{msg: fmt.Sprintf("invalid argument: %v", err)}
		}
	}

	setup, err := cfg.IsolateSetup(userdb.Default)
	if err != nil {
		return err
	}

	interrupted, stop := cancel.Signal(os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := &isolate.Supervisor{
		Timeout:   cfg.Timeout,
		Stdout:    cfg.OutputSink(os.Stdout),
		Stderr:    cfg.OutputSink(os.Stderr),
		Cancel:    interrupted,
		ForceKill: cfg.ForceKill,
		Setup:     setup,
		Logger:    logger,
	}
	res, err := s.Run(context.Background(), name, arg)
	logger.Debug("evaluation finished", "result", res)
	if err != nil {
		fmt.Fprintf(os.Stderr, "evalfork: %s: %v\n", res.Status, err)
		return faultError{err: err}
	}

	out, err := datachannel.Diagnose(res.Value)
	if err != nil {
		return fmt.Errorf("print value: %w", err)
	}
	fmt.Println(out)
	return nil
}

func printUsage(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Usage:
  evalfork [flags] <computation> [arg]   evaluate a computation in a child process
  evalfork user <name|uid>               look up a user
  evalfork group <name|gid>              look up a group
  evalfork rlimit <resource> [soft [hard]]
                                         show or change a resource limit
  evalfork kill <pid> <signal>           send a signal (negative pid: process group)
  evalfork seccomp <syscall|nr>...       print the deny filter for the syscalls

arg is a JSON (or YAML) value. Flags:
`)
	flagSet.PrintDefaults()
}
