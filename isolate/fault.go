package isolate

import (
	"fmt"
	"strings"
	"syscall"
	"time"

	"github.com/criyle/go-evalfork/runner"
)

// Fault describes why an evaluation produced no value. Status tells the
// kind: StatusTimeLimitExceeded, StatusCancelled, StatusChildError,
// StatusChildDied or StatusRunnerError (setup failure).
type Fault struct {
	Status runner.Status

	// Message is the error reported by the computation (StatusChildError)
	// or the setup failure (StatusRunnerError)
	Message string

	// Elapsed is the time the child ran, Timeout the configured limit
	Elapsed time.Duration
	Timeout time.Duration

	// Signal killed the child, if it was killed by one
	Signal syscall.Signal

	// Err is the underlying error, if any
	Err error
}

func (f *Fault) Error() string {
	switch f.Status {
	case runner.StatusTimeLimitExceeded:
		return fmt.Sprintf("isolate: timeout reached (%v, limit %v)", f.Elapsed.Round(time.Millisecond), f.Timeout)

	case runner.StatusCancelled:
		return "isolate: process interrupted by parent"

	case runner.StatusChildError:
		return f.Message

	case runner.StatusRunnerError:
		return "isolate: " + f.Message
	}

	var sb strings.Builder
	sb.WriteString("isolate: child process has died")
	if f.Signal != 0 {
		fmt.Fprintf(&sb, " (%v)", f.Signal)
	}
	if f.Err != nil {
		fmt.Fprintf(&sb, ": %v", f.Err)
	}
	return sb.String()
}

// Unwrap returns the underlying error
func (f *Fault) Unwrap() error {
	return f.Err
}

// Is matches a runner.Status, so errors.Is(err, runner.StatusCancelled)
// reports cancelled evaluations
func (f *Fault) Is(target error) bool {
	s, ok := target.(runner.Status)
	return ok && s == f.Status
}
