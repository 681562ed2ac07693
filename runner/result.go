package runner

import (
	"fmt"
	"time"

	"github.com/criyle/go-evalfork/pkg/datachannel"
)

// Result is the isolated evaluation result
type Result struct {
	Status            // result status
	ExitStatus int    // exit status of the reaped child (signal number if signalled)
	Error      string // potential detailed error message (child error or runner error)

	Value []byte // encoded value reported by the child (nil unless StatusNormal)

	Escalations int // number of termination signals sent before the child finished

	// metrics for the supervisor
	SetUpTime   time.Duration
	RunningTime time.Duration
}

func (r Result) String() string {
	switch r.Status {
	case StatusNormal:
		return fmt.Sprintf("Result[%v][%v %v]", Size(len(r.Value)), r.SetUpTime, r.RunningTime)

	case StatusTimeLimitExceeded, StatusCancelled:
		return fmt.Sprintf("Result[%v(%d)][%v %v]", r.Status, r.Escalations, r.SetUpTime, r.RunningTime)

	case StatusRunnerError:
		return fmt.Sprintf("Result[RunnerFailed(%s)][%v %v]", r.Error, r.SetUpTime, r.RunningTime)

	default:
		return fmt.Sprintf("Result[%v(%s %d)][%v %v]", r.Status, r.Error, r.ExitStatus, r.SetUpTime, r.RunningTime)
	}
}

// Decode decodes the value of a StatusNormal result into v
func (r Result) Decode(v any) error {
	if r.Status != StatusNormal {
		return fmt.Errorf("result: no value for status %v", r.Status)
	}
	return datachannel.Unmarshal(r.Value, v)
}
