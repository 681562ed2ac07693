package runner

// Status is the result Status
type Status int

// Result Status for isolated evaluation
const (
	StatusInvalid Status = iota // 0 not initialized
	// Normal
	StatusNormal // 1 normal

	// Killed by supervisor
	StatusTimeLimitExceeded // 2 timeout
	StatusCancelled         // 3 cancelled by caller

	// Child failure
	StatusChildError // 4 computation reported an error
	StatusChildDied  // 5 died without reporting

	// Runner Error
	StatusRunnerError // 6 pipe / spawn failure
)

var (
	statusString = []string{
		"Invalid",
		"",
		"Time Limit Exceeded",
		"Cancelled",
		"Child Error",
		"Child Died",
		"Runner Error",
	}
)

func (t Status) String() string {
	i := int(t)
	if i >= 0 && i < len(statusString) {
		return statusString[i]
	}
	return statusString[0]
}

func (t Status) Error() string {
	return t.String()
}
