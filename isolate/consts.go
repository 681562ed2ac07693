package isolate

import "time"

const (
	initArg = "evalfork_child"

	// versionEnv marks the re-executed child and carries the protocol
	// version between supervisor and child
	versionEnv  = "EVALFORK_EXEC_VERSION"
	execVersion = "1"

	requestFd = 3
	resultsFd = 4

	// pollWait bounds one wait for child output, escalationWait bounds the
	// wait for the child to finish after each termination signal
	pollWait       = 200 * time.Millisecond
	escalationWait = 500 * time.Millisecond

	// exitWait bounds the wait for a child that reported its outcome to
	// exit on its own before the process group is killed
	exitWait = 500 * time.Millisecond

	// exit codes of the child
	exitOK       = 0
	exitFailed   = 1
	exitProtocol = 2
)
