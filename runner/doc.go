// Package runner provides the common result types for isolated evaluation
// including Result, Status and Size.
//
// Status
//
// Status defines the evaluation outcome including
//  Normal
//  Evaluation Fault
//      Time Limit Exceeded (killed after the wall-clock timeout)
//      Cancelled (killed after the caller requested an abort)
//      Child Error (computation reported an error message)
//      Child Died (child exited without reporting)
//  Runner Error (pipes or process could not be created)
//
// Size
//
// Size defines size in bytes, underlying type is uint64 so it
// is effective to store up to EiB of size
//
// Result
//
// Result defines the evaluation result including
// Status, ExitStatus, Detailed Error, the encoded Value,
// the number of escalation steps, SetupTime and RunningTime (in real clock)
package runner
