//go:build unix && !linux

package isolate

// processState is unknown without /proc, liveness is checked by kill(0)
func processState(pid int) string {
	return ""
}
