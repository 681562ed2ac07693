//go:build unix && !linux

package isolate

import (
	"os"
	"syscall"
)

func currentExec() (string, error) {
	return os.Executable()
}

func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid: true,
	}
}
