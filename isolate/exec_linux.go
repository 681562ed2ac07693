package isolate

import "syscall"

func currentExec() (string, error) {
	return "/proc/self/exe", nil
}

func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
}
