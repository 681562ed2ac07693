package cancel

import (
	"os"
	"os/signal"
)

// Signal returns a Flag that is set whenever one of sigs is delivered to
// the process. stop releases the signal handler; the flag keeps its value.
func Signal(sigs ...os.Signal) (*Flag, func()) {
	f := new(Flag)
	ch := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(ch, sigs...)
	go func() {
		for {
			select {
			case <-ch:
				f.Set()
			case <-done:
				return
			}
		}
	}()
	return f, func() {
		signal.Stop(ch)
		close(done)
	}
}
