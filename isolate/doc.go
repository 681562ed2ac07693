/*
Package isolate evaluates registered computations in a child process.

The child is a re-execution of the current executable. Init must be the first
call in main (or TestMain) of every program that uses a Supervisor, so the
re-executed copy becomes the child instead of running the program again:

	func main() {
		isolate.Init()
		...
	}

Computations are registered by name at package init time, so that both the
supervising process and the child know them:

	func init() {
		isolate.Register("square", func(ctx context.Context, call *isolate.Call) (any, error) {
			var n int
			if err := call.Arg(&n); err != nil {
				return nil, err
			}
			return n * n, nil
		})
	}

	v, err := isolate.Evaluate[int](ctx, &isolate.Supervisor{Timeout: time.Second}, "square", 7)

The child leads its own process group. A Supervisor streams the child's
stdout and stderr to its sinks while waiting for the result, escalates
SIGINT, SIGTERM and SIGKILL to the process group on timeout or cancellation,
and always kills the whole group and reaps the child before returning.

File descriptors of the child:

	0: /dev/null
	1: stdout pipe
	2: stderr pipe
	3: request pipe (read end)
	4: results pipe (write end)
*/
package isolate
