package isolate

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/criyle/go-evalfork/pkg/datachannel"
)

// Computation is the code evaluated in the child. Its output goes to the
// writers of call, its return value to the supervisor. ctx is cancelled when
// the child receives SIGINT, the first step of the termination ladder.
type Computation func(ctx context.Context, call *Call) (any, error)

// Call is the context of one computation inside the child
type Call struct {
	// Name is the name the computation was registered with
	Name string

	// Stdout and Stderr are the child's output streams
	Stdout io.Writer
	Stderr io.Writer

	arg datachannel.RawValue
}

// Arg decodes the argument passed to Supervisor.Run into v
func (c *Call) Arg(v any) error {
	if len(c.arg) == 0 {
		return fmt.Errorf("isolate: %s: no argument", c.Name)
	}
	if err := datachannel.Unmarshal(c.arg, v); err != nil {
		return fmt.Errorf("isolate: %s: decode argument %w", c.Name, err)
	}
	return nil
}

var registry = struct {
	sync.RWMutex
	m map[string]Computation
}{m: make(map[string]Computation)}

// Register makes fn available under name in this executable. It panics on
// an empty name, a nil function or a name registered twice.
func Register(name string, fn Computation) {
	if name == "" {
		panic("isolate: Register with empty name")
	}
	if fn == nil {
		panic("isolate: Register " + name + " with nil computation")
	}
	registry.Lock()
	defer registry.Unlock()
	if _, dup := registry.m[name]; dup {
		panic("isolate: Register called twice for " + name)
	}
	registry.m[name] = fn
}

// RegisterFunc registers a computation taking a typed argument
func RegisterFunc[A, R any](name string, fn func(ctx context.Context, call *Call, arg A) (R, error)) {
	Register(name, func(ctx context.Context, call *Call) (any, error) {
		var arg A
		if err := call.Arg(&arg); err != nil {
			return nil, err
		}
		return fn(ctx, call, arg)
	})
}

// Registered lists the registered names in order
func Registered() []string {
	registry.RLock()
	defer registry.RUnlock()
	names := make([]string, 0, len(registry.m))
	for n := range registry.m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func lookup(name string) (Computation, bool) {
	registry.RLock()
	defer registry.RUnlock()
	fn, ok := registry.m[name]
	return fn, ok
}
