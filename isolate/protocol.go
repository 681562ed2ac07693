package isolate

import (
	"fmt"
	"os"

	"github.com/criyle/go-evalfork/pkg/datachannel"
)

// request is sent by the supervisor through the request pipe, the child
// reads it once before running anything
type request struct {
	Version string               `cbor:"version"`
	Name    string               `cbor:"name"`
	Arg     datachannel.RawValue `cbor:"arg"`
	Setup   *Setup               `cbor:"setup,omitempty"`
	Parent  int                  `cbor:"parent"`
}

func readRequest(fd int) (*request, error) {
	f := os.NewFile(uintptr(fd), "request")
	if f == nil {
		return nil, fmt.Errorf("request fd(%d) is not open", fd)
	}
	defer f.Close()

	req := new(request)
	if err := datachannel.Decode(f, req); err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	if req.Version != execVersion {
		return nil, fmt.Errorf("request version %q, expected %q", req.Version, execVersion)
	}
	return req, nil
}
