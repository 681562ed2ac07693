package pipe

import (
	"bytes"
	"fmt"
	"io"
)

// Sink receives output chunks. The slice is only valid during the call,
// a sink that keeps the data must copy it.
type Sink func(p []byte)

// Stream tags the origin of a chunk
type Stream uint8

// Output streams of the child
const (
	Stdout Stream = iota + 1
	Stderr
)

func (s Stream) String() string {
	switch s {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	}
	return fmt.Sprintf("stream(%d)", uint8(s))
}

// Chunk is a piece of output together with its stream
type Chunk struct {
	Stream Stream
	Data   []byte
}

// Discard drops all chunks
var Discard Sink = func([]byte) {}

// WriterSink writes every chunk to w, write errors are ignored
func WriterSink(w io.Writer) Sink {
	return func(p []byte) {
		w.Write(p)
	}
}

// Tagged returns a Sink that wraps each chunk with the stream tag
func Tagged(s Stream, fn func(Chunk)) Sink {
	return func(p []byte) {
		fn(Chunk{Stream: s, Data: p})
	}
}

// Limit forwards at most max bytes to sink and drops the rest
func Limit(max int64, sink Sink) Sink {
	remain := max
	return func(p []byte) {
		if remain <= 0 {
			return
		}
		if int64(len(p)) > remain {
			p = p[:remain]
		}
		remain -= int64(len(p))
		sink(p)
	}
}

// Buffer collects at most Max bytes of output, further output is counted
// but dropped
type Buffer struct {
	Max    int64
	Buffer bytes.Buffer

	total int64
}

// NewBuffer creates a Buffer holding up to max bytes
func NewBuffer(max int64) *Buffer {
	return &Buffer{Max: max}
}

// Sink returns the Sink that appends to the buffer
func (b *Buffer) Sink() Sink {
	return func(p []byte) {
		b.total += int64(len(p))
		if remain := b.Max - int64(b.Buffer.Len()); remain > 0 {
			if int64(len(p)) > remain {
				p = p[:remain]
			}
			b.Buffer.Write(p)
		}
	}
}

// Truncated reports whether output was dropped
func (b *Buffer) Truncated() bool {
	return b.total > int64(b.Buffer.Len())
}

func (b *Buffer) String() string {
	return fmt.Sprintf("Buffer[%d/%d]", b.Buffer.Len(), b.Max)
}
