package datachannel

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// Version is the current value layout version
const Version byte = 1

// Status words
const (
	StatusOK     uint32 = 0
	StatusFailed uint32 = 1
)

// ErrVersion is returned when the peer used an unknown value layout
var ErrVersion = errors.New("datachannel: unsupported layout version")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("datachannel: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// values decoded into any come back as map[string]any so they can
		// be printed or re-encoded as JSON
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("datachannel: CBOR decoder initialization failed: " + err.Error())
	}
}

// RawValue is an encoded CBOR data item, decoding is delayed until the
// receiver knows the type.
type RawValue = cbor.RawMessage

// Marshal encodes v as a CBOR data item (without the version byte)
func Marshal(v any) (RawValue, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes a CBOR data item into v
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Diagnose returns the CBOR diagnostic notation of an encoded value
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}

// WriteStatus writes the status word
func WriteStatus(w io.Writer, status uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], status)
	if _, err := w.Write(b[:]); err != nil {
		return fmt.Errorf("datachannel: write status %w", err)
	}
	return nil
}

// ReadStatus reads the status word. It returns io.EOF when the peer closed
// the pipe without writing anything.
func ReadStatus(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		if err == io.EOF {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("datachannel: read status %w", err)
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

// Encode writes the version byte followed by v encoded as CBOR
func Encode(w io.Writer, v any) error {
	b, err := encMode.Marshal(v)
	if err != nil {
		return fmt.Errorf("datachannel: encode %w", err)
	}
	buf := make([]byte, 0, len(b)+1)
	buf = append(buf, Version)
	buf = append(buf, b...)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("datachannel: write value %w", err)
	}
	return nil
}

// Decode reads one value written by Encode into v. The decoder buffers, so
// r may be consumed past the value: use a Reader for a stream of values.
func Decode(r io.Reader, v any) error {
	return NewReader(r).Decode(v)
}

// Reader decodes the values written by consecutive Encode calls on one
// stream. It owns the buffered bytes of r, r must not be read elsewhere.
type Reader struct {
	dec *cbor.Decoder
}

// NewReader returns a Reader of the values in r
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: decMode.NewDecoder(r)}
}

// Decode reads the next value into v
func (r *Reader) Decode(v any) error {
	// the version byte is a CBOR unsigned integer below 24
	var ver uint64
	if err := r.dec.Decode(&ver); err != nil {
		var typeErr *cbor.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return fmt.Errorf("%w: %v", ErrVersion, err)
		}
		return fmt.Errorf("datachannel: read version %w", err)
	}
	if ver != uint64(Version) {
		return fmt.Errorf("%w: %d", ErrVersion, ver)
	}
	if err := r.dec.Decode(v); err != nil {
		return fmt.Errorf("datachannel: decode %w", err)
	}
	return nil
}
