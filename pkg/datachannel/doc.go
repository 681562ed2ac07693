// Package datachannel implements the byte protocol used to move one
// outcome from the child process to its supervisor over a pipe.
//
// # Layout
//
// The results pipe carries, in order:
//
//   - a status word: 4 bytes, big endian, 0 for success and nonzero for
//     failure;
//   - a value: one version byte (Version) followed by a single CBOR data
//     item in Core Deterministic Encoding (RFC 8949 §4.2).
//
// A failed computation sends its error message as a CBOR text string in
// place of the value. CBOR items are self delimiting so no length prefix
// is written.
//
// The same value encoding is used for the request the supervisor sends to
// the child at startup.
//
// Decode reads a single value. A Reader holds one buffered decoder for a
// stream and must be used when several values follow each other.
//
// # I/O
//
// FdWriter retries partial and interrupted writes until all bytes are
// flushed. FdReader waits for data in bounded polls and checks an
// interrupt source between chunks, so a stalled peer cannot hang the
// reader once the caller asks to abort.
package datachannel
