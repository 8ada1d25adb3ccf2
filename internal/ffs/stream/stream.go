// Package stream implements the bounded byte buffer underlying all DSS
// request assembly, crypto inputs and codec sinks. A stream is a fixed
// capacity buffer with a write cursor and a read cursor: bytes in
// [processed, data) are readable and bytes in [data, capacity) are
// writable. Reads and writes never wrap; a full stream stays full until
// flushed.
package stream

import (
	"bytes"
	"fmt"

	"github.com/ffs-wifi/provisionee/internal/model"
)

// Stream is a bounded mutable byte buffer with separate read and write
// cursors. The zero value is the immutable null stream: a valid, empty
// stream with zero capacity.
type Stream struct {
	buf       []byte
	data      int // write cursor; bytes below it hold data
	processed int // read cursor; always <= data
}

// NewOutput returns an empty stream with the given capacity: no readable
// data, all space writable.
func NewOutput(capacity int) *Stream {
	return &Stream{buf: make([]byte, capacity)}
}

// NewOutputBuffer wraps an existing buffer as an empty output stream.
// The buffer's full length is the stream capacity.
func NewOutputBuffer(buf []byte) *Stream {
	return &Stream{buf: buf}
}

// NewInput returns a stream whose readable region is a copy of data and
// which has no writable space.
func NewInput(data []byte) *Stream {
	buf := append([]byte(nil), data...)
	return &Stream{buf: buf, data: len(buf)}
}

// NewInputString returns an input stream over the bytes of s.
func NewInputString(s string) *Stream {
	return NewInput([]byte(s))
}

// Capacity returns the total buffer size.
func (s *Stream) Capacity() int {
	return len(s.buf)
}

// DataSize returns the number of readable bytes.
func (s *Stream) DataSize() int {
	return s.data - s.processed
}

// SpaceSize returns the number of writable bytes.
func (s *Stream) SpaceSize() int {
	return len(s.buf) - s.data
}

// IsEmpty reports whether no readable bytes remain.
func (s *Stream) IsEmpty() bool {
	return s.DataSize() == 0
}

// IsFull reports whether no writable space remains.
func (s *Stream) IsFull() bool {
	return s.SpaceSize() == 0
}

// Data returns the readable region. The slice aliases the stream buffer
// and is invalidated by the next mutation.
func (s *Stream) Data() []byte {
	return s.buf[s.processed:s.data]
}

// Read consumes n bytes and returns them. The returned slice aliases the
// stream buffer. Reading more than DataSize fails with ErrUnderrun.
func (s *Stream) Read(n int) ([]byte, error) {
	if n > s.DataSize() {
		return nil, fmt.Errorf("%w: reading %d of %d bytes", model.ErrUnderrun, n, s.DataSize())
	}
	out := s.buf[s.processed : s.processed+n]
	s.processed += n
	return out, nil
}

// ReadByte consumes and returns one byte.
func (s *Stream) ReadByte() (byte, error) {
	b, err := s.Read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Skip discards n readable bytes.
func (s *Stream) Skip(n int) error {
	_, err := s.Read(n)
	return err
}

// Write appends p to the data region. Writing more than SpaceSize fails
// with ErrOverrun and leaves the stream unchanged.
func (s *Stream) Write(p []byte) error {
	if len(p) > s.SpaceSize() {
		return fmt.Errorf("%w: writing %d into %d bytes", model.ErrOverrun, len(p), s.SpaceSize())
	}
	copy(s.buf[s.data:], p)
	s.data += len(p)
	return nil
}

// WriteByte appends a single byte.
func (s *Stream) WriteByte(b byte) error {
	if s.IsFull() {
		return fmt.Errorf("%w: writing 1 byte into full stream", model.ErrOverrun)
	}
	s.buf[s.data] = b
	s.data++
	return nil
}

// WriteString appends the bytes of str with no terminator.
func (s *Stream) WriteString(str string) error {
	if len(str) > s.SpaceSize() {
		return fmt.Errorf("%w: writing %d into %d bytes", model.ErrOverrun, len(str), s.SpaceSize())
	}
	copy(s.buf[s.data:], str)
	s.data += len(str)
	return nil
}

// Flush resets both cursors, making the whole buffer writable again.
func (s *Stream) Flush() {
	s.data = 0
	s.processed = 0
}

// Rewind resets the read cursor without losing data, so the readable
// region grows back to everything written. Idempotent.
func (s *Stream) Rewind() {
	s.processed = 0
}

// Append copies the readable portion of s into dst without consuming it.
func (s *Stream) Append(dst *Stream) error {
	return dst.Write(s.Data())
}

// AppendConsuming copies the readable portion of s into dst and consumes it.
func (s *Stream) AppendConsuming(dst *Stream) error {
	if err := dst.Write(s.Data()); err != nil {
		return err
	}
	s.processed = s.data
	return nil
}

// MatchesString reports whether the readable region equals str exactly.
func (s *Stream) MatchesString(str string) bool {
	return string(s.Data()) == str
}

// Matches reports whether two streams have identical readable regions.
func (s *Stream) Matches(other *Stream) bool {
	return bytes.Equal(s.Data(), other.Data())
}

// ReadExpected consumes the bytes of expected from the stream, failing
// with ErrUnderrun if the stream is shorter and ErrInvalidArgument if the
// bytes differ.
func (s *Stream) ReadExpected(expected string) error {
	got, err := s.Read(len(expected))
	if err != nil {
		return err
	}
	if string(got) != expected {
		return fmt.Errorf("%w: expected %q, read %q", model.ErrInvalidArgument, expected, got)
	}
	return nil
}

// MoveDataToEnd shifts the readable bytes to the tail of the buffer so the
// head becomes writable scratch. After the move the readable region ends
// at capacity. Used for in-place transforms that read their own output
// buffer, e.g. base64-then-prefix.
func (s *Stream) MoveDataToEnd() {
	n := s.DataSize()
	offset := len(s.buf) - n
	copy(s.buf[offset:], s.buf[s.processed:s.data])
	s.processed = offset
	s.data = len(s.buf)
}

// Reuse returns a fresh output stream over the writable tail of s. Data
// written through the returned stream lands in s's free space but is not
// visible to s until written again; callers use it as scratch that shares
// the same allocation.
func (s *Stream) Reuse() *Stream {
	return &Stream{buf: s.buf[s.data:]}
}
