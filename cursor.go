// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dat

package dat

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Cursor is a seekable reader/writer over a growable byte buffer.
// Byte order is fixed per cursor.
type Cursor struct {
	order binary.ByteOrder
	buf   []byte
	pos   int
}

// NewCursor wraps buf with a cursor at offset zero. Pass nil to start an empty writer.
func NewCursor(buf []byte, order ByteOrder) *Cursor {
	return &Cursor{buf: buf, order: order.binaryOrder()}
}

// Pos returns current offset.
func (c *Cursor) Pos() int {
	return c.pos
}

// Len returns buffer length.
func (c *Cursor) Len() int {
	return len(c.buf)
}

// Bytes returns the underlying buffer.
func (c *Cursor) Bytes() []byte {
	return c.buf
}

// Seek sets absolute position. Seeking past the end is allowed; reads there fail
// and writes zero-fill the gap.
func (c *Cursor) Seek(offset int) error {
	if offset < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSeek, offset)
	}

	c.pos = offset
	return nil
}

// Remaining returns readable bytes after current position.
func (c *Cursor) Remaining() int {
	if c.pos >= len(c.buf) {
		return 0
	}

	return len(c.buf) - c.pos
}

// next returns the next n bytes and advances position.
func (c *Cursor) next(n int) ([]byte, error) {
	if n < 0 || c.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset 0x%x, have %d", ErrTruncatedInput, n, c.pos, c.Remaining())
	}

	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// ReadBytes returns a copy of the next n bytes.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	b, err := c.next(n)
	if err != nil {
		return nil, err
	}

	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadFixedString reads exactly n bytes and trims trailing NUL padding.
func (c *Cursor) ReadFixedString(n int) (string, error) {
	b, err := c.next(n)
	if err != nil {
		return "", err
	}

	return string(bytes.TrimRight(b, "\x00")), nil
}

// ReadCString reads exactly n bytes and keeps the text before the first NUL.
func (c *Cursor) ReadCString(n int) (string, error) {
	b, err := c.next(n)
	if err != nil {
		return "", err
	}

	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}

	return string(b), nil
}

// ReadU16 reads an unsigned 16-bit integer.
func (c *Cursor) ReadU16() (uint16, error) {
	b, err := c.next(2)
	if err != nil {
		return 0, err
	}

	return c.order.Uint16(b), nil
}

// ReadI16 reads a signed 16-bit integer.
func (c *Cursor) ReadI16() (int16, error) {
	v, err := c.ReadU16()
	return int16(v), err //nolint:gosec // two's complement reinterpretation
}

// ReadU32 reads an unsigned 32-bit integer.
func (c *Cursor) ReadU32() (uint32, error) {
	b, err := c.next(4)
	if err != nil {
		return 0, err
	}

	return c.order.Uint32(b), nil
}

// ReadI32 reads a signed 32-bit integer.
func (c *Cursor) ReadI32() (int32, error) {
	v, err := c.ReadU32()
	return int32(v), err //nolint:gosec // two's complement reinterpretation
}

// reserve makes room for n bytes at position and returns the writable window.
func (c *Cursor) reserve(n int) []byte {
	end := c.pos + n
	if end > len(c.buf) {
		if end > cap(c.buf) {
			grown := make([]byte, len(c.buf), max(end, 2*cap(c.buf)))
			copy(grown, c.buf)
			c.buf = grown
		}

		// Re-slicing may expose stale bytes from a reused backing array.
		tail := c.buf[len(c.buf):end]
		clear(tail)
		c.buf = c.buf[:end]
	}

	w := c.buf[c.pos:end]
	c.pos = end
	return w
}

// WriteBytes writes b at current position, extending the buffer when needed.
func (c *Cursor) WriteBytes(b []byte) {
	copy(c.reserve(len(b)), b)
}

// WriteFixedString writes s followed by zero padding up to width.
func (c *Cursor) WriteFixedString(s string, width int) error {
	if len(s) > width {
		return fmt.Errorf("%w: %q is %d bytes, width %d", ErrFieldTooLong, s, len(s), width)
	}

	w := c.reserve(width)
	n := copy(w, s)
	clear(w[n:])
	return nil
}

// WriteU16 writes an unsigned 16-bit integer.
func (c *Cursor) WriteU16(v uint16) {
	c.order.PutUint16(c.reserve(2), v)
}

// WriteI16 writes a signed 16-bit integer.
func (c *Cursor) WriteI16(v int16) {
	c.WriteU16(uint16(v)) //nolint:gosec // two's complement reinterpretation
}

// WriteU32 writes an unsigned 32-bit integer.
func (c *Cursor) WriteU32(v uint32) {
	c.order.PutUint32(c.reserve(4), v)
}

// WriteI32 writes a signed 32-bit integer.
func (c *Cursor) WriteI32(v int32) {
	c.WriteU32(uint32(v)) //nolint:gosec // two's complement reinterpretation
}

// PatchU32 overwrites 4 bytes at an absolute offset and keeps current position.
func (c *Cursor) PatchU32(at int, v uint32) error {
	if at < 0 || at+4 > len(c.buf) {
		return fmt.Errorf("%w: patch at 0x%x outside buffer of %d bytes", ErrInvalidSeek, at, len(c.buf))
	}

	c.order.PutUint32(c.buf[at:at+4], v)
	return nil
}

// Align advances position to the next multiple of boundary, zero-filling the gap.
func (c *Cursor) Align(boundary int) {
	if pad := alignPadding(c.pos, boundary); pad > 0 {
		clear(c.reserve(pad))
	}
}

// alignPadding returns bytes needed to move offset to a multiple of boundary.
func alignPadding(offset int, boundary int) int {
	if boundary <= 1 {
		return 0
	}

	if m := offset % boundary; m != 0 {
		return boundary - m
	}

	return 0
}
