// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package noita

import (
	"encoding/binary"
	"fmt"
	"math"
)

// checkBounds reports whether width bytes are available at off.
func checkBounds(b []byte, off, width int) error {
	if off < 0 || width > len(b) || off > len(b)-width {
		return fmt.Errorf("%w: %d bytes at offset %d, buffer is %d bytes", ErrOutOfBounds, width, off, len(b))
	}
	return nil
}

// ReadUint32 reads a 32-bit unsigned integer at off.
func ReadUint32(b []byte, off int, order binary.ByteOrder) (uint32, error) {
	if err := checkBounds(b, off, 4); err != nil {
		return 0, err
	}
	return order.Uint32(b[off:]), nil
}

// ReadUint64 reads a 64-bit unsigned integer at off.
func ReadUint64(b []byte, off int, order binary.ByteOrder) (uint64, error) {
	if err := checkBounds(b, off, 8); err != nil {
		return 0, err
	}
	return order.Uint64(b[off:]), nil
}

// ReadFloat32 reads an IEEE-754 single by reinterpreting the 32-bit pattern at off.
func ReadFloat32(b []byte, off int, order binary.ByteOrder) (float32, error) {
	v, err := ReadUint32(b, off, order)
	return math.Float32frombits(v), err
}

// ReadFloat64 reads an IEEE-754 double by reinterpreting the 64-bit pattern at off.
func ReadFloat64(b []byte, off int, order binary.ByteOrder) (float64, error) {
	v, err := ReadUint64(b, off, order)
	return math.Float64frombits(v), err
}

// ReadBool reads a single byte at off; any nonzero value is true.
func ReadBool(b []byte, off int) (bool, error) {
	if err := checkBounds(b, off, 1); err != nil {
		return false, err
	}
	return b[off] != 0, nil
}

// PutUint32 writes v at off.
func PutUint32(b []byte, off int, v uint32, order binary.ByteOrder) error {
	if err := checkBounds(b, off, 4); err != nil {
		return err
	}
	order.PutUint32(b[off:], v)
	return nil
}

// PutUint64 writes v at off.
func PutUint64(b []byte, off int, v uint64, order binary.ByteOrder) error {
	if err := checkBounds(b, off, 8); err != nil {
		return err
	}
	order.PutUint64(b[off:], v)
	return nil
}

// PutFloat32 writes the bit pattern of v at off.
func PutFloat32(b []byte, off int, v float32, order binary.ByteOrder) error {
	return PutUint32(b, off, math.Float32bits(v), order)
}

// PutFloat64 writes the bit pattern of v at off.
func PutFloat64(b []byte, off int, v float64, order binary.ByteOrder) error {
	return PutUint64(b, off, math.Float64bits(v), order)
}

// PutBool writes v as a single byte (1 or 0) at off.
func PutBool(b []byte, off int, v bool) error {
	if err := checkBounds(b, off, 1); err != nil {
		return err
	}
	b[off] = 0
	if v {
		b[off] = 1
	}
	return nil
}

// Reader decodes sequential fields from an in-memory buffer.
// Each read advances the cursor by exactly the bytes consumed; a read that
// does not fit fails without moving the cursor.
type Reader struct {
	buf   []byte
	off   int
	order binary.ByteOrder
}

// NewReader returns a Reader over buf using the given byte order.
func NewReader(buf []byte, order binary.ByteOrder) *Reader {
	return &Reader{buf: buf, order: order}
}

// Offset returns the cursor position.
func (r *Reader) Offset() int { return r.off }

// Len returns the number of unread bytes.
func (r *Reader) Len() int { return len(r.buf) - r.off }

// Next returns the next n bytes without copying them.
func (r *Reader) Next(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d at offset %d", ErrOutOfBounds, n, r.off)
	}
	if err := checkBounds(r.buf, r.off, n); err != nil {
		return nil, err
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// Bytes returns a copy of the next n bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	b, err := r.Next(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// Uint16 reads a 16-bit unsigned integer.
func (r *Reader) Uint16() (uint16, error) {
	b, err := r.Next(2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(b), nil
}

// Uint32 reads a 32-bit unsigned integer.
func (r *Reader) Uint32() (uint32, error) {
	v, err := ReadUint32(r.buf, r.off, r.order)
	if err == nil {
		r.off += 4
	}
	return v, err
}

// Int32 reads a 32-bit signed integer.
func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

// Uint64 reads a 64-bit unsigned integer.
func (r *Reader) Uint64() (uint64, error) {
	v, err := ReadUint64(r.buf, r.off, r.order)
	if err == nil {
		r.off += 8
	}
	return v, err
}

// Float32 reads an IEEE-754 single.
func (r *Reader) Float32() (float32, error) {
	v, err := r.Uint32()
	return math.Float32frombits(v), err
}

// Float64 reads an IEEE-754 double.
func (r *Reader) Float64() (float64, error) {
	v, err := r.Uint64()
	return math.Float64frombits(v), err
}

// Bool reads a single byte; nonzero is true.
func (r *Reader) Bool() (bool, error) {
	v, err := ReadBool(r.buf, r.off)
	if err == nil {
		r.off++
	}
	return v, err
}

// SizedString reads a 32-bit length followed by that many bytes.
// The bytes are copied and not checked for valid UTF-8.
func (r *Reader) SizedString() (string, error) {
	start := r.off
	n, err := r.Uint32()
	if err != nil {
		return "", err
	}
	if uint64(n) > uint64(r.Len()) {
		r.off = start
		return "", fmt.Errorf("%w: string of %d bytes at offset %d, %d remaining", ErrOutOfBounds, n, start+4, r.Len())
	}
	b, _ := r.Next(int(n))
	return string(b), nil
}

// Writer encodes sequential fields into a growing buffer.
type Writer struct {
	buf   []byte
	order binary.AppendByteOrder
}

// NewWriter returns an empty Writer using the given byte order.
func NewWriter(order binary.AppendByteOrder) *Writer {
	return &Writer{order: order}
}

// Bytes returns the encoded buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written.
func (w *Writer) Len() int { return len(w.buf) }

// Write appends raw bytes. It never fails.
func (w *Writer) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (w *Writer) Uint16(v uint16) { w.buf = w.order.AppendUint16(w.buf, v) }
func (w *Writer) Uint32(v uint32) { w.buf = w.order.AppendUint32(w.buf, v) }
func (w *Writer) Int32(v int32)   { w.Uint32(uint32(v)) }
func (w *Writer) Uint64(v uint64) { w.buf = w.order.AppendUint64(w.buf, v) }

func (w *Writer) Float32(v float32) { w.Uint32(math.Float32bits(v)) }
func (w *Writer) Float64(v float64) { w.Uint64(math.Float64bits(v)) }

func (w *Writer) Bool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

// SizedString writes a 32-bit length followed by the bytes of s.
func (w *Writer) SizedString(s string) {
	w.Uint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}
