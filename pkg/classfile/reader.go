package classfile

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Reader is a forward-only cursor over a class file held in memory.
// All multi-byte values are big-endian. A read either consumes its full
// width or fails with ErrUnexpectedEOF and leaves the position unchanged.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Pos returns the current read offset.
func (r *Reader) Pos() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Done reports whether every byte has been consumed.
func (r *Reader) Done() bool {
	return r.pos >= len(r.data)
}

func (r *Reader) need(n int, what string) error {
	if n < 0 || r.Remaining() < n {
		return fmt.Errorf("%s at offset %d: need %d bytes, have %d: %w",
			what, r.pos, n, r.Remaining(), ErrUnexpectedEOF)
	}
	return nil
}

// U8 reads one unsigned byte.
func (r *Reader) U8() (uint8, error) {
	if err := r.need(1, "u8"); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

// U16 reads a big-endian uint16.
func (r *Reader) U16() (uint16, error) {
	if err := r.need(2, "u16"); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// U32 reads a big-endian uint32.
func (r *Reader) U32() (uint32, error) {
	if err := r.need(4, "u32"); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// U64 reads a big-endian uint64.
func (r *Reader) U64() (uint64, error) {
	if err := r.need(8, "u64"); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

// I8 reads a signed byte.
func (r *Reader) I8() (int8, error) {
	v, err := r.U8()
	return int8(v), err
}

// I16 reads a big-endian int16.
func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

// I32 reads a big-endian int32.
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

// F32 reads an IEEE 754 single-precision float.
func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	return math.Float32frombits(v), err
}

// F64 reads an IEEE 754 double-precision float.
func (r *Reader) F64() (float64, error) {
	v, err := r.U64()
	return math.Float64frombits(v), err
}

// Bytes reads n raw bytes. The returned slice is a copy.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if err := r.need(n, fmt.Sprintf("bytes(%d)", n)); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, r.data[r.pos:r.pos+n])
	r.pos += n
	return b, nil
}

// String reads n bytes and decodes them as UTF-8. Invalid sequences are
// replaced with U+FFFD rather than failing the read.
func (r *Reader) String(n int) (string, error) {
	if err := r.need(n, fmt.Sprintf("string(%d)", n)); err != nil {
		return "", err
	}
	s := strings.ToValidUTF8(string(r.data[r.pos:r.pos+n]), "�")
	r.pos += n
	return s, nil
}
