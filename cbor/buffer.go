package cbor

import (
	"bytes"
	"encoding/hex"
)

// Buffer is an owned, growable byte sequence with content-wise equality,
// lexicographic comparison, and hex import/export. It is the component
// every higher-level codec (PlutusData byte strings, hashes, CBOR-encoded
// sub-items) builds on instead of passing bare []byte around uncopied.
type Buffer struct {
	data []byte
}

// NewBuffer wraps a copy of src so the Buffer owns independent storage.
func NewBuffer(src []byte) *Buffer {
	b := &Buffer{data: make([]byte, len(src))}
	copy(b.data, src)
	return b
}

// NewBufferFromHex decodes a hex string into a new Buffer.
func NewBufferFromHex(s string) (*Buffer, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, newErr(KindDecoding, "invalid hex: %v", err)
	}
	return &Buffer{data: raw}, nil
}

// Bytes returns the buffer's content. Callers must not mutate the result.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

// Len returns the number of bytes held.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Hex returns the lowercase hex encoding of the buffer.
func (b *Buffer) Hex() string {
	return hex.EncodeToString(b.Bytes())
}

// Append returns a new Buffer equal to b with more bytes appended.
func (b *Buffer) Append(more []byte) *Buffer {
	out := make([]byte, 0, b.Len()+len(more))
	out = append(out, b.Bytes()...)
	out = append(out, more...)
	return &Buffer{data: out}
}

// Slice returns a new Buffer holding a copy of data[from:to].
// Fails with InsufficientBufferSize when the buffer is empty, and with
// IndexOutOfBounds when the range does not lie within the buffer.
func (b *Buffer) Slice(from, to int) (*Buffer, error) {
	if b.Len() == 0 {
		return nil, newErr(KindInsufficientBuffer, "slice of empty buffer")
	}
	if from < 0 || to > b.Len() || from > to {
		return nil, newErr(KindIndexOutOfBounds, "slice [%d:%d] out of bounds (len=%d)", from, to, b.Len())
	}
	return NewBuffer(b.data[from:to]), nil
}

// Equal reports whether two buffers hold identical content.
func (b *Buffer) Equal(other *Buffer) bool {
	return bytes.Equal(b.Bytes(), other.Bytes())
}

// Compare returns -1, 0, or 1 per bytes.Compare byte-lexicographic ordering.
func (b *Buffer) Compare(other *Buffer) int {
	return bytes.Compare(b.Bytes(), other.Bytes())
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	return NewBuffer(b.Bytes())
}
