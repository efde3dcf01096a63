package bancho

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Tagged-string sentinels. An empty string is encoded as the single byte
// 0x00 with no length; a present string is 0x0B followed by a ULEB128
// length and the raw UTF-8 bytes.
const (
	stringEmpty   = 0x00
	stringPresent = 0x0B
)

// HeaderSize is the fixed size of a packet header:
// i16 packet id, u8 compression flag, u32 payload length (all LE).
const HeaderSize = 7

// Writer is an append buffer for producing outgoing packet data.
// All multi-byte values are Little-Endian.
type Writer struct {
	buf []byte
}

// NewWriter creates a writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// WriteUint8 writes a single byte.
func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

// WriteBool writes a bool as one byte (1 = true, 0 = false).
func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

// WriteInt16 writes an int16 (2 bytes, LE).
func (w *Writer) WriteInt16(v int16) {
	w.buf = append(w.buf, byte(v), byte(v>>8))
}

// WriteUint32 writes a uint32 (4 bytes, LE).
func (w *Writer) WriteUint32(v uint32) {
	w.buf = append(w.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// WriteInt32 writes an int32 (4 bytes, LE).
func (w *Writer) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

// WriteInt64 writes an int64 (8 bytes, LE).
func (w *Writer) WriteInt64(v int64) {
	w.buf = append(w.buf,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

// WriteFloat32 writes a float32 (4 bytes, LE, IEEE-754).
func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WriteULEB writes an unsigned integer in ULEB128 form: seven data bits
// per byte, MSB set while more bytes follow. Zero encodes as one 0x00 byte.
func (w *Writer) WriteULEB(n uint32) {
	for {
		b := byte(n & 0x7F)
		n >>= 7
		if n != 0 {
			w.buf = append(w.buf, b|0x80)
			continue
		}
		w.buf = append(w.buf, b)
		return
	}
}

// WriteString writes a tagged string: 0x00 alone for the empty string,
// otherwise 0x0B, a ULEB128 byte length, and the UTF-8 bytes.
func (w *Writer) WriteString(s string) {
	if s == "" {
		w.WriteUint8(stringEmpty)
		return
	}
	w.WriteUint8(stringPresent)
	w.WriteULEB(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteRaw appends raw bytes.
func (w *Writer) WriteRaw(data []byte) {
	w.buf = append(w.buf, data...)
}

// WithHeader frames one packet: it records the start offset, writes a
// zeroed 7-byte header, runs f to append the payload, then back-patches
// the payload length into the header. The length is not known up front,
// which is the whole reason this scoped form exists.
func (w *Writer) WithHeader(id int16, f func(*Writer)) {
	start := len(w.buf)
	w.WriteInt16(id)
	w.WriteUint8(0) // compression flag, always 0
	w.WriteUint32(0)

	f(w)

	binary.LittleEndian.PutUint32(w.buf[start+3:start+HeaderSize], uint32(len(w.buf)-start-HeaderSize))
}

// Bytes returns the accumulated data.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the current length of the buffer.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Reset clears the buffer for reuse.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}

// Reader is a cursor over incoming packet bytes.
// All multi-byte values are Little-Endian.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// ReadUint8 reads a single byte.
func (r *Reader) ReadUint8() (uint8, error) {
	if r.pos >= len(r.data) {
		return 0, fmt.Errorf("ReadUint8: not enough data (pos=%d, len=%d)", r.pos, len(r.data))
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadBool reads a bool; any nonzero byte is true.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadUint8()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// ReadInt16 reads an int16 (2 bytes, LE).
func (r *Reader) ReadInt16() (int16, error) {
	if r.pos+2 > len(r.data) {
		return 0, fmt.Errorf("ReadInt16: not enough data (pos=%d, len=%d)", r.pos, len(r.data))
	}
	v := int16(binary.LittleEndian.Uint16(r.data[r.pos:]))
	r.pos += 2
	return v, nil
}

// ReadUint32 reads a uint32 (4 bytes, LE).
func (r *Reader) ReadUint32() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("ReadUint32: not enough data (pos=%d, len=%d)", r.pos, len(r.data))
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadInt32 reads an int32 (4 bytes, LE).
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadInt64 reads an int64 (8 bytes, LE).
func (r *Reader) ReadInt64() (int64, error) {
	if r.pos+8 > len(r.data) {
		return 0, fmt.Errorf("ReadInt64: not enough data (pos=%d, len=%d)", r.pos, len(r.data))
	}
	v := int64(binary.LittleEndian.Uint64(r.data[r.pos:]))
	r.pos += 8
	return v, nil
}

// ReadFloat32 reads a float32 (4 bytes, LE, IEEE-754).
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadULEB reads a ULEB128 value with the uniform loop: seven bits per
// byte accumulated at shifts 0, 7, 14, … until a byte with the MSB clear.
// A first byte with the continuation bit clear is just the one-byte case
// of the same loop.
func (r *Reader) ReadULEB() (uint32, error) {
	var result uint32
	var shift uint
	for {
		b, err := r.ReadUint8()
		if err != nil {
			return 0, fmt.Errorf("ReadULEB: %w", err)
		}
		result |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if shift > 28 {
			return 0, fmt.Errorf("ReadULEB: value overflows 32 bits (pos=%d)", r.pos)
		}
	}
}

// ReadString reads a tagged string. Exactly length bytes are consumed for
// the payload, and any 0x00 or 0x0B bytes are stripped from the result.
func (r *Reader) ReadString() (string, error) {
	sentinel, err := r.ReadUint8()
	if err != nil {
		return "", fmt.Errorf("ReadString: %w", err)
	}
	switch sentinel {
	case stringEmpty:
		return "", nil
	case stringPresent:
		n, err := r.ReadULEB()
		if err != nil {
			return "", fmt.Errorf("ReadString: %w", err)
		}
		raw, err := r.ReadBytes(int(n))
		if err != nil {
			return "", fmt.Errorf("ReadString: %w", err)
		}
		return stripControl(raw), nil
	default:
		return "", fmt.Errorf("ReadString: bad sentinel 0x%02X (pos=%d)", sentinel, r.pos-1)
	}
}

// ReadBytes reads n bytes as a subslice of the underlying data (no copy).
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("ReadBytes: negative count %d", n)
	}
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("ReadBytes: not enough data (pos=%d, need=%d, len=%d)", r.pos, n, len(r.data))
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Position returns the current read position.
func (r *Reader) Position() int {
	return r.pos
}

// stripControl drops the 0x00 and 0x0B bytes the wire format reserves.
func stripControl(raw []byte) string {
	clean := true
	for _, b := range raw {
		if b == stringEmpty || b == stringPresent {
			clean = false
			break
		}
	}
	if clean {
		return string(raw)
	}
	out := make([]byte, 0, len(raw))
	for _, b := range raw {
		if b != stringEmpty && b != stringPresent {
			out = append(out, b)
		}
	}
	return string(out)
}
