package viking

import "fmt"

// Payload is a command's argument encoding: it knows its own encoded
// length and can append its bytes to a growing buffer. Implementations
// must be side-effect free and idempotent — Batch may call Len and
// AppendTo any number of times.
type Payload interface {
	Len() int
	AppendTo(buf []byte) []byte
}

// Response is a command's decode contract: a fixed length the pipeline
// reserves in the response buffer, plus a decoder over exactly that many
// bytes.
type Response interface {
	Len() int
	Decode(buf []byte) (any, error)
}

// UnitPayload encodes to zero bytes.
type UnitPayload struct{}

func (UnitPayload) Len() int                  { return 0 }
func (UnitPayload) AppendTo(buf []byte) []byte { return buf }

// U8Payload encodes to a single byte.
type U8Payload uint8

func (p U8Payload) Len() int                  { return 1 }
func (p U8Payload) AppendTo(buf []byte) []byte { return append(buf, uint8(p)) }

// BytesPayload encodes to [len:u8, bytes...]. Len() panics if the slice
// exceeds MaxPayloadLen — oversized payloads are a caller contract
// violation (§7), not a recoverable error.
type BytesPayload []byte

func (p BytesPayload) Len() int {
	if len(p) > MaxPayloadLen {
		panic(fmt.Sprintf("viking: payload of %d bytes exceeds max %d", len(p), MaxPayloadLen))
	}
	return 1 + len(p)
}

func (p BytesPayload) AppendTo(buf []byte) []byte {
	if len(p) > MaxPayloadLen {
		panic(fmt.Sprintf("viking: payload of %d bytes exceeds max %d", len(p), MaxPayloadLen))
	}
	buf = append(buf, uint8(len(p)))
	return append(buf, p...)
}

// VarIntPayload encodes a uint32 as a minimal base-128 continuation-bit
// integer: every byte but the last has its MSB set, and there is never a
// trailing all-continuation byte.
type VarIntPayload uint32

func (p VarIntPayload) encoded() []byte {
	v := uint32(p)
	// Build least-significant group first (the only group without a
	// continuation bit), then reverse into big-endian base-128 order so
	// that continuation bits are set on every byte but the last.
	var groups []byte
	groups = append(groups, byte(v&0x7f))
	v >>= 7
	for v > 0 {
		groups = append(groups, byte(v&0x7f)|0x80)
		v >>= 7
	}
	out := make([]byte, len(groups))
	for i, b := range groups {
		out[len(groups)-1-i] = b
	}
	return out
}

func (p VarIntPayload) Len() int { return len(p.encoded()) }

func (p VarIntPayload) AppendTo(buf []byte) []byte {
	return append(buf, p.encoded()...)
}

// DecodeVarInt reads a minimal base-128 varint from the front of buf and
// returns the value and the number of bytes consumed.
func DecodeVarInt(buf []byte) (uint32, int, error) {
	var v uint32
	for i, b := range buf {
		if i == 4 && b&0x80 != 0 {
			return 0, 0, fmt.Errorf("viking: varint longer than 5 bytes")
		}
		v = (v << 7) | uint32(b&0x7f)
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("viking: truncated varint")
}

// UnitResponse decodes to nothing; Decode always returns nil, nil.
type UnitResponse struct{}

func (UnitResponse) Len() int { return 0 }
func (UnitResponse) Decode(buf []byte) (any, error) {
	return nil, nil
}

// U8Response decodes a single byte.
type U8Response struct{}

func (U8Response) Len() int { return 1 }
func (U8Response) Decode(buf []byte) (any, error) {
	if len(buf) < 1 {
		return nil, fmt.Errorf("viking: u8 response needs 1 byte, got %d", len(buf))
	}
	return buf[0], nil
}

// SliceResponse decodes to a fixed-length view into the response buffer
// it is handed. The returned slice aliases the caller-supplied buffer; it
// is not copied. Callers that need the bytes to outlive the buffer's reuse
// must copy them out (the Queue's scatter path already does this, per
// §4.6).
type SliceResponse int

func (n SliceResponse) Len() int { return int(n) }

func (n SliceResponse) Decode(buf []byte) (any, error) {
	if len(buf) < int(n) {
		return nil, fmt.Errorf("viking: slice response needs %d bytes, got %d", n, len(buf))
	}
	return buf[:n], nil
}
