package uatypes

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// GUIDSize is the wire-encoded size of a GUID in bytes.
const GUIDSize = 16

// GUID is a 16-byte globally unique identifier. The wire form is
// little-endian u32, u16, u16, then 8 raw bytes — this differs
// from uuid.UUID's big-endian RFC 4122 byte order, so encode/decode swap
// the first three fields rather than using uuid's own Marshal/Unmarshal.
type GUID [GUIDSize]byte

// NewGUID mints a fresh random GUID via google/uuid (v4).
func NewGUID() GUID {
	var g GUID
	copy(g[:], uuid.New()[:])
	return g
}

// ParseGUID parses a canonical "xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx" string.
func ParseGUID(s string) (GUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return GUID{}, err
	}
	var g GUID
	copy(g[:], u[:])
	return g, nil
}

// String returns the canonical hyphenated hex representation.
func (g GUID) String() string {
	return uuid.UUID(g).String()
}

// EncodeTo writes the GUID's wire form (u32,u16,u16 little-endian, then 8
// raw bytes) into buf, which must be at least GUIDSize bytes.
func (g GUID) EncodeTo(buf []byte) {
	// uuid.UUID keeps RFC 4122 big-endian field order; re-pack into the
	// OPC UA little-endian field order.
	binary.LittleEndian.PutUint32(buf[0:4], binary.BigEndian.Uint32(g[0:4]))
	binary.LittleEndian.PutUint16(buf[4:6], binary.BigEndian.Uint16(g[4:6]))
	binary.LittleEndian.PutUint16(buf[6:8], binary.BigEndian.Uint16(g[6:8]))
	copy(buf[8:16], g[8:16])
}

// DecodeGUID reads a GUID from its wire form.
func DecodeGUID(buf []byte) (GUID, error) {
	if len(buf) < GUIDSize {
		return GUID{}, ErrShortRead
	}
	var g GUID
	binary.BigEndian.PutUint32(g[0:4], binary.LittleEndian.Uint32(buf[0:4]))
	binary.BigEndian.PutUint16(g[4:6], binary.LittleEndian.Uint16(buf[4:6]))
	binary.BigEndian.PutUint16(g[6:8], binary.LittleEndian.Uint16(buf[6:8]))
	copy(g[8:16], buf[8:16])
	return g, nil
}
