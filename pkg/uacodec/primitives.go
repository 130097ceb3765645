// Package uacodec implements the reflective-free binary (de)serializer
// for the protocol's primitive and composite types: fixed
// width integers, length-prefixed strings and arrays, NodeId, Variant,
// DataValue, ExtensionObject and every service structure built on them.
//
// Every primitive is little-endian on the wire.
package uacodec

import (
	"encoding/binary"
	"math"

	"github.com/mgorny/opcuago/pkg/uatypes"
)

// Encoder serializes values onto a uatypes.Writer.
type Encoder struct {
	w uatypes.Writer
}

// NewEncoder creates an Encoder writing to w.
func NewEncoder(w uatypes.Writer) *Encoder {
	return &Encoder{w: w}
}

// Decoder deserializes values from a uatypes.Reader.
type Decoder struct {
	r uatypes.Reader
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r uatypes.Reader) *Decoder {
	return &Decoder{r: r}
}

// --- fixed-width integers ---

func (e *Encoder) PutByte(v uint8) { e.w.Write([]byte{v}) }

func (d *Decoder) Byte() (uint8, error) {
	b, err := d.r.Read(1)
	if err != nil {
		return 0, ErrShortRead
	}
	return b[0], nil
}

func (e *Encoder) PutBool(v bool) {
	if v {
		e.PutByte(1)
	} else {
		e.PutByte(0)
	}
}

// Bool decodes a Boolean: the wire is a single byte, 0 is false, any
// nonzero value is true.
func (d *Decoder) Bool() (bool, error) {
	b, err := d.Byte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

func (e *Encoder) PutUint16(v uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	e.w.Write(buf[:])
}

func (d *Decoder) Uint16() (uint16, error) {
	b, err := d.r.Read(2)
	if err != nil {
		return 0, ErrShortRead
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (e *Encoder) PutInt16(v int16) { e.PutUint16(uint16(v)) }

func (d *Decoder) Int16() (int16, error) {
	v, err := d.Uint16()
	return int16(v), err
}

func (e *Encoder) PutUint32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	e.w.Write(buf[:])
}

func (d *Decoder) Uint32() (uint32, error) {
	b, err := d.r.Read(4)
	if err != nil {
		return 0, ErrShortRead
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (e *Encoder) PutInt32(v int32) { e.PutUint32(uint32(v)) }

func (d *Decoder) Int32() (int32, error) {
	v, err := d.Uint32()
	return int32(v), err
}

func (e *Encoder) PutUint64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	e.w.Write(buf[:])
}

func (d *Decoder) Uint64() (uint64, error) {
	b, err := d.r.Read(8)
	if err != nil {
		return 0, ErrShortRead
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (e *Encoder) PutInt64(v int64) { e.PutUint64(uint64(v)) }

func (d *Decoder) Int64() (int64, error) {
	v, err := d.Uint64()
	return int64(v), err
}

func (e *Encoder) PutDouble(v float64) {
	e.PutUint64(math.Float64bits(v))
}

func (d *Decoder) Double() (float64, error) {
	v, err := d.Uint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// --- length-prefixed String / ByteString ---

// PutString writes a length-prefixed UTF-8 string. A negative-length
// ("null") string is never produced by this core, so an empty string and a null string both encode as
// length 0.
func (e *Encoder) PutString(s string) {
	e.putLengthPrefixed([]byte(s))
}

// String decodes a length-prefixed UTF-8 string. A length of -1 decodes
// to the empty string.
func (d *Decoder) String() (string, error) {
	b, err := d.getLengthPrefixed()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// PutBytes writes a length-prefixed ByteString.
func (e *Encoder) PutBytes(b []byte) {
	e.putLengthPrefixed(b)
}

// Bytes decodes a length-prefixed ByteString.
func (d *Decoder) Bytes() ([]byte, error) {
	return d.getLengthPrefixed()
}

func (e *Encoder) putLengthPrefixed(b []byte) {
	if b == nil {
		e.PutInt32(-1)
		return
	}
	e.PutInt32(int32(len(b)))
	e.w.Write(b)
}

func (d *Decoder) getLengthPrefixed() ([]byte, error) {
	n, err := d.Int32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}
	if n == 0 {
		return []byte{}, nil
	}
	b, err := d.r.Read(int(n))
	if err != nil {
		return nil, ErrShortRead
	}
	return b, nil
}

// --- GUID ---

func (e *Encoder) PutGUID(g uatypes.GUID) {
	var buf [uatypes.GUIDSize]byte
	g.EncodeTo(buf[:])
	e.w.Write(buf[:])
}

func (d *Decoder) GUID() (uatypes.GUID, error) {
	b, err := d.r.Read(uatypes.GUIDSize)
	if err != nil {
		return uatypes.GUID{}, ErrShortRead
	}
	return uatypes.DecodeGUID(b)
}

// --- DateTime ---

func (e *Encoder) PutDateTime(dt uatypes.DateTime) {
	e.PutInt64(dt.Ticks())
}

func (d *Decoder) DateTime() (uatypes.DateTime, error) {
	v, err := d.Int64()
	if err != nil {
		return 0, err
	}
	return uatypes.DateTime(v), nil
}
