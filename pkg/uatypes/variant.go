package uatypes

// VariantType tags the scalar type carried by a Variant.
// Values match the protocol's wire type tags exactly so the codec can use
// them directly as the low 6 bits of the encoding-mask byte.
type VariantType uint8

const (
	VariantTypeBoolean    VariantType = 1
	VariantTypeByte       VariantType = 3
	VariantTypeUInt16     VariantType = 5
	VariantTypeInt32      VariantType = 6
	VariantTypeUInt32     VariantType = 7
	VariantTypeInt64      VariantType = 8
	VariantTypeDouble     VariantType = 11
	VariantTypeString     VariantType = 12
	VariantTypeDateTime   VariantType = 13
	VariantTypeGUID       VariantType = 14
	VariantTypeByteString VariantType = 15
)

// IsKnown reports whether t is one of the scalar tags this core implements.
func (t VariantType) IsKnown() bool {
	switch t {
	case VariantTypeBoolean, VariantTypeByte, VariantTypeUInt16, VariantTypeInt32,
		VariantTypeUInt32, VariantTypeInt64, VariantTypeDouble, VariantTypeString,
		VariantTypeDateTime, VariantTypeGUID, VariantTypeByteString:
		return true
	default:
		return false
	}
}

// Variant is the protocol's dynamically-typed scalar carrier: a tagged
// union over the VariantType values above. Arrays are not supported by
// this core: a Variant holds one scalar, and decoding an array-flagged
// Variant fails with uacodec.ErrEncodingUnsupported.
type Variant struct {
	typ   VariantType
	value any
}

// Type reports which scalar type is active.
func (v Variant) Type() VariantType { return v.typ }

// IsZero reports whether this Variant was never assigned a value.
func (v Variant) IsZero() bool { return v.typ == 0 }

// Value returns the carried value as `any`; the concrete dynamic type
// matches the Go type used by the corresponding constructor below.
func (v Variant) Value() any { return v.value }

func NewVariantBoolean(b bool) Variant    { return Variant{VariantTypeBoolean, b} }
func NewVariantByte(b uint8) Variant      { return Variant{VariantTypeByte, b} }
func NewVariantUInt16(u uint16) Variant   { return Variant{VariantTypeUInt16, u} }
func NewVariantInt32(i int32) Variant     { return Variant{VariantTypeInt32, i} }
func NewVariantUInt32(u uint32) Variant   { return Variant{VariantTypeUInt32, u} }
func NewVariantInt64(i int64) Variant     { return Variant{VariantTypeInt64, i} }
func NewVariantDouble(f float64) Variant  { return Variant{VariantTypeDouble, f} }
func NewVariantString(s string) Variant   { return Variant{VariantTypeString, s} }
func NewVariantDateTime(d DateTime) Variant { return Variant{VariantTypeDateTime, d} }
func NewVariantGUID(g GUID) Variant       { return Variant{VariantTypeGUID, g} }

// NewVariantByteString constructs a ByteString-typed Variant; b is copied.
func NewVariantByteString(b []byte) Variant {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Variant{VariantTypeByteString, cp}
}

// Bool returns the carried value asserted to bool; ok is false if the
// Variant does not carry a Boolean.
func (v Variant) Bool() (bool, bool)       { x, ok := v.value.(bool); return x, ok && v.typ == VariantTypeBoolean }
func (v Variant) Byte() (uint8, bool)      { x, ok := v.value.(uint8); return x, ok && v.typ == VariantTypeByte }
func (v Variant) UInt16() (uint16, bool)   { x, ok := v.value.(uint16); return x, ok && v.typ == VariantTypeUInt16 }
func (v Variant) Int32() (int32, bool)     { x, ok := v.value.(int32); return x, ok && v.typ == VariantTypeInt32 }
func (v Variant) UInt32() (uint32, bool)   { x, ok := v.value.(uint32); return x, ok && v.typ == VariantTypeUInt32 }
func (v Variant) Int64() (int64, bool)     { x, ok := v.value.(int64); return x, ok && v.typ == VariantTypeInt64 }
func (v Variant) Double() (float64, bool)  { x, ok := v.value.(float64); return x, ok && v.typ == VariantTypeDouble }
func (v Variant) StringValue() (string, bool) { x, ok := v.value.(string); return x, ok && v.typ == VariantTypeString }
func (v Variant) DateTimeValue() (DateTime, bool) {
	x, ok := v.value.(DateTime)
	return x, ok && v.typ == VariantTypeDateTime
}
func (v Variant) GUIDValue() (GUID, bool) { x, ok := v.value.(GUID); return x, ok && v.typ == VariantTypeGUID }
func (v Variant) ByteStringValue() ([]byte, bool) {
	x, ok := v.value.([]byte)
	return x, ok && v.typ == VariantTypeByteString
}

// SameTypeAs reports whether v and o carry the same VariantType, the
// discipline WriteRequest attribute-setters use to return BadTypeMismatch
// instead of blindly overwriting a Variable's value.
func (v Variant) SameTypeAs(o Variant) bool {
	return v.typ == o.typ
}
