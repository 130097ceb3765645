package uacodec

import "github.com/mgorny/opcuago/pkg/uatypes"

// Variant encoding-mask bits: low 6 bits are the type tag;
// the high bit marks an array (unsupported by this core); bit 6 is the
// reserved "has dimensions" bit, also unsupported.
const (
	variantTypeMask      = 0x3F
	variantArrayBit      = 0x80
	variantDimensionsBit = 0x40
)

// PutVariant writes a Variant's encoding-mask byte and its active arm.
func (e *Encoder) PutVariant(v uatypes.Variant) error {
	typ := v.Type()
	if !typ.IsKnown() {
		return NewEncodingUnsupported("unrecognized Variant type tag")
	}
	e.PutByte(uint8(typ) & variantTypeMask)

	switch typ {
	case uatypes.VariantTypeBoolean:
		b, _ := v.Bool()
		e.PutBool(b)
	case uatypes.VariantTypeByte:
		b, _ := v.Byte()
		e.PutByte(b)
	case uatypes.VariantTypeUInt16:
		u, _ := v.UInt16()
		e.PutUint16(u)
	case uatypes.VariantTypeInt32:
		i, _ := v.Int32()
		e.PutInt32(i)
	case uatypes.VariantTypeUInt32:
		u, _ := v.UInt32()
		e.PutUint32(u)
	case uatypes.VariantTypeInt64:
		i, _ := v.Int64()
		e.PutInt64(i)
	case uatypes.VariantTypeDouble:
		f, _ := v.Double()
		e.PutDouble(f)
	case uatypes.VariantTypeString:
		s, _ := v.StringValue()
		e.PutString(s)
	case uatypes.VariantTypeDateTime:
		dt, _ := v.DateTimeValue()
		e.PutDateTime(dt)
	case uatypes.VariantTypeGUID:
		g, _ := v.GUIDValue()
		e.PutGUID(g)
	case uatypes.VariantTypeByteString:
		b, _ := v.ByteStringValue()
		e.PutBytes(b)
	}
	return nil
}

// Variant decodes a Variant. The high bit (array) and reserved
// "dimensions" bit are rejected with ErrEncodingUnsupported.
func (d *Decoder) Variant() (uatypes.Variant, error) {
	mask, err := d.Byte()
	if err != nil {
		return uatypes.Variant{}, err
	}
	if mask&variantArrayBit != 0 {
		return uatypes.Variant{}, NewEncodingUnsupported("Variant arrays are not supported")
	}
	if mask&variantDimensionsBit != 0 {
		return uatypes.Variant{}, NewEncodingUnsupported("Variant array-dimensions bit is reserved")
	}

	typ := uatypes.VariantType(mask & variantTypeMask)
	if !typ.IsKnown() {
		return uatypes.Variant{}, NewDecodingError("unrecognized Variant type tag")
	}

	switch typ {
	case uatypes.VariantTypeBoolean:
		b, err := d.Bool()
		return uatypes.NewVariantBoolean(b), err
	case uatypes.VariantTypeByte:
		b, err := d.Byte()
		return uatypes.NewVariantByte(b), err
	case uatypes.VariantTypeUInt16:
		u, err := d.Uint16()
		return uatypes.NewVariantUInt16(u), err
	case uatypes.VariantTypeInt32:
		i, err := d.Int32()
		return uatypes.NewVariantInt32(i), err
	case uatypes.VariantTypeUInt32:
		u, err := d.Uint32()
		return uatypes.NewVariantUInt32(u), err
	case uatypes.VariantTypeInt64:
		i, err := d.Int64()
		return uatypes.NewVariantInt64(i), err
	case uatypes.VariantTypeDouble:
		f, err := d.Double()
		return uatypes.NewVariantDouble(f), err
	case uatypes.VariantTypeString:
		s, err := d.String()
		return uatypes.NewVariantString(s), err
	case uatypes.VariantTypeDateTime:
		dt, err := d.DateTime()
		return uatypes.NewVariantDateTime(dt), err
	case uatypes.VariantTypeGUID:
		g, err := d.GUID()
		return uatypes.NewVariantGUID(g), err
	case uatypes.VariantTypeByteString:
		b, err := d.Bytes()
		return uatypes.NewVariantByteString(b), err
	default:
		return uatypes.Variant{}, NewDecodingError("unrecognized Variant type tag")
	}
}
