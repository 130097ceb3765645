package uacodec

import "github.com/mgorny/opcuago/pkg/uatypes"

// NodeId encoding-form tags: the first byte on the wire.
const (
	nodeIDFormTwoByte    = 0x00
	nodeIDFormFourByte   = 0x01
	nodeIDFormNumeric    = 0x02
	nodeIDFormString     = 0x03
	nodeIDFormGUID       = 0x04
	nodeIDFormByteString = 0x05
)

// PutNodeID selects and writes the most compact legal wire form for id
//.
func (e *Encoder) PutNodeID(id uatypes.NodeID) {
	switch id.Type() {
	case uatypes.NodeIDTypeNumeric:
		switch id.NumericWireForm() {
		case uatypes.WireFormTwoByte:
			e.PutByte(nodeIDFormTwoByte)
			e.PutByte(uint8(id.Numeric()))
		case uatypes.WireFormFourByte:
			e.PutByte(nodeIDFormFourByte)
			e.PutByte(uint8(id.Namespace()))
			e.PutUint16(uint16(id.Numeric()))
		default:
			e.PutByte(nodeIDFormNumeric)
			e.PutUint16(id.Namespace())
			e.PutUint32(id.Numeric())
		}
	case uatypes.NodeIDTypeString:
		e.PutByte(nodeIDFormString)
		e.PutUint16(id.Namespace())
		e.PutString(id.StringID())
	case uatypes.NodeIDTypeGUID:
		e.PutByte(nodeIDFormGUID)
		e.PutUint16(id.Namespace())
		e.PutGUID(id.GUIDID())
	case uatypes.NodeIDTypeByteString:
		e.PutByte(nodeIDFormByteString)
		e.PutUint16(id.Namespace())
		e.PutBytes(id.ByteStringID())
	}
}

// NodeID decodes a NodeId in whichever wire form is present.
func (d *Decoder) NodeID() (uatypes.NodeID, error) {
	form, err := d.Byte()
	if err != nil {
		return uatypes.NodeID{}, err
	}
	switch form {
	case nodeIDFormTwoByte:
		id, err := d.Byte()
		if err != nil {
			return uatypes.NodeID{}, err
		}
		return uatypes.NewNumericNodeID(0, uint32(id)), nil
	case nodeIDFormFourByte:
		ns, err := d.Byte()
		if err != nil {
			return uatypes.NodeID{}, err
		}
		id, err := d.Uint16()
		if err != nil {
			return uatypes.NodeID{}, err
		}
		return uatypes.NewNumericNodeID(uint16(ns), uint32(id)), nil
	case nodeIDFormNumeric:
		ns, err := d.Uint16()
		if err != nil {
			return uatypes.NodeID{}, err
		}
		id, err := d.Uint32()
		if err != nil {
			return uatypes.NodeID{}, err
		}
		return uatypes.NewNumericNodeID(ns, id), nil
	case nodeIDFormString:
		ns, err := d.Uint16()
		if err != nil {
			return uatypes.NodeID{}, err
		}
		s, err := d.String()
		if err != nil {
			return uatypes.NodeID{}, err
		}
		return uatypes.NewStringNodeID(ns, s), nil
	case nodeIDFormGUID:
		ns, err := d.Uint16()
		if err != nil {
			return uatypes.NodeID{}, err
		}
		g, err := d.GUID()
		if err != nil {
			return uatypes.NodeID{}, err
		}
		return uatypes.NewGUIDNodeID(ns, g), nil
	case nodeIDFormByteString:
		ns, err := d.Uint16()
		if err != nil {
			return uatypes.NodeID{}, err
		}
		b, err := d.Bytes()
		if err != nil {
			return uatypes.NodeID{}, err
		}
		return uatypes.NewByteStringNodeID(ns, b), nil
	default:
		return uatypes.NodeID{}, NewDecodingError("unknown NodeId form tag")
	}
}
