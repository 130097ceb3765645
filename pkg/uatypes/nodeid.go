package uatypes

import "fmt"

// NodeIDType tags the active variant of a NodeId.
type NodeIDType uint8

const (
	// NodeIDTypeNumeric carries a 32-bit numeric identifier.
	NodeIDTypeNumeric NodeIDType = iota
	// NodeIDTypeString carries a UTF-8 string identifier.
	NodeIDTypeString
	// NodeIDTypeGUID carries a GUID identifier.
	NodeIDTypeGUID
	// NodeIDTypeByteString carries an opaque byte-string identifier.
	NodeIDTypeByteString
)

// Numeric wire-form widths: the compact encoding a Numeric
// NodeId chooses depends on how small (ns, id) are.
const (
	twoByteMaxNamespace = 0
	twoByteMaxID        = 255

	fourByteMaxNamespace = 255
	fourByteMaxID        = 65535
)

// NodeID is the protocol's uniform identifier for any object in the
// address space: a tagged union over numeric, string, GUID and
// byte-string forms, each scoped to a namespace index.
type NodeID struct {
	typ        NodeIDType
	namespace  uint16
	numeric    uint32
	str        string
	guid       GUID
	byteString []byte
}

// NewNumericNodeID constructs a Numeric-variant NodeId.
func NewNumericNodeID(ns uint16, id uint32) NodeID {
	return NodeID{typ: NodeIDTypeNumeric, namespace: ns, numeric: id}
}

// NewStringNodeID constructs a String-variant NodeId.
func NewStringNodeID(ns uint16, id string) NodeID {
	return NodeID{typ: NodeIDTypeString, namespace: ns, str: id}
}

// NewGUIDNodeID constructs a GUID-variant NodeId.
func NewGUIDNodeID(ns uint16, id GUID) NodeID {
	return NodeID{typ: NodeIDTypeGUID, namespace: ns, guid: id}
}

// NewByteStringNodeID constructs a ByteString-variant NodeId.
func NewByteStringNodeID(ns uint16, id []byte) NodeID {
	cp := make([]byte, len(id))
	copy(cp, id)
	return NodeID{typ: NodeIDTypeByteString, namespace: ns, byteString: cp}
}

// NullNodeID is the zero-value NodeId: Numeric, namespace 0, id 0.
// ExtensionObject decoding treats this as "no inner value" when paired
// with encoding byte 0.
var NullNodeID = NewNumericNodeID(0, 0)

// Type reports which variant is active.
func (n NodeID) Type() NodeIDType { return n.typ }

// Namespace returns the namespace index.
func (n NodeID) Namespace() uint16 { return n.namespace }

// Numeric returns the numeric id. Only meaningful when Type() == NodeIDTypeNumeric.
func (n NodeID) Numeric() uint32 { return n.numeric }

// StringID returns the string id. Only meaningful when Type() == NodeIDTypeString.
func (n NodeID) StringID() string { return n.str }

// GUIDID returns the GUID id. Only meaningful when Type() == NodeIDTypeGUID.
func (n NodeID) GUIDID() GUID { return n.guid }

// ByteStringID returns the byte-string id. Only meaningful when
// Type() == NodeIDTypeByteString.
func (n NodeID) ByteStringID() []byte { return n.byteString }

// IsNull reports whether this NodeId equals the null NodeId.
func (n NodeID) IsNull() bool {
	return n.Equal(NullNodeID)
}

// Equal compares two NodeIds by type and payload.
func (n NodeID) Equal(o NodeID) bool {
	if n.typ != o.typ || n.namespace != o.namespace {
		return false
	}
	switch n.typ {
	case NodeIDTypeNumeric:
		return n.numeric == o.numeric
	case NodeIDTypeString:
		return n.str == o.str
	case NodeIDTypeGUID:
		return n.guid == o.guid
	case NodeIDTypeByteString:
		return string(n.byteString) == string(o.byteString)
	default:
		return false
	}
}

// Key returns a comparable value usable as a Go map key, since NodeID
// itself holds a []byte and so is not comparable when the ByteString
// variant is in play.
func (n NodeID) Key() any {
	switch n.typ {
	case NodeIDTypeNumeric:
		return struct {
			t  NodeIDType
			ns uint16
			id uint32
		}{n.typ, n.namespace, n.numeric}
	case NodeIDTypeString:
		return struct {
			t  NodeIDType
			ns uint16
			id string
		}{n.typ, n.namespace, n.str}
	case NodeIDTypeGUID:
		return struct {
			t  NodeIDType
			ns uint16
			id GUID
		}{n.typ, n.namespace, n.guid}
	default: // NodeIDTypeByteString
		return struct {
			t  NodeIDType
			ns uint16
			id string
		}{n.typ, n.namespace, string(n.byteString)}
	}
}

// String renders a NodeId in the conventional "ns=%d;..." textual form.
func (n NodeID) String() string {
	switch n.typ {
	case NodeIDTypeNumeric:
		return fmt.Sprintf("ns=%d;i=%d", n.namespace, n.numeric)
	case NodeIDTypeString:
		return fmt.Sprintf("ns=%d;s=%s", n.namespace, n.str)
	case NodeIDTypeGUID:
		return fmt.Sprintf("ns=%d;g=%s", n.namespace, n.guid.String())
	case NodeIDTypeByteString:
		return fmt.Sprintf("ns=%d;b=%x", n.namespace, n.byteString)
	default:
		return "ns=0;i=0"
	}
}

// NumericWireForm reports which compact wire encoding a Numeric NodeId
// should use: TWO_BYTE when ns=0 and id<=255, FOUR_BYTE when
// ns<=255 and id<=65535, NUMERIC otherwise. Only meaningful for the
// Numeric variant.
type NumericWireForm uint8

const (
	// WireFormTwoByte is the 2-byte compact encoding (tag 0).
	WireFormTwoByte NumericWireForm = iota
	// WireFormFourByte is the 4-byte compact encoding (tag 1).
	WireFormFourByte
	// WireFormNumeric is the full numeric encoding (tag 2).
	WireFormNumeric
)

// NumericWireForm selects the most compact legal wire form for this
// Numeric NodeId.
func (n NodeID) NumericWireForm() NumericWireForm {
	if n.namespace == twoByteMaxNamespace && n.numeric <= twoByteMaxID {
		return WireFormTwoByte
	}
	if n.namespace <= fourByteMaxNamespace && n.numeric <= fourByteMaxID {
		return WireFormFourByte
	}
	return WireFormNumeric
}
