package uatypes

// ExtensionObjectEncoding is the encoding byte of an ExtensionObject.
type ExtensionObjectEncoding uint8

const (
	// ExtensionObjectEncodingNone means the inner structure is empty.
	ExtensionObjectEncodingNone ExtensionObjectEncoding = 0
	// ExtensionObjectEncodingBinary means a u32-length-prefixed binary body follows.
	ExtensionObjectEncodingBinary ExtensionObjectEncoding = 1
)

// ExtensionObject is a polymorphic envelope: a NodeId identifying the
// inner structure's wire-encoding type, an encoding byte, and (for binary
// encoding) the body bytes. pkg/uacodec knows how to encode/decode the
// Body against pkg/uareg's structure registry; this type only carries the
// already-serialized (or not-yet-deserialized) form.
type ExtensionObject struct {
	TypeID   NodeID
	Encoding ExtensionObjectEncoding
	Body     []byte
}

// IsEmpty reports whether this is the "no inner value" form: null type id
// and encoding None.
func (e ExtensionObject) IsEmpty() bool {
	return e.Encoding == ExtensionObjectEncodingNone && e.TypeID.IsNull()
}
