package uacodec

import (
	"bytes"

	"github.com/mgorny/opcuago/pkg/uatypes"
)

// Structure is any protocol structure the binary codec can serialize: the
// fields of that structure in declared order. Every
// Request/Response pair defined in pkg/uaservices implements this.
type Structure interface {
	EncodeBody(e *Encoder) error
	DecodeBody(d *Decoder) error
}

// TypeRegistry resolves between a structure's abstract type id (the
// structure registry's key, C3) and its binary wire-encoding NodeId, and
// constructs a default instance by abstract id. Implemented by
// pkg/uareg.Registry; accepted here as an interface so pkg/uacodec never
// imports pkg/uareg (which in turn imports pkg/uacodec for Structure).
type TypeRegistry interface {
	// WireIDFor returns the wire-encoding NodeId for an abstract type id.
	WireIDFor(abstractID uatypes.NodeID) (uatypes.NodeID, bool)
	// AbstractIDFor returns the abstract type id for a wire-encoding NodeId.
	AbstractIDFor(wireID uatypes.NodeID) (uatypes.NodeID, bool)
	// New constructs a fresh default instance of the structure registered
	// under abstractID.
	New(abstractID uatypes.NodeID) (Structure, bool)
}

// PutExtensionObject encodes the polymorphic envelope:
// look up body's wire-encoding NodeId, emit it, emit encoding byte 1,
// serialize the body into a staging buffer to learn its length, emit
// that length, then the body bytes.
func (e *Encoder) PutExtensionObject(reg TypeRegistry, abstractID uatypes.NodeID, body Structure) error {
	if body == nil {
		e.PutNodeID(uatypes.NullNodeID)
		e.PutByte(uint8(uatypes.ExtensionObjectEncodingNone))
		return nil
	}

	wireID, ok := reg.WireIDFor(abstractID)
	if !ok {
		return NewUnknownTypeError("ExtensionObject abstract type", abstractID)
	}

	var staging bytes.Buffer
	inner := NewEncoder(&stagingWriter{&staging})
	if err := body.EncodeBody(inner); err != nil {
		return err
	}

	e.PutNodeID(wireID)
	e.PutByte(uint8(uatypes.ExtensionObjectEncodingBinary))
	e.PutInt32(int32(staging.Len()))
	e.w.Write(staging.Bytes())
	return nil
}

// ExtensionObject decodes the polymorphic envelope. If the wire NodeId is
// null and the encoding byte is 0, the inner value is empty (returns nil,
// nil). Otherwise the wire id is resolved to its abstract id, a default
// instance is constructed, and the body is spliced into a sub-decoder and
// deserialized. An unknown wire id is a DecodingError.
func (d *Decoder) ExtensionObject(reg TypeRegistry) (uatypes.NodeID, Structure, error) {
	wireID, err := d.NodeID()
	if err != nil {
		return uatypes.NodeID{}, nil, err
	}

	encoding, err := d.Byte()
	if err != nil {
		return uatypes.NodeID{}, nil, err
	}

	if uatypes.ExtensionObjectEncoding(encoding) == uatypes.ExtensionObjectEncodingNone {
		if wireID.IsNull() {
			return uatypes.NodeID{}, nil, nil
		}
		return uatypes.NodeID{}, nil, NewDecodingError("ExtensionObject: encoding None with non-null type id")
	}

	abstractID, ok := reg.AbstractIDFor(wireID)
	if !ok {
		return uatypes.NodeID{}, nil, NewUnknownTypeError("ExtensionObject wire type", wireID)
	}

	length, err := d.Int32()
	if err != nil {
		return uatypes.NodeID{}, nil, err
	}
	if length < 0 {
		return abstractID, nil, nil
	}

	body, err := d.r.Read(int(length))
	if err != nil {
		return uatypes.NodeID{}, nil, ErrShortRead
	}

	instance, ok := reg.New(abstractID)
	if !ok {
		return uatypes.NodeID{}, nil, NewUnknownTypeError("ExtensionObject abstract type", abstractID)
	}

	inner := NewDecoder(uatypes.NewBufferFrom(body))
	if err := instance.DecodeBody(inner); err != nil {
		return uatypes.NodeID{}, nil, err
	}

	return abstractID, instance, nil
}

// PutRawExtensionObject encodes an ExtensionObject whose body bytes are
// already serialized (uatypes.ExtensionObject), with no registry lookup.
// Used for envelopes whose body this layer doesn't need to decode, such
// as a carried-through user identity token.
func (e *Encoder) PutRawExtensionObject(obj uatypes.ExtensionObject) error {
	if obj.IsEmpty() {
		e.PutNodeID(uatypes.NullNodeID)
		e.PutByte(uint8(uatypes.ExtensionObjectEncodingNone))
		return nil
	}
	e.PutNodeID(obj.TypeID)
	e.PutByte(uint8(obj.Encoding))
	e.PutInt32(int32(len(obj.Body)))
	e.w.Write(obj.Body)
	return nil
}

// RawExtensionObject decodes an ExtensionObject without resolving its
// body against a registry, leaving Body as opaque bytes.
func (d *Decoder) RawExtensionObject() (uatypes.ExtensionObject, error) {
	wireID, err := d.NodeID()
	if err != nil {
		return uatypes.ExtensionObject{}, err
	}
	encoding, err := d.Byte()
	if err != nil {
		return uatypes.ExtensionObject{}, err
	}
	if uatypes.ExtensionObjectEncoding(encoding) == uatypes.ExtensionObjectEncodingNone {
		return uatypes.ExtensionObject{}, nil
	}
	length, err := d.Int32()
	if err != nil {
		return uatypes.ExtensionObject{}, err
	}
	if length < 0 {
		return uatypes.ExtensionObject{TypeID: wireID, Encoding: uatypes.ExtensionObjectEncoding(encoding)}, nil
	}
	body, err := d.r.Read(int(length))
	if err != nil {
		return uatypes.ExtensionObject{}, ErrShortRead
	}
	return uatypes.ExtensionObject{TypeID: wireID, Encoding: uatypes.ExtensionObjectEncoding(encoding), Body: body}, nil
}

// stagingWriter adapts a *bytes.Buffer to uatypes.Writer.
type stagingWriter struct {
	buf *bytes.Buffer
}

func (s *stagingWriter) Write(p []byte) { s.buf.Write(p) }
