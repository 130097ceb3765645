package uaservices

import (
	"github.com/mgorny/opcuago/pkg/uacodec"
	"github.com/mgorny/opcuago/pkg/uatypes"
)

// ReadValueId names one attribute on one node to read. IndexRange and
// DataEncoding are array-slicing and alternate-encoding selectors this
// core does not act on but carries on the wire.
type ReadValueID struct {
	NodeID       uatypes.NodeID
	AttributeID  AttributeID
	IndexRange   string
	DataEncoding uatypes.QualifiedName
}

func (rv *ReadValueID) encode(e *uacodec.Encoder) {
	e.PutNodeID(rv.NodeID)
	e.PutUint32(uint32(rv.AttributeID))
	e.PutString(rv.IndexRange)
	e.PutUint16(rv.DataEncoding.NamespaceIndex)
	e.PutString(rv.DataEncoding.Name)
}

func (rv *ReadValueID) decode(d *uacodec.Decoder) error {
	id, err := d.NodeID()
	if err != nil {
		return err
	}
	attr, err := d.Uint32()
	if err != nil {
		return err
	}
	rng, err := d.String()
	if err != nil {
		return err
	}
	ns, err := d.Uint16()
	if err != nil {
		return err
	}
	name, err := d.String()
	if err != nil {
		return err
	}
	rv.NodeID = id
	rv.AttributeID = AttributeID(attr)
	rv.IndexRange = rng
	rv.DataEncoding = uatypes.QualifiedName{NamespaceIndex: ns, Name: name}
	return nil
}

// ReadRequest asks for the current value of zero or more attributes.
type ReadRequest struct {
	Header             RequestHeader
	MaxAge             float64
	TimestampsToReturn uatypes.TimestampsToReturn
	NodesToRead        []ReadValueID
}

func (r *ReadRequest) EncodeBody(e *uacodec.Encoder) error {
	r.Header.encode(e)
	e.PutDouble(r.MaxAge)
	e.PutUint32(uint32(r.TimestampsToReturn))
	uacodec.EncodeArray(e, r.NodesToRead, func(e *uacodec.Encoder, rv ReadValueID) { rv.encode(e) })
	return nil
}

func (r *ReadRequest) DecodeBody(d *uacodec.Decoder) error {
	if err := r.Header.decode(d); err != nil {
		return err
	}
	maxAge, err := d.Double()
	if err != nil {
		return err
	}
	ts, err := d.Uint32()
	if err != nil {
		return err
	}
	nodes, err := uacodec.DecodeArray(d, func(d *uacodec.Decoder) (ReadValueID, error) {
		var rv ReadValueID
		err := rv.decode(d)
		return rv, err
	})
	if err != nil {
		return err
	}
	r.MaxAge = maxAge
	r.TimestampsToReturn = uatypes.TimestampsToReturn(ts)
	r.NodesToRead = nodes
	return nil
}

// ReadResponse carries one DataValue per entry in NodesToRead, in the
// same order; a node or attribute that cannot be read gets a DataValue
// holding only a bad StatusCode (no Value).
type ReadResponse struct {
	Header  ResponseHeader
	Results []uatypes.DataValue
}

func (r *ReadResponse) EncodeBody(e *uacodec.Encoder) error {
	r.Header.encode(e)
	if r.Results == nil {
		e.PutInt32(-1)
		return nil
	}
	e.PutInt32(int32(len(r.Results)))
	for _, dv := range r.Results {
		if err := e.PutDataValue(dv); err != nil {
			return err
		}
	}
	return nil
}

func (r *ReadResponse) DecodeBody(d *uacodec.Decoder) error {
	if err := r.Header.decode(d); err != nil {
		return err
	}
	results, err := uacodec.DecodeArray(d, func(d *uacodec.Decoder) (uatypes.DataValue, error) { return d.DataValue() })
	if err != nil {
		return err
	}
	r.Results = results
	return nil
}
