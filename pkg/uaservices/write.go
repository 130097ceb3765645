package uaservices

import (
	"github.com/mgorny/opcuago/pkg/uacodec"
	"github.com/mgorny/opcuago/pkg/uatypes"
)

// WriteValue names the attribute to write and the value to write to it.
type WriteValue struct {
	NodeID      uatypes.NodeID
	AttributeID AttributeID
	IndexRange  string
	Value       uatypes.DataValue
}

func (wv *WriteValue) encode(e *uacodec.Encoder) error {
	e.PutNodeID(wv.NodeID)
	e.PutUint32(uint32(wv.AttributeID))
	e.PutString(wv.IndexRange)
	return e.PutDataValue(wv.Value)
}

func (wv *WriteValue) decode(d *uacodec.Decoder) error {
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
	val, err := d.DataValue()
	if err != nil {
		return err
	}
	wv.NodeID = id
	wv.AttributeID = AttributeID(attr)
	wv.IndexRange = rng
	wv.Value = val
	return nil
}

type WriteRequest struct {
	Header       RequestHeader
	NodesToWrite []WriteValue
}

func (r *WriteRequest) EncodeBody(e *uacodec.Encoder) error {
	r.Header.encode(e)
	if r.NodesToWrite == nil {
		e.PutInt32(-1)
		return nil
	}
	e.PutInt32(int32(len(r.NodesToWrite)))
	for i := range r.NodesToWrite {
		if err := r.NodesToWrite[i].encode(e); err != nil {
			return err
		}
	}
	return nil
}

func (r *WriteRequest) DecodeBody(d *uacodec.Decoder) error {
	if err := r.Header.decode(d); err != nil {
		return err
	}
	nodes, err := uacodec.DecodeArray(d, func(d *uacodec.Decoder) (WriteValue, error) {
		var wv WriteValue
		err := wv.decode(d)
		return wv, err
	})
	if err != nil {
		return err
	}
	r.NodesToWrite = nodes
	return nil
}

// WriteResponse carries one StatusCode per entry in NodesToWrite, in
// the same order.
type WriteResponse struct {
	Header  ResponseHeader
	Results []uatypes.StatusCode
}

func (r *WriteResponse) EncodeBody(e *uacodec.Encoder) error {
	r.Header.encode(e)
	uacodec.EncodeArray(e, r.Results, func(e *uacodec.Encoder, s uatypes.StatusCode) { e.PutUint32(uint32(s)) })
	return nil
}

func (r *WriteResponse) DecodeBody(d *uacodec.Decoder) error {
	if err := r.Header.decode(d); err != nil {
		return err
	}
	results, err := uacodec.DecodeArray(d, func(d *uacodec.Decoder) (uatypes.StatusCode, error) {
		v, err := d.Uint32()
		return uatypes.StatusCode(v), err
	})
	if err != nil {
		return err
	}
	r.Results = results
	return nil
}
