package uaservices

import (
	"github.com/mgorny/opcuago/pkg/uacodec"
	"github.com/mgorny/opcuago/pkg/uatypes"
)

// RequestHeader carries the per-call bookkeeping common to every service
// request: the session's authentication token, a client-assigned request
// handle the response echoes so the client can match it to its call, and a
// timeout hint in milliseconds (0 means no timeout).
type RequestHeader struct {
	AuthenticationToken uatypes.NodeID
	Timestamp           uatypes.DateTime
	RequestHandle       uint32
	ReturnDiagnostics   uint32
	AuditEntryID        string
	TimeoutHint         uint32
}

func (h *RequestHeader) encode(e *uacodec.Encoder) error {
	e.PutNodeID(h.AuthenticationToken)
	e.PutDateTime(h.Timestamp)
	e.PutUint32(h.RequestHandle)
	e.PutUint32(h.ReturnDiagnostics)
	e.PutString(h.AuditEntryID)
	e.PutUint32(h.TimeoutHint)
	return nil
}

func (h *RequestHeader) decode(d *uacodec.Decoder) error {
	id, err := d.NodeID()
	if err != nil {
		return err
	}
	ts, err := d.DateTime()
	if err != nil {
		return err
	}
	handle, err := d.Uint32()
	if err != nil {
		return err
	}
	diag, err := d.Uint32()
	if err != nil {
		return err
	}
	audit, err := d.String()
	if err != nil {
		return err
	}
	timeout, err := d.Uint32()
	if err != nil {
		return err
	}
	h.AuthenticationToken = id
	h.Timestamp = ts
	h.RequestHandle = handle
	h.ReturnDiagnostics = diag
	h.AuditEntryID = audit
	h.TimeoutHint = timeout
	return nil
}

// ResponseHeader mirrors the request handle back to the caller and
// carries the call's overall outcome. Per-value diagnostics are out of
// scope for this core (no DiagnosticInfo wire format is defined), so
// only an overall service result and a string table are carried.
type ResponseHeader struct {
	Timestamp     uatypes.DateTime
	RequestHandle uint32
	ServiceResult uatypes.StatusCode
	StringTable   []string
}

func (h *ResponseHeader) encode(e *uacodec.Encoder) error {
	e.PutDateTime(h.Timestamp)
	e.PutUint32(h.RequestHandle)
	e.PutUint32(uint32(h.ServiceResult))
	uacodec.EncodeArray(e, h.StringTable, func(e *uacodec.Encoder, s string) { e.PutString(s) })
	return nil
}

func (h *ResponseHeader) decode(d *uacodec.Decoder) error {
	ts, err := d.DateTime()
	if err != nil {
		return err
	}
	handle, err := d.Uint32()
	if err != nil {
		return err
	}
	result, err := d.Uint32()
	if err != nil {
		return err
	}
	table, err := uacodec.DecodeArray(d, func(d *uacodec.Decoder) (string, error) { return d.String() })
	if err != nil {
		return err
	}
	h.Timestamp = ts
	h.RequestHandle = handle
	h.ServiceResult = uatypes.StatusCode(result)
	h.StringTable = table
	return nil
}

// NewResponseHeader builds a ResponseHeader echoing the given request's
// handle, stamped with the current time and the given service result.
func NewResponseHeader(req *RequestHeader, result uatypes.StatusCode) ResponseHeader {
	return ResponseHeader{
		Timestamp:     uatypes.Now(),
		RequestHandle: req.RequestHandle,
		ServiceResult: result,
	}
}
