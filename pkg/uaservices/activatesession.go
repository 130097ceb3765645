package uaservices

import (
	"github.com/mgorny/opcuago/pkg/uacodec"
	"github.com/mgorny/opcuago/pkg/uatypes"
)

// ActivateSessionRequest moves a session from Created to Activated (or
// re-attaches it to a new secure channel after Re-attach). Signing of
// the request with a client certificate is a non-goal: ClientSignature
// is always absent in this core, and the server accepts any
// AnonymousIdentityToken without challenge.
type ActivateSessionRequest struct {
	Header          RequestHeader
	LocaleIDs       []string
	UserIdentityToken uatypes.ExtensionObject
}

func (r *ActivateSessionRequest) EncodeBody(e *uacodec.Encoder) error {
	r.Header.encode(e)
	uacodec.EncodeArray(e, r.LocaleIDs, func(e *uacodec.Encoder, s string) { e.PutString(s) })
	return e.PutRawExtensionObject(r.UserIdentityToken)
}

func (r *ActivateSessionRequest) DecodeBody(d *uacodec.Decoder) error {
	if err := r.Header.decode(d); err != nil {
		return err
	}
	locales, err := uacodec.DecodeArray(d, func(d *uacodec.Decoder) (string, error) { return d.String() })
	if err != nil {
		return err
	}
	tok, err := d.RawExtensionObject()
	if err != nil {
		return err
	}
	r.LocaleIDs = locales
	r.UserIdentityToken = tok
	return nil
}

// ActivateSessionResponse reports one StatusCode per identity token
// the request presented; pkg/uaserver answers a successful activation
// with a single Good entry.
type ActivateSessionResponse struct {
	Header      ResponseHeader
	ServerNonce []byte
	Results     []uatypes.StatusCode
}

func (r *ActivateSessionResponse) EncodeBody(e *uacodec.Encoder) error {
	r.Header.encode(e)
	e.PutBytes(r.ServerNonce)
	uacodec.EncodeArray(e, r.Results, func(e *uacodec.Encoder, s uatypes.StatusCode) { e.PutUint32(uint32(s)) })
	return nil
}

func (r *ActivateSessionResponse) DecodeBody(d *uacodec.Decoder) error {
	if err := r.Header.decode(d); err != nil {
		return err
	}
	nonce, err := d.Bytes()
	if err != nil {
		return err
	}
	results, err := uacodec.DecodeArray(d, func(d *uacodec.Decoder) (uatypes.StatusCode, error) {
		v, err := d.Uint32()
		return uatypes.StatusCode(v), err
	})
	if err != nil {
		return err
	}
	r.ServerNonce = nonce
	r.Results = results
	return nil
}

// CloseSessionRequest ends a session. DeleteSubscriptions is carried
// for wire completeness; subscriptions are a non-goal so it has no
// effect.
type CloseSessionRequest struct {
	Header              RequestHeader
	DeleteSubscriptions bool
}

func (r *CloseSessionRequest) EncodeBody(e *uacodec.Encoder) error {
	r.Header.encode(e)
	e.PutBool(r.DeleteSubscriptions)
	return nil
}

func (r *CloseSessionRequest) DecodeBody(d *uacodec.Decoder) error {
	if err := r.Header.decode(d); err != nil {
		return err
	}
	del, err := d.Bool()
	if err != nil {
		return err
	}
	r.DeleteSubscriptions = del
	return nil
}

type CloseSessionResponse struct {
	Header ResponseHeader
}

func (r *CloseSessionResponse) EncodeBody(e *uacodec.Encoder) error {
	r.Header.encode(e)
	return nil
}

func (r *CloseSessionResponse) DecodeBody(d *uacodec.Decoder) error {
	return r.Header.decode(d)
}
