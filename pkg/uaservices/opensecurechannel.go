package uaservices

import (
	"github.com/mgorny/opcuago/pkg/uacodec"
	"github.com/mgorny/opcuago/pkg/uatypes"
)

// OpenSecureChannelRequest either issues a fresh secure channel or
// renews the current token on an existing one, depending on RequestType.
type OpenSecureChannelRequest struct {
	Header             RequestHeader
	ClientProtocolVersion uint32
	RequestType         SecurityTokenRequestType
	SecurityMode        MessageSecurityMode
	ClientNonce         []byte
	RequestedLifetime   uint32
}

func (r *OpenSecureChannelRequest) EncodeBody(e *uacodec.Encoder) error {
	r.Header.encode(e)
	e.PutUint32(r.ClientProtocolVersion)
	e.PutUint32(uint32(r.RequestType))
	e.PutUint32(uint32(r.SecurityMode))
	e.PutBytes(r.ClientNonce)
	e.PutUint32(r.RequestedLifetime)
	return nil
}

func (r *OpenSecureChannelRequest) DecodeBody(d *uacodec.Decoder) error {
	if err := r.Header.decode(d); err != nil {
		return err
	}
	ver, err := d.Uint32()
	if err != nil {
		return err
	}
	reqType, err := d.Uint32()
	if err != nil {
		return err
	}
	mode, err := d.Uint32()
	if err != nil {
		return err
	}
	nonce, err := d.Bytes()
	if err != nil {
		return err
	}
	lifetime, err := d.Uint32()
	if err != nil {
		return err
	}
	r.ClientProtocolVersion = ver
	r.RequestType = SecurityTokenRequestType(reqType)
	r.SecurityMode = MessageSecurityMode(mode)
	r.ClientNonce = nonce
	r.RequestedLifetime = lifetime
	return nil
}

// ChannelSecurityToken identifies one validity period of a channel's
// symmetric keys: it is reissued on each successful OpenSecureChannel,
// whether the request type was ISSUE or RENEW.
type ChannelSecurityToken struct {
	ChannelID       uint32
	TokenID         uint32
	CreatedAt       uatypes.DateTime
	RevisedLifetime uint32
}

func (t *ChannelSecurityToken) encode(e *uacodec.Encoder) {
	e.PutUint32(t.ChannelID)
	e.PutUint32(t.TokenID)
	e.PutDateTime(t.CreatedAt)
	e.PutUint32(t.RevisedLifetime)
}

func (t *ChannelSecurityToken) decode(d *uacodec.Decoder) error {
	chID, err := d.Uint32()
	if err != nil {
		return err
	}
	tokID, err := d.Uint32()
	if err != nil {
		return err
	}
	created, err := d.DateTime()
	if err != nil {
		return err
	}
	lifetime, err := d.Uint32()
	if err != nil {
		return err
	}
	t.ChannelID = chID
	t.TokenID = tokID
	t.CreatedAt = created
	t.RevisedLifetime = lifetime
	return nil
}

// OpenSecureChannelResponse returns the negotiated token and a server
// nonce contributing to key material (unused while only SecurityMode
// None is implemented, but carried for wire completeness).
type OpenSecureChannelResponse struct {
	Header                ResponseHeader
	ServerProtocolVersion uint32
	SecurityToken         ChannelSecurityToken
	ServerNonce           []byte
}

func (r *OpenSecureChannelResponse) EncodeBody(e *uacodec.Encoder) error {
	r.Header.encode(e)
	e.PutUint32(r.ServerProtocolVersion)
	r.SecurityToken.encode(e)
	e.PutBytes(r.ServerNonce)
	return nil
}

func (r *OpenSecureChannelResponse) DecodeBody(d *uacodec.Decoder) error {
	if err := r.Header.decode(d); err != nil {
		return err
	}
	ver, err := d.Uint32()
	if err != nil {
		return err
	}
	r.ServerProtocolVersion = ver
	if err := r.SecurityToken.decode(d); err != nil {
		return err
	}
	nonce, err := d.Bytes()
	if err != nil {
		return err
	}
	r.ServerNonce = nonce
	return nil
}

// CloseSecureChannelRequest carries no payload beyond the header; its
// arrival tells the server to tear the channel down, discarding its
// local state.
type CloseSecureChannelRequest struct {
	Header RequestHeader
}

func (r *CloseSecureChannelRequest) EncodeBody(e *uacodec.Encoder) error {
	r.Header.encode(e)
	return nil
}

func (r *CloseSecureChannelRequest) DecodeBody(d *uacodec.Decoder) error {
	return r.Header.decode(d)
}

// CloseSecureChannelResponse is registered so it can be decoded; this
// core never sends one, since a CloseSecureChannelRequest closes the
// channel without a reply.
type CloseSecureChannelResponse struct {
	Header ResponseHeader
}

func (r *CloseSecureChannelResponse) EncodeBody(e *uacodec.Encoder) error {
	r.Header.encode(e)
	return nil
}

func (r *CloseSecureChannelResponse) DecodeBody(d *uacodec.Decoder) error {
	return r.Header.decode(d)
}
