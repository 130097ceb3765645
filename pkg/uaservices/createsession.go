package uaservices

import (
	"github.com/mgorny/opcuago/pkg/uacodec"
	"github.com/mgorny/opcuago/pkg/uatypes"
)

// ApplicationDescription identifies the client application opening a
// session, for diagnostic and audit purposes only.
type ApplicationDescription struct {
	ApplicationURI  string
	ApplicationName uatypes.LocalizedText
}

func (a *ApplicationDescription) encode(e *uacodec.Encoder) {
	e.PutString(a.ApplicationURI)
	e.PutString(a.ApplicationName.Locale)
	e.PutString(a.ApplicationName.Text)
}

func (a *ApplicationDescription) decode(d *uacodec.Decoder) error {
	uri, err := d.String()
	if err != nil {
		return err
	}
	locale, err := d.String()
	if err != nil {
		return err
	}
	text, err := d.String()
	if err != nil {
		return err
	}
	a.ApplicationURI = uri
	a.ApplicationName = uatypes.LocalizedText{Locale: locale, Text: text}
	return nil
}

// EndpointDescription describes one way of reaching the server. This
// core only ever returns the single endpoint it is actually listening
// on; discovery of other servers' endpoints is a non-goal.
type EndpointDescription struct {
	EndpointURL       string
	SecurityMode      MessageSecurityMode
	SecurityPolicyURI string
}

func (ep *EndpointDescription) encode(e *uacodec.Encoder) {
	e.PutString(ep.EndpointURL)
	e.PutUint32(uint32(ep.SecurityMode))
	e.PutString(ep.SecurityPolicyURI)
}

func (ep *EndpointDescription) decode(d *uacodec.Decoder) error {
	url, err := d.String()
	if err != nil {
		return err
	}
	mode, err := d.Uint32()
	if err != nil {
		return err
	}
	policy, err := d.String()
	if err != nil {
		return err
	}
	ep.EndpointURL = url
	ep.SecurityMode = MessageSecurityMode(mode)
	ep.SecurityPolicyURI = policy
	return nil
}

// CreateSessionRequest asks the server to allocate a Session bound to
// the secure channel the request arrived on.
type CreateSessionRequest struct {
	Header                 RequestHeader
	ClientDescription      ApplicationDescription
	ServerURI              string
	EndpointURL            string
	SessionName            string
	ClientNonce            []byte
	ClientCertificate      []byte
	RequestedSessionTimeout float64
	MaxResponseMessageSize uint32
}

func (r *CreateSessionRequest) EncodeBody(e *uacodec.Encoder) error {
	r.Header.encode(e)
	r.ClientDescription.encode(e)
	e.PutString(r.ServerURI)
	e.PutString(r.EndpointURL)
	e.PutString(r.SessionName)
	e.PutBytes(r.ClientNonce)
	e.PutBytes(r.ClientCertificate)
	e.PutDouble(r.RequestedSessionTimeout)
	e.PutUint32(r.MaxResponseMessageSize)
	return nil
}

func (r *CreateSessionRequest) DecodeBody(d *uacodec.Decoder) error {
	if err := r.Header.decode(d); err != nil {
		return err
	}
	if err := r.ClientDescription.decode(d); err != nil {
		return err
	}
	serverURI, err := d.String()
	if err != nil {
		return err
	}
	endpointURL, err := d.String()
	if err != nil {
		return err
	}
	sessionName, err := d.String()
	if err != nil {
		return err
	}
	nonce, err := d.Bytes()
	if err != nil {
		return err
	}
	cert, err := d.Bytes()
	if err != nil {
		return err
	}
	timeout, err := d.Double()
	if err != nil {
		return err
	}
	maxSize, err := d.Uint32()
	if err != nil {
		return err
	}
	r.ServerURI = serverURI
	r.EndpointURL = endpointURL
	r.SessionName = sessionName
	r.ClientNonce = nonce
	r.ClientCertificate = cert
	r.RequestedSessionTimeout = timeout
	r.MaxResponseMessageSize = maxSize
	return nil
}

// CreateSessionResponse returns the new session's id (a stable handle
// surviving re-attach) and a distinct authentication token (the value
// future RequestHeaders must present; keeping the two separate means a
// leaked SessionID alone cannot be replayed against the session).
type CreateSessionResponse struct {
	Header                 ResponseHeader
	SessionID              uatypes.NodeID
	AuthenticationToken    uatypes.NodeID
	RevisedSessionTimeout  float64
	ServerNonce            []byte
	ServerCertificate      []byte
	ServerEndpoints        []EndpointDescription
	MaxRequestMessageSize  uint32
}

func (r *CreateSessionResponse) EncodeBody(e *uacodec.Encoder) error {
	r.Header.encode(e)
	e.PutNodeID(r.SessionID)
	e.PutNodeID(r.AuthenticationToken)
	e.PutDouble(r.RevisedSessionTimeout)
	e.PutBytes(r.ServerNonce)
	e.PutBytes(r.ServerCertificate)
	uacodec.EncodeArray(e, r.ServerEndpoints, func(e *uacodec.Encoder, ep EndpointDescription) { ep.encode(e) })
	e.PutUint32(r.MaxRequestMessageSize)
	return nil
}

func (r *CreateSessionResponse) DecodeBody(d *uacodec.Decoder) error {
	if err := r.Header.decode(d); err != nil {
		return err
	}
	sessionID, err := d.NodeID()
	if err != nil {
		return err
	}
	authToken, err := d.NodeID()
	if err != nil {
		return err
	}
	timeout, err := d.Double()
	if err != nil {
		return err
	}
	nonce, err := d.Bytes()
	if err != nil {
		return err
	}
	cert, err := d.Bytes()
	if err != nil {
		return err
	}
	endpoints, err := uacodec.DecodeArray(d, func(d *uacodec.Decoder) (EndpointDescription, error) {
		var ep EndpointDescription
		err := ep.decode(d)
		return ep, err
	})
	if err != nil {
		return err
	}
	maxSize, err := d.Uint32()
	if err != nil {
		return err
	}
	r.SessionID = sessionID
	r.AuthenticationToken = authToken
	r.RevisedSessionTimeout = timeout
	r.ServerNonce = nonce
	r.ServerCertificate = cert
	r.ServerEndpoints = endpoints
	r.MaxRequestMessageSize = maxSize
	return nil
}
