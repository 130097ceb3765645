// Package uasession implements the Session layer (spec C6): a logical
// authentication context that survives secure-channel re-attachment,
// tracks its own in-flight requests, and stamps every outgoing request
// with its authentication token.
package uasession

import (
	"sync"

	"github.com/mgorny/opcuago/pkg/uacodec"
	"github.com/mgorny/opcuago/pkg/uachannel"
	"github.com/mgorny/opcuago/pkg/uaservices"
	"github.com/mgorny/opcuago/pkg/uatypes"
)

// Session is the client-side view of one OPC UA session: its minted
// identifiers (once Create has completed), the channel it is currently
// attached to, and the set of its own requests still awaiting a
// response, tracked in the order they were sent so a torn-down
// connection can fail them off in that same order.
type Session struct {
	dir *Directory

	mu          sync.Mutex
	name        string
	endpointURL string
	sessionID   uatypes.NodeID
	authToken   uatypes.NodeID
	channel     *uachannel.Channel
	order       []uint32
}

// New constructs a Session not yet created on any server. Call Create to
// send CreateSessionRequest over ch.
func New(dir *Directory, name, endpointURL string) *Session {
	return &Session{dir: dir, name: name, endpointURL: endpointURL}
}

// SessionID returns the session id the server assigned, or the null
// NodeId before Create completes.
func (s *Session) SessionID() uatypes.NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// AuthenticationToken returns the token stamped on every request this
// session sends, or the null NodeId before Create completes.
func (s *Session) AuthenticationToken() uatypes.NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authToken
}

func (s *Session) trackPending(handle uint32) {
	s.mu.Lock()
	s.order = append(s.order, handle)
	s.mu.Unlock()
}

func (s *Session) forgetPending(handle uint32) {
	s.mu.Lock()
	for i, h := range s.order {
		if h == handle {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
}

// Create sends CreateSessionRequest over ch and registers cb to receive
// the CreateSessionResponse. On success the session's SessionID and
// AuthenticationToken become set and subsequent requests attach to ch.
func (s *Session) Create(ch *uachannel.Channel, req *uaservices.CreateSessionRequest, cb func(*uaservices.CreateSessionResponse, error)) error {
	s.mu.Lock()
	s.channel = ch
	s.mu.Unlock()

	handle := uachannel.NextRequestID()
	req.Header.RequestHandle = handle
	req.SessionName = s.name
	req.EndpointURL = s.endpointURL

	s.dir.register(s, handle, func(resp uacodec.Structure, err error) {
		if err != nil {
			cb(nil, err)
			return
		}
		created, ok := resp.(*uaservices.CreateSessionResponse)
		if !ok {
			cb(nil, ErrUnexpectedResponse)
			return
		}
		s.mu.Lock()
		s.sessionID = created.SessionID
		s.authToken = created.AuthenticationToken
		s.mu.Unlock()
		cb(created, nil)
	})
	return ch.Write(handle, uaservices.CreateSessionRequestTypeID, req)
}

// Activate sends ActivateSessionRequest over the session's attached
// channel, stamped with the session's authentication token. A nil
// identityToken defaults to AnonymousIdentityToken{"anonPolicy"}.
func (s *Session) Activate(identityToken *uatypes.ExtensionObject, cb func(*uaservices.ActivateSessionResponse, error)) error {
	s.mu.Lock()
	ch := s.channel
	token := s.authToken
	s.mu.Unlock()
	if ch == nil {
		return ErrNoChannel
	}

	tok := anonymousIdentityToken()
	if identityToken != nil {
		tok = *identityToken
	}

	handle := uachannel.NextRequestID()
	req := &uaservices.ActivateSessionRequest{
		Header:            uaservices.RequestHeader{RequestHandle: handle, AuthenticationToken: token},
		UserIdentityToken: tok,
	}

	s.dir.register(s, handle, func(resp uacodec.Structure, err error) {
		if err != nil {
			cb(nil, err)
			return
		}
		activated, ok := resp.(*uaservices.ActivateSessionResponse)
		if !ok {
			cb(nil, ErrUnexpectedResponse)
			return
		}
		cb(activated, nil)
	})
	return ch.Write(handle, uaservices.ActivateSessionRequestTypeID, req)
}

// Reattach points the session at a newly (re-)opened secure channel,
// ahead of a fresh Activate call; the server-side Re-attach discipline
// (spec: resend CreateSession if the server-side session expired,
// otherwise re-activate with the existing token) is the caller's
// decision to make, informed by whether Activate comes back
// BadSessionIdInvalid.
func (s *Session) Reattach(ch *uachannel.Channel) {
	s.mu.Lock()
	s.channel = ch
	s.mu.Unlock()
}

// Read sends a ReadRequest over the session's attached channel.
func (s *Session) Read(req *uaservices.ReadRequest, cb func(*uaservices.ReadResponse, error)) error {
	return s.send(&req.Header, req, uaservices.ReadRequestTypeID, func(resp uacodec.Structure, err error) {
		if err != nil {
			cb(nil, err)
			return
		}
		r, ok := resp.(*uaservices.ReadResponse)
		if !ok {
			cb(nil, ErrUnexpectedResponse)
			return
		}
		cb(r, nil)
	})
}

// Write sends a WriteRequest over the session's attached channel.
func (s *Session) Write(req *uaservices.WriteRequest, cb func(*uaservices.WriteResponse, error)) error {
	return s.send(&req.Header, req, uaservices.WriteRequestTypeID, func(resp uacodec.Structure, err error) {
		if err != nil {
			cb(nil, err)
			return
		}
		r, ok := resp.(*uaservices.WriteResponse)
		if !ok {
			cb(nil, ErrUnexpectedResponse)
			return
		}
		cb(r, nil)
	})
}

// TranslateBrowsePaths sends a TranslateBrowsePathsToNodeIDsRequest over
// the session's attached channel.
func (s *Session) TranslateBrowsePaths(req *uaservices.TranslateBrowsePathsToNodeIDsRequest, cb func(*uaservices.TranslateBrowsePathsToNodeIDsResponse, error)) error {
	return s.send(&req.Header, req, uaservices.TranslateBrowsePathsToNodeIDsRequestTypeID, func(resp uacodec.Structure, err error) {
		if err != nil {
			cb(nil, err)
			return
		}
		r, ok := resp.(*uaservices.TranslateBrowsePathsToNodeIDsResponse)
		if !ok {
			cb(nil, ErrUnexpectedResponse)
			return
		}
		cb(r, nil)
	})
}

// send stamps header with this session's authentication token, assigns
// a request handle if the caller left it zero, registers the callback,
// and hands body to the attached channel.
func (s *Session) send(header *uaservices.RequestHeader, body uacodec.Structure, abstractID uatypes.NodeID, cb Callback) error {
	s.mu.Lock()
	ch := s.channel
	header.AuthenticationToken = s.authToken
	s.mu.Unlock()
	if ch == nil {
		return ErrNoChannel
	}

	if header.RequestHandle == 0 {
		header.RequestHandle = uachannel.NextRequestID()
	}
	handle := header.RequestHandle

	s.dir.register(s, handle, cb)
	return ch.Write(handle, abstractID, body)
}

// Close sends CloseSessionRequest over the session's attached channel.
func (s *Session) Close(deleteSubscriptions bool, cb func(*uaservices.CloseSessionResponse, error)) error {
	s.mu.Lock()
	ch := s.channel
	token := s.authToken
	s.mu.Unlock()
	if ch == nil {
		return ErrNoChannel
	}

	handle := uachannel.NextRequestID()
	req := &uaservices.CloseSessionRequest{
		Header:              uaservices.RequestHeader{RequestHandle: handle, AuthenticationToken: token},
		DeleteSubscriptions: deleteSubscriptions,
	}
	s.dir.register(s, handle, func(resp uacodec.Structure, err error) {
		if err != nil {
			cb(nil, err)
			return
		}
		closed, ok := resp.(*uaservices.CloseSessionResponse)
		if !ok {
			cb(nil, ErrUnexpectedResponse)
			return
		}
		cb(closed, nil)
	})
	return ch.Write(handle, uaservices.CloseSessionRequestTypeID, req)
}

// CancelAll fires ErrConnectionClosed to every pending callback this
// session is still waiting on, in the order the requests were sent
// (spec: "each session fires BadConnectionClosed to every pending
// callback in insertion order"). Called by the owner of the transport
// when the underlying connection tears down.
func (s *Session) CancelAll() {
	s.mu.Lock()
	pending := s.order
	s.order = nil
	s.mu.Unlock()

	for _, handle := range pending {
		if cb, ok := s.dir.cancel(handle); ok {
			cb(nil, ErrConnectionClosed)
		}
	}
}
