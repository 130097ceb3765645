package uasession

import (
	"sync"

	"github.com/mgorny/opcuago/pkg/uaservices"
	"github.com/mgorny/opcuago/pkg/uatypes"
)

// sessionNamespace is the NodeId namespace session ids and authentication
// tokens are minted in; namespace 0 is reserved for the protocol's own
// structure and attribute ids.
const sessionNamespace uint16 = 1

// ServerSession is the server-side bookkeeping for one session: the
// identifiers minted for it, whether ActivateSessionRequest has
// succeeded yet, and the secure-channel id it is currently attached to.
// The RequestHandler a uachannel.Set invokes is only ever given a
// channelID, never the *uachannel.Channel itself (a response is sent
// back over whichever channel the request arrived on, without the
// session layer needing to touch it directly), so attachment is
// tracked by id.
type ServerSession struct {
	ID                  uatypes.NodeID
	AuthenticationToken uatypes.NodeID
	Name                string
	EndpointURL         string
	Activated           bool
	ChannelID           uint32
}

// Registry is the server's collection of live sessions, keyed by
// authentication token (the identifier every post-activation request
// carries). Spec: "the Server owns the sessions collection."
type Registry struct {
	mu      sync.Mutex
	byToken map[any]*ServerSession
}

// NewRegistry constructs an empty server-side session registry.
func NewRegistry() *Registry {
	return &Registry{byToken: make(map[any]*ServerSession)}
}

// Create mints a new, inactive ServerSession for req and registers it.
// The caller is expected to build and send the CreateSessionResponse
// carrying sess.ID and sess.AuthenticationToken.
func (r *Registry) Create(req *uaservices.CreateSessionRequest) *ServerSession {
	sess := &ServerSession{
		ID:                  uatypes.NewGUIDNodeID(sessionNamespace, uatypes.NewGUID()),
		AuthenticationToken: uatypes.NewGUIDNodeID(sessionNamespace, uatypes.NewGUID()),
		Name:                req.SessionName,
		EndpointURL:         req.EndpointURL,
	}
	r.mu.Lock()
	r.byToken[sess.AuthenticationToken.Key()] = sess
	r.mu.Unlock()
	return sess
}

// Activate matches token against a known session and attaches channelID
// to it. Returns (nil, StatusBadSessionIdInvalid) on an unrecognized
// token.
func (r *Registry) Activate(token uatypes.NodeID, channelID uint32) (*ServerSession, uatypes.StatusCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.byToken[token.Key()]
	if !ok {
		return nil, uatypes.StatusBadSessionIDInvalid
	}
	sess.Activated = true
	sess.ChannelID = channelID
	return sess, uatypes.StatusGood
}

// Lookup finds a session by authentication token without activating it.
func (r *Registry) Lookup(token uatypes.NodeID) (*ServerSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.byToken[token.Key()]
	return sess, ok
}

// Close removes a session from the registry.
func (r *Registry) Close(token uatypes.NodeID) {
	r.mu.Lock()
	delete(r.byToken, token.Key())
	r.mu.Unlock()
}

// RemoveByChannel removes every session currently attached to channelID
// and returns them, for the caller to notify.
func (r *Registry) RemoveByChannel(channelID uint32) []*ServerSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []*ServerSession
	for token, sess := range r.byToken {
		if sess.ChannelID == channelID {
			removed = append(removed, sess)
			delete(r.byToken, token)
		}
	}
	return removed
}
