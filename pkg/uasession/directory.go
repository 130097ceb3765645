package uasession

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mgorny/opcuago/pkg/uacodec"
	"github.com/mgorny/opcuago/pkg/uaservices"
	"github.com/mgorny/opcuago/pkg/uatypes"
)

// Callback receives the typed response a Session's outstanding request
// resolved to, or a non-nil err (ErrConnectionClosed on teardown) if it
// never got one.
type Callback func(resp uacodec.Structure, err error)

type pendingEntry struct {
	session *Session
	cb      Callback
}

// Directory is the client-side counterpart of the request dispatch a
// secure channel needs: it implements a uachannel RequestHandler-shaped
// function that never answers a request (it only ever sees Responses)
// and instead resolves each arriving Response's RequestHandle to the
// callback a Session registered when it sent the matching request.
//
// One Directory is shared by every Session a client process keeps open
// over one Transport, since CreateSessionResponse (the very first
// response a Session receives) arrives before any session id or
// authentication token is known, ruling out a per-session routing key.
type Directory struct {
	mu      sync.Mutex
	pending map[uint32]pendingEntry
}

// NewDirectory constructs an empty client request directory.
func NewDirectory() *Directory {
	return &Directory{pending: make(map[uint32]pendingEntry)}
}

// Handle implements the uachannel.RequestHandler signature. It is passed
// as Config.RequestHandler when building the uachannel.Set on the client
// side of a connection.
func (d *Directory) Handle(channelID, requestID uint32, abstractID uatypes.NodeID, msg uacodec.Structure) (uatypes.NodeID, uacodec.Structure, error) {
	handle, ok := requestHandleOf(msg)
	if !ok {
		return uatypes.NodeID{}, nil, nil
	}

	d.mu.Lock()
	entry, found := d.pending[handle]
	if found {
		delete(d.pending, handle)
	}
	d.mu.Unlock()

	if !found {
		return uatypes.NodeID{}, nil, nil
	}
	entry.session.forgetPending(handle)
	entry.cb(msg, nil)
	return uatypes.NodeID{}, nil, nil
}

func (d *Directory) register(sess *Session, handle uint32, cb Callback) {
	d.mu.Lock()
	d.pending[handle] = pendingEntry{session: sess, cb: cb}
	d.mu.Unlock()
	sess.trackPending(handle)
}

func (d *Directory) cancel(handle uint32) (Callback, bool) {
	d.mu.Lock()
	entry, ok := d.pending[handle]
	if ok {
		delete(d.pending, handle)
	}
	d.mu.Unlock()
	if !ok {
		return nil, false
	}
	return entry.cb, true
}

// HandleAbort resolves requestID's pending callback, if this directory
// is still waiting on it, with an error built from the peer's abort
// status code and reason. Wired as a client-role uachannel.Set's
// AbortHandler: a channel aborting a chunked request/response is the
// channel-layer counterpart of a connection dropping outright, so it
// fails the one waiting request rather than the whole session.
func (d *Directory) HandleAbort(channelID, requestID uint32, statusCode uint32, reason string) {
	d.mu.Lock()
	entry, found := d.pending[requestID]
	if found {
		delete(d.pending, requestID)
	}
	d.mu.Unlock()
	if !found {
		return
	}
	entry.session.forgetPending(requestID)
	entry.cb(nil, fmt.Errorf("%w: status=%#08x reason=%q", ErrAborted, statusCode, reason))
}

// CancelAllPending fires ErrConnectionClosed to every request still
// outstanding across every Session sharing this Directory, in the
// order the requests were originally sent. Request handles are minted
// from uachannel.NextRequestID, a single process-wide counter, so
// sorting by handle recovers that order even across sessions sharing
// one Directory. Wired as the owning Transport's Config.OnClose hook:
// once the connection underneath every one of this Directory's
// sessions has torn down, none of their pending requests will ever get
// a real response.
func (d *Directory) CancelAllPending() {
	d.mu.Lock()
	pending := d.pending
	d.pending = make(map[uint32]pendingEntry)
	d.mu.Unlock()

	handles := make([]uint32, 0, len(pending))
	for handle := range pending {
		handles = append(handles, handle)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })

	for _, handle := range handles {
		entry := pending[handle]
		entry.session.forgetPending(handle)
		entry.cb(nil, ErrConnectionClosed)
	}
}

// requestHandleOf extracts the ResponseHeader.RequestHandle from every
// response type a client-role Session exchanges with a server. It
// returns false for anything else (in particular, for requests the
// client itself might decode, which should never reach a client-role
// Directory since the server never sends one of those message types to
// a pure client).
func requestHandleOf(msg uacodec.Structure) (uint32, bool) {
	switch m := msg.(type) {
	case *uaservices.CreateSessionResponse:
		return m.Header.RequestHandle, true
	case *uaservices.ActivateSessionResponse:
		return m.Header.RequestHandle, true
	case *uaservices.CloseSessionResponse:
		return m.Header.RequestHandle, true
	case *uaservices.ReadResponse:
		return m.Header.RequestHandle, true
	case *uaservices.WriteResponse:
		return m.Header.RequestHandle, true
	case *uaservices.TranslateBrowsePathsToNodeIDsResponse:
		return m.Header.RequestHandle, true
	default:
		return 0, false
	}
}
