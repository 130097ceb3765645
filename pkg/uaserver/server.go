// Package uaserver wires pkg/addrspace, pkg/uasession and pkg/uachannel
// together behind a real net.Listener: the socket accept loop and the
// per-connection read loop are the one place in this module blocking
// I/O is allowed to live, one goroutine per connection, while every
// layer underneath stays a pure Feed/Send callback API.
package uaserver

import (
	"sync"

	"github.com/mgorny/opcuago/pkg/addrspace"
	"github.com/mgorny/opcuago/pkg/uacodec"
	"github.com/mgorny/opcuago/pkg/uachannel"
	"github.com/mgorny/opcuago/pkg/ualog"
	"github.com/mgorny/opcuago/pkg/uareg"
	"github.com/mgorny/opcuago/pkg/uaservices"
	"github.com/mgorny/opcuago/pkg/uasession"
	"github.com/mgorny/opcuago/pkg/uatypes"
)

// Config configures a Server.
type Config struct {
	// EndpointURL is the URL this server's own EndpointDescription
	// entries advertise; not otherwise validated against HEL.
	EndpointURL string

	// Space is the address space Read/Write/TranslateBrowsePaths
	// dispatch against. Required.
	Space *addrspace.AddressSpace

	// Registry is the structure registry channels decode against.
	// Defaults to uareg.Default.
	Registry *uareg.Registry

	LoggerFactory ualog.Factory
}

// Server owns the address space and the live session table shared by
// every connection it accepts.
type Server struct {
	cfg      Config
	log      ualog.Logger
	sessions *uasession.Registry

	closeOnce sync.Once
	closeChan chan struct{}
}

// New constructs a Server. cfg.Space must be non-nil.
func New(cfg Config) *Server {
	if cfg.Registry == nil {
		cfg.Registry = uareg.Default
	}
	return &Server{
		cfg:      cfg,
		log:      ualog.For(cfg.LoggerFactory, "uaserver"),
		sessions: uasession.NewRegistry(),
	}
}

// Stop signals every Serve call on this Server to return once their
// listener's next Accept fails. It does not itself close the
// net.Listener; callers close that separately so Accept actually
// unblocks.
func (srv *Server) Stop() {
	srv.closeOnce.Do(func() { srv.closeChan = make(chan struct{}) })
	close(srv.closeChan)
}

// Sessions returns the server's live session table.
func (srv *Server) Sessions() *uasession.Registry { return srv.sessions }

// Space returns the address space this server dispatches Read/Write
// against.
func (srv *Server) Space() *addrspace.AddressSpace { return srv.cfg.Space }

// dispatch answers every request a uachannel.Set decodes once the
// channel itself is open: CreateSession, ActivateSession, CloseSession,
// Read, Write, and TranslateBrowsePathsToNodeIds. OpenSecureChannel and
// CloseSecureChannel are handled directly by pkg/uachannel and never
// reach here.
func (srv *Server) dispatch(channelID, requestID uint32, abstractID uatypes.NodeID, req uacodec.Structure) (uatypes.NodeID, uacodec.Structure, error) {
	switch r := req.(type) {
	case *uaservices.CreateSessionRequest:
		return srv.handleCreateSession(r)
	case *uaservices.ActivateSessionRequest:
		return srv.handleActivateSession(channelID, r)
	case *uaservices.CloseSessionRequest:
		return srv.handleCloseSession(r)
	case *uaservices.ReadRequest:
		return srv.handleRead(r)
	case *uaservices.WriteRequest:
		return srv.handleWrite(r)
	case *uaservices.TranslateBrowsePathsToNodeIDsRequest:
		return srv.handleTranslateBrowsePaths(r)
	default:
		srv.log.Warnf("uaserver: no handler for request type %T", req)
		return uatypes.NodeID{}, nil, nil
	}
}

// RequestHandler returns the uachannel.RequestHandler this server
// answers every channel's requests with.
func (srv *Server) RequestHandler() uachannel.RequestHandler {
	return srv.dispatch
}

func (srv *Server) handleCreateSession(req *uaservices.CreateSessionRequest) (uatypes.NodeID, uacodec.Structure, error) {
	sess := srv.sessions.Create(req)
	resp := &uaservices.CreateSessionResponse{
		Header:                uaservices.NewResponseHeader(&req.Header, uatypes.StatusGood),
		SessionID:             sess.ID,
		AuthenticationToken:   sess.AuthenticationToken,
		RevisedSessionTimeout: req.RequestedSessionTimeout,
		ServerNonce:           uatypes.DefaultNonceSource.Nonce(32),
		ServerEndpoints: []uaservices.EndpointDescription{{
			EndpointURL:       srv.cfg.EndpointURL,
			SecurityMode:      uaservices.MessageSecurityModeNone,
			SecurityPolicyURI: "http://opcfoundation.org/UA/SecurityPolicy#None",
		}},
	}
	return uaservices.CreateSessionResponseTypeID, resp, nil
}

func (srv *Server) handleActivateSession(channelID uint32, req *uaservices.ActivateSessionRequest) (uatypes.NodeID, uacodec.Structure, error) {
	_, status := srv.sessions.Activate(req.Header.AuthenticationToken, channelID)
	resp := &uaservices.ActivateSessionResponse{
		Header:      uaservices.NewResponseHeader(&req.Header, status),
		ServerNonce: uatypes.DefaultNonceSource.Nonce(32),
	}
	if status == uatypes.StatusGood {
		resp.Results = []uatypes.StatusCode{uatypes.StatusGood}
	}
	return uaservices.ActivateSessionResponseTypeID, resp, nil
}

func (srv *Server) handleCloseSession(req *uaservices.CloseSessionRequest) (uatypes.NodeID, uacodec.Structure, error) {
	srv.sessions.Close(req.Header.AuthenticationToken)
	resp := &uaservices.CloseSessionResponse{Header: uaservices.NewResponseHeader(&req.Header, uatypes.StatusGood)}
	return uaservices.CloseSessionResponseTypeID, resp, nil
}

func (srv *Server) handleRead(req *uaservices.ReadRequest) (uatypes.NodeID, uacodec.Structure, error) {
	sess, found := srv.sessions.Lookup(req.Header.AuthenticationToken)
	if status := sessionStatus(sess, found); status != uatypes.StatusGood {
		return uaservices.ReadResponseTypeID, &uaservices.ReadResponse{Header: uaservices.NewResponseHeader(&req.Header, status)}, nil
	}
	caller := addrspace.NewCaller(sess.Name)
	resp := &uaservices.ReadResponse{
		Header:  uaservices.NewResponseHeader(&req.Header, uatypes.StatusGood),
		Results: srv.cfg.Space.Read(req, caller),
	}
	return uaservices.ReadResponseTypeID, resp, nil
}

func (srv *Server) handleWrite(req *uaservices.WriteRequest) (uatypes.NodeID, uacodec.Structure, error) {
	sess, found := srv.sessions.Lookup(req.Header.AuthenticationToken)
	if status := sessionStatus(sess, found); status != uatypes.StatusGood {
		return uaservices.WriteResponseTypeID, &uaservices.WriteResponse{Header: uaservices.NewResponseHeader(&req.Header, status)}, nil
	}
	caller := addrspace.NewCaller(sess.Name)
	resp := &uaservices.WriteResponse{
		Header:  uaservices.NewResponseHeader(&req.Header, uatypes.StatusGood),
		Results: srv.cfg.Space.Write(req, caller),
	}
	return uaservices.WriteResponseTypeID, resp, nil
}

func (srv *Server) handleTranslateBrowsePaths(req *uaservices.TranslateBrowsePathsToNodeIDsRequest) (uatypes.NodeID, uacodec.Structure, error) {
	sess, found := srv.sessions.Lookup(req.Header.AuthenticationToken)
	if status := sessionStatus(sess, found); status != uatypes.StatusGood {
		return uaservices.TranslateBrowsePathsToNodeIDsResponseTypeID, &uaservices.TranslateBrowsePathsToNodeIDsResponse{Header: uaservices.NewResponseHeader(&req.Header, status)}, nil
	}
	resp := &uaservices.TranslateBrowsePathsToNodeIDsResponse{
		Header:  uaservices.NewResponseHeader(&req.Header, uatypes.StatusGood),
		Results: srv.cfg.Space.TranslateBrowsePaths(req),
	}
	return uaservices.TranslateBrowsePathsToNodeIDsResponseTypeID, resp, nil
}

// sessionStatus folds a Lookup miss into the same BadSessionIdInvalid
// every activated-session request answers with on an unrecognized
// authentication token.
func sessionStatus(sess *uasession.ServerSession, ok bool) uatypes.StatusCode {
	if !ok || !sess.Activated {
		return uatypes.StatusBadSessionIDInvalid
	}
	return uatypes.StatusGood
}
