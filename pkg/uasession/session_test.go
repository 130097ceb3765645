package uasession

import (
	"testing"

	"github.com/mgorny/opcuago/pkg/uacodec"
	"github.com/mgorny/opcuago/pkg/uachannel"
	"github.com/mgorny/opcuago/pkg/uaservices"
	"github.com/mgorny/opcuago/pkg/uatransport"
	"github.com/mgorny/opcuago/pkg/uatypes"
)

type chunkHandlerFunc func(channelID uint32, msgType uatransport.MessageType, final uatransport.Finality, body []byte) error

func (f chunkHandlerFunc) HandleChunk(channelID uint32, msgType uatransport.MessageType, final uatransport.Finality, body []byte) error {
	return f(channelID, msgType, final, body)
}

// serverDispatch answers CreateSession/ActivateSession/Read/Write/Close
// against a Registry, the same role pkg/uaserver plays.
func serverDispatch(reg *Registry) uachannel.RequestHandler {
	return func(channelID, requestID uint32, abstractID uatypes.NodeID, req uacodec.Structure) (uatypes.NodeID, uacodec.Structure, error) {
		switch r := req.(type) {
		case *uaservices.CreateSessionRequest:
			sess := reg.Create(r)
			resp := &uaservices.CreateSessionResponse{
				Header:                uaservices.NewResponseHeader(&r.Header, uatypes.StatusGood),
				SessionID:             sess.ID,
				AuthenticationToken:   sess.AuthenticationToken,
				RevisedSessionTimeout: r.RequestedSessionTimeout,
			}
			return uaservices.CreateSessionResponseTypeID, resp, nil
		case *uaservices.ActivateSessionRequest:
			_, status := reg.Activate(r.Header.AuthenticationToken, channelID)
			resp := &uaservices.ActivateSessionResponse{
				Header:  uaservices.NewResponseHeader(&r.Header, status),
				Results: []uatypes.StatusCode{uatypes.StatusGood},
			}
			return uaservices.ActivateSessionResponseTypeID, resp, nil
		case *uaservices.ReadRequest:
			if _, ok := reg.Lookup(r.Header.AuthenticationToken); !ok {
				resp := &uaservices.ReadResponse{Header: uaservices.NewResponseHeader(&r.Header, uatypes.StatusBadSessionIDInvalid)}
				return uaservices.ReadResponseTypeID, resp, nil
			}
			results := make([]uatypes.DataValue, len(r.NodesToRead))
			for i := range results {
				results[i] = uatypes.NewDataValueFromVariant(uatypes.NewVariantInt32(7))
			}
			resp := &uaservices.ReadResponse{Header: uaservices.NewResponseHeader(&r.Header, uatypes.StatusGood), Results: results}
			return uaservices.ReadResponseTypeID, resp, nil
		case *uaservices.WriteRequest:
			if _, ok := reg.Lookup(r.Header.AuthenticationToken); !ok {
				resp := &uaservices.WriteResponse{Header: uaservices.NewResponseHeader(&r.Header, uatypes.StatusBadSessionIDInvalid)}
				return uaservices.WriteResponseTypeID, resp, nil
			}
			results := make([]uatypes.StatusCode, len(r.NodesToWrite))
			for i := range results {
				results[i] = uatypes.StatusGood
			}
			resp := &uaservices.WriteResponse{Header: uaservices.NewResponseHeader(&r.Header, uatypes.StatusGood), Results: results}
			return uaservices.WriteResponseTypeID, resp, nil
		case *uaservices.CloseSessionRequest:
			reg.Close(r.Header.AuthenticationToken)
			resp := &uaservices.CloseSessionResponse{Header: uaservices.NewResponseHeader(&r.Header, uatypes.StatusGood)}
			return uaservices.CloseSessionResponseTypeID, resp, nil
		default:
			return uatypes.NodeID{}, nil, nil
		}
	}
}

// wireFullStack builds a client uachannel.Set driven by a uasession
// Directory, and a server uachannel.Set driven by serverDispatch against
// reg, each over its own Transport wired directly to the other's Feed.
func wireFullStack(t *testing.T, dir *Directory, reg *Registry) (client, server *uachannel.Set) {
	t.Helper()
	var clientTransport, serverTransport *uatransport.Transport
	var clientSet, serverSet *uachannel.Set

	clientTransport, err := uatransport.New(uatransport.Config{
		Role:        uatransport.RoleClient,
		EndpointURL: "opc.tcp://localhost:4840/test",
		Send:        func(b []byte) error { return serverTransport.Feed(b) },
		ChunkHandler: chunkHandlerFunc(func(channelID uint32, msgType uatransport.MessageType, final uatransport.Finality, body []byte) error {
			return clientSet.HandleChunk(channelID, msgType, final, body)
		}),
	})
	if err != nil {
		t.Fatalf("New(clientTransport): %v", err)
	}
	serverTransport, err = uatransport.New(uatransport.Config{
		Role: uatransport.RoleServer,
		Send: func(b []byte) error { return clientTransport.Feed(b) },
		ChunkHandler: chunkHandlerFunc(func(channelID uint32, msgType uatransport.MessageType, final uatransport.Finality, body []byte) error {
			return serverSet.HandleChunk(channelID, msgType, final, body)
		}),
	})
	if err != nil {
		t.Fatalf("New(serverTransport): %v", err)
	}

	clientSet, err = uachannel.NewSet(uachannel.Config{
		Role:           uatransport.RoleClient,
		Transport:      clientTransport,
		RequestHandler: dir.Handle,
	})
	if err != nil {
		t.Fatalf("NewSet(client): %v", err)
	}
	serverSet, err = uachannel.NewSet(uachannel.Config{
		Role:           uatransport.RoleServer,
		Transport:      serverTransport,
		RequestHandler: serverDispatch(reg),
	})
	if err != nil {
		t.Fatalf("NewSet(server): %v", err)
	}

	if err := clientTransport.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !clientTransport.IsReady() || !serverTransport.IsReady() {
		t.Fatalf("handshake did not complete")
	}
	return clientSet, serverSet
}

func TestCreateActivateReadWriteCloseRoundTrip(t *testing.T) {
	dir := NewDirectory()
	reg := NewRegistry()
	clientSet, _ := wireFullStack(t, dir, reg)

	ch, _, err := clientSet.OpenClient(uaservices.MessageSecurityModeNone, 3600000)
	if err != nil {
		t.Fatalf("OpenClient: %v", err)
	}

	sess := New(dir, "test-session", "opc.tcp://localhost:4840/test")

	var createErr error
	if err := sess.Create(ch, &uaservices.CreateSessionRequest{RequestedSessionTimeout: 60000}, func(resp *uaservices.CreateSessionResponse, err error) {
		createErr = err
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if createErr != nil {
		t.Fatalf("CreateSessionResponse callback error: %v", createErr)
	}
	if sess.SessionID().IsNull() || sess.AuthenticationToken().IsNull() {
		t.Fatalf("session not populated after Create")
	}

	var activateErr error
	var activateStatus uatypes.StatusCode
	if err := sess.Activate(nil, func(resp *uaservices.ActivateSessionResponse, err error) {
		activateErr = err
		if resp != nil {
			activateStatus = resp.Header.ServiceResult
		}
	}); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if activateErr != nil {
		t.Fatalf("ActivateSessionResponse callback error: %v", activateErr)
	}
	if activateStatus != uatypes.StatusGood {
		t.Fatalf("activate status = %v, want Good", activateStatus)
	}

	var readErr error
	var readResults []uatypes.DataValue
	readReq := &uaservices.ReadRequest{
		NodesToRead: []uaservices.ReadValueID{{NodeID: uatypes.NewNumericNodeID(1, 1), AttributeID: uaservices.AttributeValue}},
	}
	if err := sess.Read(readReq, func(resp *uaservices.ReadResponse, err error) {
		readErr = err
		if resp != nil {
			readResults = resp.Results
		}
	}); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if readErr != nil {
		t.Fatalf("ReadResponse callback error: %v", readErr)
	}
	if len(readResults) != 1 {
		t.Fatalf("read results = %d, want 1", len(readResults))
	}

	var writeErr error
	var writeResults []uatypes.StatusCode
	writeReq := &uaservices.WriteRequest{
		NodesToWrite: []uaservices.WriteValue{{
			NodeID:      uatypes.NewNumericNodeID(1, 1),
			AttributeID: uaservices.AttributeValue,
			Value:       uatypes.NewDataValueFromVariant(uatypes.NewVariantInt32(9)),
		}},
	}
	if err := sess.Write(writeReq, func(resp *uaservices.WriteResponse, err error) {
		writeErr = err
		if resp != nil {
			writeResults = resp.Results
		}
	}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if writeErr != nil {
		t.Fatalf("WriteResponse callback error: %v", writeErr)
	}
	if len(writeResults) != 1 || writeResults[0] != uatypes.StatusGood {
		t.Fatalf("write results = %v, want [Good]", writeResults)
	}

	var closeErr error
	if err := sess.Close(false, func(resp *uaservices.CloseSessionResponse, err error) {
		closeErr = err
	}); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if closeErr != nil {
		t.Fatalf("CloseSessionResponse callback error: %v", closeErr)
	}
	if _, ok := reg.Lookup(sess.AuthenticationToken()); ok {
		t.Fatalf("session still present in registry after Close")
	}
}

func TestActivateUnknownTokenIsRejected(t *testing.T) {
	dir := NewDirectory()
	reg := NewRegistry()
	clientSet, _ := wireFullStack(t, dir, reg)

	ch, _, err := clientSet.OpenClient(uaservices.MessageSecurityModeNone, 3600000)
	if err != nil {
		t.Fatalf("OpenClient: %v", err)
	}

	sess := New(dir, "test-session", "opc.tcp://localhost:4840/test")
	sess.Reattach(ch)
	// Force an authentication token the server never minted.
	sess.mu.Lock()
	sess.authToken = uatypes.NewGUIDNodeID(1, uatypes.NewGUID())
	sess.mu.Unlock()

	var status uatypes.StatusCode
	if err := sess.Activate(nil, func(resp *uaservices.ActivateSessionResponse, err error) {
		if resp != nil {
			status = resp.Header.ServiceResult
		}
	}); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if status != uatypes.StatusBadSessionIDInvalid {
		t.Fatalf("status = %v, want BadSessionIdInvalid", status)
	}
}

func TestCancelAllFiresPendingCallbacksInInsertionOrder(t *testing.T) {
	dir := NewDirectory()
	sess := New(dir, "test-session", "opc.tcp://localhost:4840/test")

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		dir.register(sess, uint32(i+1), func(resp uacodec.Structure, err error) {
			if err != ErrConnectionClosed {
				t.Fatalf("callback %d: err = %v, want ErrConnectionClosed", i, err)
			}
			order = append(order, i)
		})
	}

	sess.CancelAll()

	if len(order) != 3 {
		t.Fatalf("callbacks fired = %d, want 3", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("callback order = %v, want [0 1 2]", order)
		}
	}
}
