package uaserver

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/mgorny/opcuago/pkg/addrspace"
	"github.com/mgorny/opcuago/pkg/uachannel"
	"github.com/mgorny/opcuago/pkg/uacodec"
	"github.com/mgorny/opcuago/pkg/uaservices"
	"github.com/mgorny/opcuago/pkg/uasession"
	"github.com/mgorny/opcuago/pkg/uatransport"
	"github.com/mgorny/opcuago/pkg/uatypes"
	"github.com/mgorny/opcuago/pkg/ztransport"
)

type testChunkHandler func(channelID uint32, msgType uatransport.MessageType, final uatransport.Finality, body []byte) error

func (f testChunkHandler) HandleChunk(channelID uint32, msgType uatransport.MessageType, final uatransport.Finality, body []byte) error {
	return f(channelID, msgType, final, body)
}

func feedLoop(t *testing.T, nc net.Conn, transport *uatransport.Transport) {
	t.Helper()
	buf := make([]byte, 4096)
	for {
		n, err := nc.Read(buf)
		if n > 0 {
			if feedErr := transport.Feed(buf[:n]); feedErr != nil {
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				t.Logf("feedLoop: %v", err)
			}
			return
		}
	}
}

// TestServeRoundTripOverPipe drives a Server through its real
// Serve/handleConn TCP-shaped wiring, but over an in-memory ztransport
// Pipe instead of a real socket: it opens a secure channel, creates and
// activates a session, and reads a static Variable's Value, asserting
// each step completes the way cmd/opcua-client's real-socket flow does.
func TestServeRoundTripOverPipe(t *testing.T) {
	space := addrspace.New()
	switchID := uatypes.NewNumericNodeID(1, 1)
	space.AddNode(switchID, addrspace.NewVariable(
		uatypes.QualifiedName{NamespaceIndex: 1, Name: "Switch"},
		uatypes.LocalizedText{Locale: "en", Text: "Switch"},
		uatypes.NewNumericNodeID(0, 1),
		uaservices.AccessLevelCurrentRead|uaservices.AccessLevelCurrentWrite,
		uatypes.NewVariantBoolean(true),
	))

	srv := New(Config{EndpointURL: "opc.tcp://pipe/test", Space: space})

	pipe := ztransport.New()
	defer pipe.Close()

	done := make(chan struct{})
	go func() {
		srv.handleConn(pipe.Conn0())
		close(done)
	}()

	clientConn := pipe.Conn1()
	dir := uasession.NewDirectory()
	var clientSet *uachannel.Set
	opened := make(chan struct{})
	var openedClosed bool

	clientTransport, err := uatransport.New(uatransport.Config{
		Role:        uatransport.RoleClient,
		EndpointURL: "opc.tcp://pipe/test",
		Send:        func(b []byte) error { _, werr := clientConn.Write(b); return werr },
		ChunkHandler: testChunkHandler(func(channelID uint32, msgType uatransport.MessageType, final uatransport.Finality, body []byte) error {
			return clientSet.HandleChunk(channelID, msgType, final, body)
		}),
	})
	if err != nil {
		t.Fatalf("uatransport.New: %v", err)
	}

	clientSet, err = uachannel.NewSet(uachannel.Config{
		Role:      uatransport.RoleClient,
		Transport: clientTransport,
		RequestHandler: func(channelID, requestID uint32, abstractID uatypes.NodeID, msg uacodec.Structure) (uatypes.NodeID, uacodec.Structure, error) {
			if abstractID.Equal(uaservices.OpenSecureChannelResponseTypeID) && !openedClosed {
				openedClosed = true
				close(opened)
			}
			return dir.Handle(channelID, requestID, abstractID, msg)
		},
	})
	if err != nil {
		t.Fatalf("uachannel.NewSet: %v", err)
	}

	go feedLoop(t, clientConn, clientTransport)

	if err := clientTransport.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !waitUntil(t, func() bool { return clientTransport.IsReady() }) {
		t.Fatalf("handshake did not complete")
	}

	ch, _, err := clientSet.OpenClient(uaservices.MessageSecurityModeNone, 3600000)
	if err != nil {
		t.Fatalf("OpenClient: %v", err)
	}
	select {
	case <-opened:
	case <-time.After(2 * time.Second):
		t.Fatalf("OpenSecureChannel did not complete")
	}

	sess := uasession.New(dir, "test-client", "opc.tcp://pipe/test")

	createErrCh := make(chan error, 1)
	if err := sess.Create(ch, &uaservices.CreateSessionRequest{RequestedSessionTimeout: 60000}, func(resp *uaservices.CreateSessionResponse, err error) {
		createErrCh <- err
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := <-createErrCh; err != nil {
		t.Fatalf("CreateSessionResponse: %v", err)
	}

	activateErrCh := make(chan error, 1)
	var activateStatus uatypes.StatusCode
	if err := sess.Activate(nil, func(resp *uaservices.ActivateSessionResponse, err error) {
		if err == nil {
			activateStatus = resp.Header.ServiceResult
		}
		activateErrCh <- err
	}); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if err := <-activateErrCh; err != nil {
		t.Fatalf("ActivateSessionResponse: %v", err)
	}
	if activateStatus != uatypes.StatusGood {
		t.Fatalf("activate status = %v, want Good", activateStatus)
	}

	readErrCh := make(chan error, 1)
	var results []uatypes.DataValue
	readReq := &uaservices.ReadRequest{
		NodesToRead: []uaservices.ReadValueID{{NodeID: switchID, AttributeID: uaservices.AttributeValue}},
	}
	if err := sess.Read(readReq, func(resp *uaservices.ReadResponse, err error) {
		if err == nil {
			results = resp.Results
		}
		readErrCh <- err
	}); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if err := <-readErrCh; err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if len(results) != 1 || !results[0].HasValue() {
		t.Fatalf("results = %+v, want one value-bearing DataValue", results)
	}
	b, ok := results[0].Value.Bool()
	if !ok || !b {
		t.Fatalf("value = %v, %v; want true, true", b, ok)
	}

	closeErrCh := make(chan error, 1)
	if err := sess.Close(false, func(resp *uaservices.CloseSessionResponse, err error) {
		closeErrCh <- err
	}); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := <-closeErrCh; err != nil {
		t.Fatalf("CloseSessionResponse: %v", err)
	}

	clientConn.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("server handleConn did not return after connection close")
	}
}

func waitUntil(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}
