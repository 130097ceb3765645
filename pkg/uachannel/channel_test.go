package uachannel

import (
	"testing"

	"github.com/mgorny/opcuago/pkg/uacodec"
	"github.com/mgorny/opcuago/pkg/uaservices"
	"github.com/mgorny/opcuago/pkg/uatransport"
	"github.com/mgorny/opcuago/pkg/uatypes"
)

// echoHandler answers every request with a WriteResponse carrying one
// StatusGood result, regardless of the request's actual type; good enough
// to exercise the channel's framing and dispatch without pulling in the
// session/address-space layers.
type echoHandler struct {
	calls []uacodec.Structure
}

func (h *echoHandler) handle(channelID, requestID uint32, abstractID uatypes.NodeID, req uacodec.Structure) (uatypes.NodeID, uacodec.Structure, error) {
	h.calls = append(h.calls, req)
	resp := &uaservices.WriteResponse{
		Header:  uaservices.ResponseHeader{RequestHandle: requestID},
		Results: []uatypes.StatusCode{uatypes.StatusGood},
	}
	return uaservices.WriteResponseTypeID, resp, nil
}

// wireSets builds a client Transport+Set and a server Transport+Set wired
// directly to each other's Feed, as an event-loop runtime would once
// bytes become readable on the underlying socket.
func wireSets(t *testing.T, serverHandler RequestHandler) (client, server *Set) {
	t.Helper()
	var clientTransport, serverTransport *uatransport.Transport
	var clientSet, serverSet *Set

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

	clientSet, err = NewSet(Config{
		Role:      uatransport.RoleClient,
		Transport: clientTransport,
		RequestHandler: func(channelID, requestID uint32, abstractID uatypes.NodeID, req uacodec.Structure) (uatypes.NodeID, uacodec.Structure, error) {
			return uatypes.NodeID{}, nil, nil
		},
	})
	if err != nil {
		t.Fatalf("NewSet(client): %v", err)
	}
	serverSet, err = NewSet(Config{
		Role:           uatransport.RoleServer,
		Transport:      serverTransport,
		RequestHandler: serverHandler,
	})
	if err != nil {
		t.Fatalf("NewSet(server): %v", err)
	}

	if err := clientTransport.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !clientTransport.IsReady() || !serverTransport.IsReady() {
		t.Fatalf("HEL/ACK handshake did not complete")
	}
	return clientSet, serverSet
}

type chunkHandlerFunc func(channelID uint32, msgType uatransport.MessageType, final uatransport.Finality, body []byte) error

func (f chunkHandlerFunc) HandleChunk(channelID uint32, msgType uatransport.MessageType, final uatransport.Finality, body []byte) error {
	return f(channelID, msgType, final, body)
}

func TestOpenSecureChannelHandshake(t *testing.T) {
	resetCountersForTest()
	defer resetCountersForTest()

	handler := &echoHandler{}
	clientSet, _ := wireSets(t, handler.handle)

	ch, _, err := clientSet.OpenClient(uaservices.MessageSecurityModeNone, 3600000)
	if err != nil {
		t.Fatalf("OpenClient: %v", err)
	}
	if ch.ID() == 0 {
		t.Fatalf("channel id not assigned after OpenSecureChannelResponse")
	}
	if ch.currentTokenID == 0 {
		t.Fatalf("token id not assigned after OpenSecureChannelResponse")
	}
}

func TestRequestRoundTripsThroughChannel(t *testing.T) {
	resetCountersForTest()
	defer resetCountersForTest()

	handler := &echoHandler{}
	clientSet, _ := wireSets(t, handler.handle)

	ch, _, err := clientSet.OpenClient(uaservices.MessageSecurityModeNone, 3600000)
	if err != nil {
		t.Fatalf("OpenClient: %v", err)
	}

	reqID := NextRequestID()
	req := &uaservices.WriteRequest{
		Header: uaservices.RequestHeader{RequestHandle: reqID},
		NodesToWrite: []uaservices.WriteValue{
			{NodeID: uatypes.NewNumericNodeID(1, 42), AttributeID: uaservices.AttributeValue, Value: uatypes.NewDataValueFromVariant(uatypes.NewVariantInt32(7))},
		},
	}
	if err := ch.Write(reqID, uaservices.WriteRequestTypeID, req); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if len(handler.calls) != 1 {
		t.Fatalf("handler calls = %d, want 1", len(handler.calls))
	}
	got, ok := handler.calls[0].(*uaservices.WriteRequest)
	if !ok {
		t.Fatalf("dispatched wrong type: %T", handler.calls[0])
	}
	if len(got.NodesToWrite) != 1 || got.NodesToWrite[0].NodeID.Numeric() != 42 {
		t.Fatalf("decoded request mismatch: %+v", got.NodesToWrite)
	}
}

func TestTokenRejectedAfterRenewOverlapWindowConsumed(t *testing.T) {
	resetCountersForTest()
	defer resetCountersForTest()

	handler := &echoHandler{}
	clientSet, serverSet := wireSets(t, handler.handle)
	if _, _, err := clientSet.OpenClient(uaservices.MessageSecurityModeNone, 3600000); err != nil {
		t.Fatalf("OpenClient: %v", err)
	}

	serverSet.mu.Lock()
	var serverChannel *Channel
	for _, c := range serverSet.channels {
		serverChannel = c
	}
	serverSet.mu.Unlock()
	if serverChannel == nil {
		t.Fatalf("server has no channel after OpenSecureChannel")
	}

	serverChannel.previousTokenID = 111
	serverChannel.previousValid = true
	serverChannel.currentTokenID = 222

	if !serverChannel.tokenAccepted(111) {
		t.Fatalf("previous token should be accepted once")
	}
	if serverChannel.tokenAccepted(111) {
		t.Fatalf("previous token should not be accepted a second time")
	}
	if !serverChannel.tokenAccepted(222) {
		t.Fatalf("current token should always be accepted")
	}
}

func TestAbortedChunkInvokesAbortHandler(t *testing.T) {
	resetCountersForTest()
	defer resetCountersForTest()

	var gotChannelID, gotRequestID, gotStatus uint32
	var gotReason string
	set, err := NewSet(Config{
		Role: uatransport.RoleClient,
		RequestHandler: func(channelID, requestID uint32, abstractID uatypes.NodeID, req uacodec.Structure) (uatypes.NodeID, uacodec.Structure, error) {
			return uatypes.NodeID{}, nil, nil
		},
		AbortHandler: func(channelID, requestID uint32, statusCode uint32, reason string) {
			gotChannelID, gotRequestID, gotStatus, gotReason = channelID, requestID, statusCode, reason
		},
	})
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}

	ch := &Channel{
		id:             5,
		currentTokenID: 999,
		set:            set,
		reassembly:     map[uint32][]byte{77: {1, 2, 3}},
		lastSeqByReq:   make(map[uint32]uint32),
	}
	set.channels = map[uint32]*Channel{5: ch}

	out := uatypes.NewBuffer()
	e := uacodec.NewEncoder(out)
	sym := SymmetricAlgorithmSecurityHeader{TokenID: 999}
	sym.encode(e)
	seq := SequenceHeader{SequenceNumber: 1, RequestID: 77}
	seq.encode(e)
	e.PutUint32(0x80010000) // BadUnexpectedError-shaped status for the test
	e.PutString("client cancelled")

	if err := ch.handleChunk(uatransport.MessageTypeMSG, uatransport.FinalityAborted, out.Bytes()); err != nil {
		t.Fatalf("handleChunk: %v", err)
	}

	if gotChannelID != 5 || gotRequestID != 77 || gotStatus != 0x80010000 || gotReason != "client cancelled" {
		t.Fatalf("AbortHandler got (%d, %d, %#08x, %q), want (5, 77, 0x80010000, \"client cancelled\")",
			gotChannelID, gotRequestID, gotStatus, gotReason)
	}
	if _, leaked := ch.reassembly[77]; leaked {
		t.Fatalf("reassembly entry for aborted request id 77 was not evicted")
	}
}

func TestRenewEndToEndOverWire(t *testing.T) {
	resetCountersForTest()
	defer resetCountersForTest()

	handler := &echoHandler{}
	clientSet, serverSet := wireSets(t, handler.handle)

	ch, _, err := clientSet.OpenClient(uaservices.MessageSecurityModeNone, 3600000)
	if err != nil {
		t.Fatalf("OpenClient: %v", err)
	}
	oldToken := ch.currentTokenID

	if _, err := ch.Renew(3600000); err != nil {
		t.Fatalf("Renew: %v", err)
	}

	if ch.currentTokenID == oldToken {
		t.Fatalf("client channel token did not change after Renew")
	}
	if ch.previousTokenID != oldToken || !ch.previousValid {
		t.Fatalf("client channel did not record the overlap window: previousTokenID=%d previousValid=%v", ch.previousTokenID, ch.previousValid)
	}

	serverSet.mu.Lock()
	serverChannel := serverSet.channels[ch.ID()]
	serverSet.mu.Unlock()
	if serverChannel == nil {
		t.Fatalf("server has no channel for id %d after Renew", ch.ID())
	}
	if serverChannel.currentTokenID != ch.currentTokenID {
		t.Fatalf("server currentTokenID = %d, want %d", serverChannel.currentTokenID, ch.currentTokenID)
	}
	if serverChannel.previousTokenID != oldToken || !serverChannel.previousValid {
		t.Fatalf("server did not record the overlap window: previousTokenID=%d previousValid=%v", serverChannel.previousTokenID, serverChannel.previousValid)
	}

	// A request framed with the pre-renewal token should still be
	// accepted exactly once, consuming the one-message overlap window.
	shadow := &Channel{id: ch.ID(), set: ch.set, currentTokenID: oldToken}

	reqID := NextRequestID()
	req := &uaservices.WriteRequest{
		Header: uaservices.RequestHeader{RequestHandle: reqID},
		NodesToWrite: []uaservices.WriteValue{
			{NodeID: uatypes.NewNumericNodeID(1, 1), AttributeID: uaservices.AttributeValue, Value: uatypes.NewDataValueFromVariant(uatypes.NewVariantInt32(1))},
		},
	}
	if err := shadow.Write(reqID, uaservices.WriteRequestTypeID, req); err != nil {
		t.Fatalf("Write with stale overlap-window token: %v", err)
	}
	if len(handler.calls) != 1 {
		t.Fatalf("handler calls = %d, want 1 after the overlap-window request", len(handler.calls))
	}

	reqID2 := NextRequestID()
	req2 := &uaservices.WriteRequest{
		Header: uaservices.RequestHeader{RequestHandle: reqID2},
		NodesToWrite: []uaservices.WriteValue{
			{NodeID: uatypes.NewNumericNodeID(1, 2), AttributeID: uaservices.AttributeValue, Value: uatypes.NewDataValueFromVariant(uatypes.NewVariantInt32(2))},
		},
	}
	if err := shadow.Write(reqID2, uaservices.WriteRequestTypeID, req2); err == nil {
		t.Fatalf("Write with stale token after overlap window consumed: want error, got nil")
	}
	if len(handler.calls) != 1 {
		t.Fatalf("handler calls = %d, want still 1 once the stale token is rejected a second time", len(handler.calls))
	}
}

func TestWriteSplitsIntoMultipleChunksWhenPeerBufferIsSmall(t *testing.T) {
	resetCountersForTest()
	defer resetCountersForTest()

	handler := &echoHandler{}
	clientSet, _ := wireSets(t, handler.handle)

	ch, _, err := clientSet.OpenClient(uaservices.MessageSecurityModeNone, 3600000)
	if err != nil {
		t.Fatalf("OpenClient: %v", err)
	}

	ch.set.cfg.Transport.PeerLimits.ReceiveBufferSize = 64

	var nodes []uaservices.WriteValue
	for i := 0; i < 50; i++ {
		nodes = append(nodes, uaservices.WriteValue{
			NodeID:      uatypes.NewNumericNodeID(1, uint32(i)),
			AttributeID: uaservices.AttributeValue,
			Value:       uatypes.NewDataValueFromVariant(uatypes.NewVariantInt32(int32(i))),
		})
	}
	reqID := NextRequestID()
	req := &uaservices.WriteRequest{Header: uaservices.RequestHeader{RequestHandle: reqID}, NodesToWrite: nodes}
	if err := ch.Write(reqID, uaservices.WriteRequestTypeID, req); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if len(handler.calls) != 1 {
		t.Fatalf("handler calls = %d, want 1 (reassembly should yield exactly one dispatch)", len(handler.calls))
	}
	got, ok := handler.calls[0].(*uaservices.WriteRequest)
	if !ok {
		t.Fatalf("dispatched wrong type: %T", handler.calls[0])
	}
	if len(got.NodesToWrite) != 50 {
		t.Fatalf("reassembled NodesToWrite = %d, want 50", len(got.NodesToWrite))
	}
}
