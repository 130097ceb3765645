// Package uachannel implements the secure-channel layer (spec C5): per
// channel sequence numbers, request ids, token id, the chunk-reassembly
// store, and OpenSecureChannel/CloseSecureChannel handling. A channel
// encodes a service structure into one or more framed chunks and hands
// them to a pkg/uatransport.Transport; it decodes reassembled chunks
// back into a structure and hands the result to a RequestHandler.
package uachannel

import (
	"sync"

	"github.com/mgorny/opcuago/pkg/uacodec"
	"github.com/mgorny/opcuago/pkg/ualog"
	"github.com/mgorny/opcuago/pkg/uareg"
	"github.com/mgorny/opcuago/pkg/uaservices"
	"github.com/mgorny/opcuago/pkg/uatransport"
	"github.com/mgorny/opcuago/pkg/uatypes"
)

// RequestHandler processes one fully-reassembled, decoded request and
// returns the response to send back (msgType MSG, same channel and
// request id). Returning a nil response sends nothing back.
// CloseSecureChannel never reaches the handler: a CLO message tears the
// channel down before dispatch.
type RequestHandler func(channelID, requestID uint32, abstractID uatypes.NodeID, req uacodec.Structure) (respAbstractID uatypes.NodeID, resp uacodec.Structure, err error)

// AbortHandler is invoked when a peer sends a FinalityAborted chunk
// instead of completing a chunked request/response, carrying the
// {error, reason} pair the abort chunk's body encodes. Requests
// aborted while no AbortHandler is configured are discarded silently,
// matching this field's zero value.
type AbortHandler func(channelID, requestID uint32, statusCode uint32, reason string)

// Config configures a Set.
type Config struct {
	Role      uatransport.Role
	Transport *uatransport.Transport
	Registry  *uareg.Registry // defaults to uareg.Default

	// RequestHandler is invoked for every fully-reassembled MSG body.
	// Required.
	RequestHandler RequestHandler

	// AbortHandler is invoked instead of RequestHandler when a chunked
	// request/response is aborted mid-stream. Optional.
	AbortHandler AbortHandler

	LoggerFactory ualog.Factory
}

// Set owns every secure channel multiplexed over one Transport and
// implements uatransport.ChunkHandler, routing by secure-channel id.
type Set struct {
	cfg Config
	log ualog.Logger

	mu       sync.Mutex
	channels map[uint32]*Channel
}

var _ uatransport.ChunkHandler = (*Set)(nil)

// NewSet constructs a Set. Config.Transport.Config.ChunkHandler should
// be this Set (wiring is the caller's responsibility, since Transport
// is constructed first and needs a ChunkHandler at construction time).
func NewSet(cfg Config) (*Set, error) {
	if cfg.RequestHandler == nil {
		return nil, ErrNoRequestHandler
	}
	if cfg.Registry == nil {
		cfg.Registry = uareg.Default
	}
	return &Set{
		cfg:      cfg,
		log:      ualog.For(cfg.LoggerFactory, "uachannel"),
		channels: make(map[uint32]*Channel),
	}, nil
}

// OpenClient opens a new channel from the client side, sending an
// OpenSecureChannelRequest{ISSUE}. The response's token is applied once
// it arrives via HandleChunk, after which the response is also passed to
// Config.RequestHandler as an OpenSecureChannelResponse.
func (s *Set) OpenClient(securityMode uaservices.MessageSecurityMode, requestedLifetime uint32) (*Channel, uint32, error) {
	ch := &Channel{
		id:           0, // assigned by the server's response; 0 is a placeholder until then
		set:          s,
		reassembly:   make(map[uint32][]byte),
		lastSeqByReq: make(map[uint32]uint32),
	}
	reqID := NextRequestID()
	req := &uaservices.OpenSecureChannelRequest{
		Header:            uaservices.RequestHeader{RequestHandle: reqID},
		RequestType:       uaservices.RequestTypeIssue,
		SecurityMode:      securityMode,
		RequestedLifetime: requestedLifetime,
	}
	s.mu.Lock()
	s.channels[ch.id] = ch
	s.mu.Unlock()
	return ch, reqID, ch.write(uatransport.MessageTypeOpen, reqID, uaservices.OpenSecureChannelRequestTypeID, req)
}

// HandleChunk implements uatransport.ChunkHandler.
func (s *Set) HandleChunk(channelID uint32, msgType uatransport.MessageType, final uatransport.Finality, body []byte) error {
	s.mu.Lock()
	ch, ok := s.channels[channelID]
	if !ok && msgType == uatransport.MessageTypeOpen && s.cfg.Role == uatransport.RoleClient {
		// The OPN response carries the id the server just assigned; it
		// belongs to the channel OpenClient registered under placeholder 0.
		ch, ok = s.channels[0]
	}
	if !ok {
		if msgType != uatransport.MessageTypeOpen || s.cfg.Role != uatransport.RoleServer {
			s.mu.Unlock()
			return ErrUnknownChannel
		}
		ch = &Channel{id: channelID, set: s, reassembly: make(map[uint32][]byte), lastSeqByReq: make(map[uint32]uint32)}
		s.channels[channelID] = ch
	}
	s.mu.Unlock()
	return ch.handleChunk(msgType, final, body)
}

// Close discards the channel's local state. It does not emit CLO;
// Channel.Close sends CloseSecureChannelRequest as a CLO message and
// then calls this.
func (s *Set) Close(channelID uint32) {
	s.mu.Lock()
	delete(s.channels, channelID)
	s.mu.Unlock()
}

// CloseAll discards every channel this Set holds, evicting their
// reassembly buffers, without emitting CLO on any of them. Wired as
// the owning Transport's Config.OnClose hook: once the underlying
// connection has torn down, nothing can be sent on it anyway.
func (s *Set) CloseAll() {
	s.mu.Lock()
	s.channels = make(map[uint32]*Channel)
	s.mu.Unlock()
}

// Channel is one secure channel's sequence/token/reassembly state.
type Channel struct {
	id              uint32
	currentTokenID  uint32
	previousTokenID uint32
	previousValid   bool // true while the previous token is still accepted (RENEW overlap window)

	set *Set

	mu           sync.Mutex
	reassembly   map[uint32][]byte
	lastSeqByReq map[uint32]uint32
}

// ID returns the channel's secure-channel id.
func (c *Channel) ID() uint32 { return c.id }

// Renew issues OpenSecureChannelRequest{RENEW} on this channel ahead of
// token expiry (spec §5's revised_lifetime discipline). The caller's
// event-loop timer, not this package, decides when to call it.
func (c *Channel) Renew(requestedLifetime uint32) (uint32, error) {
	reqID := NextRequestID()
	req := &uaservices.OpenSecureChannelRequest{
		Header:            uaservices.RequestHeader{RequestHandle: reqID},
		RequestType:       uaservices.RequestTypeRenew,
		SecurityMode:      uaservices.MessageSecurityModeNone,
		RequestedLifetime: requestedLifetime,
	}
	return reqID, c.write(uatransport.MessageTypeOpen, reqID, uaservices.OpenSecureChannelRequestTypeID, req)
}

// Write encodes req as an abstractID-typed structure and sends it as one
// or more MSG chunks, splitting the body across chunks when it exceeds
// the peer's advertised receive buffer.
func (c *Channel) Write(requestID uint32, abstractID uatypes.NodeID, body uacodec.Structure) error {
	return c.write(uatransport.MessageTypeMSG, requestID, abstractID, body)
}

// Close sends CloseSecureChannelRequest and forgets the channel locally.
func (c *Channel) Close(requestID uint32) error {
	req := &uaservices.CloseSecureChannelRequest{Header: uaservices.RequestHeader{RequestHandle: requestID}}
	err := c.write(uatransport.MessageTypeClose, requestID, uaservices.CloseSecureChannelRequestTypeID, req)
	c.set.Close(c.id)
	return err
}

func (c *Channel) write(msgType uatransport.MessageType, requestID uint32, abstractID uatypes.NodeID, body uacodec.Structure) error {
	wireID, ok := c.set.cfg.Registry.WireIDFor(abstractID)
	if !ok {
		return uacodec.NewUnknownTypeError("channel write: unregistered abstract type", abstractID)
	}

	payload := uatypes.NewBuffer()
	pe := uacodec.NewEncoder(payload)
	pe.PutNodeID(wireID)
	if err := body.EncodeBody(pe); err != nil {
		return err
	}
	serviceBody := payload.Bytes()

	peerReceive := c.set.cfg.Transport.PeerLimits.ReceiveBufferSize
	if peerReceive == 0 {
		peerReceive = uatransport.DefaultLimits.ReceiveBufferSize
	}
	maxChunkSize := int(peerReceive) - secureConversationOverhead(msgType)
	if maxChunkSize <= 0 {
		maxChunkSize = len(serviceBody)
		if maxChunkSize == 0 {
			maxChunkSize = 1
		}
	}

	remaining := serviceBody
	for {
		n := len(remaining)
		final := uatransport.FinalityFinal
		if n > maxChunkSize {
			n = maxChunkSize
			final = uatransport.FinalityIntermediate
		}
		chunk := remaining[:n]
		remaining = remaining[n:]

		frame := c.frameChunk(msgType, requestID, chunk)
		if err := c.set.cfg.Transport.SendChunk(c.id, msgType, final, frame); err != nil {
			return err
		}
		if final == uatransport.FinalityFinal {
			return nil
		}
	}
}

func (c *Channel) frameChunk(msgType uatransport.MessageType, requestID uint32, payload []byte) []byte {
	out := uatypes.NewBuffer()
	e := uacodec.NewEncoder(out)
	if msgType == uatransport.MessageTypeOpen {
		h := AsymmetricAlgorithmSecurityHeader{SecurityPolicyURI: NoneSecurityPolicyURI}
		h.encode(e)
	} else {
		h := SymmetricAlgorithmSecurityHeader{TokenID: c.currentTokenID}
		h.encode(e)
	}
	seq := SequenceHeader{SequenceNumber: NextSequenceNumber(), RequestID: requestID}
	seq.encode(e)
	out.Write(payload)
	return out.Bytes()
}

func secureConversationOverhead(msgType uatransport.MessageType) int {
	// SecureConversationMessageHeader + security header (None: the
	// length-prefixed None policy URI string + two empty ByteStrings
	// for OPN, or a bare u32 token id for MSG/CLO) + SequenceHeader.
	const sequenceHeaderSize = 8
	if msgType == uatransport.MessageTypeOpen {
		const noneAsymmetricHeaderSize = 4 + len(NoneSecurityPolicyURI) + 4 + 4
		return secureConversationHeaderSize + noneAsymmetricHeaderSize + sequenceHeaderSize
	}
	const symmetricHeaderSize = 4
	return secureConversationHeaderSize + symmetricHeaderSize + sequenceHeaderSize
}

const secureConversationHeaderSize = 12 // 8-byte MessageHeader + 4-byte secure_channel_id

func (c *Channel) handleChunk(msgType uatransport.MessageType, final uatransport.Finality, body []byte) error {
	buf := uatypes.NewBufferFrom(body)
	d := uacodec.NewDecoder(buf)

	if msgType == uatransport.MessageTypeOpen {
		if _, err := decodeAsymmetricHeader(d); err != nil {
			return err
		}
	} else {
		sym, err := decodeSymmetricHeader(d)
		if err != nil {
			return err
		}
		if !c.tokenAccepted(sym.TokenID) {
			return ErrTokenRejected
		}
	}

	seq, err := decodeSequenceHeader(d)
	if err != nil {
		return err
	}
	payload := buf.Bytes()

	if final == uatransport.FinalityAborted {
		c.mu.Lock()
		delete(c.reassembly, seq.RequestID)
		c.mu.Unlock()
		return c.handleAbortedChunk(seq.RequestID, payload)
	}

	c.mu.Lock()
	c.reassembly[seq.RequestID] = append(c.reassembly[seq.RequestID], payload...)
	full := c.reassembly[seq.RequestID]
	if final != uatransport.FinalityIntermediate {
		delete(c.reassembly, seq.RequestID)
	}
	c.mu.Unlock()

	if final == uatransport.FinalityIntermediate {
		return nil
	}

	return c.decodeAndDispatch(seq.RequestID, msgType, full)
}

// handleAbortedChunk decodes the {u32 error, String reason} body an
// ABORTED chunk carries in place of a continuation of the request it
// was assembling, and routes the failure to AbortHandler so the caller
// waiting on this request id learns it will never complete (an ABORTED
// chunk is always the last chunk sent for a request).
func (c *Channel) handleAbortedChunk(requestID uint32, payload []byte) error {
	d := uacodec.NewDecoder(uatypes.NewBufferFrom(payload))
	statusCode, err := d.Uint32()
	if err != nil {
		return err
	}
	reason, err := d.String()
	if err != nil {
		return err
	}
	if c.set.cfg.AbortHandler != nil {
		c.set.cfg.AbortHandler(c.id, requestID, statusCode, reason)
	}
	return nil
}

// tokenAccepted reports whether tokenID is the channel's current token,
// or its immediately previous token during the one-message RENEW
// overlap window (spec §9 supplement).
func (c *Channel) tokenAccepted(tokenID uint32) bool {
	if tokenID == c.currentTokenID {
		return true
	}
	if c.previousValid && tokenID == c.previousTokenID {
		c.previousValid = false
		return true
	}
	return false
}

func (c *Channel) decodeAndDispatch(requestID uint32, msgType uatransport.MessageType, full []byte) error {
	d := uacodec.NewDecoder(uatypes.NewBufferFrom(full))
	wireID, err := d.NodeID()
	if err != nil {
		return err
	}
	abstractID, ok := c.set.cfg.Registry.AbstractIDFor(wireID)
	if !ok {
		return uacodec.NewUnknownTypeError("channel decode: unregistered wire type", wireID)
	}
	instance, ok := c.set.cfg.Registry.New(abstractID)
	if !ok {
		return uacodec.NewUnknownTypeError("channel decode: no constructor", abstractID)
	}
	if err := instance.DecodeBody(d); err != nil {
		return err
	}

	if req, ok := instance.(*uaservices.OpenSecureChannelRequest); ok {
		return c.handleOpenSecureChannelRequest(requestID, req)
	}
	if resp, ok := instance.(*uaservices.OpenSecureChannelResponse); ok {
		c.applyOpenSecureChannelResponse(resp)
	}
	if msgType == uatransport.MessageTypeClose {
		c.set.Close(c.id)
		return nil
	}

	respID, resp, err := c.set.cfg.RequestHandler(c.id, requestID, abstractID, instance)
	if err != nil {
		return err
	}
	if resp == nil {
		return nil
	}
	return c.Write(requestID, respID, resp)
}

// applyOpenSecureChannelResponse records the channel id and token the
// server assigned, on the client side of an OpenSecureChannel exchange.
func (c *Channel) applyOpenSecureChannelResponse(resp *uaservices.OpenSecureChannelResponse) {
	if !resp.Header.ServiceResult.IsGood() {
		return
	}
	if c.id == 0 {
		c.id = resp.SecurityToken.ChannelID
		c.set.mu.Lock()
		delete(c.set.channels, 0)
		c.set.channels[c.id] = c
		c.set.mu.Unlock()
	}
	c.previousTokenID = c.currentTokenID
	c.previousValid = c.currentTokenID != 0
	c.currentTokenID = resp.SecurityToken.TokenID
}

func (c *Channel) handleOpenSecureChannelRequest(requestID uint32, req *uaservices.OpenSecureChannelRequest) error {
	if c.set.cfg.Role != uatransport.RoleServer {
		return nil
	}

	if req.SecurityMode != uaservices.MessageSecurityModeNone {
		resp := &uaservices.OpenSecureChannelResponse{
			Header: uaservices.NewResponseHeader(&req.Header, uatypes.StatusBadSecurityModeRejected),
		}
		return c.write(uatransport.MessageTypeOpen, requestID, uaservices.OpenSecureChannelResponseTypeID, resp)
	}

	if c.id == 0 {
		c.id = NextChannelID()
		c.set.mu.Lock()
		delete(c.set.channels, 0)
		c.set.channels[c.id] = c
		c.set.mu.Unlock()
	}

	if req.RequestType == uaservices.RequestTypeRenew {
		c.previousTokenID = c.currentTokenID
		c.previousValid = true
	}
	c.currentTokenID = NextTokenID()

	resp := &uaservices.OpenSecureChannelResponse{
		Header: uaservices.NewResponseHeader(&req.Header, uatypes.StatusGood),
		SecurityToken: uaservices.ChannelSecurityToken{
			ChannelID:       c.id,
			TokenID:         c.currentTokenID,
			CreatedAt:       uatypes.Now(),
			RevisedLifetime: req.RequestedLifetime,
		},
		ServerNonce: uatypes.DefaultNonceSource.Nonce(32),
	}
	return c.write(uatransport.MessageTypeOpen, requestID, uaservices.OpenSecureChannelResponseTypeID, resp)
}
