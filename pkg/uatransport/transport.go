// Package uatransport implements outer message framing: parsing and
// emitting HEL/ACK/ERR/OPN/MSG/CLO headers, the connection handshake,
// and handing reassembled-at-the-chunk-level payloads off to a secure
// channel. It never blocks: all input arrives via Feed, all output
// leaves via the Send callback supplied at construction, matching the
// single-threaded cooperative event-loop model that owns the actual
// socket.
package uatransport

import (
	"sync"

	"github.com/mgorny/opcuago/pkg/uacodec"
	"github.com/mgorny/opcuago/pkg/ualog"
	"github.com/mgorny/opcuago/pkg/uatypes"
)

// Role distinguishes client- from server-side handshake behavior.
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

// ChunkHandler receives the routed payload of OPN/MSG/CLO messages,
// keyed by secure-channel id. Implemented by pkg/uachannel's channel
// set; kept as an interface here so pkg/uatransport never imports
// pkg/uachannel (which imports pkg/uatransport to call Send).
type ChunkHandler interface {
	// HandleChunk is invoked once per received OPN/MSG/CLO message, after
	// the secure-channel id has been parsed out of the header.
	HandleChunk(channelID uint32, msgType MessageType, final Finality, body []byte) error
}

// Config configures a Transport.
type Config struct {
	Role Role

	// EndpointURL is sent in HEL (client role only).
	EndpointURL string

	// Limits are this side's advertised buffer/message limits.
	Limits AckLimits

	// Send is invoked with bytes this Transport wants written to the
	// underlying byte stream. Required; must not block.
	Send func([]byte) error

	// ChunkHandler receives routed OPN/MSG/CLO payloads. Required.
	ChunkHandler ChunkHandler

	// OnReady is invoked once the handshake completes (ACK received on
	// the client, HEL received on the server).
	OnReady func()

	// OnClose is invoked the first time Close runs, whether triggered by
	// the caller or by a protocol error/ERR tearing the transport down
	// itself. The owner wires this to tear down every secure channel
	// built on top and cancel whatever is waiting on a response that
	// will now never arrive.
	OnClose func()

	LoggerFactory ualog.Factory
}

type connState int

const (
	stateConnecting connState = iota
	stateConnected
	stateClosed
)

// Transport parses the outer message stream on one connection and
// dispatches OPN/MSG/CLO payloads to a ChunkHandler. It owns no socket:
// bytes arrive via Feed and leave via Config.Send.
type Transport struct {
	cfg   Config
	log   ualog.Logger
	state connState

	in *uatypes.Buffer

	closeOnce sync.Once

	// PeerLimits holds the peer's advertised limits, captured once the
	// handshake completes.
	PeerLimits AckLimits
}

// New constructs a Transport. If cfg.Role is RoleClient, Start emits HEL.
func New(cfg Config) (*Transport, error) {
	if cfg.Send == nil {
		return nil, ErrNoSendFunc
	}
	if cfg.ChunkHandler == nil {
		return nil, ErrNoChunkHandler
	}
	if cfg.Limits == (AckLimits{}) {
		cfg.Limits = DefaultLimits
	}
	return &Transport{
		cfg: cfg,
		log: ualog.For(cfg.LoggerFactory, "uatransport"),
		in:  uatypes.NewBuffer(),
	}, nil
}

// Start begins the handshake: the client emits HEL; the server waits
// for one.
func (t *Transport) Start() error {
	if t.cfg.Role == RoleClient {
		if len(t.cfg.EndpointURL) > maxEndpointURLLen {
			return ErrEndpointURLTooLong
		}
		return t.cfg.Send(encodeHello(t.cfg.Limits, t.cfg.EndpointURL))
	}
	return nil
}

// IsReady reports whether the handshake has completed.
func (t *Transport) IsReady() bool { return t.state == stateConnected }

// Feed delivers newly-received bytes. It processes as many complete
// outer messages as are available and returns once none remain; it
// never blocks waiting for more.
func (t *Transport) Feed(data []byte) error {
	if t.state == stateClosed {
		return ErrClosed
	}
	t.in.Write(data)

	for {
		peek, err := t.in.Peek(messageHeaderSize)
		if err != nil {
			return nil // not enough bytes yet for a header
		}
		hdr, err := decodeMessageHeader(uacodec.NewDecoder(uatypes.NewBufferFrom(peek)))
		if err != nil {
			return t.protocolError(0, "malformed message header")
		}
		if hdr.MessageSize < messageHeaderSize {
			return t.protocolError(0, "message_size smaller than header")
		}
		if t.in.Len() < int(hdr.MessageSize) {
			return nil // full message not yet available
		}
		full, err := t.in.Read(int(hdr.MessageSize))
		if err != nil {
			return t.protocolError(0, "short read consuming message")
		}

		if err := t.handleMessage(hdr, full[messageHeaderSize:]); err != nil {
			return err
		}
	}
}

func (t *Transport) handleMessage(hdr MessageHeader, rest []byte) error {
	switch hdr.Type {
	case MessageTypeHello:
		return t.handleHello(rest)
	case MessageTypeAck:
		return t.handleAck(rest)
	case MessageTypeError:
		return t.handleErr(rest)
	case MessageTypeOpen, MessageTypeMSG, MessageTypeClose:
		return t.handleChanneled(hdr, rest)
	default:
		return t.protocolError(0, "unknown message type")
	}
}

func (t *Transport) handleHello(body []byte) error {
	if t.cfg.Role != RoleServer {
		return t.protocolError(0, "unexpected HEL")
	}
	d := uacodec.NewDecoder(uatypes.NewBufferFrom(body))
	limits, err := decodeAckLimits(d)
	if err != nil {
		return t.protocolError(0, "malformed HEL body")
	}
	url, err := d.String()
	if err != nil {
		return t.protocolError(0, "malformed HEL endpoint_url")
	}
	if len(url) > maxEndpointURLLen {
		return t.protocolError(0, "endpoint_url too long")
	}
	t.PeerLimits = limits
	t.state = stateConnected
	if err := t.cfg.Send(encodeAck(t.cfg.Limits)); err != nil {
		return err
	}
	if t.cfg.OnReady != nil {
		t.cfg.OnReady()
	}
	return nil
}

func (t *Transport) handleAck(body []byte) error {
	if t.cfg.Role != RoleClient {
		return t.protocolError(0, "unexpected ACK")
	}
	limits, err := decodeAckLimits(uacodec.NewDecoder(uatypes.NewBufferFrom(body)))
	if err != nil {
		return t.protocolError(0, "malformed ACK body")
	}
	t.PeerLimits = limits
	t.state = stateConnected
	if t.cfg.OnReady != nil {
		t.cfg.OnReady()
	}
	return nil
}

func (t *Transport) handleErr(body []byte) error {
	d := uacodec.NewDecoder(uatypes.NewBufferFrom(body))
	code, _ := d.Uint32()
	reason, _ := d.String()
	t.log.Warnf("peer sent ERR code=%d reason=%s", code, reason)
	t.Close()
	return nil
}

func (t *Transport) handleChanneled(hdr MessageHeader, rest []byte) error {
	d := uacodec.NewDecoder(uatypes.NewBufferFrom(rest))
	channelID, err := d.Uint32()
	if err != nil {
		return t.protocolError(0, "short secure_channel_id")
	}
	body := rest[4:]
	return t.cfg.ChunkHandler.HandleChunk(channelID, hdr.Type, hdr.IsFinal, body)
}

// SendChunk emits one OPN/MSG/CLO chunk: the SecureConversation header
// plus payload, framed with the given finality.
func (t *Transport) SendChunk(channelID uint32, msgType MessageType, final Finality, payload []byte) error {
	if t.state == stateClosed {
		return ErrClosed
	}
	out := uatypes.NewBuffer()
	e := uacodec.NewEncoder(out)
	hdr := SecureConversationMessageHeader{
		MessageHeader: MessageHeader{
			Type:        msgType,
			IsFinal:     final,
			MessageSize: uint32(secureConversationHeaderSize + len(payload)),
		},
		SecureChannelID: channelID,
	}
	hdr.encode(e)
	out.Write(payload)
	return t.cfg.Send(out.Bytes())
}

// protocolError emits ERR and marks the transport closed (spec §7 kind 3).
func (t *Transport) protocolError(code uint32, reason string) error {
	_ = t.cfg.Send(encodeErr(code, reason))
	t.log.Errorf("protocol error: %s", reason)
	t.Close()
	return ErrProtocol
}

// Close marks the transport closed; no further Feed/SendChunk calls
// will succeed. The first call also invokes Config.OnClose, so its
// tear-down logic runs exactly once no matter how many paths (an
// explicit Close, a received ERR, or a protocol error) call Close
// concurrently or more than once.
func (t *Transport) Close() {
	t.closeOnce.Do(func() {
		t.state = stateClosed
		if t.cfg.OnClose != nil {
			t.cfg.OnClose()
		}
	})
}
