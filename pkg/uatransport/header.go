package uatransport

import (
	"github.com/mgorny/opcuago/pkg/uacodec"
	"github.com/mgorny/opcuago/pkg/uatypes"
)

// MessageType is the 3-byte ASCII tag opening every outer message.
type MessageType [3]byte

var (
	MessageTypeHello = MessageType{'H', 'E', 'L'}
	MessageTypeAck   = MessageType{'A', 'C', 'K'}
	MessageTypeError = MessageType{'E', 'R', 'R'}
	MessageTypeOpen  = MessageType{'O', 'P', 'N'}
	MessageTypeMSG   = MessageType{'M', 'S', 'G'}
	MessageTypeClose = MessageType{'C', 'L', 'O'}
)

// Finality is the 1-byte chunk-finality flag.
type Finality byte

const (
	FinalityFinal       Finality = 'F'
	FinalityIntermediate Finality = 'C'
	FinalityAborted     Finality = 'A'
)

// MessageHeader is the 8-byte header present on every outer message:
// 3-byte type, 1-byte finality, 4-byte total size (header inclusive).
type MessageHeader struct {
	Type        MessageType
	IsFinal     Finality
	MessageSize uint32
}

const messageHeaderSize = 8

func (h *MessageHeader) encode(e *uacodec.Encoder) {
	e.PutByte(h.Type[0])
	e.PutByte(h.Type[1])
	e.PutByte(h.Type[2])
	e.PutByte(byte(h.IsFinal))
	e.PutUint32(h.MessageSize)
}

func decodeMessageHeader(d *uacodec.Decoder) (MessageHeader, error) {
	var h MessageHeader
	for i := 0; i < 3; i++ {
		b, err := d.Byte()
		if err != nil {
			return h, err
		}
		h.Type[i] = b
	}
	final, err := d.Byte()
	if err != nil {
		return h, err
	}
	size, err := d.Uint32()
	if err != nil {
		return h, err
	}
	h.IsFinal = Finality(final)
	h.MessageSize = size
	return h, nil
}

// SecureConversationMessageHeader extends MessageHeader with the
// secure-channel id carried by OPN/MSG/CLO messages.
type SecureConversationMessageHeader struct {
	MessageHeader
	SecureChannelID uint32
}

const secureConversationHeaderSize = messageHeaderSize + 4

func (h *SecureConversationMessageHeader) encode(e *uacodec.Encoder) {
	h.MessageHeader.encode(e)
	e.PutUint32(h.SecureChannelID)
}

func decodeSecureConversationHeader(d *uacodec.Decoder, mh MessageHeader) (SecureConversationMessageHeader, error) {
	id, err := d.Uint32()
	if err != nil {
		return SecureConversationMessageHeader{}, err
	}
	return SecureConversationMessageHeader{MessageHeader: mh, SecureChannelID: id}, nil
}

// AckLimits is the five-u32 negotiated-limits record exchanged in
// HEL/ACK: protocol_version, receive_buffer_size, send_buffer_size,
// max_message_size, max_chunk_count.
type AckLimits struct {
	ProtocolVersion  uint32
	ReceiveBufferSize uint32
	SendBufferSize    uint32
	MaxMessageSize    uint32
	MaxChunkCount     uint32
}

// DefaultLimits are the limits this implementation advertises absent
// explicit configuration.
var DefaultLimits = AckLimits{
	ProtocolVersion:   0,
	ReceiveBufferSize: 0x10000,
	SendBufferSize:    0x10000,
	MaxMessageSize:    0x400000,
	MaxChunkCount:      0,
}

func (l *AckLimits) encode(e *uacodec.Encoder) {
	e.PutUint32(l.ProtocolVersion)
	e.PutUint32(l.ReceiveBufferSize)
	e.PutUint32(l.SendBufferSize)
	e.PutUint32(l.MaxMessageSize)
	e.PutUint32(l.MaxChunkCount)
}

func decodeAckLimits(d *uacodec.Decoder) (AckLimits, error) {
	var l AckLimits
	var err error
	if l.ProtocolVersion, err = d.Uint32(); err != nil {
		return l, err
	}
	if l.ReceiveBufferSize, err = d.Uint32(); err != nil {
		return l, err
	}
	if l.SendBufferSize, err = d.Uint32(); err != nil {
		return l, err
	}
	if l.MaxMessageSize, err = d.Uint32(); err != nil {
		return l, err
	}
	if l.MaxChunkCount, err = d.Uint32(); err != nil {
		return l, err
	}
	return l, nil
}

const maxEndpointURLLen = 4096

func encodeHello(limits AckLimits, endpointURL string) []byte {
	buf := uatypes.NewBuffer()
	e := uacodec.NewEncoder(buf)
	limits.encode(e)
	e.PutString(endpointURL)
	body := buf.Bytes()

	out := uatypes.NewBuffer()
	he := uacodec.NewEncoder(out)
	hdr := MessageHeader{Type: MessageTypeHello, IsFinal: FinalityFinal, MessageSize: uint32(messageHeaderSize + len(body))}
	hdr.encode(he)
	out.Write(body)
	return out.Bytes()
}

func encodeAck(limits AckLimits) []byte {
	buf := uatypes.NewBuffer()
	e := uacodec.NewEncoder(buf)
	limits.encode(e)
	body := buf.Bytes()

	out := uatypes.NewBuffer()
	he := uacodec.NewEncoder(out)
	hdr := MessageHeader{Type: MessageTypeAck, IsFinal: FinalityFinal, MessageSize: uint32(messageHeaderSize + len(body))}
	hdr.encode(he)
	out.Write(body)
	return out.Bytes()
}

func encodeErr(code uint32, reason string) []byte {
	buf := uatypes.NewBuffer()
	e := uacodec.NewEncoder(buf)
	e.PutUint32(code)
	e.PutString(reason)
	body := buf.Bytes()

	out := uatypes.NewBuffer()
	he := uacodec.NewEncoder(out)
	hdr := MessageHeader{Type: MessageTypeError, IsFinal: FinalityFinal, MessageSize: uint32(messageHeaderSize + len(body))}
	hdr.encode(he)
	out.Write(body)
	return out.Bytes()
}
