package uatransport

import "errors"

var (
	// ErrNoSendFunc is returned by New when Config.Send is nil.
	ErrNoSendFunc = errors.New("uatransport: Config.Send is required")
	// ErrNoChunkHandler is returned by New when Config.ChunkHandler is nil.
	ErrNoChunkHandler = errors.New("uatransport: Config.ChunkHandler is required")
	// ErrClosed is returned by Feed/SendChunk once the transport has been closed.
	ErrClosed = errors.New("uatransport: transport closed")
	// ErrProtocol marks a malformed outer header or unexpected message type:
	// fatal to the transport (spec §7 kind 3).
	ErrProtocol = errors.New("uatransport: protocol error")
	// ErrEndpointURLTooLong is returned when a HEL endpoint_url exceeds the
	// 4096-byte limit.
	ErrEndpointURLTooLong = errors.New("uatransport: endpoint_url exceeds 4096 bytes")
)
