package uasession

import "errors"

var (
	// ErrConnectionClosed is delivered to every pending callback of a
	// session whose transport tore down before a response arrived,
	// mirroring the BadConnectionClosed status code on the wire.
	ErrConnectionClosed = errors.New("uasession: connection closed")
	// ErrUnexpectedResponse is returned when a Session method receives a
	// response of the wrong concrete type for the request it sent.
	ErrUnexpectedResponse = errors.New("uasession: unexpected response type")
	// ErrNoChannel is returned when a Session method is called before the
	// session has ever been attached to a secure channel.
	ErrNoChannel = errors.New("uasession: session has no attached channel")
	// ErrAborted wraps the error Directory.HandleAbort delivers to a
	// pending callback when the peer aborts the chunked request/response
	// it was waiting on instead of completing it.
	ErrAborted = errors.New("uasession: request aborted by peer")
)
