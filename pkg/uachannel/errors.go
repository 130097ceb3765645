package uachannel

import "errors"

var (
	// ErrTokenRejected is returned when a symmetric chunk's token_id does
	// not match the channel's current (or one-overlap-window previous)
	// token. It is returned from Set.HandleChunk (and so from the
	// Transport's Feed); nothing in this package sends a status to the
	// peer for it.
	ErrTokenRejected = errors.New("uachannel: token_id rejected")
	// ErrUnknownChannel is returned when a MSG/CLO arrives for a
	// secure-channel id this set has no record of.
	ErrUnknownChannel = errors.New("uachannel: unknown secure channel id")
	// ErrNoRequestHandler is returned by NewSet when Config.RequestHandler is nil.
	ErrNoRequestHandler = errors.New("uachannel: Config.RequestHandler is required")
)
