package uacodec

import (
	"errors"
	"fmt"
)

// Sentinel decode/encode failures.
var (
	// ErrShortRead is returned when fewer bytes are available than a field needs.
	ErrShortRead = errors.New("uacodec: short read")

	// ErrDecodingError wraps an invalid tag or reserved value encountered
	// while decoding. Use NewDecodingError for a descriptive instance.
	ErrDecodingError = errors.New("uacodec: decoding error")

	// ErrEncodingUnsupported wraps a Variant whose encoding byte sets the
	// array or dimensions bit. An unknown NodeId type tag or an
	// ExtensionObject of unknown type is an ErrDecodingError instead. Use
	// NewEncodingUnsupported for a descriptive instance.
	ErrEncodingUnsupported = errors.New("uacodec: encoding unsupported")
)

// NewDecodingError builds a DecodingError naming what went wrong.
func NewDecodingError(reason string) error {
	return fmt.Errorf("%w: %s", ErrDecodingError, reason)
}

// NewUnknownTypeError builds a DecodingError naming an unknown structure
// or NodeId type encountered on the wire.
func NewUnknownTypeError(what string, id any) error {
	return fmt.Errorf("%w: unknown %s %v", ErrDecodingError, what, id)
}

// NewEncodingUnsupported builds an EncodingUnsupported error.
func NewEncodingUnsupported(reason string) error {
	return fmt.Errorf("%w: %s", ErrEncodingUnsupported, reason)
}
