package uachannel

import "sync/atomic"

// Sequence numbers, request ids and secure-channel ids are global to the
// process, not per-channel: the single-threaded cooperative event loop
// makes a plain atomic increment sufficient even though nothing here
// actually contends.
var (
	nextSequenceNumber uint32
	nextRequestID      uint32
	nextChannelID      uint32
	nextTokenID        uint32
)

// NextSequenceNumber returns the next process-wide sequence number.
func NextSequenceNumber() uint32 { return atomic.AddUint32(&nextSequenceNumber, 1) }

// NextRequestID returns the next process-wide request id.
func NextRequestID() uint32 { return atomic.AddUint32(&nextRequestID, 1) }

// NextChannelID returns the next process-wide secure-channel id.
func NextChannelID() uint32 { return atomic.AddUint32(&nextChannelID, 1) }

// NextTokenID returns the next process-wide security-token id.
func NextTokenID() uint32 { return atomic.AddUint32(&nextTokenID, 1) }

// resetCountersForTest rewinds every counter to zero. Test-only.
func resetCountersForTest() {
	atomic.StoreUint32(&nextSequenceNumber, 0)
	atomic.StoreUint32(&nextRequestID, 0)
	atomic.StoreUint32(&nextChannelID, 0)
	atomic.StoreUint32(&nextTokenID, 0)
}
