package uatypes

import (
	"math/rand"
	"sync"
	"time"
)

// NonceSource mints the opaque client_nonce/server_nonce byte strings
// OpenSecureChannelResponse and CreateSessionResponse carry. Under
// SecurityMode NONE these values are never used to derive keys, but the
// wire format still carries them, so a real implementation mints
// non-crypto-grade random bytes rather than leaving the field empty.
type NonceSource interface {
	Nonce(length int) []byte
}

type mathRandNonceSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *mathRandNonceSource) Nonce(length int) []byte {
	if length <= 0 {
		return nil
	}
	b := make([]byte, length)
	s.mu.Lock()
	s.rng.Read(b) //nolint:errcheck // math/rand.Rand.Read never errors
	s.mu.Unlock()
	return b
}

// DefaultNonceSource is the NonceSource used wherever a caller does not
// supply its own. Tests may swap it for a deterministic source.
var DefaultNonceSource NonceSource = &mathRandNonceSource{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
