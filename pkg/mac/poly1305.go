package mac

import (
	"crypto/subtle"

	"golang.org/x/crypto/poly1305"
)

// Poly1305 is a MAC over a single already-derived one-time key. It
// exists to let the transport layer address Poly1305 through the same
// MAC interface as the HMAC variants for logging and algorithm-name
// bookkeeping; the session-specific key derivation (skip-first-block,
// per-packet, bound to ChaCha20) lives in
// pkg/cipher.ChaCha20Poly1305.SealPayload/OpenPayload, which this type
// does not duplicate.
type Poly1305 struct {
	key [32]byte
}

// NewPoly1305 wraps an already-derived one-time Poly1305 key.
func NewPoly1305(key [32]byte) *Poly1305 { return &Poly1305{key: key} }

func (m *Poly1305) Compute(data []byte) []byte {
	var out [16]byte
	poly1305.Sum(&out, data, &m.key)
	return out[:]
}

func (m *Poly1305) Verify(data, tag []byte) bool {
	computed := m.Compute(data)
	return subtle.ConstantTimeCompare(computed, tag) == 1
}

func (m *Poly1305) Size() int   { return poly1305.TagSize }
func (m *Poly1305) KeyLen() int { return 32 }
func (m *Poly1305) ETM() bool   { return true } // MAC is over ciphertext, per the construction
