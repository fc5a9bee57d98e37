package cipher

import "crypto/rc4"

// arcfourCipher implements the arcfour cipher, retained purely for
// interop with legacy peers per spec 4.4's Non-goal framing; SSH's
// "arcfour" discards the first 1536 bytes of keystream to sidestep
// RC4's well-known weak-key-schedule bias in the earliest bytes, which
// this implementation reproduces by priming the cipher at construction.
type arcfourCipher struct {
	enc *rc4.Cipher
	dec *rc4.Cipher
}

const arcfourDiscardBytes = 1536

// NewArcfour builds an arcfour packet cipher from a 16-byte key.
func NewArcfour(key []byte) (Packet, error) {
	if len(key) < 16 {
		return nil, ErrShortKey
	}
	enc, err := rc4.NewCipher(key[:16])
	if err != nil {
		return nil, err
	}
	dec, err := rc4.NewCipher(key[:16])
	if err != nil {
		return nil, err
	}
	discard := make([]byte, arcfourDiscardBytes)
	enc.XORKeyStream(discard, discard)
	dec.XORKeyStream(discard, discard)
	return &arcfourCipher{enc: enc, dec: dec}, nil
}

func (c *arcfourCipher) Encrypt(dst, src []byte) { c.enc.XORKeyStream(dst, src) }
func (c *arcfourCipher) Decrypt(dst, src []byte) { c.dec.XORKeyStream(dst, src) }
func (c *arcfourCipher) BlockSize() int          { return 1 }
func (c *arcfourCipher) IVLen() int              { return 0 }
func (c *arcfourCipher) KeyLen() int             { return 16 }
func (c *arcfourCipher) Flags() Flags            { return 0 }
