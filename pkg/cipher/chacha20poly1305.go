package cipher

import (
	"crypto/subtle"
	"encoding/binary"
	"errors"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/poly1305"
)

// ChaCha20Poly1305 implements the chacha20-poly1305@openssh.com
// construction: two independently keyed ChaCha20 instances (one for
// the 4-byte packet length, one for the payload and the Poly1305
// key), following the split in
// _examples/original_source/sshccp.c's ccp_key/ccp_length_op exactly.
type ChaCha20Poly1305 struct {
	lengthKey  [32]byte
	payloadKey [32]byte
}

// NewChaCha20Poly1305 builds a cipher from a 64-byte session key: bytes
// 32:64 key the length cipher, bytes 0:32 key the payload cipher (note
// the swap relative to naive reading order -- this matches the
// construction exactly).
func NewChaCha20Poly1305(key []byte) (*ChaCha20Poly1305, error) {
	if len(key) < 64 {
		return nil, ErrShortKey
	}
	c := &ChaCha20Poly1305{}
	copy(c.lengthKey[:], key[32:64])
	copy(c.payloadKey[:], key[0:32])
	return c, nil
}

func (c *ChaCha20Poly1305) KeyLen() int    { return 64 }
func (c *ChaCha20Poly1305) IVLen() int     { return 0 } // nonce is derived from the sequence number, not negotiated
func (c *ChaCha20Poly1305) BlockSize() int { return 1 }
func (c *ChaCha20Poly1305) Flags() Flags   { return FlagIsAEAD }
func (c *ChaCha20Poly1305) TagSize() int   { return poly1305.TagSize }

func (c *ChaCha20Poly1305) Encrypt(dst, src []byte) { copy(dst, src) } // unused: see EncryptLength/SealPayload
func (c *ChaCha20Poly1305) Decrypt(dst, src []byte) { copy(dst, src) }

// nonceForSeq builds the 64-bit little-endian (0, sequence_number)
// nonce chacha20.NewUnauthenticatedCipher expects, per spec 4.4.
func nonceForSeq(seq uint32) []byte {
	nonce := make([]byte, chacha20.NonceSize)
	binary.LittleEndian.PutUint32(nonce[4:8], seq)
	return nonce
}

// EncryptLength encrypts the 4-byte packet length field in place, using
// the length cipher keyed to this sequence number.
func (c *ChaCha20Poly1305) EncryptLength(lenField []byte, seq uint32) error {
	return c.lengthOp(lenField, seq, true)
}

// DecryptLength is the inverse of EncryptLength (ChaCha20 is its own
// inverse, but kept as a separate named entry point for clarity at call
// sites per spec 4.4's decrypt-length-first ordering).
func (c *ChaCha20Poly1305) DecryptLength(lenField []byte, seq uint32) error {
	return c.lengthOp(lenField, seq, false)
}

func (c *ChaCha20Poly1305) lengthOp(lenField []byte, seq uint32, _ bool) error {
	if len(lenField) != 4 {
		return errors.New("cipher: chacha20-poly1305 length field must be 4 bytes")
	}
	ciph, err := chacha20.NewUnauthenticatedCipher(c.lengthKey[:], nonceForSeq(seq))
	if err != nil {
		return err
	}
	ciph.XORKeyStream(lenField, lenField)
	return nil
}

// payloadCipherAndPolyKey builds the payload cipher for this sequence
// number, having consumed its first 64 bytes (the Poly1305 one-time
// key) and advanced its block counter to 1 as sshccp.c's ccp_length_op
// does with "++ctx->b_cipher.state[12]".
func (c *ChaCha20Poly1305) payloadCipherAndPolyKey(seq uint32) (*chacha20.Cipher, [32]byte) {
	ciph, err := chacha20.NewUnauthenticatedCipher(c.payloadKey[:], nonceForSeq(seq))
	if err != nil {
		panic(err) // key/nonce are fixed-size and always valid here
	}
	var zero [64]byte
	var keyStream [64]byte
	ciph.XORKeyStream(keyStream[:], zero[:])
	var polyKey [32]byte
	copy(polyKey[:], keyStream[:32])
	ciph.SetCounter(1)
	return ciph, polyKey
}

// SealPayload encrypts the payload (length field already encrypted
// separately by EncryptLength) and returns a Poly1305 tag computed over
// the encrypted length field concatenated with the ciphertext.
func (c *ChaCha20Poly1305) SealPayload(dst, encryptedLenField, plaintext []byte, seq uint32) (ciphertext, tag []byte) {
	ciph, polyKey := c.payloadCipherAndPolyKey(seq)
	ciphertext = dst[:0]
	if cap(dst) < len(plaintext) {
		ciphertext = make([]byte, len(plaintext))
	} else {
		ciphertext = dst[:len(plaintext)]
	}
	ciph.XORKeyStream(ciphertext, plaintext)

	macInput := append(append([]byte(nil), encryptedLenField...), ciphertext...)
	var macOut [16]byte
	poly1305.Sum(&macOut, macInput, &polyKey)
	return ciphertext, macOut[:]
}

// OpenPayload verifies the Poly1305 tag (constant-time) over the
// encrypted length field and ciphertext, then decrypts the payload.
// Mirrors spec 4.4's decrypt ordering: length first, then MAC check,
// then payload.
func (c *ChaCha20Poly1305) OpenPayload(dst, encryptedLenField, ciphertext, tag []byte, seq uint32) ([]byte, error) {
	if len(tag) != poly1305.TagSize {
		return nil, errors.New("cipher: chacha20-poly1305 tag has wrong size")
	}
	ciph, polyKey := c.payloadCipherAndPolyKey(seq)

	macInput := append(append([]byte(nil), encryptedLenField...), ciphertext...)
	var macOut [16]byte
	poly1305.Sum(&macOut, macInput, &polyKey)
	if subtle.ConstantTimeCompare(macOut[:], tag) != 1 {
		return nil, errors.New("cipher: chacha20-poly1305 mac verification failed")
	}

	plaintext := dst[:0]
	if cap(dst) < len(ciphertext) {
		plaintext = make([]byte, len(ciphertext))
	} else {
		plaintext = dst[:len(ciphertext)]
	}
	ciph.XORKeyStream(plaintext, ciphertext)
	return plaintext, nil
}
