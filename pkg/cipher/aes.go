package cipher

import (
	stdcipher "crypto/cipher"

	"crypto/aes"
)

// aesCBC wraps crypto/aes+crypto/cipher's CBC mode with separate
// encrypt/decrypt stream.BlockModes, since SSH packet decryption needs
// to decrypt the first block (to learn the packet length) before the
// rest of the packet has even arrived.
type aesCBC struct {
	keyLen int
	enc    stdcipher.BlockMode
	dec    stdcipher.BlockMode
}

// NewAESCBC builds an AES-CBC packet cipher. keyLen is 16, 24 or 32
// (AES-128/192/256).
func NewAESCBC(keyLen int, key, iv []byte) (Packet, error) {
	if len(key) < keyLen {
		return nil, ErrShortKey
	}
	if len(iv) < aes.BlockSize {
		return nil, ErrShortIV
	}
	block, err := aes.NewCipher(key[:keyLen])
	if err != nil {
		return nil, err
	}
	ivCopy := append([]byte(nil), iv[:aes.BlockSize]...)
	return &aesCBC{
		keyLen: keyLen,
		enc:    stdcipher.NewCBCEncrypter(block, ivCopy),
		dec:    stdcipher.NewCBCDecrypter(block, append([]byte(nil), iv[:aes.BlockSize]...)),
	}, nil
}

func (c *aesCBC) Encrypt(dst, src []byte) { c.enc.CryptBlocks(dst, src) }
func (c *aesCBC) Decrypt(dst, src []byte) { c.dec.CryptBlocks(dst, src) }
func (c *aesCBC) BlockSize() int          { return aes.BlockSize }
func (c *aesCBC) IVLen() int              { return aes.BlockSize }
func (c *aesCBC) KeyLen() int             { return c.keyLen }
func (c *aesCBC) Flags() Flags            { return FlagIsCBC }

// aesCTR wraps AES-CTR, a stream cipher as far as Packet is concerned:
// BlockSize reports 1 since CTR mode needs no padding to a block
// boundary.
type aesCTR struct {
	keyLen int
	encSrc stdcipher.Stream
	decSrc stdcipher.Stream
}

// NewAESCTR builds an AES-CTR packet cipher.
func NewAESCTR(keyLen int, key, iv []byte) (Packet, error) {
	if len(key) < keyLen {
		return nil, ErrShortKey
	}
	if len(iv) < aes.BlockSize {
		return nil, ErrShortIV
	}
	block, err := aes.NewCipher(key[:keyLen])
	if err != nil {
		return nil, err
	}
	return &aesCTR{
		keyLen: keyLen,
		encSrc: stdcipher.NewCTR(block, append([]byte(nil), iv[:aes.BlockSize]...)),
		decSrc: stdcipher.NewCTR(block, append([]byte(nil), iv[:aes.BlockSize]...)),
	}, nil
}

func (c *aesCTR) Encrypt(dst, src []byte) { c.encSrc.XORKeyStream(dst, src) }
func (c *aesCTR) Decrypt(dst, src []byte) { c.decSrc.XORKeyStream(dst, src) }
func (c *aesCTR) BlockSize() int          { return 1 }
func (c *aesCTR) IVLen() int              { return aes.BlockSize }
func (c *aesCTR) KeyLen() int             { return c.keyLen }
func (c *aesCTR) Flags() Flags            { return 0 }

// aesGCM implements the aes{128,256}-gcm@openssh.com AEAD variant,
// whose 12-byte nonce is a fixed 4-byte prefix (derived from the key
// exchange, like a CBC IV) concatenated with an 8-byte big-endian
// packet counter the transport layer maintains and passes in per call.
type aesGCM struct {
	keyLen int
	aead   stdcipher.AEAD
}

// NewAESGCM builds an AES-GCM AEAD packet cipher.
func NewAESGCM(keyLen int, key []byte) (AEADPacket, error) {
	if len(key) < keyLen {
		return nil, ErrShortKey
	}
	block, err := aes.NewCipher(key[:keyLen])
	if err != nil {
		return nil, err
	}
	aead, err := stdcipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &aesGCM{keyLen: keyLen, aead: aead}, nil
}

func (c *aesGCM) Encrypt(dst, src []byte) { copy(dst, src) } // unused: AEAD path goes through Seal/Open
func (c *aesGCM) Decrypt(dst, src []byte) { copy(dst, src) }
func (c *aesGCM) BlockSize() int          { return 1 }
func (c *aesGCM) IVLen() int              { return 12 }
func (c *aesGCM) KeyLen() int             { return c.keyLen }
func (c *aesGCM) Flags() Flags            { return FlagIsAEAD }
func (c *aesGCM) TagSize() int            { return c.aead.Overhead() }

func (c *aesGCM) Seal(dst, nonce, plaintext, associatedData []byte) []byte {
	return c.aead.Seal(dst, nonce, plaintext, associatedData)
}

func (c *aesGCM) Open(dst, nonce, ciphertext, associatedData []byte) ([]byte, error) {
	return c.aead.Open(dst, nonce, ciphertext, associatedData)
}
