package cipher

import (
	stdcipher "crypto/cipher"

	"golang.org/x/crypto/blowfish"
)

// blowfishCBC implements blowfish-cbc, negotiated for interop with
// older SSH implementations only.
type blowfishCBC struct {
	enc stdcipher.BlockMode
	dec stdcipher.BlockMode
}

// NewBlowfishCBC builds a blowfish-cbc packet cipher. Key length may be
// anywhere from 4 to 56 bytes; SSH negotiates 16 bytes for this name.
func NewBlowfishCBC(key, iv []byte) (Packet, error) {
	if len(iv) < blowfish.BlockSize {
		return nil, ErrShortIV
	}
	block, err := blowfish.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &blowfishCBC{
		enc: stdcipher.NewCBCEncrypter(block, append([]byte(nil), iv[:blowfish.BlockSize]...)),
		dec: stdcipher.NewCBCDecrypter(block, append([]byte(nil), iv[:blowfish.BlockSize]...)),
	}, nil
}

func (c *blowfishCBC) Encrypt(dst, src []byte) { c.enc.CryptBlocks(dst, src) }
func (c *blowfishCBC) Decrypt(dst, src []byte) { c.dec.CryptBlocks(dst, src) }
func (c *blowfishCBC) BlockSize() int          { return blowfish.BlockSize }
func (c *blowfishCBC) IVLen() int              { return blowfish.BlockSize }
func (c *blowfishCBC) KeyLen() int             { return 16 }
func (c *blowfishCBC) Flags() Flags            { return FlagIsCBC }
