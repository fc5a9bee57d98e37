package cipher

import (
	stdcipher "crypto/cipher"
	"crypto/des"
)

// tripleDESCBC implements 3des-cbc: three independent DES keys applied
// encrypt-decrypt-encrypt, chained via CBC. crypto/des.NewTripleDESCipher
// expects the classic 24-byte EDE key layout, which is exactly what SSH
// negotiates.
type tripleDESCBC struct {
	enc stdcipher.BlockMode
	dec stdcipher.BlockMode
}

// NewTripleDESCBC builds a 3des-cbc packet cipher from a 24-byte key.
func NewTripleDESCBC(key, iv []byte) (Packet, error) {
	if len(key) < 24 {
		return nil, ErrShortKey
	}
	if len(iv) < des.BlockSize {
		return nil, ErrShortIV
	}
	block, err := des.NewTripleDESCipher(key[:24])
	if err != nil {
		return nil, err
	}
	return &tripleDESCBC{
		enc: stdcipher.NewCBCEncrypter(block, append([]byte(nil), iv[:des.BlockSize]...)),
		dec: stdcipher.NewCBCDecrypter(block, append([]byte(nil), iv[:des.BlockSize]...)),
	}, nil
}

func (c *tripleDESCBC) Encrypt(dst, src []byte) { c.enc.CryptBlocks(dst, src) }
func (c *tripleDESCBC) Decrypt(dst, src []byte) { c.dec.CryptBlocks(dst, src) }
func (c *tripleDESCBC) BlockSize() int          { return des.BlockSize }
func (c *tripleDESCBC) IVLen() int              { return des.BlockSize }
func (c *tripleDESCBC) KeyLen() int             { return 24 }
func (c *tripleDESCBC) Flags() Flags            { return FlagIsCBC }

// tripleDESSSH1 implements the SSH-1 framing variant: three separate
// DES ciphers run in "inner-CBC" order (each with its own key and IV
// chaining state), rather than the outer-CBC EDE scheme 3des-cbc uses.
// This is the keying SSH-1's legacy private-key file format also uses.
type tripleDESSSH1 struct {
	enc1, dec1 stdcipher.BlockMode
	enc2, dec2 stdcipher.BlockMode
	enc3, dec3 stdcipher.BlockMode
}

// NewTripleDESSSH1 builds the SSH-1 3des-ssh1 variant from a 24-byte
// key (k1, k2, k3, 8 bytes each). Each of the three CBC stages starts
// from an all-zero IV (SSH-1 uses an all-zero initial IV for this
// cipher) and keeps its chaining state across calls.
func NewTripleDESSSH1(key []byte) (Packet, error) {
	if len(key) < 24 {
		return nil, ErrShortKey
	}
	zero := make([]byte, des.BlockSize)
	mk := func(k []byte) (stdcipher.BlockMode, stdcipher.BlockMode, error) {
		block, err := des.NewCipher(k)
		if err != nil {
			return nil, nil, err
		}
		return stdcipher.NewCBCEncrypter(block, append([]byte(nil), zero...)),
			stdcipher.NewCBCDecrypter(block, append([]byte(nil), zero...)), nil
	}
	e1, d1, err := mk(key[0:8])
	if err != nil {
		return nil, err
	}
	e2, d2, err := mk(key[8:16])
	if err != nil {
		return nil, err
	}
	e3, d3, err := mk(key[16:24])
	if err != nil {
		return nil, err
	}
	return &tripleDESSSH1{enc1: e1, dec1: d1, enc2: e2, dec2: d2, enc3: e3, dec3: d3}, nil
}

// Encrypt applies encrypt(k1) then decrypt(k2) then encrypt(k3), each
// pass CBC-chained independently -- the SSH-1 "triple-DES in
// three-key EDE with three independent CBC states" construction.
func (c *tripleDESSSH1) Encrypt(dst, src []byte) {
	c.enc1.CryptBlocks(dst, src)
	c.dec2.CryptBlocks(dst, dst)
	c.enc3.CryptBlocks(dst, dst)
}

func (c *tripleDESSSH1) Decrypt(dst, src []byte) {
	c.dec3.CryptBlocks(dst, src)
	c.enc2.CryptBlocks(dst, dst)
	c.dec1.CryptBlocks(dst, dst)
}

func (c *tripleDESSSH1) BlockSize() int { return des.BlockSize }
func (c *tripleDESSSH1) IVLen() int     { return des.BlockSize }
func (c *tripleDESSSH1) KeyLen() int    { return 24 }
func (c *tripleDESSSH1) Flags() Flags   { return FlagIsCBC | FlagSSH1Only }
