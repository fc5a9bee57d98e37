package pubkey

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
	"io"
	"math/big"
)

// RSAKexServer holds the transient RSA keypair a server generates for
// one RSA-kex exchange (never reused, never written to a keyfile).
type RSAKexServer struct {
	priv *rsa.PrivateKey
}

// GenerateRSAKexKey generates a fresh transient RSA key of the given
// width for a single rsa1024-sha1/rsa2048-sha256 exchange.
func GenerateRSAKexKey(bits int, rd io.Reader) (*RSAKexServer, error) {
	if rd == nil {
		rd = rand.Reader
	}
	priv, err := rsa.GenerateKey(rd, bits)
	if err != nil {
		return nil, err
	}
	return &RSAKexServer{priv: priv}, nil
}

// PublicBlob returns the transient key's SSH-wire public blob, sent to
// the client as the KEXRSA_PUBKEY message.
func (s *RSAKexServer) PublicBlob() []byte {
	w := newSSHWriter()
	w.writeString("ssh-rsa")
	w.writeMPInt(big.NewInt(int64(s.priv.PublicKey.E)))
	w.writeMPInt(s.priv.PublicKey.N)
	return w.bytes()
}

// Decrypt recovers the client-chosen shared secret from an
// OAEP-encrypted blob. OAEP always uses SHA-256 here (as does
// EncryptSecret), which is rsa2048-sha256's exchange hash; the SHA-1
// hash of rsa1024-sha1 is not supported.
func (s *RSAKexServer) Decrypt(ciphertext []byte) (*big.Int, error) {
	plain, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, s.priv, ciphertext, nil)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(plain), nil
}

// RSAKexClient encrypts a freshly chosen shared secret under a
// server-supplied transient public blob.
type RSAKexClient struct {
	pub *rsa.PublicKey
}

// ParseRSAKexPublicBlob parses the server's KEXRSA_PUBKEY message.
func ParseRSAKexPublicBlob(blob []byte) (*RSAKexClient, error) {
	r := newSSHReader(blob)
	alg, ok := r.readString()
	if !ok || alg != "ssh-rsa" {
		return nil, fmt.Errorf("pubkey: rsa-kex public blob has unexpected algorithm")
	}
	e, ok := r.readMPInt()
	if !ok {
		return nil, fmt.Errorf("pubkey: rsa-kex public blob truncated (e)")
	}
	n, ok := r.readMPInt()
	if !ok {
		return nil, fmt.Errorf("pubkey: rsa-kex public blob truncated (n)")
	}
	return &RSAKexClient{pub: &rsa.PublicKey{N: n, E: int(e.Int64())}}, nil
}

// EncryptSecret OAEP-encrypts a freshly generated shared secret of the
// modulus byte length minus OAEP overhead, returning both the
// ciphertext to send and the plaintext secret to use locally.
func (c *RSAKexClient) EncryptSecret(rd io.Reader) (ciphertext []byte, secret *big.Int, err error) {
	if rd == nil {
		rd = rand.Reader
	}
	hash := sha256.New()
	maxLen := c.pub.Size() - 2*hash.Size() - 2
	if maxLen <= 0 {
		return nil, nil, fmt.Errorf("pubkey: rsa-kex modulus too small for OAEP")
	}
	buf := make([]byte, maxLen)
	if _, err := io.ReadFull(rd, buf); err != nil {
		return nil, nil, err
	}
	buf[0] &^= 0x80 // keep the secret smaller than the modulus with margin
	ct, err := rsa.EncryptOAEP(hash, rd, c.pub, buf, nil)
	if err != nil {
		return nil, nil, err
	}
	return ct, new(big.Int).SetBytes(buf), nil
}
