package mac

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/subtle"
	"hash"
)

type hmacMAC struct {
	key    []byte
	newFn  func() hash.Hash
	size   int // truncated output size (96-bit variants truncate)
	keyLen int
	etm    bool
}

func newHMAC(newFn func() hash.Hash, key []byte, size, keyLen int, etm bool) *hmacMAC {
	return &hmacMAC{key: append([]byte(nil), key...), newFn: newFn, size: size, keyLen: keyLen, etm: etm}
}

// NewHMACSHA1 builds hmac-sha1 (or its -etm variant).
func NewHMACSHA1(key []byte, etm bool) MAC { return newHMAC(sha1.New, key, sha1.Size, 20, etm) }

// NewHMACSHA1_96 builds hmac-sha1-96: a full HMAC-SHA1 truncated to the
// first 96 bits.
func NewHMACSHA1_96(key []byte) MAC { return newHMAC(sha1.New, key, 12, 20, false) }

// NewHMACSHA256 builds hmac-sha2-256 (or its -etm variant).
func NewHMACSHA256(key []byte, etm bool) MAC {
	return newHMAC(sha256.New, key, sha256.Size, 32, etm)
}

// NewHMACMD5 builds hmac-md5 (or its -etm variant), retained for
// interop with legacy peers.
func NewHMACMD5(key []byte, etm bool) MAC { return newHMAC(md5.New, key, md5.Size, 16, etm) }

func (m *hmacMAC) Compute(data []byte) []byte {
	h := hmac.New(m.newFn, m.key)
	h.Write(data)
	full := h.Sum(nil)
	return full[:m.size]
}

func (m *hmacMAC) Verify(data, tag []byte) bool {
	computed := m.Compute(data)
	return subtle.ConstantTimeCompare(computed, tag) == 1
}

func (m *hmacMAC) Size() int   { return m.size }
func (m *hmacMAC) KeyLen() int { return m.keyLen }
func (m *hmacMAC) ETM() bool   { return m.etm }
