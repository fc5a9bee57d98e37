package mac

import (
	"crypto/rand"
	"testing"
)

func randBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

func TestHMACVariants(t *testing.T) {
	data := []byte{0, 0, 0, 7, 'p', 'a', 'y', 'l', 'o', 'a', 'd'}
	cases := []struct {
		name string
		m    MAC
	}{
		{"hmac-sha1", NewHMACSHA1(randBytes(20), false)},
		{"hmac-sha1-etm", NewHMACSHA1(randBytes(20), true)},
		{"hmac-sha1-96", NewHMACSHA1_96(randBytes(20))},
		{"hmac-sha256", NewHMACSHA256(randBytes(32), false)},
		{"hmac-md5", NewHMACMD5(randBytes(16), false)},
	}
	for _, c := range cases {
		tag := c.m.Compute(data)
		if len(tag) != c.m.Size() {
			t.Fatalf("%s: tag length = %d, want %d", c.name, len(tag), c.m.Size())
		}
		if !c.m.Verify(data, tag) {
			t.Fatalf("%s: verify failed on freshly computed tag", c.name)
		}
		tampered := append([]byte(nil), tag...)
		tampered[0] ^= 1
		if c.m.Verify(data, tampered) {
			t.Fatalf("%s: verify should fail on a tampered tag", c.name)
		}
	}
}

func TestHMACSHA1_96Truncation(t *testing.T) {
	m := NewHMACSHA1_96(randBytes(20))
	if m.Size() != 12 {
		t.Fatalf("hmac-sha1-96 size = %d, want 12", m.Size())
	}
}

func TestPoly1305Wrapper(t *testing.T) {
	var key [32]byte
	copy(key[:], randBytes(32))
	m := NewPoly1305(key)
	data := []byte("ciphertext-bytes")
	tag := m.Compute(data)
	if !m.Verify(data, tag) {
		t.Fatal("poly1305 verify failed on freshly computed tag")
	}
}
