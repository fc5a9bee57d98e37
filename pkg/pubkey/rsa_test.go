package pubkey

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/crypto/chacha20"
)

// seededReader is a deterministic io.Reader used wherever a test needs
// "any fixed PRNG seed" rather than crypto/rand, expanding a short seed
// string into an arbitrarily long keystream via ChaCha20.
type seededReader struct {
	c *chacha20.Cipher
}

func newSeededReader(seed string) *seededReader {
	var key [32]byte
	copy(key[:], seed)
	c, err := chacha20.NewUnauthenticatedCipher(key[:], make([]byte, chacha20.NonceSize))
	if err != nil {
		panic(err)
	}
	return &seededReader{c: c}
}

func (s *seededReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	s.c.XORKeyStream(p, p)
	return len(p), nil
}

func TestRSASignVerifyRoundTrip(t *testing.T) {
	rd := newSeededReader("seed-S1")
	key, err := GenerateRSA(2048, rd)
	if err != nil {
		t.Fatal(err)
	}
	if reason := key.Invalid(0); reason != "" {
		t.Fatalf("generated key considered invalid: %s", reason)
	}

	msg := []byte("hello")
	sig, err := key.Sign(msg, SignFlagRSASHA256)
	if err != nil {
		t.Fatal(err)
	}
	if !key.Verify(msg, sig) {
		t.Fatal("signature failed to verify")
	}

	algName, _, ok := unpackSSHSignature(sig)
	if !ok {
		t.Fatal("could not unpack signature")
	}
	if !strings.HasPrefix(algName, "rsa-") {
		t.Fatalf("algorithm name %q should have rsa- prefix for SHA256 flag", algName)
	}
	if !bytes.HasPrefix(sig[4:], []byte("rsa-")) {
		t.Fatalf("signature blob should start with the algorithm-name bytes rsa- after its length prefix")
	}

	if key.Verify([]byte("goodbye"), sig) {
		t.Fatal("signature should not verify against a different message")
	}
}

func TestRSAKeyWidthExact(t *testing.T) {
	rd := newSeededReader("seed-width")
	key, err := GenerateRSA(512, rd)
	if err != nil {
		t.Fatal(err)
	}
	if key.N.BitLen() != 512 {
		t.Fatalf("modulus width = %d, want exactly 512", key.N.BitLen())
	}
}
