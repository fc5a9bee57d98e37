package cipher

import (
	"bytes"
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

func TestAESCBCRoundTrip(t *testing.T) {
	key, iv := randBytes(32), randBytes(16)
	enc, err := NewAESCBC(32, key, iv)
	if err != nil {
		t.Fatal(err)
	}
	dec, err := NewAESCBC(32, key, iv)
	if err != nil {
		t.Fatal(err)
	}
	plain := randBytes(64)
	ct := make([]byte, len(plain))
	enc.Encrypt(ct, plain)
	pt := make([]byte, len(plain))
	dec.Decrypt(pt, ct)
	if !bytes.Equal(plain, pt) {
		t.Fatal("aes-cbc round trip mismatch")
	}
}

func TestAESCTRRoundTrip(t *testing.T) {
	key, iv := randBytes(16), randBytes(16)
	enc, err := NewAESCTR(16, key, iv)
	if err != nil {
		t.Fatal(err)
	}
	dec, err := NewAESCTR(16, key, iv)
	if err != nil {
		t.Fatal(err)
	}
	plain := randBytes(37) // not a multiple of the block size -- CTR needs none
	ct := make([]byte, len(plain))
	enc.Encrypt(ct, plain)
	pt := make([]byte, len(plain))
	dec.Decrypt(pt, ct)
	if !bytes.Equal(plain, pt) {
		t.Fatal("aes-ctr round trip mismatch")
	}
}

func TestAESGCMSealOpen(t *testing.T) {
	key := randBytes(32)
	c, err := NewAESGCM(32, key)
	if err != nil {
		t.Fatal(err)
	}
	nonce := randBytes(12)
	plain := []byte("packet payload")
	ad := []byte{0, 0, 0, 20}
	sealed := c.Seal(nil, nonce, plain, ad)
	opened, err := c.Open(nil, nonce, sealed, ad)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(opened, plain) {
		t.Fatal("aes-gcm round trip mismatch")
	}
	sealed[0] ^= 1
	if _, err := c.Open(nil, nonce, sealed, ad); err == nil {
		t.Fatal("tampered ciphertext should fail to open")
	}
}

func TestChaCha20Poly1305RoundTrip(t *testing.T) {
	key := randBytes(64)
	client, err := NewChaCha20Poly1305(key)
	if err != nil {
		t.Fatal(err)
	}
	server, err := NewChaCha20Poly1305(key)
	if err != nil {
		t.Fatal(err)
	}

	seq := uint32(42)
	lenField := []byte{0, 0, 0, 16}
	if err := client.EncryptLength(lenField, seq); err != nil {
		t.Fatal(err)
	}

	plaintext := []byte("0123456789abcdef")
	ciphertext, tag := client.SealPayload(nil, lenField, plaintext, seq)

	decryptedLen := append([]byte(nil), lenField...)
	if err := server.DecryptLength(decryptedLen, seq); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decryptedLen, []byte{0, 0, 0, 16}) {
		t.Fatalf("decrypted length = %v, want original plaintext length field", decryptedLen)
	}

	recovered, err := server.OpenPayload(nil, lenField, ciphertext, tag, seq)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(recovered, plaintext) {
		t.Fatal("chacha20-poly1305 round trip mismatch")
	}

	tag[0] ^= 1
	if _, err := server.OpenPayload(nil, lenField, ciphertext, tag, seq); err == nil {
		t.Fatal("tampered tag should fail to open")
	}
}

func TestTripleDESSSH1RoundTrip(t *testing.T) {
	key := randBytes(24)
	enc, err := NewTripleDESSSH1(key)
	if err != nil {
		t.Fatal(err)
	}
	dec, err := NewTripleDESSSH1(key)
	if err != nil {
		t.Fatal(err)
	}
	plain := randBytes(16)
	ct := make([]byte, len(plain))
	enc.Encrypt(ct, plain)
	pt := make([]byte, len(plain))
	dec.Decrypt(pt, ct)
	if !bytes.Equal(plain, pt) {
		t.Fatal("3des-ssh1 round trip mismatch")
	}
}

func TestBlowfishCBCRoundTrip(t *testing.T) {
	key, iv := randBytes(16), randBytes(8)
	enc, err := NewBlowfishCBC(key, iv)
	if err != nil {
		t.Fatal(err)
	}
	dec, err := NewBlowfishCBC(key, iv)
	if err != nil {
		t.Fatal(err)
	}
	plain := randBytes(32)
	ct := make([]byte, len(plain))
	enc.Encrypt(ct, plain)
	pt := make([]byte, len(plain))
	dec.Decrypt(pt, ct)
	if !bytes.Equal(plain, pt) {
		t.Fatal("blowfish-cbc round trip mismatch")
	}
}

func TestArcfourRoundTrip(t *testing.T) {
	key := randBytes(16)
	enc, err := NewArcfour(key)
	if err != nil {
		t.Fatal(err)
	}
	dec, err := NewArcfour(key)
	if err != nil {
		t.Fatal(err)
	}
	plain := randBytes(50)
	ct := make([]byte, len(plain))
	enc.Encrypt(ct, plain)
	pt := make([]byte, len(plain))
	dec.Decrypt(pt, ct)
	if !bytes.Equal(plain, pt) {
		t.Fatal("arcfour round trip mismatch")
	}
}
