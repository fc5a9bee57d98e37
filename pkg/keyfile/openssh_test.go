package keyfile

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
)

func TestOpenSSHNewFormatRoundTrip(t *testing.T) {
	k := &OpenSSHKey{
		Algorithm: "ssh-ed25519",
		Public:    []byte("public-component-bytes"),
		Private:   []byte("opaque-private-component-bytes-of-arbitrary-length"),
		Comment:   "alice@example",
	}

	data, err := SaveOpenSSHNewFormat(k)
	if err != nil {
		t.Fatalf("SaveOpenSSHNewFormat: %v", err)
	}
	if !LooksLikePEM(data) {
		t.Fatal("expected saved container to be PEM-wrapped")
	}

	got, err := LoadOpenSSHNewFormat(data)
	if err != nil {
		t.Fatalf("LoadOpenSSHNewFormat: %v", err)
	}
	if got.Algorithm != k.Algorithm {
		t.Fatalf("algorithm mismatch: got %q want %q", got.Algorithm, k.Algorithm)
	}
	if !bytes.Equal(got.Public, k.Public) {
		t.Fatalf("public blob mismatch")
	}
	if !bytes.Equal(got.Private, k.Private) {
		t.Fatalf("private component mismatch: got %q want %q", got.Private, k.Private)
	}
	if got.Comment != k.Comment {
		t.Fatalf("comment mismatch: got %q want %q", got.Comment, k.Comment)
	}
}

func TestOpenSSHNewFormatRejectsWrongPEMType(t *testing.T) {
	_, err := LoadOpenSSHNewFormat([]byte("not a pem file at all"))
	if err == nil {
		t.Fatal("expected error for non-PEM input")
	}
}

func TestLoadSavePEMPrivateKeyRoundTrip(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	data, err := SavePEMPrivateKey(priv)
	if err != nil {
		t.Fatalf("SavePEMPrivateKey: %v", err)
	}

	got, err := LoadPEMPrivateKey(data)
	if err != nil {
		t.Fatalf("LoadPEMPrivateKey: %v", err)
	}
	gotKey, ok := got.(ed25519.PrivateKey)
	if !ok {
		t.Fatalf("unexpected key type %T", got)
	}
	if !gotKey.Equal(priv) {
		t.Fatal("round-tripped key does not match original")
	}
}

func TestLooksLikeSSHCom(t *testing.T) {
	data := []byte("---- BEGIN SSH2 ENCRYPTED PRIVATE KEY ----\nComment: \"test\"\n")
	if !LooksLikeSSHCom(data) {
		t.Fatal("expected ssh.com header to be recognized")
	}
	if LooksLikeSSHCom([]byte("not ssh.com at all")) {
		t.Fatal("did not expect ssh.com header to be recognized")
	}
}
