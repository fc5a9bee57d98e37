package pubkey

import "testing"

func TestEd25519KnownAnswerSeed(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}
	key, err := Ed25519FromSeed(seed)
	if err != nil {
		t.Fatal(err)
	}

	msg := []byte("abc")
	sig, err := key.Sign(msg, SignFlagNone)
	if err != nil {
		t.Fatal(err)
	}

	algName, blob, ok := unpackSSHSignature(sig)
	if !ok {
		t.Fatal("could not unpack signature")
	}
	if algName != "ssh-ed25519" {
		t.Fatalf("algorithm = %q, want ssh-ed25519", algName)
	}
	if len(blob) != 64 {
		t.Fatalf("ed25519 signature must be 64 bytes, got %d", len(blob))
	}
	if !key.Verify(msg, sig) {
		t.Fatal("signature failed to verify")
	}

	sig2, err := key.Sign(msg, SignFlagNone)
	if err != nil {
		t.Fatal(err)
	}
	_, blob2, _ := unpackSSHSignature(sig2)
	if string(blob) != string(blob2) {
		t.Fatal("ed25519 signing must be deterministic for the same key and message")
	}
}

func TestEd25519RejectsWrongSeedLength(t *testing.T) {
	if _, err := Ed25519FromSeed(make([]byte, 16)); err == nil {
		t.Fatal("expected an error for a short seed")
	}
}
