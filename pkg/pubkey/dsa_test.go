package pubkey

import "testing"

func TestDSASignVerifyRoundTrip(t *testing.T) {
	key, err := GenerateDSA(newSeededReader("seed-dsa"))
	if err != nil {
		t.Fatal(err)
	}
	if reason := key.Invalid(0); reason != "" {
		t.Fatalf("generated dsa key invalid: %s", reason)
	}

	msg := []byte("session-id || userauth request")
	sig, err := key.Sign(msg, SignFlagNone)
	if err != nil {
		t.Fatal(err)
	}
	if !key.Verify(msg, sig) {
		t.Fatal("signature failed to verify")
	}
	if key.Verify([]byte("different message"), sig) {
		t.Fatal("signature should not verify against a different message")
	}
}
