package pubkey

import (
	"crypto/elliptic"
	"testing"
)

func TestECDSASignVerifyRoundTrip(t *testing.T) {
	for _, curve := range []elliptic.Curve{elliptic.P256(), elliptic.P384(), elliptic.P521()} {
		key, err := GenerateECDSA(curve, newSeededReader("seed-ecdsa"))
		if err != nil {
			t.Fatal(err)
		}
		if reason := key.Invalid(0); reason != "" {
			t.Fatalf("generated ecdsa key invalid: %s", reason)
		}

		msg := []byte("transcript-hash")
		sig, err := key.Sign(msg, SignFlagNone)
		if err != nil {
			t.Fatal(err)
		}
		if !key.Verify(msg, sig) {
			t.Fatalf("%s: signature failed to verify", key.Algorithm())
		}

		sig2, err := key.Sign(msg, SignFlagNone)
		if err != nil {
			t.Fatal(err)
		}
		if string(sig) != string(sig2) {
			t.Fatalf("%s: signing should be deterministic", key.Algorithm())
		}
	}
}

func TestECDSAPublicBlobRoundTrips(t *testing.T) {
	key, err := GenerateECDSA(elliptic.P256(), newSeededReader("seed-ecdsa-2"))
	if err != nil {
		t.Fatal(err)
	}
	blob := key.PublicBlob()
	r := newSSHReader(blob)
	alg, ok := r.readString()
	if !ok || alg != "ecdsa-sha2-nistp256" {
		t.Fatalf("unexpected algorithm prefix: %q", alg)
	}
}
