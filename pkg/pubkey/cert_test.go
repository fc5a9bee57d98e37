package pubkey

import "testing"

func TestCertCheckAcceptsValidCertificate(t *testing.T) {
	ca, err := Ed25519FromSeed(make([]byte, 32))
	if err != nil {
		t.Fatal(err)
	}
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	user, err := Ed25519FromSeed(seed)
	if err != nil {
		t.Fatal(err)
	}

	cert := &Cert{
		Base:        user,
		Serial:      1,
		Type:        certTypeUser,
		KeyID:       "alice",
		Principals:  []string{"alice", "root"},
		ValidAfter:  1000,
		ValidBefore: 2000,
		CAKey:       ca,
	}
	sig, err := ca.Sign(cert.signedPortion(), SignFlagNone)
	if err != nil {
		t.Fatal(err)
	}
	cert.Signature = sig

	if reason := cert.CheckCert(false, "alice", 1500, CertCheckOptions{}); reason != "" {
		t.Fatalf("expected valid certificate, got reason: %s", reason)
	}
	if reason := cert.CheckCert(false, "bob", 1500, CertCheckOptions{}); reason == "" {
		t.Fatal("expected rejection for a principal not listed on the certificate")
	}
	if reason := cert.CheckCert(false, "alice", 2500, CertCheckOptions{}); reason == "" {
		t.Fatal("expected rejection for a time outside the validity window")
	}
	if reason := cert.CheckCert(true, "alice", 1500, CertCheckOptions{}); reason == "" {
		t.Fatal("expected rejection when host/user type does not match")
	}
}

func TestCertCheckRejectsUnknownCriticalOption(t *testing.T) {
	ca, _ := Ed25519FromSeed(make([]byte, 32))
	seed := make([]byte, 32)
	seed[0] = 9
	user, _ := Ed25519FromSeed(seed)

	cert := &Cert{
		Base: user, Type: certTypeUser, Principals: []string{"alice"},
		ValidAfter: 0, ValidBefore: 1 << 40,
		Critical: []CriticalOption{{Name: "not-a-real-option", Value: "x"}},
		CAKey:    ca,
	}
	sig, _ := ca.Sign(cert.signedPortion(), SignFlagNone)
	cert.Signature = sig

	if reason := cert.CheckCert(false, "alice", 500, CertCheckOptions{}); reason == "" {
		t.Fatal("expected rejection for an unrecognised critical option")
	}
}
