package keyfile

import (
	"math/big"
	"testing"
)

func sampleSSH1Key() *SSH1RSAKey {
	return &SSH1RSAKey{
		Comment: "legacy@example",
		N:       big.NewInt(3233),
		E:       big.NewInt(17),
		D:       big.NewInt(2753),
		P:       big.NewInt(61),
		Q:       big.NewInt(53),
		IQMP:    big.NewInt(38),
	}
}

func TestSSH1RoundTripUnencrypted(t *testing.T) {
	k := sampleSSH1Key()
	data, err := SaveSSH1RSA(k, "")
	if err != nil {
		t.Fatalf("SaveSSH1RSA: %v", err)
	}

	loaded, err := LoadSSH1RSA(data)
	if err != nil {
		t.Fatalf("LoadSSH1RSA: %v", err)
	}
	if loaded.Comment != k.Comment {
		t.Fatalf("comment mismatch: got %q want %q", loaded.Comment, k.Comment)
	}
	if loaded.N.Cmp(k.N) != 0 || loaded.E.Cmp(k.E) != 0 {
		t.Fatalf("public key mismatch")
	}

	warn, err := loaded.Decrypt("")
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !warn {
		t.Fatal("expected old_keyfile_warning to be true")
	}
	if loaded.D.Cmp(k.D) != 0 || loaded.P.Cmp(k.P) != 0 || loaded.Q.Cmp(k.Q) != 0 || loaded.IQMP.Cmp(k.IQMP) != 0 {
		t.Fatalf("private key mismatch after decrypt")
	}
}

func TestSSH1RoundTripEncrypted(t *testing.T) {
	k := sampleSSH1Key()
	data, err := SaveSSH1RSA(k, "hunter2")
	if err != nil {
		t.Fatalf("SaveSSH1RSA: %v", err)
	}

	loaded, err := LoadSSH1RSA(data)
	if err != nil {
		t.Fatalf("LoadSSH1RSA: %v", err)
	}

	warn, err := loaded.Decrypt("hunter2")
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !warn {
		t.Fatal("expected old_keyfile_warning to be true")
	}
	if loaded.D.Cmp(k.D) != 0 {
		t.Fatalf("private exponent mismatch after decrypt")
	}
}

func TestSSH1WrongPassphraseRejected(t *testing.T) {
	k := sampleSSH1Key()
	data, err := SaveSSH1RSA(k, "right-passphrase")
	if err != nil {
		t.Fatalf("SaveSSH1RSA: %v", err)
	}

	loaded, err := LoadSSH1RSA(data)
	if err != nil {
		t.Fatalf("LoadSSH1RSA: %v", err)
	}

	if _, err := loaded.Decrypt("wrong-passphrase"); err != ErrWrongPassphrase {
		t.Fatalf("got %v, want ErrWrongPassphrase", err)
	}
}

func TestSSH1RejectsBadMagic(t *testing.T) {
	_, err := LoadSSH1RSA([]byte("not an ssh1 key file\n"))
	if err == nil {
		t.Fatal("expected error for bad magic header")
	}
}
