package keyfile

import (
	"bytes"
	"testing"
)

func samplePPK() *PPK {
	return &PPK{
		Algorithm: "ssh-ed25519",
		Comment:   "test@example",
		Public:    []byte("public-blob-bytes"),
		Private:   []byte("private-key-material-of-arbitrary-length"),
	}
}

func TestPPK3RoundTripUnencrypted(t *testing.T) {
	p := samplePPK()
	data, err := SavePPK3(p, "", DefaultSaveParameters())
	if err != nil {
		t.Fatalf("SavePPK3: %v", err)
	}
	got, err := LoadPPK3(data, "")
	if err != nil {
		t.Fatalf("LoadPPK3: %v", err)
	}
	if got.Algorithm != p.Algorithm || got.Comment != p.Comment {
		t.Fatalf("metadata mismatch: got %+v", got)
	}
	if !bytes.Equal(got.Public, p.Public) {
		t.Fatalf("public blob mismatch")
	}
	if !bytes.Equal(got.Private, p.Private) {
		t.Fatalf("private blob mismatch: got %q want %q", got.Private, p.Private)
	}
}

func TestPPK3RoundTripEncrypted(t *testing.T) {
	p := samplePPK()
	params := DefaultSaveParameters()
	params.PassesAuto = false
	params.Passes = 1
	params.MemoryKB = 1024

	data, err := SavePPK3(p, "correct horse battery staple", params)
	if err != nil {
		t.Fatalf("SavePPK3: %v", err)
	}

	got, err := LoadPPK3(data, "correct horse battery staple")
	if err != nil {
		t.Fatalf("LoadPPK3: %v", err)
	}
	if !bytes.Equal(got.Private, p.Private) {
		t.Fatalf("private blob mismatch after decrypt")
	}
}

func TestPPK3WrongPassphraseRejected(t *testing.T) {
	p := samplePPK()
	params := DefaultSaveParameters()
	params.PassesAuto = false
	params.Passes = 1
	params.MemoryKB = 1024

	data, err := SavePPK3(p, "right-passphrase", params)
	if err != nil {
		t.Fatalf("SavePPK3: %v", err)
	}
	_, err = LoadPPK3(data, "wrong-passphrase")
	if err != ErrWrongPassphrase {
		t.Fatalf("LoadPPK3 with wrong passphrase: got %v, want ErrWrongPassphrase", err)
	}
}

func TestPPK3CorruptedFileUnencrypted(t *testing.T) {
	p := samplePPK()
	data, err := SavePPK3(p, "", DefaultSaveParameters())
	if err != nil {
		t.Fatalf("SavePPK3: %v", err)
	}
	corrupted := append([]byte(nil), data...)
	idx := bytes.Index(corrupted, []byte("Private-Lines"))
	if idx < 0 {
		t.Fatal("test fixture missing Private-Lines section")
	}
	// Flip a byte a few lines into the base64 payload, past the
	// "Private-Lines: N" header line itself.
	flipAt := idx + len("Private-Lines: 1\n") + 2
	corrupted[flipAt] ^= 0x20
	_, err = LoadPPK3(corrupted, "")
	if err != ErrCorruptPPK {
		t.Fatalf("LoadPPK3 on corrupted unencrypted file: got %v, want ErrCorruptPPK", err)
	}
}

func TestPPK2RoundTripEncrypted(t *testing.T) {
	p := samplePPK()
	data, err := SavePPK2(p, "hunter2")
	if err != nil {
		t.Fatalf("SavePPK2: %v", err)
	}
	got, err := LoadPPK2(data, "hunter2")
	if err != nil {
		t.Fatalf("LoadPPK2: %v", err)
	}
	if !bytes.Equal(got.Private, p.Private) {
		t.Fatalf("private blob mismatch")
	}
}

func TestPPK2WrongPassphraseRejected(t *testing.T) {
	p := samplePPK()
	data, err := SavePPK2(p, "hunter2")
	if err != nil {
		t.Fatalf("SavePPK2: %v", err)
	}
	if _, err := LoadPPK2(data, "wrong"); err != ErrWrongPassphrase {
		t.Fatalf("got %v, want ErrWrongPassphrase", err)
	}
}

func TestFingerprintMD5AndSHA256Differ(t *testing.T) {
	blob := []byte("some public key blob")
	md5fp := Fingerprint(blob, FingerprintMD5)
	sha256fp := Fingerprint(blob, FingerprintSHA256)
	if md5fp == sha256fp {
		t.Fatal("expected distinct fingerprint formats")
	}
	if md5fp[:4] != "MD5:" {
		t.Fatalf("MD5 fingerprint missing prefix: %q", md5fp)
	}
	if sha256fp[:7] != "SHA256:" {
		t.Fatalf("SHA256 fingerprint missing prefix: %q", sha256fp)
	}
}
