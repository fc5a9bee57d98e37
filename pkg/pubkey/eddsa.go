package pubkey

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"

	circlEd448 "github.com/cloudflare/circl/sign/ed448"
)

// EdDSAKey wraps either an Ed25519 or an Ed448 keypair behind the same
// Key interface; Curve distinguishes the two.
type EdDSAKey struct {
	Curve string // "ed25519" or "ed448"

	ed25519Pub  ed25519.PublicKey
	ed25519Priv ed25519.PrivateKey

	ed448Pub  circlEd448.PublicKey
	ed448Priv circlEd448.PrivateKey
}

// GenerateEd25519 generates a standard Ed25519 keypair.
func GenerateEd25519(rd io.Reader) (*EdDSAKey, error) {
	if rd == nil {
		rd = rand.Reader
	}
	pub, priv, err := ed25519.GenerateKey(rd)
	if err != nil {
		return nil, err
	}
	return &EdDSAKey{Curve: "ed25519", ed25519Pub: pub, ed25519Priv: priv}, nil
}

// Ed25519FromSeed constructs a key from a raw 32-byte seed, the form
// spec 8.2's known-answer scenario specifies directly (private key
// scalar = SHA-512 of a fixed seed, fed straight into the standard
// library's deterministic expansion).
func Ed25519FromSeed(seed []byte) (*EdDSAKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("pubkey: ed25519 seed must be %d bytes", ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &EdDSAKey{Curve: "ed25519", ed25519Pub: pub, ed25519Priv: priv}, nil
}

// GenerateEd448 generates an Ed448 keypair via circl.
func GenerateEd448(rd io.Reader) (*EdDSAKey, error) {
	if rd == nil {
		rd = rand.Reader
	}
	pub, priv, err := circlEd448.GenerateKey(rd)
	if err != nil {
		return nil, err
	}
	return &EdDSAKey{Curve: "ed448", ed448Pub: pub, ed448Priv: priv}, nil
}

func (k *EdDSAKey) Algorithm() string {
	if k.Curve == "ed448" {
		return "ssh-ed448"
	}
	return "ssh-ed25519"
}

// Sign produces a standard-compliant signature: no hashing is applied
// by this layer, both Ed25519 and Ed448 hash the message internally as
// part of their signing algorithm.
func (k *EdDSAKey) Sign(data []byte, flags SignFlags) ([]byte, error) {
	w := newSSHWriter()
	w.writeString(k.Algorithm())
	switch k.Curve {
	case "ed448":
		if k.ed448Priv == nil {
			return nil, fmt.Errorf("pubkey: ed448 key has no private component")
		}
		sig := circlEd448.Sign(k.ed448Priv, data, "")
		w.writeBytes(sig)
	default:
		if k.ed25519Priv == nil {
			return nil, fmt.Errorf("pubkey: ed25519 key has no private component")
		}
		sig := ed25519.Sign(k.ed25519Priv, data)
		w.writeBytes(sig)
	}
	return w.bytes(), nil
}

// Verify checks a signature produced by Sign.
func (k *EdDSAKey) Verify(data, sig []byte) bool {
	algName, blob, ok := unpackSSHSignature(sig)
	if !ok || algName != k.Algorithm() {
		return false
	}
	switch k.Curve {
	case "ed448":
		return circlEd448.Verify(k.ed448Pub, data, blob, "")
	default:
		return ed25519.Verify(k.ed25519Pub, data, blob)
	}
}

// PublicBlob returns algorithm name followed by the raw public key
// bytes.
func (k *EdDSAKey) PublicBlob() []byte {
	w := newSSHWriter()
	w.writeString(k.Algorithm())
	if k.Curve == "ed448" {
		w.writeBytes(k.ed448Pub)
	} else {
		w.writeBytes(k.ed25519Pub)
	}
	return w.bytes()
}

// PrivateBlob returns the raw private key bytes (seed-expanded form for
// Ed25519, matching OpenSSH's own 64-byte storage).
func (k *EdDSAKey) PrivateBlob() []byte {
	w := newSSHWriter()
	if k.Curve == "ed448" {
		w.writeBytes(k.ed448Priv)
	} else {
		w.writeBytes(k.ed25519Priv)
	}
	return w.bytes()
}

// OpenSSHBlob returns public key then private key, OpenSSH's ed25519
// field order.
func (k *EdDSAKey) OpenSSHBlob() []byte {
	w := newSSHWriter()
	w.writeString(k.Algorithm())
	if k.Curve == "ed448" {
		w.writeBytes(k.ed448Pub)
		w.writeBytes(k.ed448Priv)
	} else {
		w.writeBytes(k.ed25519Pub)
		w.writeBytes(k.ed25519Priv)
	}
	return w.bytes()
}

func (k *EdDSAKey) CacheString() string { return k.Algorithm() }

func (k *EdDSAKey) Components() map[string]string {
	m := map[string]string{}
	if k.Curve == "ed448" {
		m["public"] = fmt.Sprintf("%x", []byte(k.ed448Pub))
		if k.ed448Priv != nil {
			m["private"] = "(redacted)"
		}
	} else {
		m["public"] = fmt.Sprintf("%x", []byte(k.ed25519Pub))
		if k.ed25519Priv != nil {
			m["private"] = "(redacted)"
		}
	}
	return m
}

func (k *EdDSAKey) Invalid(flags uint32) string {
	if k.Curve == "ed448" {
		if len(k.ed448Pub) != circlEd448.PublicKeySize {
			return "malformed ed448 public key"
		}
	} else if len(k.ed25519Pub) != ed25519.PublicKeySize {
		return "malformed ed25519 public key"
	}
	return ""
}
