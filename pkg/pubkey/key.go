// Package pubkey implements the public-key algorithm suite used for SSH
// host keys, user keys and certificates: RSA, DSA, ECDSA, EdDSA, the
// Diffie-Hellman and elliptic-curve key-exchange families, and the
// transient-key RSA key-exchange variant. Every signing algorithm is
// exposed behind the Key capability interface so that transport and
// keyfile code can treat them uniformly.
//
// Grounded on the teacher's internal/crypto package (X25519 ECDH +
// Ed25519 signing helper), generalised to the full algorithm family named
// in _examples/original_source/sshrsag.c and sshdss.c.
package pubkey

import "errors"

// SignFlags selects a signature sub-algorithm or encoding variant at
// sign/verify time. Only RSA currently interprets more than SignFlagNone.
type SignFlags uint32

const (
	SignFlagNone SignFlags = 0
	// SignFlagRSASHA256 requests rsa-sha2-256 instead of the legacy
	// ssh-rsa (SHA-1) signature scheme.
	SignFlagRSASHA256 SignFlags = 1 << iota
	// SignFlagRSASHA512 requests rsa-sha2-512.
	SignFlagRSASHA512
)

// ErrInvalidSignature names a signature that does not check out against
// the given message under a key. Verify itself reports this as false
// and does not return the error.
var ErrInvalidSignature = errors.New("pubkey: invalid signature")

// ErrInvalidKey names a key whose components fail a sanity check: wrong
// curve point, n not product of two odd primes of the declared width,
// generator out of range, etc. Invalid itself reports the reason as a
// string and does not return the error.
var ErrInvalidKey = errors.New("pubkey: invalid key")

// Key is the capability record every concrete algorithm implements.
// Certificate variants additionally implement CertKey.
type Key interface {
	// Algorithm returns the SSH algorithm name, e.g. "ssh-rsa",
	// "rsa-sha2-256", "ecdsa-sha2-nistp256", "ssh-ed25519".
	Algorithm() string

	// Sign produces a signature over data under the given flags.
	Sign(data []byte, flags SignFlags) ([]byte, error)

	// Verify reports whether sig is a valid signature over data.
	Verify(data, sig []byte) bool

	// PublicBlob returns the SSH wire encoding of the public key.
	PublicBlob() []byte

	// PrivateBlob returns an algorithm-specific encoding of the private
	// components only (no algorithm name, no public components),
	// suitable for encryption and storage by a keyfile codec.
	PrivateBlob() []byte

	// OpenSSHBlob returns the private key encoded the way OpenSSH's
	// openssh-key-v1 container stores it (algorithm name followed by
	// public and then private components, in OpenSSH's field order).
	OpenSSHBlob() []byte

	// CacheString returns a short human-readable identifier used for
	// logging and the fingerprint cache; not a cryptographic digest.
	CacheString() string

	// Components returns the key's numeric/byte components by name, for
	// debugging and the "-components" CLI inspection mode. Private
	// components are included only if the key holds private material.
	Components() map[string]string

	// Invalid reports a reason the key fails a basic sanity check, or
	// "" if the key looks structurally sound. flags is reserved for
	// algorithm-specific strictness levels (e.g. RSA minimum modulus
	// size) and currently always 0.
	Invalid(flags uint32) string
}

// CertKey is implemented by the *-cert-v01@openssh.com variant of a base
// Key, wrapping it with a CA-signed certificate.
type CertKey interface {
	Key

	// BaseKey returns the plain (non-certificate) key wrapped by this
	// certificate.
	BaseKey() Key

	// CheckCert validates the certificate's signature chain, principal
	// match, validity window and critical-option set, returning "" on
	// success or a reason string on failure. host selects host-vs-user
	// certificate semantics.
	CheckCert(host bool, principal string, certTime int64, opts CertCheckOptions) string
}

// CertCheckOptions narrows certificate acceptance beyond the basic
// validity-window and principal checks.
type CertCheckOptions struct {
	// PermittedRSASigAlgs restricts which signature sub-algorithm the CA
	// key was allowed to use when it is an RSA key ("ssh-rsa",
	// "rsa-sha2-256", "rsa-sha2-512"). Empty means all three.
	PermittedRSASigAlgs []string
}
