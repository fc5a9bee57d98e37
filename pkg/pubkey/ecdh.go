package pubkey

import (
	stdecdh "crypto/ecdh"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/cloudflare/circl/dh/x448"
	"golang.org/x/crypto/curve25519"
)

// ECDHExchange is one side of an elliptic-curve Diffie-Hellman
// exchange: Curve25519/Curve448 (x-only Montgomery curves, little-
// endian fixed-width public encoding) or a NIST Weierstrass curve
// (SEC1 uncompressed point encoding) via the standard library.
type ECDHExchange struct {
	kind string // "x25519", "x448", or "nist"

	x25519Priv [32]byte
	x25519Pub  [32]byte

	x448Priv x448.Key
	x448Pub  x448.Key

	nistPriv *stdecdh.PrivateKey
}

// SetupX25519 generates an ephemeral Curve25519 keypair.
func SetupX25519(rd io.Reader) (*ECDHExchange, error) {
	if rd == nil {
		rd = rand.Reader
	}
	var priv [32]byte
	if _, err := io.ReadFull(rd, priv[:]); err != nil {
		return nil, err
	}
	pub, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return nil, err
	}
	e := &ECDHExchange{kind: "x25519"}
	copy(e.x25519Priv[:], priv[:])
	copy(e.x25519Pub[:], pub)
	return e, nil
}

// SetupX448 generates an ephemeral Curve448 keypair via circl.
func SetupX448(rd io.Reader) (*ECDHExchange, error) {
	if rd == nil {
		rd = rand.Reader
	}
	e := &ECDHExchange{kind: "x448"}
	if _, err := io.ReadFull(rd, e.x448Priv[:]); err != nil {
		return nil, err
	}
	x448.KeyGen(&e.x448Pub, &e.x448Priv)
	return e, nil
}

// SetupNIST generates an ephemeral keypair on a NIST Weierstrass curve
// (elliptic.P256/P384/P521) via the standard library's crypto/ecdh.
func SetupNIST(curve elliptic.Curve, rd io.Reader) (*ECDHExchange, error) {
	if rd == nil {
		rd = rand.Reader
	}
	stdCurve, err := nistToStdECDH(curve)
	if err != nil {
		return nil, err
	}
	priv, err := stdCurve.GenerateKey(rd)
	if err != nil {
		return nil, err
	}
	return &ECDHExchange{kind: "nist", nistPriv: priv}, nil
}

func nistToStdECDH(curve elliptic.Curve) (stdecdh.Curve, error) {
	switch curve {
	case elliptic.P256():
		return stdecdh.P256(), nil
	case elliptic.P384():
		return stdecdh.P384(), nil
	case elliptic.P521():
		return stdecdh.P521(), nil
	}
	return nil, fmt.Errorf("pubkey: unsupported nist ecdh curve")
}

// PublicValue returns the wire encoding of our ephemeral public key:
// fixed-width little-endian x-coordinate for the Montgomery curves,
// SEC1 uncompressed point for NIST curves.
func (e *ECDHExchange) PublicValue() []byte {
	switch e.kind {
	case "x25519":
		return append([]byte(nil), e.x25519Pub[:]...)
	case "x448":
		return append([]byte(nil), e.x448Pub[:]...)
	default:
		return e.nistPriv.PublicKey().Bytes()
	}
}

// ComputeSecret derives the shared secret from the peer's public value
// in the same wire encoding PublicValue produces.
func (e *ECDHExchange) ComputeSecret(peer []byte) (*big.Int, error) {
	switch e.kind {
	case "x25519":
		if len(peer) != 32 {
			return nil, fmt.Errorf("pubkey: x25519 peer value must be 32 bytes")
		}
		secret, err := curve25519.X25519(e.x25519Priv[:], peer)
		if err != nil {
			return nil, err
		}
		return new(big.Int).SetBytes(secret), nil
	case "x448":
		if len(peer) != x448.Size {
			return nil, fmt.Errorf("pubkey: x448 peer value must be %d bytes", x448.Size)
		}
		var peerKey, shared x448.Key
		copy(peerKey[:], peer)
		if !x448.Shared(&shared, &e.x448Priv, &peerKey) {
			return nil, fmt.Errorf("pubkey: x448 peer value is a low-order point")
		}
		return new(big.Int).SetBytes(shared[:]), nil
	default:
		curve, err := nistToStdECDH(curveOf(e.nistPriv))
		if err != nil {
			return nil, err
		}
		peerKey, err := curve.NewPublicKey(peer)
		if err != nil {
			return nil, err
		}
		secret, err := e.nistPriv.ECDH(peerKey)
		if err != nil {
			return nil, err
		}
		return new(big.Int).SetBytes(secret), nil
	}
}

func curveOf(priv *stdecdh.PrivateKey) elliptic.Curve {
	switch priv.Curve() {
	case stdecdh.P384():
		return elliptic.P384()
	case stdecdh.P521():
		return elliptic.P521()
	default:
		return elliptic.P256()
	}
}
