package pubkey

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"io"
	"math/big"
)

// ECDSAKey wraps a NIST Weierstrass-curve key for the
// ecdsa-sha2-nistp{256,384,521} families.
type ECDSAKey struct {
	Curve elliptic.Curve
	X, Y  *big.Int // public point
	D     *big.Int // private scalar, nil for public-only
}

func curveName(c elliptic.Curve) (string, error) {
	switch c {
	case elliptic.P256():
		return "nistp256", nil
	case elliptic.P384():
		return "nistp384", nil
	case elliptic.P521():
		return "nistp521", nil
	}
	return "", fmt.Errorf("pubkey: unsupported ecdsa curve")
}

func curveHash(name string) func([]byte) []byte {
	switch name {
	case "nistp384":
		return func(b []byte) []byte { s := sha512.Sum384(b); return s[:] }
	case "nistp521":
		return func(b []byte) []byte { s := sha512.Sum512(b); return s[:] }
	default:
		return func(b []byte) []byte { s := sha256.Sum256(b); return s[:] }
	}
}

// GenerateECDSA generates a key on the given curve (one of
// elliptic.P256/P384/P521).
func GenerateECDSA(curve elliptic.Curve, rd io.Reader) (*ECDSAKey, error) {
	if rd == nil {
		rd = rand.Reader
	}
	priv, err := ecdsa.GenerateKey(curve, rd)
	if err != nil {
		return nil, err
	}
	return &ECDSAKey{Curve: curve, X: priv.X, Y: priv.Y, D: priv.D}, nil
}

func (k *ECDSAKey) Algorithm() string {
	name, _ := curveName(k.Curve)
	return "ecdsa-sha2-" + name
}

// Sign produces an ASN.1-free (r, s) pair, each a length-prefixed
// mpint, signed with a deterministic nonce from deterministicK (a
// SHA-256 hash of the private scalar, the message and a counter; not
// RFC 6979's HMAC-DRBG) so that nonce reuse (the classic ECDSA
// private-key leak) cannot occur. Grounded on spec
// 4.3's "deterministic k" requirement, generalised from the DSA
// construction in dsa.go to elliptic curves.
func (k *ECDSAKey) Sign(data []byte, flags SignFlags) ([]byte, error) {
	if k.D == nil {
		return nil, fmt.Errorf("pubkey: ecdsa key has no private component")
	}
	name, err := curveName(k.Curve)
	if err != nil {
		return nil, err
	}
	digest := curveHash(name)(data)

	n := k.Curve.Params().N
	kNonce := deterministicK(k.D, n, data)
	rx, _ := k.Curve.ScalarBaseMult(kNonce.Bytes())
	r := new(big.Int).Mod(rx, n)
	if r.Sign() == 0 {
		return nil, fmt.Errorf("pubkey: ecdsa signing produced r=0")
	}

	z := new(big.Int).SetBytes(digest)
	if bitLen := n.BitLen(); digest != nil && len(digest)*8 > bitLen {
		z.Rsh(z, uint(len(digest)*8-bitLen))
	}

	kInv := new(big.Int).ModInverse(kNonce, n)
	s := new(big.Int).Mul(k.D, r)
	s.Add(s, z)
	s.Mul(s, kInv)
	s.Mod(s, n)
	if s.Sign() == 0 {
		return nil, fmt.Errorf("pubkey: ecdsa signing produced s=0")
	}

	w := newSSHWriter()
	w.writeString("ecdsa-sha2-" + name)
	inner := newSSHWriter()
	inner.writeMPInt(r)
	inner.writeMPInt(s)
	w.writeBytes(inner.bytes())
	return w.bytes(), nil
}

// Verify checks a signature produced by Sign.
func (k *ECDSAKey) Verify(data, sig []byte) bool {
	algName, blob, ok := unpackSSHSignature(sig)
	if !ok {
		return false
	}
	name, err := curveName(k.Curve)
	if err != nil || algName != "ecdsa-sha2-"+name {
		return false
	}
	inner := newSSHReader(blob)
	r, ok := inner.readMPInt()
	if !ok {
		return false
	}
	s, ok := inner.readMPInt()
	if !ok {
		return false
	}
	digest := curveHash(name)(data)
	pub := &ecdsa.PublicKey{Curve: k.Curve, X: k.X, Y: k.Y}
	return ecdsa.Verify(pub, digest, r, s)
}

// PublicBlob returns the SSH wire encoding: algorithm name, curve
// identifier, SEC1 uncompressed point.
func (k *ECDSAKey) PublicBlob() []byte {
	name, _ := curveName(k.Curve)
	w := newSSHWriter()
	w.writeString("ecdsa-sha2-" + name)
	w.writeString(name)
	w.writeBytes(elliptic.Marshal(k.Curve, k.X, k.Y))
	return w.bytes()
}

// PrivateBlob returns the bare private scalar d.
func (k *ECDSAKey) PrivateBlob() []byte {
	w := newSSHWriter()
	w.writeMPInt(k.D)
	return w.bytes()
}

// OpenSSHBlob returns curve id, public point, private scalar in
// OpenSSH's ecdsa field order.
func (k *ECDSAKey) OpenSSHBlob() []byte {
	name, _ := curveName(k.Curve)
	w := newSSHWriter()
	w.writeString("ecdsa-sha2-" + name)
	w.writeString(name)
	w.writeBytes(elliptic.Marshal(k.Curve, k.X, k.Y))
	w.writeMPInt(k.D)
	return w.bytes()
}

func (k *ECDSAKey) CacheString() string {
	name, _ := curveName(k.Curve)
	return "ecdsa-sha2-" + name
}

func (k *ECDSAKey) Components() map[string]string {
	m := map[string]string{"x": k.X.String(), "y": k.Y.String()}
	if k.D != nil {
		m["d"] = k.D.String()
	}
	return m
}

func (k *ECDSAKey) Invalid(flags uint32) string {
	if k.Curve == nil || k.X == nil || k.Y == nil {
		return "missing curve point"
	}
	if !k.Curve.IsOnCurve(k.X, k.Y) {
		return "public point is not on the curve"
	}
	return ""
}
