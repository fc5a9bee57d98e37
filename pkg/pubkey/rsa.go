package pubkey

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"io"
	"math/big"

	"github.com/postalsys/sshcore/pkg/mpint"
	"github.com/postalsys/sshcore/pkg/primegen"
)

// rsaExponent is the only public exponent this package ever generates.
// Grounded on RSA_EXPONENT in _examples/original_source/sshrsag.c.
const rsaExponent = 65537

// nfirstbits is the width of the leading-prefix pair invented for p and
// q so that p*q lands at exactly the requested modulus width. Grounded
// on NFIRSTBITS in sshrsag.c.
const nfirstbits = 13

// RSAKey is an RSA signing key, optionally holding only the public half.
type RSAKey struct {
	N *big.Int
	E *big.Int

	// Private components; nil when this is a public-only key.
	D    *big.Int
	P    *big.Int
	Q    *big.Int
	Iqmp *big.Int

	comment string
}

// GenerateRSA generates an RSA key of the given total modulus width
// following the six-step procedure grounded on rsa_generate in
// sshrsag.c: invent a leading-bits prefix pair so the modulus lands at
// exactly `bits` bits, generate p and q avoiding residue 1 mod e, order
// them p > q, and derive d and iqmp.
func GenerateRSA(bits uint, rd io.Reader) (*RSAKey, error) {
	if rd == nil {
		rd = rand.Reader
	}
	if bits < 64 {
		return nil, fmt.Errorf("pubkey: rsa key size %d too small", bits)
	}

	pfirst, qfirst, err := inventFirstbits(rd, 2)
	if err != nil {
		return nil, err
	}

	qbits := bits / 2
	pbits := bits - qbits

	p, err := generateRSAFactor(pbits, pfirst, rd)
	if err != nil {
		return nil, err
	}
	q, err := generateRSAFactor(qbits, qfirst, rd)
	if err != nil {
		return nil, err
	}

	pBig := mpintToBig(p)
	qBig := mpintToBig(q)
	if pbits == qbits && pBig.Cmp(qBig) < 0 {
		pBig, qBig = qBig, pBig
	}

	e := big.NewInt(rsaExponent)
	n := new(big.Int).Mul(pBig, qBig)
	pm1 := new(big.Int).Sub(pBig, big.NewInt(1))
	qm1 := new(big.Int).Sub(qBig, big.NewInt(1))
	phiN := new(big.Int).Mul(pm1, qm1)
	d := new(big.Int).ModInverse(e, phiN)
	if d == nil {
		return nil, fmt.Errorf("pubkey: exponent not invertible mod phi(n)")
	}
	iqmp := new(big.Int).ModInverse(qBig, pBig)
	if iqmp == nil {
		return nil, fmt.Errorf("pubkey: q not invertible mod p")
	}

	return &RSAKey{N: n, E: e, D: d, P: pBig, Q: qBig, Iqmp: iqmp}, nil
}

// generateRSAFactor builds one RSA prime factor: a pcs of the given
// width with the given NFIRSTBITS-wide leading prefix, avoiding residue
// 1 mod e, run through the probabilistic generator.
func generateRSAFactor(bits uint, firstbits uint64, rd io.Reader) (*mpint.Int, error) {
	pcs := primegen.New(bits, firstbits, nfirstbits).WithRandSource(rd)
	if err := pcs.AvoidResidueSmall(rsaExponent, 1); err != nil {
		return nil, err
	}
	if err := pcs.Ready(); err != nil {
		return nil, err
	}
	return primegen.GenerateProbabilistic(pcs, nil)
}

// inventFirstbits picks a pair of nfirstbits-wide values (one, two)
// whose product is at least 2^25 and which differ by at least
// minSeparation, by counting the viable pairs and indexing into them
// with a uniformly drawn random number -- grounded exactly on
// invent_firstbits in sshrsag.c. Random selection among public,
// non-secret candidates, so ordinary math/big arithmetic (not the
// constant-time mpint primitives) is appropriate here.
func inventFirstbits(rd io.Reader, minSeparation uint) (uint64, uint64, error) {
	const lo, hi = 1 << 12, 1 << 13
	minProduct := int64(2 * lo * lo)

	bMin := func(a uint) uint {
		b := uint((2*int64(lo)*int64(lo) + int64(a) - 1) / int64(a))
		if b < a+minSeparation {
			b = a + minSeparation
		}
		if b > hi {
			b = hi
		}
		return b
	}

	total := big.NewInt(0)
	for a := uint(lo); a < hi; a++ {
		total.Add(total, big.NewInt(int64(hi-bMin(a))))
	}

	randval, err := rand.Int(rd, total)
	if err != nil {
		return 0, 0, err
	}

	var a, b uint
	remaining := new(big.Int).Set(randval)
	for aCandidate := uint(lo); aCandidate < hi; aCandidate++ {
		bm := bMin(aCandidate)
		limit := big.NewInt(int64(hi - bm))
		if remaining.Cmp(limit) < 0 {
			a = aCandidate
			b = bm + uint(remaining.Int64())
			break
		}
		remaining.Sub(remaining, limit)
	}

	if a == 0 || b == 0 || uint64(a)*uint64(b) < uint64(minProduct) {
		return 0, 0, fmt.Errorf("pubkey: invent_firstbits failed to find a pair")
	}

	swapBit, err := rand.Int(rd, big.NewInt(2))
	if err != nil {
		return 0, 0, err
	}
	if swapBit.Int64() == 1 {
		a, b = b, a
	}
	return uint64(a), uint64(b), nil
}

func mpintToBig(x *mpint.Int) *big.Int {
	return new(big.Int).SetBytes(x.Bytes())
}

// Algorithm returns the SSH-wire algorithm name for the signature
// variant this key would produce with SignFlagNone: the legacy
// SHA-1-based "ssh-rsa".
func (k *RSAKey) Algorithm() string { return "ssh-rsa" }

func rsaHashFor(flags SignFlags) (crypto.Hash, string) {
	switch {
	case flags&SignFlagRSASHA512 != 0:
		return crypto.SHA512, "rsa-sha2-512"
	case flags&SignFlagRSASHA256 != 0:
		return crypto.SHA256, "rsa-sha2-256"
	default:
		return crypto.SHA1, "ssh-rsa"
	}
}

func hashSum(h crypto.Hash, data []byte) []byte {
	switch h {
	case crypto.SHA512:
		sum := sha512.Sum512(data)
		return sum[:]
	case crypto.SHA256:
		sum := sha256.Sum256(data)
		return sum[:]
	default:
		sum := sha1.Sum(data)
		return sum[:]
	}
}

// Sign produces a deterministic PKCS#1 v1.5 signature over data, wire
// encoded as the SSH string (algorithm-name, signature-blob) pair.
func (k *RSAKey) Sign(data []byte, flags SignFlags) ([]byte, error) {
	if k.D == nil {
		return nil, fmt.Errorf("pubkey: rsa key has no private component")
	}
	hash, algName := rsaHashFor(flags)
	digest := hashSum(hash, data)

	priv := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{N: k.N, E: int(k.E.Int64())},
		D:         k.D,
		Primes:    []*big.Int{k.P, k.Q},
	}
	priv.Precompute()

	sig, err := rsa.SignPKCS1v15(nil, priv, hash, digest)
	if err != nil {
		return nil, err
	}
	return packSSHSignature(algName, sig), nil
}

// Verify reports whether sig (as produced by Sign, algorithm prefix and
// all) validates against data under this key's public components,
// using the hash named by the signature's own algorithm name, which
// must be one of the three permitted ones.
func (k *RSAKey) Verify(data, sig []byte) bool {
	algName, blob, ok := unpackSSHSignature(sig)
	if !ok {
		return false
	}
	var hash crypto.Hash
	switch algName {
	case "ssh-rsa":
		hash = crypto.SHA1
	case "rsa-sha2-256":
		hash = crypto.SHA256
	case "rsa-sha2-512":
		hash = crypto.SHA512
	default:
		return false
	}
	digest := hashSum(hash, data)
	pub := &rsa.PublicKey{N: k.N, E: int(k.E.Int64())}
	return rsa.VerifyPKCS1v15(pub, hash, digest, blob) == nil
}

// PublicBlob returns the SSH wire encoding: string "ssh-rsa", mpint e,
// mpint n.
func (k *RSAKey) PublicBlob() []byte {
	w := newSSHWriter()
	w.writeString("ssh-rsa")
	w.writeMPInt(k.E)
	w.writeMPInt(k.N)
	return w.bytes()
}

// PrivateBlob returns the bare private components d, iqmp, p, q (in
// that PuTTY-file order), each as a length-prefixed mpint.
func (k *RSAKey) PrivateBlob() []byte {
	w := newSSHWriter()
	w.writeMPInt(k.D)
	w.writeMPInt(k.Iqmp)
	w.writeMPInt(k.P)
	w.writeMPInt(k.Q)
	return w.bytes()
}

// OpenSSHBlob returns the openssh-key-v1 private-key field layout for
// RSA: n, e, d, iqmp, p, q, comment.
func (k *RSAKey) OpenSSHBlob() []byte {
	w := newSSHWriter()
	w.writeString("ssh-rsa")
	w.writeMPInt(k.N)
	w.writeMPInt(k.E)
	w.writeMPInt(k.D)
	w.writeMPInt(k.Iqmp)
	w.writeMPInt(k.P)
	w.writeMPInt(k.Q)
	w.writeString(k.comment)
	return w.bytes()
}

// CacheString returns a short identifier: algorithm name and modulus
// bit length.
func (k *RSAKey) CacheString() string {
	return fmt.Sprintf("ssh-rsa %d", k.N.BitLen())
}

// Components returns the key's numeric components by name.
func (k *RSAKey) Components() map[string]string {
	m := map[string]string{
		"e": k.E.String(),
		"n": k.N.String(),
	}
	if k.D != nil {
		m["d"] = k.D.String()
		m["p"] = k.P.String()
		m["q"] = k.Q.String()
		m["iqmp"] = k.Iqmp.String()
	}
	return m
}

// Invalid reports a structural problem with the key, or "" if none was
// found: n must be the product of p and q when private components are
// present, and the public exponent must be odd and greater than 1.
func (k *RSAKey) Invalid(flags uint32) string {
	if k.N == nil || k.E == nil {
		return "missing modulus or exponent"
	}
	if k.E.Cmp(big.NewInt(1)) <= 0 {
		return "public exponent must exceed 1"
	}
	if k.P != nil && k.Q != nil {
		product := new(big.Int).Mul(k.P, k.Q)
		if product.Cmp(k.N) != 0 {
			return "modulus is not the product of p and q"
		}
	}
	return ""
}
