package pubkey

import (
	"crypto/dsa"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"io"
	"math/big"
)

// DSAKey is a FIPS 186 DSA key: p/q/g domain parameters plus a public Y
// and, when present, a private X.
type DSAKey struct {
	P, Q, G, Y *big.Int
	X          *big.Int // nil for a public-only key
}

// GenerateDSA generates 1024-bit domain parameters (the only size SSH's
// "ssh-dss" recognises) via Go's standard L1024N160 FIPS parameter
// generator, then a keypair within them.
func GenerateDSA(rd io.Reader) (*DSAKey, error) {
	if rd == nil {
		rd = rand.Reader
	}
	var params dsa.Parameters
	if err := dsa.GenerateParameters(&params, rd, dsa.L1024N160); err != nil {
		return nil, err
	}
	var priv dsa.PrivateKey
	priv.Parameters = params
	if err := dsa.GenerateKey(&priv, rd); err != nil {
		return nil, err
	}
	return &DSAKey{P: params.P, Q: params.Q, G: params.G, Y: priv.Y, X: priv.X}, nil
}

func (k *DSAKey) Algorithm() string { return "ssh-dss" }

// deterministicK derives a per-message nonce by hashing the private
// scalar together with the message, rather than drawing fresh
// randomness -- the defence against nonce reuse leaking X that spec
// 4.3 calls for. Grounded on the teacher's pattern of keying
// constructions off a hash of secret material (internal/crypto/signing.go),
// generalised here to DSA's (0, q) nonce range by reducing the hash
// modulo q-1 and adding 1.
func deterministicK(x, q *big.Int, data []byte) *big.Int {
	counter := uint32(0)
	for {
		h := sha256.New()
		h.Write(x.Bytes())
		h.Write(data)
		var ctr [4]byte
		ctr[0] = byte(counter >> 24)
		ctr[1] = byte(counter >> 16)
		ctr[2] = byte(counter >> 8)
		ctr[3] = byte(counter)
		h.Write(ctr[:])
		sum := h.Sum(nil)
		k := new(big.Int).SetBytes(sum)
		k.Mod(k, new(big.Int).Sub(q, big.NewInt(1)))
		k.Add(k, big.NewInt(1))
		if k.Sign() > 0 && k.Cmp(q) < 0 {
			return k
		}
		counter++
	}
}

// Sign produces the classic DSA (r, s) pair wire-encoded as two
// 160-bit big-endian integers, with SignFlags ignored (DSA has exactly
// one variant).
func (k *DSAKey) Sign(data []byte, flags SignFlags) ([]byte, error) {
	if k.X == nil {
		return nil, fmt.Errorf("pubkey: dsa key has no private component")
	}
	digest := sha1.Sum(data)
	z := new(big.Int).SetBytes(digest[:])

	kNonce := deterministicK(k.X, k.Q, data)
	r := new(big.Int).Exp(k.G, kNonce, k.P)
	r.Mod(r, k.Q)
	if r.Sign() == 0 {
		return nil, fmt.Errorf("pubkey: dsa signing produced r=0")
	}

	kInv := new(big.Int).ModInverse(kNonce, k.Q)
	s := new(big.Int).Mul(k.X, r)
	s.Add(s, z)
	s.Mul(s, kInv)
	s.Mod(s, k.Q)
	if s.Sign() == 0 {
		return nil, fmt.Errorf("pubkey: dsa signing produced s=0")
	}

	w := newSSHWriter()
	w.writeString("ssh-dss")
	rb := fixedWidth(r, 20)
	sb := fixedWidth(s, 20)
	w.writeBytes(append(rb, sb...))
	return w.bytes(), nil
}

func fixedWidth(x *big.Int, n int) []byte {
	b := x.Bytes()
	if len(b) >= n {
		return b[len(b)-n:]
	}
	out := make([]byte, n)
	copy(out[n-len(b):], b)
	return out
}

// Verify checks a signature produced by Sign.
func (k *DSAKey) Verify(data, sig []byte) bool {
	algName, blob, ok := unpackSSHSignature(sig)
	if !ok || algName != "ssh-dss" || len(blob) != 40 {
		return false
	}
	r := new(big.Int).SetBytes(blob[:20])
	s := new(big.Int).SetBytes(blob[20:])

	pub := dsa.PublicKey{
		Parameters: dsa.Parameters{P: k.P, Q: k.Q, G: k.G},
		Y:          k.Y,
	}
	digest := sha1.Sum(data)
	return dsa.Verify(&pub, digest[:], r, s)
}

// PublicBlob returns "ssh-dss" followed by p, q, g, y as mpints.
func (k *DSAKey) PublicBlob() []byte {
	w := newSSHWriter()
	w.writeString("ssh-dss")
	w.writeMPInt(k.P)
	w.writeMPInt(k.Q)
	w.writeMPInt(k.G)
	w.writeMPInt(k.Y)
	return w.bytes()
}

// PrivateBlob returns the bare private scalar x.
func (k *DSAKey) PrivateBlob() []byte {
	w := newSSHWriter()
	w.writeMPInt(k.X)
	return w.bytes()
}

// OpenSSHBlob returns p, q, g, y, x in OpenSSH's ssh-dss field order.
func (k *DSAKey) OpenSSHBlob() []byte {
	w := newSSHWriter()
	w.writeString("ssh-dss")
	w.writeMPInt(k.P)
	w.writeMPInt(k.Q)
	w.writeMPInt(k.G)
	w.writeMPInt(k.Y)
	w.writeMPInt(k.X)
	return w.bytes()
}

func (k *DSAKey) CacheString() string {
	return fmt.Sprintf("ssh-dss %d", k.P.BitLen())
}

func (k *DSAKey) Components() map[string]string {
	m := map[string]string{"p": k.P.String(), "q": k.Q.String(), "g": k.G.String(), "y": k.Y.String()}
	if k.X != nil {
		m["x"] = k.X.String()
	}
	return m
}

func (k *DSAKey) Invalid(flags uint32) string {
	if k.P == nil || k.Q == nil || k.G == nil || k.Y == nil {
		return "missing dsa domain parameters"
	}
	if !k.Q.ProbablyPrime(20) {
		return "q is not prime"
	}
	pm1 := new(big.Int).Sub(k.P, big.NewInt(1))
	if new(big.Int).Mod(pm1, k.Q).Sign() != 0 {
		return "q does not divide p-1"
	}
	return ""
}
