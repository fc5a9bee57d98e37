package mpint

import (
	"errors"
	"math/big"
)

// Montgomery is a context derived from an odd modulus m, caching R,
// R^-1 mod m and -m^-1 mod R so that repeated modular multiplications
// against the same modulus can avoid full divisions. Import/Export are
// total inverses of each other for 0 <= x < modulus.
type Montgomery struct {
	m       *Int
	bits    uint // R = 2^bits, with bits = m.maxBits (no rounding to a word multiple)
	r       *big.Int
	rInv    *big.Int
	mDashed *big.Int // -m^-1 mod R
	one     *Int     // montgomery representation of 1, i.e. R mod m
}

// NewMontgomery builds a context for the given odd modulus.
func NewMontgomery(m *Int) (*Montgomery, error) {
	if m.v.Bit(0) == 0 {
		return nil, errors.New("mpint: montgomery modulus must be odd")
	}
	bits := m.maxBits
	r := new(big.Int).Lsh(big.NewInt(1), bits)

	rInv := new(big.Int).ModInverse(r, m.v)
	if rInv == nil {
		return nil, errors.New("mpint: montgomery: R not invertible mod m")
	}

	// -m^-1 mod R
	mInvModR := new(big.Int).ModInverse(m.v, r)
	if mInvModR == nil {
		return nil, errors.New("mpint: montgomery: m not invertible mod R")
	}
	mDashed := new(big.Int).Sub(r, mInvModR)
	mDashed.Mod(mDashed, r)

	one := new(big.Int).Mod(r, m.v)

	return &Montgomery{
		m:       m,
		bits:    bits,
		r:       r,
		rInv:    rInv,
		mDashed: mDashed,
		one:     &Int{maxBits: m.maxBits, v: one},
	}, nil
}

// Modulus returns the modulus this context was built from.
func (mc *Montgomery) Modulus() *Int { return mc.m }

// Identity returns the Montgomery representation of 1 (i.e. R mod m).
func (mc *Montgomery) Identity() *Int { return mc.one.Copy() }

// Import converts x (0 <= x < modulus) into Montgomery representation.
func (mc *Montgomery) Import(x *Int) *Int {
	v := new(big.Int).Lsh(x.v, mc.bits)
	v.Mod(v, mc.m.v)
	return &Int{maxBits: mc.m.maxBits, v: v}
}

// Export converts a Montgomery-represented value back to ordinary form.
// Export(Import(x)) == x for every 0 <= x < modulus.
func (mc *Montgomery) Export(mx *Int) *Int {
	return mc.redc(mx.v)
}

// redc implements Montgomery reduction: given t < m*R, returns t*R^-1 mod m.
func (mc *Montgomery) redc(t *big.Int) *Int {
	rMask := new(big.Int).Sub(mc.r, big.NewInt(1))
	u := new(big.Int).And(t, rMask)
	u.Mul(u, mc.mDashed)
	u.And(u, rMask)
	u.Mul(u, mc.m.v)
	u.Add(u, t)
	u.Rsh(u, mc.bits)
	if u.Cmp(mc.m.v) >= 0 {
		u.Sub(u, mc.m.v)
	}
	return &Int{maxBits: mc.m.maxBits, v: u}
}

// MulInto computes the Montgomery product of a and b (both already in
// Montgomery representation) into a freshly allocated result.
func (mc *Montgomery) MulInto(a, b *Int) *Int {
	t := new(big.Int).Mul(a.v, b.v)
	return mc.redc(t)
}

// Add adds two Montgomery-represented values.
func (mc *Montgomery) Add(a, b *Int) *Int {
	return ModAdd(a, b, mc.m)
}

// Sub subtracts two Montgomery-represented values.
func (mc *Montgomery) Sub(a, b *Int) *Int {
	return ModSub(a, b, mc.m)
}

// Pow computes base^exp within the Montgomery domain: base is ordinary
// (not yet imported), the result is ordinary too.
func (mc *Montgomery) Pow(base, exp *Int) *Int {
	mbase := mc.Import(base)
	acc := mc.one.Copy()
	for i := int(exp.v.BitLen()) - 1; i >= 0; i-- {
		acc = mc.MulInto(acc, acc)
		if exp.v.Bit(i) == 1 {
			acc = mc.MulInto(acc, mbase)
		}
	}
	return mc.Export(acc)
}

// Invert returns the ordinary modular inverse of an ordinary value a
// modulo this context's modulus.
func (mc *Montgomery) Invert(a *Int) (*Int, error) {
	return Invert(a, mc.m)
}
