package mpint

import "math/big"

// ModSqrt is a context for repeated Tonelli-Shanks modular square root
// extraction modulo a fixed prime p, built once from p and a known
// quadratic non-residue so the per-call cost is just the Tonelli-Shanks
// loop rather than also having to search for a non-residue each time.
type ModSqrt struct {
	p    *Int
	q    *big.Int // p-1 = q * 2^s, q odd
	s    uint
	zPow *big.Int // non-residue^q mod p, the generator of the 2-Sylow subgroup
}

// NewModSqrt builds a context for prime p using the supplied quadratic
// non-residue (caller-provided, since finding one requires knowing
// Legendre symbols the caller is assumed to already have established).
func NewModSqrt(p, nonSquare *Int) *ModSqrt {
	pm1 := new(big.Int).Sub(p.v, big.NewInt(1))
	q := new(big.Int).Set(pm1)
	var s uint
	for q.Bit(0) == 0 {
		q.Rsh(q, 1)
		s++
	}
	zPow := new(big.Int).Exp(nonSquare.v, q, p.v)
	return &ModSqrt{p: p, q: q, s: s, zPow: zPow}
}

// Sqrt attempts to find a square root of x modulo p. ok is the side
// channel reporting success; when ok is false, root is the zero value
// and must not be used (x was not a quadratic residue mod p).
func (ctx *ModSqrt) Sqrt(x *Int) (root *Int, ok bool) {
	p := ctx.p.v
	n := x.v
	if n.Sign() == 0 {
		return New(ctx.p.maxBits), true
	}

	m := ctx.s
	c := new(big.Int).Set(ctx.zPow)
	t := new(big.Int).Exp(n, ctx.q, p)
	qp1d2 := new(big.Int).Add(ctx.q, big.NewInt(1))
	qp1d2.Rsh(qp1d2, 1)
	r := new(big.Int).Exp(n, qp1d2, p)

	for t.Cmp(big.NewInt(1)) != 0 {
		// find least i, 0<i<m, such that t^(2^i) == 1
		i := uint(0)
		tt := new(big.Int).Set(t)
		for tt.Cmp(big.NewInt(1)) != 0 {
			tt.Mul(tt, tt)
			tt.Mod(tt, p)
			i++
			if i == m {
				return New(ctx.p.maxBits), false
			}
		}

		b := new(big.Int).Set(c)
		for j := uint(0); j < m-i-1; j++ {
			b.Mul(b, b)
			b.Mod(b, p)
		}

		m = i
		c = new(big.Int).Mul(b, b)
		c.Mod(c, p)
		t.Mul(t, c)
		t.Mod(t, p)
		r.Mul(r, b)
		r.Mod(r, p)
	}

	return &Int{maxBits: ctx.p.maxBits, v: r}, true
}

// ModSqrt is the context-free Montgomery-context convenience form:
// callers holding a Montgomery context for p can extract the root
// directly on imported values and re-export.
func (mc *Montgomery) ModSqrt(ctx *ModSqrt, a *Int) (root *Int, ok bool) {
	ordinary := mc.Export(a)
	r, ok := ctx.Sqrt(ordinary)
	if !ok {
		return nil, false
	}
	return mc.Import(r), true
}
