package mpint

import (
	"errors"
	"math/big"
)

// ErrNotInvertible is returned by Invert when gcd(x, m) != 1.
var ErrNotInvertible = errors.New("mpint: not invertible: gcd != 1")

// DivmodInto divides n by d, returning the quotient (width-matched to n)
// and the remainder (width-matched to d).
func DivmodInto(n, d *Int) (q, r *Int, err error) {
	if d.v.Sign() == 0 {
		return nil, nil, errors.New("mpint: division by zero")
	}
	qq, rr := new(big.Int), new(big.Int)
	qq.DivMod(n.v, d.v, rr)
	return &Int{maxBits: n.maxBits, v: qq}, &Int{maxBits: d.maxBits, v: rr}, nil
}

// Div returns n/d (floor division).
func Div(n, d *Int) (*Int, error) {
	q, _, err := DivmodInto(n, d)
	return q, err
}

// Mod returns n mod d.
func Mod(n, d *Int) (*Int, error) {
	_, r, err := DivmodInto(n, d)
	return r, err
}

// ReduceMod2to returns a mod 2^bits.
func ReduceMod2to(a *Int, bits uint) *Int {
	return &Int{maxBits: bits, v: mask(a.v, bits)}
}

// InvertMod2to returns the multiplicative inverse of an odd a modulo
// 2^bits (used for Montgomery's -m^-1 mod R precomputation).
func InvertMod2to(a *Int, bits uint) (*Int, error) {
	if a.v.Bit(0) == 0 {
		return nil, errors.New("mpint: invert mod 2^k requires odd input")
	}
	mod := new(big.Int).Lsh(big.NewInt(1), bits)
	inv := new(big.Int).ModInverse(a.v, mod)
	if inv == nil {
		return nil, ErrNotInvertible
	}
	return &Int{maxBits: bits, v: inv}, nil
}

// NthRoot returns floor(a^(1/n)) via Newton's method. n must be >= 1.
func NthRoot(a *Int, n uint) *Int {
	if a.v.Sign() == 0 || n == 0 {
		return New(a.maxBits)
	}
	if n == 1 {
		return a.Copy()
	}
	// Initial guess: 2^(ceil(bitlen/n)+1), above the root
	bitlen := uint(a.v.BitLen())
	x := new(big.Int).Lsh(big.NewInt(1), (bitlen+uint(n)-1)/uint(n)+1)
	nBig := big.NewInt(int64(n))
	nm1 := big.NewInt(int64(n - 1))
	for {
		// x_next = ((n-1)*x + a/x^(n-1)) / n
		xnm1 := new(big.Int).Exp(x, nm1, nil)
		if xnm1.Sign() == 0 {
			break
		}
		term := new(big.Int).Div(a.v, xnm1)
		next := new(big.Int).Mul(nm1, x)
		next.Add(next, term)
		next.Div(next, nBig)
		if next.Cmp(x) >= 0 {
			break
		}
		x = next
	}
	// correct for off-by-one from integer rounding
	for {
		p := new(big.Int).Exp(x, nBig, nil)
		if p.Cmp(a.v) > 0 {
			x.Sub(x, big.NewInt(1))
			continue
		}
		break
	}
	return &Int{maxBits: a.maxBits, v: x}
}

// GCDInto returns gcd(a,b) along with Bezout coefficients (x, y) such
// that a*x + b*y = gcd.
func GCDInto(a, b *Int) (gcd, x, y *Int) {
	g, xx, yy := new(big.Int), new(big.Int), new(big.Int)
	g.GCD(xx, yy, a.v, b.v)
	w := widen(a.maxBits, b.maxBits)
	return &Int{maxBits: w, v: g}, &Int{maxBits: w, v: xx}, &Int{maxBits: w, v: yy}
}

// Coprime reports whether gcd(a,b) == 1.
func Coprime(a, b *Int) bool {
	g, _, _ := GCDInto(a, b)
	return g.v.Cmp(big.NewInt(1)) == 0
}

// Invert returns x^-1 mod m. Fails with ErrNotInvertible iff
// gcd(x, m) != 1.
func Invert(x, m *Int) (*Int, error) {
	inv := new(big.Int).ModInverse(x.v, m.v)
	if inv == nil {
		return nil, ErrNotInvertible
	}
	return &Int{maxBits: m.maxBits, v: inv}, nil
}

// ModPow returns base^exp mod m.
func ModPow(base, exp, m *Int) *Int {
	r := new(big.Int).Exp(base.v, exp.v, m.v)
	return &Int{maxBits: m.maxBits, v: r}
}

// ModMul returns (a*b) mod m.
func ModMul(a, b, m *Int) *Int {
	r := new(big.Int).Mul(a.v, b.v)
	r.Mod(r, m.v)
	return &Int{maxBits: m.maxBits, v: r}
}

// ModAdd returns (a+b) mod m.
func ModAdd(a, b, m *Int) *Int {
	r := new(big.Int).Add(a.v, b.v)
	r.Mod(r, m.v)
	return &Int{maxBits: m.maxBits, v: r}
}

// ModSub returns (a-b) mod m.
func ModSub(a, b, m *Int) *Int {
	r := new(big.Int).Sub(a.v, b.v)
	r.Mod(r, m.v)
	return &Int{maxBits: m.maxBits, v: r}
}
