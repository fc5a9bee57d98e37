// Package mpint implements fixed-width arbitrary-precision integer
// arithmetic with a constant-time subset suitable for cryptographic use.
//
// Every Int carries a declared maximum bit width fixed at construction
// time. Arithmetic that returns a value of declared width w produces a
// result correct modulo 2^w; callers choose the width up front rather
// than relying on values growing implicitly.
package mpint

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"
)

// Int is an immutable-view fixed-width big integer. The zero value is not
// valid; construct with New or one of the From* functions.
type Int struct {
	maxBits uint
	v       *big.Int
}

// ErrWidth is returned when an operation is asked to produce a value wider
// than its declared maximum.
var ErrWidth = errors.New("mpint: value exceeds declared width")

func mask(v *big.Int, bits uint) *big.Int {
	if bits == 0 {
		return new(big.Int)
	}
	m := new(big.Int).Lsh(big.NewInt(1), bits)
	m.Sub(m, big.NewInt(1))
	return new(big.Int).And(v, m)
}

// New returns the zero value with the given declared maximum width.
func New(maxBits uint) *Int {
	return &Int{maxBits: maxBits, v: new(big.Int)}
}

// FromBytesBE constructs a value from a big-endian byte string. The
// declared width is the bit length of the buffer (8*len(b)).
func FromBytesBE(b []byte) *Int {
	return &Int{maxBits: uint(len(b)) * 8, v: new(big.Int).SetBytes(b)}
}

// FromBytesLE constructs a value from a little-endian byte string.
func FromBytesLE(b []byte) *Int {
	rev := make([]byte, len(b))
	for i, c := range b {
		rev[len(b)-1-i] = c
	}
	return FromBytesBE(rev)
}

// FromUint64 constructs a value from a machine integer with the given
// declared width (which must be able to hold it).
func FromUint64(x uint64, maxBits uint) *Int {
	return &Int{maxBits: maxBits, v: mask(new(big.Int).SetUint64(x), maxBits)}
}

// FromHex parses a hex string (no leading "0x") into a value whose width
// is 4 bits per hex digit.
func FromHex(s string) (*Int, error) {
	b, err := hex.DecodeString(padEven(s))
	if err != nil {
		return nil, fmt.Errorf("mpint: from hex: %w", err)
	}
	iv := FromBytesBE(b)
	iv.maxBits = uint(len(s)) * 4
	return iv, nil
}

func padEven(s string) string {
	if len(s)%2 == 1 {
		return "0" + s
	}
	return s
}

// Copy returns an independent copy of a.
func (a *Int) Copy() *Int {
	return &Int{maxBits: a.maxBits, v: new(big.Int).Set(a.v)}
}

// Power2 returns 2^bit as a value of declared width bit+1.
func Power2(bit uint) *Int {
	return &Int{maxBits: bit + 1, v: new(big.Int).Lsh(big.NewInt(1), bit)}
}

// MaxBits returns the declared maximum width.
func (a *Int) MaxBits() uint { return a.maxBits }

// GetNBits returns the number of significant bits (the position of the
// highest set bit, plus one; 0 for the zero value). This MAY leak via
// timing and must never be used on secret values.
func (a *Int) GetNBits() uint { return uint(a.v.BitLen()) }

// GetBit returns bit i (0 = least significant) as 0 or 1.
func (a *Int) GetBit(i uint) uint { return uint(a.v.Bit(int(i))) }

// GetByte returns byte i (0 = least significant) of the fixed-width
// representation.
func (a *Int) GetByte(i uint) byte {
	var b uint
	for k := uint(0); k < 8; k++ {
		b |= a.GetBit(i*8+k) << k
	}
	return byte(b)
}

// GetDecimal renders the value in decimal. Not constant-time.
func (a *Int) GetDecimal() string { return a.v.String() }

// GetHex renders the value as lowercase hex, zero-padded to the declared
// width. Not constant-time.
func (a *Int) GetHex() string {
	nhex := (a.maxBits + 3) / 4
	s := a.v.Text(16)
	for uint(len(s)) < nhex {
		s = "0" + s
	}
	return s
}

// Bytes returns the big-endian minimal-width byte encoding sized to the
// declared maximum width (ceil(maxBits/8) bytes, zero padded).
func (a *Int) Bytes() []byte {
	n := (a.maxBits + 7) / 8
	out := make([]byte, n)
	b := a.v.Bytes()
	copy(out[uint(len(out))-uint(len(b)):], b)
	return out
}

// BytesLE is the little-endian counterpart of Bytes.
func (a *Int) BytesLE() []byte {
	be := a.Bytes()
	out := make([]byte, len(be))
	for i, c := range be {
		out[len(be)-1-i] = c
	}
	return out
}

// big exposes the underlying math/big value to code inside this package
// (it is unexported, so other packages go through Bytes instead).
func (a *Int) big() *big.Int { return a.v }

func widen(w1, w2 uint) uint {
	if w1 > w2 {
		return w1
	}
	return w2
}

// Add returns (a+b) mod 2^w, where w is the larger of a and b's widths.
func Add(a, b *Int) *Int {
	w := widen(a.maxBits, b.maxBits)
	return &Int{maxBits: w, v: mask(new(big.Int).Add(a.v, b.v), w)}
}

// Sub returns (a-b) mod 2^w.
func Sub(a, b *Int) *Int {
	w := widen(a.maxBits, b.maxBits)
	return &Int{maxBits: w, v: mask(new(big.Int).Sub(a.v, b.v), w)}
}

// Mul returns (a*b) mod 2^w, where w = a.maxBits + b.maxBits.
func Mul(a, b *Int) *Int {
	w := a.maxBits + b.maxBits
	return &Int{maxBits: w, v: mask(new(big.Int).Mul(a.v, b.v), w)}
}

// AddInteger adds a small machine-word scalar.
func AddInteger(a *Int, b uint64) *Int {
	return Add(a, FromUint64(b, 64))
}

// SubInteger subtracts a small machine-word scalar.
func SubInteger(a *Int, b uint64) *Int {
	w := a.maxBits
	return &Int{maxBits: w, v: mask(new(big.Int).Sub(a.v, new(big.Int).SetUint64(b)), w)}
}

// MulInteger multiplies by a small machine-word scalar.
func MulInteger(a *Int, b uint64) *Int {
	w := a.maxBits + 64
	return &Int{maxBits: w, v: mask(new(big.Int).Mul(a.v, new(big.Int).SetUint64(b)), w)}
}

// And returns the bitwise AND of a and b, width = max(a,b).
func And(a, b *Int) *Int {
	w := widen(a.maxBits, b.maxBits)
	return &Int{maxBits: w, v: mask(new(big.Int).And(a.v, b.v), w)}
}

// Or returns the bitwise OR of a and b, width = max(a,b).
func Or(a, b *Int) *Int {
	w := widen(a.maxBits, b.maxBits)
	return &Int{maxBits: w, v: mask(new(big.Int).Or(a.v, b.v), w)}
}

// Xor returns the bitwise XOR of a and b, width = max(a,b).
func Xor(a, b *Int) *Int {
	w := widen(a.maxBits, b.maxBits)
	return &Int{maxBits: w, v: mask(new(big.Int).Xor(a.v, b.v), w)}
}

// Bic ("bit clear") returns a &^ b, width = a.maxBits.
func Bic(a, b *Int) *Int {
	return &Int{maxBits: a.maxBits, v: mask(new(big.Int).AndNot(a.v, b.v), a.maxBits)}
}

// LshiftFixed shifts left by a count that may be known to an attacker
// (e.g. a wire-format constant); it is not required to be constant-time.
func LshiftFixed(a *Int, n uint) *Int {
	w := a.maxBits + n
	return &Int{maxBits: w, v: mask(new(big.Int).Lsh(a.v, n), w)}
}

// RshiftFixed shifts right by a count that may be known to an attacker.
func RshiftFixed(a *Int, n uint) *Int {
	w := a.maxBits
	return &Int{maxBits: w, v: mask(new(big.Int).Rsh(a.v, n), w)}
}

// LshiftSafe shifts left by a count that must not be revealed through
// timing. It iterates over every possible shift amount up to maxShift and
// selects the matching result with a constant-time mask, rather than
// branching on n.
func LshiftSafe(a *Int, n uint, maxShift uint) *Int {
	result := New(a.maxBits + maxShift)
	for i := uint(0); i <= maxShift; i++ {
		candidate := LshiftFixed(a, i)
		candidate.maxBits = result.maxBits
		eq := eqUint(n, i)
		result = SelectInto(result, result, candidate, eq)
	}
	return result
}

// RshiftSafe is the constant-time-shift-amount counterpart of RshiftFixed.
func RshiftSafe(a *Int, n uint, maxShift uint) *Int {
	result := New(a.maxBits)
	for i := uint(0); i <= maxShift; i++ {
		candidate := RshiftFixed(a, i)
		eq := eqUint(n, i)
		result = SelectInto(result, result, candidate, eq)
	}
	return result
}

func eqUint(a, b uint) uint {
	if a == b {
		return 1
	}
	return 0
}

// RandomBits returns a uniformly random value of exactly n bits: the
// top bit is forced to 1 so the result is always n bits wide.
func RandomBits(n uint, r io.Reader) (*Int, error) {
	if r == nil {
		r = rand.Reader
	}
	nbytes := (n + 7) / 8
	buf := make([]byte, nbytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("mpint: random bits: %w", err)
	}
	iv := FromBytesBE(buf)
	iv.v = mask(iv.v, n)
	iv.maxBits = n
	iv.v.SetBit(iv.v, int(n-1), 1)
	return iv, nil
}

// RandomInRange returns a value uniformly distributed in [lo, hi) using
// rejection sampling over the bit-width of (hi-lo).
func RandomInRange(lo, hi *Int, r io.Reader) (*Int, error) {
	if r == nil {
		r = rand.Reader
	}
	span := new(big.Int).Sub(hi.v, lo.v)
	if span.Sign() <= 0 {
		return nil, errors.New("mpint: random_in_range: empty range")
	}
	bits := uint(span.BitLen())
	nbytes := (bits + 7) / 8
	for {
		buf := make([]byte, nbytes)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		cand := new(big.Int).SetBytes(buf)
		if bits%8 != 0 {
			cand.And(cand, mask(cand, bits))
		}
		if cand.Cmp(span) < 0 {
			cand.Add(cand, lo.v)
			return &Int{maxBits: hi.maxBits, v: cand}, nil
		}
	}
}
