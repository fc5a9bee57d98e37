package primegen

import (
	"crypto/rand"
	"io"

	"github.com/postalsys/sshcore/pkg/mpint"
)

// MillerRabin is a precomputed context for repeated Miller-Rabin
// primality tests against a fixed probable prime p. Grounded on
// _examples/original_source/keygen/millerrabin.c.
type MillerRabin struct {
	mc     *mpint.Montgomery
	pm1    *mpint.Int // p-1
	lowbit *mpint.Int // lowest set bit of p-1, isolated via x & (-x)
	mPm1   *mpint.Int // Montgomery representation of p-1 (i.e. of -1)
	two    *mpint.Int
	rand   io.Reader
}

// Result is the outcome of one Miller-Rabin round.
type Result struct {
	Passed                 bool
	PotentialPrimitiveRoot bool
}

// NewMillerRabin precomputes p-1 = q*2^k (via its lowest set bit) and a
// Montgomery context for p. p must be odd and >= 2.
func NewMillerRabin(p *mpint.Int) (*MillerRabin, error) {
	pm1 := mpint.SubInteger(p, 1)

	// isolate the lowest set bit of p-1: x & (-x), i.e. x & (~x + 1),
	// computed here as (2^width - x) & x over the fixed width.
	negPm1 := mpint.Sub(mpint.Power2(pm1.MaxBits()), pm1)
	lowbit := mpint.And(negPm1, pm1)

	mc, err := mpint.NewMontgomery(p)
	if err != nil {
		return nil, err
	}

	return &MillerRabin{
		mc:     mc,
		pm1:    pm1,
		lowbit: lowbit,
		mPm1:   mc.Import(pm1),
		two:    mpint.FromUint64(2, p.MaxBits()),
		rand:   rand.Reader,
	}, nil
}

// WithRandSource overrides the entropy source (for deterministic tests).
func (mr *MillerRabin) WithRandSource(r io.Reader) *MillerRabin {
	mr.rand = r
	return mr
}

// testInner runs the core interleaved modexp/check loop. w must already
// be in Montgomery representation. The loop structure intentionally
// avoids branching on where the trailing 2-power chain starts (i.e. on
// the bit-length of q), since that would leak k through timing: every
// intermediate result is checked against both +1 and -1, and bitwise
// masks select which checks are "live".
func (mr *MillerRabin) testInner(mw *mpint.Int) Result {
	acc := mr.mc.Identity()
	var active uint
	var result Result

	bit := int(mr.pm1.MaxBits())
	for bit--; bit >= 1; bit-- {
		acc = mr.mc.MulInto(acc, acc)
		spare := mr.mc.MulInto(acc, mw)
		acc = mpint.SelectInto(nil, acc, spare, mr.pm1.GetBit(uint(bit)))

		firstIter := mr.lowbit.GetBit(uint(bit))
		active |= firstIter

		isPlus1 := mpint.CmpEq(acc, mr.mc.Identity())
		isMinus1 := mpint.CmpEq(acc, mr.mPm1)

		result.Passed = result.Passed || (firstIter&isPlus1) == 1
		result.Passed = result.Passed || (active&isMinus1) == 1

		if bit == 1 {
			result.PotentialPrimitiveRoot = isMinus1 == 1
		}
	}

	return result
}

// Test runs one Miller-Rabin round against witness w (ordinary, not yet
// in Montgomery form).
func (mr *MillerRabin) Test(w *mpint.Int) Result {
	return mr.testInner(mr.mc.Import(w))
}

// TestRandom runs one round against a freshly drawn random witness in
// [2, p-1).
func (mr *MillerRabin) TestRandom() (Result, error) {
	w, err := mpint.RandomInRange(mr.two, mr.pm1, mr.rand)
	if err != nil {
		return Result{}, err
	}
	return mr.testInner(mr.mc.Import(w)), nil
}

// ChecksNeeded returns the number of independent witness rounds needed
// for a candidate of the given bit width, per Table 4.4 of the Handbook
// of Applied Cryptography.
func ChecksNeeded(bits uint) uint {
	switch {
	case bits >= 1300:
		return 2
	case bits >= 850:
		return 3
	case bits >= 650:
		return 4
	case bits >= 550:
		return 5
	case bits >= 450:
		return 6
	case bits >= 400:
		return 7
	case bits >= 350:
		return 8
	case bits >= 300:
		return 9
	case bits >= 250:
		return 12
	case bits >= 200:
		return 15
	case bits >= 150:
		return 18
	default:
		return 27
	}
}
