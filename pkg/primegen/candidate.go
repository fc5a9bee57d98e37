package primegen

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"io"
	"math/big"

	"github.com/postalsys/sshcore/pkg/mpint"
)

// PrimeCandidateSource builds uniformly-distributed candidates of a
// declared bit width, constrained by accumulated residue requirements,
// folded into a single (factor, addend) affine transform of the
// underlying random draw via CRT -- grounded on
// _examples/original_source/primecandidate.c.
type PrimeCandidateSource struct {
	bits   uint
	ready  bool
	limit  *mpint.Int
	factor *mpint.Int
	addend *mpint.Int

	avoidModulus uint64
	avoidResidue uint64

	rand io.Reader
}

// ErrNotReady is returned by Generate if Ready has not been called.
var ErrNotReady = errors.New("primegen: candidate source not ready")

// ErrAlreadyReady is returned by constraint-adding methods called after
// Ready.
var ErrAlreadyReady = errors.New("primegen: candidate source already finalised")

// New builds a candidate source for numbers of the given bit width whose
// top nfirst bits equal first (first's MSB, bit nfirst-1, must be 1).
func New(bits uint, first uint64, nfirst uint) *PrimeCandidateSource {
	base := mpint.LshiftFixed(mpint.FromUint64(first, nfirst), bits-nfirst)
	base = mpint.Or(base, mpint.FromUint64(1, bits)) // low bit set: odd

	return &PrimeCandidateSource{
		bits:         bits,
		limit:        mpint.Power2(bits - nfirst - 1),
		factor:       mpint.FromUint64(2, bits),
		addend:       base,
		avoidModulus: 0,
		avoidResidue: 1,
		rand:         rand.Reader,
	}
}

// NewPlain builds a candidate source with no required leading-bits
// prefix: candidates are simply odd numbers of the given bit width with
// the top bit set.
func NewPlain(bits uint) *PrimeCandidateSource {
	return New(bits, 1, 1)
}

// WithRandSource overrides the entropy source (for deterministic tests).
func (s *PrimeCandidateSource) WithRandSource(r io.Reader) *PrimeCandidateSource {
	s.rand = r
	return s
}

// RequireResidue requires that the generated candidate x satisfy
// x == res (mod mod), folding the constraint into the internal
// (factor, addend) transform via CRT. Contradictory constraints (an
// existing requirement incompatible with this one) are a caller error
// and panic, matching the original's assertion-based contract.
func (s *PrimeCandidateSource) RequireResidue(mod, res *mpint.Int) error {
	if s.ready {
		return ErrAlreadyReady
	}
	resReduced, _ := mpint.Mod(res, mod)
	return s.requireResidueInner(mod, resReduced)
}

// RequireResidue1 is the x == 1 (mod mod) convenience form.
func (s *PrimeCandidateSource) RequireResidue1(mod *mpint.Int) error {
	return s.RequireResidue(mod, mpint.FromUint64(1, mod.MaxBits()))
}

func (s *PrimeCandidateSource) requireResidueInner(mod, res *mpint.Int) error {
	gcd, _, _ := mpint.GCDInto(mod, s.factor)

	test1, _ := mpint.Mod(s.addend, gcd)
	test2, _ := mpint.Mod(res, gcd)
	if mpint.CmpEq(test1, test2) != 1 {
		panic("primegen: contradictory residue constraints")
	}

	a, _ := mpint.Div(s.factor, gcd)
	m, _ := mpint.Div(mod, gcd)
	rPre := mpint.ModSub(res, s.addend, mod)
	r, _ := mpint.Div(rPre, gcd)
	aInv, err := mpint.Invert(a, m)
	if err != nil {
		return err
	}
	k := mpint.ModMul(r, aInv, m)

	if mpint.CmpHS(k, s.limit) == 1 {
		panic("primegen: residue constraint outside candidate range")
	}

	dividend := mpint.Add(s.limit, m)
	dividend = mpint.SubInteger(dividend, 1)
	dividend = mpint.Sub(dividend, k)
	s.limit, _ = mpint.Div(dividend, m)

	s.addend = mpint.Add(s.addend, mpint.Mul(s.factor, k))
	s.factor = mpint.Mul(s.factor, m)

	return nil
}

// AvoidResidueSmall adds one cheap extra predicate to avoid: the
// generated candidate will never satisfy x == res (mod mod). Used by
// RSA key generation to avoid p == 1 (mod e). Only one such predicate
// may be registered.
func (s *PrimeCandidateSource) AvoidResidueSmall(mod, res uint64) error {
	if s.ready {
		return ErrAlreadyReady
	}
	if s.avoidModulus != 0 {
		return errors.New("primegen: avoid-residue predicate already set")
	}
	s.avoidModulus = mod
	s.avoidResidue = res % mod
	return nil
}

// Ready finalises the source; Generate may only be called afterwards.
func (s *PrimeCandidateSource) Ready() error {
	if mpint.HSInteger(s.limit, 0x10001) != 1 {
		return errors.New("primegen: candidate range too narrow after constraints")
	}
	s.limit = mpint.SubInteger(s.limit, 0x10000)
	s.ready = true
	return nil
}

// Generate returns a uniformly chosen candidate of the requested width
// that satisfies every accumulated residue constraint and is coprime to
// every small prime below 2^16.
func (s *PrimeCandidateSource) Generate() (*mpint.Int, error) {
	if !s.ready {
		return nil, ErrNotReady
	}

	small := SmallPrimes()
	navoid := len(small)
	if s.avoidModulus != 0 {
		navoid++
	}
	avoidMod := make([]uint64, navoid)
	avoidRes := make([]uint64, navoid)
	for i, p := range small {
		avoidMod[i] = uint64(p)
		avoidRes[i] = 0
	}
	if s.avoidModulus != 0 {
		avoidMod[len(small)] = s.avoidModulus
		avoidRes[len(small)] = s.avoidResidue
	}

	for {
		zero := mpint.New(s.limit.MaxBits())
		x, err := mpint.RandomInRange(zero, mpint.Add(s.limit, mpint.FromUint64(1, s.limit.MaxBits())), s.rand)
		if err != nil {
			return nil, err
		}

		xres := make([]uint64, navoid)
		xmul := make([]uint64, navoid)
		for i := 0; i < navoid; i++ {
			mod := avoidMod[i]
			res := avoidRes[i]
			factorM := modUint64(s.factor, mod)
			addendM := modUint64(s.addend, mod)
			xM := modUint64(x, mod)
			xmul[i] = factorM
			xres[i] = (addendM + xM*factorM + mod - res%mod) % mod
		}

		delta, found, err := s.findDelta(xres, xmul, avoidMod)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}

		xplus := mpint.AddInteger(x, uint64(delta))
		result := mpint.Add(mpint.Mul(xplus, s.factor), s.addend)
		result = mpint.ReduceMod2to(result, s.bits)
		return result, nil
	}
}

func modUint64(a *mpint.Int, mod uint64) uint64 {
	m := mpint.FromUint64(mod, a.MaxBits())
	r, _ := mpint.Mod(a, m)
	return new(big.Int).SetBytes(r.Bytes()).Uint64()
}

// findDelta searches, up to 1024 candidate offsets, for a delta such
// that x + delta*factor avoids every (modulus, residue) pair in the
// avoid set. Offsets are drawn at random (rather than scanned
// sequentially) to avoid a directional bias.
func (s *PrimeCandidateSource) findDelta(xres, xmul, avoidMod []uint64) (delta uint16, found bool, err error) {
	randbuf := make([]byte, 64)
	attempts := 0
	for attempts < 1024 {
		if _, err := io.ReadFull(s.rand, randbuf); err != nil {
			return 0, false, err
		}
		for pos := 0; pos+2 <= len(randbuf); pos += 2 {
			attempts++
			d := binary.BigEndian.Uint16(randbuf[pos : pos+2])

			ok := true
			for i := range xres {
				if (xres[i]+uint64(d)*xmul[i])%avoidMod[i] == 0 {
					ok = false
					break
				}
			}
			if ok {
				return d, true, nil
			}
			if attempts >= 1024 {
				break
			}
		}
	}
	return 0, false, nil
}
