package primegen

import (
	"errors"

	"github.com/postalsys/sshcore/pkg/mpint"
)

// Pockle is a Pocklington-certification context: a growing set of primes
// whose primality has been *proved* (rather than merely made
// probable), so that a new, larger prime can be certified once the
// complete factorisation of (p-1) is known in terms of already-certified
// primes. Grounded on the pockle_* entry points named in
// _examples/original_source/test/testcrypt-func.h.
type Pockle struct {
	certified map[string]bool
}

// NewPockle returns an empty certification context.
func NewPockle() *Pockle {
	return &Pockle{certified: make(map[string]bool)}
}

// Mark returns the number of primes certified so far, for use with
// Release. Only a mark of 0 lets Release undo anything.
func (pk *Pockle) Mark() int {
	return len(pk.certified)
}

// AddSmallPrime adds p to the certified set directly, on the caller's
// assertion that p is a small prime cheap enough to trust outright
// (e.g. verified by trial division against SmallPrimes()).
func (pk *Pockle) AddSmallPrime(p *mpint.Int) {
	pk.certified[p.GetDecimal()] = true
}

// ErrUncertifiedFactor is returned by AddPrime when one of the supplied
// factors of p-1 has not itself been certified.
var ErrUncertifiedFactor = errors.New("primegen: pocklington factor not certified")

// ErrPocklingtonFailed is returned when the supplied witness does not
// satisfy the Pocklington conditions for p.
var ErrPocklingtonFailed = errors.New("primegen: pocklington test failed")

// AddPrime attempts to certify p as prime given a full factorisation of
// p-1 into already-certified primes (with multiplicity) and a witness a
// satisfying:
//
//   - a^(p-1) == 1 (mod p)
//   - gcd(a^((p-1)/q) - 1, p) == 1 for every distinct prime factor q
//
// which together prove (Pocklington's criterion, N-1 form) that p is
// prime. On success p is added to the certified set.
func (pk *Pockle) AddPrime(p *mpint.Int, factors []*mpint.Int, witness *mpint.Int) error {
	pm1 := mpint.SubInteger(p, 1)

	// product of factors must equal p-1 exactly (full factorisation).
	product := mpint.FromUint64(1, p.MaxBits())
	seen := make(map[string]bool)
	var distinct []*mpint.Int
	for _, f := range factors {
		if !pk.certified[f.GetDecimal()] {
			return ErrUncertifiedFactor
		}
		product = mpint.Mul(product, f)
		if !seen[f.GetDecimal()] {
			seen[f.GetDecimal()] = true
			distinct = append(distinct, f)
		}
	}
	product = mpint.ReduceMod2to(product, p.MaxBits())
	if product.GetDecimal() != pm1.GetDecimal() {
		return ErrPocklingtonFailed
	}

	full := mpint.ModPow(witness, pm1, p)
	if full.GetDecimal() != "1" {
		return ErrPocklingtonFailed
	}

	for _, q := range distinct {
		exp, err := mpint.Div(pm1, q)
		if err != nil {
			return err
		}
		aq := mpint.ModPow(witness, exp, p)
		aqMinus1 := mpint.SubInteger(aq, 1)
		gcd, _, _ := mpint.GCDInto(aqMinus1, p)
		if gcd.GetDecimal() != "1" {
			return ErrPocklingtonFailed
		}
	}

	pk.certified[p.GetDecimal()] = true
	return nil
}

// Release(0) forgets every certified prime. Any other mark leaves the
// certified set unchanged: a partial rollback to a later Mark is not
// performed.
func (pk *Pockle) Release(mark int) {
	if mark >= len(pk.certified) {
		return
	}
	// Maps don't preserve insertion order; callers that need exact
	// rollback semantics should build a fresh Pockle per candidate
	// chain instead of relying on Release for anything beyond a full
	// reset (mark == 0).
	if mark == 0 {
		pk.certified = make(map[string]bool)
	}
}

// IsCertified reports whether p has already been proved prime in this
// context.
func (pk *Pockle) IsCertified(p *mpint.Int) bool {
	return pk.certified[p.GetDecimal()]
}
