package primegen

import (
	"crypto/rand"
	"errors"
	"io"

	"github.com/postalsys/sshcore/pkg/mpint"
)

// GenerateCertified builds a bits-wide prime whose primality is
// *proved* rather than merely probable, by repeated Pocklington
// extension: starting from a small trial-divided seed prime, each round
// picks a random even multiplier r and tests p = 2*r*q + 1 (q being the
// previously certified prime) with a quick Miller-Rabin pass, then
// certifies it for real via Pocklington using q as the known factor of
// p-1. The chain of certified primes grows bit by bit until it reaches
// the requested width.
func GenerateCertified(bits uint, prog ProgressReceiver, rd io.Reader) (*mpint.Int, *Pockle, error) {
	if prog == nil {
		prog = NullProgress{}
	}
	if rd == nil {
		rd = rand.Reader
	}
	if bits < 32 {
		return nil, nil, errors.New("primegen: certified generation requires at least 32 bits")
	}

	pk := NewPockle()

	// Seed: find a small prime (16 bits) via ordinary probabilistic
	// generation, then trust it outright (cheap enough to trial-divide
	// in full against the sieve table).
	seedPCS := NewPlain(16)
	if err := seedPCS.Ready(); err != nil {
		return nil, nil, err
	}
	seed, err := GenerateProbabilistic(seedPCS.WithRandSource(rd), prog)
	if err != nil {
		return nil, nil, err
	}
	pk.AddSmallPrime(seed)

	q := seed
	for q.GetNBits() < bits {
		nextBits := q.GetNBits() + 1
		if nextBits > bits {
			nextBits = bits
		}

		var p *mpint.Int
		for {
			prog.ReportAttempt()

			// r is sized so that p = 2*r*q + 1 lands in [2^(nextBits-1), 2^nextBits).
			rBits := nextBits - q.GetNBits()
			r, err := mpint.RandomBits(rBits, rd)
			if err != nil {
				return nil, nil, err
			}
			two := mpint.FromUint64(2, nextBits)
			cand := mpint.Add(mpint.Mul(mpint.Mul(two, r), q), mpint.FromUint64(1, nextBits))
			cand = mpint.ReduceMod2to(cand, nextBits)
			if cand.GetNBits() != nextBits {
				continue
			}

			mr, err := NewMillerRabin(cand)
			if err != nil {
				continue
			}
			mr = mr.WithRandSource(rd)
			res, err := mr.TestRandom()
			if err != nil {
				return nil, nil, err
			}
			if !res.Passed {
				continue
			}

			witness, err := findPocklingtonWitness(cand, q, rd)
			if err != nil {
				continue
			}

			if err := pk.AddPrime(cand, []*mpint.Int{q}, witness); err != nil {
				continue
			}

			p = cand
			break
		}

		q = p
		prog.ReportPhaseComplete()
	}

	return q, pk, nil
}

// findPocklingtonWitness searches for a witness satisfying the
// Pocklington conditions for p with known factor q of p-1.
func findPocklingtonWitness(p, q *mpint.Int, rd io.Reader) (*mpint.Int, error) {
	two := mpint.FromUint64(2, p.MaxBits())
	pm1 := mpint.SubInteger(p, 1)
	for attempt := 0; attempt < 64; attempt++ {
		a, err := mpint.RandomInRange(two, pm1, rd)
		if err != nil {
			return nil, err
		}
		full := mpint.ModPow(a, pm1, p)
		if full.GetDecimal() != "1" {
			continue
		}
		exp, err := mpint.Div(pm1, q)
		if err != nil {
			return nil, err
		}
		aq := mpint.ModPow(a, exp, p)
		aqm1 := mpint.SubInteger(aq, 1)
		gcd, _, _ := mpint.GCDInto(aqm1, p)
		if gcd.GetDecimal() == "1" {
			return a, nil
		}
	}
	return nil, errors.New("primegen: no pocklington witness found")
}
