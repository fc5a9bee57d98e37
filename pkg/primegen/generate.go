package primegen

import "github.com/postalsys/sshcore/pkg/mpint"

// GenerateProbabilistic repeatedly draws a candidate from pcs, builds a
// Miller-Rabin context over it, and runs ChecksNeeded(bits) independent
// witness rounds, returning as soon as one candidate passes every round.
// Mirrors _examples/original_source/sshprime.c's probprime_generate.
func GenerateProbabilistic(pcs *PrimeCandidateSource, prog ProgressReceiver) (*mpint.Int, error) {
	if prog == nil {
		prog = NullProgress{}
	}

	for {
		prog.ReportAttempt()

		p, err := pcs.Generate()
		if err != nil {
			return nil, err
		}

		mr, err := NewMillerRabin(p)
		if err != nil {
			return nil, err
		}

		nchecks := ChecksNeeded(p.GetNBits())
		knownBad := false
		for check := uint(0); check < nchecks; check++ {
			res, err := mr.TestRandom()
			if err != nil {
				return nil, err
			}
			if !res.Passed {
				knownBad = true
				break
			}
		}

		if !knownBad {
			prog.ReportPhaseComplete()
			return p, nil
		}
	}
}

// AddProbabilisticPhase registers the progress-cost estimate for a
// probabilistic prime search of the given bit width, per the density
// argument in sshprime.c: roughly 1 in 19.76 candidates survive the
// small-prime sieve, and primes near 2^b occur with density 1/(b ln 2).
func AddProbabilisticPhase(prog ProgressReceiver, bits uint) Phase {
	const ln2 = 0.693147180559945309417232121458
	winnowFactor := 1.0
	if bits >= 32 {
		winnowFactor = 19.76
	}
	prob := winnowFactor / (float64(bits) * ln2)
	cost := float64(ChecksNeeded(bits)) * EstimateModexpCost(bits)
	return prog.AddProbabilistic(cost, prob)
}
