// Package primegen implements the prime generation pipeline: a candidate
// source with residue constraints, a small-prime sieve, Miller-Rabin
// witness testing, and an optional Pocklington-certified generator.
//
// Grounded on _examples/original_source/sshprime.c,
// _examples/original_source/primecandidate.c and
// _examples/original_source/keygen/millerrabin.c.
package primegen

import "sync"

// maxSmallPrime bounds the sieve: candidates are checked for small
// factors up to this value before the expensive Miller-Rabin stage, the
// same bound the original implementation's embedded smallprimes table
// uses (all odd primes below 2^16).
const maxSmallPrime = 1 << 16

var (
	smallPrimesOnce sync.Once
	smallPrimes     []uint32
)

// SmallPrimes returns the table of all odd primes below 2^16 (6541 of
// them), built once via a sieve of Eratosthenes on first use rather than
// embedded as a static literal table.
func SmallPrimes() []uint32 {
	smallPrimesOnce.Do(func() {
		sieve := make([]bool, maxSmallPrime)
		var primes []uint32
		for i := 2; i < maxSmallPrime; i++ {
			if sieve[i] {
				continue
			}
			if i != 2 {
				primes = append(primes, uint32(i))
			}
			for j := i * i; j < maxSmallPrime; j += i {
				sieve[j] = true
			}
		}
		smallPrimes = primes
	})
	return smallPrimes
}
