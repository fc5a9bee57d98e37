package primegen

import (
	"testing"

	"github.com/postalsys/sshcore/pkg/mpint"
)

func isProbablePrime(t *testing.T, p *mpint.Int) {
	t.Helper()
	mr, err := NewMillerRabin(p)
	if err != nil {
		t.Fatalf("miller-rabin setup: %v", err)
	}
	for i := 0; i < 10; i++ {
		res, err := mr.TestRandom()
		if err != nil {
			t.Fatal(err)
		}
		if !res.Passed {
			t.Fatalf("candidate %s failed miller-rabin round %d", p.GetDecimal(), i)
		}
	}
}

func TestGenerateProbabilisticTerminates(t *testing.T) {
	pcs := NewPlain(128)
	if err := pcs.Ready(); err != nil {
		t.Fatal(err)
	}
	p, err := GenerateProbabilistic(pcs, nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.GetNBits() != 128 {
		t.Fatalf("width = %d, want 128", p.GetNBits())
	}
	isProbablePrime(t, p)
}

func TestMillerRabinKnownPrime(t *testing.T) {
	// 1019 is prime.
	p := mpint.FromUint64(1019, 16)
	isProbablePrime(t, p)
}

func TestMillerRabinKnownComposite(t *testing.T) {
	// 1729, the smallest Carmichael number -- the textbook example that
	// Fermat's test alone would miss.
	p := mpint.FromUint64(1729, 16)
	mr, err := NewMillerRabin(p)
	if err != nil {
		t.Fatal(err)
	}
	res := mr.Test(mpint.FromUint64(2, 16))
	if res.Passed {
		t.Fatal("1729 is composite and should fail miller-rabin with witness 2")
	}
}

func TestChecksNeededMonotonic(t *testing.T) {
	if ChecksNeeded(1024) != 5 {
		t.Fatalf("checks needed for 1024 bits = %d, want 5", ChecksNeeded(1024))
	}
	prev := ChecksNeeded(64)
	for _, bits := range []uint{150, 300, 600, 900, 1400} {
		n := ChecksNeeded(bits)
		if n > prev {
			t.Fatalf("checks needed should be non-increasing with width: %d bits -> %d checks, prev %d", bits, n, prev)
		}
		prev = n
	}
}

func TestSmallPrimesSieve(t *testing.T) {
	sp := SmallPrimes()
	if len(sp) != 6541 {
		t.Fatalf("expected 6541 odd primes below 2^16, got %d", len(sp))
	}
	if sp[0] != 3 {
		t.Fatalf("first small prime should be 3, got %d", sp[0])
	}
	if sp[len(sp)-1] != 65521 {
		t.Fatalf("largest prime below 2^16 should be 65521, got %d", sp[len(sp)-1])
	}
}

func TestPocklingtonCertification(t *testing.T) {
	p, pk, err := GenerateCertified(64, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.GetNBits() != 64 {
		t.Fatalf("width = %d, want 64", p.GetNBits())
	}
	if !pk.IsCertified(p) {
		t.Fatal("final prime should be certified")
	}
	isProbablePrime(t, p)
}

func TestAvoidResidue(t *testing.T) {
	pcs := NewPlain(64)
	mod := mpint.FromUint64(65537, 64)
	if err := pcs.AvoidResidueSmall(65537, 1); err != nil {
		t.Fatal(err)
	}
	if err := pcs.Ready(); err != nil {
		t.Fatal(err)
	}
	p, err := pcs.Generate()
	if err != nil {
		t.Fatal(err)
	}
	r, _ := mpint.Mod(p, mod)
	if r.GetDecimal() == "1" {
		t.Fatal("generated candidate should avoid residue 1 mod 65537")
	}
}
