package mpint

import (
	"math/big"
	"testing"
)

func TestAddModLaw(t *testing.T) {
	m := FromUint64(97, 32)
	a := FromUint64(60, 32)
	b := FromUint64(50, 32)

	lhs, _ := Mod(Add(a, b), m)
	am, _ := Mod(a, m)
	bm, _ := Mod(b, m)
	rhs, _ := Mod(Add(am, bm), m)

	if lhs.GetDecimal() != rhs.GetDecimal() {
		t.Fatalf("(a+b) mod m = %s, ((a mod m)+(b mod m)) mod m = %s", lhs.GetDecimal(), rhs.GetDecimal())
	}
}

func TestMulModLaw(t *testing.T) {
	m := FromUint64(1009, 32)
	a := FromUint64(777, 32)
	b := FromUint64(888, 32)

	lhs, _ := Mod(Mul(a, b), m)
	am, _ := Mod(a, m)
	bm, _ := Mod(b, m)
	rhs, _ := Mod(Mul(am, bm), m)

	if lhs.GetDecimal() != rhs.GetDecimal() {
		t.Fatalf("(a*b) mod m = %s, ((a mod m)*(b mod m)) mod m = %s", lhs.GetDecimal(), rhs.GetDecimal())
	}
}

func TestBytesRoundTrip(t *testing.T) {
	b := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	a := FromBytesBE(b)
	if got := a.Bytes(); string(got) != string(b) {
		t.Fatalf("round trip: got %x want %x", got, b)
	}
}

func TestCmpEqHS(t *testing.T) {
	a := FromUint64(42, 64)
	b := FromUint64(42, 64)
	c := FromUint64(43, 64)

	if CmpEq(a, b) != 1 {
		t.Fatal("expected equal")
	}
	if CmpEq(a, c) != 0 {
		t.Fatal("expected not equal")
	}
	if CmpHS(c, a) != 1 {
		t.Fatal("expected c >= a")
	}
	if CmpHS(a, c) != 0 {
		t.Fatal("expected a < c")
	}
	if CmpHS(a, b) != 1 {
		t.Fatal("expected a >= b (equal case)")
	}
}

func TestSelectInto(t *testing.T) {
	a := FromUint64(1, 64)
	b := FromUint64(2, 64)

	if got := SelectInto(nil, a, b, 0); got.GetDecimal() != "1" {
		t.Fatalf("select(bit=0) = %s, want 1", got.GetDecimal())
	}
	if got := SelectInto(nil, a, b, 1); got.GetDecimal() != "2" {
		t.Fatalf("select(bit=1) = %s, want 2", got.GetDecimal())
	}
}

func TestCondSwap(t *testing.T) {
	a := FromUint64(1, 64)
	b := FromUint64(2, 64)

	na, nb := CondSwap(a, b, 1)
	if na.GetDecimal() != "2" || nb.GetDecimal() != "1" {
		t.Fatalf("swap failed: %s %s", na.GetDecimal(), nb.GetDecimal())
	}

	na, nb = CondSwap(a, b, 0)
	if na.GetDecimal() != "1" || nb.GetDecimal() != "2" {
		t.Fatalf("non-swap failed: %s %s", na.GetDecimal(), nb.GetDecimal())
	}
}

func TestInvertAndGCD(t *testing.T) {
	m := FromUint64(97, 32) // prime
	x := FromUint64(13, 32)

	inv, err := Invert(x, m)
	if err != nil {
		t.Fatal(err)
	}
	prod := ModMul(x, inv, m)
	if prod.GetDecimal() != "1" {
		t.Fatalf("x * x^-1 mod m = %s, want 1", prod.GetDecimal())
	}

	if !Coprime(FromUint64(14, 32), FromUint64(15, 32)) {
		t.Fatal("14 and 15 should be coprime")
	}
	if Coprime(FromUint64(14, 32), FromUint64(21, 32)) {
		t.Fatal("14 and 21 share a factor of 7")
	}
}

func TestMontgomeryImportExportRoundTrip(t *testing.T) {
	m := FromUint64(97, 32)
	mc, err := NewMontgomery(m)
	if err != nil {
		t.Fatal(err)
	}
	for _, x := range []uint64{0, 1, 5, 50, 96} {
		xi := FromUint64(x, 32)
		got := mc.Export(mc.Import(xi))
		if got.big().Cmp(big.NewInt(int64(x))) != 0 {
			t.Fatalf("export(import(%d)) = %s", x, got.GetDecimal())
		}
	}
}

func TestMontgomeryPowMatchesModPow(t *testing.T) {
	m := FromUint64(1000000007, 40)
	mc, err := NewMontgomery(m)
	if err != nil {
		t.Fatal(err)
	}
	base := FromUint64(12345, 40)
	exp := FromUint64(6789, 40)

	got := mc.Pow(base, exp)
	want := ModPow(base, exp, m)
	if got.GetDecimal() != want.GetDecimal() {
		t.Fatalf("monty pow = %s, want %s", got.GetDecimal(), want.GetDecimal())
	}
}

func TestModSqrt(t *testing.T) {
	p := FromUint64(101, 32) // prime, 101 mod 4 == 1
	nonSquare := FromUint64(2, 32)
	ctx := NewModSqrt(p, nonSquare)

	// 10^2 = 100 mod 101
	x := FromUint64(100, 32)
	root, ok := ctx.Sqrt(x)
	if !ok {
		t.Fatal("expected success")
	}
	sq := ModMul(root, root, p)
	if sq.GetDecimal() != x.GetDecimal() {
		t.Fatalf("root^2 = %s, want %s", sq.GetDecimal(), x.GetDecimal())
	}
}

func TestRandomBitsWidth(t *testing.T) {
	for i := 0; i < 20; i++ {
		v, err := RandomBits(256, nil)
		if err != nil {
			t.Fatal(err)
		}
		if v.GetNBits() != 256 {
			t.Fatalf("random bits width = %d, want 256", v.GetNBits())
		}
	}
}

func TestRandomInRange(t *testing.T) {
	lo := FromUint64(10, 32)
	hi := FromUint64(20, 32)
	for i := 0; i < 50; i++ {
		v, err := RandomInRange(lo, hi, nil)
		if err != nil {
			t.Fatal(err)
		}
		if CmpHS(v, lo) != 1 || CmpHS(v, hi) == 1 {
			t.Fatalf("value %s out of range [10,20)", v.GetDecimal())
		}
	}
}
