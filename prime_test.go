package chainmap

import (
	"math"
	"math/rand/v2"
	"testing"
)

func isPrime(n uint32) bool {
	if n < 2 {
		return false
	}
	for d := uint64(2); d*d <= uint64(n); d++ {
		if uint64(n)%d == 0 {
			return false
		}
	}
	return true
}

func TestPrimeTable_AscendingPrimes(t *testing.T) {
	var prev uint32
	for i, pi := range primeTable {
		if pi.prime <= prev {
			t.Fatalf("primeTable[%d]=%d not ascending (prev %d)", i, pi.prime, prev)
		}
		if !isPrime(pi.prime) {
			t.Fatalf("primeTable[%d]=%d is not prime", i, pi.prime)
		}
		prev = pi.prime
	}
}

func TestPrimeTable_MagicConstants(t *testing.T) {
	// magic must be ceil(2^64/prime); anything else breaks the exactness
	// argument for the reciprocal reduction.
	for _, pi := range primeTable {
		p := uint64(pi.prime)
		// ceil(2^64/p) == floor((2^64-1)/p)+1 since p never divides 2^64
		want := math.MaxUint64/p + 1
		if pi.magic != want {
			t.Fatalf("prime %d: magic %#x, want %#x", pi.prime, pi.magic, want)
		}
	}
}

// TestPrimeInfo_ReciprocalExact sweeps boundary and random numerators for
// every stored prime and checks the divide-free reduction against ordinary
// / and %.
func TestPrimeInfo_ReciprocalExact(t *testing.T) {
	rnd := rand.New(rand.NewPCG(42, 0))
	for _, pi := range primeTable {
		p := pi.prime
		edges := []uint64{
			0, 1, uint64(p) - 1, uint64(p), uint64(p) + 1,
			2*uint64(p) - 1, 2 * uint64(p),
			math.MaxUint32 - uint64(p),
			1 << 31, math.MaxUint32 - 1, math.MaxUint32,
		}
		check := func(x uint32) {
			if got, want := pi.divide(x), x/p; got != want {
				t.Fatalf("prime %d: divide(%d)=%d, want %d", p, x, got, want)
			}
			if got, want := pi.remainder(x), x%p; got != want {
				t.Fatalf("prime %d: remainder(%d)=%d, want %d", p, x, got, want)
			}
		}
		for _, e := range edges {
			if e <= math.MaxUint32 {
				check(uint32(e))
			}
		}
		for i := 0; i < 20000; i++ {
			check(rnd.Uint32())
		}
	}
}

func TestNextPrime(t *testing.T) {
	noFail := func() { t.Fatal("overflow hook called unexpectedly") }

	cases := []struct {
		min  uint32
		want uint32
	}{
		{0, 7},
		{1, 7},
		{7, 7},
		{8, 17},
		{10, 17},
		{17, 17},
		{18, 37},
		{1334, 1361},
		{primeTable[len(primeTable)-1].prime, primeTable[len(primeTable)-1].prime},
	}
	for _, c := range cases {
		if got := nextPrime(c.min, noFail); got.prime != c.want {
			t.Fatalf("nextPrime(%d)=%d, want %d", c.min, got.prime, c.want)
		}
	}
}

func TestNextPrime_Overflow(t *testing.T) {
	sentinel := "too big"
	defer func() {
		if r := recover(); r != sentinel {
			t.Fatalf("recovered %v, want overflow hook panic", r)
		}
	}()
	nextPrime(primeTable[len(primeTable)-1].prime+1, func() { panic(sentinel) })
	t.Fatal("nextPrime returned for an unsatisfiable request")
}
