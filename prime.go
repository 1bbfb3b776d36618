package chainmap

import (
	"math/bits"

	"github.com/llxisdsh/chainmap/internal/opt"
)

// primeInfo describes one admissible bucket-array size: a prime together
// with the precomputed fixed-point reciprocal used to reduce hash codes
// modulo that prime without a hardware divide.
//
// magic is ceil(2^64 / prime). For any 32-bit numerator n the quotient
// n/prime equals the high 64 bits of the 128-bit product n*magic: writing
// e = magic*prime - 2^64 (0 < e <= prime), the accumulated error n*e is
// always below 2^64, so the truncated product can never skip past the next
// multiple of prime. This makes the reduction exact for the entire 32-bit
// hash domain, not merely approximate.
type primeInfo struct {
	prime uint32
	magic uint64
}

// divide computes n / prime via the reciprocal multiply.
//
//go:nosplit
func (p primeInfo) divide(n uint32) uint32 {
	hi, _ := bits.Mul64(uint64(n), p.magic)
	return uint32(hi)
}

// remainder computes n % prime via the reciprocal multiply.
//
//go:nosplit
func (p primeInfo) remainder(n uint32) uint32 {
	r := n - p.divide(n)*p.prime
	opt.Assert_(r == n%p.prime, "reciprocal remainder mismatch")
	return r
}

// primeTable holds the admissible bucket-array sizes in ascending order.
// Each prime is roughly twice the previous one so that a growth step lands
// on a size with ample headroom. The reciprocals were generated offline
// from ceil(2^64/prime) and are verified against ordinary % by the tests.
var primeTable = [...]primeInfo{
	{prime: 7, magic: 0x2492492492492493},
	{prime: 17, magic: 0x0f0f0f0f0f0f0f10},
	{prime: 37, magic: 0x06eb3e45306eb3e5},
	{prime: 79, magic: 0x033d91d2a2067b24},
	{prime: 163, magic: 0x01920fb49d0e228e},
	{prime: 331, magic: 0x00c5fe740317f9d1},
	{prime: 673, magic: 0x006160ff9e9f0062},
	{prime: 1361, magic: 0x0030271fc9d3fc3d},
	{prime: 2729, magic: 0x001803c0961773ab},
	{prime: 5471, magic: 0x000bfa9275a2b248},
	{prime: 10949, magic: 0x0005fc4e47afc187},
	{prime: 21911, magic: 0x0002fdb2c56e124c},
	{prime: 43853, magic: 0x00017e941a212579},
	{prime: 87719, magic: 0x0000bf42cb2c8239},
	{prime: 175447, magic: 0x00005fa02417d1a0},
	{prime: 350899, magic: 0x00002fcfe565c3ce},
	{prime: 701819, magic: 0x000017e7c3d1c2c1},
	{prime: 1403641, magic: 0x00000bf3e03c485b},
	{prime: 2807303, magic: 0x000005f9ed301a3c},
	{prime: 5614657, magic: 0x000002fcf4d0ad95},
	{prime: 11229331, magic: 0x0000017e7a426444},
	{prime: 22458671, magic: 0x000000bf3d1c2c64},
	{prime: 44917381, magic: 0x0000005f9e88a54f},
	{prime: 89834777, magic: 0x0000002fcf43ccb9},
	{prime: 179669557, magic: 0x00000017e7a1dfab},
	{prime: 359339171, magic: 0x0000000bf3d0d007},
	{prime: 718678369, magic: 0x00000005f9e8643f},
	{prime: 1437356741, magic: 0x00000002fcf43205},
	{prime: 2874713497, magic: 0x000000017e7a18e1},
}

// nextPrime returns the smallest stored prime >= min. Requests beyond the
// largest stored prime cannot be satisfied; that is an unrecoverable
// overflow and is delegated to the Behavior hook, which must not return.
func nextPrime(min uint32, onOverflow func()) primeInfo {
	for _, pi := range primeTable {
		if pi.prime >= min {
			return pi
		}
	}
	onOverflow()
	panic("chainmap: overflow hook returned")
}
