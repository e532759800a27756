package bignum

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestInvMod(t *testing.T) {
	c := qt.New(t)

	inv, err := InvMod(big.NewInt(2), big.NewInt(7))
	c.Assert(err, qt.IsNil)
	c.Assert(inv.Int64(), qt.Equals, int64(4))

	inv, err = InvMod(big.NewInt(17), big.NewInt(23))
	c.Assert(err, qt.IsNil)
	c.Assert(inv.Int64(), qt.Equals, int64(19))
}

func TestInvModRoundTrip(t *testing.T) {
	c := qt.New(t)
	m := big.NewInt(10007)
	for a := int64(1); a < 50; a++ {
		av := big.NewInt(a)
		inv, err := InvMod(av, m)
		c.Assert(err, qt.IsNil)
		got := ModMul(av, inv, m)
		c.Assert(got.Int64(), qt.Equals, int64(1))
	}
}

func TestInvModRejectsUnreduced(t *testing.T) {
	c := qt.New(t)
	_, err := InvMod(big.NewInt(30), big.NewInt(7))
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestModSubNeverNegative(t *testing.T) {
	c := qt.New(t)
	m := big.NewInt(11)
	got := ModSub(big.NewInt(2), big.NewInt(9), m)
	c.Assert(got.Sign() >= 0, qt.IsTrue)
	c.Assert(got.Int64(), qt.Equals, int64(4))
}

func TestModPow(t *testing.T) {
	c := qt.New(t)
	got := ModPow(big.NewInt(2), big.NewInt(10), big.NewInt(1000))
	c.Assert(got.Int64(), qt.Equals, int64(24))
}

func TestRandomBiguintBelowZeroFails(t *testing.T) {
	c := qt.New(t)
	_, err := RandomBiguintBelow(big.NewInt(0))
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestRandomRangeInvariants(t *testing.T) {
	c := qt.New(t)

	_, err := RandomRange(big.NewInt(0), big.NewInt(0))
	c.Assert(err, qt.Not(qt.IsNil))

	_, err = RandomRange(big.NewInt(5), big.NewInt(3))
	c.Assert(err, qt.Not(qt.IsNil))

	for i := 0; i < 50; i++ {
		x, err := RandomRange(big.NewInt(3), big.NewInt(8))
		c.Assert(err, qt.IsNil)
		c.Assert(x.Cmp(big.NewInt(3)) >= 0, qt.IsTrue)
		c.Assert(x.Cmp(big.NewInt(8)) < 0, qt.IsTrue)
	}
}

func TestPermutationCoversEveryValueOnce(t *testing.T) {
	c := qt.New(t)

	_, err := Permutation(0)
	c.Assert(err, qt.Not(qt.IsNil))

	const n = 50
	perm, err := Permutation(n)
	c.Assert(err, qt.IsNil)
	c.Assert(len(perm), qt.Equals, n)

	seen := make([]bool, n)
	for _, v := range perm {
		c.Assert(seen[v], qt.IsFalse)
		seen[v] = true
	}
}

func TestIsProbablyPrime(t *testing.T) {
	c := qt.New(t)
	c.Assert(IsProbablyPrime(big.NewInt(23), ProductionMillerRabinRounds), qt.IsTrue)
	c.Assert(IsProbablyPrime(big.NewInt(24), ProductionMillerRabinRounds), qt.IsFalse)
}
