// Package bignum provides the modular-arithmetic and randomness primitives
// the rest of the mixnet core is built from: modular multiplication,
// division, addition, subtraction, inversion and exponentiation over
// arbitrary-precision integers, plus Miller-Rabin primality testing and the
// secure random samplers used by key generation, encryption and the shuffle.
//
// Every operation here is first-order over *big.Int values; nothing in this
// package allocates a proof or refers to vote state. This mirrors how the
// example ElGamal implementations (cjpatton's shuffle package, Lavode's
// distributed-elgamal) keep their modular arithmetic free of protocol
// concerns.
package bignum

import (
	"math/big"

	"github.com/meck93/mixnet/errs"
)

// ModAdd returns (a + b) mod m.
func ModAdd(a, b, m *big.Int) (*big.Int, error) {
	if m.Sign() == 0 {
		panic("bignum: attempt to compute with zero modulus")
	}
	r := new(big.Int).Add(a, b)
	r.Mod(r, m)
	return r, nil
}

// ModSub returns (a - b) mod m, computed as (a + m - b) mod m so the result
// is never negative regardless of the relative size of a and b.
func ModSub(a, b, m *big.Int) *big.Int {
	if m.Sign() == 0 {
		panic("bignum: attempt to compute with zero modulus")
	}
	r := new(big.Int).Add(a, m)
	r.Sub(r, b)
	r.Mod(r, m)
	return r
}

// ModMul returns (a * b) mod m.
func ModMul(a, b, m *big.Int) *big.Int {
	if m.Sign() == 0 {
		panic("bignum: attempt to compute with zero modulus")
	}
	r := new(big.Int).Mul(a, b)
	r.Mod(r, m)
	return r
}

// ModPow returns (base^exp) mod m. Negative exponents are rejected by the
// caller contract; this wraps big.Int.Exp directly.
func ModPow(base, exp, m *big.Int) *big.Int {
	if m.Sign() == 0 {
		panic("bignum: attempt to compute with zero modulus")
	}
	return new(big.Int).Exp(base, exp, m)
}

// InvMod returns the modular multiplicative inverse of value mod m using the
// extended Euclidean algorithm. It fails iff gcd(value, m) != 1. Callers
// must reduce value into [0, m) first; InvMod does not reduce for them.
func InvMod(value, m *big.Int) (*big.Int, error) {
	if m.Sign() == 0 {
		panic("bignum: attempt to compute with zero modulus")
	}
	if value.Sign() < 0 || value.Cmp(m) >= 0 {
		return nil, errs.ErrInvMod
	}
	g := new(big.Int)
	x := new(big.Int)
	g.GCD(x, nil, value, m)
	if g.Cmp(big.NewInt(1)) != 0 {
		return nil, errs.ErrInvMod
	}
	x.Mod(x, m)
	return x, nil
}

// ModDiv returns (a / b) mod m, i.e. a * invmod(b, m) mod m. Callers must
// reduce both operands into [0, m) first.
func ModDiv(a, b, m *big.Int) (*big.Int, error) {
	bInv, err := InvMod(b, m)
	if err != nil {
		return nil, errs.ErrDivMod
	}
	return ModMul(a, bInv, m), nil
}
