// Package group implements the Schnorr-like prime-order subgroup that every
// other package in the core operates over: a modulus p, a generator g of
// the order-q subgroup where q = (p-1)/2, and the derivation of further
// independent generators from a vote identifier.
//
// The construction mirrors crypto/src/elgamal/system.rs and prime.rs from
// the original provotum-mixnet pallet (ElGamalParams.q(), Helper::is_generator)
// and the bigint Schnorr-group KeyParameters used by the cjpatton shuffle
// package and Lavode's distributed-elgamal, adapted to idiomatic Go.
package group

import (
	"math/big"

	"github.com/meck93/mixnet/bignum"
	"github.com/meck93/mixnet/errs"
)

// Params holds the public cryptographic parameters of a vote: the modulus
// p, the generator g of the order-q subgroup, and an independent generator
// h with no known discrete log relative to g. q = (p-1)/2 is derived, not
// stored, since it is always recomputable from p.
type Params struct {
	P *big.Int
	G *big.Int
	H *big.Int
}

// Q returns (p-1)/2, the order of the subgroup generated by g.
func (pp *Params) Q() *big.Int {
	q := new(big.Int).Sub(pp.P, big.NewInt(1))
	return q.Div(q, big.NewInt(2))
}

// Validate checks the invariants required of PublicParameters: q must be
// prime, g must generate the order-q subgroup (g != 1, g != q, g^q == 1 mod
// p), and h must be an independent generator distinct from g.
func (pp *Params) Validate() error {
	if pp.P == nil || pp.G == nil || pp.H == nil {
		return errs.ErrParseError
	}
	q := pp.Q()
	if !bignum.IsProbablyPrime(q, bignum.ProductionMillerRabinRounds) {
		return errs.ErrParseError
	}
	if !IsGenerator(pp.P, q, pp.G) {
		return errs.ErrParseError
	}
	if pp.H.Cmp(pp.G) == 0 {
		return errs.ErrParseError
	}
	if pp.H.Sign() <= 0 || pp.H.Cmp(pp.P) >= 0 {
		return errs.ErrParseError
	}
	return nil
}

// IsGenerator reports whether g is a valid generator of the order-q
// subgroup of (Z/pZ)*: g != 1, g != q, and g^q mod p == 1.
func IsGenerator(p, q, g *big.Int) bool {
	one := big.NewInt(1)
	if g.Cmp(one) == 0 {
		return false
	}
	if g.Cmp(q) == 0 {
		return false
	}
	return bignum.ModPow(g, q, p).Cmp(one) == 0
}

// GenerateKeyPair samples x uniformly in [1, q) and returns the pair
// (h = g^x mod p, x). This is the per-sealer key share generation step of
// §4.3: each sealer runs this once and publishes h alongside a knowledge
// proof of x.
func (pp *Params) GenerateKeyPair() (pub *big.Int, priv *big.Int, err error) {
	q := pp.Q()
	x, err := bignum.RandomRange(big.NewInt(1), q)
	if err != nil {
		return nil, nil, err
	}
	h := bignum.ModPow(pp.G, x, pp.P)
	return h, x, nil
}

// CombineShares multiplies a set of sealers' published key shares into the
// vote's joint public key H = ∏ h_i mod p (spec §4.3). The result does not
// depend on the order of shares.
func CombineShares(pp *Params, shares []*big.Int) *big.Int {
	acc := big.NewInt(1)
	for _, h := range shares {
		acc = bignum.ModMul(acc, h, pp.P)
	}
	return acc
}
