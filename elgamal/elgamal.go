// Package elgamal implements exponential ElGamal over the Schnorr-like
// subgroup defined by package group: encryption, decryption by
// brute-force discrete log, additive homomorphism, re-encryption, and the
// partial-decryption/combination steps used by the distributed tallying
// protocol.
//
// The encrypt/decrypt shape is adapted from the teacher's elliptic-curve
// ElGamal (crypto/elgamal/elgamal.go: Encrypt/EncryptWithK/Decrypt) onto
// the bigint multiplicative-group construction used throughout the
// original provotum-mixnet pallet and demonstrated in Go by the cjpatton
// shuffle package and Lavode's distributed-elgamal (a = g^r, b = H^r * g^m,
// plaintext recovered by brute-force/baby-step discrete log).
package elgamal

import (
	"math/big"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/meck93/mixnet/bignum"
	"github.com/meck93/mixnet/errs"
	"github.com/meck93/mixnet/group"
)

// Ciphertext is an exponential ElGamal ciphertext (a, b) = (g^r, H^r * g^m)
// mod p.
type Ciphertext struct {
	A *big.Int
	B *big.Int
}

// Encrypt produces Enc(m, r) under the joint public key jointPK using the
// given parameters and randomness r. r must already be reduced into
// [0, q).
func Encrypt(params *group.Params, jointPK *big.Int, m, r *big.Int) Ciphertext {
	a := bignum.ModPow(params.G, r, params.P)
	hr := bignum.ModPow(jointPK, r, params.P)
	gm := bignum.ModPow(params.G, m, params.P)
	b := bignum.ModMul(hr, gm, params.P)
	return Ciphertext{A: a, B: b}
}

// Add computes the homomorphic sum of two ciphertexts: component-wise
// modular multiplication, which encrypts m1+m2 under the combined
// randomness r1+r2.
func Add(c1, c2 Ciphertext, p *big.Int) Ciphertext {
	return Ciphertext{
		A: bignum.ModMul(c1.A, c2.A, p),
		B: bignum.ModMul(c1.B, c2.B, p),
	}
}

// ReEncrypt returns a fresh encryption of the same plaintext as c, using
// re-randomization r: Enc(m,r_orig) ⊕ Enc(0,r) is identically distributed
// to Enc(m, r_orig+r).
func ReEncrypt(params *group.Params, jointPK *big.Int, c Ciphertext, r *big.Int) Ciphertext {
	zero := Encrypt(params, jointPK, big.NewInt(0), r)
	return Add(c, zero, params.P)
}

// PartialDecrypt computes sealer i's partial decryption d_i = a^{x_i} mod p
// of a single ciphertext's a-component.
func PartialDecrypt(params *group.Params, a, xi *big.Int) *big.Int {
	return bignum.ModPow(a, xi, params.P)
}

// CombinePartialDecryptions multiplies a set of sealers' partial
// decryptions of the same ciphertext component, yielding a^X mod p where X
// is the sum of the contributing sealers' private shares.
func CombinePartialDecryptions(params *group.Params, shares []*big.Int) *big.Int {
	acc := big.NewInt(1)
	for _, d := range shares {
		acc = bignum.ModMul(acc, d, params.P)
	}
	return acc
}

// RecoverMessageBase recovers g^m = b * (combinedPartial)^{-1} mod p, given
// the ciphertext's b-component and the combined partial decryptions a^X.
func RecoverMessageBase(params *group.Params, b, combinedPartial *big.Int) (*big.Int, error) {
	inv, err := bignum.InvMod(combinedPartial, params.P)
	if err != nil {
		return nil, errs.ErrDivMod
	}
	return bignum.ModMul(b, inv, params.P), nil
}

// DecryptionCacheSize bounds the number of (modulus, generator, gm) entries
// memoized by the package-level decode cache, one per distinct decoded
// value under one parameter set. Eviction only degrades performance, never
// correctness.
const DecryptionCacheSize = 4096

var decodeCache, _ = lru.New[string, uint64](DecryptionCacheSize)

// Decode recovers the small integer m such that g^m == gm mod p, by
// incrementing a counter from 0 until a match is found or maxSearch is
// exceeded. This is only safe when the plaintext space is small (vote
// counts, small voting options), as mandated by the brute-force decoding
// design note: callers must bound maxSearch by the number of ballots in the
// topic being tallied.
func Decode(params *group.Params, gm *big.Int, maxSearch uint64) (uint64, error) {
	cacheKey := params.P.String() + "|" + params.G.String() + "|" + gm.String()
	if cached, ok := decodeCache.Get(cacheKey); ok && cached <= maxSearch {
		return cached, nil
	}

	acc := big.NewInt(1) // g^0
	for m := uint64(0); m <= maxSearch; m++ {
		if acc.Cmp(gm) == 0 {
			decodeCache.Add(cacheKey, m)
			return m, nil
		}
		acc = bignum.ModMul(acc, params.G, params.P)
	}
	return 0, errs.ErrDecodeNotFound
}

// Decrypt recovers the plaintext integer m encrypted in c under the single
// private key x (used for test scenarios and the small end-to-end decode
// cases of the spec; the distributed protocol instead calls PartialDecrypt
// and CombinePartialDecryptions per sealer).
func Decrypt(params *group.Params, c Ciphertext, x *big.Int, maxSearch uint64) (uint64, error) {
	ax := bignum.ModPow(c.A, x, params.P)
	gm, err := RecoverMessageBase(params, c.B, ax)
	if err != nil {
		return 0, err
	}
	return Decode(params, gm, maxSearch)
}
