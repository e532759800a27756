package bignum

import (
	"crypto/rand"
	"math/big"

	"github.com/meck93/mixnet/errs"
)

// RandomBytes returns n uniformly random bytes read from the host's
// entropy source. crypto/rand.Reader is backed by a CSPRNG seeded from the
// OS; every bigint-mod-p example in the corpus (cjpatton's shuffle package,
// Lavode's distributed-elgamal) samples scalars the same way, so this stays
// on the standard library rather than pulling in a third-party stream
// cipher.
func RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// RandomBiguintBelow returns a uniformly random x in [0, n). It fails if
// n == 0.
func RandomBiguintBelow(n *big.Int) (*big.Int, error) {
	if n == nil || n.Sign() == 0 {
		return nil, errs.ErrRandomnessUpperBoundZero
	}
	return rand.Int(rand.Reader, n)
}

// RandomBiguintsBelow returns k values, each uniformly sampled from (0, n).
// It fails if k == 0 or n == 0.
func RandomBiguintsBelow(n *big.Int, k int) ([]*big.Int, error) {
	if k == 0 {
		return nil, errs.ErrRandomnessUpperBoundZero
	}
	if n == nil || n.Sign() == 0 {
		return nil, errs.ErrRandomnessUpperBoundZero
	}
	nMinusOne := new(big.Int).Sub(n, big.NewInt(1))
	out := make([]*big.Int, k)
	for i := range out {
		// sample in [0, n-1) then shift into (0, n)
		v, err := rand.Int(rand.Reader, nMinusOne)
		if err != nil {
			return nil, err
		}
		out[i] = v.Add(v, big.NewInt(1))
	}
	return out, nil
}

// RandomRange returns a uniformly random x in [lo, hi). It fails if hi == 0
// or lo >= hi.
func RandomRange(lo, hi *big.Int) (*big.Int, error) {
	if hi == nil || hi.Sign() == 0 {
		return nil, errs.ErrRandomRange
	}
	if lo == nil || lo.Cmp(hi) >= 0 {
		return nil, errs.ErrRandomRange
	}
	span := new(big.Int).Sub(hi, lo)
	x, err := rand.Int(rand.Reader, span)
	if err != nil {
		return nil, err
	}
	return x.Add(x, lo), nil
}

// Permutation draws a uniformly random permutation of [0, n) using the
// Fisher-Yates shuffle: start with the identity vector, and at each i in
// [0, n) swap position i with a uniformly random position in [i, n). It
// fails if n == 0.
func Permutation(n int) ([]int, error) {
	if n == 0 {
		return nil, errs.ErrPermutationSizeZero
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := 0; i < n; i++ {
		span := big.NewInt(int64(n - i))
		j, err := rand.Int(rand.Reader, span)
		if err != nil {
			return nil, err
		}
		swapWith := i + int(j.Int64())
		perm[i], perm[swapWith] = perm[swapWith], perm[i]
	}
	return perm, nil
}
