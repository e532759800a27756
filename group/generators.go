package group

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"
)

// IndependentGenerators derives n generators h_1..h_n of the subgroup from
// voteID by hashing (voteID ‖ i) and mapping the digest into the subgroup
// via g^{H(·) mod q}, per §4.4. None of the resulting generators has a
// discoverable discrete log relative to g or to one another, since the
// mapping is one-way.
func (pp *Params) IndependentGenerators(voteID []byte, n int) []*big.Int {
	q := pp.Q()
	out := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		var idx [4]byte
		binary.BigEndian.PutUint32(idx[:], uint32(i))
		sum := sha256.Sum256(append(append([]byte{}, voteID...), idx[:]...))
		exp := new(big.Int).SetBytes(sum[:])
		exp.Mod(exp, q)
		out[i] = new(big.Int).Exp(pp.G, exp, pp.P)
	}
	return out
}
