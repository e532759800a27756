// Package shuffle performs the re-encryption mix of §4.4: sampling a
// uniform permutation and fresh re-encryption randomness, producing the
// shuffled ciphertext vector, and generating the accompanying
// zero-knowledge shuffle proof via package proof.
package shuffle

import (
	"math/big"

	"github.com/meck93/mixnet/bignum"
	"github.com/meck93/mixnet/elgamal"
	"github.com/meck93/mixnet/errs"
	"github.com/meck93/mixnet/group"
	"github.com/meck93/mixnet/proof"
)

// Result bundles the shuffled ciphertext vector with the proof that it is a
// valid re-encryption permutation of the input vector.
type Result struct {
	Output []elgamal.Ciphertext
	Proof  proof.ShuffleProof
}

// Run samples π and the re-encryption randomizers, builds the output
// vector ê_i = e_{π^{-1}(i)} ⊕ Enc(0, r_i), and proves the shuffle. voteID
// binds the independent generators and the proof's transcript to this
// specific vote so a proof cannot be replayed against a different vote's
// bucket.
func Run(params *group.Params, jointPK *big.Int, voteID []byte, input []elgamal.Ciphertext) (Result, error) {
	n := len(input)
	if n == 0 {
		return Result{}, errs.ErrShuffleCiphersSizeZero
	}
	q := params.Q()

	// pos[j] = π^{-1}(j): the source input index routed to output position j.
	pos, err := bignum.Permutation(n)
	if err != nil {
		return Result{}, err
	}

	r, err := bignum.RandomBiguintsBelow(q, n)
	if err != nil {
		return Result{}, err
	}
	rHat, err := bignum.RandomBiguintsBelow(q, n)
	if err != nil {
		return Result{}, err
	}

	output := make([]elgamal.Ciphertext, n)
	for j := 0; j < n; j++ {
		output[j] = elgamal.ReEncrypt(params, jointPK, input[pos[j]], r[j])
	}

	witness := proof.ShuffleWitness{Pos: pos, R: r, RHat: rHat}
	shuffleProof, err := proof.ProveShuffle(params, jointPK, voteID, input, output, witness)
	if err != nil {
		return Result{}, err
	}

	return Result{Output: output, Proof: shuffleProof}, nil
}

// Verify checks that output, together with its proof, is a valid
// re-encryption shuffle of input under jointPK and voteID.
func Verify(params *group.Params, jointPK *big.Int, voteID []byte, input, output []elgamal.Ciphertext, shuffleProof proof.ShuffleProof) error {
	return proof.VerifyShuffle(params, jointPK, voteID, input, output, shuffleProof)
}
