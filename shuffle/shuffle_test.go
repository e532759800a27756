package shuffle

import (
	"math/big"
	"sort"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/meck93/mixnet/bignum"
	"github.com/meck93/mixnet/elgamal"
	"github.com/meck93/mixnet/group"
)

func largeParams() *group.Params {
	p, _ := new(big.Int).SetString("170141183460469231731687303715884105727", 10)
	return &group.Params{P: p, G: big.NewInt(4), H: big.NewInt(9)}
}

// TestShufflePreservesMultiset is the spec's concrete scenario 4: encrypt
// {5, 10, 15} under a freshly combined joint key, shuffle, decrypt every
// output, and check the multiset of plaintexts is preserved.
func TestShufflePreservesMultiset(t *testing.T) {
	c := qt.New(t)
	params := largeParams()
	q := params.Q()

	hB, xB, err := params.GenerateKeyPair()
	c.Assert(err, qt.IsNil)
	hC, xC, err := params.GenerateKeyPair()
	c.Assert(err, qt.IsNil)
	joint := bignum.ModMul(hB, hC, params.P)

	voteID := []byte("vote-1/topic-1")
	var input []elgamal.Ciphertext
	for _, m := range []int64{5, 10, 15} {
		r, err := bignum.RandomRange(big.NewInt(1), q)
		c.Assert(err, qt.IsNil)
		input = append(input, elgamal.Encrypt(params, joint, big.NewInt(m), r))
	}

	result, err := Run(params, joint, voteID, input)
	c.Assert(err, qt.IsNil)
	c.Assert(Verify(params, joint, voteID, input, result.Output, result.Proof), qt.IsNil)

	var decoded []int
	for _, ct := range result.Output {
		dB := elgamal.PartialDecrypt(params, ct.A, xB)
		dC := elgamal.PartialDecrypt(params, ct.A, xC)
		combined := elgamal.CombinePartialDecryptions(params, []*big.Int{dB, dC})
		gm, err := elgamal.RecoverMessageBase(params, ct.B, combined)
		c.Assert(err, qt.IsNil)
		m, err := elgamal.Decode(params, gm, 20)
		c.Assert(err, qt.IsNil)
		decoded = append(decoded, int(m))
	}

	sort.Ints(decoded)
	c.Assert(decoded, qt.DeepEquals, []int{5, 10, 15})
}

func TestShuffleProofRejectsTamperedOutput(t *testing.T) {
	c := qt.New(t)
	params := largeParams()
	q := params.Q()
	h, _, err := params.GenerateKeyPair()
	c.Assert(err, qt.IsNil)

	voteID := []byte("vote-1/topic-1")
	var input []elgamal.Ciphertext
	for _, m := range []int64{1, 2} {
		r, err := bignum.RandomRange(big.NewInt(1), q)
		c.Assert(err, qt.IsNil)
		input = append(input, elgamal.Encrypt(params, h, big.NewInt(m), r))
	}

	result, err := Run(params, h, voteID, input)
	c.Assert(err, qt.IsNil)

	tampered := make([]elgamal.Ciphertext, len(result.Output))
	copy(tampered, result.Output)
	tampered[0] = elgamal.Ciphertext{A: bignum.ModMul(tampered[0].A, params.G, params.P), B: tampered[0].B}

	err = Verify(params, h, voteID, input, tampered, result.Proof)
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestShuffleProofRejectsWrongVoteID(t *testing.T) {
	c := qt.New(t)
	params := largeParams()
	q := params.Q()
	h, _, err := params.GenerateKeyPair()
	c.Assert(err, qt.IsNil)

	var input []elgamal.Ciphertext
	for _, m := range []int64{1, 2, 3} {
		r, err := bignum.RandomRange(big.NewInt(1), q)
		c.Assert(err, qt.IsNil)
		input = append(input, elgamal.Encrypt(params, h, big.NewInt(m), r))
	}

	result, err := Run(params, h, []byte("vote-1/topic-1"), input)
	c.Assert(err, qt.IsNil)

	err = Verify(params, h, []byte("vote-1/topic-2"), input, result.Output, result.Proof)
	c.Assert(err, qt.Not(qt.IsNil))
}
