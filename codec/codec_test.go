package codec

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/meck93/mixnet/bignum"
	"github.com/meck93/mixnet/elgamal"
	"github.com/meck93/mixnet/group"
	"github.com/meck93/mixnet/proof"
	"github.com/meck93/mixnet/shuffle"
)

func largeParams() *group.Params {
	p, _ := new(big.Int).SetString("170141183460469231731687303715884105727", 10)
	return &group.Params{P: p, G: big.NewInt(4), H: big.NewInt(9)}
}

func TestEncodeIntZeroIsSingleByte(t *testing.T) {
	c := qt.New(t)
	got := EncodeInt(big.NewInt(0))
	c.Assert(got, qt.DeepEquals, []byte{0, 0, 0, 1, 0x00})
}

func TestIntRoundTrip(t *testing.T) {
	c := qt.New(t)
	for _, v := range []int64{0, 1, 255, 256, 1 << 40} {
		buf := EncodeInt(big.NewInt(v))
		got, rest, err := DecodeInt(buf)
		c.Assert(err, qt.IsNil)
		c.Assert(len(rest), qt.Equals, 0)
		c.Assert(got.Int64(), qt.Equals, v)
	}
}

func TestCiphertextRoundTrip(t *testing.T) {
	c := qt.New(t)
	params := largeParams()
	h, _, err := params.GenerateKeyPair()
	c.Assert(err, qt.IsNil)
	r, err := bignum.RandomRange(big.NewInt(1), params.Q())
	c.Assert(err, qt.IsNil)
	ct := elgamal.Encrypt(params, h, big.NewInt(42), r)

	buf := EncodeCiphertext(ct)
	got, rest, err := DecodeCiphertext(buf)
	c.Assert(err, qt.IsNil)
	c.Assert(len(rest), qt.Equals, 0)
	c.Assert(got.A.Cmp(ct.A), qt.Equals, 0)
	c.Assert(got.B.Cmp(ct.B), qt.Equals, 0)
}

func TestPublicParametersRoundTrip(t *testing.T) {
	c := qt.New(t)
	params := largeParams()
	buf := EncodePublicParameters(params)
	got, rest, err := DecodePublicParameters(buf)
	c.Assert(err, qt.IsNil)
	c.Assert(len(rest), qt.Equals, 0)
	c.Assert(got.P.Cmp(params.P), qt.Equals, 0)
	c.Assert(got.G.Cmp(params.G), qt.Equals, 0)
	c.Assert(got.H.Cmp(params.H), qt.Equals, 0)
}

func TestKeyShareRoundTrip(t *testing.T) {
	c := qt.New(t)
	params := largeParams()
	h, x, err := params.GenerateKeyPair()
	c.Assert(err, qt.IsNil)
	p, err := proof.ProveKeyGeneration(params, h, x, []byte("sealer-b"))
	c.Assert(err, qt.IsNil)

	ks := KeyShare{H: h, Proof: p}
	buf := EncodeKeyShare(ks)
	got, rest, err := DecodeKeyShare(buf)
	c.Assert(err, qt.IsNil)
	c.Assert(len(rest), qt.Equals, 0)
	c.Assert(got.H.Cmp(ks.H), qt.Equals, 0)
	c.Assert(proof.VerifyKeyGeneration(params, got.H, got.Proof, []byte("sealer-b")), qt.IsNil)
}

func TestShuffleProofRoundTripStillVerifies(t *testing.T) {
	c := qt.New(t)
	params := largeParams()
	q := params.Q()
	h, _, err := params.GenerateKeyPair()
	c.Assert(err, qt.IsNil)

	voteID := []byte("vote-1/topic-1")
	var input []elgamal.Ciphertext
	for _, m := range []int64{1, 2, 3} {
		r, err := bignum.RandomRange(big.NewInt(1), q)
		c.Assert(err, qt.IsNil)
		input = append(input, elgamal.Encrypt(params, h, big.NewInt(m), r))
	}

	result, err := shuffle.Run(params, h, voteID, input)
	c.Assert(err, qt.IsNil)

	buf := EncodeShuffleProof(result.Proof)
	got, err := DecodeShuffleProof(buf)
	c.Assert(err, qt.IsNil)

	err = shuffle.Verify(params, h, voteID, input, result.Output, got)
	c.Assert(err, qt.IsNil)
}
