package proof

import (
	"math/big"
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

func TestKeyGenerationProofRoundTrip(t *testing.T) {
	c := qt.New(t)
	params := largeParams()
	h, x, err := params.GenerateKeyPair()
	c.Assert(err, qt.IsNil)

	sealerID := []byte("sealer-b")
	p, err := ProveKeyGeneration(params, h, x, sealerID)
	c.Assert(err, qt.IsNil)
	c.Assert(VerifyKeyGeneration(params, h, p, sealerID), qt.IsNil)
}

func TestKeyGenerationProofRejectsWrongSealer(t *testing.T) {
	c := qt.New(t)
	params := largeParams()
	h, x, err := params.GenerateKeyPair()
	c.Assert(err, qt.IsNil)

	p, err := ProveKeyGeneration(params, h, x, []byte("sealer-b"))
	c.Assert(err, qt.IsNil)
	c.Assert(VerifyKeyGeneration(params, h, p, []byte("sealer-c")), qt.Not(qt.IsNil))
}

func TestKeyGenerationProofRejectsWrongKey(t *testing.T) {
	c := qt.New(t)
	params := largeParams()
	h, x, err := params.GenerateKeyPair()
	c.Assert(err, qt.IsNil)
	other, _, err := params.GenerateKeyPair()
	c.Assert(err, qt.IsNil)

	p, err := ProveKeyGeneration(params, h, x, []byte("sealer-b"))
	c.Assert(err, qt.IsNil)
	c.Assert(VerifyKeyGeneration(params, other, p, []byte("sealer-b")), qt.Not(qt.IsNil))
}

func TestDecryptionShareProofRoundTrip(t *testing.T) {
	c := qt.New(t)
	params := largeParams()
	q := params.Q()
	h, x, err := params.GenerateKeyPair()
	c.Assert(err, qt.IsNil)

	var cs []elgamal.Ciphertext
	for _, m := range []int64{1, 3, 4} {
		r, err := bignum.RandomRange(big.NewInt(1), q)
		c.Assert(err, qt.IsNil)
		cs = append(cs, elgamal.Encrypt(params, h, big.NewInt(m), r))
	}

	share, err := ProveDecryptionShare(params, h, x, cs, []byte("sealer-b"), []byte("topic-1/round-2"))
	c.Assert(err, qt.IsNil)
	err = VerifyDecryptionShare(params, h, cs, share, []byte("sealer-b"), []byte("topic-1/round-2"))
	c.Assert(err, qt.IsNil)

	for j, m := range []int64{1, 3, 4} {
		gm, err := elgamal.RecoverMessageBase(params, cs[j].B, share.Shares[j])
		c.Assert(err, qt.IsNil)
		decoded, err := elgamal.Decode(params, gm, 10)
		c.Assert(err, qt.IsNil)
		c.Assert(decoded, qt.Equals, uint64(m))
	}
}

func TestDecryptionShareProofRejectsWrongBucket(t *testing.T) {
	c := qt.New(t)
	params := largeParams()
	q := params.Q()
	h, x, err := params.GenerateKeyPair()
	c.Assert(err, qt.IsNil)

	r, err := bignum.RandomRange(big.NewInt(1), q)
	c.Assert(err, qt.IsNil)
	cs := []elgamal.Ciphertext{elgamal.Encrypt(params, h, big.NewInt(2), r)}

	share, err := ProveDecryptionShare(params, h, x, cs, []byte("sealer-b"), []byte("round-2"))
	c.Assert(err, qt.IsNil)
	err = VerifyDecryptionShare(params, h, cs, share, []byte("sealer-b"), []byte("round-3"))
	c.Assert(err, qt.Not(qt.IsNil))
}
