package mixstate_test

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/meck93/mixnet/bignum"
	"github.com/meck93/mixnet/codec"
	"github.com/meck93/mixnet/db"
	"github.com/meck93/mixnet/db/inmemory"
	"github.com/meck93/mixnet/elgamal"
	"github.com/meck93/mixnet/errs"
	"github.com/meck93/mixnet/group"
	"github.com/meck93/mixnet/mixstate"
	"github.com/meck93/mixnet/proof"
)

// safe-prime params: p = 2q+1 with both p and q prime, g and h generators
// of the order-q subgroup (g != h).
func testParams() *group.Params {
	p, _ := new(big.Int).SetString("1206235803744521987", 10)
	return &group.Params{P: p, G: big.NewInt(3), H: big.NewInt(9)}
}

func newStore(t *testing.T, authority string, sealers ...string) *mixstate.Store {
	database, err := inmemory.New(db.Options{})
	qt.Assert(t, err, qt.IsNil)
	return mixstate.New(database, mixstate.NewRoles(authority, sealers))
}

func keyShareFor(t *testing.T, params *group.Params, sealerID string) (codec.KeyShare, *big.Int) {
	h, x, err := params.GenerateKeyPair()
	qt.Assert(t, err, qt.IsNil)
	p, err := proof.ProveKeyGeneration(params, h, x, []byte(sealerID))
	qt.Assert(t, err, qt.IsNil)
	return codec.KeyShare{H: h, Proof: p}, x
}

// TestEndToEndTally runs spec §8 scenario 6: six ballots {1,3,4,1,3,4} are
// cast, shuffled once, and tallied via two sealers' decryption shares,
// yielding {1:2, 3:2, 4:2}; a second combine on the same topic fails with
// TopicHasAlreadyBeenTallied.
func TestEndToEndTally(t *testing.T) {
	c := qt.New(t)
	params := testParams()
	store := newStore(t, "authority", "sealer-b", "sealer-c")
	voteID := []byte("vote-1")

	c.Assert(store.CreateVote("authority", voteID, "election", params, []string{"topic"}), qt.IsNil)

	shareB, xB := keyShareFor(t, params, "sealer-b")
	shareC, xC := keyShareFor(t, params, "sealer-c")
	c.Assert(store.StorePublicKeyShare("sealer-b", voteID, shareB), qt.IsNil)
	c.Assert(store.StorePublicKeyShare("sealer-c", voteID, shareC), qt.IsNil)

	v, err := store.CombinePublicKeyShares("authority", voteID)
	c.Assert(err, qt.IsNil)
	c.Assert(v.Phase, qt.Equals, mixstate.PhaseVoting)

	plaintexts := []int64{1, 3, 4, 1, 3, 4}
	q := params.Q()
	for i, m := range plaintexts {
		voterID := "voter-" + string(rune('a'+i))
		r, err := bignum.RandomBiguintBelow(q)
		c.Assert(err, qt.IsNil)
		ct := elgamal.Encrypt(params, v.JointKey, big.NewInt(m), r)
		c.Assert(store.CastBallot(voterID, voteID, voterID, map[string]elgamal.Ciphertext{"topic": ct}), qt.IsNil)
	}

	c.Assert(store.SetVotePhase("authority", voteID, mixstate.PhaseTallying), qt.IsNil)

	_, err = store.ShuffleAndSubmit("sealer-b", voteID, "topic", 0)
	c.Assert(err, qt.IsNil)

	bucket, bucketID, err := store.Bucket(voteID, "topic", 1)
	c.Assert(err, qt.IsNil)
	c.Assert(bucket, qt.HasLen, len(plaintexts))

	shareSetB, err := proof.ProveDecryptionShare(params, shareB.H, xB, bucket, []byte("sealer-b"), bucketID)
	c.Assert(err, qt.IsNil)
	c.Assert(store.SubmitDecryptedShares("sealer-b", voteID, "topic", shareSetB, 1), qt.IsNil)

	shareSetC, err := proof.ProveDecryptionShare(params, shareC.H, xC, bucket, []byte("sealer-c"), bucketID)
	c.Assert(err, qt.IsNil)
	c.Assert(store.SubmitDecryptedShares("sealer-c", voteID, "topic", shareSetC, 1), qt.IsNil)

	tally, err := store.CombineDecryptedShares("authority", voteID, "topic", 1)
	c.Assert(err, qt.IsNil)
	c.Assert(tally, qt.DeepEquals, map[uint64]uint64{1: 2, 3: 2, 4: 2})

	_, err = store.CombineDecryptedShares("authority", voteID, "topic", 1)
	c.Assert(err, qt.ErrorIs, errs.ErrTopicHasAlreadyBeenTallied)

	c.Assert(store.SetVotePhase("authority", voteID, mixstate.PhaseTallied), qt.IsNil)
	v, err = store.Vote(voteID)
	c.Assert(err, qt.IsNil)
	c.Assert(v.Phase, qt.Equals, mixstate.PhaseTallied)
}
