package metadb_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/meck93/mixnet/db/metadb"
)

func TestWriteTxCommitAndConflict(t *testing.T) {
	c := qt.New(t)
	database := metadb.NewTest(t)

	tx1 := database.WriteTx()
	c.Assert(tx1.Set([]byte("vote/1/phase"), []byte("KeyGeneration")), qt.IsNil)
	c.Assert(tx1.Commit(), qt.IsNil)

	got, err := database.Get([]byte("vote/1/phase"))
	c.Assert(err, qt.IsNil)
	c.Assert(string(got), qt.Equals, "KeyGeneration")

	txA := database.WriteTx()
	_, err = txA.Get([]byte("vote/1/phase"))
	c.Assert(err, qt.IsNil)

	txB := database.WriteTx()
	c.Assert(txB.Set([]byte("vote/1/phase"), []byte("Voting")), qt.IsNil)
	c.Assert(txB.Commit(), qt.IsNil)

	c.Assert(txA.Set([]byte("vote/1/phase"), []byte("Tallying")), qt.IsNil)
	err = txA.Commit()
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestPrefixIterate(t *testing.T) {
	c := qt.New(t)
	database := metadb.NewTest(t)

	tx := database.WriteTx()
	c.Assert(tx.Set([]byte("vote/1/bucket/topic-a/0"), []byte("a")), qt.IsNil)
	c.Assert(tx.Set([]byte("vote/1/bucket/topic-b/0"), []byte("b")), qt.IsNil)
	c.Assert(tx.Set([]byte("vote/2/bucket/topic-a/0"), []byte("c")), qt.IsNil)
	c.Assert(tx.Commit(), qt.IsNil)

	var keys []string
	err := database.Iterate([]byte("vote/1/bucket/"), func(k, v []byte) bool {
		keys = append(keys, string(k))
		return true
	})
	c.Assert(err, qt.IsNil)
	c.Assert(keys, qt.HasLen, 2)
}
