// Package mixstate implements the protocol state machine of spec §4.6: a
// vote's lifecycle through KeyGeneration, Voting, Tallying and Tallied,
// with the role, phase, existence, and uniqueness checks that guard every
// transition. It is a deterministic `(state, action) -> (state', error)`
// function per the design note of §9, persisted to a pluggable
// db.Database.
//
// The key layout below follows the prefixed-key idiom of the teacher
// repo's storage package (see storage/keys.go, storage/storage.go): every
// record lives under a documented, vote-scoped prefix, and every public
// method takes the store's lock and runs its whole transition under it;
// the *Unsafe-suffixed helpers it calls assume the lock is already held.
//
// Key prefixes (all vote-scoped, vote id is opaque per §6):
//
//	v/<voteID>                                -> Vote envelope (cbor)
//	v/<voteID>/pp                             -> PublicParameters (codec, bit-exact)
//	v/<voteID>/pk                             -> joint public key (codec int, bit-exact)
//	v/<voteID>/share/<sealerID>                -> KeyShare (codec, bit-exact)
//	v/<voteID>/ballot/<topic>/<voterID>         -> Ciphertext (codec, bit-exact)
//	v/<voteID>/bucket/<topic>/<round>           -> ciphertext vector (codec elements)
//	v/<voteID>/shuffleproof/<topic>/<round>     -> ShuffleProof (codec, bit-exact)
//	v/<voteID>/decshare/<topic>/<sealerID>      -> DecryptionShare (cbor)
//	v/<voteID>/tally/<topic>                   -> plaintext->count map (cbor)
package mixstate

import "fmt"

func voteKey(voteID []byte) []byte {
	return append([]byte("v/"), voteID...)
}

func paramsKey(voteID []byte) []byte {
	return append(voteKey(voteID), []byte("/pp")...)
}

func jointKeyKey(voteID []byte) []byte {
	return append(voteKey(voteID), []byte("/pk")...)
}

func shareKey(voteID []byte, sealerID string) []byte {
	return []byte(fmt.Sprintf("v/%s/share/%s", voteID, sealerID))
}

func sharePrefix(voteID []byte) []byte {
	return []byte(fmt.Sprintf("v/%s/share/", voteID))
}

func ballotKey(voteID []byte, topic, voterID string) []byte {
	return []byte(fmt.Sprintf("v/%s/ballot/%s/%s", voteID, topic, voterID))
}

func bucketKey(voteID []byte, topic string, round int) []byte {
	return []byte(fmt.Sprintf("v/%s/bucket/%s/%06d", voteID, topic, round))
}

func shuffleProofKey(voteID []byte, topic string, round int) []byte {
	return []byte(fmt.Sprintf("v/%s/shuffleproof/%s/%06d", voteID, topic, round))
}

func decShareKey(voteID []byte, topic, sealerID string) []byte {
	return []byte(fmt.Sprintf("v/%s/decshare/%s/%s", voteID, topic, sealerID))
}

func decSharePrefix(voteID []byte, topic string) []byte {
	return []byte(fmt.Sprintf("v/%s/decshare/%s/", voteID, topic))
}

func tallyKey(voteID []byte, topic string) []byte {
	return []byte(fmt.Sprintf("v/%s/tally/%s", voteID, topic))
}
