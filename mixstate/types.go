package mixstate

import (
	"math/big"

	"github.com/meck93/mixnet/group"
	"github.com/meck93/mixnet/proof"
)

// Phase is a vote's position in the lifecycle of spec §4.6.
type Phase string

const (
	PhaseKeyGeneration Phase = "KeyGeneration"
	PhaseVoting        Phase = "Voting"
	PhaseTallying      Phase = "Tallying"
	PhaseTallied       Phase = "Tallied"
)

// voteEnvelope is the non-cryptographic part of a Vote record (spec §3):
// everything except PublicParameters, which is persisted separately in its
// §6 bit-exact encoding. Stored with CBOR per the teacher's artifact
// convention (storage/encode.go).
type voteEnvelope struct {
	Title     string
	Authority string
	Phase     Phase
	Topics    []string
}

// Vote is the caller-facing view of a vote record: its envelope plus the
// frozen public parameters created at genesis.
type Vote struct {
	ID        []byte
	Title     string
	Authority string
	Phase     Phase
	Topics    []string
	Params    *group.Params
	JointKey  *big.Int // nil until combine_public_key_shares has run
}

// decryptionShareEnvelope is the CBOR-persisted form of a sealer's
// submitted DecryptionShare (spec §4.5). Not named among §6's bit-exact
// wire entities, so it uses the same CBOR artifact convention as
// voteEnvelope rather than package codec.
type decryptionShareEnvelope struct {
	Shares []*big.Int
	C      *big.Int
	S      *big.Int
}

func toEnvelope(s proof.DecryptionShare) decryptionShareEnvelope {
	return decryptionShareEnvelope{Shares: s.Shares, C: s.C, S: s.S}
}

func fromEnvelope(e decryptionShareEnvelope) proof.DecryptionShare {
	return proof.DecryptionShare{Shares: e.Shares, C: e.C, S: e.S}
}
