package mixstate

import (
	"math/big"
	"slices"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/meck93/mixnet/codec"
	"github.com/meck93/mixnet/db"
	"github.com/meck93/mixnet/elgamal"
	"github.com/meck93/mixnet/errs"
	"github.com/meck93/mixnet/group"
	"github.com/meck93/mixnet/log"
	"github.com/meck93/mixnet/proof"
	"github.com/meck93/mixnet/shuffle"
)

// Roles fixes the VotingAuthority and Sealer memberships for a Store, per
// spec §4.6: "memberships are configured at genesis and immutable from the
// state machine's point of view".
type Roles struct {
	Authority string
	Sealers   map[string]struct{}
}

// NewRoles builds a Roles value from an authority identifier and a list of
// sealer identifiers.
func NewRoles(authority string, sealers []string) Roles {
	set := make(map[string]struct{}, len(sealers))
	for _, s := range sealers {
		set[s] = struct{}{}
	}
	return Roles{Authority: authority, Sealers: set}
}

func (r Roles) isAuthority(caller string) bool { return caller == r.Authority }
func (r Roles) isSealer(caller string) bool    { _, ok := r.Sealers[caller]; return ok }

// Store persists §4.6's vote lifecycle to a db.Database. A single
// sync.Mutex (globalLock in the teacher's storage.Storage) serializes
// transitions, matching the single-threaded-per-transition execution model
// of spec §5; each transition commits exactly one db.WriteTx, atomically.
type Store struct {
	database db.Database
	mu       sync.Mutex
	roles    Roles
}

// New returns a Store backed by database, enforcing the given role
// memberships on every transition.
func New(database db.Database, roles Roles) *Store {
	return &Store{database: database, roles: roles}
}

func cborEncode(v any) ([]byte, error) {
	opts := cbor.CoreDetEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		return nil, err
	}
	return mode.Marshal(v)
}

func setCBOR(tx db.WriteTx, key []byte, v any) error {
	b, err := cborEncode(v)
	if err != nil {
		return err
	}
	return tx.Set(key, b)
}

func getCBOR(tx db.WriteTx, key []byte, out any) (bool, error) {
	b, err := tx.Get(key)
	if err != nil {
		if err == db.ErrKeyNotFound {
			return false, nil
		}
		return false, err
	}
	if err := cbor.Unmarshal(b, out); err != nil {
		return false, err
	}
	return true, nil
}

func hasTopic(topics []string, topic string) bool {
	return slices.Contains(topics, topic)
}

// loadVoteUnsafe reads a vote's envelope and frozen parameters. Returns
// errs.ErrVoteDoesNotExist if no vote with this id was ever created.
func loadVoteUnsafe(tx db.WriteTx, voteID []byte) (*Vote, error) {
	var env voteEnvelope
	ok, err := getCBOR(tx, voteKey(voteID), &env)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.ErrVoteDoesNotExist
	}

	ppBytes, err := tx.Get(paramsKey(voteID))
	if err != nil {
		return nil, errs.ErrVoteDoesNotExist
	}
	params, _, err := codec.DecodePublicParameters(ppBytes)
	if err != nil {
		return nil, errs.ErrParseError
	}

	v := &Vote{
		ID:        voteID,
		Title:     env.Title,
		Authority: env.Authority,
		Phase:     env.Phase,
		Topics:    env.Topics,
		Params:    params,
	}

	if jk, err := tx.Get(jointKeyKey(voteID)); err == nil {
		jointKey, _, err := codec.DecodeInt(jk)
		if err != nil {
			return nil, errs.ErrParseError
		}
		v.JointKey = jointKey
	} else if err != db.ErrKeyNotFound {
		return nil, err
	}

	return v, nil
}

func storeEnvelopeUnsafe(tx db.WriteTx, voteID []byte, v *Vote) error {
	env := voteEnvelope{Title: v.Title, Authority: v.Authority, Phase: v.Phase, Topics: v.Topics}
	return setCBOR(tx, voteKey(voteID), env)
}

// CreateVote allocates a new Vote in phase KeyGeneration, per spec §4.6's
// create_vote. Only the configured VotingAuthority may call it.
func (s *Store) CreateVote(caller string, voteID []byte, title string, params *group.Params, topics []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.roles.isAuthority(caller) {
		log.Warnw("create_vote rejected", "vote_id", string(voteID), "caller", caller, "reason", errs.ErrNotVotingAuthority)
		return errs.ErrNotVotingAuthority
	}
	if err := params.Validate(); err != nil {
		log.Warnw("create_vote rejected", "vote_id", string(voteID), "reason", err)
		return err
	}

	tx := s.database.WriteTx()
	defer tx.Discard()

	if _, err := tx.Get(voteKey(voteID)); err == nil {
		log.Warnw("create_vote rejected", "vote_id", string(voteID), "reason", errs.ErrParseError)
		return errs.ErrParseError // vote id already in use
	}

	v := &Vote{ID: voteID, Title: title, Authority: caller, Phase: PhaseKeyGeneration, Topics: topics, Params: params}
	if err := storeEnvelopeUnsafe(tx, voteID, v); err != nil {
		log.Warnw("create_vote rejected", "vote_id", string(voteID), "reason", err)
		return err
	}
	if err := tx.Set(paramsKey(voteID), codec.EncodePublicParameters(params)); err != nil {
		log.Warnw("create_vote rejected", "vote_id", string(voteID), "reason", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		log.Warnw("create_vote rejected", "vote_id", string(voteID), "reason", err)
		return err
	}
	log.Debugw("vote created", "vote_id", string(voteID), "authority", caller)
	return nil
}

// Vote returns the current state of a vote record.
func (s *Store) Vote(voteID []byte) (*Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.database.WriteTx()
	defer tx.Discard()
	return loadVoteUnsafe(tx, voteID)
}

// Bucket returns the ciphertext vector at (topic, round) together with the
// identifier a sealer must bind into its decryption-share proof transcript
// for that bucket (the same identifier SubmitDecryptedShares verifies
// against). Any authenticated caller may read a bucket; a sealer calls
// this off-chain to compute the partial decryption it later submits.
func (s *Store) Bucket(voteID []byte, topic string, round int) ([]elgamal.Ciphertext, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.database.WriteTx()
	defer tx.Discard()

	raw, err := tx.Get(bucketKey(voteID, topic, round))
	if err != nil {
		return nil, nil, errs.ErrShuffleCiphersSizeZero
	}
	cts, err := decodeCiphertexts(raw)
	if err != nil {
		return nil, nil, errs.ErrParseError
	}
	return cts, bucketKey(voteID, topic, round), nil
}

// StorePublicKeyShare verifies and records a sealer's key-generation proof,
// per spec §4.3/§4.6's store_public_key_share. Rejects a second share from
// the same sealer for the same vote (the Open Question of §9, resolved as
// reject, not replace).
func (s *Store) StorePublicKeyShare(caller string, voteID []byte, share codec.KeyShare) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.roles.isSealer(caller) {
		log.Warnw("store_public_key_share rejected", "vote_id", string(voteID), "caller", caller, "reason", errs.ErrNotASealer)
		return errs.ErrNotASealer
	}

	tx := s.database.WriteTx()
	defer tx.Discard()

	v, err := loadVoteUnsafe(tx, voteID)
	if err != nil {
		log.Warnw("store_public_key_share rejected", "vote_id", string(voteID), "reason", err)
		return err
	}
	if v.Phase != PhaseKeyGeneration {
		log.Warnw("store_public_key_share rejected", "vote_id", string(voteID), "reason", errs.ErrWrongVotePhase)
		return errs.ErrWrongVotePhase
	}

	key := shareKey(voteID, caller)
	if _, err := tx.Get(key); err == nil {
		log.Warnw("store_public_key_share rejected", "vote_id", string(voteID), "sealer", caller, "reason", errs.ErrPublicKeyShareAlreadyExists)
		return errs.ErrPublicKeyShareAlreadyExists
	} else if err != db.ErrKeyNotFound {
		log.Warnw("store_public_key_share rejected", "vote_id", string(voteID), "reason", err)
		return err
	}

	if err := proof.VerifyKeyGeneration(v.Params, share.H, share.Proof, []byte(caller)); err != nil {
		log.Warnw("store_public_key_share rejected", "vote_id", string(voteID), "sealer", caller, "reason", errs.ErrPublicKeyShareProof)
		return errs.ErrPublicKeyShareProof
	}

	if err := tx.Set(key, codec.EncodeKeyShare(share)); err != nil {
		log.Warnw("store_public_key_share rejected", "vote_id", string(voteID), "reason", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		log.Warnw("store_public_key_share rejected", "vote_id", string(voteID), "reason", err)
		return err
	}
	log.Debugw("public key share stored", "vote_id", string(voteID), "sealer", caller)
	return nil
}

// CombinePublicKeyShares multiplies every registered key share into the
// vote's joint public key and advances the vote to Voting, per spec §4.3's
// combine and §4.6's combine_public_key_shares. Requires at least two
// distinct shares.
func (s *Store) CombinePublicKeyShares(caller string, voteID []byte) (*Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.roles.isAuthority(caller) {
		log.Warnw("combine_public_key_shares rejected", "vote_id", string(voteID), "caller", caller, "reason", errs.ErrNotVotingAuthority)
		return nil, errs.ErrNotVotingAuthority
	}

	tx := s.database.WriteTx()
	defer tx.Discard()

	v, err := loadVoteUnsafe(tx, voteID)
	if err != nil {
		log.Warnw("combine_public_key_shares rejected", "vote_id", string(voteID), "reason", err)
		return nil, err
	}
	if v.Phase != PhaseKeyGeneration {
		log.Warnw("combine_public_key_shares rejected", "vote_id", string(voteID), "reason", errs.ErrWrongVotePhase)
		return nil, errs.ErrWrongVotePhase
	}

	var shares []codec.KeyShare
	if err := tx.Iterate(sharePrefix(voteID), func(_, value []byte) bool {
		ks, _, decErr := codec.DecodeKeyShare(value)
		if decErr != nil {
			err = decErr
			return false
		}
		shares = append(shares, ks)
		return true
	}); err != nil {
		log.Warnw("combine_public_key_shares rejected", "vote_id", string(voteID), "reason", err)
		return nil, err
	}
	if err != nil {
		log.Warnw("combine_public_key_shares rejected", "vote_id", string(voteID), "reason", errs.ErrParseError)
		return nil, errs.ErrParseError
	}
	if len(shares) < 2 {
		log.Warnw("combine_public_key_shares rejected", "vote_id", string(voteID), "reason", errs.ErrNotEnoughPublicKeyShares)
		return nil, errs.ErrNotEnoughPublicKeyShares
	}

	hs := make([]*big.Int, len(shares))
	for i, ks := range shares {
		hs[i] = ks.H
	}
	joint := group.CombineShares(v.Params, hs)

	if err := tx.Set(jointKeyKey(voteID), codec.EncodeInt(joint)); err != nil {
		log.Warnw("combine_public_key_shares rejected", "vote_id", string(voteID), "reason", err)
		return nil, err
	}
	v.Phase = PhaseVoting
	v.JointKey = joint
	if err := storeEnvelopeUnsafe(tx, voteID, v); err != nil {
		log.Warnw("combine_public_key_shares rejected", "vote_id", string(voteID), "reason", err)
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		log.Warnw("combine_public_key_shares rejected", "vote_id", string(voteID), "reason", err)
		return nil, err
	}
	log.Debugw("joint public key combined", "vote_id", string(voteID), "shares", len(shares))
	return v, nil
}

// CastBallot stores one ciphertext per topic in the voter's own ballot slot
// (v/<voteID>/ballot/<topic>/<voterID>). A second ballot from the same voter
// overwrites the first (the latest ballot per voter is the one counted).
// It does not write the round-0 bucket: SetVotePhase builds the round-0
// buckets from these slots when the vote enters Tallying.
func (s *Store) CastBallot(caller string, voteID []byte, voterID string, entries map[string]elgamal.Ciphertext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.database.WriteTx()
	defer tx.Discard()

	v, err := loadVoteUnsafe(tx, voteID)
	if err != nil {
		log.Warnw("cast_ballot rejected", "vote_id", string(voteID), "voter", voterID, "reason", err)
		return err
	}
	if v.Phase != PhaseVoting {
		log.Warnw("cast_ballot rejected", "vote_id", string(voteID), "voter", voterID, "reason", errs.ErrWrongVotePhase)
		return errs.ErrWrongVotePhase
	}
	for topic := range entries {
		if !hasTopic(v.Topics, topic) {
			log.Warnw("cast_ballot rejected", "vote_id", string(voteID), "voter", voterID, "topic", topic, "reason", errs.ErrTopicNotInVote)
			return errs.ErrTopicNotInVote
		}
	}

	for topic, c := range entries {
		if err := tx.Set(ballotKey(voteID, topic, voterID), codec.EncodeCiphertext(c)); err != nil {
			log.Warnw("cast_ballot rejected", "vote_id", string(voteID), "voter", voterID, "reason", err)
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		log.Warnw("cast_ballot rejected", "vote_id", string(voteID), "voter", voterID, "reason", err)
		return err
	}
	log.Debugw("ballot cast", "vote_id", string(voteID), "voter", voterID, "topics", len(entries))
	return nil
}

// SetVotePhase advances a vote's phase. Only the authority may call it.
// Voting -> Tallying snapshots round-0 buckets, per spec §4.6's
// set_vote_phase. Tallying -> Tallied is not named as its own bullet in
// §4.6's transition list, but is the state machine's only way to reach the
// terminal Tallied state; it is gated here on every topic already holding a
// written tally, so it can never fire ahead of combine_decrypted_shares.
func (s *Store) SetVotePhase(caller string, voteID []byte, phase Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.roles.isAuthority(caller) {
		log.Warnw("set_vote_phase rejected", "vote_id", string(voteID), "caller", caller, "reason", errs.ErrNotVotingAuthority)
		return errs.ErrNotVotingAuthority
	}

	tx := s.database.WriteTx()
	defer tx.Discard()

	v, err := loadVoteUnsafe(tx, voteID)
	if err != nil {
		log.Warnw("set_vote_phase rejected", "vote_id", string(voteID), "reason", err)
		return err
	}

	switch {
	case phase == PhaseTallying && v.Phase == PhaseVoting:
		if err := snapshotBallotsUnsafe(tx, voteID, v.Topics); err != nil {
			log.Warnw("set_vote_phase rejected", "vote_id", string(voteID), "phase", string(phase), "reason", err)
			return err
		}
	case phase == PhaseTallied && v.Phase == PhaseTallying:
		for _, topic := range v.Topics {
			if _, err := tx.Get(tallyKey(voteID, topic)); err != nil {
				log.Warnw("set_vote_phase rejected", "vote_id", string(voteID), "phase", string(phase), "topic", topic, "reason", errs.ErrWrongVotePhase)
				return errs.ErrWrongVotePhase
			}
		}
	default:
		log.Warnw("set_vote_phase rejected", "vote_id", string(voteID), "phase", string(phase), "current_phase", string(v.Phase), "reason", errs.ErrWrongVotePhase)
		return errs.ErrWrongVotePhase
	}

	v.Phase = phase
	if err := storeEnvelopeUnsafe(tx, voteID, v); err != nil {
		log.Warnw("set_vote_phase rejected", "vote_id", string(voteID), "phase", string(phase), "reason", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		log.Warnw("set_vote_phase rejected", "vote_id", string(voteID), "phase", string(phase), "reason", err)
		return err
	}
	log.Debugw("vote phase advanced", "vote_id", string(voteID), "phase", string(phase))
	return nil
}

// snapshotBallotsUnsafe materializes round-0 ciphertext buckets, one per
// topic, from every voter's latest cast ballot, at the moment the vote
// enters Tallying. Per spec §3, "round 0 = submitted ballots".
func snapshotBallotsUnsafe(tx db.WriteTx, voteID []byte, topics []string) error {
	for _, topic := range topics {
		var cts []elgamal.Ciphertext
		prefix := []byte{}
		prefix = append(prefix, ballotKey(voteID, topic, "")...)
		if err := tx.Iterate(prefix, func(_, value []byte) bool {
			c, _, decErr := codec.DecodeCiphertext(value)
			if decErr != nil {
				return false
			}
			cts = append(cts, c)
			return true
		}); err != nil {
			return err
		}
		if err := tx.Set(bucketKey(voteID, topic, 0), encodeCiphertexts(cts)); err != nil {
			return err
		}
	}
	return nil
}

// ShuffleAndSubmit reads the ciphertext bucket at round r, performs the
// shuffle and proof of spec §4.4, and stores the output at round r+1. At
// most one submission is accepted per round (spec §9's tie-breaking open
// question, resolved as at-most-one accepted).
func (s *Store) ShuffleAndSubmit(caller string, voteID []byte, topic string, round int) (shuffle.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.roles.isSealer(caller) {
		log.Warnw("shuffle_and_submit rejected", "vote_id", string(voteID), "caller", caller, "reason", errs.ErrNotASealer)
		return shuffle.Result{}, errs.ErrNotASealer
	}

	tx := s.database.WriteTx()
	defer tx.Discard()

	v, err := loadVoteUnsafe(tx, voteID)
	if err != nil {
		log.Warnw("shuffle_and_submit rejected", "vote_id", string(voteID), "reason", err)
		return shuffle.Result{}, err
	}
	if v.Phase != PhaseTallying {
		log.Warnw("shuffle_and_submit rejected", "vote_id", string(voteID), "reason", errs.ErrWrongVotePhase)
		return shuffle.Result{}, errs.ErrWrongVotePhase
	}
	if !hasTopic(v.Topics, topic) {
		log.Warnw("shuffle_and_submit rejected", "vote_id", string(voteID), "topic", topic, "reason", errs.ErrTopicNotInVote)
		return shuffle.Result{}, errs.ErrTopicNotInVote
	}
	if v.JointKey == nil {
		log.Warnw("shuffle_and_submit rejected", "vote_id", string(voteID), "topic", topic, "reason", errs.ErrPublicKeyNotExists)
		return shuffle.Result{}, errs.ErrPublicKeyNotExists
	}

	if _, err := tx.Get(bucketKey(voteID, topic, round+1)); err == nil {
		log.Warnw("shuffle_and_submit rejected", "vote_id", string(voteID), "topic", topic, "round", round, "reason", errs.ErrShuffleAlreadyPerformed)
		return shuffle.Result{}, errs.ErrShuffleAlreadyPerformed
	} else if err != db.ErrKeyNotFound {
		log.Warnw("shuffle_and_submit rejected", "vote_id", string(voteID), "topic", topic, "round", round, "reason", err)
		return shuffle.Result{}, err
	}

	raw, err := tx.Get(bucketKey(voteID, topic, round))
	if err != nil {
		log.Warnw("shuffle_and_submit rejected", "vote_id", string(voteID), "topic", topic, "round", round, "reason", errs.ErrShuffleCiphersSizeZero)
		return shuffle.Result{}, errs.ErrShuffleCiphersSizeZero
	}
	input, err := decodeCiphertexts(raw)
	if err != nil {
		log.Warnw("shuffle_and_submit rejected", "vote_id", string(voteID), "topic", topic, "round", round, "reason", errs.ErrParseError)
		return shuffle.Result{}, errs.ErrParseError
	}
	if len(input) == 0 {
		log.Warnw("shuffle_and_submit rejected", "vote_id", string(voteID), "topic", topic, "round", round, "reason", errs.ErrShuffleCiphersSizeZero)
		return shuffle.Result{}, errs.ErrShuffleCiphersSizeZero
	}

	bucketID := bucketKey(voteID, topic, round)
	result, err := shuffle.Run(v.Params, v.JointKey, bucketID, input)
	if err != nil {
		log.Warnw("shuffle_and_submit rejected", "vote_id", string(voteID), "topic", topic, "round", round, "reason", err)
		return shuffle.Result{}, err
	}

	if err := tx.Set(bucketKey(voteID, topic, round+1), encodeCiphertexts(result.Output)); err != nil {
		log.Warnw("shuffle_and_submit rejected", "vote_id", string(voteID), "topic", topic, "round", round, "reason", err)
		return shuffle.Result{}, err
	}
	if err := tx.Set(shuffleProofKey(voteID, topic, round), codec.EncodeShuffleProof(result.Proof)); err != nil {
		log.Warnw("shuffle_and_submit rejected", "vote_id", string(voteID), "topic", topic, "round", round, "reason", err)
		return shuffle.Result{}, err
	}
	if err := tx.Commit(); err != nil {
		log.Warnw("shuffle_and_submit rejected", "vote_id", string(voteID), "topic", topic, "round", round, "reason", err)
		return shuffle.Result{}, err
	}
	log.Debugw("shuffle submitted", "vote_id", string(voteID), "topic", topic, "round", round, "sealer", caller)
	return result, nil
}

// SubmitDecryptedShares verifies and records a sealer's partial decryption
// of the bucket at round, per spec §4.5/§4.6's submit_decrypted_shares.
func (s *Store) SubmitDecryptedShares(caller string, voteID []byte, topic string, share proof.DecryptionShare, round int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.roles.isSealer(caller) {
		log.Warnw("submit_decrypted_shares rejected", "vote_id", string(voteID), "caller", caller, "reason", errs.ErrNotASealer)
		return errs.ErrNotASealer
	}

	tx := s.database.WriteTx()
	defer tx.Discard()

	v, err := loadVoteUnsafe(tx, voteID)
	if err != nil {
		log.Warnw("submit_decrypted_shares rejected", "vote_id", string(voteID), "reason", err)
		return err
	}
	if v.Phase != PhaseTallying {
		log.Warnw("submit_decrypted_shares rejected", "vote_id", string(voteID), "reason", errs.ErrWrongVotePhase)
		return errs.ErrWrongVotePhase
	}
	if !hasTopic(v.Topics, topic) {
		log.Warnw("submit_decrypted_shares rejected", "vote_id", string(voteID), "topic", topic, "reason", errs.ErrTopicNotInVote)
		return errs.ErrTopicNotInVote
	}

	shareKeyBytes := shareKey(voteID, caller)
	ksBytes, err := tx.Get(shareKeyBytes)
	if err != nil {
		log.Warnw("submit_decrypted_shares rejected", "vote_id", string(voteID), "sealer", caller, "reason", errs.ErrPublicKeyShareNotExists)
		return errs.ErrPublicKeyShareNotExists
	}
	ks, _, err := codec.DecodeKeyShare(ksBytes)
	if err != nil {
		log.Warnw("submit_decrypted_shares rejected", "vote_id", string(voteID), "sealer", caller, "reason", errs.ErrParseError)
		return errs.ErrParseError
	}

	raw, err := tx.Get(bucketKey(voteID, topic, round))
	if err != nil {
		log.Warnw("submit_decrypted_shares rejected", "vote_id", string(voteID), "topic", topic, "round", round, "reason", errs.ErrShuffleCiphersSizeZero)
		return errs.ErrShuffleCiphersSizeZero
	}
	cts, err := decodeCiphertexts(raw)
	if err != nil {
		log.Warnw("submit_decrypted_shares rejected", "vote_id", string(voteID), "topic", topic, "round", round, "reason", errs.ErrParseError)
		return errs.ErrParseError
	}

	bucketID := bucketKey(voteID, topic, round)
	if err := proof.VerifyDecryptionShare(v.Params, ks.H, cts, share, []byte(caller), bucketID); err != nil {
		log.Warnw("submit_decrypted_shares rejected", "vote_id", string(voteID), "topic", topic, "sealer", caller, "reason", errs.ErrDecryptedShareProof)
		return errs.ErrDecryptedShareProof
	}

	if err := setCBOR(tx, decShareKey(voteID, topic, caller), toEnvelope(share)); err != nil {
		log.Warnw("submit_decrypted_shares rejected", "vote_id", string(voteID), "topic", topic, "reason", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		log.Warnw("submit_decrypted_shares rejected", "vote_id", string(voteID), "topic", topic, "reason", err)
		return err
	}
	log.Debugw("decryption share submitted", "vote_id", string(voteID), "topic", topic, "sealer", caller)
	return nil
}

// CombineDecryptedShares combines every sealer's decryption share for
// topic at round, brute-force-decodes each plaintext, and writes the
// tally, per spec §4.5/§4.6's combine_decrypted_shares. Requires at least
// two distinct submitted share sets and fails if the topic was already
// tallied (idempotent-once semantics).
func (s *Store) CombineDecryptedShares(caller string, voteID []byte, topic string, round int) (map[uint64]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.roles.isAuthority(caller) {
		log.Warnw("combine_decrypted_shares rejected", "vote_id", string(voteID), "caller", caller, "reason", errs.ErrNotVotingAuthority)
		return nil, errs.ErrNotVotingAuthority
	}

	tx := s.database.WriteTx()
	defer tx.Discard()

	v, err := loadVoteUnsafe(tx, voteID)
	if err != nil {
		log.Warnw("combine_decrypted_shares rejected", "vote_id", string(voteID), "reason", err)
		return nil, err
	}
	if v.Phase != PhaseTallying {
		log.Warnw("combine_decrypted_shares rejected", "vote_id", string(voteID), "reason", errs.ErrWrongVotePhase)
		return nil, errs.ErrWrongVotePhase
	}
	if !hasTopic(v.Topics, topic) {
		log.Warnw("combine_decrypted_shares rejected", "vote_id", string(voteID), "topic", topic, "reason", errs.ErrTopicNotInVote)
		return nil, errs.ErrTopicNotInVote
	}

	if _, err := tx.Get(tallyKey(voteID, topic)); err == nil {
		log.Warnw("combine_decrypted_shares rejected", "vote_id", string(voteID), "topic", topic, "reason", errs.ErrTopicHasAlreadyBeenTallied)
		return nil, errs.ErrTopicHasAlreadyBeenTallied
	} else if err != db.ErrKeyNotFound {
		log.Warnw("combine_decrypted_shares rejected", "vote_id", string(voteID), "topic", topic, "reason", err)
		return nil, err
	}

	raw, err := tx.Get(bucketKey(voteID, topic, round))
	if err != nil {
		log.Warnw("combine_decrypted_shares rejected", "vote_id", string(voteID), "topic", topic, "round", round, "reason", errs.ErrShuffleCiphersSizeZero)
		return nil, errs.ErrShuffleCiphersSizeZero
	}
	cts, err := decodeCiphertexts(raw)
	if err != nil {
		log.Warnw("combine_decrypted_shares rejected", "vote_id", string(voteID), "topic", topic, "round", round, "reason", errs.ErrParseError)
		return nil, errs.ErrParseError
	}

	var shares [][]*big.Int
	shareSetCount := 0
	if err := tx.Iterate(decSharePrefix(voteID, topic), func(_, value []byte) bool {
		var env decryptionShareEnvelope
		if decErr := cbor.Unmarshal(value, &env); decErr != nil {
			err = decErr
			return false
		}
		ds := fromEnvelope(env)
		if len(ds.Shares) != len(cts) {
			err = errs.ErrParseError
			return false
		}
		shares = append(shares, ds.Shares)
		shareSetCount++
		return true
	}); err != nil {
		log.Warnw("combine_decrypted_shares rejected", "vote_id", string(voteID), "topic", topic, "reason", err)
		return nil, err
	}
	if err != nil {
		log.Warnw("combine_decrypted_shares rejected", "vote_id", string(voteID), "topic", topic, "reason", err)
		return nil, err
	}
	if shareSetCount < 2 {
		log.Warnw("combine_decrypted_shares rejected", "vote_id", string(voteID), "topic", topic, "reason", errs.ErrNotEnoughDecryptedShares)
		return nil, errs.ErrNotEnoughDecryptedShares
	}

	tally, err := combineAndDecode(v.Params, cts, shares, uint64(len(cts)))
	if err != nil {
		log.Warnw("combine_decrypted_shares rejected", "vote_id", string(voteID), "topic", topic, "reason", err)
		return nil, err
	}

	if err := setCBOR(tx, tallyKey(voteID, topic), tally); err != nil {
		log.Warnw("combine_decrypted_shares rejected", "vote_id", string(voteID), "topic", topic, "reason", err)
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		log.Warnw("combine_decrypted_shares rejected", "vote_id", string(voteID), "topic", topic, "reason", err)
		return nil, err
	}
	log.Debugw("topic tallied", "vote_id", string(voteID), "topic", topic, "ballots", len(cts))
	return tally, nil
}

func combineAndDecode(params *group.Params, cts []elgamal.Ciphertext, shareSets [][]*big.Int, maxSearch uint64) (map[uint64]uint64, error) {
	tally := make(map[uint64]uint64)
	for j, c := range cts {
		perCiphertext := make([]*big.Int, len(shareSets))
		for i, set := range shareSets {
			perCiphertext[i] = set[j]
		}
		combined := elgamal.CombinePartialDecryptions(params, perCiphertext)
		gm, err := elgamal.RecoverMessageBase(params, c.B, combined)
		if err != nil {
			return nil, err
		}
		m, err := elgamal.Decode(params, gm, maxSearch)
		if err != nil {
			return nil, err
		}
		tally[m]++
	}
	return tally, nil
}
