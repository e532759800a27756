// Package errs defines the typed failure surface of the mixnet core.
//
// Every extrinsic-level operation in the protocol state machine (package
// mixstate) and every cryptographic verification routine (packages bignum,
// elgamal, proof, shuffle) reports failure as one of the sentinel errors
// declared here, grouped by the kind of failure per the error design: a
// failed operation never panics and never mutates state.
package errs

import "errors"

// Authorization errors: the caller does not hold the role required for the
// requested operation.
var (
	ErrNotVotingAuthority = errors.New("caller is not the voting authority")
	ErrIsVotingAuthority  = errors.New("caller is the voting authority")
	ErrNotASealer         = errors.New("caller is not a registered sealer")
)

// Phase errors: the vote does not exist, or exists in a phase that forbids
// the requested transition.
var (
	ErrWrongVotePhase             = errors.New("vote is not in the required phase")
	ErrVoteDoesNotExist           = errors.New("vote does not exist")
	ErrTopicHasAlreadyBeenTallied = errors.New("topic has already been tallied")
)

// Input errors: malformed byte strings or requests that are structurally
// invalid regardless of cryptographic content.
var (
	ErrParseError                  = errors.New("failed to parse value")
	ErrShuffleCiphersSizeZero      = errors.New("shuffle input vector is empty")
	ErrPublicKeyNotExists          = errors.New("joint public key does not exist for vote")
	ErrPublicKeyShareNotExists     = errors.New("public key share does not exist for sealer")
	ErrNotEnoughPublicKeyShares    = errors.New("fewer than two distinct public key shares registered")
	ErrNotEnoughDecryptedShares    = errors.New("fewer than two distinct decryption share sets submitted")
	ErrShuffleAlreadyPerformed     = errors.New("a shuffle has already been submitted for this round")
	ErrPublicKeyShareAlreadyExists = errors.New("sealer has already submitted a public key share for this vote")
	ErrTopicNotInVote              = errors.New("topic does not belong to this vote")
)

// Proof errors: a submitted non-interactive zero-knowledge proof failed
// verification against its public statement.
var (
	ErrPublicKeyShareProof = errors.New("key-generation knowledge proof failed to verify")
	ErrShuffleProof        = errors.New("shuffle proof failed to verify")
	ErrDecryptedShareProof = errors.New("decryption share equality-of-discrete-logs proof failed to verify")
)

// Arithmetic errors: the big-number layer was asked to perform an operation
// whose preconditions were violated. These never escape to a caller for
// adversarial input paths that are already prevented by ProofError /
// InputError checks; they surface only from direct bignum/group misuse.
var (
	ErrInvMod                   = errors.New("value has no modular inverse")
	ErrDivMod                   = errors.New("modular division failed")
	ErrRandomnessUpperBoundZero = errors.New("random upper bound is zero")
	ErrRandomRange              = errors.New("invalid random range")
	ErrPermutationSizeZero      = errors.New("permutation size is zero")
	ErrDecodeNotFound           = errors.New("plaintext not found within decode bound")
)
