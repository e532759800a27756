// Command mixnet drives one full vote lifecycle (spec §4.6) end to end
// against a configured db.Database backend: it creates a vote, collects
// sealer key shares, casts ballots, shuffles, and tallies — all inside one
// process, since every role (authority, sealer) here is the same caller
// under a different identity. It doubles as a demo and an integration
// smoke test for mixstate.
package main

import (
	"fmt"
	"math/big"
	"os"

	"github.com/google/uuid"

	"github.com/meck93/mixnet/api"
	"github.com/meck93/mixnet/bignum"
	"github.com/meck93/mixnet/codec"
	"github.com/meck93/mixnet/config"
	"github.com/meck93/mixnet/db/metadb"
	"github.com/meck93/mixnet/elgamal"
	"github.com/meck93/mixnet/group"
	"github.com/meck93/mixnet/log"
	"github.com/meck93/mixnet/mixstate"
	"github.com/meck93/mixnet/proof"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}
	// node.identity is only meaningful for a real multi-process deployment;
	// the self-contained demo below plays every role itself and leaves it
	// unset, so validation only kicks in once an operator opts into it.
	if cfg.Node.Identity != "" {
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
			os.Exit(1)
		}
	}
	log.Init(cfg.Log.Level, cfg.Log.Output, nil)

	if err := run(cfg); err != nil {
		log.Fatalf("mixnet: %v", err)
	}
}

func run(cfg *config.Config) error {
	database, err := metadb.New(cfg.DBType, cfg.Datadir)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	authority := "authority-" + uuid.NewString()
	sealerIDs := []string{"sealer-" + uuid.NewString(), "sealer-" + uuid.NewString()}
	store := mixstate.New(database, mixstate.NewRoles(authority, sealerIDs))

	if cfg.API.Enabled {
		if _, err := api.New(api.Config{Host: cfg.API.Host, Port: cfg.API.Port, Store: store}); err != nil {
			return fmt.Errorf("starting api server: %w", err)
		}
	}

	p, g, h := demoParams()
	params := &group.Params{P: p, G: g, H: h}

	voteID := []byte(uuid.NewString())
	topic := "topic-1"
	log.Infow("creating vote", "vote_id", string(voteID), "authority", authority)
	if err := store.CreateVote(authority, voteID, "demo election", params, []string{topic}); err != nil {
		return fmt.Errorf("create_vote: %w", err)
	}

	privs := make(map[string]*big.Int, len(sealerIDs))
	for _, sealerID := range sealerIDs {
		h, x, err := params.GenerateKeyPair()
		if err != nil {
			return fmt.Errorf("generating key pair for %s: %w", sealerID, err)
		}
		kgProof, err := proof.ProveKeyGeneration(params, h, x, []byte(sealerID))
		if err != nil {
			return fmt.Errorf("proving key generation for %s: %w", sealerID, err)
		}
		if err := store.StorePublicKeyShare(sealerID, voteID, codec.KeyShare{H: h, Proof: kgProof}); err != nil {
			return fmt.Errorf("store_public_key_share(%s): %w", sealerID, err)
		}
		privs[sealerID] = x
		log.Infow("sealer published key share", "sealer", sealerID)
	}

	vote, err := store.CombinePublicKeyShares(authority, voteID)
	if err != nil {
		return fmt.Errorf("combine_public_key_shares: %w", err)
	}
	log.Infow("joint public key established", "vote_id", string(voteID))

	plaintexts := []int64{1, 3, 4, 1, 3, 4}
	q := params.Q()
	for i, m := range plaintexts {
		voterID := fmt.Sprintf("voter-%d-%s", i, uuid.NewString())
		r, err := bignum.RandomBiguintBelow(q)
		if err != nil {
			return fmt.Errorf("sampling randomness: %w", err)
		}
		ct := elgamal.Encrypt(params, vote.JointKey, big.NewInt(m), r)
		if err := store.CastBallot(voterID, voteID, voterID, map[string]elgamal.Ciphertext{topic: ct}); err != nil {
			return fmt.Errorf("cast_ballot(%s): %w", voterID, err)
		}
	}
	log.Infow("ballots cast", "count", len(plaintexts))

	if err := store.SetVotePhase(authority, voteID, mixstate.PhaseTallying); err != nil {
		return fmt.Errorf("set_vote_phase(Tallying): %w", err)
	}

	if _, err := store.ShuffleAndSubmit(sealerIDs[0], voteID, topic, 0); err != nil {
		return fmt.Errorf("shuffle_and_submit: %w", err)
	}
	log.Infow("shuffle submitted", "sealer", sealerIDs[0])

	bucket, bucketID, err := store.Bucket(voteID, topic, 1)
	if err != nil {
		return fmt.Errorf("reading shuffled bucket: %w", err)
	}

	for _, sealerID := range sealerIDs {
		shares, err := proof.ProveDecryptionShare(params, mustPublicShare(params, privs[sealerID]), privs[sealerID], bucket, []byte(sealerID), bucketID)
		if err != nil {
			return fmt.Errorf("proving decryption share for %s: %w", sealerID, err)
		}
		if err := store.SubmitDecryptedShares(sealerID, voteID, topic, shares, 1); err != nil {
			return fmt.Errorf("submit_decrypted_shares(%s): %w", sealerID, err)
		}
		log.Infow("decryption share submitted", "sealer", sealerID)
	}

	tally, err := store.CombineDecryptedShares(authority, voteID, topic, 1)
	if err != nil {
		return fmt.Errorf("combine_decrypted_shares: %w", err)
	}

	if err := store.SetVotePhase(authority, voteID, mixstate.PhaseTallied); err != nil {
		return fmt.Errorf("set_vote_phase(Tallied): %w", err)
	}

	fmt.Printf("vote %s tallied:\n", string(voteID))
	for plaintext, count := range tally {
		fmt.Printf("  %d: %d\n", plaintext, count)
	}
	return nil
}

// mustPublicShare recovers a sealer's public key share h = g^x mod p from
// its own private share, since the demo keeps private shares in memory
// rather than re-reading them back from the store.
func mustPublicShare(params *group.Params, x *big.Int) *big.Int {
	return bignum.ModPow(params.G, x, params.P)
}
