package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meck93/mixnet/codec"
	"github.com/meck93/mixnet/elgamal"
	"github.com/meck93/mixnet/group"
	"github.com/meck93/mixnet/mixstate"
	"github.com/meck93/mixnet/proof"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		errMarshalFailed.write(w)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		errMalformedBody.write(w)
		return false
	}
	return true
}

func roundParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	round, err := strconv.Atoi(chi.URLParam(r, RoundParam))
	if err != nil {
		errBadParam.write(w)
		return 0, false
	}
	return round, true
}

type createVoteRequest struct {
	Title  string        `json:"title"`
	Params *group.Params `json:"params"`
	Topics []string      `json:"topics"`
}

func (s *Server) createVote(w http.ResponseWriter, r *http.Request) {
	var req createVoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	voteID := []byte(chi.URLParam(r, VoteIDParam))
	if len(voteID) == 0 {
		voteID = []byte(r.Header.Get(CallerHeader) + "-" + req.Title)
	}
	if err := s.store.CreateVote(r.Header.Get(CallerHeader), voteID, req.Title, req.Params, req.Topics); err != nil {
		errsToAPI(err).write(w)
		return
	}
	v, err := s.store.Vote(voteID)
	if err != nil {
		errsToAPI(err).write(w)
		return
	}
	writeJSON(w, v)
}

func (s *Server) getVote(w http.ResponseWriter, r *http.Request) {
	v, err := s.store.Vote([]byte(chi.URLParam(r, VoteIDParam)))
	if err != nil {
		errsToAPI(err).write(w)
		return
	}
	writeJSON(w, v)
}

func (s *Server) storePublicKeyShare(w http.ResponseWriter, r *http.Request) {
	var share codec.KeyShare
	if !decodeBody(w, r, &share) {
		return
	}
	voteID := []byte(chi.URLParam(r, VoteIDParam))
	caller := r.Header.Get(CallerHeader)
	if err := s.store.StorePublicKeyShare(caller, voteID, share); err != nil {
		errsToAPI(err).write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) combinePublicKeyShares(w http.ResponseWriter, r *http.Request) {
	voteID := []byte(chi.URLParam(r, VoteIDParam))
	v, err := s.store.CombinePublicKeyShares(r.Header.Get(CallerHeader), voteID)
	if err != nil {
		errsToAPI(err).write(w)
		return
	}
	writeJSON(w, v)
}

type castBallotRequest struct {
	VoterID string                        `json:"voterId"`
	Entries map[string]elgamal.Ciphertext `json:"entries"`
}

func (s *Server) castBallot(w http.ResponseWriter, r *http.Request) {
	var req castBallotRequest
	if !decodeBody(w, r, &req) {
		return
	}
	voteID := []byte(chi.URLParam(r, VoteIDParam))
	caller := r.Header.Get(CallerHeader)
	if err := s.store.CastBallot(caller, voteID, req.VoterID, req.Entries); err != nil {
		errsToAPI(err).write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setPhaseRequest struct {
	Phase mixstate.Phase `json:"phase"`
}

func (s *Server) setVotePhase(w http.ResponseWriter, r *http.Request) {
	var req setPhaseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	voteID := []byte(chi.URLParam(r, VoteIDParam))
	caller := r.Header.Get(CallerHeader)
	if err := s.store.SetVotePhase(caller, voteID, req.Phase); err != nil {
		errsToAPI(err).write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getBucket(w http.ResponseWriter, r *http.Request) {
	voteID := []byte(chi.URLParam(r, VoteIDParam))
	topic := chi.URLParam(r, TopicParam)
	round, ok := roundParam(w, r)
	if !ok {
		return
	}
	cts, bucketID, err := s.store.Bucket(voteID, topic, round)
	if err != nil {
		errsToAPI(err).write(w)
		return
	}
	writeJSON(w, struct {
		Ciphertexts []elgamal.Ciphertext `json:"ciphertexts"`
		BucketID    string               `json:"bucketId"`
	}{Ciphertexts: cts, BucketID: string(bucketID)})
}

type shuffleRequest struct {
	Round int `json:"round"`
}

func (s *Server) shuffleAndSubmit(w http.ResponseWriter, r *http.Request) {
	var req shuffleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	voteID := []byte(chi.URLParam(r, VoteIDParam))
	topic := chi.URLParam(r, TopicParam)
	caller := r.Header.Get(CallerHeader)
	result, err := s.store.ShuffleAndSubmit(caller, voteID, topic, req.Round)
	if err != nil {
		errsToAPI(err).write(w)
		return
	}
	writeJSON(w, result)
}

type submitDecryptedSharesRequest struct {
	Round int                    `json:"round"`
	Share proof.DecryptionShare `json:"share"`
}

func (s *Server) submitDecryptedShares(w http.ResponseWriter, r *http.Request) {
	var req submitDecryptedSharesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	voteID := []byte(chi.URLParam(r, VoteIDParam))
	topic := chi.URLParam(r, TopicParam)
	caller := r.Header.Get(CallerHeader)
	if err := s.store.SubmitDecryptedShares(caller, voteID, topic, req.Share, req.Round); err != nil {
		errsToAPI(err).write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type combineDecryptedSharesRequest struct {
	Round int `json:"round"`
}

func (s *Server) combineDecryptedShares(w http.ResponseWriter, r *http.Request) {
	var req combineDecryptedSharesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	voteID := []byte(chi.URLParam(r, VoteIDParam))
	topic := chi.URLParam(r, TopicParam)
	caller := r.Header.Get(CallerHeader)
	tally, err := s.store.CombineDecryptedShares(caller, voteID, topic, req.Round)
	if err != nil {
		errsToAPI(err).write(w)
		return
	}
	writeJSON(w, tally)
}
