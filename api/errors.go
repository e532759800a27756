package api

import (
	"encoding/json"
	"net/http"

	"github.com/meck93/mixnet/errs"
)

// apiErr is a coded, HTTP-status-bearing wrapper around a sentinel error
// from package errs, following the teacher api package's Error type.
type apiErr struct {
	Code       int    `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
}

func (e apiErr) write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPStatus)
	_ = json.NewEncoder(w).Encode(e)
}

var (
	errMalformedBody = apiErr{Code: 40001, Message: "malformed JSON body", HTTPStatus: http.StatusBadRequest}
	errMarshalFailed = apiErr{Code: 50001, Message: "marshaling server-side JSON failed", HTTPStatus: http.StatusInternalServerError}
	errBadParam      = apiErr{Code: 40002, Message: "malformed URL parameter", HTTPStatus: http.StatusBadRequest}
)

// errsToAPI maps a mixstate/group/proof sentinel to an HTTP status and a
// stable code. Anything unrecognized falls back to a generic 500.
func errsToAPI(err error) apiErr {
	switch {
	case err == errs.ErrVoteDoesNotExist, err == errs.ErrPublicKeyShareNotExists:
		return apiErr{Code: 40401, Message: err.Error(), HTTPStatus: http.StatusNotFound}
	case err == errs.ErrNotVotingAuthority, err == errs.ErrNotASealer:
		return apiErr{Code: 40301, Message: err.Error(), HTTPStatus: http.StatusForbidden}
	case err == errs.ErrWrongVotePhase,
		err == errs.ErrTopicNotInVote,
		err == errs.ErrPublicKeyShareAlreadyExists,
		err == errs.ErrTopicHasAlreadyBeenTallied,
		err == errs.ErrShuffleAlreadyPerformed,
		err == errs.ErrNotEnoughPublicKeyShares,
		err == errs.ErrNotEnoughDecryptedShares,
		err == errs.ErrPublicKeyNotExists:
		return apiErr{Code: 40002, Message: err.Error(), HTTPStatus: http.StatusConflict}
	case err == errs.ErrPublicKeyShareProof, err == errs.ErrDecryptedShareProof, err == errs.ErrParseError:
		return apiErr{Code: 40003, Message: err.Error(), HTTPStatus: http.StatusBadRequest}
	default:
		return apiErr{Code: 50002, Message: err.Error(), HTTPStatus: http.StatusInternalServerError}
	}
}
