// Package api exposes package mixstate's state machine as a thin JSON/HTTP
// surface, grounded on the teacher's api package's router wiring
// (go-chi/chi for routing, go-chi/cors for CORS, a background
// http.ListenAndServe goroutine). It is an alternate host harness: every
// handler here does nothing but decode a request, call the matching
// mixstate.Store method, and encode the result.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/meck93/mixnet/log"
	"github.com/meck93/mixnet/mixstate"
)

// CallerHeader carries the authenticated caller's identity on every
// request. Identities are opaque byte strings per spec §6, so this layer
// does no signature verification of its own; it trusts whatever sits in
// front of it (a reverse proxy, an mTLS terminator) to set this header.
const CallerHeader = "X-Caller-Identity"

// Config holds the HTTP server's own settings.
type Config struct {
	Host  string
	Port  int
	Store *mixstate.Store
}

// Server is the running HTTP surface over one mixstate.Store.
type Server struct {
	router *chi.Mux
	store  *mixstate.Store
}

// New builds a Server and starts serving in a background goroutine.
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("missing mixstate store")
	}
	s := &Server{router: chi.NewRouter(), store: cfg.Store}
	s.routes()

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		log.Infow("starting mixnet API server", "addr", addr)
		if err := http.ListenAndServe(addr, s.router); err != nil {
			log.Fatalf("api server stopped: %v", err)
		}
	}()
	return s, nil
}

// Router returns the chi router, for tests that want to drive it directly
// with httptest without opening a real socket.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) routes() {
	s.router.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}).Handler)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Get(PingEndpoint, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.router.Post(VotesEndpoint, s.createVote)
	s.router.Get(VoteEndpoint, s.getVote)
	s.router.Post(KeySharesEndpoint, s.storePublicKeyShare)
	s.router.Post(CombineSharesEndpoint, s.combinePublicKeyShares)
	s.router.Post(BallotsEndpoint, s.castBallot)
	s.router.Post(PhaseEndpoint, s.setVotePhase)
	s.router.Get(BucketEndpoint, s.getBucket)
	s.router.Post(ShuffleEndpoint, s.shuffleAndSubmit)
	s.router.Post(DecSharesEndpoint, s.submitDecryptedShares)
	s.router.Post(TallyEndpoint, s.combineDecryptedShares)
}
