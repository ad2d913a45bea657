// internal/handlers/api_server.go
package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/middleware"
	"github.com/jason-s-yu/kombio/internal/service"
	"github.com/sirupsen/logrus"
)

// Authenticator resolves the calling user of a request.
type Authenticator interface {
	UserFromRequest(r *http.Request) (uuid.UUID, error)
}

// Server exposes the game service over HTTP and websocket.
type Server struct {
	svc  *service.Service
	auth Authenticator
	log  *logrus.Logger
	poll time.Duration
}

func NewServer(svc *service.Service, auth Authenticator, logger *logrus.Logger, poll time.Duration) *Server {
	if poll <= 0 {
		poll = 2 * time.Second
	}
	return &Server{svc: svc, auth: auth, log: logger, poll: poll}
}

// Routes builds the request multiplexer, wrapped in request logging.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /profile", s.authed(s.handleProfile))

	// lobby
	mux.HandleFunc("POST /games", s.authed(s.handleCreateGame))
	mux.HandleFunc("POST /games/join", s.authed(s.handleJoin))
	mux.HandleFunc("GET /games/{id}", s.authed(s.handleView))
	mux.HandleFunc("POST /games/{id}/leave", s.authed(s.handleLeave))
	mux.HandleFunc("POST /games/{id}/max-rounds", s.authed(s.handleSetMaxRounds))
	mux.HandleFunc("POST /games/{id}/rules", s.authed(s.handleUpdateRules))
	mux.HandleFunc("POST /games/{id}/start", s.authed(s.handleStart))

	// turn
	mux.HandleFunc("POST /games/{id}/draw", s.authed(s.handleDraw))
	mux.HandleFunc("POST /games/{id}/swap", s.authed(s.handleSwap))
	mux.HandleFunc("POST /games/{id}/discard", s.authed(s.handleDiscard))
	mux.HandleFunc("POST /games/{id}/ability/preview", s.authed(s.handlePreviewAbility))
	mux.HandleFunc("POST /games/{id}/ability", s.authed(s.handleUseAbility))
	mux.HandleFunc("POST /games/{id}/ability/skip", s.authed(s.handleSkipAbility))
	mux.HandleFunc("POST /games/{id}/match", s.authed(s.handleMatch))
	mux.HandleFunc("POST /games/{id}/kombio", s.authed(s.handleKombio))

	// peek window
	mux.HandleFunc("POST /games/{id}/peek", s.authed(s.handlePeek))
	mux.HandleFunc("POST /games/{id}/peek/close", s.authed(s.handleClosePeek))

	mux.HandleFunc("GET /games/{id}/ws", s.authed(s.handleStream))

	return middleware.LogMiddleware(s.log)(mux)
}

type userHandler func(w http.ResponseWriter, r *http.Request, user uuid.UUID)

func (s *Server) authed(h userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.auth.UserFromRequest(r)
		if err != nil {
			s.log.WithError(err).WithField("path", r.URL.Path).Debug("unauthenticated request")
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "authentication required", Code: "unauthenticated"})
			return
		}
		h(w, r, user)
	}
}
