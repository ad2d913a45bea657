package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/game"
	"github.com/jason-s-yu/kombio/internal/store"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 16

var errBadRequest = errors.New("bad request")

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Retry bool   `json:"retry,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON body into v. An empty body leaves v unchanged.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", errBadRequest, name)
	}
	return id, nil
}

// classify maps an error onto an HTTP status and a stable code.
func classify(err error) (int, errorBody) {
	var illegal *game.IllegalActionError
	var short *game.InsufficientCardsError
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, errorBody{Error: err.Error(), Code: "bad_request"}
	case errors.As(err, &illegal):
		return http.StatusConflict, errorBody{Error: err.Error(), Code: "illegal_action"}
	case errors.As(err, &short):
		return http.StatusConflict, errorBody{Error: err.Error(), Code: "insufficient_cards"}
	case errors.Is(err, store.ErrStaleState):
		return http.StatusConflict, errorBody{Error: "the game changed, please retry", Code: "stale_state", Retry: true}
	case errors.Is(err, game.ErrGameFull):
		return http.StatusConflict, errorBody{Error: err.Error(), Code: "game_full"}
	case errors.Is(err, game.ErrNotHost):
		return http.StatusForbidden, errorBody{Error: err.Error(), Code: "not_host"}
	case errors.Is(err, game.ErrGameNotFound):
		return http.StatusNotFound, errorBody{Error: err.Error(), Code: "game_not_found"}
	case errors.Is(err, game.ErrPlayerNotFound):
		return http.StatusNotFound, errorBody{Error: err.Error(), Code: "player_not_found"}
	case errors.Is(err, store.ErrProfileMissing):
		return http.StatusInternalServerError, errorBody{Error: "your profile could not be created, please sign in again", Code: "profile_missing"}
	default:
		return http.StatusInternalServerError, errorBody{Error: "internal error", Code: "internal"}
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	entry := s.log.WithFields(logrus.Fields{"path": r.URL.Path, "status": status})
	if status >= http.StatusInternalServerError {
		entry.WithError(err).Error("request failed")
	} else {
		entry.WithError(err).Debug("request rejected")
	}
	writeJSON(w, status, body)
}
