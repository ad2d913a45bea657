// internal/handlers/game.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/game"
	"github.com/jason-s-yu/kombio/internal/models"
)

type createGameRequest struct {
	MaxRounds int `json:"maxRounds"`
}

type joinRequest struct {
	Code string `json:"code"`
}

type maxRoundsRequest struct {
	MaxRounds int `json:"maxRounds"`
}

type drawRequest struct {
	Source models.DrawSource `json:"source"`
}

type indexRequest struct {
	Index int `json:"index"`
}

type matchRequest struct {
	TargetID uuid.UUID `json:"targetId"`
	Index    int       `json:"index"`
}

type peekRequest struct {
	Slot int `json:"slot"`
}

type abilityResponse struct {
	State  game.ObfGameState  `json:"state"`
	Kind   game.ResultKind    `json:"kind"`
	Result game.AbilityResult `json:"result"`
}

type previewResponse struct {
	State game.ObfGameState `json:"state"`
	Card  game.RevealedCard `json:"card"`
}

type matchResponse struct {
	State  game.ObfGameState `json:"state"`
	Events []game.Event      `json:"events"`
}

// respondState writes the caller's view of s.
func (s *Server) respondState(w http.ResponseWriter, r *http.Request, status int, st *game.State, user uuid.UUID) {
	view, err := s.svc.ViewOf(st, user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, view)
}

// gameCommand handles the common shape: path game id, optional body, one
// service call returning the new state.
func (s *Server) gameCommand(body any, run func(r *http.Request, gameID, user uuid.UUID) (*game.State, error)) userHandler {
	return func(w http.ResponseWriter, r *http.Request, user uuid.UUID) {
		gameID, err := pathUUID(r, "id")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if body != nil {
			if err := decodeJSON(r, body); err != nil {
				s.writeError(w, r, err)
				return
			}
		}
		st, err := run(r, gameID, user)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.respondState(w, r, http.StatusOK, st, user)
	}
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, user uuid.UUID) {
	p, err := s.svc.EnsureProfile(r.Context(), user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request, user uuid.UUID) {
	var req createGameRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.svc.CreateGame(r.Context(), user, req.MaxRounds)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondState(w, r, http.StatusCreated, st, user)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request, user uuid.UUID) {
	var req joinRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.svc.JoinByCode(r.Context(), user, req.Code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondState(w, r, http.StatusOK, st, user)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request, user uuid.UUID) {
	gameID, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.svc.View(r.Context(), gameID, user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleLeave answers 204 since the caller no longer has a view of the game.
func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request, user uuid.UUID) {
	gameID, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.svc.Leave(r.Context(), gameID, user); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetMaxRounds(w http.ResponseWriter, r *http.Request, user uuid.UUID) {
	var req maxRoundsRequest
	s.gameCommand(&req, func(r *http.Request, gameID, user uuid.UUID) (*game.State, error) {
		return s.svc.SetMaxRounds(r.Context(), gameID, user, req.MaxRounds)
	})(w, r, user)
}

func (s *Server) handleUpdateRules(w http.ResponseWriter, r *http.Request, user uuid.UUID) {
	changes := map[string]interface{}{}
	s.gameCommand(&changes, func(r *http.Request, gameID, user uuid.UUID) (*game.State, error) {
		return s.svc.UpdateRules(r.Context(), gameID, user, changes)
	})(w, r, user)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request, user uuid.UUID) {
	s.gameCommand(nil, func(r *http.Request, gameID, user uuid.UUID) (*game.State, error) {
		return s.svc.Start(r.Context(), gameID, user)
	})(w, r, user)
}

func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request, user uuid.UUID) {
	req := drawRequest{Source: models.SourceDeck}
	s.gameCommand(&req, func(r *http.Request, gameID, user uuid.UUID) (*game.State, error) {
		switch req.Source {
		case models.SourceDeck:
			return s.svc.DrawFromDeck(r.Context(), gameID, user)
		case models.SourceDiscard:
			return s.svc.DrawFromDiscard(r.Context(), gameID, user)
		default:
			return nil, fmt.Errorf("%w: unknown draw source %q", errBadRequest, req.Source)
		}
	})(w, r, user)
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request, user uuid.UUID) {
	var req indexRequest
	s.gameCommand(&req, func(r *http.Request, gameID, user uuid.UUID) (*game.State, error) {
		return s.svc.SwapWithHand(r.Context(), gameID, user, req.Index)
	})(w, r, user)
}

func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request, user uuid.UUID) {
	s.gameCommand(nil, func(r *http.Request, gameID, user uuid.UUID) (*game.State, error) {
		return s.svc.DiscardDrawnCard(r.Context(), gameID, user)
	})(w, r, user)
}

func (s *Server) handlePreviewAbility(w http.ResponseWriter, r *http.Request, user uuid.UUID) {
	gameID, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var sel game.Selection
	if err := decodeJSON(r, &sel); err != nil {
		s.writeError(w, r, err)
		return
	}
	st, card, err := s.svc.PreviewAbility(r.Context(), gameID, user, sel)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.svc.ViewOf(st, user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, previewResponse{State: view, Card: card})
}

func (s *Server) handleUseAbility(w http.ResponseWriter, r *http.Request, user uuid.UUID) {
	gameID, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var choice game.AbilityChoice
	if err := decodeJSON(r, &choice); err != nil {
		s.writeError(w, r, err)
		return
	}
	st, res, err := s.svc.UseAbility(r.Context(), gameID, user, choice)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.svc.ViewOf(st, user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, abilityResponse{State: view, Kind: res.Kind(), Result: res})
}

func (s *Server) handleSkipAbility(w http.ResponseWriter, r *http.Request, user uuid.UUID) {
	s.gameCommand(nil, func(r *http.Request, gameID, user uuid.UUID) (*game.State, error) {
		return s.svc.SkipAbility(r.Context(), gameID, user)
	})(w, r, user)
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request, user uuid.UUID) {
	gameID, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req matchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.TargetID == uuid.Nil {
		req.TargetID = user
	}
	st, events, err := s.svc.AttemptMatch(r.Context(), gameID, user, req.TargetID, req.Index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.svc.ViewOf(st, user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matchResponse{State: view, Events: events})
}

func (s *Server) handleKombio(w http.ResponseWriter, r *http.Request, user uuid.UUID) {
	s.gameCommand(nil, func(r *http.Request, gameID, user uuid.UUID) (*game.State, error) {
		return s.svc.CallKombio(r.Context(), gameID, user)
	})(w, r, user)
}

func (s *Server) handlePeek(w http.ResponseWriter, r *http.Request, user uuid.UUID) {
	gameID, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req peekRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.svc.PeekCard(r.Context(), gameID, user, req.Slot)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleClosePeek(w http.ResponseWriter, r *http.Request, user uuid.UUID) {
	gameID, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.svc.ClosePeek(r.Context(), gameID, user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
