package game

import (
	"slices"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/models"
)

// Phase is the turn-level state derived from a Game record.
type Phase string

const (
	PhaseLobby            Phase = "lobby"
	PhaseAwaitingDraw     Phase = "awaiting_draw"
	PhaseAwaitingDisposal Phase = "awaiting_disposal"
	PhaseAwaitingAbility  Phase = "awaiting_ability"
	PhaseFinished         Phase = "finished"
)

// State is the explicit value every transition reads and returns: one Game
// record and its Player records ordered by turn order.
type State struct {
	Game    models.Game
	Players []models.Player
}

// NewState builds a State from store records, copying them and sorting the
// players by Order.
func NewState(g models.Game, players []models.Player) *State {
	s := &State{Game: g.Clone(), Players: make([]models.Player, len(players))}
	for i, p := range players {
		s.Players[i] = p.Clone()
	}
	slices.SortStableFunc(s.Players, func(a, b models.Player) int {
		return a.Order - b.Order
	})
	return s
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	out := &State{Game: s.Game.Clone(), Players: make([]models.Player, len(s.Players))}
	for i, p := range s.Players {
		out.Players[i] = p.Clone()
	}
	return out
}

// Phase derives the current turn phase.
func (s *State) Phase() Phase {
	switch s.Game.Status {
	case models.StatusLobby:
		return PhaseLobby
	case models.StatusFinished:
		return PhaseFinished
	}
	switch {
	case s.Game.Pending == nil:
		return PhaseAwaitingDraw
	case s.Game.Pending.AbilityPending:
		return PhaseAwaitingAbility
	default:
		return PhaseAwaitingDisposal
	}
}

func (s *State) playerIndex(userID uuid.UUID) int {
	return slices.IndexFunc(s.Players, func(p models.Player) bool { return p.UserID == userID })
}

// Player returns a pointer into s.Players for userID.
func (s *State) Player(userID uuid.UUID) (*models.Player, bool) {
	i := s.playerIndex(userID)
	if i < 0 {
		return nil, false
	}
	return &s.Players[i], true
}

// CurrentPlayer returns the player whose turn it is.
func (s *State) CurrentPlayer() (*models.Player, bool) {
	if s.Game.CurrentTurnPlayerID == uuid.Nil {
		return nil, false
	}
	return s.Player(s.Game.CurrentTurnPlayerID)
}

// IsTurn reports whether it is userID's turn in a game being played.
func (s *State) IsTurn(userID uuid.UUID) bool {
	return s.Game.Status == models.StatusPlaying && s.Game.CurrentTurnPlayerID == userID
}

// KombioLocked reports whether userID is barred from drawing, swapping or
// discarding because of a Kombio call. The caller is always locked. Other
// players are locked once they have taken the final turn the call grants
// them, except in two-player games where the non-caller is never locked.
func (s *State) KombioLocked(userID uuid.UUID) bool {
	caller := s.Game.KombioCallerID
	if caller == nil {
		return false
	}
	if *caller == userID {
		return true
	}
	return len(s.Players) > 2 && slices.Contains(s.Game.FinalTurns, userID)
}

// CanCallKombio reports whether userID may call Kombio right now.
func (s *State) CanCallKombio(userID uuid.UUID) bool {
	return s.IsTurn(userID) && s.Phase() == PhaseAwaitingDraw &&
		s.Game.KombioCallerID == nil && !s.KombioLocked(userID)
}

// CardIDs lists every card id on the table: deck, hands, discard pile and the
// pending drawn card.
func (s *State) CardIDs() []uuid.UUID {
	ids := models.CardIDs(s.Game.Deck)
	for _, p := range s.Players {
		ids = append(ids, models.CardIDs(p.Hand)...)
	}
	ids = append(ids, models.CardIDs(s.Game.DiscardPile)...)
	if s.Game.Pending != nil {
		ids = append(ids, s.Game.Pending.Card.ID)
	}
	return ids
}
