package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// GameStatus only moves forward: lobby -> playing -> finished.
type GameStatus string

const (
	StatusLobby    GameStatus = "lobby"
	StatusPlaying  GameStatus = "playing"
	StatusFinished GameStatus = "finished"
)

// DrawSource tells where a pending drawn card came from.
type DrawSource string

const (
	SourceDeck    DrawSource = "deck"
	SourceDiscard DrawSource = "discard"
)

// HandSlot addresses one card position in a player's hand.
type HandSlot struct {
	PlayerID  uuid.UUID `json:"player_id"`
	CardIndex int       `json:"card_index"`
}

// PendingCard is the drawn card held by the current player before it is
// swapped into the hand or discarded. It belongs to no hand.
type PendingCard struct {
	PlayerID uuid.UUID  `json:"player_id"`
	Card     Card       `json:"card"`
	Source   DrawSource `json:"source"`

	// AbilityPending is set once the holder chose to discard an ability card
	// and has not yet confirmed or skipped the ability.
	AbilityPending bool `json:"ability_pending"`

	// Previewed lists the slots already revealed to the holder while choosing
	// ability targets.
	Previewed []HandSlot `json:"previewed,omitempty"`
}

// PlayerRoundScore is one line of a round-end summary.
type PlayerRoundScore struct {
	PlayerID         uuid.UUID `json:"player_id"`
	HandScore        int       `json:"hand_score"`
	Special          *int      `json:"special,omitempty"`
	KombioAdjustment int       `json:"kombio_adjustment"`
	RoundScore       int       `json:"round_score"`
	Total            int       `json:"total"`

	// Hand is the hand as it was scored.
	Hand []Card `json:"hand"`
}

// RoundResult summarises a scored round.
type RoundResult struct {
	Round    int                `json:"round"`
	CallerID *uuid.UUID         `json:"caller_id,omitempty"`
	Lowest   int                `json:"lowest"`
	Success  bool               `json:"success"`
	Scores   []PlayerRoundScore `json:"scores"`
}

// Clone returns a deep copy of the result.
func (r *RoundResult) Clone() *RoundResult {
	if r == nil {
		return nil
	}
	out := *r
	if r.CallerID != nil {
		id := *r.CallerID
		out.CallerID = &id
	}
	out.Scores = make([]PlayerRoundScore, len(r.Scores))
	for i, s := range r.Scores {
		if s.Special != nil {
			v := *s.Special
			s.Special = &v
		}
		s.Hand = CloneCards(s.Hand)
		out.Scores[i] = s
	}
	return &out
}

// Game is the shared table record.
type Game struct {
	ID     uuid.UUID  `json:"id"`
	Code   string     `json:"code"`
	HostID uuid.UUID  `json:"host_id"`
	Status GameStatus `json:"status"`

	CurrentRound int `json:"current_round"`
	MaxRounds    int `json:"max_rounds"`

	// CurrentTurnPlayerID is uuid.Nil outside of play.
	CurrentTurnPlayerID uuid.UUID `json:"current_turn_player_id"`

	// Deck is a stack: the last element is the top card.
	Deck              []Card `json:"deck"`
	DiscardPile       []Card `json:"discard_pile"`
	LastDiscardedCard *Card  `json:"last_discarded_card"`

	KombioCallerID *uuid.UUID `json:"kombio_caller_id"`

	// FinalTurns records non-callers who completed their last turn after a Kombio call.
	FinalTurns []uuid.UUID `json:"final_turns"`

	Pending *PendingCard `json:"pending_card"`

	Rules           HouseRules   `json:"house_rules"`
	LastRoundResult *RoundResult `json:"last_round_result"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the game.
func (g Game) Clone() Game {
	g.Deck = CloneCards(g.Deck)
	g.DiscardPile = CloneCards(g.DiscardPile)
	if g.LastDiscardedCard != nil {
		c := *g.LastDiscardedCard
		g.LastDiscardedCard = &c
	}
	if g.KombioCallerID != nil {
		id := *g.KombioCallerID
		g.KombioCallerID = &id
	}
	if g.FinalTurns != nil {
		g.FinalTurns = slices.Clone(g.FinalTurns)
	}
	if g.Pending != nil {
		p := *g.Pending
		p.Previewed = slices.Clone(p.Previewed)
		g.Pending = &p
	}
	g.LastRoundResult = g.LastRoundResult.Clone()
	return g
}

// IsKombioCaller reports whether userID called Kombio this round.
func (g *Game) IsKombioCaller(userID uuid.UUID) bool {
	return g.KombioCallerID != nil && *g.KombioCallerID == userID
}
