// internal/game/sync_state.go
package game

import (
	"slices"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/models"
)

// ObfCard is a card as one viewer sees it. Face-down cards carry only their id.
type ObfCard struct {
	ID    uuid.UUID `json:"id"`
	Known bool      `json:"known"`
	Value *int      `json:"value,omitempty"`
	Idx   int       `json:"idx"`
}

// ObfPlayerState is one seat from the perspective of the requesting user.
type ObfPlayerState struct {
	PlayerID        uuid.UUID `json:"player_id"`
	Order           int       `json:"order"`
	HandSize        int       `json:"hand_size"`
	Hand            []ObfCard `json:"hand"`
	TotalScore      int       `json:"total_score"`
	HasCalledKombio bool      `json:"hasCalledKombio"`
	IsCurrentTurn   bool      `json:"isCurrentTurn"`
	IsHost          bool      `json:"isHost"`
}

// ObfGameState is the snapshot sent to one viewer.
type ObfGameState struct {
	GameID          uuid.UUID           `json:"game_id"`
	Code            string              `json:"code"`
	Status          models.GameStatus   `json:"status"`
	Phase           Phase               `json:"phase"`
	CurrentRound    int                 `json:"currentRound"`
	MaxRounds       int                 `json:"maxRounds"`
	CurrentPlayerID uuid.UUID           `json:"currentPlayerId"`
	DeckSize        int                 `json:"deckSize"`
	DiscardSize     int                 `json:"discardSize"`
	DiscardTop      *ObfCard            `json:"discardTop,omitempty"`
	KombioCallerID  *uuid.UUID          `json:"kombioCallerId,omitempty"`
	KombioLocked    bool                `json:"kombioLocked"`
	CanCallKombio   bool                `json:"canCallKombio"`
	DrawnCard       *ObfCard            `json:"drawnCard,omitempty"`
	Ability         Ability             `json:"ability,omitempty"`
	Players         []ObfPlayerState    `json:"players"`
	Rules           models.HouseRules   `json:"houseRules"`
	LastRoundResult *models.RoundResult `json:"lastRoundResult,omitempty"`
	Standings       []Standing          `json:"standings,omitempty"`
	PeekAllowed     bool                `json:"peekAllowed"`
}

func known(c models.Card, idx int) ObfCard {
	v := c.Value
	return ObfCard{ID: c.ID, Known: true, Value: &v, Idx: idx}
}

// View builds viewer's snapshot of s. Own cards are face down except the
// bottom slots listed in peeked; an opponent card is shown only if viewer
// has viewed it. The pending drawn card is shown to its holder alone.
func View(s *State, viewer uuid.UUID, peeked []int, peekAllowed bool) ObfGameState {
	g := &s.Game
	obf := ObfGameState{
		GameID:          g.ID,
		Code:            g.Code,
		Status:          g.Status,
		Phase:           s.Phase(),
		CurrentRound:    g.CurrentRound,
		MaxRounds:       g.MaxRounds,
		CurrentPlayerID: g.CurrentTurnPlayerID,
		DeckSize:        len(g.Deck),
		DiscardSize:     len(g.DiscardPile),
		KombioCallerID:  g.KombioCallerID,
		KombioLocked:    s.KombioLocked(viewer),
		CanCallKombio:   s.CanCallKombio(viewer),
		Rules:           g.Rules,
		LastRoundResult: g.LastRoundResult.Clone(),
		PeekAllowed:     peekAllowed && g.Status == models.StatusPlaying,
		Players:         make([]ObfPlayerState, 0, len(s.Players)),
	}
	if g.LastDiscardedCard != nil {
		top := known(*g.LastDiscardedCard, len(g.DiscardPile)-1)
		obf.DiscardTop = &top
	}
	if p := g.Pending; p != nil && p.PlayerID == viewer {
		dc := known(p.Card, 0)
		obf.DrawnCard = &dc
		if p.AbilityPending {
			obf.Ability = AbilityFor(p.Card.Value)
		}
	}
	if g.Status == models.StatusFinished {
		obf.Standings = Standings(s)
	}

	me, _ := s.Player(viewer)
	for _, pl := range s.Players {
		ps := ObfPlayerState{
			PlayerID:        pl.UserID,
			Order:           pl.Order,
			HandSize:        len(pl.Hand),
			Hand:            make([]ObfCard, len(pl.Hand)),
			TotalScore:      pl.TotalScore,
			HasCalledKombio: g.IsKombioCaller(pl.UserID),
			IsCurrentTurn:   g.Status == models.StatusPlaying && g.CurrentTurnPlayerID == pl.UserID,
			IsHost:          g.HostID == pl.UserID,
		}
		for j, c := range pl.Hand {
			visible := false
			if pl.UserID == viewer {
				visible = slices.Contains(peeked, j)
			} else if me != nil {
				visible = me.HasViewed(c.ID)
			}
			if visible {
				ps.Hand[j] = known(c, j)
			} else {
				ps.Hand[j] = ObfCard{ID: c.ID, Idx: j}
			}
		}
		obf.Players = append(obf.Players, ps)
	}
	return obf
}
