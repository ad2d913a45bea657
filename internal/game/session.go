package game

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/models"
)

const (
	MinPlayers   = 2
	MinMaxRounds = 1
	MaxMaxRounds = 10
)

// NewGame opens a lobby hosted by hostID, who joins with order 0.
func NewGame(hostID uuid.UUID, code string, maxRounds int, rules models.HouseRules, now time.Time) *State {
	id := uuid.New()
	return &State{
		Game: models.Game{
			ID:          id,
			Code:        code,
			HostID:      hostID,
			Status:      models.StatusLobby,
			MaxRounds:   clampRounds(maxRounds),
			Deck:        []models.Card{},
			DiscardPile: []models.Card{},
			Rules:       rules,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		Players: []models.Player{newPlayer(id, hostID, 0)},
	}
}

func newPlayer(gameID, userID uuid.UUID, order int) models.Player {
	return models.Player{
		GameID:        gameID,
		UserID:        userID,
		Order:         order,
		Hand:          []models.Card{},
		ViewedCardIDs: []uuid.UUID{},
	}
}

func clampRounds(n int) int {
	return min(max(n, MinMaxRounds), MaxMaxRounds)
}

// Join seats userID in the lobby. Joining twice is a no-op.
func (e *Engine) Join(s *State, userID uuid.UUID) (*State, []Event, error) {
	if _, ok := s.Player(userID); ok {
		return s.Clone(), nil, nil
	}
	if s.Game.Status != models.StatusLobby {
		return nil, nil, illegal("join", "game already started")
	}
	if len(s.Players) >= s.Game.Rules.MaxPlayers {
		return nil, nil, ErrGameFull
	}
	next := s.Clone()
	order := 0
	if n := len(next.Players); n > 0 {
		order = next.Players[n-1].Order + 1
	}
	next.Players = append(next.Players, newPlayer(next.Game.ID, userID, order))
	return next, []Event{{Type: EventPlayerJoined, User: eventUser(userID)}}, nil
}

// Leave removes userID. A lobby is re-ordered and passes the host on; an empty
// lobby, or any game in play, is finished. A finished game keeps its players.
func (e *Engine) Leave(s *State, userID uuid.UUID) (*State, []Event, error) {
	i := s.playerIndex(userID)
	if i < 0 {
		return nil, nil, ErrPlayerNotFound
	}
	if s.Game.Status == models.StatusFinished {
		return nil, nil, illegal("leave", "game is finished")
	}
	next := s.Clone()
	next.Players = slices.Delete(next.Players, i, i+1)
	events := []Event{{Type: EventPlayerLeft, User: eventUser(userID)}}

	switch next.Game.Status {
	case models.StatusLobby:
		for j := range next.Players {
			next.Players[j].Order = j
		}
		if len(next.Players) == 0 {
			next.Game.Status = models.StatusFinished
			events = append(events, Event{Type: EventGameEnd})
		} else if next.Game.HostID == userID {
			next.Game.HostID = next.Players[0].UserID
		}
	case models.StatusPlaying:
		next.Game.Status = models.StatusFinished
		next.Game.CurrentTurnPlayerID = uuid.Nil
		next.Game.Pending = nil
		events = append(events, Event{Type: EventGameEnd, Round: next.Game.CurrentRound, Special: "player_left"})
	}
	return next, events, nil
}

func requireHostInLobby(s *State, actor uuid.UUID, action string) error {
	if s.Game.HostID != actor {
		return ErrNotHost
	}
	if s.Game.Status != models.StatusLobby {
		return illegal(action, "game already started")
	}
	return nil
}

// SetMaxRounds sets the round limit, clamped to [1,10].
func (e *Engine) SetMaxRounds(s *State, actor uuid.UUID, n int) (*State, []Event, error) {
	if err := requireHostInLobby(s, actor, "set_max_rounds"); err != nil {
		return nil, nil, err
	}
	next := s.Clone()
	next.Game.MaxRounds = clampRounds(n)
	return next, []Event{{
		Type:    EventRulesUpdated,
		User:    eventUser(actor),
		Payload: map[string]interface{}{"maxRounds": next.Game.MaxRounds},
	}}, nil
}

// UpdateRules applies lobby house-rule changes.
func (e *Engine) UpdateRules(s *State, actor uuid.UUID, changes map[string]interface{}) (*State, []Event, error) {
	if err := requireHostInLobby(s, actor, "update_rules"); err != nil {
		return nil, nil, err
	}
	rules, err := models.ParseRules(changes, s.Game.Rules)
	if err != nil {
		return nil, nil, illegal("update_rules", err.Error())
	}
	if rules.MaxPlayers < len(s.Players) {
		return nil, nil, illegal("update_rules", "more players seated than maxPlayers")
	}
	next := s.Clone()
	next.Game.Rules = rules
	return next, []Event{{Type: EventRulesUpdated, User: eventUser(actor), Payload: changes}}, nil
}

// Start deals round 1.
func (e *Engine) Start(s *State, actor uuid.UUID) (*State, []Event, error) {
	if err := requireHostInLobby(s, actor, "start"); err != nil {
		return nil, nil, err
	}
	if len(s.Players) < MinPlayers {
		return nil, nil, illegal("start", "need at least 2 players")
	}
	next := s.Clone()
	next.Game.Status = models.StatusPlaying
	next.Game.LastRoundResult = nil
	for i := range next.Players {
		next.Players[i].TotalScore = 0
	}
	more, err := e.startRound(next, 1)
	if err != nil {
		return nil, nil, err
	}
	events := []Event{{Type: EventGameStarted, User: eventUser(actor)}}
	return next, append(events, more...), nil
}

// Standing is a player's place in the game. Lower totals win; ties share a rank.
type Standing struct {
	PlayerID   uuid.UUID `json:"player_id"`
	TotalScore int       `json:"total_score"`
	Rank       int       `json:"rank"`
}

// Standings ranks players by ascending total score.
func Standings(s *State) []Standing {
	out := make([]Standing, len(s.Players))
	for i, p := range s.Players {
		out[i] = Standing{PlayerID: p.UserID, TotalScore: p.TotalScore}
	}
	slices.SortStableFunc(out, func(a, b Standing) int { return a.TotalScore - b.TotalScore })
	for i := range out {
		if i > 0 && out[i].TotalScore == out[i-1].TotalScore {
			out[i].Rank = out[i-1].Rank
		} else {
			out[i].Rank = i + 1
		}
	}
	return out
}
