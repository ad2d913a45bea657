package store

import (
	"reflect"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/models"
)

// GameField names a column of the games record.
type GameField string

const (
	GameHostID          GameField = "host_id"
	GameStatus          GameField = "status"
	GameCurrentRound    GameField = "current_round"
	GameMaxRounds       GameField = "max_rounds"
	GameCurrentTurn     GameField = "current_turn_player_id"
	GameDeck            GameField = "deck"
	GameDiscardPile     GameField = "discard_pile"
	GameLastDiscarded   GameField = "last_discarded_card"
	GameKombioCaller    GameField = "kombio_caller_id"
	GameFinalTurns      GameField = "final_turns"
	GamePending         GameField = "pending_card"
	GameHouseRules      GameField = "house_rules"
	GameLastRoundResult GameField = "last_round_result"
)

type gameAccessor struct {
	get func(g *models.Game) any
	set func(dst, src *models.Game)
}

var gameFields = map[GameField]gameAccessor{
	GameHostID:          {func(g *models.Game) any { return g.HostID }, func(d, s *models.Game) { d.HostID = s.HostID }},
	GameStatus:          {func(g *models.Game) any { return g.Status }, func(d, s *models.Game) { d.Status = s.Status }},
	GameCurrentRound:    {func(g *models.Game) any { return g.CurrentRound }, func(d, s *models.Game) { d.CurrentRound = s.CurrentRound }},
	GameMaxRounds:       {func(g *models.Game) any { return g.MaxRounds }, func(d, s *models.Game) { d.MaxRounds = s.MaxRounds }},
	GameCurrentTurn:     {func(g *models.Game) any { return g.CurrentTurnPlayerID }, func(d, s *models.Game) { d.CurrentTurnPlayerID = s.CurrentTurnPlayerID }},
	GameDeck:            {func(g *models.Game) any { return g.Deck }, func(d, s *models.Game) { d.Deck = s.Deck }},
	GameDiscardPile:     {func(g *models.Game) any { return g.DiscardPile }, func(d, s *models.Game) { d.DiscardPile = s.DiscardPile }},
	GameLastDiscarded:   {func(g *models.Game) any { return g.LastDiscardedCard }, func(d, s *models.Game) { d.LastDiscardedCard = s.LastDiscardedCard }},
	GameKombioCaller:    {func(g *models.Game) any { return g.KombioCallerID }, func(d, s *models.Game) { d.KombioCallerID = s.KombioCallerID }},
	GameFinalTurns:      {func(g *models.Game) any { return g.FinalTurns }, func(d, s *models.Game) { d.FinalTurns = s.FinalTurns }},
	GamePending:         {func(g *models.Game) any { return g.Pending }, func(d, s *models.Game) { d.Pending = s.Pending }},
	GameHouseRules:      {func(g *models.Game) any { return g.Rules }, func(d, s *models.Game) { d.Rules = s.Rules }},
	GameLastRoundResult: {func(g *models.Game) any { return g.LastRoundResult }, func(d, s *models.Game) { d.LastRoundResult = s.LastRoundResult }},
}

// gameFieldOrder fixes iteration order for diffs and SQL.
var gameFieldOrder = []GameField{
	GameHostID, GameStatus, GameCurrentRound, GameMaxRounds, GameCurrentTurn,
	GameDeck, GameDiscardPile, GameLastDiscarded, GameKombioCaller, GameFinalTurns,
	GamePending, GameHouseRules, GameLastRoundResult,
}

// GamePatch is a partial update of a Game. Only Fields are copied from Game.
type GamePatch struct {
	ExpectVersion int
	Fields        []GameField
	Game          models.Game
}

// Value returns the patched value of f.
func (p GamePatch) Value(f GameField) any {
	return gameFields[f].get(&p.Game)
}

// Apply returns cur with the patch applied and its version bumped. It fails
// with ErrStaleState if cur is not at the expected version.
func (p GamePatch) Apply(cur models.Game) (models.Game, error) {
	if cur.Version != p.ExpectVersion {
		return models.Game{}, ErrStaleState
	}
	out := cur.Clone()
	src := p.Game.Clone()
	for _, f := range p.Fields {
		gameFields[f].set(&out, &src)
	}
	out.Version++
	return out, nil
}

// DiffGame builds the patch turning old into next.
func DiffGame(old, next models.Game) *GamePatch {
	var fields []GameField
	for _, f := range gameFieldOrder {
		acc := gameFields[f]
		if !reflect.DeepEqual(acc.get(&old), acc.get(&next)) {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return &GamePatch{ExpectVersion: old.Version, Fields: fields, Game: next.Clone()}
}

// PlayerField names a column of the game_players record.
type PlayerField string

const (
	PlayerOrder       PlayerField = "player_order"
	PlayerHand        PlayerField = "current_hand"
	PlayerViewedCards PlayerField = "viewed_cards"
	PlayerTotalScore  PlayerField = "total_score"
)

var playerFieldOrder = []PlayerField{PlayerOrder, PlayerHand, PlayerViewedCards, PlayerTotalScore}

// PlayerPatch is a partial update of a Player.
type PlayerPatch struct {
	ExpectVersion int
	Fields        []PlayerField
	Player        models.Player
}

// Value returns the patched value of f.
func (p PlayerPatch) Value(f PlayerField) any {
	switch f {
	case PlayerOrder:
		return p.Player.Order
	case PlayerHand:
		return p.Player.Hand
	case PlayerViewedCards:
		return p.Player.ViewedCardIDs
	case PlayerTotalScore:
		return p.Player.TotalScore
	}
	return nil
}

// Apply returns cur with the patch applied and its version bumped.
func (p PlayerPatch) Apply(cur models.Player) (models.Player, error) {
	if cur.Version != p.ExpectVersion {
		return models.Player{}, ErrStaleState
	}
	out := cur.Clone()
	src := p.Player.Clone()
	for _, f := range p.Fields {
		switch f {
		case PlayerOrder:
			out.Order = src.Order
		case PlayerHand:
			out.Hand = src.Hand
		case PlayerViewedCards:
			out.ViewedCardIDs = src.ViewedCardIDs
		case PlayerTotalScore:
			out.TotalScore = src.TotalScore
		}
	}
	out.Version++
	return out, nil
}

// DiffPlayer builds the patch turning old into next, or nil if nothing changed.
func DiffPlayer(old, next models.Player) *PlayerPatch {
	var fields []PlayerField
	for _, f := range playerFieldOrder {
		a := PlayerPatch{Player: old}.Value(f)
		b := PlayerPatch{Player: next}.Value(f)
		if !reflect.DeepEqual(a, b) {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return &PlayerPatch{ExpectVersion: old.Version, Fields: fields, Player: next.Clone()}
}

// Diff builds the batch that turns the old records into the new ones.
func Diff(oldGame models.Game, oldPlayers []models.Player, newGame models.Game, newPlayers []models.Player) Batch {
	var b Batch
	b.Game = DiffGame(oldGame, newGame)

	before := make(map[uuid.UUID]models.Player, len(oldPlayers))
	for _, p := range oldPlayers {
		before[p.UserID] = p
	}
	after := make(map[uuid.UUID]bool, len(newPlayers))
	for _, p := range newPlayers {
		after[p.UserID] = true
		old, ok := before[p.UserID]
		if !ok {
			b.Created = append(b.Created, p.Clone())
			continue
		}
		if pp := DiffPlayer(old, p); pp != nil {
			b.Players = append(b.Players, *pp)
		}
	}
	for _, p := range oldPlayers {
		if !after[p.UserID] {
			b.Deleted = append(b.Deleted, p.UserID)
		}
	}
	return b
}
