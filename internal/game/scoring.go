package game

import (
	"slices"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/models"
)

const (
	doubleFourteenScore = -15
	fourteenTwentyFive  = -10
	failedKombioPenalty = 15
	successKombioBonus  = 10
)

// CalculateHandScore sums the card values of a hand.
func CalculateHandScore(hand []models.Card) int {
	total := 0
	for _, c := range hand {
		total += c.Value
	}
	return total
}

// CheckSpecialScoring returns the score overriding the plain sum for special
// hands: exactly two 14s score -15, and any hand holding a 14 that sums to 25
// scores -10.
func CheckSpecialScoring(hand []models.Card) (int, bool) {
	has14 := slices.ContainsFunc(hand, func(c models.Card) bool { return c.Value == 14 })
	if !has14 {
		return 0, false
	}
	if len(hand) == 2 && hand[0].Value == 14 && hand[1].Value == 14 {
		return doubleFourteenScore, true
	}
	if CalculateHandScore(hand) == 25 {
		return fourteenTwentyFive, true
	}
	return 0, false
}

func handScore(hand []models.Card) int {
	if v, ok := CheckSpecialScoring(hand); ok {
		return v
	}
	return CalculateHandScore(hand)
}

// ScoreRound scores every player's hand. With a Kombio caller, a caller above
// the table minimum takes +15; otherwise every other player takes +10, even
// players tied with the caller. Total is the player's TotalScore plus the
// round score.
func ScoreRound(round int, players []models.Player, callerID *uuid.UUID) models.RoundResult {
	res := models.RoundResult{Round: round, Scores: make([]models.PlayerRoundScore, len(players))}
	if callerID != nil {
		id := *callerID
		res.CallerID = &id
	}

	lowest := 0
	callerScore, haveCaller := 0, false
	for i, p := range players {
		sc := models.PlayerRoundScore{
			PlayerID:  p.UserID,
			HandScore: CalculateHandScore(p.Hand),
			Hand:      models.CloneCards(p.Hand),
		}
		if v, ok := CheckSpecialScoring(p.Hand); ok {
			sc.Special = &v
		}
		sc.RoundScore = handScore(p.Hand)
		if i == 0 || sc.RoundScore < lowest {
			lowest = sc.RoundScore
		}
		if callerID != nil && p.UserID == *callerID {
			callerScore, haveCaller = sc.RoundScore, true
		}
		res.Scores[i] = sc
	}
	res.Lowest = lowest

	if haveCaller {
		res.Success = callerScore <= lowest
		for i := range res.Scores {
			sc := &res.Scores[i]
			isCaller := sc.PlayerID == *callerID
			switch {
			case isCaller && !res.Success:
				sc.KombioAdjustment = failedKombioPenalty
			case !isCaller && res.Success:
				sc.KombioAdjustment = successKombioBonus
			}
			sc.RoundScore += sc.KombioAdjustment
		}
	}

	for i, p := range players {
		res.Scores[i].Total = p.TotalScore + res.Scores[i].RoundScore
	}
	return res
}
