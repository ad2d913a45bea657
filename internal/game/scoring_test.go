package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateHandScore(t *testing.T) {
	assert.Equal(t, 8, CalculateHandScore(cards(3, 5)))
	assert.Equal(t, 0, CalculateHandScore(nil))
	assert.Equal(t, -1, CalculateHandScore(cards(-1, 0)))
}

func TestCheckSpecialScoring(t *testing.T) {
	v, ok := CheckSpecialScoring(cards(14, 14))
	require.True(t, ok)
	assert.Equal(t, -15, v)

	v, ok = CheckSpecialScoring(cards(14, 11))
	require.True(t, ok)
	assert.Equal(t, -10, v)

	v, ok = CheckSpecialScoring(cards(14, 5, 6))
	require.True(t, ok, "a 14 plus anything summing to 25")
	assert.Equal(t, -10, v)

	_, ok = CheckSpecialScoring(cards(5, 5))
	assert.False(t, ok)

	_, ok = CheckSpecialScoring(cards(14, 14, 1))
	assert.False(t, ok, "three cards with two 14s is a plain 29")

	_, ok = CheckSpecialScoring(cards(12, 13))
	assert.False(t, ok, "25 without a 14 is not special")
}

func scoredPlayers(hands ...[]int) []models.Player {
	out := make([]models.Player, len(hands))
	for i, h := range hands {
		out[i] = models.Player{UserID: uuid.New(), Order: i, Hand: cards(h...)}
	}
	return out
}

func TestScoreRoundKombioSuccess(t *testing.T) {
	players := scoredPlayers([]int{1, 3}, []int{2, 5}, []int{4, 0})
	caller := players[0].UserID

	res := ScoreRound(2, players, &caller)
	require.Len(t, res.Scores, 3)
	assert.True(t, res.Success)
	assert.Equal(t, 4, res.Lowest)
	assert.Equal(t, 2, res.Round)

	assert.Equal(t, 4, res.Scores[0].RoundScore, "caller at the minimum is unmodified")
	assert.Equal(t, 0, res.Scores[0].KombioAdjustment)
	assert.Equal(t, 17, res.Scores[1].RoundScore)
	assert.Equal(t, 14, res.Scores[2].RoundScore, "+10 even when tied with the caller")
	assert.Equal(t, 10, res.Scores[2].KombioAdjustment)
}

func TestScoreRoundKombioFailure(t *testing.T) {
	players := scoredPlayers([]int{5, 5}, []int{1, 2}, []int{6, 6})
	players[1].TotalScore = 7
	caller := players[0].UserID

	res := ScoreRound(1, players, &caller)
	assert.False(t, res.Success)
	assert.Equal(t, 3, res.Lowest)
	assert.Equal(t, 25, res.Scores[0].RoundScore)
	assert.Equal(t, 15, res.Scores[0].KombioAdjustment)
	assert.Equal(t, 3, res.Scores[1].RoundScore)
	assert.Equal(t, 10, res.Scores[1].Total)
	assert.Equal(t, 12, res.Scores[2].RoundScore)
}

func TestScoreRoundSpecialHandBeforeKombio(t *testing.T) {
	players := scoredPlayers([]int{14, 14}, []int{0, 1})
	caller := players[1].UserID

	res := ScoreRound(1, players, &caller)
	require.NotNil(t, res.Scores[0].Special)
	assert.Equal(t, -15, *res.Scores[0].Special)
	assert.Equal(t, 28, res.Scores[0].HandScore)
	assert.Equal(t, -15, res.Lowest)
	assert.False(t, res.Success)
	assert.Equal(t, 16, res.Scores[1].RoundScore)
	assert.Equal(t, -15, res.Scores[0].RoundScore)
}

func TestScoreRoundWithoutCaller(t *testing.T) {
	players := scoredPlayers([]int{3, 4}, []int{9})
	res := ScoreRound(1, players, nil)
	assert.Nil(t, res.CallerID)
	assert.Equal(t, 7, res.Scores[0].RoundScore)
	assert.Equal(t, 9, res.Scores[1].RoundScore)
}
