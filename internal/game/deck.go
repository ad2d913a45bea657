package game

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/models"
)

// HandSize is the number of cards dealt to each player.
const HandSize = 4

// deckComposition maps card value to copies in the 70-card deck.
var deckComposition = func() map[int]int {
	counts := map[int]int{-1: 3, 0: 3, 13: 2, 14: 2}
	for v := 1; v <= 12; v++ {
		counts[v] = 5
	}
	return counts
}()

// DeckSize is the size of a freshly built deck.
const DeckSize = 70

// BuildDeck constructs the unshuffled 70-card deck, each card with a fresh id.
// Cards are ordered by value.
func BuildDeck() []models.Card {
	deck := make([]models.Card, 0, DeckSize)
	for v := -1; v <= 14; v++ {
		for i := 0; i < deckComposition[v]; i++ {
			deck = append(deck, models.Card{ID: uuid.New(), Value: v})
		}
	}
	return deck
}

// Shuffle returns a uniformly random permutation of deck using Fisher-Yates.
// The input slice is not modified.
func Shuffle(r *rand.Rand, deck []models.Card) []models.Card {
	out := models.CloneCards(deck)
	for i := len(out) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Deal hands out HandSize cards to each of playerCount players from the front
// of the deck, in turn order. Draws later pop from the back.
func Deal(deck []models.Card, playerCount int) ([][]models.Card, []models.Card, error) {
	need := playerCount * HandSize
	if len(deck) < need {
		return nil, nil, &InsufficientCardsError{Need: need, Have: len(deck)}
	}
	hands := make([][]models.Card, playerCount)
	for i := range hands {
		hands[i] = models.CloneCards(deck[i*HandSize : (i+1)*HandSize])
	}
	return hands, models.CloneCards(deck[need:]), nil
}

func popCard(cards []models.Card) (models.Card, []models.Card) {
	last := len(cards) - 1
	return cards[last], cards[:last]
}
