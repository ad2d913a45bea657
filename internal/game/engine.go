package game

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/jason-s-yu/kombio/internal/models"
)

// Engine runs game transitions. The only state it carries is its random
// source, used for shuffles and game codes; everything else lives in the
// State passed to each call.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine returns an engine seeded with seed. A zero seed uses the clock.
func NewEngine(seed int64) *Engine {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{rng: rand.New(rand.NewSource(seed))}
}

func (e *Engine) shuffledDeck() []models.Card {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Shuffle(e.rng, BuildDeck())
}

func (e *Engine) shuffle(cards []models.Card) []models.Card {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Shuffle(e.rng, cards)
}

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// CodeLength is the length of a join code.
const CodeLength = 6

// GenerateCode returns a random join code of uppercase base-36 characters.
func (e *Engine) GenerateCode() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var b strings.Builder
	for i := 0; i < CodeLength; i++ {
		b.WriteByte(codeAlphabet[e.rng.Intn(len(codeAlphabet))])
	}
	return b.String()
}
