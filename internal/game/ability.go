package game

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/models"
)

// Ability names the effect a discarded 7..14 card grants.
type Ability string

const (
	AbilityNone           Ability = ""
	AbilityLookOwn        Ability = "look_own"
	AbilityLookOpponent   Ability = "look_opponent"
	AbilityBlindSwap      Ability = "blind_swap"
	AbilityLookSwap       Ability = "look_swap"
	AbilityDoubleLookSwap Ability = "double_look_swap"
)

// AbilityFor maps a card value to its ability tier.
func AbilityFor(value int) Ability {
	switch value {
	case 7, 8:
		return AbilityLookOwn
	case 9, 10:
		return AbilityLookOpponent
	case 11, 12:
		return AbilityBlindSwap
	case 13:
		return AbilityLookSwap
	case 14:
		return AbilityDoubleLookSwap
	default:
		return AbilityNone
	}
}

// CanUseAbility reports whether discarding a card of this value offers an ability.
func CanUseAbility(value int) bool {
	return AbilityFor(value) != AbilityNone
}

// Description is the player-facing text for an ability card.
func Description(value int) string {
	switch AbilityFor(value) {
	case AbilityLookOwn:
		return "Look at one of your own cards"
	case AbilityLookOpponent:
		return "Look at one opponent's card"
	case AbilityBlindSwap:
		return "Blind swap any two cards"
	case AbilityLookSwap:
		return "Look at any card and swap it with another"
	case AbilityDoubleLookSwap:
		return "Look at any two cards and swap them"
	default:
		return ""
	}
}

// SelectionCount is the number of selections a confirmed ability needs.
func SelectionCount(a Ability) int {
	switch a {
	case AbilityLookOwn, AbilityLookOpponent:
		return 1
	case AbilityBlindSwap, AbilityLookSwap, AbilityDoubleLookSwap:
		return 2
	default:
		return 0
	}
}

// PreviewLimit is how many cards ability a may reveal before it is confirmed.
func PreviewLimit(a Ability) int {
	switch a {
	case AbilityLookOwn, AbilityLookOpponent, AbilityLookSwap:
		return 1
	case AbilityDoubleLookSwap:
		return 2
	default:
		return 0
	}
}

// confirmsPreview reports whether sels keeps every previewed slot. The card a
// look-and-swap revealed must stay its first selection.
func confirmsPreview(a Ability, previewed []models.HandSlot, sels []Selection) bool {
	for _, slot := range previewed {
		if a == AbilityLookSwap {
			if len(sels) == 0 || models.HandSlot(sels[0]) != slot {
				return false
			}
			continue
		}
		if !slices.ContainsFunc(sels, func(sel Selection) bool { return models.HandSlot(sel) == slot }) {
			return false
		}
	}
	return true
}

// Selection points at one hand slot.
type Selection struct {
	PlayerID  uuid.UUID `json:"player_id"`
	CardIndex int       `json:"card_index"`
}

// AbilityChoice is what the acting player submits to resolve an ability.
type AbilityChoice struct {
	Skip       bool        `json:"skip"`
	Selections []Selection `json:"selections"`
}

// RevealedCard is a hand card shown to the acting player.
type RevealedCard struct {
	Selection
	Card models.Card `json:"card"`
}

// ResultKind tags an AbilityResult.
type ResultKind string

const (
	ResultView ResultKind = "view"
	ResultSwap ResultKind = "swap"
	ResultSkip ResultKind = "skip"
)

// AbilityResult is one of ViewResult, SwapResult or SkipResult.
type AbilityResult interface {
	Kind() ResultKind
	isAbilityResult()
}

// ViewResult reveals cards to the actor only. Persist marks reveals that are
// remembered in the actor's viewed cards.
type ViewResult struct {
	Cards   []RevealedCard `json:"cards"`
	Persist bool           `json:"persist"`
}

// SwapResult exchanges the cards at A and B. Revealed lists the cards the actor
// saw before the swap.
type SwapResult struct {
	A        Selection      `json:"a"`
	B        Selection      `json:"b"`
	Revealed []RevealedCard `json:"revealed,omitempty"`
}

// SkipResult declines the ability.
type SkipResult struct{}

func (ViewResult) Kind() ResultKind { return ResultView }
func (SwapResult) Kind() ResultKind { return ResultSwap }
func (SkipResult) Kind() ResultKind { return ResultSkip }

func (ViewResult) isAbilityResult() {}
func (SwapResult) isAbilityResult() {}
func (SkipResult) isAbilityResult() {}

// checkTarget validates that sel may be picked by actor for ability a and
// returns the card there.
func checkTarget(a Ability, actor uuid.UUID, players []models.Player, sel Selection) (models.Card, error) {
	const action = "use_ability"
	var owner *models.Player
	for i := range players {
		if players[i].UserID == sel.PlayerID {
			owner = &players[i]
			break
		}
	}
	if owner == nil {
		return models.Card{}, illegal(action, "selected player is not in the game")
	}
	if sel.CardIndex < 0 || sel.CardIndex >= len(owner.Hand) {
		return models.Card{}, illegal(action, fmt.Sprintf("card index %d out of range", sel.CardIndex))
	}
	switch a {
	case AbilityLookOwn:
		if sel.PlayerID != actor {
			return models.Card{}, illegal(action, "can only look at your own cards")
		}
	case AbilityLookOpponent:
		if sel.PlayerID == actor {
			return models.Card{}, illegal(action, "can only look at an opponent's cards")
		}
	}
	return owner.Hand[sel.CardIndex], nil
}

// Preview returns the card at sel if ability a lets the actor see it while
// choosing. Blind swaps reveal nothing.
func Preview(value int, actor uuid.UUID, players []models.Player, sel Selection) (RevealedCard, error) {
	a := AbilityFor(value)
	switch a {
	case AbilityNone:
		return RevealedCard{}, illegal("preview_ability", fmt.Sprintf("card value %d has no ability", value))
	case AbilityBlindSwap:
		return RevealedCard{}, illegal("preview_ability", "blind swap cards are not revealed")
	}
	card, err := checkTarget(a, actor, players, sel)
	if err != nil {
		return RevealedCard{}, err
	}
	return RevealedCard{Selection: sel, Card: card}, nil
}

// ResolveAbility validates choice against the tier of value and returns what
// the ability does. It does not modify players.
func ResolveAbility(value int, actor uuid.UUID, players []models.Player, choice AbilityChoice) (AbilityResult, error) {
	a := AbilityFor(value)
	if a == AbilityNone {
		return nil, illegal("use_ability", fmt.Sprintf("card value %d has no ability", value))
	}
	if choice.Skip {
		return SkipResult{}, nil
	}
	if n := SelectionCount(a); len(choice.Selections) != n {
		return nil, illegal("use_ability", fmt.Sprintf("%s needs %d selections, got %d", a, n, len(choice.Selections)))
	}

	revealed := make([]RevealedCard, 0, len(choice.Selections))
	for _, sel := range choice.Selections {
		card, err := checkTarget(a, actor, players, sel)
		if err != nil {
			return nil, err
		}
		revealed = append(revealed, RevealedCard{Selection: sel, Card: card})
	}

	switch a {
	case AbilityLookOwn:
		return ViewResult{Cards: revealed}, nil
	case AbilityLookOpponent:
		return ViewResult{Cards: revealed, Persist: true}, nil
	}

	sa, sb := choice.Selections[0], choice.Selections[1]
	if sa == sb {
		return nil, illegal("use_ability", "cannot swap a card with itself")
	}
	res := SwapResult{A: sa, B: sb}
	switch a {
	case AbilityLookSwap:
		res.Revealed = revealed[:1]
	case AbilityDoubleLookSwap:
		res.Revealed = revealed
	}
	return res, nil
}
