// internal/models/house_rules.go
package models

import "fmt"

// HouseRules captures the table configuration chosen in the lobby.
type HouseRules struct {
	// MaxPlayers caps how many players may join the lobby.
	MaxPlayers int `json:"maxPlayers"`

	// PenaltyDrawCount is how many cards a failed match adds to the target hand.
	PenaltyDrawCount int `json:"penaltyDrawCount"`

	// PeekWindowSec is how long the start-of-round bottom-card peek stays open.
	PeekWindowSec int `json:"peekWindowSec"`

	// ReshuffleDiscardWhenEmpty rebuilds an empty deck from the discard pile, keeping its top card.
	ReshuffleDiscardWhenEmpty bool `json:"reshuffleDiscardWhenEmpty"`

	// LockCallerCards forbids swap abilities from touching the Kombio caller's cards.
	LockCallerCards bool `json:"lockCallerCards"`
}

// DefaultHouseRules returns the standard KOMBIO table rules.
func DefaultHouseRules() HouseRules {
	return HouseRules{
		MaxPlayers:       4,
		PenaltyDrawCount: 1,
		PeekWindowSec:    10,
	}
}

// Update will update the house rules with the new rules provided.
// Keys that are absent or nil are ignored and the old value persists.
func (rules *HouseRules) Update(newRules map[string]interface{}) error {
	assignBool := func(field *bool, key string) error {
		val, exists := newRules[key]
		if !exists || val == nil {
			return nil
		}
		b, ok := val.(bool)
		if !ok {
			return fmt.Errorf("invalid type for %s", key)
		}
		*field = b
		return nil
	}

	assignInt := func(field *int, key string, minVal, maxVal int) error {
		val, exists := newRules[key]
		if !exists || val == nil {
			return nil
		}
		var n int
		switch v := val.(type) {
		case float64: // JSON numbers decode as float64
			n = int(v)
		case int:
			n = v
		default:
			return fmt.Errorf("invalid type for %s", key)
		}
		if n < minVal || n > maxVal {
			return fmt.Errorf("%s must be between %d and %d", key, minVal, maxVal)
		}
		*field = n
		return nil
	}

	// work on a copy so a failing key leaves the rules untouched
	next := *rules
	if err := assignInt(&next.MaxPlayers, "maxPlayers", 2, 4); err != nil {
		return err
	}
	if err := assignInt(&next.PenaltyDrawCount, "penaltyDrawCount", 0, 4); err != nil {
		return err
	}
	if err := assignInt(&next.PeekWindowSec, "peekWindowSec", 1, 60); err != nil {
		return err
	}
	if err := assignBool(&next.ReshuffleDiscardWhenEmpty, "reshuffleDiscardWhenEmpty"); err != nil {
		return err
	}
	if err := assignBool(&next.LockCallerCards, "lockCallerCards"); err != nil {
		return err
	}
	*rules = next
	return nil
}

// ParseRules converts a map of rules to a HouseRules struct starting from current.
func ParseRules(rules map[string]interface{}, current HouseRules) (HouseRules, error) {
	houseRules := current
	err := houseRules.Update(rules)
	return houseRules, err
}

// Validate checks the numeric rules against the ranges Update enforces.
func (rules HouseRules) Validate() error {
	_, err := ParseRules(map[string]interface{}{
		"maxPlayers":       rules.MaxPlayers,
		"penaltyDrawCount": rules.PenaltyDrawCount,
		"peekWindowSec":    rules.PeekWindowSec,
	}, rules)
	return err
}
