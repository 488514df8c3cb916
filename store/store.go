// Package store persists the operator's card collection.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"easybingo/card"
)

// ErrCorrupt is returned when stored data cannot be decoded as cards.
var ErrCorrupt = errors.New("card store corrupt")

// Store keeps an ordered list of cards. Save replaces the whole list.
type Store interface {
	Load(ctx context.Context) ([]card.Card, error)
	Save(ctx context.Context, cards []card.Card) error
}

func decode(data []byte) ([]card.Card, error) {
	var cards []card.Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return cards, nil
}

func encode(cards []card.Card) ([]byte, error) {
	if cards == nil {
		cards = []card.Card{}
	}
	return json.Marshal(cards)
}

// Append loads the collection, adds cards at the end and saves it.
func Append(ctx context.Context, s Store, cards ...card.Card) ([]card.Card, error) {
	all, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	all = append(all, cards...)
	if err := s.Save(ctx, all); err != nil {
		return nil, err
	}
	return all, nil
}

// Delete removes the card at index i (0-based).
func Delete(ctx context.Context, s Store, i int) ([]card.Card, error) {
	all, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(all) {
		return nil, fmt.Errorf("no card %d (have %d)", i+1, len(all))
	}
	all = append(all[:i], all[i+1:]...)
	if err := s.Save(ctx, all); err != nil {
		return nil, err
	}
	return all, nil
}
