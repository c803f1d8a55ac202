package models

import (
	"errors"
	"fmt"
)

const (
	CardRows = 3
	CardCols = 5
	// FreeCell is the value of the always-marked cell.
	FreeCell = 0
)

var ErrInvalidCard = errors.New("invalid card layout")

// Card is a purchased ticket for a round. Immutable once issued.
type Card struct {
	CardID  string                  `json:"card_id"`
	RoundID int64                   `json:"round_id"`
	Numbers [CardRows][CardCols]int `json:"numbers"`
}

// CardFromFlat builds a card from 15 row-major numbers.
func CardFromFlat(cardID string, roundID int64, numbers []int) (Card, error) {
	if len(numbers) != CardRows*CardCols {
		return Card{}, fmt.Errorf("%w: want %d numbers, got %d", ErrInvalidCard, CardRows*CardCols, len(numbers))
	}

	card := Card{CardID: cardID, RoundID: roundID}
	free := 0
	seen := make(map[int]bool, len(numbers))
	for i, n := range numbers {
		if n == FreeCell {
			free++
		} else {
			if n < 1 || n > BallCount || seen[n] {
				return Card{}, fmt.Errorf("%w: bad number %d", ErrInvalidCard, n)
			}
			seen[n] = true
		}
		card.Numbers[i/CardCols][i%CardCols] = n
	}
	if free != 1 {
		return Card{}, fmt.Errorf("%w: want exactly one free cell, got %d", ErrInvalidCard, free)
	}
	return card, nil
}

// Flat returns the numbers in row-major order.
func (c Card) Flat() []int {
	out := make([]int, 0, CardRows*CardCols)
	for _, row := range c.Numbers {
		out = append(out, row[:]...)
	}
	return out
}
