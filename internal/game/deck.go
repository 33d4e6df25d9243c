// internal/game/deck.go
package game

import (
	"math/rand"

	"github.com/jason-s-yu/kingscup/internal/catalog"
	"github.com/jason-s-yu/kingscup/internal/models"
)

// Deck is one session's working copy of the catalog. Cards leave the deck exactly once
// and are never put back.
// Deck is not safe for concurrent use; the owning Session's lock guards it.
type Deck struct {
	remaining []models.Card
	catalog   *catalog.Catalog
	rng       *rand.Rand
}

// NewDeck copies every catalog card into a fresh deck.
func NewDeck(cat *catalog.Catalog, rng *rand.Rand) *Deck {
	return &Deck{
		remaining: cat.Cards(),
		catalog:   cat,
		rng:       rng,
	}
}

// PickNextCard reshuffles the remaining cards, then removes and returns the last one
// with its rule text attached. Returns ErrEmptyDeck once every card has been drawn.
func (d *Deck) PickNextCard() (models.DrawnCard, error) {
	if len(d.remaining) == 0 {
		return models.DrawnCard{}, ErrEmptyDeck
	}

	d.rng.Shuffle(len(d.remaining), func(i, j int) {
		d.remaining[i], d.remaining[j] = d.remaining[j], d.remaining[i]
	})

	last := len(d.remaining) - 1
	card := d.remaining[last]
	d.remaining = d.remaining[:last]

	drawn := models.DrawnCard{Card: card}
	if action, ok := d.catalog.Action(card.Code); ok {
		drawn.Action = action
	}
	return drawn, nil
}

// Remaining is the number of cards still available to draw.
func (d *Deck) Remaining() int {
	return len(d.remaining)
}
