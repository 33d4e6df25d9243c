// internal/catalog/catalog.go
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jason-s-yu/kingscup/internal/models"
)

var (
	ErrNoCards       = errors.New("catalog has no cards")
	ErrEmptyCode     = errors.New("card code must not be empty")
	ErrDuplicateCode = errors.New("duplicate card code")
)

// Catalog is the read-only set of playable cards and the rule text for each card code.
// It is built once at startup and shared by every session.
type Catalog struct {
	cards []models.Card
	rules map[string]string
}

// catalogFile is the on-disk JSON shape accepted by LoadFile.
type catalogFile struct {
	Cards []models.Card     `json:"cards"`
	Rules map[string]string `json:"rules"`
}

// New validates cards and returns a catalog holding its own copies of cards and rules.
// Rules for codes that are not in cards are kept; they are simply never drawn.
func New(cards []models.Card, rules map[string]string) (*Catalog, error) {
	if len(cards) == 0 {
		return nil, ErrNoCards
	}
	seen := make(map[string]struct{}, len(cards))
	for i, c := range cards {
		if strings.TrimSpace(c.Code) == "" {
			return nil, fmt.Errorf("card %d: %w", i, ErrEmptyCode)
		}
		if _, dup := seen[c.Code]; dup {
			return nil, fmt.Errorf("card %q: %w", c.Code, ErrDuplicateCode)
		}
		seen[c.Code] = struct{}{}
	}

	cat := &Catalog{
		cards: make([]models.Card, len(cards)),
		rules: make(map[string]string, len(rules)),
	}
	copy(cat.cards, cards)
	for code, text := range rules {
		cat.rules[code] = text
	}
	return cat, nil
}

// LoadFile reads a catalog from a JSON file of the form {"cards": [...], "rules": {...}}.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	var f catalogFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}
	cat, err := New(f.Cards, f.Rules)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog file %s: %w", path, err)
	}
	return cat, nil
}

// Cards returns a fresh copy of every card, suitable as a deck's working set.
func (c *Catalog) Cards() []models.Card {
	out := make([]models.Card, len(c.cards))
	copy(out, c.cards)
	return out
}

// Rules returns a copy of the code -> action text mapping.
func (c *Catalog) Rules() map[string]string {
	out := make(map[string]string, len(c.rules))
	for code, text := range c.rules {
		out[code] = text
	}
	return out
}

// Action looks up the rule text for a card code.
func (c *Catalog) Action(code string) (string, bool) {
	text, ok := c.rules[code]
	return text, ok
}

// Size is the number of cards in the catalog.
func (c *Catalog) Size() int {
	return len(c.cards)
}

// Contains reports whether code names a card in the catalog.
func (c *Catalog) Contains(code string) bool {
	for _, card := range c.cards {
		if card.Code == code {
			return true
		}
	}
	return false
}
