// internal/database/deck.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/kingscup/internal/models"
)

// DeckStore keeps custom decks in the custom_decks table.
type DeckStore struct {
	pool *pgxpool.Pool
}

func NewDeckStore(pool *pgxpool.Pool) *DeckStore {
	return &DeckStore{pool: pool}
}

// InsertDeck stores a new deck.
func (s *DeckStore) InsertDeck(ctx context.Context, deck *models.CustomDeck) error {
	cards, err := json.Marshal(deck.Cards)
	if err != nil {
		return fmt.Errorf("marshal cards: %w", err)
	}
	rules, err := json.Marshal(deck.Rules)
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}

	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO custom_decks (id, name, cards, rules, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`
		_, err := tx.Exec(ctx, q, deck.ID, deck.Name, cards, rules, deck.CreatedAt)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert deck %s: %w", deck.ID, err)
	}
	return nil
}

// ListDecks returns every deck, newest first.
func (s *DeckStore) ListDecks(ctx context.Context) ([]models.CustomDeck, error) {
	q := `
		SELECT id, name, cards, rules, created_at
		FROM custom_decks
		ORDER BY created_at DESC
	`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query decks: %w", err)
	}
	defer rows.Close()

	var decks []models.CustomDeck
	for rows.Next() {
		var d models.CustomDeck
		var cards, rules []byte
		if err := rows.Scan(&d.ID, &d.Name, &cards, &rules, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan deck: %w", err)
		}
		if err := json.Unmarshal(cards, &d.Cards); err != nil {
			return nil, fmt.Errorf("decode cards of deck %s: %w", d.ID, err)
		}
		if err := json.Unmarshal(rules, &d.Rules); err != nil {
			return nil, fmt.Errorf("decode rules of deck %s: %w", d.ID, err)
		}
		decks = append(decks, d)
	}
	return decks, rows.Err()
}
