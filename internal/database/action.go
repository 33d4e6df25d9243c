// internal/database/action.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/kingscup/internal/models"
)

// ActionStore appends session actions to the session_actions table.
type ActionStore struct {
	pool *pgxpool.Pool
}

func NewActionStore(pool *pgxpool.Pool) *ActionStore {
	return &ActionStore{pool: pool}
}

// InsertActions writes a batch in one transaction. Actions already stored are skipped,
// so a retried batch does not duplicate rows.
func (s *ActionStore) InsertActions(ctx context.Context, actions []models.SessionAction) error {
	if len(actions) == 0 {
		return nil
	}
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, a := range actions {
			if err := insertActionTx(ctx, tx, a); err != nil {
				return fmt.Errorf("insert action %s/%d: %w", a.SessionID, a.ActionIndex, err)
			}
		}
		return nil
	})
}

func insertActionTx(ctx context.Context, tx pgx.Tx, a models.SessionAction) error {
	payload, err := json.Marshal(a.Payload)
	if err != nil {
		return err
	}
	q := `
		INSERT INTO session_actions (
			id, session_id, action_index, actor, action_type, action_payload, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = tx.Exec(ctx, q,
		a.ID, a.SessionID, a.ActionIndex, a.Actor, a.ActionType, payload, time.UnixMilli(a.Timestamp).UTC(),
	)
	return err
}
