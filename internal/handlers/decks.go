// internal/handlers/decks.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kingscup/internal/catalog"
	"github.com/jason-s-yu/kingscup/internal/models"
	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

// DeckStore persists custom decks. The Postgres store implements it.
type DeckStore interface {
	InsertDeck(ctx context.Context, deck *models.CustomDeck) error
	ListDecks(ctx context.Context) ([]models.CustomDeck, error)
}

type createDeckRequest struct {
	Name  string            `json:"name"`
	Cards []models.Card     `json:"cards"`
	Rules map[string]string `json:"rules"`
}

// CreateDeckHandler validates and stores a named custom deck.
func CreateDeckHandler(logger *logrus.Logger, gs *GameServer) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if gs.Decks == nil {
			http.Error(w, "deck storage is not configured", http.StatusServiceUnavailable)
			return
		}

		var req createDeckRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad deck request payload", http.StatusBadRequest)
			return
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			http.Error(w, "deck name is required", http.StatusBadRequest)
			return
		}
		cat, err := catalog.New(req.Cards, req.Rules)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		deck := &models.CustomDeck{
			ID:        uuid.New(),
			Name:      name,
			Cards:     cat.Cards(),
			Rules:     cat.Rules(),
			CreatedAt: time.Now().UTC(),
		}
		if err := gs.Decks.InsertDeck(r.Context(), deck); err != nil {
			logger.WithError(err).Error("failed to insert custom deck")
			http.Error(w, "failed to store deck", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, deck)
	}
}

// ListDecksHandler returns every stored deck, newest first.
func ListDecksHandler(logger *logrus.Logger, gs *GameServer) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if gs.Decks == nil {
			http.Error(w, "deck storage is not configured", http.StatusServiceUnavailable)
			return
		}
		decks, err := gs.Decks.ListDecks(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to list custom decks")
			http.Error(w, "failed to list decks", http.StatusInternalServerError)
			return
		}
		if decks == nil {
			decks = []models.CustomDeck{}
		}
		writeJSON(w, http.StatusOK, decks)
	}
}
