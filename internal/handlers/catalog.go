// internal/handlers/catalog.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/kingscup/internal/models"
	"github.com/julienschmidt/httprouter"
)

type catalogResponse struct {
	Cards []models.Card     `json:"cards"`
	Rules map[string]string `json:"rules"`
}

// CatalogHandler serves the loaded card catalog so clients can preload artwork.
func CatalogHandler(gs *GameServer) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeJSON(w, http.StatusOK, catalogResponse{
			Cards: gs.Catalog.Cards(),
			Rules: gs.Catalog.Rules(),
		})
	}
}
