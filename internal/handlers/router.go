// internal/handlers/router.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jason-s-yu/kingscup/internal/middleware"
	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

// NewRouter registers every HTTP and websocket route on a fresh router wrapped in
// request logging.
func NewRouter(logger *logrus.Logger, gs *GameServer) http.Handler {
	mux := httprouter.New()

	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, i any) {
		logger.WithFields(logrus.Fields{"path": r.URL.Path, "panic": i}).Error("handler panicked")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}

	mux.Handler(http.MethodGet, "/ws", GameWSHandler(logger, gs))
	mux.GET("/healthz", HealthHandler)
	mux.GET("/cards", CatalogHandler(gs))
	mux.GET("/game/:gameID/qr", QRHandler(gs))
	mux.POST("/decks", CreateDeckHandler(logger, gs))
	mux.GET("/decks", ListDecksHandler(logger, gs))

	if gs.Options.ImageDir != "" {
		mux.ServeFiles("/images/*filepath", http.Dir(gs.Options.ImageDir))
	}

	return middleware.LogMiddleware(logger)(mux)
}

// HealthHandler answers liveness probes.
func HealthHandler(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
