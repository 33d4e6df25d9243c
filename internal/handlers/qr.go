// internal/handlers/qr.go
package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/jason-s-yu/kingscup/internal/game"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

// QRHandler renders a PNG QR code of the join link for a live session.
func QRHandler(gs *GameServer) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := game.NormalizeCode(ps.ByName("gameID"))
		if _, ok := gs.Sessions.Get(gameID); !ok {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}

		png, err := qrcode.Encode(joinURL(r, gs.Options.PublicURL, gameID), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

// joinURL builds the link a phone camera opens to join gameID.
func joinURL(r *http.Request, publicURL, gameID string) string {
	base := strings.TrimSuffix(publicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + "/?game=" + url.QueryEscape(gameID)
}
