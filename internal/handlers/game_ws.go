// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/kingscup/internal/game"
	"github.com/jason-s-yu/kingscup/internal/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Subprotocol is accepted when offered but not required.
const Subprotocol = "kingscup"

// GameWSHandler upgrades the connection and runs the realtime protocol for it until the
// client goes away. A client is not tied to any session until it sends createGame or joinGame.
func GameWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.WithError(err).Warn("websocket accept failed")
			return
		}
		defer conn.Close(websocket.StatusInternalError, "handler exited")

		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		client := newClientConn(r.RemoteAddr, gs.Options.OutboundQueueSize, logger)

		ctx, cancel := context.WithCancel(r.Context())
		go writePump(ctx, conn, client, gs.Options, logger)

		readErr := readGameMessages(ctx, conn, gs, client)
		cancel()

		gs.handleDisconnect(client)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, readErr)
		conn.Close(websocket.StatusNormalClosure, "")
	}
}

// readGameMessages reads, rate limits and dispatches client messages until the connection
// fails. Normal closure returns nil.
func readGameMessages(ctx context.Context, conn *websocket.Conn, gs *GameServer, client *clientConn) error {
	limiter := rate.NewLimiter(gs.Options.RateLimit, gs.Options.RateBurst)
	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if err := limiter.Wait(ctx); err != nil {
			return nil
		}

		if msgType != websocket.MessageText {
			gs.logger.WithField("conn", client.ID).Warn("ignoring non-text message")
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			gs.logger.WithError(err).WithField("conn", client.ID).Warn("invalid JSON from client")
			client.Write(game.NewError("invalid JSON format"))
			continue
		}
		gs.logger.WithFields(logrus.Fields{"conn": client.ID, "type": msg.Type}).Debug("received message")

		gs.handleMessage(client, msg)
	}
}

// writePump drains the client's queue onto the socket and pings on an interval.
func writePump(ctx context.Context, conn *websocket.Conn, client *clientConn, opts Options, logger *logrus.Logger) {
	ticker := time.NewTicker(opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-client.OutChan:
			if err := sendWsMessage(ctx, conn, ev, opts.WriteTimeout); err != nil {
				logger.WithError(err).WithField("conn", client.ID).Warn("write failed, stopping write pump")
				conn.Close(StatusWriteFailed, "write failed")
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.WithError(err).WithField("conn", client.ID).Warn("ping failed, assuming disconnect")
				conn.Close(StatusPingTimeout, "ping failed")
				return
			}
		}
	}
}

// sendWsMessage marshals message and writes it with a timeout.
func sendWsMessage(ctx context.Context, conn *websocket.Conn, message interface{}, timeout time.Duration) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
