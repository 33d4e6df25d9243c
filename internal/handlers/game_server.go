// internal/handlers/game_server.go
package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kingscup/internal/catalog"
	"github.com/jason-s-yu/kingscup/internal/game"
	"github.com/jason-s-yu/kingscup/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ActionRecorder receives every accepted session action. The Redis publisher implements it.
type ActionRecorder interface {
	RecordAction(ctx context.Context, action models.SessionAction) error
}

// Options tunes per-connection behavior of the realtime gateway.
type Options struct {
	OutboundQueueSize int
	PingInterval      time.Duration
	WriteTimeout      time.Duration
	RateLimit         rate.Limit
	RateBurst         int
	// PublicURL is the base URL used in join links, e.g. "https://kings.example.com".
	// When empty, the request's host is used.
	PublicURL string
	ImageDir  string
}

// DefaultOptions returns the values used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		OutboundQueueSize: 32,
		PingInterval:      30 * time.Second,
		WriteTimeout:      5 * time.Second,
		RateLimit:         rate.Limit(10),
		RateBurst:         20,
	}
}

// GameServer holds the session registry and everything the HTTP and websocket
// handlers share.
type GameServer struct {
	Sessions *game.SessionStore
	Catalog  *catalog.Catalog
	Decks    DeckStore      // optional; nil disables /decks
	Recorder ActionRecorder // optional; nil disables the action log
	Options  Options

	groups *broadcastGroups
	logger *logrus.Logger
}

func NewGameServer(logger *logrus.Logger, cat *catalog.Catalog) *GameServer {
	return &GameServer{
		Sessions: game.NewSessionStore(cat),
		Catalog:  cat,
		Options:  DefaultOptions(),
		groups:   newBroadcastGroups(),
		logger:   logger,
	}
}

// record publishes an accepted action to the recorder without blocking the caller.
// Assumes the session lock is held.
func (gs *GameServer) record(sess *game.Session, actor, actionType string, payload map[string]interface{}) {
	if gs.Recorder == nil {
		return
	}
	action := models.SessionAction{
		ID:          uuid.New(),
		SessionID:   sess.ID,
		ActionIndex: sess.NextActionIndex(),
		Actor:       actor,
		ActionType:  actionType,
		Payload:     payload,
		Timestamp:   time.Now().UnixMilli(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := gs.Recorder.RecordAction(ctx, action); err != nil {
			gs.logger.WithError(err).WithFields(logrus.Fields{
				"session": action.SessionID,
				"action":  action.ActionType,
			}).Warn("failed to record session action")
		}
	}()
}
