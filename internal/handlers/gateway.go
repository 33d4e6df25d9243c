// internal/handlers/gateway.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jason-s-yu/kingscup/internal/game"
	"github.com/sirupsen/logrus"
)

// Inbound message types.
const (
	msgCreateGame = "createGame"
	msgJoinGame   = "joinGame"
	msgStartGame  = "startGame"
	msgNextRound  = "nextRound"
	msgGetCard    = "getCard"
)

// ClientMessage is the envelope every client message arrives in.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type createGamePayload struct {
	GameName string `json:"gameName"`
	HostName string `json:"hostName"`
}

type joinGamePayload struct {
	GameID   string `json:"gameID"`
	Username string `json:"username"`
}

// handleMessage routes one decoded client message. It is only called from the
// connection's read loop, so per-connection state needs no locking.
func (gs *GameServer) handleMessage(c *clientConn, msg ClientMessage) {
	switch msg.Type {
	case msgCreateGame:
		var p createGamePayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			c.Write(game.NewError("invalid createGame payload"))
			return
		}
		gs.handleCreateGame(c, p)
	case msgJoinGame:
		var p joinGamePayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			c.Write(game.NewError("invalid joinGame payload"))
			return
		}
		gs.handleJoinGame(c, p)
	case msgStartGame:
		gs.handleStartGame(c)
	case msgNextRound:
		gs.handleNextRound(c)
	case msgGetCard:
		gs.handleGetCard(c)
	default:
		gs.logger.WithFields(logrus.Fields{"conn": c.ID, "type": msg.Type}).Warn("unknown message type")
		c.Write(game.NewError(fmt.Sprintf("unknown message type: %s", msg.Type)))
	}
}

func decodePayload(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return errors.New("missing payload")
	}
	return json.Unmarshal(raw, v)
}

func (gs *GameServer) handleCreateGame(c *clientConn, p createGamePayload) {
	if c.inSession() {
		gs.logger.WithFields(logrus.Fields{"conn": c.ID, "session": c.sessionID}).Warn("createGame from a connection already in a session")
		return
	}
	host := strings.TrimSpace(p.HostName)
	if host == "" {
		c.Write(game.NewError("hostName is required"))
		return
	}
	name := strings.TrimSpace(p.GameName)
	if name == "" {
		name = host + "'s game"
	}

	sess := gs.Sessions.Create(name, host)

	sess.Mu.Lock()
	defer sess.Mu.Unlock()
	c.associate(sess.ID, host)
	gs.groups.subscribe(sess.ID, c)
	c.Write(game.NewGameJoined(sess, host))
	gs.record(sess, host, msgCreateGame, map[string]interface{}{"gameName": name})
}

func (gs *GameServer) handleJoinGame(c *clientConn, p joinGamePayload) {
	if c.inSession() {
		gs.logger.WithFields(logrus.Fields{"conn": c.ID, "session": c.sessionID}).Warn("joinGame from a connection already in a session")
		return
	}
	gameID := game.NormalizeCode(p.GameID)
	sess, ok := gs.Sessions.Get(gameID)
	if !ok {
		c.Write(game.NewInvalidGame(p.GameID))
		return
	}
	username := strings.TrimSpace(p.Username)

	sess.Mu.Lock()
	defer sess.Mu.Unlock()
	if err := sess.AddPlayer(username); err != nil {
		switch {
		case errors.Is(err, game.ErrGameNotFound):
			// torn down between lookup and lock
			c.Write(game.NewInvalidGame(p.GameID))
		case errors.Is(err, game.ErrGameAlreadyStarted):
			c.Write(game.NewJoinRejected(sess.ID, game.ReasonGameAlreadyStarted))
		case errors.Is(err, game.ErrDuplicatePlayer):
			c.Write(game.NewJoinRejected(sess.ID, game.ReasonDuplicatePlayer))
		case errors.Is(err, game.ErrInvalidUsername):
			c.Write(game.NewJoinRejected(sess.ID, game.ReasonInvalidUsername))
		default:
			gs.logger.WithError(err).Error("unexpected join failure")
			c.Write(game.NewError("unable to join game"))
		}
		return
	}

	c.associate(sess.ID, username)
	gs.groups.subscribe(sess.ID, c)
	c.Write(game.NewGameJoined(sess, username))
	gs.groups.broadcast(sess.ID, game.NewUserJoined(sess))
	gs.record(sess, username, msgJoinGame, nil)
}

func (gs *GameServer) handleStartGame(c *clientConn) {
	sess := gs.sessionFor(c)
	if sess == nil {
		return
	}
	sess.Mu.Lock()
	defer sess.Mu.Unlock()
	if !sess.IsHost(c.username) {
		gs.logger.WithFields(logrus.Fields{"session": sess.ID, "user": c.username}).Debug("startGame from non-host ignored")
		return
	}
	current := sess.Start()
	gs.groups.broadcast(sess.ID, game.NewNextRound(current))
	gs.record(sess, c.username, msgStartGame, map[string]interface{}{"current": current})
}

func (gs *GameServer) handleNextRound(c *clientConn) {
	sess := gs.sessionFor(c)
	if sess == nil {
		return
	}
	sess.Mu.Lock()
	defer sess.Mu.Unlock()
	if !gs.holdsTurn(sess, c) {
		return
	}
	next := sess.AdvanceTurn()
	gs.groups.broadcast(sess.ID, game.NewNextRound(next))
	gs.record(sess, c.username, msgNextRound, map[string]interface{}{"current": next})
}

func (gs *GameServer) handleGetCard(c *clientConn) {
	sess := gs.sessionFor(c)
	if sess == nil {
		return
	}
	sess.Mu.Lock()
	defer sess.Mu.Unlock()
	if !gs.holdsTurn(sess, c) {
		return
	}
	picked, err := sess.DrawCard(c.username)
	if errors.Is(err, game.ErrEmptyDeck) {
		gs.groups.broadcast(sess.ID, game.NewDeckEmpty(c.username))
		return
	}
	if err != nil {
		gs.logger.WithError(err).WithField("session", sess.ID).Error("draw failed")
		return
	}
	gs.groups.broadcast(sess.ID, game.NewPickedNextCard(picked))
	gs.record(sess, c.username, msgGetCard, map[string]interface{}{"code": picked.Card.Code})
}

// handleDisconnect removes the connection's player, tears the session down when it
// empties and otherwise tells the remaining players.
func (gs *GameServer) handleDisconnect(c *clientConn) {
	if !c.inSession() {
		return
	}
	gs.groups.unsubscribe(c.sessionID, c)
	sess, ok := gs.Sessions.Get(c.sessionID)
	if !ok {
		return
	}

	sess.Mu.Lock()
	defer sess.Mu.Unlock()
	res := sess.RemovePlayer(c.username)
	if !res.Removed {
		return
	}
	gs.record(sess, c.username, "leave", nil)
	if res.Empty {
		gs.Sessions.Delete(sess.ID)
		gs.groups.drop(sess.ID)
		gs.logger.WithField("session", sess.ID).Info("session emptied and removed")
		return
	}
	gs.groups.broadcast(sess.ID, game.NewUserLeft(sess))
	if res.TurnChanged {
		gs.groups.broadcast(sess.ID, game.NewNextRound(sess.CurrentPlayer()))
	}
}

// sessionFor resolves the session a connection belongs to, or nil when it has none.
func (gs *GameServer) sessionFor(c *clientConn) *game.Session {
	if !c.inSession() {
		gs.logger.WithField("conn", c.ID).Debug("turn message from a connection outside any session")
		return nil
	}
	sess, ok := gs.Sessions.Get(c.sessionID)
	if !ok {
		return nil
	}
	return sess
}

// holdsTurn reports whether the connection's player may act right now.
// Assumes the session lock is held.
func (gs *GameServer) holdsTurn(sess *game.Session, c *clientConn) bool {
	if !sess.Started() {
		gs.logger.WithFields(logrus.Fields{"session": sess.ID, "user": c.username}).Debug("turn message before start ignored")
		return false
	}
	if !sess.IsCurrentPlayer(c.username) {
		gs.logger.WithFields(logrus.Fields{"session": sess.ID, "user": c.username}).Debug("turn message out of turn ignored")
		return false
	}
	return true
}
