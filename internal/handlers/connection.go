// internal/handlers/connection.go
package handlers

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/kingscup/internal/game"
	"github.com/sirupsen/logrus"
)

// clientConn is one websocket client's presence on the server.
// sessionID and username are set once, by the read loop, when the client creates or
// joins a session; they are only read from that same goroutine afterwards.
type clientConn struct {
	ID      uuid.UUID
	Remote  string
	OutChan chan game.Event

	sessionID string
	username  string

	logger *logrus.Logger
}

func newClientConn(remote string, queueSize int, logger *logrus.Logger) *clientConn {
	return &clientConn{
		ID:      uuid.New(),
		Remote:  remote,
		OutChan: make(chan game.Event, queueSize),
		logger:  logger,
	}
}

// Write queues an event for the write pump without blocking. A full queue drops the event.
func (c *clientConn) Write(ev game.Event) {
	select {
	case c.OutChan <- ev:
	default:
		c.logger.WithFields(logrus.Fields{
			"conn": c.ID,
			"user": c.username,
			"type": ev.Type,
		}).Warn("outbound queue full, dropped event")
	}
}

// associate binds the connection to a session seat.
func (c *clientConn) associate(sessionID, username string) {
	c.sessionID = sessionID
	c.username = username
}

func (c *clientConn) inSession() bool {
	return c.sessionID != ""
}
