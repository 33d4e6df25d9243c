// internal/game/session.go
package game

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/jason-s-yu/kingscup/internal/catalog"
	"github.com/jason-s-yu/kingscup/internal/models"
)

// PickedCard is the result of a successful draw.
type PickedCard struct {
	Picker string           `json:"picker"`
	Card   models.DrawnCard `json:"card"`
}

// Removal describes what a RemovePlayer call changed.
type Removal struct {
	// Removed is false when the username was not in the roster.
	Removed bool
	// Empty is true when the roster is now empty and the session must be deleted.
	Empty bool
	// HostChanged is true when the host left and players[0] took over.
	HostChanged bool
	// TurnChanged is true when the removed player held the turn in a started game.
	TurnChanged bool
}

// Session holds one game room in memory: the roster in turn order, the turn pointer,
// the lobby/playing flag and the session's deck.
//
// Mu guards everything below it. Methods other than the constructor assume the caller
// holds Mu, so that an authorization check and the mutation it guards happen atomically.
type Session struct {
	ID        string
	Name      string
	CreatedAt time.Time

	Mu sync.Mutex

	host        string
	players     []string
	turnIndex   int
	started     bool
	closed      bool
	deck        *Deck
	rng         *rand.Rand
	actionIndex int
}

// NewSession builds a session in the lobby phase with the host as its only player.
func NewSession(id, name, host string, cat *catalog.Catalog, rng *rand.Rand) *Session {
	return &Session{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now(),
		host:      host,
		players:   []string{host},
		deck:      NewDeck(cat, rng),
		rng:       rng,
	}
}

// AddPlayer appends username to the turn order. Only allowed while in the lobby.
func (s *Session) AddPlayer(username string) error {
	if s.closed {
		return ErrGameNotFound
	}
	if strings.TrimSpace(username) == "" {
		return ErrInvalidUsername
	}
	if s.started {
		return ErrGameAlreadyStarted
	}
	if s.HasPlayer(username) {
		return ErrDuplicatePlayer
	}
	s.players = append(s.players, username)
	return nil
}

// Start moves the session into play and picks a uniformly random starting player.
// Calling it again re-deals the current turn. Returns the new current player.
func (s *Session) Start() string {
	s.started = true
	s.turnIndex = s.rng.Intn(len(s.players))
	return s.CurrentPlayer()
}

// CurrentPlayer is the username whose action is currently valid.
func (s *Session) CurrentPlayer() string {
	if len(s.players) == 0 {
		return ""
	}
	return s.players[s.turnIndex]
}

// IsCurrentPlayer reports whether username holds the turn.
func (s *Session) IsCurrentPlayer(username string) bool {
	return len(s.players) > 0 && s.players[s.turnIndex] == username
}

// AdvanceTurn passes the turn to the next player in roster order, wrapping around.
// Returns the new current player.
func (s *Session) AdvanceTurn() string {
	if len(s.players) == 0 {
		return ""
	}
	s.turnIndex = (s.turnIndex + 1) % len(s.players)
	return s.CurrentPlayer()
}

// DrawCard takes the next card from the session's deck on behalf of picker.
func (s *Session) DrawCard(picker string) (PickedCard, error) {
	card, err := s.deck.PickNextCard()
	if err != nil {
		return PickedCard{}, err
	}
	return PickedCard{Picker: picker, Card: card}, nil
}

// RemovePlayer drops username from the roster. Removing an absent player is a no-op.
//
// The turn pointer follows the player who held it: if an earlier seat leaves the index
// shifts down by one, and if the current player leaves the turn passes to whoever now
// sits in that seat (wrapping to the first seat).
func (s *Session) RemovePlayer(username string) Removal {
	idx := s.indexOf(username)
	if idx < 0 {
		return Removal{}
	}

	res := Removal{Removed: true}
	wasCurrent := idx == s.turnIndex

	s.players = append(s.players[:idx], s.players[idx+1:]...)

	if len(s.players) == 0 {
		s.host = ""
		s.turnIndex = 0
		s.closed = true
		res.Empty = true
		return res
	}

	if idx < s.turnIndex {
		s.turnIndex--
	}
	s.turnIndex %= len(s.players)
	res.TurnChanged = wasCurrent && s.started

	if s.host == username {
		s.host = s.players[0]
		res.HostChanged = true
	}
	return res
}

// HasPlayer reports whether username is in the roster.
func (s *Session) HasPlayer(username string) bool {
	return s.indexOf(username) >= 0
}

// IsHost reports whether username is the current host.
func (s *Session) IsHost(username string) bool {
	return s.host != "" && s.host == username
}

// Host is the username of the current host.
func (s *Session) Host() string {
	return s.host
}

// Players returns a copy of the roster in turn order.
func (s *Session) Players() []string {
	out := make([]string, len(s.players))
	copy(out, s.players)
	return out
}

// Started reports whether the host has started the game.
func (s *Session) Started() bool {
	return s.started
}

// Closed reports whether the last player has left.
func (s *Session) Closed() bool {
	return s.closed
}

// TurnIndex is the raw position of the current player in the roster.
func (s *Session) TurnIndex() int {
	return s.turnIndex
}

// DeckRemaining is the number of cards left to draw.
func (s *Session) DeckRemaining() int {
	return s.deck.Remaining()
}

// NextActionIndex numbers accepted mutations for the action log.
func (s *Session) NextActionIndex() int {
	s.actionIndex++
	return s.actionIndex
}

func (s *Session) indexOf(username string) int {
	for i, p := range s.players {
		if p == username {
			return i
		}
	}
	return -1
}
