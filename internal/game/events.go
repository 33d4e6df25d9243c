// internal/game/events.go
package game

// EventType names a server -> client message.
type EventType string

const (
	EventGameJoined     EventType = "gameJoined"     // to the creator or joiner
	EventInvalidGame    EventType = "invalidGame"    // to a joiner with an unknown code
	EventJoinRejected   EventType = "joinRejected"   // to a joiner the session refused
	EventUserJoined     EventType = "userJoined"     // to the group
	EventUserLeft       EventType = "userLeft"       // to the group
	EventNextRound      EventType = "nextRound"      // to the group, payload is the current player
	EventPickedNextCard EventType = "pickedNextCard" // to the group
	EventDeckEmpty      EventType = "deckEmpty"      // to the group
	EventError          EventType = "error"          // to the sender of a malformed message
)

// Join rejection reasons carried in JoinRejectedPayload.
const (
	ReasonGameAlreadyStarted = "gameAlreadyStarted"
	ReasonDuplicatePlayer    = "duplicatePlayer"
	ReasonInvalidUsername    = "invalidUsername"
)

// Event is the envelope for everything the server sends.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type GameJoinedPayload struct {
	GameName string   `json:"gameName"`
	Username string   `json:"username"`
	GameID   string   `json:"gameID"`
	Players  []string `json:"players"`
}

type UserJoinedPayload struct {
	Players []string `json:"players"`
}

type UserLeftPayload struct {
	Players []string `json:"players"`
	Host    string   `json:"host"`
}

type DeckEmptyPayload struct {
	Picker string `json:"picker"`
}

type JoinRejectedPayload struct {
	GameID string `json:"gameID"`
	Reason string `json:"reason"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// NewGameJoined confirms membership to username. Assumes the session lock is held.
func NewGameJoined(s *Session, username string) Event {
	return Event{Type: EventGameJoined, Payload: GameJoinedPayload{
		GameName: s.Name,
		Username: username,
		GameID:   s.ID,
		Players:  s.Players(),
	}}
}

// NewUserJoined announces the roster after a join. Assumes the session lock is held.
func NewUserJoined(s *Session) Event {
	return Event{Type: EventUserJoined, Payload: UserJoinedPayload{Players: s.Players()}}
}

// NewUserLeft announces the roster and host after a removal. Assumes the session lock is held.
func NewUserLeft(s *Session) Event {
	return Event{Type: EventUserLeft, Payload: UserLeftPayload{Players: s.Players(), Host: s.Host()}}
}

// NewNextRound announces whose turn it is.
func NewNextRound(username string) Event {
	return Event{Type: EventNextRound, Payload: username}
}

// NewPickedNextCard announces a drawn card.
func NewPickedNextCard(p PickedCard) Event {
	return Event{Type: EventPickedNextCard, Payload: p}
}

// NewDeckEmpty tells the group that picker tried to draw from an exhausted deck.
func NewDeckEmpty(picker string) Event {
	return Event{Type: EventDeckEmpty, Payload: DeckEmptyPayload{Picker: picker}}
}

// NewInvalidGame tells a joiner their code does not resolve.
func NewInvalidGame(gameID string) Event {
	return Event{Type: EventInvalidGame, Payload: gameID}
}

// NewJoinRejected tells a joiner why the session refused them.
func NewJoinRejected(gameID, reason string) Event {
	return Event{Type: EventJoinRejected, Payload: JoinRejectedPayload{GameID: gameID, Reason: reason}}
}

// NewError reports a malformed or unknown message back to its sender.
func NewError(msg string) Event {
	return Event{Type: EventError, Payload: ErrorPayload{Message: msg}}
}
