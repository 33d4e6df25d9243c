package handlers

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/jason-s-yu/kingscup/internal/catalog"
	"github.com/jason-s-yu/kingscup/internal/game"
	"github.com/jason-s-yu/kingscup/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	actions chan models.SessionAction
}

func (f *fakeRecorder) RecordAction(_ context.Context, action models.SessionAction) error {
	f.actions <- action
	return nil
}

func newTestGameServer(t *testing.T) *GameServer {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewGameServer(logger, catalog.Default())
}

func newTestClient(gs *GameServer) *clientConn {
	return newClientConn("test", 128, gs.logger)
}

func send(t *testing.T, gs *GameServer, c *clientConn, msgType string, payload interface{}) {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		raw = b
	}
	gs.handleMessage(c, ClientMessage{Type: msgType, Payload: raw})
}

// drain returns every event queued for c so far.
func drain(c *clientConn) []game.Event {
	var out []game.Event
	for {
		select {
		case ev := <-c.OutChan:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func eventTypes(evs []game.Event) []game.EventType {
	types := make([]game.EventType, 0, len(evs))
	for _, ev := range evs {
		types = append(types, ev.Type)
	}
	return types
}

// createAndJoin builds a session hosted by the first name with the rest joined, and
// clears every queue.
func createAndJoin(t *testing.T, gs *GameServer, names ...string) (string, map[string]*clientConn) {
	t.Helper()
	clients := make(map[string]*clientConn, len(names))

	host := newTestClient(gs)
	send(t, gs, host, msgCreateGame, createGamePayload{GameName: "Pub Quiz", HostName: names[0]})
	evs := drain(host)
	require.Len(t, evs, 1)
	require.Equal(t, game.EventGameJoined, evs[0].Type)
	gameID := evs[0].Payload.(game.GameJoinedPayload).GameID
	clients[names[0]] = host

	for _, name := range names[1:] {
		c := newTestClient(gs)
		send(t, gs, c, msgJoinGame, joinGamePayload{GameID: gameID, Username: name})
		clients[name] = c
	}
	for _, c := range clients {
		drain(c)
	}
	return gameID, clients
}

// startGame starts the session and returns the player holding the first turn.
func startGame(t *testing.T, gs *GameServer, host *clientConn) string {
	t.Helper()
	send(t, gs, host, msgStartGame, nil)
	evs := drain(host)
	require.Len(t, evs, 1)
	require.Equal(t, game.EventNextRound, evs[0].Type)
	return evs[0].Payload.(string)
}

func TestCreateGameConfirmsToCreator(t *testing.T) {
	gs := newTestGameServer(t)
	c := newTestClient(gs)

	send(t, gs, c, msgCreateGame, createGamePayload{GameName: "Pub Quiz", HostName: "alice"})

	evs := drain(c)
	require.Len(t, evs, 1)
	assert.Equal(t, game.EventGameJoined, evs[0].Type)
	p := evs[0].Payload.(game.GameJoinedPayload)
	assert.Equal(t, "Pub Quiz", p.GameName)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, []string{"alice"}, p.Players)

	sess, ok := gs.Sessions.Get(p.GameID)
	require.True(t, ok)
	assert.Equal(t, "alice", sess.Host())
	assert.Equal(t, 1, gs.groups.size(p.GameID))
}

func TestCreateGameDefaultsNameAndRejectsBlankHost(t *testing.T) {
	gs := newTestGameServer(t)

	c := newTestClient(gs)
	send(t, gs, c, msgCreateGame, createGamePayload{HostName: "bob"})
	evs := drain(c)
	require.Len(t, evs, 1)
	assert.Equal(t, "bob's game", evs[0].Payload.(game.GameJoinedPayload).GameName)

	blank := newTestClient(gs)
	send(t, gs, blank, msgCreateGame, createGamePayload{GameName: "x", HostName: "   "})
	evs = drain(blank)
	require.Len(t, evs, 1)
	assert.Equal(t, game.EventError, evs[0].Type)
	assert.Equal(t, 1, gs.Sessions.Len())
}

func TestJoinGameBroadcastsRoster(t *testing.T) {
	gs := newTestGameServer(t)
	host := newTestClient(gs)
	send(t, gs, host, msgCreateGame, createGamePayload{GameName: "Pub Quiz", HostName: "alice"})
	gameID := drain(host)[0].Payload.(game.GameJoinedPayload).GameID

	bob := newTestClient(gs)
	send(t, gs, bob, msgJoinGame, joinGamePayload{GameID: gameID, Username: "bob"})

	bobEvs := drain(bob)
	assert.Equal(t, []game.EventType{game.EventGameJoined, game.EventUserJoined}, eventTypes(bobEvs))
	joined := bobEvs[0].Payload.(game.GameJoinedPayload)
	assert.Equal(t, "Pub Quiz", joined.GameName)
	assert.Equal(t, "bob", joined.Username)
	assert.Equal(t, []string{"alice", "bob"}, joined.Players)

	hostEvs := drain(host)
	require.Len(t, hostEvs, 1)
	assert.Equal(t, game.EventUserJoined, hostEvs[0].Type)
	assert.Equal(t, []string{"alice", "bob"}, hostEvs[0].Payload.(game.UserJoinedPayload).Players)
}

func TestJoinGameUnknownCode(t *testing.T) {
	gs := newTestGameServer(t)
	c := newTestClient(gs)

	send(t, gs, c, msgJoinGame, joinGamePayload{GameID: "NOPE", Username: "bob"})

	evs := drain(c)
	require.Len(t, evs, 1)
	assert.Equal(t, game.EventInvalidGame, evs[0].Type)
	assert.Equal(t, "NOPE", evs[0].Payload)
	assert.Equal(t, 0, gs.Sessions.Len())
	assert.False(t, c.inSession())
}

func TestJoinGameRejections(t *testing.T) {
	gs := newTestGameServer(t)
	gameID, clients := createAndJoin(t, gs, "alice", "bob")

	dup := newTestClient(gs)
	send(t, gs, dup, msgJoinGame, joinGamePayload{GameID: gameID, Username: "bob"})
	evs := drain(dup)
	require.Len(t, evs, 1)
	assert.Equal(t, game.EventJoinRejected, evs[0].Type)
	assert.Equal(t, game.ReasonDuplicatePlayer, evs[0].Payload.(game.JoinRejectedPayload).Reason)

	blank := newTestClient(gs)
	send(t, gs, blank, msgJoinGame, joinGamePayload{GameID: gameID, Username: " "})
	evs = drain(blank)
	require.Len(t, evs, 1)
	assert.Equal(t, game.ReasonInvalidUsername, evs[0].Payload.(game.JoinRejectedPayload).Reason)

	// none of the rejections reached the group
	assert.Empty(t, drain(clients["bob"]))

	startGame(t, gs, clients["alice"])
	drain(clients["bob"])

	late := newTestClient(gs)
	send(t, gs, late, msgJoinGame, joinGamePayload{GameID: gameID, Username: "carol"})
	evs = drain(late)
	require.Len(t, evs, 1)
	assert.Equal(t, game.ReasonGameAlreadyStarted, evs[0].Payload.(game.JoinRejectedPayload).Reason)
	assert.Empty(t, drain(clients["bob"]))
}

func TestSecondCreateOrJoinIgnored(t *testing.T) {
	gs := newTestGameServer(t)
	gameID, clients := createAndJoin(t, gs, "alice", "bob")

	send(t, gs, clients["bob"], msgCreateGame, createGamePayload{GameName: "Other", HostName: "bob"})
	send(t, gs, clients["bob"], msgJoinGame, joinGamePayload{GameID: gameID, Username: "bob2"})

	assert.Empty(t, drain(clients["bob"]))
	assert.Equal(t, 1, gs.Sessions.Len())
}

func TestStartGameHostOnly(t *testing.T) {
	gs := newTestGameServer(t)
	_, clients := createAndJoin(t, gs, "alice", "bob", "carol")

	send(t, gs, clients["bob"], msgStartGame, nil)
	for _, c := range clients {
		assert.Empty(t, drain(c))
	}

	send(t, gs, clients["alice"], msgStartGame, nil)
	var first string
	for _, c := range clients {
		evs := drain(c)
		require.Len(t, evs, 1)
		assert.Equal(t, game.EventNextRound, evs[0].Type)
		if first == "" {
			first = evs[0].Payload.(string)
		}
		assert.Equal(t, first, evs[0].Payload)
	}
	assert.Contains(t, []string{"alice", "bob", "carol"}, first)
}

func TestTurnMessagesBeforeStartDropped(t *testing.T) {
	gs := newTestGameServer(t)
	_, clients := createAndJoin(t, gs, "alice", "bob")

	send(t, gs, clients["alice"], msgNextRound, nil)
	send(t, gs, clients["alice"], msgGetCard, nil)

	for _, c := range clients {
		assert.Empty(t, drain(c))
	}
}

func TestNextRoundCurrentPlayerOnly(t *testing.T) {
	gs := newTestGameServer(t)
	_, clients := createAndJoin(t, gs, "alice", "bob", "carol")
	order := []string{"alice", "bob", "carol"}

	current := startGame(t, gs, clients["alice"])
	for _, c := range clients {
		drain(c)
	}

	for _, name := range order {
		if name != current {
			send(t, gs, clients[name], msgNextRound, nil)
		}
	}
	for _, c := range clients {
		assert.Empty(t, drain(c))
	}

	send(t, gs, clients[current], msgNextRound, nil)
	idx := indexOf(order, current)
	want := order[(idx+1)%len(order)]
	for _, c := range clients {
		evs := drain(c)
		require.Len(t, evs, 1)
		assert.Equal(t, game.EventNextRound, evs[0].Type)
		assert.Equal(t, want, evs[0].Payload)
	}
}

func TestGetCardNonCurrentProducesNoBroadcast(t *testing.T) {
	gs := newTestGameServer(t)
	gameID, clients := createAndJoin(t, gs, "alice", "bob")

	current := startGame(t, gs, clients["alice"])
	for _, c := range clients {
		drain(c)
	}
	other := "alice"
	if current == "alice" {
		other = "bob"
	}

	send(t, gs, clients[other], msgGetCard, nil)
	for _, c := range clients {
		assert.Empty(t, drain(c))
	}
	sess, _ := gs.Sessions.Get(gameID)
	sess.Mu.Lock()
	assert.Equal(t, catalog.Default().Size(), sess.DeckRemaining())
	sess.Mu.Unlock()

	send(t, gs, clients[current], msgGetCard, nil)
	for _, c := range clients {
		evs := drain(c)
		require.Len(t, evs, 1)
		assert.Equal(t, game.EventPickedNextCard, evs[0].Type)
		picked := evs[0].Payload.(game.PickedCard)
		assert.Equal(t, current, picked.Picker)
		assert.NotEmpty(t, picked.Card.Code)
		assert.NotEmpty(t, picked.Card.Action)
	}
}

func TestGetCardOnEmptyDeck(t *testing.T) {
	gs := newTestGameServer(t)
	_, clients := createAndJoin(t, gs, "alice")
	startGame(t, gs, clients["alice"])

	size := catalog.Default().Size()
	for i := 0; i < size; i++ {
		send(t, gs, clients["alice"], msgGetCard, nil)
	}
	evs := drain(clients["alice"])
	require.Len(t, evs, size)

	send(t, gs, clients["alice"], msgGetCard, nil)
	evs = drain(clients["alice"])
	require.Len(t, evs, 1)
	assert.Equal(t, game.EventDeckEmpty, evs[0].Type)
	assert.Equal(t, "alice", evs[0].Payload.(game.DeckEmptyPayload).Picker)
}

func TestMalformedAndUnknownMessages(t *testing.T) {
	gs := newTestGameServer(t)
	c := newTestClient(gs)

	gs.handleMessage(c, ClientMessage{Type: msgCreateGame})
	gs.handleMessage(c, ClientMessage{Type: msgJoinGame, Payload: json.RawMessage(`"nope"`)})
	gs.handleMessage(c, ClientMessage{Type: "dance"})

	evs := drain(c)
	assert.Equal(t, []game.EventType{game.EventError, game.EventError, game.EventError}, eventTypes(evs))
	assert.Equal(t, 0, gs.Sessions.Len())
}

func TestDisconnectBroadcastsUserLeft(t *testing.T) {
	gs := newTestGameServer(t)
	gameID, clients := createAndJoin(t, gs, "alice", "bob", "carol")

	gs.handleDisconnect(clients["alice"])

	for _, name := range []string{"bob", "carol"} {
		evs := drain(clients[name])
		require.Len(t, evs, 1)
		assert.Equal(t, game.EventUserLeft, evs[0].Type)
		p := evs[0].Payload.(game.UserLeftPayload)
		assert.Equal(t, []string{"bob", "carol"}, p.Players)
		assert.Equal(t, "bob", p.Host)
	}
	assert.Equal(t, 2, gs.groups.size(gameID))
}

func TestDisconnectOfCurrentPlayerPassesTurn(t *testing.T) {
	gs := newTestGameServer(t)
	_, clients := createAndJoin(t, gs, "alice", "bob", "carol")
	order := []string{"alice", "bob", "carol"}

	current := startGame(t, gs, clients["alice"])
	for _, c := range clients {
		drain(c)
	}
	idx := indexOf(order, current)
	remaining := append(append([]string{}, order[:idx]...), order[idx+1:]...)
	want := remaining[idx%len(remaining)]

	gs.handleDisconnect(clients[current])

	for _, name := range remaining {
		evs := drain(clients[name])
		assert.Equal(t, []game.EventType{game.EventUserLeft, game.EventNextRound}, eventTypes(evs))
		assert.Equal(t, want, evs[1].Payload)
	}
}

func TestDisconnectLastPlayerRemovesSession(t *testing.T) {
	gs := newTestGameServer(t)
	gameID, clients := createAndJoin(t, gs, "alice", "bob")

	gs.handleDisconnect(clients["bob"])
	gs.handleDisconnect(clients["alice"])

	_, ok := gs.Sessions.Get(gameID)
	assert.False(t, ok)
	assert.Equal(t, 0, gs.groups.size(gameID))

	late := newTestClient(gs)
	send(t, gs, late, msgJoinGame, joinGamePayload{GameID: gameID, Username: "dave"})
	evs := drain(late)
	require.Len(t, evs, 1)
	assert.Equal(t, game.EventInvalidGame, evs[0].Type)
}

func TestDisconnectWithoutSessionIsNoop(t *testing.T) {
	gs := newTestGameServer(t)
	gs.handleDisconnect(newTestClient(gs))
	assert.Equal(t, 0, gs.Sessions.Len())
}

func TestWriteDropsWhenQueueFull(t *testing.T) {
	gs := newTestGameServer(t)
	c := newClientConn("test", 1, gs.logger)

	c.Write(game.NewNextRound("alice"))
	c.Write(game.NewNextRound("bob"))

	evs := drain(c)
	require.Len(t, evs, 1)
	assert.Equal(t, "alice", evs[0].Payload)
}

func TestAcceptedActionsAreRecorded(t *testing.T) {
	gs := newTestGameServer(t)
	rec := &fakeRecorder{actions: make(chan models.SessionAction, 16)}
	gs.Recorder = rec

	gameID, clients := createAndJoin(t, gs, "alice", "bob")
	startGame(t, gs, clients["alice"])
	send(t, gs, clients["bob"], msgStartGame, nil) // rejected, not recorded

	got := make(map[int]models.SessionAction)
	for i := 0; i < 3; i++ {
		select {
		case a := <-rec.actions:
			got[a.ActionIndex] = a
		case <-time.After(2 * time.Second):
			t.Fatalf("expected 3 recorded actions, got %d", len(got))
		}
	}
	require.Len(t, got, 3)
	assert.Equal(t, msgCreateGame, got[1].ActionType)
	assert.Equal(t, "alice", got[1].Actor)
	assert.Equal(t, msgJoinGame, got[2].ActionType)
	assert.Equal(t, "bob", got[2].Actor)
	assert.Equal(t, msgStartGame, got[3].ActionType)
	for _, a := range got {
		assert.Equal(t, gameID, a.SessionID)
	}

	select {
	case a := <-rec.actions:
		t.Fatalf("unexpected extra action %q", a.ActionType)
	case <-time.After(50 * time.Millisecond):
	}
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
