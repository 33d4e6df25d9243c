// internal/game/session_store.go
package game

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/jason-s-yu/kingscup/internal/catalog"
	log "github.com/sirupsen/logrus"
)

// codeAlphabet leaves out 0/O and 1/I so codes survive being read aloud.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

// SessionStore is the in-memory registry of live sessions, keyed by session code.
// One store lives for the whole serving process and is owned by the game server.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	catalog  *catalog.Catalog

	// NewRand seeds the randomness of each new session. Tests replace it for
	// deterministic shuffles.
	NewRand func() *mrand.Rand
}

// NewSessionStore returns an empty store whose sessions deal from cat.
func NewSessionStore(cat *catalog.Catalog) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		catalog:  cat,
		NewRand: func() *mrand.Rand {
			return mrand.New(mrand.NewSource(time.Now().UnixNano()))
		},
	}
}

// Create allocates a session with a fresh code, stores it and returns it.
func (s *SessionStore) Create(name, host string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newCodeLocked()
	sess := NewSession(id, name, host, s.catalog, s.NewRand())
	s.sessions[id] = sess
	log.WithFields(log.Fields{"game": id, "host": host}).Info("SessionStore: created session")
	return sess
}

// Get looks up a session by code. Codes are matched case-insensitively.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[NormalizeCode(id)]
	return sess, ok
}

// Delete removes a session. Deleting an unknown code is a no-op.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id = NormalizeCode(id)
	if _, ok := s.sessions[id]; ok {
		delete(s.sessions, id)
		log.WithField("game", id).Info("SessionStore: deleted session")
	}
}

// Len is the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// newCodeLocked draws random codes until one is not in use. Assumes mu is held.
func (s *SessionStore) newCodeLocked() string {
	for {
		id := newSessionCode()
		if _, exists := s.sessions[id]; !exists {
			return id
		}
	}
}

// NormalizeCode trims and upper-cases a user-typed session code.
func NormalizeCode(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func newSessionCode() string {
	out := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out[i] = codeAlphabet[n.Int64()]
	}
	return string(out)
}
