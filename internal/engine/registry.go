package engine

import (
	"crypto/rand"
	"fmt"
	"sync"

	"mathduel/internal/model"
)

// Registry is the authoritative store of active duel sessions, keyed by
// room ID. The registry mutex guards only the map; each session carries
// its own lock so unrelated duels never serialize against each other.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session
}

// NewRegistry creates an empty duel registry
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*session)}
}

// CreateDuel allocates a new waiting session with the initiator as
// player 1 and returns its room ID
func (r *Registry) CreateDuel(initiatorID string, timeLimit, roundLimit int) (string, error) {
	if timeLimit <= 0 || roundLimit <= 0 {
		return "", ErrInvalidConfig
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	roomID, err := r.generateRoomIDLocked()
	if err != nil {
		return "", err
	}

	r.sessions[roomID] = newSession(roomID, initiatorID, timeLimit, roundLimit)
	return roomID, nil
}

// JoinDuel adds the joiner as player 2 and transitions the session to
// active. This is the only transition into active.
func (r *Registry) JoinDuel(roomID, joinerID string) error {
	s := r.get(roomID)
	if s == nil {
		return ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Full is checked before the status guard so a third join attempt on
	// a running duel reports the slot problem, not the phase problem.
	if len(s.players) >= 2 {
		return ErrFull
	}
	if s.status != model.DuelWaiting {
		return ErrAlreadyStarted
	}
	if joinerID == s.players[0] {
		return ErrSelfJoin
	}

	s.players = append(s.players, joinerID)
	s.scores[joinerID] = 0
	s.status = model.DuelActive
	return nil
}

// Lookup returns a copy of the session state
func (r *Registry) Lookup(roomID string) (*model.DuelSnapshot, error) {
	s := r.get(roomID)
	if s == nil {
		return nil, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), nil
}

// Remove deletes a session. Removing an unknown room is a no-op.
func (r *Registry) Remove(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, roomID)
}

func (r *Registry) get(roomID string) *session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[roomID]
}

// generateRoomIDLocked creates a 6-char room code, retrying on the
// (unlikely) collision with a live session. Caller holds r.mu.
func (r *Registry) generateRoomIDLocked() (string, error) {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	const codeLen = 6

	for attempts := 0; attempts < 10; attempts++ {
		b := make([]byte, codeLen)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}

		code := make([]byte, codeLen)
		for i := range code {
			code[i] = chars[int(b[i])%len(chars)]
		}
		codeStr := string(code)

		if _, taken := r.sessions[codeStr]; !taken {
			return codeStr, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique room code")
}
