package engine

import (
	"sync"

	"mathduel/internal/model"
)

// session is the authoritative in-memory state for one duel room. All
// reads and writes go through mu; the registry hands out *session only
// to code that locks it.
type session struct {
	mu sync.Mutex

	roomID           string
	players          []string // creator at index 0, joiner at index 1
	status           model.DuelStatus
	round            int
	roundLimit       int
	timeLimitSeconds int

	challenge *model.Challenge
	scores    map[string]int
	answered  map[string]bool
}

func newSession(roomID, initiatorID string, timeLimit, roundLimit int) *session {
	return &session{
		roomID:           roomID,
		players:          []string{initiatorID},
		status:           model.DuelWaiting,
		round:            1,
		roundLimit:       roundLimit,
		timeLimitSeconds: timeLimit,
		scores:           map[string]int{initiatorID: 0},
		answered:         make(map[string]bool),
	}
}

// snapshotLocked copies the session state. Caller holds s.mu.
func (s *session) snapshotLocked() *model.DuelSnapshot {
	return &model.DuelSnapshot{
		RoomID:           s.roomID,
		Players:          append([]string(nil), s.players...),
		Status:           s.status,
		Round:            s.round,
		RoundLimit:       s.roundLimit,
		TimeLimitSeconds: s.timeLimitSeconds,
		Scores:           copyScores(s.scores),
	}
}

// bothAnsweredLocked reports whether every registered player has an
// entry in the answered set. Caller holds s.mu.
func (s *session) bothAnsweredLocked() bool {
	if len(s.players) < 2 {
		return false
	}
	for _, p := range s.players {
		if !s.answered[p] {
			return false
		}
	}
	return true
}

// winnerLocked returns the player with the strictly greater score, or
// ("", true) on a tie. Caller holds s.mu.
func (s *session) winnerLocked() (string, bool) {
	a, b := s.players[0], s.players[1]
	switch {
	case s.scores[a] > s.scores[b]:
		return a, false
	case s.scores[b] > s.scores[a]:
		return b, false
	default:
		return "", true
	}
}

func copyScores(scores map[string]int) map[string]int {
	out := make(map[string]int, len(scores))
	for k, v := range scores {
		out[k] = v
	}
	return out
}
